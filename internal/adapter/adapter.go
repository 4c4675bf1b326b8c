// Package adapter maps platform message actions ("send", "react", ...) onto
// the Matrix action router's verbs.
package adapter

import (
	"context"
	"strings"

	"github.com/3n8/openclaw-plugins/internal/actionerr"
	"github.com/3n8/openclaw-plugins/internal/actions"
	"github.com/3n8/openclaw-plugins/internal/config"
	"github.com/3n8/openclaw-plugins/internal/params"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, verb string, raw params.Params, cfg actions.GateConfig) (actions.Result, error)
}

// Request is one platform action invocation. ClientName identifies the
// gateway client and selects an account when AccountID is empty.
type Request struct {
	Action     string
	Params     params.Params
	AccountID  string
	ClientName string
}

type Adapter struct {
	router Dispatcher
}

func New(router Dispatcher) *Adapter {
	return &Adapter{router: router}
}

// ListActions advertises nothing unless the default account can actually
// talk to a homeserver.
func (a *Adapter) ListActions(m config.Matrix) []string {
	account := m.ResolveAccount("")
	if !account.Enabled || !account.Configured {
		return []string{}
	}
	return actions.ListActions(m.Actions)
}

// SupportsAction reports whether Handle can serve action. poll is listed for
// capability discovery but has no Matrix implementation.
func SupportsAction(action string) bool {
	return strings.TrimSpace(action) != "poll"
}

type ToolSend struct {
	To        string `json:"to"`
	AccountID string `json:"accountId,omitempty"`
}

// ExtractToolSend pulls the delivery target out of raw router arguments so
// the host can attribute an agent's sendMessage tool call.
func ExtractToolSend(args map[string]any) (ToolSend, bool) {
	action, _ := args["action"].(string)
	if strings.TrimSpace(action) != "sendMessage" {
		return ToolSend{}, false
	}
	to, _ := args["to"].(string)
	if to == "" {
		return ToolSend{}, false
	}
	accountID, _ := args["accountId"].(string)
	return ToolSend{To: to, AccountID: strings.TrimSpace(accountID)}, true
}

// EffectiveAccountID prefers the explicit account, then a configured account
// whose key matches the client name.
func EffectiveAccountID(m config.Matrix, accountID, clientName string) string {
	if explicit := strings.TrimSpace(accountID); explicit != "" {
		return explicit
	}
	if strings.TrimSpace(clientName) == "" {
		return ""
	}
	if key, ok := m.AccountKey(clientName); ok {
		return key
	}
	return ""
}

func (a *Adapter) Handle(ctx context.Context, m config.Matrix, req Request) (actions.Result, error) {
	action := strings.TrimSpace(req.Action)
	mapping, ok := mappings[action]
	if !ok || !SupportsAction(action) {
		return nil, &actionerr.UnsupportedActionError{Verb: action}
	}
	in := req.Params
	if in == nil {
		in = params.Params{}
	}
	out, err := mapping.translate(in, m)
	if err != nil {
		return nil, err
	}
	if accountID := EffectiveAccountID(m, req.AccountID, req.ClientName); accountID != "" {
		out["accountId"] = accountID
	}
	return a.router.Dispatch(ctx, mapping.verb, out, m.Actions)
}
