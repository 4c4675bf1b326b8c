package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/3n8/openclaw-plugins/internal/actions"
	"github.com/3n8/openclaw-plugins/internal/adapter"
	"github.com/3n8/openclaw-plugins/internal/config"
	"github.com/3n8/openclaw-plugins/internal/heartbeat"
	"github.com/3n8/openclaw-plugins/internal/params"
	"github.com/3n8/openclaw-plugins/internal/store"
)

type ActionGateway interface {
	Dispatch(ctx context.Context, transport, verb string, raw params.Params) (actions.Result, error)
	HandleAction(ctx context.Context, transport string, req adapter.Request) (actions.Result, error)
	ListActions() []string
	Verbs() []actions.VerbInfo
	Account() config.ResolvedAccount
	Ready(ctx context.Context) error
	AuditLog(ctx context.Context, input store.ListActionAuditInput) ([]store.ActionAuditRecord, error)
}

type Dependencies struct {
	Config    config.Config
	Gateway   ActionGateway
	Heartbeat *heartbeat.Registry
	Metrics   http.Handler
	MCP       http.Handler
	Logger    *slog.Logger
	Version   string
}

type router struct {
	deps Dependencies
}

func NewRouter(deps Dependencies) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	rt := &router{deps: deps}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.handleHealth)
	mux.HandleFunc("/readyz", rt.handleReady)
	mux.HandleFunc("/api/v1/info", rt.handleInfo)
	mux.HandleFunc("/api/v1/actions", rt.handleActions)
	mux.HandleFunc("/api/v1/actions/dispatch", rt.handleDispatch)
	mux.HandleFunc("/api/v1/actions/handle", rt.handleAction)
	mux.HandleFunc("/api/v1/actions/audit", rt.handleAudit)
	mux.HandleFunc("/api/v1/actions/ws", rt.handleWebsocket)
	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics)
	}
	if deps.MCP != nil {
		mux.Handle("/mcp", deps.MCP)
	}
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
