// Package gateway is the single entry point transports use to run Matrix
// actions. It pins one configuration snapshot per call and records an audit
// entry for every dispatch.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/3n8/openclaw-plugins/internal/actionerr"
	"github.com/3n8/openclaw-plugins/internal/actions"
	"github.com/3n8/openclaw-plugins/internal/adapter"
	"github.com/3n8/openclaw-plugins/internal/config"
	"github.com/3n8/openclaw-plugins/internal/params"
	"github.com/3n8/openclaw-plugins/internal/store"
)

const (
	TransportHTTP      = "http"
	TransportWebsocket = "websocket"
	TransportMCP       = "mcp"
	TransportCLI       = "cli"
)

var ErrAuditDisabled = errors.New("audit log disabled")

type Snapshotter interface {
	Current() config.Matrix
}

type Router interface {
	Dispatch(ctx context.Context, verb string, raw params.Params, cfg actions.GateConfig) (actions.Result, error)
}

type AuditStore interface {
	CreateActionAudit(ctx context.Context, input store.CreateActionAuditInput) (store.ActionAuditRecord, error)
	ListActionAudit(ctx context.Context, input store.ListActionAuditInput) ([]store.ActionAuditRecord, error)
	Ping(ctx context.Context) error
}

type Service struct {
	source Snapshotter
	router Router
	audit  AuditStore
	logger *slog.Logger
}

// New builds the service. audit may be nil.
func New(source Snapshotter, router Router, audit AuditStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source: source,
		router: router,
		audit:  audit,
		logger: logger.With("component", "gateway"),
	}
}

// Dispatch runs a router verb directly.
func (s *Service) Dispatch(ctx context.Context, transport, verb string, raw params.Params) (actions.Result, error) {
	snapshot := s.source.Current()
	call := &auditedCall{service: s, transport: transport}
	return call.Dispatch(ctx, verb, raw, snapshot.Actions)
}

// HandleAction runs a platform action through the adapter. Requests the
// adapter rejects before reaching the router are audited under the action
// name.
func (s *Service) HandleAction(ctx context.Context, transport string, req adapter.Request) (actions.Result, error) {
	snapshot := s.source.Current()
	call := &auditedCall{service: s, transport: transport, action: strings.TrimSpace(req.Action)}
	started := time.Now()
	result, err := adapter.New(call).Handle(ctx, snapshot, req)
	if !call.dispatched {
		s.record(ctx, call, call.action, req.Params, started, err)
	}
	return result, err
}

func (s *Service) ListActions() []string {
	return adapter.New(s.router).ListActions(s.source.Current())
}

func (s *Service) Verbs() []actions.VerbInfo {
	return actions.Verbs()
}

// Account reports the resolved default account with its token blanked.
func (s *Service) Account() config.ResolvedAccount {
	account := s.source.Current().ResolveAccount("")
	account.AccessToken = ""
	return account
}

// Ready fails when the audit store is unreachable.
func (s *Service) Ready(ctx context.Context) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.Ping(ctx)
}

func (s *Service) AuditLog(ctx context.Context, input store.ListActionAuditInput) ([]store.ActionAuditRecord, error) {
	if s.audit == nil {
		return nil, ErrAuditDisabled
	}
	return s.audit.ListActionAudit(ctx, input)
}

// auditedCall sits between the adapter and the router for one request.
type auditedCall struct {
	service    *Service
	transport  string
	action     string
	dispatched bool
}

func (c *auditedCall) Dispatch(ctx context.Context, verb string, raw params.Params, cfg actions.GateConfig) (actions.Result, error) {
	c.dispatched = true
	started := time.Now()
	result, err := c.service.router.Dispatch(ctx, verb, raw, cfg)
	c.service.record(ctx, c, verb, raw, started, err)
	return result, err
}

func (s *Service) record(ctx context.Context, call *auditedCall, verb string, raw params.Params, started time.Time, dispatchErr error) {
	if s.audit == nil {
		return
	}
	verb = strings.TrimSpace(verb)
	if verb == "" {
		verb = "unknown"
	}
	input := store.CreateActionAuditInput{
		Transport: call.transport,
		Verb:      verb,
		Action:    call.action,
		AccountID: stringParam(raw, "accountId"),
		RoomID:    roomParam(raw),
		Outcome:   store.OutcomeOK,
		Duration:  time.Since(started),
	}
	if category, ok := actions.CategoryOf(verb); ok {
		input.Category = string(category)
	}
	if dispatchErr != nil {
		input.Outcome = store.OutcomeError
		input.ErrorKind = actionerr.Kind(dispatchErr)
		input.ErrorMessage = dispatchErr.Error()
		input.Added, _ = actionerr.Added(dispatchErr)
	}
	// The caller's context may already be cancelled; the audit row should
	// still land.
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := s.audit.CreateActionAudit(auditCtx, input); err != nil {
		s.logger.Warn("action audit write failed", "verb", verb, "transport", call.transport, "error", err)
	}
}

func stringParam(raw params.Params, key string) string {
	value, _ := raw[key].(string)
	return strings.TrimSpace(value)
}

func roomParam(raw params.Params) string {
	for _, key := range []string{"roomId", "channelId", "to"} {
		if value := stringParam(raw, key); value != "" {
			return value
		}
	}
	return ""
}
