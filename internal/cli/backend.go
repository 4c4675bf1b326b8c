package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/3n8/openclaw-plugins/internal/actions"
	"github.com/3n8/openclaw-plugins/internal/adapter"
	"github.com/3n8/openclaw-plugins/internal/adminclient"
	"github.com/3n8/openclaw-plugins/internal/app"
	"github.com/3n8/openclaw-plugins/internal/config"
	"github.com/3n8/openclaw-plugins/internal/gateway"
	"github.com/3n8/openclaw-plugins/internal/params"
	"github.com/3n8/openclaw-plugins/internal/store"
)

// backend is where one-shot commands send their work: an in-process
// gateway, or a running server's HTTP API with --remote.
type backend interface {
	Dispatch(ctx context.Context, verb string, raw params.Params) (actions.Result, error)
	HandleAction(ctx context.Context, input adminclient.HandleActionRequest) (actions.Result, error)
	ListActions(ctx context.Context) (adminclient.ListActionsResponse, error)
	ListAudit(ctx context.Context, input store.ListActionAuditInput) ([]store.ActionAuditRecord, error)
}

type remoteOptions struct {
	remote     bool
	timeoutSec int
}

// openBackend returns the backend and a close func.
func openBackend(opts remoteOptions, logger *slog.Logger) (backend, func(), error) {
	cfg := config.FromEnv()
	if opts.remote {
		if opts.timeoutSec > 0 {
			cfg.APITimeoutSec = opts.timeoutSec
		}
		client, err := adminclient.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil
	}
	// One-shot commands never run the watcher.
	cfg.WatchConfig = false
	runtime, err := app.New(cfg, version, logger)
	if err != nil {
		return nil, nil, err
	}
	return localBackend{service: runtime.Gateway()}, func() { _ = runtime.Close() }, nil
}

type localBackend struct {
	service *gateway.Service
}

func (b localBackend) Dispatch(ctx context.Context, verb string, raw params.Params) (actions.Result, error) {
	return b.service.Dispatch(ctx, gateway.TransportCLI, verb, raw)
}

func (b localBackend) HandleAction(ctx context.Context, input adminclient.HandleActionRequest) (actions.Result, error) {
	return b.service.HandleAction(ctx, gateway.TransportCLI, adapter.Request{
		Action:     input.Action,
		Params:     input.Params,
		AccountID:  input.AccountID,
		ClientName: input.ClientName,
	})
}

func (b localBackend) ListActions(context.Context) (adminclient.ListActionsResponse, error) {
	return adminclient.ListActionsResponse{Actions: b.service.ListActions(), Verbs: b.service.Verbs()}, nil
}

func (b localBackend) ListAudit(ctx context.Context, input store.ListActionAuditInput) ([]store.ActionAuditRecord, error) {
	return b.service.AuditLog(ctx, input)
}

func commandTimeout(timeoutSec int) time.Duration {
	if timeoutSec < 1 {
		timeoutSec = 60
	}
	if timeoutSec > 600 {
		timeoutSec = 600
	}
	return time.Duration(timeoutSec) * time.Second
}
