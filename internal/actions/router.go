// Package actions gates, validates and dispatches normalized Matrix chat
// actions to a protocol client.
package actions

import (
	"context"
	"log/slog"
	"strings"

	"github.com/3n8/openclaw-plugins/internal/actionerr"
	"github.com/3n8/openclaw-plugins/internal/params"
	"github.com/3n8/openclaw-plugins/internal/protocol"
	"github.com/3n8/openclaw-plugins/internal/target"
	"github.com/3n8/openclaw-plugins/internal/telemetry"
)

// Result is the success envelope: always {"ok": true, ...payload}. Failures
// are returned as errors, never as a Result.
type Result map[string]any

func envelope(payload map[string]any) Result {
	result := Result{"ok": true}
	for key, value := range payload {
		result[key] = value
	}
	return result
}

type Options struct {
	// Predicate overrides the placeholder rules used for reaction targets.
	Predicate     target.Predicate
	Tracer        telemetry.Tracer
	FallbackLimit int
}

// Router is stateless across calls; one Router may serve concurrent
// dispatches.
type Router struct {
	client   protocol.Client
	resolver *target.Resolver
	tracer   telemetry.Tracer
	verbs    map[string]descriptor
}

func NewRouter(client protocol.Client, opts Options) *Router {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = telemetry.Nop()
	}
	verbs := make(map[string]descriptor, len(verbTable))
	for _, desc := range verbTable {
		verbs[desc.verb] = desc
	}
	return &Router{
		client:   client,
		resolver: target.NewResolver(client, opts.Predicate, tracer, opts.FallbackLimit),
		tracer:   tracer,
		verbs:    verbs,
	}
}

// Dispatch runs verb against the protocol client. The gate is evaluated from
// cfg, a snapshot owned by the caller. Every validation error is returned
// before the first protocol call.
func (r *Router) Dispatch(ctx context.Context, verb string, raw params.Params, cfg GateConfig) (Result, error) {
	name := strings.TrimSpace(verb)
	desc, ok := r.verbs[name]
	if !ok {
		err := &actionerr.UnsupportedActionError{Verb: name}
		r.reject(ctx, name, CategoryNone, err)
		return nil, err
	}
	if !NewGate(cfg).IsEnabled(desc.category) {
		err := &actionerr.ActionDisabledError{Category: string(desc.category)}
		r.reject(ctx, name, desc.category, err)
		return nil, err
	}
	in, err := extract(raw, desc.fields)
	if err != nil {
		r.reject(ctx, name, desc.category, err)
		return nil, err
	}

	r.tracer.Emit(ctx, telemetry.EventActionDispatched,
		slog.String("verb", name),
		slog.String("category", string(desc.category)),
		slog.String("room_id", in.str("roomId")),
		slog.String("account_id", in.str("accountId")),
	)
	result, err := desc.handle(r, ctx, in)
	if err != nil {
		attrs := []slog.Attr{
			slog.String("verb", name),
			slog.String("kind", actionerr.Kind(err)),
			slog.String("error", err.Error()),
		}
		if added, ok := actionerr.Added(err); ok {
			attrs = append(attrs, slog.Any("added", added))
		}
		r.tracer.Emit(ctx, telemetry.EventActionFailed, attrs...)
		return nil, err
	}
	r.tracer.Emit(ctx, telemetry.EventActionCompleted, slog.String("verb", name))
	return result, nil
}

func (r *Router) reject(ctx context.Context, verb string, category Category, err error) {
	r.tracer.Emit(ctx, telemetry.EventActionRejected,
		slog.String("verb", verb),
		slog.String("category", string(category)),
		slog.String("kind", actionerr.Kind(err)),
		slog.String("error", err.Error()),
	)
}

func invalidField(name, reason string) error {
	return &actionerr.InvalidParameterError{Field: name, Reason: reason}
}

func callOptions(in args) protocol.CallOptions {
	return protocol.CallOptions{AccountID: in.str("accountId")}
}
