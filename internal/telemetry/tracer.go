// Package telemetry carries structured action events out of the router.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
)

const (
	EventActionDispatched = "action_dispatched"
	EventActionRejected   = "action_rejected"
	EventActionCompleted  = "action_completed"
	EventActionFailed     = "action_failed"
	EventTargetResolved   = "target_resolved"
	EventTargetFallback   = "target_resolution_fallback"
	EventReactionAdded    = "reaction_added"
	EventReactionsRemoved = "reactions_removed"
)

type Tracer interface {
	Emit(ctx context.Context, name string, attrs ...slog.Attr)
}

type nopTracer struct{}

func (nopTracer) Emit(context.Context, string, ...slog.Attr) {}

// Nop discards every event.
func Nop() Tracer {
	return nopTracer{}
}

type slogTracer struct {
	logger *slog.Logger
}

// NewSlogTracer writes events to logger at debug level.
func NewSlogTracer(logger *slog.Logger) Tracer {
	if logger == nil {
		return Nop()
	}
	return slogTracer{logger: logger}
}

func (t slogTracer) Emit(ctx context.Context, name string, attrs ...slog.Attr) {
	t.logger.LogAttrs(ctx, slog.LevelDebug, name, attrs...)
}

type multiTracer []Tracer

// Multi fans every event out to all non-nil tracers.
func Multi(tracers ...Tracer) Tracer {
	filtered := make(multiTracer, 0, len(tracers))
	for _, tracer := range tracers {
		if tracer != nil {
			filtered = append(filtered, tracer)
		}
	}
	return filtered
}

func (m multiTracer) Emit(ctx context.Context, name string, attrs ...slog.Attr) {
	for _, tracer := range m {
		tracer.Emit(ctx, name, attrs...)
	}
}

type Event struct {
	Name  string
	Attrs map[string]any
}

// Recorder keeps every event in memory. It is exported so tests in other
// packages can assert on emitted events.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(_ context.Context, name string, attrs ...slog.Attr) {
	values := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		values[attr.Key] = attr.Value.Any()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Name: name, Attrs: values})
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Named returns recorded events called name, in emission order.
func (r *Recorder) Named(name string) []Event {
	out := []Event{}
	for _, event := range r.Events() {
		if event.Name == name {
			out = append(out, event)
		}
	}
	return out
}
