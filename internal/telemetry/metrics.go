package telemetry

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts router events per event name and verb.
type Metrics struct {
	events *prometheus.CounterVec
}

func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "matrix_actions",
		Name:      "events_total",
		Help:      "Action router events by event name and verb.",
	}, []string{"event", "verb"})
	if registerer != nil {
		if err := registerer.Register(events); err != nil {
			return nil, err
		}
	}
	return &Metrics{events: events}, nil
}

func (m *Metrics) Emit(_ context.Context, name string, attrs ...slog.Attr) {
	verb := ""
	for _, attr := range attrs {
		if attr.Key == "verb" {
			verb = attr.Value.String()
			break
		}
	}
	m.events.WithLabelValues(name, verb).Inc()
}
