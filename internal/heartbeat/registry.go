// Package heartbeat tracks the state of the service's long-running
// components for readiness reporting.
package heartbeat

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	StateStarting = "starting"
	StateHealthy  = "healthy"
	StateDegraded = "degraded"
	StateDisabled = "disabled"
	StateStopped  = "stopped"
)

// Reporter is the write side handed to components.
type Reporter interface {
	Starting(component, message string)
	Beat(component, message string)
	Degrade(component, message string, err error)
	Disabled(component, message string)
	Stopped(component, message string)
}

type ComponentStatus struct {
	Name          string `json:"name"`
	State         string `json:"state"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
	UpdatedAtUnix int64  `json:"updated_at_unix"`
}

type Snapshot struct {
	GeneratedAtUnix int64             `json:"generated_at_unix"`
	Overall         string            `json:"overall"`
	Components      []ComponentStatus `json:"components"`
}

// Ready reports whether no component is degraded or still starting.
func (s Snapshot) Ready() bool {
	return s.Overall != StateDegraded && s.Overall != StateStarting
}

type Registry struct {
	mu         sync.RWMutex
	components map[string]ComponentStatus
}

func NewRegistry() *Registry {
	return &Registry{components: map[string]ComponentStatus{}}
}

func (r *Registry) Starting(component, message string) {
	r.set(component, StateStarting, message, nil)
}

func (r *Registry) Beat(component, message string) {
	r.set(component, StateHealthy, message, nil)
}

func (r *Registry) Degrade(component, message string, err error) {
	if err == nil {
		err = errors.New("degraded")
	}
	r.set(component, StateDegraded, message, err)
}

func (r *Registry) Disabled(component, message string) {
	r.set(component, StateDisabled, message, nil)
}

func (r *Registry) Stopped(component, message string) {
	r.set(component, StateStopped, message, nil)
}

func (r *Registry) set(component, state, message string, err error) {
	name := strings.ToLower(strings.TrimSpace(component))
	if name == "" {
		return
	}
	status := ComponentStatus{
		Name:          name,
		State:         state,
		Message:       strings.TrimSpace(message),
		UpdatedAtUnix: time.Now().UTC().Unix(),
	}
	if err != nil {
		status.Error = strings.TrimSpace(err.Error())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[name] = status
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	results := make([]ComponentStatus, 0, len(r.components))
	for _, status := range r.components {
		results = append(results, status)
	}
	r.mu.RUnlock()

	sort.Slice(results, func(left, right int) bool {
		return results[left].Name < results[right].Name
	})
	return Snapshot{
		GeneratedAtUnix: time.Now().UTC().Unix(),
		Overall:         overall(results),
		Components:      results,
	}
}

func overall(items []ComponentStatus) string {
	if len(items) == 0 {
		return "unknown"
	}
	starting := false
	active := false
	for _, item := range items {
		switch item.State {
		case StateDegraded:
			return StateDegraded
		case StateStarting:
			starting = true
		case StateHealthy:
			active = true
		}
	}
	switch {
	case starting:
		return StateStarting
	case active:
		return StateHealthy
	default:
		return "idle"
	}
}

type nopReporter struct{}

func (nopReporter) Starting(string, string) {}
func (nopReporter) Beat(string, string) {}
func (nopReporter) Degrade(string, string, error) {}
func (nopReporter) Disabled(string, string) {}
func (nopReporter) Stopped(string, string) {}

// Nop returns a Reporter that drops every update.
func Nop() Reporter {
	return nopReporter{}
}
