package httpapi

import (
	"net/http"
)

func (r *router) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *router) handleReady(w http.ResponseWriter, req *http.Request) {
	payload := map[string]any{"status": "ready"}
	status := http.StatusOK
	if r.deps.Heartbeat != nil {
		snapshot := r.deps.Heartbeat.Snapshot()
		payload["heartbeat"] = snapshot
		if !snapshot.Ready() {
			status = http.StatusServiceUnavailable
			payload["status"] = "not-ready"
		}
	}
	if err := r.deps.Gateway.Ready(req.Context()); err != nil {
		status = http.StatusServiceUnavailable
		payload["status"] = "not-ready"
		payload["error"] = err.Error()
	}
	writeJSON(w, status, payload)
}

func (r *router) handleInfo(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "matrix-actions",
		"version":     r.deps.Version,
		"environment": r.deps.Config.Environment,
		"account":     r.deps.Gateway.Account(),
		"actions":     r.deps.Gateway.ListActions(),
	})
}
