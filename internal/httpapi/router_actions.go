package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/3n8/openclaw-plugins/internal/actionerr"
	"github.com/3n8/openclaw-plugins/internal/adapter"
	"github.com/3n8/openclaw-plugins/internal/gateway"
	"github.com/3n8/openclaw-plugins/internal/params"
	"github.com/3n8/openclaw-plugins/internal/store"
)

type dispatchRequest struct {
	Verb   string        `json:"verb"`
	Params params.Params `json:"params"`
}

type actionRequest struct {
	Action     string        `json:"action"`
	Params     params.Params `json:"params"`
	AccountID  string        `json:"accountId"`
	ClientName string        `json:"clientName"`
}

func (r *router) handleActions(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"actions": r.deps.Gateway.ListActions(),
		"verbs":   r.deps.Gateway.Verbs(),
	})
}

func (r *router) handleDispatch(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var payload dispatchRequest
	if err := decodeBody(w, req, &payload); err != nil {
		writePayloadError(w, err)
		return
	}
	if strings.TrimSpace(payload.Verb) == "" {
		writeActionError(w, &actionerr.MissingParameterError{Field: "verb"})
		return
	}
	result, err := r.deps.Gateway.Dispatch(req.Context(), gateway.TransportHTTP, payload.Verb, payload.Params)
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (r *router) handleAction(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var payload actionRequest
	if err := decodeBody(w, req, &payload); err != nil {
		writePayloadError(w, err)
		return
	}
	if strings.TrimSpace(payload.Action) == "" {
		writeActionError(w, &actionerr.MissingParameterError{Field: "action"})
		return
	}
	result, err := r.deps.Gateway.HandleAction(req.Context(), gateway.TransportHTTP, adapter.Request{
		Action:     payload.Action,
		Params:     payload.Params,
		AccountID:  payload.AccountID,
		ClientName: payload.ClientName,
	})
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (r *router) handleAudit(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	query := req.URL.Query()
	limit := 100
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed > 0 {
			limit = parsed
		}
	}
	items, err := r.deps.Gateway.AuditLog(req.Context(), store.ListActionAuditInput{
		Verb:      query.Get("verb"),
		Outcome:   query.Get("outcome"),
		AccountID: query.Get("account_id"),
		Limit:     limit,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, gateway.ErrAuditDisabled) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

// maxBodyBytes caps request bodies and websocket frames.
const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, req *http.Request, out any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	decoder.UseNumber()
	return decoder.Decode(out)
}

func writePayloadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "payload too large"})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
}

// errorBody is the failure payload shared by HTTP and websocket responses.
func errorBody(err error) map[string]any {
	body := map[string]any{
		"error": err.Error(),
		"kind":  actionerr.Kind(err),
	}
	if added, ok := actionerr.Added(err); ok {
		if added == nil {
			added = []string{}
		}
		body["added"] = added
	}
	return body
}

func statusForKind(kind string) int {
	switch kind {
	case actionerr.KindMissingParameter, actionerr.KindInvalidParameter:
		return http.StatusBadRequest
	case actionerr.KindActionDisabled:
		return http.StatusForbidden
	case actionerr.KindUnsupportedAction:
		return http.StatusNotFound
	case actionerr.KindTargetResolution:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func writeActionError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForKind(actionerr.Kind(err)), errorBody(err))
}
