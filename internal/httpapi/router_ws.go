package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/3n8/openclaw-plugins/internal/actionerr"
	"github.com/3n8/openclaw-plugins/internal/adapter"
	"github.com/3n8/openclaw-plugins/internal/gateway"
	"github.com/3n8/openclaw-plugins/internal/params"
)

// wsRequest carries either a router verb or a platform action.
type wsRequest struct {
	ID         string        `json:"id"`
	Verb       string        `json:"verb"`
	Action     string        `json:"action"`
	Params     params.Params `json:"params"`
	AccountID  string        `json:"accountId"`
	ClientName string        `json:"clientName"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// handleWebsocket answers each frame in order on a single connection.
// Responses echo the request id, generated when the client omits one.
func (r *router) handleWebsocket(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.deps.Logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxBodyBytes)

	ctx := req.Context()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	r.deps.Logger.Debug("websocket client connected", "remote_addr", req.RemoteAddr)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
				r.deps.Logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		response := r.answerFrame(req, raw)
		if err := conn.WriteJSON(response); err != nil {
			r.deps.Logger.Warn("websocket write failed", "error", err)
			return
		}
	}
}

func (r *router) answerFrame(req *http.Request, raw []byte) map[string]any {
	var frame wsRequest
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&frame); err != nil {
		return map[string]any{"id": uuid.NewString(), "error": "invalid payload", "kind": actionerr.KindInvalidParameter}
	}
	if strings.TrimSpace(frame.ID) == "" {
		frame.ID = uuid.NewString()
	}

	var (
		result map[string]any
		err    error
	)
	switch {
	case strings.TrimSpace(frame.Verb) != "":
		result, err = r.deps.Gateway.Dispatch(req.Context(), gateway.TransportWebsocket, frame.Verb, frame.Params)
	case strings.TrimSpace(frame.Action) != "":
		result, err = r.deps.Gateway.HandleAction(req.Context(), gateway.TransportWebsocket, adapter.Request{
			Action:     frame.Action,
			Params:     frame.Params,
			AccountID:  frame.AccountID,
			ClientName: frame.ClientName,
		})
	default:
		err = &actionerr.MissingParameterError{Field: "verb"}
	}
	if err != nil {
		body := errorBody(err)
		body["id"] = frame.ID
		return body
	}
	return map[string]any{"id": frame.ID, "result": result}
}
