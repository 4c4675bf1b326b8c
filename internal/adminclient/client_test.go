package adminclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/3n8/openclaw-plugins/internal/config"
	"github.com/3n8/openclaw-plugins/internal/params"
	"github.com/3n8/openclaw-plugins/internal/store"
)

func TestClientDispatch(t *testing.T) {
	t.Parallel()

	var got struct {
		Verb   string         `json:"verb"`
		Params map[string]any `json:"params"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/actions/dispatch" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"pinned":["$m"]}`))
	}))
	defer server.Close()

	client := &Client{baseURL: server.URL, http: server.Client()}
	result, err := client.Dispatch(context.Background(), "pinMessage", params.Params{"roomId": "!r:example.org", "messageId": "$m"})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got.Verb != "pinMessage" || got.Params["roomId"] != "!r:example.org" {
		t.Fatalf("unexpected request payload: %+v", got)
	}
	if result["ok"] != true {
		t.Fatalf("unexpected result: %v", result)
	}
}

func TestClientDecodesActionErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"react with 🎉 after adding 👍: rate limited","kind":"protocol","added":["👍"]}`))
	}))
	defer server.Close()

	client := &Client{baseURL: server.URL, http: server.Client()}
	_, err := client.HandleAction(context.Background(), HandleActionRequest{Action: "react"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected api error, got %v", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Kind != "protocol" || len(apiErr.Added) != 1 {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestClientListAuditQuery(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if r.URL.Path != "/api/v1/actions/audit" || query.Get("verb") != "react" || query.Get("limit") != "5" || query.Get("account_id") != "ops" {
			t.Errorf("unexpected request: %s", r.URL.String())
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"audit_1","transport":"http","verb":"react","outcome":"ok","durationMs":3,"createdAt":"2026-01-02T03:04:05Z"}],"count":1}`))
	}))
	defer server.Close()

	client := &Client{baseURL: server.URL, http: server.Client()}
	items, err := client.ListAudit(context.Background(), store.ListActionAuditInput{Verb: "react", AccountID: "ops", Limit: 5})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(items) != 1 || items[0].ID != "audit_1" || items[0].DurationMS != 3 {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestNewRespectsAPITimeoutConfig(t *testing.T) {
	t.Parallel()

	client, err := New(config.Config{
		APIURL:        "https://example.com/",
		APITimeoutSec: 42,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.http.Timeout != 42*time.Second {
		t.Fatalf("expected timeout 42s, got %s", client.http.Timeout)
	}
	if client.baseURL != "https://example.com" {
		t.Fatalf("expected trailing slash trimmed, got %s", client.baseURL)
	}
}
