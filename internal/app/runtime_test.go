package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/3n8/openclaw-plugins/internal/config"
	"github.com/3n8/openclaw-plugins/internal/heartbeat"
	"github.com/3n8/openclaw-plugins/internal/params"
	"github.com/3n8/openclaw-plugins/internal/store"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	configFile := filepath.Join(root, "config.yaml")
	channelFile := `channels:
  matrix:
    homeserver: https://matrix.example.org
    userId: "@bot:example.org"
    accessToken: secret
    actions:
      pins: false
`
	if err := os.WriteFile(configFile, []byte(channelFile), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg := config.FromEnv()
	cfg.DataDir = root
	cfg.DBPath = filepath.Join(root, "audit", "audit.sqlite")
	cfg.ConfigFile = configFile
	cfg.AuditEnabled = true
	cfg.AuditRetentionCron = "@daily"
	cfg.WatchConfig = true
	return cfg
}

func newTestRuntime(t *testing.T, cfg config.Config) *Runtime {
	t.Helper()
	runtime, err := New(cfg, "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	t.Cleanup(func() { _ = runtime.Close() })
	return runtime
}

func TestNewRuntimeWiresGatewayFromConfigFile(t *testing.T) {
	runtime := newTestRuntime(t, testConfig(t))
	listed := runtime.Gateway().ListActions()
	if len(listed) == 0 || listed[0] != "send" {
		t.Fatalf("expected actions for configured account, got %v", listed)
	}
	for _, action := range listed {
		if action == "pin" {
			t.Fatalf("expected pins disabled by config, got %v", listed)
		}
	}
	if runtime.watcher == nil || runtime.store == nil {
		t.Fatalf("expected watcher and audit store")
	}
}

func TestGatewayRejectsDisabledVerbAndAudits(t *testing.T) {
	runtime := newTestRuntime(t, testConfig(t))
	ctx := context.Background()
	_, err := runtime.Gateway().Dispatch(ctx, "cli", "pinMessage", params.Params{"roomId": "!r:example.org", "messageId": "$m"})
	if err == nil || !strings.Contains(err.Error(), "pins") {
		t.Fatalf("expected pins disabled error, got %v", err)
	}
	records, err := runtime.store.ListActionAudit(ctx, storeListAll())
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(records) != 1 || records[0].ErrorKind != "action_disabled" || records[0].Transport != "cli" {
		t.Fatalf("unexpected audit records: %+v", records)
	}
}

func TestHTTPHandlerServesHealthAndMetrics(t *testing.T) {
	runtime := newTestRuntime(t, testConfig(t))
	server := httptest.NewServer(runtime.httpServer.Handler)
	defer server.Close()

	res, err := http.Get(server.URL + "/api/v1/actions")
	if err != nil {
		t.Fatalf("get actions: %v", err)
	}
	defer res.Body.Close()
	var payload map[string]any
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.StatusCode != http.StatusOK || payload["actions"] == nil {
		t.Fatalf("unexpected actions response %d: %v", res.StatusCode, payload)
	}

	metrics, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer metrics.Body.Close()
	body, _ := io.ReadAll(metrics.Body)
	if metrics.StatusCode != http.StatusOK || !strings.Contains(string(body), "go_goroutines") {
		t.Fatalf("unexpected metrics response %d", metrics.StatusCode)
	}
}

func TestAuditDisabledSkipsStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuditEnabled = false
	cfg.WatchConfig = false
	runtime := newTestRuntime(t, cfg)
	if runtime.store != nil || runtime.watcher != nil {
		t.Fatalf("expected no store and no watcher")
	}
	if err := runtime.Gateway().Ready(context.Background()); err != nil {
		t.Fatalf("ready: %v", err)
	}
}

func TestNewRuntimeRejectsBadRetentionSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuditRetentionCron = "every tuesday"
	if _, err := New(cfg, "test", slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Fatalf("expected schedule parse error")
	}
}

func TestRunMonitoredReportsFailure(t *testing.T) {
	registry := heartbeat.NewRegistry()
	boom := errors.New("boom")
	err := runMonitored(context.Background(), registry, "api", func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if registry.Snapshot().Overall != heartbeat.StateDegraded {
		t.Fatalf("expected degraded, got %+v", registry.Snapshot())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = runMonitored(ctx, registry, "api", func(context.Context) error { return nil })
	if registry.Snapshot().Components[0].State != heartbeat.StateStopped {
		t.Fatalf("expected stopped, got %+v", registry.Snapshot())
	}
}

func storeListAll() store.ListActionAuditInput {
	return store.ListActionAuditInput{Limit: 10}
}
