package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/3n8/openclaw-plugins/internal/heartbeat"
)

type fakePruner struct {
	cutoffs []time.Time
	deleted int64
	err     error
}

func (f *fakePruner) PruneActionAudit(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.deleted, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnceUsesRetentionWindow(t *testing.T) {
	pruner := &fakePruner{deleted: 4}
	service, err := New(pruner, "", 7, testLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	deleted, err := service.RunOnce(context.Background(), now)
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if deleted != 4 {
		t.Fatalf("expected 4 deleted, got %d", deleted)
	}
	if want := now.Add(-7 * 24 * time.Hour); len(pruner.cutoffs) != 1 || !pruner.cutoffs[0].Equal(want) {
		t.Fatalf("expected cutoff %s, got %v", want, pruner.cutoffs)
	}
}

func TestRunOnceReportsFailure(t *testing.T) {
	registry := heartbeat.NewRegistry()
	service, err := New(&fakePruner{err: errors.New("disk full")}, "0 3 * * *", 30, testLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	service.SetHeartbeatReporter(registry)
	if _, err := service.RunOnce(context.Background(), time.Now()); err == nil {
		t.Fatalf("expected prune error")
	}
	if registry.Snapshot().Overall != heartbeat.StateDegraded {
		t.Fatalf("expected degraded scheduler, got %+v", registry.Snapshot())
	}
}

func TestNewParsesSchedule(t *testing.T) {
	if _, err := New(nil, "not a cron", 30, testLogger()); err == nil {
		t.Fatalf("expected invalid schedule error")
	}
	service, err := New(nil, "0 3 * * *", 30, testLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	from := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if next := service.Next(from); !next.Equal(time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected next run: %s", next)
	}
	daily, _ := New(nil, "", 0, testLogger())
	if next := daily.Next(from); !next.Equal(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected default next run: %s", next)
	}
}

func TestStartWithoutPrunerIsDisabled(t *testing.T) {
	registry := heartbeat.NewRegistry()
	service, _ := New(nil, "", 30, testLogger())
	service.SetHeartbeatReporter(registry)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := service.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if registry.Snapshot().Components[0].State != heartbeat.StateDisabled {
		t.Fatalf("expected disabled, got %+v", registry.Snapshot())
	}
	if deleted, err := service.RunOnce(context.Background(), time.Now()); err != nil || deleted != 0 {
		t.Fatalf("expected no-op run, got %d %v", deleted, err)
	}
}
