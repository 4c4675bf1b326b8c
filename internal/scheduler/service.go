// Package scheduler prunes the dispatch audit log on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/3n8/openclaw-plugins/internal/heartbeat"
)

const defaultRetentionExpr = "@daily"

var retentionParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type Pruner interface {
	PruneActionAudit(ctx context.Context, cutoff time.Time) (int64, error)
}

type Service struct {
	pruner    Pruner
	expr      string
	schedule  cron.Schedule
	retention time.Duration
	logger    *slog.Logger
	reporter  heartbeat.Reporter
}

// New fails on an invalid cron expression. A nil pruner yields a disabled
// service.
func New(pruner Pruner, expr string, retentionDays int, logger *slog.Logger) (*Service, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		expr = defaultRetentionExpr
	}
	schedule, err := retentionParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse retention schedule %q: %w", expr, err)
	}
	if retentionDays < 1 {
		retentionDays = 30
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		pruner:    pruner,
		expr:      expr,
		schedule:  schedule,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		logger:    logger.With("component", "scheduler"),
		reporter:  heartbeat.Nop(),
	}, nil
}

func (s *Service) SetHeartbeatReporter(reporter heartbeat.Reporter) {
	if reporter != nil {
		s.reporter = reporter
	}
}

// Next returns the first run after from.
func (s *Service) Next(from time.Time) time.Time {
	return s.schedule.Next(from)
}

func (s *Service) Start(ctx context.Context) error {
	if s.pruner == nil {
		s.reporter.Disabled("scheduler", "audit disabled")
		<-ctx.Done()
		return nil
	}
	runner := cron.New(cron.WithParser(retentionParser), cron.WithLocation(time.UTC))
	runner.Schedule(s.schedule, cron.FuncJob(func() {
		if _, err := s.RunOnce(ctx, time.Now()); err != nil {
			s.logger.Error("audit retention failed", "error", err)
		}
	}))
	runner.Start()
	s.reporter.Beat("scheduler", "waiting for "+s.expr)
	s.logger.Info("scheduler started", "schedule", s.expr, "retention", s.retention.String())

	<-ctx.Done()
	<-runner.Stop().Done()
	s.reporter.Stopped("scheduler", "stopped")
	s.logger.Info("scheduler stopped")
	return nil
}

// RunOnce deletes audit records older than the retention window measured
// from now.
func (s *Service) RunOnce(ctx context.Context, now time.Time) (int64, error) {
	if s.pruner == nil {
		return 0, nil
	}
	cutoff := now.UTC().Add(-s.retention)
	deleted, err := s.pruner.PruneActionAudit(ctx, cutoff)
	if err != nil {
		s.reporter.Degrade("scheduler", "prune failed", err)
		return 0, err
	}
	s.reporter.Beat("scheduler", "pruned")
	s.logger.Info("audit retention completed", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	return deleted, nil
}
