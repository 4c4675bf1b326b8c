package config

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/3n8/openclaw-plugins/internal/heartbeat"
)

// Source hands out the current channel configuration. Readers take one
// snapshot per dispatch; Reload swaps it atomically.
type Source struct {
	path     string
	env      Config
	static   bool
	logger   *slog.Logger
	reporter heartbeat.Reporter
	current  atomic.Pointer[Matrix]
}

func NewSource(path string, env Config, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	source := &Source{
		path:     path,
		env:      env,
		logger:   logger.With("component", "config"),
		reporter: heartbeat.Nop(),
	}
	if err := source.Reload(); err != nil {
		return nil, err
	}
	return source, nil
}

// StaticSource serves a fixed snapshot and never reloads.
func StaticSource(m Matrix) *Source {
	source := &Source{static: true, logger: slog.Default(), reporter: heartbeat.Nop()}
	source.current.Store(&m)
	return source
}

func (s *Source) SetHeartbeatReporter(reporter heartbeat.Reporter) {
	if reporter != nil {
		s.reporter = reporter
	}
}

func (s *Source) Path() string {
	return s.path
}

func (s *Source) Current() Matrix {
	snapshot := s.current.Load()
	if snapshot == nil {
		return Matrix{}
	}
	return *snapshot
}

// Reload re-reads the file. On failure the previous snapshot stays live.
func (s *Source) Reload() error {
	if s.static {
		return nil
	}
	loaded, err := LoadMatrix(s.path, s.env)
	if err != nil {
		return err
	}
	s.current.Store(&loaded)
	return nil
}

// OnFileChange is the watcher callback.
func (s *Source) OnFileChange(_ context.Context, path string) {
	if err := s.Reload(); err != nil {
		s.reporter.Degrade("config", "reload failed", err)
		s.logger.Error("channel config reload failed; keeping previous snapshot", "path", path, "error", err)
		return
	}
	s.reporter.Beat("config", "reloaded")
	s.logger.Info("channel config reloaded", "path", path)
}
