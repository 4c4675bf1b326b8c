package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/3n8/openclaw-plugins/internal/heartbeat"
)

// Service watches individual files. Editors often replace a file instead of
// writing it in place, so the parent directory is watched and events are
// filtered by name.
type Service struct {
	files    map[string]struct{}
	dirs     []string
	logger   *slog.Logger
	onChange func(context.Context, string)
	watcher  *fsnotify.Watcher
	reporter heartbeat.Reporter
}

func New(files []string, logger *slog.Logger, onChange func(context.Context, string)) (*Service, error) {
	fileWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	watched := map[string]struct{}{}
	seenDirs := map[string]struct{}{}
	dirs := []string{}
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			fileWatcher.Close()
			return nil, fmt.Errorf("resolve watch path %s: %w", file, err)
		}
		watched[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if _, ok := seenDirs[dir]; !ok {
			seenDirs[dir] = struct{}{}
			dirs = append(dirs, dir)
		}
	}
	return &Service{
		files:    watched,
		dirs:     dirs,
		logger:   logger.With("component", "watcher"),
		onChange: onChange,
		watcher:  fileWatcher,
		reporter: heartbeat.Nop(),
	}, nil
}

func (s *Service) SetHeartbeatReporter(reporter heartbeat.Reporter) {
	if reporter != nil {
		s.reporter = reporter
	}
}

func (s *Service) Start(ctx context.Context) error {
	defer s.watcher.Close()

	for _, dir := range s.dirs {
		if err := s.watcher.Add(dir); err != nil {
			s.reporter.Degrade("watcher", "watch failed", err)
			return fmt.Errorf("watch path %s: %w", dir, err)
		}
	}
	s.reporter.Beat("watcher", "watching")
	s.logger.Info("config watcher started", "dirs", strings.Join(s.dirs, ","))

	for {
		select {
		case <-ctx.Done():
			s.reporter.Stopped("watcher", "stopped")
			s.logger.Info("config watcher stopped")
			return nil
		case event, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(ctx, event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				s.reporter.Degrade("watcher", "watch error", err)
				s.logger.Error("file watcher error", "error", err)
			}
		}
	}
}

func (s *Service) handleEvent(ctx context.Context, event fsnotify.Event) {
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	if _, ok := s.files[name]; !ok {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	s.logger.Info("config file changed", "path", name, "op", event.Op.String())
	s.onChange(ctx, name)
}
