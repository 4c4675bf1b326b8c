package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/3n8/openclaw-plugins/internal/heartbeat"
)

// Run serves HTTP and runs the background services until ctx ends or one of
// them fails.
func (r *Runtime) Run(ctx context.Context) error {
	r.logger.Info("matrix-actions runtime starting", "addr", r.cfg.HTTPAddr, "config_file", r.source.Path())

	group, groupCtx := errgroup.WithContext(ctx)
	r.startBackground(group, groupCtx)

	// Hijacked websocket connections inherit groupCtx and close on shutdown.
	r.httpServer.BaseContext = func(net.Listener) context.Context { return groupCtx }
	group.Go(func() error {
		r.heartbeat.Beat("api", "serving")
		return runMonitored(groupCtx, r.heartbeat, "api", func(runCtx context.Context) error {
			err := r.httpServer.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return r.httpServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// RunMCP serves the MCP tools over stdio. It returns when the client
// disconnects or ctx ends.
func (r *Runtime) RunMCP(ctx context.Context) error {
	r.logger.Info("matrix-actions mcp starting", "config_file", r.source.Path())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, groupCtx := errgroup.WithContext(runCtx)
	r.startBackground(group, groupCtx)
	group.Go(func() error {
		defer cancel()
		return r.mcp.RunStdio(groupCtx)
	})
	return group.Wait()
}

func (r *Runtime) startBackground(group *errgroup.Group, ctx context.Context) {
	if r.watcher != nil {
		group.Go(func() error {
			return runMonitored(ctx, r.heartbeat, "watcher", r.watcher.Start)
		})
	}
	group.Go(func() error {
		return runMonitored(ctx, r.heartbeat, "scheduler", r.scheduler.Start)
	})
}

// runMonitored reports a component as failed when run returns an error
// before shutdown. Components report their own healthy states.
func runMonitored(ctx context.Context, reporter heartbeat.Reporter, component string, run func(context.Context) error) error {
	if reporter == nil {
		reporter = heartbeat.Nop()
	}
	err := run(ctx)
	if err != nil && ctx.Err() == nil {
		reporter.Degrade(component, "component failed", err)
		return err
	}
	reporter.Stopped(component, "stopped")
	return err
}
