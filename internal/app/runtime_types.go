package app

import (
	"log/slog"
	"net/http"

	"github.com/3n8/openclaw-plugins/internal/config"
	"github.com/3n8/openclaw-plugins/internal/gateway"
	"github.com/3n8/openclaw-plugins/internal/heartbeat"
	"github.com/3n8/openclaw-plugins/internal/mcp"
	"github.com/3n8/openclaw-plugins/internal/scheduler"
	"github.com/3n8/openclaw-plugins/internal/store"
	"github.com/3n8/openclaw-plugins/internal/watcher"
)

type Runtime struct {
	cfg        config.Config
	logger     *slog.Logger
	source     *config.Source
	store      *store.Store
	gateway    *gateway.Service
	mcp        *mcp.Server
	httpServer *http.Server
	watcher    *watcher.Service
	scheduler  *scheduler.Service
	heartbeat  *heartbeat.Registry
}
