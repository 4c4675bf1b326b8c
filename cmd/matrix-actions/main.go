package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/3n8/openclaw-plugins/internal/cli"
	"github.com/3n8/openclaw-plugins/internal/config"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.FromEnv()

	// stdout carries MCP frames and command output.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	if err := cli.NewRoot(logger).Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func parseLevel(value string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo
	}
	return level
}
