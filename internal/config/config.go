package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	Environment   string
	HTTPAddr      string
	DataDir       string
	DBPath        string
	ConfigFile    string
	LogLevel      string
	FallbackLimit int
	WatchConfig   bool

	AuditEnabled       bool
	AuditRetentionCron string
	AuditRetentionDays int

	MatrixHomeserver  string
	MatrixUserID      string
	MatrixAccessToken string
	MatrixDeviceID    string
	HTTPTimeoutSec    int

	// API client settings used by CLI commands that talk to a running server.
	APIURL           string
	APITLSCAFile     string
	APITLSSkipVerify bool
	APITimeoutSec    int
}

func FromEnv() Config {
	dataDir := stringOrDefault("MATRIX_ACTIONS_DATA_DIR", "/data")
	dbPath := stringOrDefault("MATRIX_ACTIONS_DB_PATH", filepath.Join(dataDir, "matrix-actions", "audit.sqlite"))

	return Config{
		Environment:   stringOrDefault("MATRIX_ACTIONS_ENV", "development"),
		HTTPAddr:      stringOrDefault("MATRIX_ACTIONS_HTTP_ADDR", ":8080"),
		DataDir:       dataDir,
		DBPath:        dbPath,
		ConfigFile:    stringOrDefault("MATRIX_ACTIONS_CONFIG_FILE", "config.yaml"),
		LogLevel:      logLevelOrDefault("MATRIX_ACTIONS_LOG_LEVEL", "info"),
		FallbackLimit: intOrDefault("MATRIX_ACTIONS_FALLBACK_LIMIT", 5),
		WatchConfig:   boolOrDefault("MATRIX_ACTIONS_WATCH_CONFIG", true),

		AuditEnabled:       boolOrDefault("MATRIX_ACTIONS_AUDIT_ENABLED", true),
		AuditRetentionCron: stringOrDefault("MATRIX_ACTIONS_AUDIT_RETENTION_CRON", "@daily"),
		AuditRetentionDays: intOrDefault("MATRIX_ACTIONS_AUDIT_RETENTION_DAYS", 30),

		MatrixHomeserver:  strings.TrimSpace(os.Getenv("MATRIX_ACTIONS_MATRIX_HOMESERVER")),
		MatrixUserID:      strings.TrimSpace(os.Getenv("MATRIX_ACTIONS_MATRIX_USER_ID")),
		MatrixAccessToken: strings.TrimSpace(os.Getenv("MATRIX_ACTIONS_MATRIX_ACCESS_TOKEN")),
		MatrixDeviceID:    strings.TrimSpace(os.Getenv("MATRIX_ACTIONS_MATRIX_DEVICE_ID")),
		HTTPTimeoutSec:    intOrDefault("MATRIX_ACTIONS_HTTP_TIMEOUT_SECONDS", 30),

		APIURL:           stringOrDefault("MATRIX_ACTIONS_API_URL", "http://localhost:8080"),
		APITLSCAFile:     strings.TrimSpace(os.Getenv("MATRIX_ACTIONS_API_TLS_CA_FILE")),
		APITLSSkipVerify: boolOrDefault("MATRIX_ACTIONS_API_TLS_SKIP_VERIFY", false),
		APITimeoutSec:    intOrDefault("MATRIX_ACTIONS_API_TIMEOUT_SECONDS", 60),
	}
}

func stringOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func intOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}

func boolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func logLevelOrDefault(name, fallback string) string {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	switch value {
	case "debug", "info", "warn", "error":
		return value
	default:
		return fallback
	}
}
