package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// ModeLocal runs against an embedded SQLite file, no Redis required.
	ModeLocal = "local"
	// ModeOnline runs against MySQL and (optionally) Redis.
	ModeOnline = "online"

	defaultPort       = "8080"
	defaultAccessTTL  = 30 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
	defaultSQLitePath = "data/jkd-coach-local.db"
)

// RuntimeFlags aggregates the environment-driven runtime configuration.
type RuntimeFlags struct {
	Mode       string
	Port       string
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	SQLitePath string
	MySQLDSN   string
	RedisAddr  string
	RedisPass  string
}

// LoadRuntimeFlags reads the environment and derives the runtime mode plus
// server, auth and storage settings.
func LoadRuntimeFlags() RuntimeFlags {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv("APP_MODE")))
	if mode == "" {
		mode = ModeLocal
	}

	flags := RuntimeFlags{
		Mode:       mode,
		Port:       defaultPort,
		JWTSecret:  strings.TrimSpace(os.Getenv("JWT_SECRET_KEY")),
		AccessTTL:  defaultAccessTTL,
		RefreshTTL: defaultRefreshTTL,
		SQLitePath: normalisePath(defaultSQLitePath),
		MySQLDSN:   strings.TrimSpace(os.Getenv("MYSQL_DSN")),
		RedisAddr:  strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPass:  strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		flags.Port = port
	}
	if raw := strings.TrimSpace(os.Getenv("LOCAL_SQLITE_PATH")); raw != "" {
		flags.SQLitePath = normalisePath(raw)
	}
	if raw := strings.TrimSpace(os.Getenv("ACCESS_TOKEN_TTL")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			flags.AccessTTL = parsed
		}
	}
	if raw := strings.TrimSpace(os.Getenv("REFRESH_TOKEN_TTL")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			flags.RefreshTTL = parsed
		}
	}

	return flags
}

// normalisePath expands ~ and relative paths into absolute ones.
func normalisePath(raw string) string {
	if raw == "" {
		return raw
	}
	if strings.HasPrefix(raw, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			raw = filepath.Join(home, strings.TrimPrefix(raw, "~"))
		}
	}
	if filepath.IsAbs(raw) {
		return raw
	}
	if abs, err := filepath.Abs(raw); err == nil {
		return abs
	}
	return raw
}
