package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"tycoon/internal/game"
)

type APIConfig struct {
	Addr                 string
	DatabaseURL          string
	SQLitePath           string
	TickEvery            time.Duration
	// DefaultCompetitors is -1 when unset so the tuning file's rivals.count applies.
	DefaultCompetitors   int
	TuningPath           string
	LogLevel             string
	IdempotencyCacheSize int
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("TYCOON_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:                 addr,
		DatabaseURL:          strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:           strings.TrimSpace(os.Getenv("TYCOON_SQLITE_PATH")),
		TickEvery:            envDurationDefault("TYCOON_TICK_EVERY", game.BaseTickInterval),
		DefaultCompetitors:   envIntDefault("TYCOON_COMPETITORS", -1),
		TuningPath:           strings.TrimSpace(os.Getenv("TYCOON_TUNING_FILE")),
		LogLevel:             strings.ToLower(envDefault("TYCOON_LOG_LEVEL", "info")),
		IdempotencyCacheSize: envIntDefault("TYCOON_IDEMPOTENCY_CACHE", 4096),
	}
	if cfg.TickEvery <= 0 {
		return cfg, fmt.Errorf("TYCOON_TICK_EVERY must be > 0")
	}
	if strings.TrimSpace(os.Getenv("TYCOON_COMPETITORS")) != "" && cfg.DefaultCompetitors < 0 {
		return cfg, fmt.Errorf("TYCOON_COMPETITORS must be >= 0")
	}
	if cfg.IdempotencyCacheSize <= 0 {
		return cfg, fmt.Errorf("TYCOON_IDEMPOTENCY_CACHE must be > 0")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return cfg, fmt.Errorf("TYCOON_LOG_LEVEL must be debug, info, warn or error")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("TYC_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
