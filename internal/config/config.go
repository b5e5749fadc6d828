package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string
	DBPath        string
	JWTSecret     string
	TokenTTL      time.Duration
	CORSOrigins   []string
	MigrationsDir string

	LogLevel        string
	TickInterval    time.Duration
	SoundsDir       string
	DebugEndpoints  bool
	ShutdownTimeout time.Duration

	CompanionURL     string
	CompanionTimeout time.Duration
	CompanionRetry   time.Duration
}

var defaultCORSOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}

const (
	defaultTickInterval     = time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultCompanionTimeout = 5 * time.Second
	defaultCompanionRetry   = 30 * time.Second
	defaultTokenTTL         = 72 * time.Hour
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_PATH", "./data/focusboard.db")
	v.SetDefault("JWT_SECRET", "change-this-secret")
	v.SetDefault("TOKEN_TTL_HOURS", 72)
	v.SetDefault("CORS_ORIGINS", strings.Join(defaultCORSOrigins, ","))
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TICK_INTERVAL_MS", 1000)
	v.SetDefault("SOUNDS_DIR", "./sounds")
	v.SetDefault("DEBUG_ENDPOINTS", false)
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)
	v.SetDefault("COMPANION_URL", "")
	v.SetDefault("COMPANION_TIMEOUT_MS", 5000)
	v.SetDefault("COMPANION_RETRY_SECONDS", 30)
	v.AutomaticEnv()
	return v
}

// Load reads the environment, optionally layered over the YAML file named by
// FOCUS_CONFIG. Environment variables win over the file.
func Load() (Config, error) {
	v := newViper()
	if path := v.GetString("FOCUS_CONFIG"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		Port:             v.GetString("PORT"),
		DBPath:           v.GetString("DB_PATH"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		TokenTTL:         time.Duration(v.GetInt("TOKEN_TTL_HOURS")) * time.Hour,
		CORSOrigins:      splitList(v.GetString("CORS_ORIGINS")),
		MigrationsDir:    v.GetString("MIGRATIONS_DIR"),
		LogLevel:         strings.ToLower(v.GetString("LOG_LEVEL")),
		TickInterval:     time.Duration(v.GetInt("TICK_INTERVAL_MS")) * time.Millisecond,
		SoundsDir:        v.GetString("SOUNDS_DIR"),
		DebugEndpoints:   v.GetBool("DEBUG_ENDPOINTS"),
		ShutdownTimeout:  time.Duration(v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")) * time.Second,
		CompanionURL:     v.GetString("COMPANION_URL"),
		CompanionTimeout: time.Duration(v.GetInt("COMPANION_TIMEOUT_MS")) * time.Millisecond,
		CompanionRetry:   time.Duration(v.GetInt("COMPANION_RETRY_SECONDS")) * time.Second,
	}
	cfg.Validate()
	return cfg, nil
}

// Validate clamps values back to safe defaults.
func (c *Config) Validate() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = defaultTokenTTL
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = append([]string(nil), defaultCORSOrigins...)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = "info"
	}
	if c.TickInterval <= 0 {
		c.TickInterval = defaultTickInterval
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.CompanionTimeout <= 0 {
		c.CompanionTimeout = defaultCompanionTimeout
	}
	if c.CompanionRetry <= 0 {
		c.CompanionRetry = defaultCompanionRetry
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
