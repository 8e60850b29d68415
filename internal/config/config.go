// Package config loads and validates the server configuration from the
// environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8000"`
	DatabaseURL string `env:"DATABASE_URL"`
	JWTSecret   string `env:"JWT_SECRET"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	TokenExpiry time.Duration `env:"TOKEN_EXPIRY" default:"24h"`

	// SessionTimeout is how long a session may sit without updates
	// before the reaper force-ends it.
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" default:"300s"`
	ReaperInterval time.Duration `env:"REAPER_INTERVAL" default:"10s"`

	MaxSpectatorClients int `env:"MAX_SPECTATOR_CLIENTS" default:"1000"`

	CORSOrigins []string `env:"CORS_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"JWT_SECRET":   cfg.JWTSecret,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if len(cfg.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(cfg.JWTSecret))
	}

	if cfg.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}
	if cfg.ReaperInterval <= 0 {
		return fmt.Errorf("REAPER_INTERVAL must be positive")
	}

	return nil
}
