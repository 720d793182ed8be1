package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct, parsed from the process
// environment.
type Config struct {
	App     AppConfig
	Log     LogConfig
	Metrics MetricsConfig
	Static  StaticConfig
}

type AppConfig struct {
	Name    string `env:"APP_NAME" envDefault:"GoTwoStep"`
	Env     string `env:"APP_ENV" envDefault:"local"` // local | production | testing
	Debug   bool   `env:"APP_DEBUG" envDefault:"true"`
	URL     string `env:"APP_URL" envDefault:"http://localhost"`
	Port    string `env:"APP_PORT" envDefault:"8000"`
	Favicon string `env:"APP_FAVICON"` // path to an .ico file; empty serves the built-in icon
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"METRICS_PATH" envDefault:"/metrics"`
}

type StaticConfig struct {
	Dir  string `env:"STATIC_DIR"`
	Path string `env:"STATIC_PATH" envDefault:"/static"`
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool { return c.App.Env == "production" }

// Addr is the listen address derived from APP_PORT.
func (c *Config) Addr() string { return ":" + c.App.Port }

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	if cfg.App.Port == "" {
		return nil, errors.New("config: APP_PORT must not be empty")
	}
	return &cfg, nil
}
