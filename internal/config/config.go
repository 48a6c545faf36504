package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreFile     = "file"
	StorePostgres = "postgres"
)

type Config struct {
	StoreDriver string `env:"STORE_DRIVER" envDefault:"file"`
	LedgerPath  string `env:"LEDGER_PATH" envDefault:"db.json"`

	DatabaseHost     string `env:"DATABASE_HOST" envDefault:"localhost"`
	DatabasePort     string `env:"DATABASE_PORT" envDefault:"5432"`
	DatabaseUser     string `env:"DATABASE_USER" envDefault:"postgres"`
	DatabasePassword string `env:"DATABASE_PASSWORD" envDefault:"password"`
	DatabaseName     string `env:"DATABASE_NAME" envDefault:"economy"`

	ServerPort      string        `env:"SERVER_PORT" envDefault:"8080"`
	JWTSecret       string        `env:"JWT_SECRET" envDefault:"secret"`
	AdminRoles      []string      `env:"ADMIN_ROLES" envDefault:"admin" envSeparator:","`
	Timezone        string        `env:"ECONOMY_TIMEZONE"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}
	switch cfg.StoreDriver {
	case StoreFile, StorePostgres:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	return cfg, nil
}

// Location is the zone whose midnight triggers the daily reward.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
