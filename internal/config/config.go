// Package config читает настройки сервера из окружения и .env файлов.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StorageInMemory = "in-memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Config - настройки сервера.
type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	Storage string `env:"STORAGE" envDefault:"in-memory"`

	// Для sqlite - путь к файлу базы.
	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret     string        `env:"JWT_SECRET"`
	JWTExpiration time.Duration `env:"JWT_EXPIRATION_DELTA" envDefault:"24h"`

	SeedData     bool `env:"SEED_DATA" envDefault:"true"`
	GraphQLDepth int  `env:"GRAPHQL_MAX_DEPTH" envDefault:"12"`
	LogSQL       bool `env:"LOG_SQL" envDefault:"false"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"graphql-social-feed"`
}

// Load подгружает переданные .env файлы (отсутствующие пропускаются) и
// разбирает окружение. Уже заданные переменные окружения не перезаписываются.
func Load(envFiles ...string) (*Config, error) {
	for _, file := range envFiles {
		if file == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageInMemory:
	case StoragePostgres, StorageSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set for %s storage", c.Storage)
		}
	default:
		return fmt.Errorf("unknown storage %q (want %s, %s or %s)", c.Storage, StorageInMemory, StoragePostgres, StorageSQLite)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.JWTExpiration <= 0 {
		return errors.New("JWT_EXPIRATION_DELTA must be positive")
	}
	if c.GraphQLDepth < 0 {
		return errors.New("GRAPHQL_MAX_DEPTH must not be negative")
	}
	return nil
}

// Addr возвращает адрес для http.Server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
