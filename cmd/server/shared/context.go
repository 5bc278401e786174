// Package shared хранит состояние, общее для всех команд сервера.
package shared

import (
	"fmt"

	"github.com/UkralStul/graphql-social-feed/internal/config"
)

// Context - глобальные флаги корневой команды.
type Context struct {
	// EnvFile - .env файл, читаемый до разбора окружения.
	EnvFile string
}

// Config загружает и проверяет конфигурацию. override применяется после
// разбора окружения, но до проверки.
func (c *Context) Config(override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(c.EnvFile)
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
