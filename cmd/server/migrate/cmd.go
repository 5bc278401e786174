// Package migratecmd реализует команду `server migrate`.
package migratecmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/UkralStul/graphql-social-feed/cmd/server/shared"
	"github.com/UkralStul/graphql-social-feed/internal/config"
)

// Command реализует `server migrate`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New создает команду миграции.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "migrate",
		Short: "Создать или обновить схему реляционной базы и выйти",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	return c
}

// Cmd возвращает cobra-команду.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	cfg, err := c.ctx.Config(nil)
	if err != nil {
		return err
	}
	if cfg.Storage == config.StorageInMemory {
		return fmt.Errorf("nothing to migrate for %s storage", cfg.Storage)
	}

	_, closeStore, err := shared.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer shared.CloseStore(closeStore)

	log.Printf("%s schema is up to date", cfg.Storage)
	return nil
}
