// Package servecmd реализует команду `server serve`.
package servecmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/UkralStul/graphql-social-feed/cmd/server/shared"
	"github.com/UkralStul/graphql-social-feed/graph"
	"github.com/UkralStul/graphql-social-feed/internal/auth"
	"github.com/UkralStul/graphql-social-feed/internal/config"
	"github.com/UkralStul/graphql-social-feed/internal/service"
	"github.com/UkralStul/graphql-social-feed/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// Command реализует `server serve`.
type Command struct {
	ctx     *shared.Context
	cmd     *cobra.Command
	storage string
}

// New создает команду запуска сервера.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "serve",
		Short: "Запустить GraphQL сервер",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().StringVar(&c.storage, "storage", "",
		"Storage type (in-memory, postgres or sqlite); overrides STORAGE")
	return c
}

// Cmd возвращает cobra-команду.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := c.ctx.Config(func(cfg *config.Config) {
		if c.storage != "" {
			cfg.Storage = c.storage
		}
	})
	if err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	store, closeStore, err := shared.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer shared.CloseStore(closeStore)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiration)
	services := service.New(store, tokens)

	// Заполним данными для тестов
	if cfg.SeedData && cfg.Storage == config.StorageInMemory {
		if err := fillWithMockData(ctx, services); err != nil {
			return err
		}
	}

	schema, err := graph.NewSchema(graph.NewResolver(store, services), graph.SchemaOptions{
		MaxDepth: cfg.GraphQLDepth,
		Tracing:  telemetry.Enabled(cfg.OTLPEndpoint),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           NewRouter(schema, store, tokens),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("connect to http://localhost:%s/ for GraphQL playground", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
