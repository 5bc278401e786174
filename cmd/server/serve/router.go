package servecmd

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	graphql "github.com/graph-gophers/graphql-go"

	"github.com/UkralStul/graphql-social-feed/graph"
	"github.com/UkralStul/graphql-social-feed/internal/auth"
	"github.com/UkralStul/graphql-social-feed/internal/storage"
)

// pinger реализуют хранилища с внешним соединением.
type pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter собирает HTTP маршруты сервера.
func NewRouter(schema *graphql.Schema, store storage.Storage, tokens *auth.TokenManager) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Handle("/", playground.Handler("GraphQL playground", "/query"))
	router.Handle("/query", graph.Handler(schema, store, tokens))
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if p, ok := store.(pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				log.Printf("healthz: %v", err)
				http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return router
}
