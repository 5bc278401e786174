package graph

import (
	"net/http"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"

	"github.com/UkralStul/graphql-social-feed/internal/auth"
	"github.com/UkralStul/graphql-social-feed/internal/dataloader"
	"github.com/UkralStul/graphql-social-feed/internal/storage"
)

// Handler обслуживает POST /query: сначала личность, затем лоадеры запроса.
func Handler(schema *graphql.Schema, store storage.Storage, tokens *auth.TokenManager) http.Handler {
	return auth.Middleware(tokens, store, dataloader.Middleware(store, &relay.Handler{Schema: schema}))
}
