// graph/resolver.go

package graph

import (
	"github.com/UkralStul/graphql-social-feed/internal/service"
	"github.com/UkralStul/graphql-social-feed/internal/storage"
)

// Resolver - это корневая структура резолвера.
// Она содержит все зависимости, которые нужны для выполнения запросов:
// по одному сервису на предметную область и хранилище для дата-лоадеров.
// Поля не экспортируются: имена методов корня заняты полями схемы.
type Resolver struct {
	store     storage.Storage
	accounts  *service.AccountService
	posts     *service.PostService
	comments  *service.CommentService
	reactions *service.ReactionService
	shares    *service.ShareService
	feed      *service.FeedService
}

// NewResolver собирает резолвер из набора сервисов.
func NewResolver(store storage.Storage, svc *service.Services) *Resolver {
	return &Resolver{
		store:     store,
		accounts:  svc.Accounts,
		posts:     svc.Posts,
		comments:  svc.Comments,
		reactions: svc.Reactions,
		shares:    svc.Shares,
		feed:      svc.Feed,
	}
}
