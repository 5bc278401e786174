package dataloader

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/UkralStul/graphql-social-feed/internal/domain"
	"github.com/UkralStul/graphql-social-feed/internal/storage"
	"github.com/graph-gophers/dataloader"
)

type contextKey string

const key = contextKey("dataloaders")

// Loaders содержит все дата-лоадеры приложения.
type Loaders struct {
	UserByID *dataloader.Loader
	PostByID *dataloader.Loader
}

// NewLoaders создает лоадеры одного запроса.
func NewLoaders(store storage.Storage) *Loaders {
	users := batch(func(ctx context.Context, ids []string) (map[string]*domain.User, error) {
		return store.GetUsersByIDs(ctx, ids)
	}, "user")
	posts := batch(func(ctx context.Context, ids []string) (map[string]*domain.Post, error) {
		return store.GetPostsByIDs(ctx, ids)
	}, "post")

	return &Loaders{
		UserByID: dataloader.NewBatchedLoader(users, dataloader.WithWait(time.Millisecond*1)),
		PostByID: dataloader.NewBatchedLoader(posts, dataloader.WithWait(time.Millisecond*1)),
	}
}

// batch оборачивает пакетный запрос хранилища в батч-функцию лоадера.
// Результаты идут в том же порядке, что и ключи.
func batch[T any](fetch func(context.Context, []string) (map[string]T, error), kind string) dataloader.BatchFunc {
	return func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := make([]string, len(keys))
		for i, k := range keys {
			ids[i] = k.String()
		}

		results := make([]*dataloader.Result, len(keys))
		found, err := fetch(ctx, ids)
		if err != nil {
			// Ошибка хранилища относится ко всем ключам
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		for i, id := range ids {
			v, ok := found[id]
			if !ok {
				results[i] = &dataloader.Result{Error: fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)}
				continue
			}
			results[i] = &dataloader.Result{Data: v}
		}
		return results
	}
}

// Middleware для внедрения лоадеров в контекст запроса.
func Middleware(store storage.Storage, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithLoaders(r.Context(), NewLoaders(store))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, key, loaders)
}

// For извлекает лоадеры из контекста.
func For(ctx context.Context) *Loaders {
	loaders, _ := ctx.Value(key).(*Loaders)
	return loaders
}

// LoadUser загружает пользователя через лоадер запроса. Без лоадера в
// контексте идет прямо в хранилище.
func LoadUser(ctx context.Context, store storage.Storage, id string) (*domain.User, error) {
	loaders := For(ctx)
	if loaders == nil {
		return store.GetUserByID(ctx, id)
	}
	v, err := loaders.UserByID.Load(ctx, dataloader.StringKey(id))()
	if err != nil {
		return nil, err
	}
	return v.(*domain.User), nil
}

// LoadPost аналогичен LoadUser для постов.
func LoadPost(ctx context.Context, store storage.Storage, id string) (*domain.Post, error) {
	loaders := For(ctx)
	if loaders == nil {
		return store.GetPostByID(ctx, id)
	}
	v, err := loaders.PostByID.Load(ctx, dataloader.StringKey(id))()
	if err != nil {
		return nil, err
	}
	return v.(*domain.Post), nil
}

// ForgetPosts сбрасывает закешированные посты запроса. Вызывается после
// мутаций, меняющих пост или его счётчики: мутации одного запроса
// выполняются по очереди и должны видеть свежие значения.
func ForgetPosts(ctx context.Context) {
	if loaders := For(ctx); loaders != nil {
		loaders.PostByID.ClearAll()
	}
}
