package auth

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/UkralStul/graphql-social-feed/internal/domain"
)

type contextKey string

const userKey = contextKey("current-user")

// UserLookup - часть хранилища, нужная middleware.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// WithUser кладёт аутентифицированного пользователя в контекст.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// CurrentUser возвращает пользователя запроса или nil для анонимного запроса.
func CurrentUser(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey).(*domain.User)
	return user
}

// Middleware разбирает заголовок Authorization ("JWT <token>" или
// "Bearer <token>") и загружает пользователя. Отсутствующий или
// недействительный токен не прерывает запрос: он выполняется анонимно,
// а операции, требующие входа, вернут UNAUTHENTICATED.
func Middleware(tokens *TokenManager, users UserLookup, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r.Header.Get("Authorization"))
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			log.Printf("auth: rejected token: %v", err)
			next.ServeHTTP(w, r)
			return
		}
		user, err := users.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			log.Printf("auth: token user %s: %v", claims.UserID, err)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return ""
	}
	if !strings.EqualFold(scheme, "JWT") && !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
