package servecmd

import (
	"context"
	"fmt"
	"log"

	"github.com/UkralStul/graphql-social-feed/internal/domain"
	"github.com/UkralStul/graphql-social-feed/internal/service"
)

// Пароль всех тестовых пользователей.
const mockPassword = "password123"

// fillWithMockData создает пользователей, посты, комментарии, реакции и
// репост через сервисы, так что счётчики согласованы с записями.
func fillWithMockData(ctx context.Context, svc *service.Services) error {
	users := make(map[string]*domain.User)
	for _, name := range []string{"alice", "bob", "carol"} {
		u, err := svc.Accounts.Register(ctx, service.NewUser{
			Username:  name,
			Password:  mockPassword,
			Email:     name + "@example.com",
			FirstName: name,
		})
		if err != nil {
			return fmt.Errorf("fillWithMockData: failed to create user %s: %w", name, err)
		}
		users[name] = u
	}

	// 1. Пост о GraphQL с обсуждением.
	post, err := svc.Posts.CreatePost(ctx, users["alice"], service.NewPost{
		Title:   "Тестовый пост о GraphQL",
		Content: "Это содержимое тестового поста. Здесь мы обсуждаем GraphQL и Go.",
	})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create post: %w", err)
	}

	// 2. Комментарии от двух пользователей.
	for _, c := range []struct {
		author  string
		content string
	}{
		{"bob", "Отличный пост! Очень информативно."},
		{"alice", "Спасибо! Рад, что вам понравилось."},
		{"carol", "А как насчет производительности при большом числе реакций?"},
	} {
		if _, err := svc.Comments.CreateComment(ctx, users[c.author], post.ID, c.content); err != nil {
			return fmt.Errorf("fillWithMockData: failed to create comment by %s: %w", c.author, err)
		}
	}

	// 3. Реакции, в том числе две разные от одного пользователя.
	for _, r := range []struct {
		user string
		kind domain.InteractionType
	}{
		{"bob", domain.InteractionLove},
		{"bob", domain.InteractionWow},
		{"carol", domain.InteractionThumbsUp},
	} {
		if _, err := svc.Reactions.AddInteraction(ctx, users[r.user], post.ID, string(r.kind)); err != nil {
			return fmt.Errorf("fillWithMockData: failed to add %s by %s: %w", r.kind, r.user, err)
		}
	}

	// 4. Второй пост, которым поделились.
	second, err := svc.Posts.CreatePost(ctx, users["bob"], service.NewPost{
		Title:   "Второй пост",
		Content: "Этим постом поделились с alice.",
	})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create second post: %w", err)
	}
	if _, err := svc.Shares.SharePost(ctx, users["carol"], second.ID, "alice"); err != nil {
		return fmt.Errorf("fillWithMockData: failed to share post: %w", err)
	}

	log.Printf("Mock data filled successfully. Created post IDs: %s, %s (password for alice/bob/carol: %s)", post.ID, second.ID, mockPassword)
	return nil
}
