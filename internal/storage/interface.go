package storage

import (
	"context"
	"errors"

	"github.com/UkralStul/graphql-social-feed/internal/domain"
)

var (
	// ErrNotFound - запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate - нарушено ограничение уникальности. Методы создания реакций
	// и репостов вместе с ней возвращают уже существующую запись.
	ErrDuplicate = errors.New("record already exists")
)

// PostGuard вызывается под блокировкой строки поста до изменения.
// Ненулевая ошибка отменяет операцию и возвращается вызывающему как есть.
type PostGuard func(post *domain.Post) error

// CommentGuard - то же самое для комментариев.
type CommentGuard func(comment *domain.Comment) error

// Storage определяет контракт для хранилищ.
// Все изменения счётчиков поста выполняются атомарно вместе с изменением
// дочерней записи.
type Storage interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error)
	GetPostByID(ctx context.Context, id string) (*domain.Post, error)
	ListPosts(ctx context.Context, filter domain.PostFilter) ([]*domain.Post, error)
	UpdatePost(ctx context.Context, id string, patch domain.PostPatch, guard PostGuard) (*domain.Post, error)
	// DeletePost удаляет пост вместе с комментариями, реакциями и репостами.
	DeletePost(ctx context.Context, id string, guard PostGuard) error

	// CreateComment увеличивает comments_count поста.
	CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	GetCommentByID(ctx context.Context, id string) (*domain.Comment, error)
	GetCommentsByPostID(ctx context.Context, postID string) ([]*domain.Comment, error)
	UpdateComment(ctx context.Context, id string, content string, guard CommentGuard) (*domain.Comment, error)
	// DeleteComment уменьшает comments_count поста.
	DeleteComment(ctx context.Context, id string, guard CommentGuard) error

	// CreateInteraction увеличивает interactions_count поста. Если такая реакция
	// уже есть, возвращает её и ErrDuplicate.
	CreateInteraction(ctx context.Context, interaction *domain.Interaction) (*domain.Interaction, error)
	// DeleteInteraction уменьшает interactions_count поста.
	DeleteInteraction(ctx context.Context, userID, postID string, interactionType domain.InteractionType) error
	ListInteractions(ctx context.Context, filter domain.InteractionFilter) ([]*domain.Interaction, error)

	// CreateShare возвращает существующий репост и ErrDuplicate при повторе.
	CreateShare(ctx context.Context, share *domain.Share) (*domain.Share, error)
	GetSharesByPostID(ctx context.Context, postID string) ([]*domain.Share, error)

	// Методы для Dataloader'ов
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	GetPostsByIDs(ctx context.Context, ids []string) (map[string]*domain.Post, error)
}
