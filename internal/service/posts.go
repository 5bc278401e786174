package service

import (
	"context"

	"github.com/UkralStul/graphql-social-feed/internal/apperrors"
	"github.com/UkralStul/graphql-social-feed/internal/domain"
	"github.com/UkralStul/graphql-social-feed/internal/storage"
)

const errPostNotFound = "post not found"

// NewPost - входные данные для создания поста. Image - непрозрачная ссылка
// на уже загруженное изображение.
type NewPost struct {
	Title   string  `json:"title" validate:"notblank,max=255"`
	Content string  `json:"content" validate:"notblank"`
	Image   *string `json:"image" validate:"omitempty,max=512"`
}

// Частичное обновление проверяет только переданные поля.
type postTitle struct {
	Title string `json:"title" validate:"notblank,max=255"`
}

type postContent struct {
	Content string `json:"content" validate:"notblank"`
}

// PostService - жизненный цикл постов.
type PostService struct {
	store storage.Storage
}

func NewPostService(store storage.Storage) *PostService {
	return &PostService{store: store}
}

// CreatePost создает пост от имени actor со счётчиками, равными нулю.
func (s *PostService) CreatePost(ctx context.Context, actor *domain.User, in NewPost) (*domain.Post, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	post, err := s.store.CreatePost(ctx, &domain.Post{
		UserID:  actor.ID,
		Title:   in.Title,
		Content: in.Content,
		Image:   in.Image,
	})
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}
	return post, nil
}

// UpdatePost меняет только переданные поля. Менять пост может только автор.
func (s *PostService) UpdatePost(ctx context.Context, actor *domain.User, postID string, patch domain.PostPatch) (*domain.Post, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if patch.Title != nil {
		if err := validateInput(postTitle{Title: *patch.Title}); err != nil {
			return nil, err
		}
	}
	if patch.Content != nil {
		if err := validateInput(postContent{Content: *patch.Content}); err != nil {
			return nil, err
		}
	}

	post, err := s.store.UpdatePost(ctx, postID, patch, ownsPost(actor, "update"))
	if err != nil {
		return nil, translate(err, errPostNotFound)
	}
	return post, nil
}

// DeletePost удаляет пост вместе с комментариями, реакциями и репостами.
func (s *PostService) DeletePost(ctx context.Context, actor *domain.User, postID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	err := s.store.DeletePost(ctx, postID, ownsPost(actor, "delete"))
	return translate(err, errPostNotFound)
}

// ownsPost выполняется хранилищем под блокировкой поста.
func ownsPost(actor *domain.User, action string) storage.PostGuard {
	return func(post *domain.Post) error {
		if post.UserID != actor.ID {
			return apperrors.New(apperrors.CodeForbidden, "user does not have permission to "+action+" this post")
		}
		return nil
	}
}
