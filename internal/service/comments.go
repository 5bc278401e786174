package service

import (
	"context"

	"github.com/UkralStul/graphql-social-feed/internal/apperrors"
	"github.com/UkralStul/graphql-social-feed/internal/domain"
	"github.com/UkralStul/graphql-social-feed/internal/storage"
)

const errCommentNotFound = "comment not found"

type commentBody struct {
	Content string `json:"content" validate:"notblank,max=2000"`
}

// CommentService - жизненный цикл комментариев и счётчик comments_count.
type CommentService struct {
	store storage.Storage
}

func NewCommentService(store storage.Storage) *CommentService {
	return &CommentService{store: store}
}

func (s *CommentService) CreateComment(ctx context.Context, actor *domain.User, postID, content string) (*domain.Comment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validateInput(commentBody{Content: content}); err != nil {
		return nil, err
	}

	comment, err := s.store.CreateComment(ctx, &domain.Comment{
		PostID:  postID,
		UserID:  actor.ID,
		Content: content,
	})
	if err != nil {
		return nil, translate(err, errPostNotFound)
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, actor *domain.User, commentID, content string) (*domain.Comment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validateInput(commentBody{Content: content}); err != nil {
		return nil, err
	}

	comment, err := s.store.UpdateComment(ctx, commentID, content, ownsComment(actor, "update"))
	if err != nil {
		return nil, translate(err, errCommentNotFound)
	}
	return comment, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, actor *domain.User, commentID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	err := s.store.DeleteComment(ctx, commentID, ownsComment(actor, "delete"))
	return translate(err, errCommentNotFound)
}

func ownsComment(actor *domain.User, action string) storage.CommentGuard {
	return func(comment *domain.Comment) error {
		if comment.UserID != actor.ID {
			return apperrors.New(apperrors.CodeForbidden, "user does not have permission to "+action+" this comment")
		}
		return nil
	}
}
