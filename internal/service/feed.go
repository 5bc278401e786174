package service

import (
	"context"

	"github.com/UkralStul/graphql-social-feed/internal/apperrors"
	"github.com/UkralStul/graphql-social-feed/internal/domain"
	"github.com/UkralStul/graphql-social-feed/internal/storage"
)

// FeedService - запросы ленты, комментариев и реакций.
type FeedService struct {
	store storage.Storage
}

func NewFeedService(store storage.Storage) *FeedService {
	return &FeedService{store: store}
}

// ListPosts возвращает посты, прошедшие все фильтры, новые первыми.
// First обрезает результат после сортировки и остальных фильтров.
func (s *FeedService) ListPosts(ctx context.Context, filter domain.PostFilter) ([]*domain.Post, error) {
	if filter.First != nil && *filter.First < 0 {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "first must not be negative")
	}
	if filter.After != nil && !domain.ValidID(*filter.After) {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "after is not a valid cursor")
	}
	if filter.InteractionType != nil && !filter.InteractionType.Valid() {
		return nil, apperrors.New(apperrors.CodeInvalidInteractionType, "unknown interaction type "+string(*filter.InteractionType))
	}

	posts, err := s.store.ListPosts(ctx, filter)
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}
	return posts, nil
}

func (s *FeedService) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	post, err := s.store.GetPostByID(ctx, id)
	if err != nil {
		return nil, translate(err, errPostNotFound)
	}
	return post, nil
}

// ListCommentsForPost возвращает комментарии поста, старые первыми.
func (s *FeedService) ListCommentsForPost(ctx context.Context, postID string) ([]*domain.Comment, error) {
	comments, err := s.store.GetCommentsByPostID(ctx, postID)
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}
	return comments, nil
}

// ListInteractions возвращает реакции, новые первыми.
func (s *FeedService) ListInteractions(ctx context.Context, filter domain.InteractionFilter) ([]*domain.Interaction, error) {
	interactions, err := s.store.ListInteractions(ctx, filter)
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}
	return interactions, nil
}
