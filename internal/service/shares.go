package service

import (
	"context"
	"errors"

	"github.com/UkralStul/graphql-social-feed/internal/apperrors"
	"github.com/UkralStul/graphql-social-feed/internal/domain"
	"github.com/UkralStul/graphql-social-feed/internal/storage"
)

// ShareService - репосты. Счётчиков не меняет.
type ShareService struct {
	store storage.Storage
}

func NewShareService(store storage.Storage) *ShareService {
	return &ShareService{store: store}
}

func (s *ShareService) SharePost(ctx context.Context, actor *domain.User, postID, recipientUsername string) (*domain.Share, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if _, err := s.store.GetPostByID(ctx, postID); err != nil {
		return nil, translate(err, errPostNotFound)
	}
	recipient, err := s.store.GetUserByUsername(ctx, recipientUsername)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.Wrap(apperrors.CodeRecipientNotFound, "recipient user not found", err)
	}
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}

	share, err := s.store.CreateShare(ctx, &domain.Share{
		UserID:           actor.ID,
		PostID:           postID,
		SharedWithUserID: recipient.ID,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return share, apperrors.Wrap(apperrors.CodeDuplicateShare, "post already shared with this user", err)
	}
	if err != nil {
		return nil, translate(err, errPostNotFound)
	}
	return share, nil
}

// ListShares возвращает репосты поста, старые первыми.
func (s *ShareService) ListShares(ctx context.Context, postID string) ([]*domain.Share, error) {
	shares, err := s.store.GetSharesByPostID(ctx, postID)
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}
	return shares, nil
}
