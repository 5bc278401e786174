package service

import (
	"context"
	"errors"

	"github.com/UkralStul/graphql-social-feed/internal/apperrors"
	"github.com/UkralStul/graphql-social-feed/internal/domain"
	"github.com/UkralStul/graphql-social-feed/internal/storage"
)

// ReactionService добавляет и снимает реакции. Строка реакции и счётчик
// interactions_count меняются хранилищем атомарно.
type ReactionService struct {
	store storage.Storage
}

func NewReactionService(store storage.Storage) *ReactionService {
	return &ReactionService{store: store}
}

// AddInteraction повторный вызов с теми же аргументами возвращает уже
// существующую реакцию вместе с ошибкой DUPLICATE_INTERACTION.
func (s *ReactionService) AddInteraction(ctx context.Context, actor *domain.User, postID, interactionType string) (*domain.Interaction, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	kind, err := parseType(interactionType)
	if err != nil {
		return nil, err
	}

	interaction, err := s.store.CreateInteraction(ctx, &domain.Interaction{
		UserID: actor.ID,
		PostID: postID,
		Type:   kind,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return interaction, apperrors.Wrap(apperrors.CodeDuplicateInteraction, "interaction already exists", err)
	}
	if err != nil {
		return nil, translate(err, errPostNotFound)
	}
	return interaction, nil
}

func (s *ReactionService) RemoveInteraction(ctx context.Context, actor *domain.User, postID, interactionType string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	kind, err := parseType(interactionType)
	if err != nil {
		return err
	}

	err = s.store.DeleteInteraction(ctx, actor.ID, postID, kind)
	return translate(err, "interaction does not exist")
}

func parseType(s string) (domain.InteractionType, error) {
	kind, err := domain.ParseInteractionType(s)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInvalidInteractionType, err.Error(), err)
	}
	return kind, nil
}
