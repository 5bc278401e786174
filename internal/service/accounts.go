package service

import (
	"context"
	"errors"

	"github.com/UkralStul/graphql-social-feed/internal/apperrors"
	"github.com/UkralStul/graphql-social-feed/internal/auth"
	"github.com/UkralStul/graphql-social-feed/internal/domain"
	"github.com/UkralStul/graphql-social-feed/internal/storage"
)

// NewUser - данные регистрации.
type NewUser struct {
	Username  string `json:"username" validate:"required,max=150,username"`
	Password  string `json:"password" validate:"required"`
	Email     string `json:"email" validate:"required,max=254,email"`
	FirstName string `json:"firstName" validate:"required,max=150"`
	LastName  string `json:"lastName" validate:"max=150"`
}

// AccountService - регистрация, вход и проверка токенов.
type AccountService struct {
	store  storage.Storage
	tokens *auth.TokenManager
}

func NewAccountService(store storage.Storage, tokens *auth.TokenManager) *AccountService {
	return &AccountService{store: store, tokens: tokens}
}

func (s *AccountService) Register(ctx context.Context, in NewUser) (*domain.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidArgument, "password cannot be hashed", err)
	}

	user, err := s.store.CreateUser(ctx, &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return nil, apperrors.Wrap(apperrors.CodeUsernameTaken, "a user with that username already exists", err)
	}
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}
	return user, nil
}

// Login проверяет пароль и выпускает токен.
func (s *AccountService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return "", nil, translate(err, "user not found")
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", nil, apperrors.New(apperrors.CodeInvalidCredentials, "incorrect password")
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, apperrors.StoreFailure(err)
	}
	return token, user, nil
}

// VerifyToken возвращает владельца действительного токена.
func (s *AccountService) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnauthenticated, "token is invalid or expired", err)
	}
	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.Wrap(apperrors.CodeUnauthenticated, "token user no longer exists", err)
	}
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}
	return user, nil
}

// RefreshToken выпускает новый токен по ещё действительному.
func (s *AccountService) RefreshToken(ctx context.Context, token string) (string, *domain.User, error) {
	user, err := s.VerifyToken(ctx, token)
	if err != nil {
		return "", nil, err
	}
	fresh, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, apperrors.StoreFailure(err)
	}
	return fresh, user, nil
}

// CurrentUser возвращает пользователя запроса.
func (s *AccountService) CurrentUser(actor *domain.User) (*domain.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return actor, nil
}

func (s *AccountService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, translate(err, "user not found")
	}
	return user, nil
}
