// Package service содержит бизнес-правила ленты: проверку прав, идемпотентные
// реакции, поддержку счётчиков и фильтрацию. Каждый сервис получает хранилище
// через конструктор и не хранит состояния между запросами.
package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/UkralStul/graphql-social-feed/internal/apperrors"
	"github.com/UkralStul/graphql-social-feed/internal/auth"
	"github.com/UkralStul/graphql-social-feed/internal/domain"
	"github.com/UkralStul/graphql-social-feed/internal/storage"
)

// Services собирает все сервисы над одним хранилищем.
type Services struct {
	Accounts  *AccountService
	Posts     *PostService
	Comments  *CommentService
	Reactions *ReactionService
	Shares    *ShareService
	Feed      *FeedService
}

func New(store storage.Storage, tokens *auth.TokenManager) *Services {
	return &Services{
		Accounts:  NewAccountService(store, tokens),
		Posts:     NewPostService(store),
		Comments:  NewCommentService(store),
		Reactions: NewReactionService(store),
		Shares:    NewShareService(store),
		Feed:      NewFeedService(store),
	}
}

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// validateInput проверяет структуру и переводит ошибки в INVALID_ARGUMENT.
func validateInput(in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Wrap(apperrors.CodeInvalidArgument, err.Error(), err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required", "notblank":
			msgs = append(msgs, fmt.Sprintf("%s cannot be empty", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s is too long", fe.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s is not a valid email address", fe.Field()))
		case "username":
			msgs = append(msgs, fmt.Sprintf("%s may contain only letters, digits and @/./+/-/_ characters", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return apperrors.Wrap(apperrors.CodeInvalidArgument, strings.Join(msgs, "; "), err)
}

func requireActor(actor *domain.User) error {
	if actor == nil {
		return apperrors.ErrUnauthenticated
	}
	return nil
}

// translate переводит ошибку хранилища в ошибку бизнес-слоя. Ошибки,
// возвращённые проверками владельца, уже имеют тип *apperrors.Error.
func translate(err error, notFound string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.Wrap(apperrors.CodeNotFound, notFound, err)
	}
	return apperrors.StoreFailure(err)
}
