// Package apperrors описывает ошибки бизнес-слоя с машинно-читаемым кодом.
package apperrors

import "errors"

// Code - машинно-читаемый код ошибки. Значения совпадают с GraphQL enum ErrorCode.
type Code string

const (
	CodeUnauthenticated        Code = "UNAUTHENTICATED"
	CodeNotFound               Code = "NOT_FOUND"
	CodeForbidden              Code = "FORBIDDEN"
	CodeInvalidInteractionType Code = "INVALID_INTERACTION_TYPE"
	CodeDuplicateInteraction   Code = "DUPLICATE_INTERACTION"
	CodeDuplicateShare         Code = "DUPLICATE_SHARE"
	CodeRecipientNotFound      Code = "RECIPIENT_NOT_FOUND"
	CodeStoreFailure           Code = "STORE_FAILURE"

	// Аккаунты
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeUsernameTaken      Code = "USERNAME_TAKEN"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
)

// Error - ошибка бизнес-слоя.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду, так что errors.Is(err, apperrors.New(CodeNotFound, ""))
// работает независимо от текста.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Extensions попадает в поле extensions ответа GraphQL.
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": string(e.Code)}
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// StoreFailure оборачивает ошибку хранилища, сохраняя её текст.
func StoreFailure(cause error) *Error {
	return &Error{Code: CodeStoreFailure, Message: cause.Error(), Cause: cause}
}

// CodeOf возвращает код ошибки; для посторонних ошибок - CodeStoreFailure.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeStoreFailure
}

// HasCode сообщает, несёт ли err указанный код.
func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// Частые ошибки с типовыми сообщениями.
var (
	ErrUnauthenticated = New(CodeUnauthenticated, "user is not authenticated")
)
