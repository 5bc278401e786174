package domain

import (
	"fmt"
	"strings"
)

// InteractionType - тип реакции на пост.
type InteractionType string

const (
	InteractionThumbsUp   InteractionType = "thumbs_up"
	InteractionThumbsDown InteractionType = "thumbs_down"
	InteractionLove       InteractionType = "love"
	InteractionHaha       InteractionType = "haha"
	InteractionWow        InteractionType = "wow"
	InteractionSad        InteractionType = "sad"
	InteractionAngry      InteractionType = "angry"
)

// InteractionTypes перечисляет все допустимые реакции в порядке объявления.
var InteractionTypes = []InteractionType{
	InteractionThumbsUp,
	InteractionThumbsDown,
	InteractionLove,
	InteractionHaha,
	InteractionWow,
	InteractionSad,
	InteractionAngry,
}

// Valid сообщает, входит ли тип в закрытый набор реакций.
func (t InteractionType) Valid() bool {
	for _, known := range InteractionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// EnumName возвращает имя значения в GraphQL enum (THUMBS_UP, LOVE, ...).
func (t InteractionType) EnumName() string {
	return strings.ToUpper(string(t))
}

// ParseInteractionType принимает как значение хранилища ("love"), так и имя
// GraphQL enum ("LOVE").
func ParseInteractionType(s string) (InteractionType, error) {
	t := InteractionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown interaction type %q", s)
	}
	return t, nil
}
