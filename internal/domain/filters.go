package domain

import "time"

// PostFilter - фильтры ленты. Все поля необязательные и объединяются через AND.
type PostFilter struct {
	After               *string // id курсора: возвращаются посты с id > After
	First               *int    // размер страницы, применяется последним
	TitleContains       *string
	ContentContains     *string
	InteractionsCountGt *int
	InteractionsCountLt *int
	InteractionType     *InteractionType
	AuthorUsername      *string
	CreatedAfter        *time.Time // включительно
	CreatedBefore       *time.Time // включительно
}

// InteractionFilter - фильтры списка реакций.
type InteractionFilter struct {
	Username *string
	PostID   *string
}

// PostPatch - частичное обновление поста: nil поля не меняются.
type PostPatch struct {
	Title   *string
	Content *string
}
