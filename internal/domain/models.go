package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewID возвращает упорядоченный по времени UUIDv7, поэтому сравнение id
// строк совпадает с порядком создания записей.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// User представляет пользователя системы.
type User struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	Username     string    `json:"username" gorm:"type:varchar(150);not null;uniqueIndex"`
	Email        string    `json:"email" gorm:"type:varchar(254);not null"`
	FirstName    string    `json:"firstName" gorm:"type:varchar(150);not null"`
	LastName     string    `json:"lastName" gorm:"type:varchar(150);not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	DateJoined   time.Time `json:"dateJoined" gorm:"autoCreateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}

// Post представляет пост в ленте.
type Post struct {
	ID                string         `json:"id" gorm:"type:uuid;primaryKey"`
	UserID            string         `json:"userId" gorm:"type:uuid;not null;index"`
	Title             string         `json:"title" gorm:"type:varchar(255);not null;index"`
	Content           string         `json:"content" gorm:"type:text;not null"`
	Image             *string        `json:"image,omitempty" gorm:"type:varchar(512)"`
	InteractionsCount int            `json:"interactionsCount" gorm:"not null;default:0"`
	CommentsCount     int            `json:"commentsCount" gorm:"not null;default:0"`
	CreatedAt         time.Time      `json:"createdAt" gorm:"not null;index"`
	UpdatedAt         time.Time      `json:"updatedAt" gorm:"not null"`
	Comments          []*Comment     `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"` // gorm only
	Interactions      []*Interaction `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"` // gorm only
	Shares            []*Share       `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"` // gorm only
}

func (p *Post) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}

// Comment представляет комментарий к посту.
type Comment struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	PostID    string    `json:"postId" gorm:"type:uuid;not null;index"`
	UserID    string    `json:"userId" gorm:"type:uuid;not null;index"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
}

func (c *Comment) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}

// Interaction - реакция пользователя на пост. Пара (пользователь, пост, тип)
// уникальна, но разные типы на одном посте допустимы.
type Interaction struct {
	ID        string          `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string          `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_interaction_user_post_type"`
	PostID    string          `json:"postId" gorm:"type:uuid;not null;index;uniqueIndex:idx_interaction_user_post_type"`
	Type      InteractionType `json:"interactionType" gorm:"column:interaction_type;type:varchar(20);not null;uniqueIndex:idx_interaction_user_post_type"`
	CreatedAt time.Time       `json:"createdAt" gorm:"not null"`
}

func (i *Interaction) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = NewID()
	}
	return nil
}

// Share - запись о том, что пользователь переслал пост другому пользователю.
type Share struct {
	ID               string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID           string    `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_share_user_post_recipient"`
	PostID           string    `json:"postId" gorm:"type:uuid;not null;index;uniqueIndex:idx_share_user_post_recipient"`
	SharedWithUserID string    `json:"sharedWithUserId" gorm:"type:uuid;not null;uniqueIndex:idx_share_user_post_recipient"`
	CreatedAt        time.Time `json:"createdAt" gorm:"not null"`
}

func (s *Share) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = NewID()
	}
	return nil
}

// ValidID сообщает, похожа ли строка на идентификатор записи.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
