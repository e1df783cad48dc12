package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Auth0ID   string    `gorm:"unique;not null"`
	Email     string    `gorm:"unique;not null"`
	Name      string
	Nickname  string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

type UserSavedPaper struct {
	gorm.Model
	UserID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_saved_user_paper"`
	PaperID uint      `gorm:"uniqueIndex:idx_saved_user_paper"`
}

type UserFollowedAuthor struct {
	gorm.Model
	UserID   uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_follow_user_author"`
	AuthorID uint      `gorm:"uniqueIndex:idx_follow_user_author"`
}

type UserPreferences struct {
	gorm.Model
	UserID           uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Categories       string    // comma-separated arXiv category codes
	FeedIncludeSaved bool
}
