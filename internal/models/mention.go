package models

import (
	"time"

	"gorm.io/gorm"
)

// Platforms recorded in SocialMention.Platform.
const (
	PlatformBluesky = "bluesky"
	PlatformReddit  = "reddit"
)

type SocialMention struct {
	gorm.Model
	PaperID      uint   `gorm:"index"`
	Platform     string `gorm:"type:varchar(16);uniqueIndex:idx_social_platform_ext"`
	ExternalID   string `gorm:"type:varchar(255);uniqueIndex:idx_social_platform_ext"`
	URL          string
	AuthorHandle string
	Text         string
	PostedAt     time.Time
	Score        int // likes on Bluesky, upvotes on Reddit
}

type NewsMention struct {
	gorm.Model
	PaperID     uint   `gorm:"uniqueIndex:idx_news_paper_url"`
	URL         string `gorm:"type:varchar(2048);uniqueIndex:idx_news_paper_url"`
	Title       string
	Source      string
	Snippet     string
	PublishedAt time.Time
}
