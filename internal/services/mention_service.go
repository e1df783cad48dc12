package services

import (
	"strings"

	"arxiv_pulse_go_backend/internal/models"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MentionService stores social and news mentions, deduplicating on the
// platform/URL uniqueness constraints.
type MentionService struct {
	db        *gorm.DB
	sanitizer *bluemonday.Policy
}

func NewMentionService(db *gorm.DB) *MentionService {
	return &MentionService{
		db:        db,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// UpsertSocialMentions inserts posts not yet recorded; existing rows get
// their score refreshed. Returns the number of new rows.
func (s *MentionService) UpsertSocialMentions(paperID uint, posts []SocialPost) (int, error) {
	stored := 0
	for _, post := range posts {
		mention := models.SocialMention{
			PaperID:      paperID,
			Platform:     post.Platform,
			ExternalID:   post.ExternalID,
			URL:          post.URL,
			AuthorHandle: post.AuthorHandle,
			Text:         s.sanitizer.Sanitize(post.Text),
			PostedAt:     post.PostedAt,
			Score:        post.Score,
		}
		result := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "platform"}, {Name: "external_id"}},
			DoNothing: true,
		}).Create(&mention)
		if result.Error != nil {
			return stored, result.Error
		}
		if result.RowsAffected > 0 {
			stored++
			continue
		}
		// Existing row: only the engagement score moves between sweeps.
		err := s.db.Model(&models.SocialMention{}).
			Where("platform = ? AND external_id = ?", post.Platform, post.ExternalID).
			Update("score", post.Score).Error
		if err != nil {
			return stored, err
		}
	}
	return stored, nil
}

// UpsertNewsMentions inserts articles not yet recorded for the paper,
// sanitizing snippets. Returns the number of new rows.
func (s *MentionService) UpsertNewsMentions(paperID uint, items []NewsItem) (int, error) {
	stored := 0
	for _, item := range items {
		if strings.TrimSpace(item.URL) == "" {
			continue
		}
		mention := models.NewsMention{
			PaperID:     paperID,
			URL:         item.URL,
			Title:       s.sanitizer.Sanitize(item.Title),
			Source:      item.Source,
			Snippet:     s.sanitizer.Sanitize(item.Snippet),
			PublishedAt: item.PublishedAt,
		}
		result := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "paper_id"}, {Name: "url"}},
			DoNothing: true,
		}).Create(&mention)
		if result.Error != nil {
			return stored, result.Error
		}
		if result.RowsAffected > 0 {
			stored++
		}
	}
	return stored, nil
}

func (s *MentionService) MentionsForPaper(paperID uint) ([]models.SocialMention, []models.NewsMention, error) {
	var social []models.SocialMention
	if err := s.db.Where("paper_id = ?", paperID).Order("posted_at DESC").Find(&social).Error; err != nil {
		return nil, nil, err
	}

	var news []models.NewsMention
	if err := s.db.Where("paper_id = ?", paperID).Order("published_at DESC").Find(&news).Error; err != nil {
		return nil, nil, err
	}
	return social, news, nil
}

func (s *MentionService) MentionCounts(paperID uint) (int64, int64, error) {
	var social, news int64
	if err := s.db.Model(&models.SocialMention{}).Where("paper_id = ?", paperID).Count(&social).Error; err != nil {
		return 0, 0, err
	}
	if err := s.db.Model(&models.NewsMention{}).Where("paper_id = ?", paperID).Count(&news).Error; err != nil {
		return 0, 0, err
	}
	return social, news, nil
}
