package services

import (
	"strings"

	"arxiv_pulse_go_backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FeedService builds the personalized feed: papers by followed authors plus
// papers in the user's preferred categories, optionally including the user's
// saved papers, newest first.
type FeedService struct {
	db *gorm.DB
}

func NewFeedService(db *gorm.DB) *FeedService {
	return &FeedService{db: db}
}

func (s *FeedService) FeedForUser(userID uuid.UUID, page, perPage int) ([]models.Paper, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}

	var prefs models.UserPreferences
	if err := s.db.Where("user_id = ?", userID).First(&prefs).Error; err != nil && err != gorm.ErrRecordNotFound {
		return nil, 0, err
	}
	categories := splitCategories(prefs.Categories)

	followedSub := s.db.Model(&models.UserFollowedAuthor{}).
		Select("author_id").
		Where("user_id = ? AND deleted_at IS NULL", userID)
	authoredSub := s.db.Model(&models.PaperAuthor{}).
		Select("paper_id").
		Where("author_id IN (?)", followedSub)

	conds := "papers.id IN (?)"
	args := []interface{}{authoredSub}
	if len(categories) > 0 {
		conds += " OR papers.primary_category IN ?"
		args = append(args, categories)
	}
	if prefs.FeedIncludeSaved {
		savedSub := s.db.Model(&models.UserSavedPaper{}).
			Select("paper_id").
			Where("user_id = ? AND deleted_at IS NULL", userID)
		conds += " OR papers.id IN (?)"
		args = append(args, savedSub)
	}

	q := s.db.Model(&models.Paper{}).Where(conds, args...)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var papers []models.Paper
	err := q.Preload("Authors").
		Order("papers.published_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&papers).Error
	return papers, total, err
}

func splitCategories(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
