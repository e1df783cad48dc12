package services

import (
	"errors"
	"strings"

	"arxiv_pulse_go_backend/internal/database"
	"arxiv_pulse_go_backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicate signals a save/follow that already exists; handlers map it to 409.
var ErrDuplicate = errors.New("already exists")

func CreateOrUpdateUser(auth0ID, email, name, nickname string) (*models.User, error) {
	user := models.User{
		Auth0ID:  auth0ID,
		Email:    email,
		Name:     name,
		Nickname: nickname,
	}
	result := database.DB.Where(models.User{Auth0ID: auth0ID}).FirstOrCreate(&user)

	if result.Error != nil {
		return nil, result.Error
	}

	return &user, nil
}

// UserService covers saved papers, followed authors, and preferences.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) SavePaper(userID uuid.UUID, paperID uint) error {
	var existing models.UserSavedPaper
	err := s.db.Where("user_id = ? AND paper_id = ?", userID, paperID).First(&existing).Error
	if err == nil {
		return ErrDuplicate
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.Create(&models.UserSavedPaper{UserID: userID, PaperID: paperID}).Error
}

func (s *UserService) UnsavePaper(userID uuid.UUID, paperID uint) error {
	return s.db.Where("user_id = ? AND paper_id = ?", userID, paperID).
		Delete(&models.UserSavedPaper{}).Error
}

func (s *UserService) SavedPapers(userID uuid.UUID) ([]models.Paper, error) {
	var papers []models.Paper
	err := s.db.Model(&models.Paper{}).
		Joins("JOIN user_saved_papers ON user_saved_papers.paper_id = papers.id").
		Where("user_saved_papers.user_id = ? AND user_saved_papers.deleted_at IS NULL", userID).
		Order("user_saved_papers.created_at DESC").
		Preload("Authors").
		Find(&papers).Error
	return papers, err
}

func (s *UserService) FollowAuthor(userID uuid.UUID, authorID uint) error {
	var author models.Author
	if err := s.db.First(&author, authorID).Error; err != nil {
		return err
	}

	var existing models.UserFollowedAuthor
	err := s.db.Where("user_id = ? AND author_id = ?", userID, authorID).First(&existing).Error
	if err == nil {
		return ErrDuplicate
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.Create(&models.UserFollowedAuthor{UserID: userID, AuthorID: authorID}).Error
}

func (s *UserService) UnfollowAuthor(userID uuid.UUID, authorID uint) error {
	return s.db.Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.UserFollowedAuthor{}).Error
}

func (s *UserService) FollowedAuthors(userID uuid.UUID) ([]models.Author, error) {
	var authors []models.Author
	err := s.db.Model(&models.Author{}).
		Joins("JOIN user_followed_authors ON user_followed_authors.author_id = authors.id").
		Where("user_followed_authors.user_id = ? AND user_followed_authors.deleted_at IS NULL", userID).
		Find(&authors).Error
	return authors, err
}

func (s *UserService) GetPreferences(userID uuid.UUID) (*models.UserPreferences, error) {
	prefs := models.UserPreferences{UserID: userID}
	err := s.db.Where(models.UserPreferences{UserID: userID}).FirstOrCreate(&prefs).Error
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

func (s *UserService) UpdatePreferences(userID uuid.UUID, categories []string, includeSaved bool) (*models.UserPreferences, error) {
	prefs, err := s.GetPreferences(userID)
	if err != nil {
		return nil, err
	}

	prefs.Categories = strings.Join(categories, ",")
	prefs.FeedIncludeSaved = includeSaved
	if err := s.db.Save(prefs).Error; err != nil {
		return nil, err
	}
	return prefs, nil
}
