package services_test

import (
	"testing"
	"time"

	"arxiv_pulse_go_backend/internal/models"
	"arxiv_pulse_go_backend/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newFeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := newTestDB(t)
	err := db.AutoMigrate(
		&models.Author{},
		&models.PaperAuthor{},
		&models.UserPreferences{},
		&models.UserSavedPaper{},
		&models.UserFollowedAuthor{},
	)
	require.NoError(t, err)
	return db
}

func feedPaper(t *testing.T, db *gorm.DB, arxivID, category string, published time.Time) models.Paper {
	t.Helper()
	paper := models.Paper{
		ArxivID:         arxivID,
		Title:           "Paper " + arxivID,
		PrimaryCategory: category,
		PublishedAt:     published,
	}
	require.NoError(t, db.Create(&paper).Error)
	return paper
}

func TestFeedMatchesPreferredCategories(t *testing.T) {
	db := newFeedDB(t)
	svc := services.NewFeedService(db)
	userID := uuid.New()

	now := time.Now().UTC()
	inCategory := feedPaper(t, db, "2401.00001", "cs.AI", now)
	feedPaper(t, db, "2401.00002", "math.CO", now.Add(-time.Hour))

	require.NoError(t, db.Create(&models.UserPreferences{UserID: userID, Categories: "cs.AI"}).Error)

	papers, total, err := svc.FeedForUser(userID, 1, 25)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, papers, 1)
	assert.Equal(t, inCategory.ArxivID, papers[0].ArxivID)
}

func TestFeedIncludesSavedPapersWhenEnabled(t *testing.T) {
	db := newFeedDB(t)
	svc := services.NewFeedService(db)
	userID := uuid.New()

	now := time.Now().UTC()
	saved := feedPaper(t, db, "2401.00003", "math.CO", now)
	feedPaper(t, db, "2401.00004", "math.NT", now.Add(-time.Hour))

	require.NoError(t, db.Create(&models.UserSavedPaper{UserID: userID, PaperID: saved.ID}).Error)
	require.NoError(t, db.Create(&models.UserPreferences{UserID: userID, FeedIncludeSaved: true}).Error)

	papers, total, err := svc.FeedForUser(userID, 1, 25)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, papers, 1)
	assert.Equal(t, saved.ArxivID, papers[0].ArxivID)
}

func TestFeedOmitsSavedPapersWhenDisabled(t *testing.T) {
	db := newFeedDB(t)
	svc := services.NewFeedService(db)
	userID := uuid.New()

	saved := feedPaper(t, db, "2401.00005", "math.CO", time.Now().UTC())
	require.NoError(t, db.Create(&models.UserSavedPaper{UserID: userID, PaperID: saved.ID}).Error)
	require.NoError(t, db.Create(&models.UserPreferences{UserID: userID}).Error)

	papers, total, err := svc.FeedForUser(userID, 1, 25)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, papers)
}

func TestFeedIncludesFollowedAuthorPapers(t *testing.T) {
	db := newFeedDB(t)
	svc := services.NewFeedService(db)
	userID := uuid.New()

	now := time.Now().UTC()
	authored := feedPaper(t, db, "2401.00006", "math.CO", now)
	feedPaper(t, db, "2401.00007", "math.CO", now.Add(-time.Hour))

	author := models.Author{DisplayName: "Ada Lovelace"}
	require.NoError(t, db.Create(&author).Error)
	require.NoError(t, db.Create(&models.PaperAuthor{PaperID: authored.ID, AuthorID: author.ID, Position: 1}).Error)
	require.NoError(t, db.Create(&models.UserFollowedAuthor{UserID: userID, AuthorID: author.ID}).Error)

	papers, total, err := svc.FeedForUser(userID, 1, 25)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, papers, 1)
	assert.Equal(t, authored.ArxivID, papers[0].ArxivID)
}
