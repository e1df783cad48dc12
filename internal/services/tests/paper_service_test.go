package services_test

import (
	"testing"
	"time"

	"arxiv_pulse_go_backend/internal/models"
	"arxiv_pulse_go_backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPaperDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.Author{}, &models.PaperAuthor{}))
	// Migrated separately: listing PaperReference alongside PaperAuthor makes
	// gorm re-add Paper as a dependency, and Paper's implicit join-table
	// definition shadows the explicit PaperAuthor model (dropping Position).
	require.NoError(t, db.AutoMigrate(&models.PaperReference{}))
	return db
}

func TestUpsertFromArxiv(t *testing.T) {
	db := newPaperDB(t)
	svc := services.NewPaperService(db)

	entry := services.ArxivPaper{
		ArxivID:         "2403.00001",
		Title:           "First Title",
		Abstract:        "An abstract.",
		PrimaryCategory: "cs.AI",
		Categories:      []string{"cs.AI", "cs.LG"},
		Authors:         []string{"Ada Lovelace", "Alan Turing"},
		PublishedAt:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	paper, created, err := svc.UpsertFromArxiv(entry)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "cs.AI,cs.LG", paper.Categories)

	// Author positions follow the byline order.
	var links []models.PaperAuthor
	require.NoError(t, db.Where("paper_id = ?", paper.ID).Order("position").Find(&links).Error)
	require.Len(t, links, 2)
	assert.Equal(t, 0, links[0].Position)
	assert.Equal(t, 1, links[1].Position)

	// A second fetch of the same paper updates in place.
	entry.Title = "Revised Title"
	updated, created, err := svc.UpsertFromArxiv(entry)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, paper.ID, updated.ID)

	var count int64
	require.NoError(t, db.Model(&models.Paper{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var got models.Paper
	require.NoError(t, db.First(&got, paper.ID).Error)
	assert.Equal(t, "Revised Title", got.Title)
}

func TestUpsertFromArxivReusesAuthors(t *testing.T) {
	db := newPaperDB(t)
	svc := services.NewPaperService(db)

	first := services.ArxivPaper{ArxivID: "2403.00002", Title: "A", Authors: []string{"Grace Hopper"}}
	second := services.ArxivPaper{ArxivID: "2403.00003", Title: "B", Authors: []string{"Grace Hopper"}}

	_, _, err := svc.UpsertFromArxiv(first)
	require.NoError(t, err)
	_, _, err = svc.UpsertFromArxiv(second)
	require.NoError(t, err)

	var authors int64
	require.NoError(t, db.Model(&models.Author{}).Count(&authors).Error)
	assert.Equal(t, int64(1), authors)
}

func TestReplaceReferences(t *testing.T) {
	db := newPaperDB(t)
	svc := services.NewPaperService(db)
	paper := seedPaper(t, db, "2403.00004")

	require.NoError(t, svc.ReplaceReferences(paper.ID, []models.PaperReference{
		{Key: "old1", Title: "Old One"},
		{Key: "old2", Title: "Old Two"},
	}))
	require.NoError(t, svc.ReplaceReferences(paper.ID, []models.PaperReference{
		{Key: "new1", Title: "New One"},
	}))

	got, err := svc.GetPaperByArxivID("2403.00004")
	require.NoError(t, err)
	require.Len(t, got.References, 1)
	assert.Equal(t, "new1", got.References[0].Key)
}
