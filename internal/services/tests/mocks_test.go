package services_test

import (
	"context"
	"fmt"
	"testing"

	"arxiv_pulse_go_backend/internal/models"
	"arxiv_pulse_go_backend/internal/services"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) CompleteJSON(ctx context.Context, model, system, user string) (*services.LLMResult, error) {
	args := m.Called(ctx, model, system, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LLMResult), args.Error(1)
}

func (m *MockLLMClient) Complete(ctx context.Context, model, system, user string) (*services.LLMResult, error) {
	args := m.Called(ctx, model, system, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LLMResult), args.Error(1)
}

// newTestDB opens a per-test in-memory database and migrates the enrichment
// tables. The shared-cache DSN keeps all pooled connections on the same
// in-memory store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Paper{},
		&models.PaperCardAnalysis{},
		&models.PaperAnalysisV3{},
		&models.LLMSpend{},
		&models.Setting{},
	)
	require.NoError(t, err)

	return db
}

func seedPaper(t *testing.T, db *gorm.DB, arxivID string) *models.Paper {
	t.Helper()

	paper := models.Paper{
		ArxivID:  arxivID,
		Title:    "Test Paper " + arxivID,
		Abstract: "Abstract for " + arxivID,
	}
	require.NoError(t, db.Create(&paper).Error)
	return &paper
}
