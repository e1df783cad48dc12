package jobs

import (
	"fmt"
	"testing"
	"time"

	"arxiv_pulse_go_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newStatsDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.IngestionRun{}))
	return db
}

func TestDailyCountsSumsCompletedRuns(t *testing.T) {
	db := newStatsDB(t)
	monday := day(2025, time.January, 6)

	runs := []models.IngestionRun{
		{Queue: TypeArxivFetch, Category: "cs.AI", ArxivDate: monday, PapersStored: 12, Status: models.RunStatusCompleted},
		{Queue: TypeArxivFetch, Category: "cs.LG", ArxivDate: monday, PapersStored: 8, Status: models.RunStatusCompleted},
		// Failed runs do not count toward coverage.
		{Queue: TypeArxivFetch, Category: "cs.AI", ArxivDate: monday.Add(24 * time.Hour), PapersStored: 0, Status: models.RunStatusFailed},
	}
	require.NoError(t, db.Create(&runs).Error)

	svc := NewStatsService(db)
	counts, err := svc.DailyCounts(monday, monday.Add(48*time.Hour), "")
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, 20, counts[0].Count)

	// Category filter keeps only matching runs.
	counts, err = svc.DailyCounts(monday, monday.Add(48*time.Hour), "cs.LG")
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, 8, counts[0].Count)
}

func TestGapsInRange(t *testing.T) {
	db := newStatsDB(t)
	monday := day(2025, time.January, 6)

	require.NoError(t, db.Create(&models.IngestionRun{
		Queue: TypeArxivFetch, Category: "cs.AI", ArxivDate: monday,
		PapersStored: 30, Status: models.RunStatusCompleted,
	}).Error)

	svc := NewStatsService(db)
	counts, gaps, err := svc.GapsInRange(monday, day(2025, time.January, 8), "")
	require.NoError(t, err)
	assert.Len(t, counts, 1)

	// Tuesday and Wednesday have no completed runs.
	assert.Equal(t, []time.Time{
		day(2025, time.January, 7),
		day(2025, time.January, 8),
	}, gaps)
}

func TestKnownQueue(t *testing.T) {
	for _, q := range AllQueues {
		assert.True(t, KnownQueue(q), q)
	}
	assert.False(t, KnownQueue("not-a-queue"))
	assert.False(t, KnownQueue(""))
}
