package services_test

import (
	"testing"

	"arxiv_pulse_go_backend/internal/models"
	"arxiv_pulse_go_backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newBatchDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.AnalysisBatch{}, &models.AnalysisBatchJob{}))
	return db
}

func TestRecordBatchStoresPendingJobs(t *testing.T) {
	db := newBatchDB(t)
	svc := services.NewBatchService(db)

	batch, err := svc.RecordBatch("enrichment", "arxiv-fetch", []models.AnalysisBatchJob{
		{PaperID: 1, TaskID: "summary:2401.12345"},
		{PaperID: 1, TaskID: "analysis:2401.12345"},
	})
	require.NoError(t, err)
	require.NotNil(t, batch)

	assert.Equal(t, models.AnalysisStatusPending, batch.Status)
	assert.Equal(t, "arxiv-fetch", batch.RequestedBy)

	var jobs []models.AnalysisBatchJob
	require.NoError(t, db.Where("batch_id = ?", batch.ID).Find(&jobs).Error)
	require.Len(t, jobs, 2)
	for _, job := range jobs {
		assert.Equal(t, models.AnalysisStatusPending, job.Status)
	}
}

func TestRecordBatchIgnoresEmptyFanOut(t *testing.T) {
	db := newBatchDB(t)
	svc := services.NewBatchService(db)

	batch, err := svc.RecordBatch("enrichment", "arxiv-fetch", nil)
	require.NoError(t, err)
	assert.Nil(t, batch)

	var count int64
	require.NoError(t, db.Model(&models.AnalysisBatch{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCompleteJobFinishesBatchWhenNonePending(t *testing.T) {
	db := newBatchDB(t)
	svc := services.NewBatchService(db)

	batch, err := svc.RecordBatch("enrichment", "backfill", []models.AnalysisBatchJob{
		{PaperID: 1, TaskID: "summary:2401.12345"},
		{PaperID: 1, TaskID: "analysis-v3:2401.12345"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.CompleteJob("summary:2401.12345", models.AnalysisStatusCompleted, ""))

	var got models.AnalysisBatch
	require.NoError(t, db.First(&got, batch.ID).Error)
	assert.Equal(t, models.AnalysisStatusPending, got.Status)

	require.NoError(t, svc.CompleteJob("analysis-v3:2401.12345", models.AnalysisStatusSkipped, "monthly budget exhausted"))

	require.NoError(t, db.First(&got, batch.ID).Error)
	assert.Equal(t, models.AnalysisStatusCompleted, got.Status)

	var job models.AnalysisBatchJob
	require.NoError(t, db.Where("task_id = ?", "analysis-v3:2401.12345").First(&job).Error)
	assert.Equal(t, models.AnalysisStatusSkipped, job.Status)
	assert.Equal(t, "monthly budget exhausted", job.Error)
}

func TestCompleteJobIgnoresUnknownTask(t *testing.T) {
	db := newBatchDB(t)
	svc := services.NewBatchService(db)

	assert.NoError(t, svc.CompleteJob("summary:9999.00000", models.AnalysisStatusCompleted, ""))
}
