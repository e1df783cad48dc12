package services

import (
	"errors"

	"arxiv_pulse_go_backend/internal/models"

	"gorm.io/gorm"
)

// BatchService records enrichment fan-outs so the admin view can follow a
// run's LLM work from enqueue to completion.
type BatchService struct {
	db *gorm.DB
}

func NewBatchService(db *gorm.DB) *BatchService {
	return &BatchService{db: db}
}

// RecordBatch stores a batch with one pending job row per enqueued task.
func (s *BatchService) RecordBatch(kind, requestedBy string, jobs []models.AnalysisBatchJob) (*models.AnalysisBatch, error) {
	if len(jobs) == 0 {
		return nil, nil
	}
	for i := range jobs {
		jobs[i].Status = models.AnalysisStatusPending
	}
	batch := models.AnalysisBatch{
		Kind:        kind,
		RequestedBy: requestedBy,
		Status:      models.AnalysisStatusPending,
		Jobs:        jobs,
	}
	if err := s.db.Create(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// CompleteJob resolves the pending job row for a task and marks the batch
// completed once no pending jobs remain. Tasks that are not part of any
// recorded batch are ignored.
func (s *BatchService) CompleteJob(taskID, status, errMsg string) error {
	var job models.AnalysisBatchJob
	err := s.db.Where("task_id = ? AND status = ?", taskID, models.AnalysisStatusPending).
		Order("created_at DESC").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	job.Status = status
	job.Error = errMsg
	if err := s.db.Save(&job).Error; err != nil {
		return err
	}

	var pending int64
	err = s.db.Model(&models.AnalysisBatchJob{}).
		Where("batch_id = ? AND status = ?", job.BatchID, models.AnalysisStatusPending).
		Count(&pending).Error
	if err != nil {
		return err
	}
	if pending == 0 {
		return s.db.Model(&models.AnalysisBatch{}).
			Where("id = ?", job.BatchID).
			Update("status", models.AnalysisStatusCompleted).Error
	}
	return nil
}

// RecentBatches lists the latest batches with their jobs.
func (s *BatchService) RecentBatches(limit int) ([]models.AnalysisBatch, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}
	var batches []models.AnalysisBatch
	err := s.db.Preload("Jobs").Order("created_at DESC").Limit(limit).Find(&batches).Error
	return batches, err
}
