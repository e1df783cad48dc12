package models

import (
	"time"

	"gorm.io/gorm"
)

// Analysis lifecycle statuses.
const (
	AnalysisStatusPending   = "pending"
	AnalysisStatusCompleted = "completed"
	AnalysisStatusSkipped   = "skipped"
	AnalysisStatusFailed    = "failed"
)

// PaperCardAnalysis is the short card-style summary shown in paper lists.
// One row per paper.
type PaperCardAnalysis struct {
	gorm.Model
	PaperID     uint   `gorm:"uniqueIndex"`
	ModelName   string `gorm:"type:varchar(128)"`
	Status      string `gorm:"type:varchar(16);index"`
	Payload     []byte `gorm:"type:jsonb"` // structured card JSON
	TokensIn    int64
	TokensOut   int64
	GeneratedAt time.Time
}

// PaperAnalysisV3 holds the structured DTL-P analysis. Uniqueness per
// (paper, schema version) allows re-analysis when the schema revs.
type PaperAnalysisV3 struct {
	gorm.Model
	PaperID       uint   `gorm:"uniqueIndex:idx_v3_paper_schema"`
	SchemaVersion string `gorm:"type:varchar(16);uniqueIndex:idx_v3_paper_schema"`
	ModelName     string `gorm:"type:varchar(128)"`
	Status        string `gorm:"type:varchar(16);index"`
	Payload       []byte `gorm:"type:jsonb"`
	TokensIn      int64
	TokensOut     int64
	GeneratedAt   time.Time
}

// AnalysisBatch groups the LLM tasks fanned out by one ingestion run, so the
// admin view can follow a run's enrichment from enqueue to completion.
// RequestedBy records the triggering queue (arxiv-fetch or backfill).
type AnalysisBatch struct {
	gorm.Model
	Kind        string             `gorm:"type:varchar(32)"` // e.g. enrichment
	RequestedBy string             `gorm:"type:varchar(32)"`
	Status      string             `gorm:"type:varchar(16);index"`
	Jobs        []AnalysisBatchJob `gorm:"foreignKey:BatchID"`
}

// AnalysisBatchJob tracks one enqueued task. TaskID matches the idempotent
// asynq task ID, which is how the worker finds the row on completion.
type AnalysisBatchJob struct {
	gorm.Model
	BatchID uint   `gorm:"index"`
	PaperID uint   `gorm:"index"`
	TaskID  string `gorm:"type:varchar(128);index"`
	Status  string `gorm:"type:varchar(16)"`
	Error   string
}
