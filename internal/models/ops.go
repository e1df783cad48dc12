package models

import (
	"time"

	"gorm.io/gorm"
)

// Ingestion run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// IngestionRun records one arxiv-fetch (or backfill) execution for one
// category and submission date. Gap detection reads these rows.
type IngestionRun struct {
	gorm.Model
	Queue        string    `gorm:"type:varchar(32);index"`
	Category     string    `gorm:"type:varchar(32);index"`
	ArxivDate    time.Time `gorm:"index"` // submission date the run covered
	PapersFound  int
	PapersStored int
	Status       string `gorm:"type:varchar(16)"`
	Error        string
	FinishedAt   time.Time
}

// LLMSpend is one priced LLM call. Spending reports and the budget gate
// aggregate over these rows.
type LLMSpend struct {
	gorm.Model
	Purpose   string `gorm:"type:varchar(32);index"` // summary, analysis, analysis-v3
	ModelName string `gorm:"type:varchar(128);index"`
	PaperID   uint   `gorm:"index"`
	TokensIn  int64
	TokensOut int64
	CostUSD   float64
}

// Setting is a runtime key/value flag shared by the API and worker
// processes, e.g. whether AI processing is enabled.
type Setting struct {
	gorm.Model
	Key   string `gorm:"type:varchar(64);uniqueIndex"`
	Value string
}
