package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task types. Each type runs on a queue of the same name so per-queue depth,
// retry, and archive counts line up with the pipeline stages.
const (
	TypeArxivFetch    = "arxiv-fetch"
	TypeSummary       = "summary"
	TypeAnalysis      = "analysis"
	TypeAnalysisV3    = "analysis-v3"
	TypeSocialMonitor = "social-monitor"
	TypeNewsFetch     = "news-fetch"
	TypeBackfill      = "backfill"
)

// AllQueues in priority order; earlier queues get more worker attention.
var AllQueues = []string{
	TypeArxivFetch,
	TypeBackfill,
	TypeSummary,
	TypeAnalysis,
	TypeAnalysisV3,
	TypeSocialMonitor,
	TypeNewsFetch,
}

// QueuePriorities feeds asynq.Config.Queues.
func QueuePriorities() map[string]int {
	return map[string]int{
		TypeArxivFetch:    6,
		TypeBackfill:      5,
		TypeSummary:       4,
		TypeAnalysis:      3,
		TypeAnalysisV3:    3,
		TypeSocialMonitor: 2,
		TypeNewsFetch:     2,
	}
}

const taskDateLayout = "2006-01-02"

// FetchPayload drives arxiv-fetch and backfill tasks.
type FetchPayload struct {
	Category string `json:"category"`
	Date     string `json:"date"` // YYYY-MM-DD, arXiv submission date
}

// ArxivDate resolves the payload date. Scheduler entries carry an empty date
// meaning "yesterday", since cron-registered payloads are static.
func (p FetchPayload) ArxivDate() (time.Time, error) {
	if p.Date == "" {
		y := time.Now().UTC().AddDate(0, 0, -1)
		return time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(taskDateLayout, p.Date)
}

// PaperPayload drives the per-paper enrichment and monitoring tasks.
type PaperPayload struct {
	ArxivID string `json:"arxiv_id"`
}

func NewFetchTask(taskType, category string, date time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(FetchPayload{Category: category, Date: date.Format(taskDateLayout)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, payload), nil
}

// NewScheduledFetchTask builds the cron-registered fetch task; its empty
// date resolves to yesterday each time it fires.
func NewScheduledFetchTask(category string) (*asynq.Task, error) {
	payload, err := json.Marshal(FetchPayload{Category: category})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeArxivFetch, payload), nil
}

func NewPaperTask(taskType, arxivID string) (*asynq.Task, error) {
	payload, err := json.Marshal(PaperPayload{ArxivID: arxivID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, payload), nil
}

// FetchTaskID makes re-enqueueing a category/date run a no-op while the
// original task is still queued or retained.
func FetchTaskID(taskType, category string, date time.Time) string {
	return fmt.Sprintf("%s:%s:%s", taskType, category, date.Format(taskDateLayout))
}

// PaperTaskID deduplicates per-paper work, e.g. "summary:2401.12345".
func PaperTaskID(taskType, arxivID string) string {
	return fmt.Sprintf("%s:%s", taskType, arxivID)
}
