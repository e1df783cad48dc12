package jobs

import (
	"errors"
	"fmt"
	"time"

	"arxiv_pulse_go_backend/internal/utils/broker"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// TopicJobs is the broker topic all pipeline events go to.
const TopicJobs = "jobs"

// taskClient is the slice of asynq.Client the Enqueuer needs; narrowed for tests.
type taskClient interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer applies the scheduling policy: staggered delays so enrichment
// calls trickle out instead of bursting, idempotent task IDs so re-runs are
// no-ops, and retention so completed tasks stay inspectable for a day.
type Enqueuer struct {
	client  taskClient
	stagger time.Duration
	events  broker.Publisher
}

func NewEnqueuer(client *asynq.Client, stagger time.Duration, events broker.Publisher) *Enqueuer {
	return &Enqueuer{client: client, stagger: stagger, events: events}
}

// StaggerDelay spaces the i-th task of a batch. The first task runs
// immediately.
func StaggerDelay(i int, stagger time.Duration) time.Duration {
	if i <= 0 {
		return 0
	}
	return time.Duration(i) * stagger
}

// EnqueueFetch schedules an arxiv-fetch (or backfill) run for one category
// and submission date.
func (e *Enqueuer) EnqueueFetch(taskType, category string, date time.Time) error {
	task, err := NewFetchTask(taskType, category, date)
	if err != nil {
		return err
	}
	return e.enqueue(task, FetchTaskID(taskType, category, date), taskType, 0,
		fmt.Sprintf("%s:%s", category, date.Format("2006-01-02")))
}

// EnqueueEnrichment fans out summary, analysis, and analysis-v3 tasks for a
// batch of papers, staggering within each queue.
func (e *Enqueuer) EnqueueEnrichment(arxivIDs []string) error {
	for _, taskType := range []string{TypeSummary, TypeAnalysis, TypeAnalysisV3} {
		for i, arxivID := range arxivIDs {
			task, err := NewPaperTask(taskType, arxivID)
			if err != nil {
				return err
			}
			if err := e.enqueue(task, PaperTaskID(taskType, arxivID), taskType, StaggerDelay(i, e.stagger), arxivID); err != nil {
				return err
			}
		}
	}
	return nil
}

// EnqueueMentionSweep fans out social-monitor and news-fetch tasks. Mention
// sweeps repeat over time, so the task ID carries the sweep date rather than
// being unique forever.
func (e *Enqueuer) EnqueueMentionSweep(arxivIDs []string, sweepDate time.Time) error {
	day := sweepDate.Format("2006-01-02")
	for _, taskType := range []string{TypeSocialMonitor, TypeNewsFetch} {
		for i, arxivID := range arxivIDs {
			task, err := NewPaperTask(taskType, arxivID)
			if err != nil {
				return err
			}
			taskID := fmt.Sprintf("%s:%s:%s", taskType, arxivID, day)
			if err := e.enqueue(task, taskID, taskType, StaggerDelay(i, e.stagger), arxivID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Enqueuer) enqueue(task *asynq.Task, taskID, queue string, delay time.Duration, subject string) error {
	opts := []asynq.Option{
		asynq.Queue(queue),
		asynq.TaskID(taskID),
		asynq.MaxRetry(3),
		asynq.Retention(24 * time.Hour),
	}
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}

	_, err := e.client.Enqueue(task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		// Already queued or retained: idempotent no-op.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", taskID, err)
	}

	log.Debug().Str("queue", queue).Str("task_id", taskID).Dur("delay", delay).Msg("task enqueued")
	if e.events != nil {
		e.events.Publish(TopicJobs, broker.JobEvent{
			Queue:      queue,
			TaskID:     taskID,
			Stage:      broker.StageEnqueued,
			Subject:    subject,
			OccurredAt: time.Now().UTC(),
		})
	}
	return nil
}
