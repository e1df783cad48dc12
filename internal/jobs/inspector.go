package jobs

import (
	"errors"

	"github.com/hibiken/asynq"
)

// QueueStats is one queue's depth snapshot for the admin endpoint.
type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
	Completed int    `json:"completed"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	Paused    bool   `json:"paused"`
}

// QueueService wraps the asynq inspector for the admin queue endpoints. The
// queue engine owns all job state; this only reads and re-runs it.
type QueueService struct {
	inspector *asynq.Inspector
}

func NewQueueService(redisOpt asynq.RedisClientOpt) *QueueService {
	return &QueueService{inspector: asynq.NewInspector(redisOpt)}
}

// Stats returns a snapshot per pipeline queue. Queues that have not seen a
// task yet report zeros.
func (s *QueueService) Stats() ([]QueueStats, error) {
	stats := make([]QueueStats, 0, len(AllQueues))
	for _, queue := range AllQueues {
		info, err := s.inspector.GetQueueInfo(queue)
		if err != nil {
			if errors.Is(err, asynq.ErrQueueNotFound) {
				stats = append(stats, QueueStats{Queue: queue})
				continue
			}
			return nil, err
		}
		stats = append(stats, QueueStats{
			Queue:     queue,
			Pending:   info.Pending,
			Active:    info.Active,
			Scheduled: info.Scheduled,
			Retry:     info.Retry,
			Archived:  info.Archived,
			Completed: info.Completed,
			Processed: info.Processed,
			Failed:    info.Failed,
			Paused:    info.Paused,
		})
	}
	return stats, nil
}

// RetryFailed moves a queue's archived (exhausted-retry) tasks back to
// pending.
func (s *QueueService) RetryFailed(queue string) (int, error) {
	n, err := s.inspector.RunAllArchivedTasks(queue)
	if err != nil && errors.Is(err, asynq.ErrQueueNotFound) {
		return 0, nil
	}
	return n, err
}

// KnownQueue guards the retry endpoint's path parameter.
func KnownQueue(queue string) bool {
	for _, q := range AllQueues {
		if q == queue {
			return true
		}
	}
	return false
}
