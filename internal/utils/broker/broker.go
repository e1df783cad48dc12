// broker/broker.go
package broker

import (
	"sync"
	"time"
)

// JobEvent is one pipeline lifecycle event published for the admin live stream.
type JobEvent struct {
	Queue      string    `json:"queue"`
	TaskID     string    `json:"task_id"`
	Stage      string    `json:"stage"`             // enqueued, started, completed, skipped, failed
	Subject    string    `json:"subject,omitempty"` // arXiv ID or category:date
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Event stages.
const (
	StageEnqueued  = "enqueued"
	StageStarted   = "started"
	StageCompleted = "completed"
	StageSkipped   = "skipped"
	StageFailed    = "failed"
)

type Broker struct {
	subscribers map[string][]chan JobEvent
	mu          sync.RWMutex
}

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string][]chan JobEvent),
	}
}

func (b *Broker) Subscribe(topic string) <-chan JobEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan JobEvent, 64)
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	return ch
}

func (b *Broker) Unsubscribe(topic string, ch <-chan JobEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if chans, ok := b.subscribers[topic]; ok {
		for i, c := range chans {
			if c == ch {
				b.subscribers[topic] = append(chans[:i], chans[i+1:]...)
				close(c)
				break
			}
		}
	}
}

// Publish never blocks; events to a full subscriber buffer are dropped so a
// stalled websocket client cannot back-pressure the workers.
func (b *Broker) Publish(topic string, event JobEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- event:
		default:
		}
	}
}
