package broker

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Publisher is the sink pipeline code publishes events to. The in-process
// Broker serves subscribers inside the same binary; RedisPublisher carries
// events across process boundaries.
type Publisher interface {
	Publish(topic string, event JobEvent)
}

var (
	_ Publisher = (*Broker)(nil)
	_ Publisher = (*RedisPublisher)(nil)
)

// RedisPublisher publishes events onto a Redis channel. The worker uses it so
// its lifecycle events reach the API process, which relays them to websocket
// clients via Relay.
type RedisPublisher struct {
	rdb redis.UniversalClient
}

func NewRedisPublisher(rdb redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(topic string, event JobEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("failed to encode job event")
		return
	}
	// Delivery is best-effort, same as the in-process broker.
	if err := p.rdb.Publish(context.Background(), channelFor(topic), payload).Err(); err != nil {
		log.Debug().Err(err).Str("topic", topic).Msg("failed to publish job event")
	}
}

// Relay subscribes to a topic's Redis channel and republishes every event
// into the local broker, so subscribers in this process see events emitted by
// other processes. Blocks until the context is cancelled.
func Relay(ctx context.Context, rdb redis.UniversalClient, topic string, local *Broker) {
	sub := rdb.Subscribe(ctx, channelFor(topic))
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			relayMessage(local, topic, []byte(msg.Payload))
		}
	}
}

func relayMessage(local *Broker, topic string, payload []byte) {
	var event JobEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("dropping malformed job event")
		return
	}
	local.Publish(topic, event)
}

func channelFor(topic string) string {
	return "events:" + topic
}
