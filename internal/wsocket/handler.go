package wsocket

import (
	"net/http"
	"time"

	"arxiv_pulse_go_backend/internal/jobs"
	"arxiv_pulse_go_backend/internal/utils/broker"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// Handler streams job lifecycle events to admin websocket clients.
type Handler struct {
	events   *broker.Broker
	upgrader websocket.Upgrader
}

func NewHandler(events *broker.Broker, upgrader websocket.Upgrader) *Handler {
	return &Handler{events: events, upgrader: upgrader}
}

func (h *Handler) HandleJobStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	events := h.events.Subscribe(jobs.TopicJobs)
	defer h.events.Unsubscribe(jobs.TopicJobs, events)

	// Reader goroutine: its only job is noticing the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				log.Debug().Err(err).Msg("websocket write failed, dropping client")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
