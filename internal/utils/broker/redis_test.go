package broker

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayMessageDeliversRemoteEvents(t *testing.T) {
	local := NewBroker()
	ch := local.Subscribe("jobs")

	event := JobEvent{
		Queue:      "summary",
		TaskID:     "summary:2401.12345",
		Stage:      StageCompleted,
		Subject:    "2401.12345",
		OccurredAt: time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	relayMessage(local, "jobs", payload)

	select {
	case got := <-ch:
		assert.Equal(t, event, got)
	default:
		t.Fatal("expected relayed event on local subscriber")
	}
}

func TestRelayMessageDropsMalformedPayloads(t *testing.T) {
	local := NewBroker()
	ch := local.Subscribe("jobs")

	relayMessage(local, "jobs", []byte("not json"))

	assert.Empty(t, ch)
}

func TestChannelForScopesTopic(t *testing.T) {
	assert.Equal(t, "events:jobs", channelFor("jobs"))
}
