package realtime

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func natsURL() string {
	if url := os.Getenv("NATS_URL"); url != "" {
		return url
	}
	return nats.DefaultURL
}

func TestNatsBrokerRoundTrip(t *testing.T) {
	probe, err := nats.Connect(natsURL(), nats.Timeout(time.Second))
	if err != nil {
		t.Skipf("NATS not available at %s: %v", natsURL(), err)
	}
	probe.Close()

	b, err := NewNatsBroker(natsURL(), "nebula-test")
	require.NoError(t, err)
	defer b.Close()

	received := make(chan Event, 1)
	sub, err := b.Subscribe(MessagesTopic("41231"), func(e Event) { received <- e })
	require.NoError(t, err)
	defer sub.Unsubscribe()
	require.NoError(t, b.Flush())

	ev, err := NewEvent(EventMessageCreated, "41231", map[string]string{"id": "m1"}, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, PublishEvent(context.Background(), b, ev))

	select {
	case got := <-received:
		assert.Equal(t, EventMessageCreated, got.Type)
		assert.Equal(t, "41231", got.RoomID)
		assert.JSONEq(t, `{"id":"m1"}`, string(got.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}
