package reconciler

import (
	"testing"
	"time"

	"github.com/cuemby/syncd/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenerObservesPublishedEvents(t *testing.T) {
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	listener := NewListener(broker)
	listener.Start()
	defer listener.Stop()

	// Give the listener a moment to subscribe before publishing.
	require.Eventually(t, func() bool { return broker.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)

	broker.Publish(&events.Event{
		ID:       "evt-1",
		Type:     events.EventProductCreated,
		Message:  "product sku-1 created",
		Metadata: map[string]string{"productId": "sku-1"},
	})

	// The listener has no externally observable state beyond metrics and
	// logs; this test exercises the drain loop end to end without
	// panicking or blocking, which is what matters for a fire-and-forget
	// observability consumer.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, broker.SubscriberCount())
}

func TestListenerStopUnsubscribes(t *testing.T) {
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	listener := NewListener(broker)
	listener.Start()
	require.Eventually(t, func() bool { return broker.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)

	listener.Stop()
	assert.Equal(t, 0, broker.SubscriberCount())
}
