/*
Package events provides an in-memory pub/sub broker used to fan reconciliation
outcomes out to whoever needs to react to them — today, only
pkg/reconciler's change-log listener, but the broker itself knows nothing
about that consumer.

# Architecture

	┌──────────────────── EVENT BROKER ────────────────────────┐
	│                                                            │
	│  Publisher (pkg/sync pipelines)                           │
	│       │                                                    │
	│       ▼                                                    │
	│  Event Channel (buffer: 100)                               │
	│       │                                                    │
	│       ▼                                                    │
	│  Broadcast Loop                                            │
	│       │                                                    │
	│       ▼                                                    │
	│  Subscriber Channels (buffer: 50 each)                      │
	│       │                                                    │
	│       ▼                                                    │
	│  pkg/reconciler's change-log listener                      │
	└────────────────────────────────────────────────────────────┘

# Core Components

Event Broker:
  - Central message bus for event distribution
  - Manages subscriber lifecycle
  - Buffered publish (100 events); Publish blocks while the buffer is
    full, until the broadcast loop drains it or the broker is stopped
  - Graceful shutdown via stop channel

Event:
  - ID: unique event identifier
  - Type: customer.created, order.state_moved, price.increased, ...
  - Timestamp: when the event occurred
  - Message: human-readable description
  - Metadata: identifying fields plus syncSessionId

Subscriber:
  - Channel that receives Event pointers
  - Buffered (50 events) to handle bursts
  - Created via broker.Subscribe()
  - Closed via broker.Unsubscribe()

# Event Flow

Publish Flow:
 1. A sync pipeline calls broker.Publish(event) after a successful write
 2. Event added to main event channel (waits while it is full)
 3. Broadcast loop receives event
 4. Event sent to all subscriber channels
 5. Subscribers receive asynchronously; full buffers skip (no blocking)

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for event := range sub {
			fmt.Printf("[%s] %s: %s\n", event.Timestamp.Format(time.RFC3339), event.Type, event.Message)
		}
	}()

	broker.Publish(&events.Event{
		Type:    events.EventPriceIncreased,
		Message: "unit price raised for product sku-0042",
		Metadata: map[string]string{
			"productId":     "sku-0042",
			"syncSessionId": sessionID,
		},
	})

# Event Types Catalog

Customer events (customer.created/updated) carry customerProfile and
userId. Order events (order.created/updated/state_moved) carry orderId
and userId; order.state_moved additionally carries oldState and
newState. customer.deleted and order.deleted carry userId and the count
of pruned rows instead of a single id. Product events (product.created/updated/deleted/restored)
carry productId only — products are shared, not tenant-scoped. Price
events (price.created/increased/decreased) carry productId and the
computed percentageChange when available.

# Design Patterns

Buffered publish, fan-out to every subscriber, fire-and-forget
delivery, graceful shutdown via a stop channel closing the broadcast
loop. These trade guaranteed delivery for throughput and simplicity —
acceptable here because the pipeline has already written the changed
row (and, for products and prices, its shared.product_changes /
shared.price_history row) before publishing; the broker is a
notification path on top of that record, not the record itself.

# Limitations

In-memory only, no persistence, no replay, no guaranteed delivery, no
per-type filtering at the broker (subscribers filter on event.Type
themselves). A slow or absent subscriber never blocks a sync pipeline.

# See Also

  - pkg/reconciler for the change-log listener that currently subscribes
  - pkg/sync for the pipelines that publish
*/
package events
