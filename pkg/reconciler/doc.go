/*
Package reconciler is the change-log listener: it subscribes to
pkg/events.Broker and turns every event a sync pipeline publishes into
a structured log line and a syncd_events_published_total increment.

It is deliberately NOT the writer of the durable audit tables
(shared.product_changes, shared.price_history, agents.order_state_history)
— the products and prices pipelines write their change-log rows
synchronously via their Store interface, in the same call that decided
the row changed, before calling Deps.Publish; order_state_history is
written by repository.UpdateState, which no pipeline calls. The broker
is an in-memory, best-effort notification path layered on top of an
already-durable write, not a second path to that write. This matters
because the broker can drop events under subscriber backpressure
(pkg/events' non-blocking broadcast); the audit trail must not depend
on delivery succeeding.

# Architecture

	┌────────────────────────────────────────────────────────────┐
	│   pkg/sync pipeline: writes the audit row via Store, THEN  │
	│   calls Deps.Publish (best effort, may be dropped)          │
	└───────────────────────────┬──────────────────────────────--┘
	                            │ events.Broker.Publish
	                            ▼
	┌────────────────────────────────────────────────────────────┐
	│                       Listener                              │
	│  subscribes once, logs the event, increments a counter      │
	│  keyed by event type — never writes to the store             │
	└────────────────────────────────────────────────────────────┘

# Usage

	broker := events.NewBroker()
	broker.Start()

	listener := reconciler.NewListener(broker)
	listener.Start()
	defer listener.Stop()

# Design notes

Like the teacher's original reconciliation loop, the listener runs in
its own goroutine and drains until told to stop; unlike that loop, it
is edge-triggered off published events rather than polling on a ticker
— there is nothing to poll here, the six pipelines already know exactly
when a row changed.

A missed event here never loses data: the pipeline's own store write
already committed. A dropped or unobserved event only means one fewer
log line and one undercounted metric, never a missing audit row.

# See Also

  - pkg/events for the broker this subscribes to
  - pkg/sync for the six publishers and the Store interfaces that own
    the actual audit-table writes
*/
package reconciler
