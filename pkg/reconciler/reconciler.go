package reconciler

import (
	"sync"

	"github.com/cuemby/syncd/pkg/events"
	"github.com/cuemby/syncd/pkg/log"
	"github.com/cuemby/syncd/pkg/metrics"
	"github.com/rs/zerolog"
)

// Listener subscribes to an events.Broker and turns every published
// change-log event into structured logging and a Prometheus counter
// increment. It never writes to shared.product_changes,
// shared.price_history, or agents.order_state_history itself — the
// products and prices pipelines write their change-log rows through
// their Store before publishing. This is a secondary,
// best-effort observability consumer, not the audit trail's writer.
type Listener struct {
	broker *events.Broker
	logger zerolog.Logger
	sub    events.Subscriber
	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewListener creates a change-log listener bound to broker. It does
// not subscribe until Start is called.
func NewListener(broker *events.Broker) *Listener {
	return &Listener{
		broker: broker,
		logger: log.WithComponent("reconciler"),
	}
}

// Start subscribes to the broker and begins draining events in its own
// goroutine.
func (l *Listener) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sub = l.broker.Subscribe()
	l.stopCh = make(chan struct{})
	l.doneCh = make(chan struct{})

	go l.run()
}

// Stop unsubscribes and waits for the drain goroutine to exit.
func (l *Listener) Stop() {
	l.mu.Lock()
	sub, stopCh, doneCh := l.sub, l.stopCh, l.doneCh
	l.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh
	l.broker.Unsubscribe(sub)
}

func (l *Listener) run() {
	defer close(l.doneCh)

	l.logger.Info().Msg("change-log listener started")
	defer l.logger.Info().Msg("change-log listener stopped")

	for {
		select {
		case evt, ok := <-l.sub:
			if !ok {
				return
			}
			l.observe(evt)
		case <-l.stopCh:
			return
		}
	}
}

// observe records one event: a log line at a level matching its
// severity, plus a counter increment keyed by event type. It never
// returns an error — there is nothing upstream to report failure to.
func (l *Listener) observe(evt *events.Event) {
	metrics.EventsPublishedTotal.WithLabelValues(string(evt.Type)).Inc()

	logEvt := l.logger.Info()
	switch evt.Type {
	case events.EventProductDeleted, events.EventOrderDeleted, events.EventCustomerDeleted:
		logEvt = l.logger.Warn()
	}

	logEvt.
		Str("event_id", evt.ID).
		Str("event_type", string(evt.Type)).
		Fields(metadataFields(evt.Metadata)).
		Msg(evt.Message)
}

func metadataFields(m map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
