package usecase

import (
	"context"
	"sync"
	"time"

	"TitaniumDesk/internal/domain/models"
	drepo "TitaniumDesk/internal/domain/repository"
	"TitaniumDesk/pkg/logger"
	"TitaniumDesk/pkg/metrics"
)

// EventTap copies every inbound uplink event to an external publisher.
// Publishing happens on its own goroutine so a slow sink never stalls the
// uplink read loop; when the buffer is full the event is dropped and counted.
type EventTap struct {
	pub     drepo.EventPublisher
	timeout time.Duration
	log     *logger.Logger
	metrics drepo.Metrics

	mu     sync.Mutex
	closed bool
	queue  chan models.Event
	unsub  func()
	wg     sync.WaitGroup
}

type EventTapOption func(*EventTap)

func WithTapLogger(l *logger.Logger) EventTapOption {
	return func(t *EventTap) { t.log = l }
}

func WithTapMetrics(m drepo.Metrics) EventTapOption {
	return func(t *EventTap) { t.metrics = m }
}

func NewEventTap(pub drepo.EventPublisher, buffer int, timeout time.Duration, opts ...EventTapOption) *EventTap {
	if buffer <= 0 {
		buffer = 256
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	t := &EventTap{
		pub:     pub,
		timeout: timeout,
		log:     logger.Nop(),
		metrics: metrics.Nop{},
		queue:   make(chan models.Event, buffer),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.With(logger.Component("event_tap"))
	return t
}

// Attach subscribes to up and starts the publish worker. Call once.
func (t *EventTap) Attach(up drepo.Uplink) {
	t.wg.Add(1)
	go t.run()
	unsub := up.Subscribe(t.enqueue)

	t.mu.Lock()
	t.unsub = unsub
	t.mu.Unlock()
}

func (t *EventTap) enqueue(ev models.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.queue <- ev:
	default:
		t.metrics.RecordError("tap_dropped")
	}
}

func (t *EventTap) run() {
	defer t.wg.Done()
	for ev := range t.queue {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		err := t.pub.Publish(ctx, ev)
		cancel()
		if err != nil {
			t.metrics.RecordError("tap_publish")
			t.log.Warn("publish failed", logger.String("type", string(ev.Type)), logger.Error(err))
			continue
		}
		t.metrics.RecordEvent(string(ev.Type), "tap")
	}
}

// Close unsubscribes, drains the buffer and closes the publisher.
func (t *EventTap) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	unsub := t.unsub
	t.unsub = nil
	close(t.queue)
	t.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	t.wg.Wait()
	return t.pub.Close()
}
