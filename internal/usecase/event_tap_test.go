package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"TitaniumDesk/internal/domain/models"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
	closed bool
	fail   bool
}

func (p *recordingPublisher) Publish(_ context.Context, ev models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("sink down")
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func TestEventTapForwardsInOrder(t *testing.T) {
	up := newFakeUplink()
	pub := &recordingPublisher{}
	tap := NewEventTap(pub, 16, time.Second)
	tap.Attach(up)

	up.emit(models.StatusEvent(true))
	up.emit(models.TickerEvent(models.Ticker{Price: 1}))
	up.emit(models.LogEvent(models.LogEntry{ID: "1"}))

	if err := tap.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !pub.closed {
		t.Fatalf("publisher should be closed")
	}
	if len(pub.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(pub.events))
	}
	want := []models.EventType{models.EventSystemStatus, models.EventTicker, models.EventLog}
	for i, ev := range pub.events {
		if ev.Type != want[i] {
			t.Fatalf("event %d: got %s want %s", i, ev.Type, want[i])
		}
	}
	if up.bus.Len() != 0 {
		t.Fatalf("tap must unsubscribe on close")
	}

	up.emit(models.StatusEvent(false))
	if err := tap.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestEventTapSurvivesPublishErrors(t *testing.T) {
	up := newFakeUplink()
	pub := &recordingPublisher{fail: true}
	tap := NewEventTap(pub, 4, time.Second)
	tap.Attach(up)

	up.emit(models.StatusEvent(true))
	if err := tap.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("failed publishes must not be recorded")
	}
}
