// Package testbus provides test utilities for the event bus.
// It wraps a real EventBus with event recording and assertion helpers.
package testbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/colonyops/taskmanager/internal/core/eventbus"
)

// RecordedEvent holds a captured event name and payload.
type RecordedEvent struct {
	Event   eventbus.Event
	Payload any
}

// Bus wraps a real EventBus with event recording for tests.
type Bus struct {
	*eventbus.EventBus
	cancel context.CancelFunc

	mu     sync.Mutex
	events []RecordedEvent
}

// New creates a test bus, starts it in a background goroutine, and
// subscribes to all event types for recording. The bus is stopped
// when the test completes.
func New(t *testing.T) *Bus {
	t.Helper()

	bus := eventbus.New(64)
	ctx, cancel := context.WithCancel(context.Background())

	tb := &Bus{
		EventBus: bus,
		cancel:   cancel,
	}

	bus.SubscribeEpicReadyToPrioritize(func(p eventbus.EpicReadyToPrioritizePayload) {
		tb.record(eventbus.EventEpicReadyToPrioritize, p)
	})
	bus.SubscribeStoryDone(func(p eventbus.StoryDonePayload) {
		tb.record(eventbus.EventStoryDone, p)
	})
	bus.SubscribeStoryApproved(func(p eventbus.StoryApprovedPayload) {
		tb.record(eventbus.EventStoryApproved, p)
	})
	bus.SubscribeTaskApproved(func(p eventbus.TaskApprovedPayload) {
		tb.record(eventbus.EventTaskApproved, p)
	})
	bus.SubscribeItemReleased(func(p eventbus.ItemReleasedPayload) {
		tb.record(eventbus.EventItemReleased, p)
	})

	go bus.Start(ctx)

	t.Cleanup(func() {
		cancel()
	})

	return tb
}

func (tb *Bus) record(event eventbus.Event, payload any) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.events = append(tb.events, RecordedEvent{Event: event, Payload: payload})
}

// Events returns a copy of all recorded events.
func (tb *Bus) Events() []RecordedEvent {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	out := make([]RecordedEvent, len(tb.events))
	copy(out, tb.events)
	return out
}

// Reset clears all recorded events.
func (tb *Bus) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.events = nil
}

// WaitFor blocks until an event of the given type is recorded or the timeout expires.
// Returns true if the event was found.
func (tb *Bus) WaitFor(event eventbus.Event, timeout time.Duration) bool {
	deadline := time.After(timeout)
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			return false
		case <-ticker.C:
			if tb.count(event) > 0 {
				return true
			}
		}
	}
}

func (tb *Bus) count(event eventbus.Event) int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	n := 0
	for _, e := range tb.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// AssertPublished asserts that an event of the given type was recorded.
func (tb *Bus) AssertPublished(t *testing.T, event eventbus.Event) {
	t.Helper()
	if !tb.WaitFor(event, 500*time.Millisecond) {
		t.Errorf("expected event %q to be published, but it was not", event)
	}
}

// AssertPublishedPayload waits for event and asserts the first recorded
// payload of that type equals want.
func (tb *Bus) AssertPublishedPayload(t *testing.T, want eventbus.Payload) {
	t.Helper()
	if !tb.WaitFor(want.Event(), 500*time.Millisecond) {
		t.Errorf("expected event %q to be published, but it was not", want.Event())
		return
	}
	for _, e := range tb.Events() {
		if e.Event != want.Event() {
			continue
		}
		if e.Payload != want {
			t.Errorf("event %q payload = %#v, want %#v", want.Event(), e.Payload, want)
		}
		return
	}
}

// AssertNotPublished asserts that an event of the given type was NOT recorded
// within the given wait period.
func (tb *Bus) AssertNotPublished(t *testing.T, event eventbus.Event, wait time.Duration) {
	t.Helper()
	time.Sleep(wait)
	if n := tb.count(event); n > 0 {
		t.Errorf("expected event %q to NOT be published, but it was (%d times)", event, n)
	}
}
