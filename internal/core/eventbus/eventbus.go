package eventbus

import (
	"context"
	"sync"
)

type envelope struct {
	event   Event
	payload any
}

// EventBus is a buffered, single-dispatcher pub/sub bus. Publish never
// blocks: when the buffer is full the event is dropped and OnDrop hooks fire.
type EventBus struct {
	ch    chan envelope
	hooks hooks

	mu   sync.RWMutex
	subs map[Event][]func(any)
}

// New creates a bus with the given buffer size. Call Start to begin dispatching.
func New(buffer int) *EventBus {
	if buffer < 1 {
		buffer = 1
	}
	return &EventBus{
		ch:   make(chan envelope, buffer),
		subs: make(map[Event][]func(any)),
	}
}

// Start dispatches queued events to subscribers until ctx is cancelled.
// Subscribers run sequentially on the dispatcher goroutine.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-bus.ch:
			bus.dispatch(env)
		}
	}
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	subs := make([]func(any), len(bus.subs[env.event]))
	copy(subs, bus.subs[env.event])
	bus.mu.RUnlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					bus.runOnPanic(env.event, env.payload, r)
				}
			}()
			fn(env.payload)
		}()
	}
}

func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], fn)
	bus.mu.Unlock()
	bus.runOnSubscribe(event)
}

// Publish enqueues a domain event under the name its payload reports.
func (bus *EventBus) Publish(p Payload) {
	bus.send(p.Event(), p)
}

// SubscribeEpicReadyToPrioritize registers fn for epic.ready-to-prioritize events.
func (bus *EventBus) SubscribeEpicReadyToPrioritize(fn func(EpicReadyToPrioritizePayload)) {
	bus.subscribe(EventEpicReadyToPrioritize, func(p any) { fn(p.(EpicReadyToPrioritizePayload)) })
}

// SubscribeStoryDone registers fn for story.done events.
func (bus *EventBus) SubscribeStoryDone(fn func(StoryDonePayload)) {
	bus.subscribe(EventStoryDone, func(p any) { fn(p.(StoryDonePayload)) })
}

// SubscribeStoryApproved registers fn for story.approved events.
func (bus *EventBus) SubscribeStoryApproved(fn func(StoryApprovedPayload)) {
	bus.subscribe(EventStoryApproved, func(p any) { fn(p.(StoryApprovedPayload)) })
}

// SubscribeTaskApproved registers fn for task.approved events.
func (bus *EventBus) SubscribeTaskApproved(fn func(TaskApprovedPayload)) {
	bus.subscribe(EventTaskApproved, func(p any) { fn(p.(TaskApprovedPayload)) })
}

// SubscribeItemReleased registers fn for item.released events.
func (bus *EventBus) SubscribeItemReleased(fn func(ItemReleasedPayload)) {
	bus.subscribe(EventItemReleased, func(p any) { fn(p.(ItemReleasedPayload)) })
}
