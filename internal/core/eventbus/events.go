// Package eventbus provides the domain events emitted by status transitions
// and a typed publish/subscribe bus that fans them out in-process.
package eventbus

import "github.com/colonyops/taskmanager/internal/core/item"

// Event names a domain event type.
type Event string

// Keep list sorted A-Z.
const (
	EventEpicReadyToPrioritize Event = "epic.ready-to-prioritize"
	EventItemReleased          Event = "item.released"
	EventStoryApproved         Event = "story.approved"
	EventStoryDone             Event = "story.done"
	EventTaskApproved          Event = "task.approved"
)

// Payload is implemented by every domain event. Payloads carry identifiers
// only; subscribers re-fetch whatever else they need.
type Payload interface {
	Event() Event
}

// Events lists every event type with a zero payload, keyed by name.
var Events = map[Event]Payload{
	EventEpicReadyToPrioritize: EpicReadyToPrioritizePayload{},
	EventItemReleased:          ItemReleasedPayload{},
	EventStoryApproved:         StoryApprovedPayload{},
	EventStoryDone:             StoryDonePayload{},
	EventTaskApproved:          TaskApprovedPayload{},
}

// EpicReadyToPrioritizePayload is emitted when an epic becomes defined and
// lands on top of the project backlog.
type EpicReadyToPrioritizePayload struct {
	EpicID item.ID `json:"epic_id"`
}

func (EpicReadyToPrioritizePayload) Event() Event { return EventEpicReadyToPrioritize }

// StoryDonePayload is emitted when a story reaches DONE, either directly or
// through the completion of its last task.
type StoryDonePayload struct {
	StoryID item.ID `json:"story_id"`
}

func (StoryDonePayload) Event() Event { return EventStoryDone }

// StoryApprovedPayload is emitted when a story is approved.
type StoryApprovedPayload struct {
	StoryID item.ID `json:"story_id"`
}

func (StoryApprovedPayload) Event() Event { return EventStoryApproved }

// TaskApprovedPayload is emitted when a freestanding task is approved.
type TaskApprovedPayload struct {
	TaskID item.ID `json:"task_id"`
}

func (TaskApprovedPayload) Event() Event { return EventTaskApproved }

// ItemReleasedPayload is emitted when any work item is released.
type ItemReleasedPayload struct {
	ItemID item.ID `json:"item_id"`
}

func (ItemReleasedPayload) Event() Event { return EventItemReleased }
