package transition

import (
	"context"
	"fmt"

	"github.com/colonyops/taskmanager/internal/core/eventbus"
	"github.com/colonyops/taskmanager/internal/core/item"
)

// State handles a work item that has entered a particular status.
type State interface {
	Process(ctx context.Context, it item.WorkItem) error
}

// StateFunc adapts a function to the State interface.
type StateFunc func(ctx context.Context, it item.WorkItem) error

func (f StateFunc) Process(ctx context.Context, it item.WorkItem) error {
	return f(ctx, it)
}

// States is an immutable status -> handler table.
type States struct {
	byStatus map[item.Status]State
}

// NewStates builds the generic handlers bound to their collaborators.
// Every declared status gets an entry; DEFINED, IN_PROGRESS and DONE are
// handled by the Processor itself and map to no-op handlers here.
func NewStates(progress StoryProgress, events EventRegistry) (States, error) {
	return newStates(map[item.Status]State{
		item.StatusToBeDefined: noopState{},
		item.StatusDefined:     noopState{},
		item.StatusInProgress:  noopState{},
		item.StatusDone:        noopState{},
		item.StatusApproved:    approvedState{progress: progress, events: events},
		item.StatusReleased:    releasedState{events: events},
	})
}

func newStates(handlers map[item.Status]State) (States, error) {
	byStatus := make(map[item.Status]State, len(handlers))
	for _, status := range item.AllStatuses() {
		h, ok := handlers[status]
		if !ok || h == nil {
			return States{}, fmt.Errorf("%w: %s", ErrMissingStatusHandler, status)
		}
		byStatus[status] = h
	}
	return States{byStatus: byStatus}, nil
}

// Get returns the handler for status.
func (s States) Get(status item.Status) (State, error) {
	h, ok := s.byStatus[status]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingStatusHandler, status)
	}
	return h, nil
}

// Len returns the number of statuses covered.
func (s States) Len() int {
	return len(s.byStatus)
}

type noopState struct{}

func (noopState) Process(context.Context, item.WorkItem) error { return nil }

// approvedState records partial approvals for subtasks and announces
// approval of stories and freestanding tasks.
type approvedState struct {
	progress StoryProgress
	events   EventRegistry
}

func (s approvedState) Process(ctx context.Context, it item.WorkItem) error {
	if story, ok := as[*item.Story](it, item.KindStory); ok {
		return s.events.Publish(ctx, eventbus.StoryApprovedPayload{StoryID: story.ID})
	}

	if task, ok := as[*item.Task](it, item.KindTask); ok {
		if task.IsSubtask() {
			return s.progress.AttachPartialApproval(ctx, task.Story, task)
		}
		return s.events.Publish(ctx, eventbus.TaskApprovedPayload{TaskID: task.ID})
	}

	return nil
}

// releasedState announces the release of any item.
type releasedState struct {
	events EventRegistry
}

func (s releasedState) Process(ctx context.Context, it item.WorkItem) error {
	return s.events.Publish(ctx, eventbus.ItemReleasedPayload{ItemID: it.Head().ID})
}
