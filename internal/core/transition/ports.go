// Package transition reacts to work items entering a status. The Processor
// routes an item, by status and then by kind, to the side effects that must
// fire: backlog placement, team notification, story progress recomputation
// and domain event emission.
//
// The Processor never decides the new status; callers set it before calling
// ProcessFor. All collaborators are reached through the narrow ports below.
package transition

import (
	"context"

	"github.com/colonyops/taskmanager/internal/core/eventbus"
	"github.com/colonyops/taskmanager/internal/core/item"
)

// ProjectBacklog places stories and epics in a project's backlog.
type ProjectBacklog interface {
	// MoveToReadyForDevelopment places the story in the project's ready lane.
	// Placement is idempotent.
	MoveToReadyForDevelopment(ctx context.Context, story *item.Story, project *item.Project) error
	// PutOnTop moves the epic to the highest priority slot of its project backlog.
	PutOnTop(ctx context.Context, epic *item.Epic) error
}

// SprintBacklog places tasks in a sprint's backlog.
type SprintBacklog interface {
	MoveToReadyForDevelopment(ctx context.Context, task *item.Task, sprint *item.Sprint) error
}

// Communication triggers notifications. Delivery is the implementation's concern.
type Communication interface {
	NotifyTeamsAbout(ctx context.Context, story *item.Story, project *item.Project) error
	Notify(ctx context.Context, it item.WorkItem, person *item.Person) error
}

// StoryProgress recomputes and persists story state derived from its tasks.
// After a call the story's status may have changed.
type StoryProgress interface {
	UpdateProgressOf(ctx context.Context, story *item.Story, task *item.Task) error
	AttachPartialApproval(ctx context.Context, story *item.Story, task *item.Task) error
}

// EventRegistry publishes domain events. No acknowledgement is consumed.
type EventRegistry interface {
	Publish(ctx context.Context, event eventbus.Payload) error
}
