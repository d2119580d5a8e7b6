// Package backlog defines ordered work-item queues scoped to a project or a sprint.
package backlog

import (
	"context"
	"time"

	"github.com/colonyops/taskmanager/internal/core/item"
)

// Scope is the owner of a backlog.
type Scope string

const (
	ScopeProject Scope = "project"
	ScopeSprint  Scope = "sprint"
)

// Lane partitions a backlog.
type Lane string

const (
	// LaneReady holds items ready for development.
	LaneReady Lane = "ready"
	// LanePrioritized holds epics ordered by priority.
	LanePrioritized Lane = "prioritized"
)

// Entry is a work item's place in a backlog lane.
type Entry struct {
	Scope     Scope     `json:"scope"`
	ScopeID   item.ID   `json:"scope_id"`
	Lane      Lane      `json:"lane"`
	ItemID    item.ID   `json:"item_id"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Store defines the interface for backlog persistence.
type Store interface {
	// Add appends the item to the end of the lane. Adding an item already in
	// the lane leaves its position unchanged and returns the existing entry.
	Add(ctx context.Context, scope Scope, scopeID item.ID, lane Lane, itemID item.ID) (Entry, error)

	// PutOnTop moves the item to position 0 of the lane, shifting every other
	// entry down by one. The item is added when not already present.
	PutOnTop(ctx context.Context, scope Scope, scopeID item.ID, lane Lane, itemID item.ID) (Entry, error)

	// List returns the entries of a backlog ordered by lane then position.
	List(ctx context.Context, scope Scope, scopeID item.ID) ([]Entry, error)
}
