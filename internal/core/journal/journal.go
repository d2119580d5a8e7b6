// Package journal defines the durable log of published domain events.
package journal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/colonyops/taskmanager/internal/core/eventbus"
)

// Record is one journaled event.
type Record struct {
	ID        string          `json:"id"`
	Name      eventbus.Event  `json:"name"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// ListFilter controls which records are returned by List.
type ListFilter struct {
	Name  eventbus.Event // empty means all events
	Limit int            // zero means no limit
}

// Store defines the interface for event journal persistence.
type Store interface {
	// Append persists a record. Returns an error if the ID already exists.
	Append(ctx context.Context, r Record) error

	// List returns records matching the filter, oldest first.
	List(ctx context.Context, filter ListFilter) ([]Record, error)
}
