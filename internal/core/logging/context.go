package logging

import (
	"context"

	"github.com/colonyops/taskmanager/internal/core/item"
)

type contextKey string

const (
	itemIDKey contextKey = "item_id"
	statusKey contextKey = "status"
)

// WithItemID adds a work item ID to the context.
func WithItemID(ctx context.Context, id item.ID) context.Context {
	return context.WithValue(ctx, itemIDKey, id)
}

// WithStatus adds the status being transitioned to the context.
func WithStatus(ctx context.Context, status item.Status) context.Context {
	return context.WithValue(ctx, statusKey, status)
}

// GetItemID retrieves the work item ID from the context.
// The second return value is false if not present.
func GetItemID(ctx context.Context) (item.ID, bool) {
	id, ok := ctx.Value(itemIDKey).(item.ID)
	return id, ok
}

// GetStatus retrieves the status from the context.
// Returns empty string if not present.
func GetStatus(ctx context.Context) item.Status {
	if s, ok := ctx.Value(statusKey).(item.Status); ok {
		return s
	}
	return ""
}
