package logging

import (
	"context"

	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// WithItem tags ctx with the item's ID and current status so log events
// emitted with .Ctx(ctx) carry both through ContextHook.
func WithItem(ctx context.Context, it item.WorkItem) context.Context {
	h := it.Head()
	return WithStatus(WithItemID(ctx, h.ID), h.Status)
}
