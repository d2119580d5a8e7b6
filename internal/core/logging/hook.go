package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts item_id and status from context and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if id, ok := GetItemID(ctx); ok {
		e.Int64("item_id", int64(id))
	}

	if status := GetStatus(ctx); status != "" {
		e.Str("status", string(status))
	}
}
