package taskmanager

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/colonyops/taskmanager/internal/core/eventbus"
	"github.com/colonyops/taskmanager/internal/core/journal"
	"github.com/colonyops/taskmanager/internal/core/transition"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventRegistry journals domain events and fans them out on the event bus.
type EventRegistry struct {
	journal journal.Store
	bus     *eventbus.EventBus
	log     zerolog.Logger
	now     func() time.Time
}

var _ transition.EventRegistry = (*EventRegistry)(nil)

// NewEventRegistry creates a new EventRegistry.
func NewEventRegistry(store journal.Store, bus *eventbus.EventBus, log zerolog.Logger) *EventRegistry {
	return &EventRegistry{
		journal: store,
		bus:     bus,
		log:     log.With().Str("component", "event-registry").Logger(),
		now:     time.Now,
	}
}

// Publish journals the event and then publishes it on the bus. The event is
// not published when journaling fails.
func (r *EventRegistry) Publish(ctx context.Context, event eventbus.Payload) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.Event(), err)
	}

	rec := journal.Record{
		ID:        uuid.NewString(),
		Name:      event.Event(),
		Payload:   payload,
		CreatedAt: r.now(),
	}
	if err := r.journal.Append(ctx, rec); err != nil {
		return fmt.Errorf("journal %s: %w", event.Event(), err)
	}

	r.bus.Publish(event)

	r.log.Debug().Str("event_id", rec.ID).Str("event", string(rec.Name)).Msg("event published")
	return nil
}
