// Package notify defines the notification outbox: records of who must be
// told about a work item. Delivery is out of scope.
package notify

import (
	"context"
	"time"

	"github.com/colonyops/taskmanager/internal/core/item"
)

// Channel is the kind of recipient a notification is addressed to.
type Channel string

const (
	ChannelTeam   Channel = "team"
	ChannelPerson Channel = "person"
)

// Notification is a single outbox entry.
type Notification struct {
	ID        int64     `json:"id"`
	ItemID    item.ID   `json:"item_id"`
	Channel   Channel   `json:"channel"`
	Recipient string    `json:"recipient"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists notifications to durable storage.
type Store interface {
	Save(ctx context.Context, n Notification) (int64, error)
	List(ctx context.Context) ([]Notification, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}
