package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/taskmanager/internal/core/eventbus"
	"github.com/colonyops/taskmanager/internal/core/journal"
	"github.com/colonyops/taskmanager/internal/data/db"
)

// JournalStore implements journal.Store using SQLite.
type JournalStore struct {
	db *db.DB
}

var _ journal.Store = (*JournalStore)(nil)

// NewJournalStore creates a new SQLite-backed event journal.
func NewJournalStore(db *db.DB) *JournalStore {
	return &JournalStore{db: db}
}

// Append persists a record.
func (s *JournalStore) Append(ctx context.Context, r journal.Record) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	_, err := s.db.Conn().ExecContext(ctx,
		"INSERT INTO events (id, name, payload, created_at) VALUES (?, ?, ?, ?)",
		r.ID, string(r.Name), string(r.Payload), r.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("append event %s: duplicate id", r.ID)
		}
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// List returns records matching the filter, oldest first.
func (s *JournalStore) List(ctx context.Context, filter journal.ListFilter) ([]journal.Record, error) {
	query := "SELECT id, name, payload, created_at FROM events"
	var args []any
	if filter.Name != "" {
		query += " WHERE name = ?"
		args = append(args, string(filter.Name))
	}
	query += " ORDER BY created_at, rowid"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]journal.Record, 0)
	for rows.Next() {
		var (
			r         journal.Record
			name      string
			payload   string
			createdAt int64
		)
		if err := rows.Scan(&r.ID, &name, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		r.Name = eventbus.Event(name)
		r.Payload = []byte(payload)
		r.CreatedAt = time.Unix(0, createdAt)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	return records, nil
}
