package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/colonyops/taskmanager/internal/core/backlog"
	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/colonyops/taskmanager/internal/data/db"
)

// BacklogStore implements backlog.Store using SQLite.
type BacklogStore struct {
	db *db.DB
}

var _ backlog.Store = (*BacklogStore)(nil)

// NewBacklogStore creates a new SQLite-backed backlog store.
func NewBacklogStore(db *db.DB) *BacklogStore {
	return &BacklogStore{db: db}
}

// Add appends the item to the end of the lane unless it is already there.
func (s *BacklogStore) Add(ctx context.Context, scope backlog.Scope, scopeID item.ID, lane backlog.Lane, itemID item.ID) (backlog.Entry, error) {
	var entry backlog.Entry
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		existing, err := getEntry(ctx, tx, scope, scopeID, lane, itemID)
		if err == nil {
			entry = existing
			return nil
		}
		if !IsNotFoundError(err) {
			return fmt.Errorf("get backlog entry: %w", err)
		}

		var next int
		err = tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(position) + 1, 0) FROM backlog_entries
			WHERE scope = ? AND scope_id = ? AND lane = ?`,
			string(scope), int64(scopeID), string(lane),
		).Scan(&next)
		if err != nil {
			return fmt.Errorf("next backlog position: %w", err)
		}

		entry, err = insertEntry(ctx, tx, scope, scopeID, lane, itemID, next)
		return err
	})
	if err != nil {
		return backlog.Entry{}, err
	}
	return entry, nil
}

// PutOnTop moves the item to position 0 and renumbers the lane.
func (s *BacklogStore) PutOnTop(ctx context.Context, scope backlog.Scope, scopeID item.ID, lane backlog.Lane, itemID item.ID) (backlog.Entry, error) {
	var entry backlog.Entry
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM backlog_entries
			WHERE scope = ? AND scope_id = ? AND lane = ? AND item_id = ?`,
			string(scope), int64(scopeID), string(lane), int64(itemID),
		)
		if err != nil {
			return fmt.Errorf("remove backlog entry: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE backlog_entries SET position = position + 1
			WHERE scope = ? AND scope_id = ? AND lane = ?`,
			string(scope), int64(scopeID), string(lane),
		)
		if err != nil {
			return fmt.Errorf("shift backlog entries: %w", err)
		}

		entry, err = insertEntry(ctx, tx, scope, scopeID, lane, itemID, 0)
		if err != nil {
			return err
		}

		return renumber(ctx, tx, scope, scopeID, lane)
	})
	if err != nil {
		return backlog.Entry{}, err
	}
	return entry, nil
}

// List returns the entries of a backlog ordered by lane then position.
func (s *BacklogStore) List(ctx context.Context, scope backlog.Scope, scopeID item.ID) ([]backlog.Entry, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT scope, scope_id, lane, item_id, position, created_at
		FROM backlog_entries
		WHERE scope = ? AND scope_id = ?
		ORDER BY lane, position`,
		string(scope), int64(scopeID),
	)
	if err != nil {
		return nil, fmt.Errorf("list backlog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]backlog.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backlog entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list backlog: %w", err)
	}

	return entries, nil
}

func getEntry(ctx context.Context, q querier, scope backlog.Scope, scopeID item.ID, lane backlog.Lane, itemID item.ID) (backlog.Entry, error) {
	return scanEntry(q.QueryRowContext(ctx, `
		SELECT scope, scope_id, lane, item_id, position, created_at
		FROM backlog_entries
		WHERE scope = ? AND scope_id = ? AND lane = ? AND item_id = ?`,
		string(scope), int64(scopeID), string(lane), int64(itemID),
	))
}

func insertEntry(ctx context.Context, q querier, scope backlog.Scope, scopeID item.ID, lane backlog.Lane, itemID item.ID, position int) (backlog.Entry, error) {
	now := time.Now()
	_, err := q.ExecContext(ctx, `
		INSERT INTO backlog_entries (scope, scope_id, lane, item_id, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(scope), int64(scopeID), string(lane), int64(itemID), position, now.UnixNano(),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return backlog.Entry{}, fmt.Errorf("work item %d: %w", itemID, item.ErrNotFound)
		}
		return backlog.Entry{}, fmt.Errorf("insert backlog entry: %w", err)
	}

	return backlog.Entry{
		Scope:     scope,
		ScopeID:   scopeID,
		Lane:      lane,
		ItemID:    itemID,
		Position:  position,
		CreatedAt: time.Unix(0, now.UnixNano()),
	}, nil
}

// renumber rewrites lane positions as 0..n-1 in their current order.
func renumber(ctx context.Context, q querier, scope backlog.Scope, scopeID item.ID, lane backlog.Lane) error {
	rows, err := q.QueryContext(ctx, `
		SELECT item_id FROM backlog_entries
		WHERE scope = ? AND scope_id = ? AND lane = ?
		ORDER BY position`,
		string(scope), int64(scopeID), string(lane),
	)
	if err != nil {
		return fmt.Errorf("renumber backlog: %w", err)
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return fmt.Errorf("renumber backlog: %w", err)
		}
		ids = append(ids, id)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("renumber backlog: %w", err)
	}

	for pos, id := range ids {
		_, err := q.ExecContext(ctx, `
			UPDATE backlog_entries SET position = ?
			WHERE scope = ? AND scope_id = ? AND lane = ? AND item_id = ?`,
			pos, string(scope), int64(scopeID), string(lane), id,
		)
		if err != nil {
			return fmt.Errorf("renumber backlog: %w", err)
		}
	}
	return nil
}

func scanEntry(sc scanner) (backlog.Entry, error) {
	var (
		e         backlog.Entry
		scope     string
		scopeID   int64
		lane      string
		itemID    int64
		createdAt int64
	)
	if err := sc.Scan(&scope, &scopeID, &lane, &itemID, &e.Position, &createdAt); err != nil {
		return backlog.Entry{}, err
	}
	e.Scope = backlog.Scope(scope)
	e.ScopeID = item.ID(scopeID)
	e.Lane = backlog.Lane(lane)
	e.ItemID = item.ID(itemID)
	e.CreatedAt = time.Unix(0, createdAt)
	return e, nil
}
