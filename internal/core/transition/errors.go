package transition

import (
	"errors"
	"fmt"

	"github.com/colonyops/taskmanager/internal/core/item"
)

var (
	// ErrUnsupportedItemType is returned when an item that needs kind-specific
	// handling is not an epic, story or task.
	ErrUnsupportedItemType = errors.New("unsupported work item type")

	// ErrMissingStatusHandler is returned when the status table has no entry
	// for a status. The table must be total; this is a programming defect.
	ErrMissingStatusHandler = errors.New("missing status handler")
)

// UnsupportedItemTypeError reports which item could not be handled.
type UnsupportedItemTypeError struct {
	Kind   item.Kind
	ID     item.ID
	Status item.Status
}

func (e *UnsupportedItemTypeError) Error() string {
	return fmt.Sprintf("%s: kind %q (id %d) at status %s", ErrUnsupportedItemType, e.Kind, e.ID, e.Status)
}

func (e *UnsupportedItemTypeError) Unwrap() error {
	return ErrUnsupportedItemType
}

func unsupported(it item.WorkItem) error {
	h := it.Head()
	return &UnsupportedItemTypeError{Kind: it.Kind(), ID: h.ID, Status: h.Status}
}
