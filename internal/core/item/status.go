package item

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStatus is returned when a status string is not part of the lifecycle.
var ErrUnknownStatus = errors.New("unknown status")

// Status represents the lifecycle state of a work item.
type Status string

const (
	StatusToBeDefined Status = "TO_BE_DEFINED"
	StatusDefined     Status = "DEFINED"
	StatusInProgress  Status = "IN_PROGRESS"
	StatusDone        Status = "DONE"
	StatusApproved    Status = "APPROVED"
	StatusReleased    Status = "RELEASED"
)

// statuses is ordered by lifecycle position.
var statuses = []Status{
	StatusToBeDefined,
	StatusDefined,
	StatusInProgress,
	StatusDone,
	StatusApproved,
	StatusReleased,
}

// AllStatuses returns every declared status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

// IsValid reports whether s is a declared status.
func (s Status) IsValid() bool {
	return s.rank() >= 0
}

// AtLeast reports whether s is at or beyond other in the lifecycle.
// Unknown statuses are never at least anything.
func (s Status) AtLeast(other Status) bool {
	r := s.rank()
	return r >= 0 && r >= other.rank()
}

func (s Status) rank() int {
	for i, st := range statuses {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus converts user input into a Status. Matching is case-insensitive
// and accepts dashes or spaces in place of underscores.
func ParseStatus(raw string) (Status, error) {
	norm := strings.ToUpper(strings.TrimSpace(raw))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)

	s := Status(norm)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return s, nil
}
