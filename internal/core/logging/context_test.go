package logging

import (
	"context"
	"testing"

	"github.com/colonyops/taskmanager/internal/core/item"
)

func TestWithItemID(t *testing.T) {
	ctx := WithItemID(context.Background(), 42)

	got, ok := GetItemID(ctx)
	if !ok || got != 42 {
		t.Errorf("GetItemID() = %d, %v, want 42, true", got, ok)
	}
}

func TestWithStatus(t *testing.T) {
	ctx := WithStatus(context.Background(), item.StatusDone)

	if got := GetStatus(ctx); got != item.StatusDone {
		t.Errorf("GetStatus() = %q, want %q", got, item.StatusDone)
	}
}

func TestGetItemID_NotPresent(t *testing.T) {
	if _, ok := GetItemID(context.Background()); ok {
		t.Error("GetItemID() ok = true, want false")
	}
}

func TestGetStatus_NotPresent(t *testing.T) {
	if got := GetStatus(context.Background()); got != "" {
		t.Errorf("GetStatus() = %q, want empty string", got)
	}
}

func TestItemIDZeroIsPresent(t *testing.T) {
	ctx := WithItemID(context.Background(), 0)

	if _, ok := GetItemID(ctx); !ok {
		t.Error("GetItemID() ok = false, want true for explicit zero ID")
	}
}
