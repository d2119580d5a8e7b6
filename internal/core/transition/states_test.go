package transition

import (
	"context"
	"testing"

	"github.com/colonyops/taskmanager/internal/core/eventbus"
	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStates(t *testing.T) (States, *callLog) {
	t.Helper()
	log := &callLog{}
	states, err := NewStates(fakeStoryProgress{log: log}, fakeEvents{log: log})
	require.NoError(t, err)
	return states, log
}

func TestStates_TotalOverStatuses(t *testing.T) {
	states, _ := newTestStates(t)

	for _, status := range item.AllStatuses() {
		h, err := states.Get(status)
		require.NoError(t, err, "status %s", status)
		assert.NotNil(t, h, "status %s", status)
	}
	assert.Equal(t, len(item.AllStatuses()), states.Len())
}

func TestStates_GetUnknownStatus(t *testing.T) {
	states, _ := newTestStates(t)

	_, err := states.Get("ARCHIVED")

	require.ErrorIs(t, err, ErrMissingStatusHandler)
	assert.Contains(t, err.Error(), "ARCHIVED")
}

func TestNewStates_RejectsPartialTable(t *testing.T) {
	noop := StateFunc(func(context.Context, item.WorkItem) error { return nil })

	handlers := map[item.Status]State{}
	for _, status := range item.AllStatuses() {
		handlers[status] = noop
	}
	_, err := newStates(handlers)
	require.NoError(t, err)

	delete(handlers, item.StatusApproved)
	_, err = newStates(handlers)
	require.ErrorIs(t, err, ErrMissingStatusHandler)
	assert.Contains(t, err.Error(), string(item.StatusApproved))

	handlers[item.StatusApproved] = nil
	_, err = newStates(handlers)
	require.ErrorIs(t, err, ErrMissingStatusHandler)
}

func TestStates_ToBeDefinedIsNoop(t *testing.T) {
	states, log := newTestStates(t)
	h, err := states.Get(item.StatusToBeDefined)
	require.NoError(t, err)

	for _, it := range []item.WorkItem{
		&item.Epic{Header: item.Header{ID: 1}},
		storyWithTasks(testProject(), item.StatusToBeDefined, item.StatusToBeDefined),
		&item.Task{Header: item.Header{ID: 3}},
	} {
		require.NoError(t, h.Process(context.Background(), it))
	}
	assert.Empty(t, log.ops())
}

func TestStates_Approved(t *testing.T) {
	ctx := context.Background()

	t.Run("story publishes story approved", func(t *testing.T) {
		states, log := newTestStates(t)
		h, _ := states.Get(item.StatusApproved)
		story := storyWithTasks(testProject(), item.StatusApproved, item.StatusApproved)

		require.NoError(t, h.Process(ctx, story))

		assert.Equal(t, []eventbus.Payload{eventbus.StoryApprovedPayload{StoryID: story.ID}}, log.published())
		assert.Zero(t, log.count(opPartialApprov))
	})

	t.Run("subtask attaches a partial approval", func(t *testing.T) {
		states, log := newTestStates(t)
		h, _ := states.Get(item.StatusApproved)
		story := storyWithTasks(testProject(), item.StatusDone, item.StatusApproved)
		task := story.Tasks[0]

		require.NoError(t, h.Process(ctx, task))

		assert.Equal(t, []string{opPartialApprov}, log.ops())
		args := log.args(opPartialApprov)[0]
		assert.Same(t, story, args[0])
		assert.Same(t, task, args[1])
	})

	t.Run("freestanding task publishes task approved", func(t *testing.T) {
		states, log := newTestStates(t)
		h, _ := states.Get(item.StatusApproved)
		task := &item.Task{Header: item.Header{ID: 77, Status: item.StatusApproved}}

		require.NoError(t, h.Process(ctx, task))

		assert.Equal(t, []eventbus.Payload{eventbus.TaskApprovedPayload{TaskID: 77}}, log.published())
	})

	t.Run("epic is a no-op", func(t *testing.T) {
		states, log := newTestStates(t)
		h, _ := states.Get(item.StatusApproved)

		require.NoError(t, h.Process(ctx, &item.Epic{Header: item.Header{ID: 1}}))

		assert.Empty(t, log.ops())
	})
}

func TestStates_Released(t *testing.T) {
	states, log := newTestStates(t)
	h, err := states.Get(item.StatusReleased)
	require.NoError(t, err)

	items := []item.WorkItem{
		&item.Epic{Header: item.Header{ID: 1}},
		&item.Story{Header: item.Header{ID: 2}},
		&item.Task{Header: item.Header{ID: 3}},
	}
	for _, it := range items {
		require.NoError(t, h.Process(context.Background(), it))
	}

	assert.Equal(t, []eventbus.Payload{
		eventbus.ItemReleasedPayload{ItemID: 1},
		eventbus.ItemReleasedPayload{ItemID: 2},
		eventbus.ItemReleasedPayload{ItemID: 3},
	}, log.published())
}
