package item

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    Status
		wantErr bool
	}{
		{input: "DEFINED", want: StatusDefined},
		{input: "in_progress", want: StatusInProgress},
		{input: "in-progress", want: StatusInProgress},
		{input: " to be defined ", want: StatusToBeDefined},
		{input: "Released", want: StatusReleased},
		{input: "closed", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllStatuses(t *testing.T) {
	all := AllStatuses()
	require.Len(t, all, 6)
	assert.Equal(t, StatusToBeDefined, all[0])
	assert.Equal(t, StatusReleased, all[len(all)-1])

	// Mutating the copy must not leak into the package order.
	all[0] = "BOGUS"
	assert.Equal(t, StatusToBeDefined, AllStatuses()[0])
}

func TestStatus_AtLeast(t *testing.T) {
	assert.True(t, StatusDone.AtLeast(StatusDone))
	assert.True(t, StatusApproved.AtLeast(StatusDone))
	assert.True(t, StatusInProgress.AtLeast(StatusDefined))
	assert.False(t, StatusDefined.AtLeast(StatusInProgress))
	assert.False(t, Status("BOGUS").AtLeast(StatusToBeDefined))
}

func TestWorkItemVariants(t *testing.T) {
	project := &Project{ID: 1, Name: "apollo"}

	epic := &Epic{Header: Header{ID: 10, Status: StatusDefined, Project: project}}
	story := &Story{Header: Header{ID: 20, Project: project}}
	task := &Task{Header: Header{ID: 30, Project: project}, Story: story}
	story.Tasks = []*Task{task}

	items := []WorkItem{epic, story, task}
	kinds := []Kind{KindEpic, KindStory, KindTask}
	for i, it := range items {
		assert.Equal(t, kinds[i], it.Kind())
		assert.Same(t, project, it.Head().Project)
	}

	assert.True(t, story.HasTasks())
	assert.False(t, story.Assigned())
	assert.True(t, task.IsSubtask())

	epic.Head().Status = StatusDone
	assert.Equal(t, StatusDone, epic.Status)
}

func TestKind_IsValid(t *testing.T) {
	assert.True(t, KindEpic.IsValid())
	assert.True(t, KindStory.IsValid())
	assert.True(t, KindTask.IsValid())
	assert.False(t, Kind("bug").IsValid())
}
