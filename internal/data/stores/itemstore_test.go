package stores

import (
	"context"
	"testing"

	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/colonyops/taskmanager/internal/data/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func createTestProject(t *testing.T, store *ItemStore) *item.Project {
	t.Helper()
	project := &item.Project{
		Name:         "shield",
		ProductOwner: &item.Person{Name: "Nick Fury", Email: "nick.fury@shield.marvel.com"},
		Teams:        []item.Team{{Name: "avengers"}, {Name: "agents"}},
	}
	require.NoError(t, store.CreateProject(context.Background(), project))
	return project
}

func TestItemStore_Projects(t *testing.T) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		store := NewItemStore(openTestDB(t))
		project := createTestProject(t, store)

		assert.Positive(t, int64(project.ID))
		assert.Positive(t, int64(project.ProductOwner.ID))
		assert.Positive(t, int64(project.Teams[0].ID))

		got, err := store.GetProject(ctx, project.ID)
		require.NoError(t, err)
		assert.Equal(t, project, got)
	})

	t.Run("without owner", func(t *testing.T) {
		store := NewItemStore(openTestDB(t))
		project := &item.Project{Name: "hydra"}
		require.NoError(t, store.CreateProject(ctx, project))

		got, err := store.GetProject(ctx, project.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ProductOwner)
		assert.Empty(t, got.Teams)
	})

	t.Run("existing owner is reused", func(t *testing.T) {
		store := NewItemStore(openTestDB(t))
		owner := &item.Person{Name: "Maria Hill"}
		require.NoError(t, store.CreatePerson(ctx, owner))

		project := &item.Project{Name: "shield", ProductOwner: owner}
		require.NoError(t, store.CreateProject(ctx, project))

		got, err := store.GetProject(ctx, project.ID)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, got.ProductOwner.ID)
	})

	t.Run("duplicate name", func(t *testing.T) {
		store := NewItemStore(openTestDB(t))
		createTestProject(t, store)

		err := store.CreateProject(ctx, &item.Project{Name: "shield"})
		require.ErrorIs(t, err, item.ErrDuplicate)
	})

	t.Run("not found", func(t *testing.T) {
		store := NewItemStore(openTestDB(t))

		_, err := store.GetProject(ctx, 404)
		require.ErrorIs(t, err, item.ErrNotFound)
	})
}

func TestItemStore_Sprints(t *testing.T) {
	ctx := context.Background()
	store := NewItemStore(openTestDB(t))
	project := createTestProject(t, store)

	sprint := &item.Sprint{ProjectID: project.ID, Name: "sprint 1"}
	require.NoError(t, store.CreateSprint(ctx, sprint))

	got, err := store.GetSprint(ctx, sprint.ID)
	require.NoError(t, err)
	assert.Equal(t, sprint, got)

	err = store.CreateSprint(ctx, &item.Sprint{ProjectID: 404, Name: "orphan"})
	require.ErrorIs(t, err, item.ErrNotFound)

	_, err = store.GetSprint(ctx, 404)
	require.ErrorIs(t, err, item.ErrNotFound)
}

func TestItemStore_WorkItems(t *testing.T) {
	ctx := context.Background()

	t.Run("epic round trip", func(t *testing.T) {
		store := NewItemStore(openTestDB(t))
		project := createTestProject(t, store)

		epic := &item.Epic{Header: item.Header{Title: "Helicarrier", Project: project}, Priority: 3}
		require.NoError(t, store.Create(ctx, epic))
		assert.Equal(t, item.StatusToBeDefined, epic.Status, "status defaults")

		got, err := store.Get(ctx, epic.ID)
		require.NoError(t, err)
		gotEpic, ok := got.(*item.Epic)
		require.True(t, ok, "expected *item.Epic, got %T", got)
		assert.Equal(t, "Helicarrier", gotEpic.Title)
		assert.Equal(t, 3, gotEpic.Priority)
		assert.Equal(t, project.Name, gotEpic.Project.Name)
		assert.Equal(t, project.ProductOwner, gotEpic.Project.ProductOwner)
	})

	t.Run("story hydrates its tasks", func(t *testing.T) {
		store := NewItemStore(openTestDB(t))
		project := createTestProject(t, store)
		sprint := &item.Sprint{ProjectID: project.ID, Name: "sprint 1"}
		require.NoError(t, store.CreateSprint(ctx, sprint))

		story := &item.Story{Header: item.Header{Title: "Recruit", Project: project}, Assignee: "coulson"}
		require.NoError(t, store.Create(ctx, story))

		t1 := &item.Task{Header: item.Header{Title: "Find", Project: project}, Story: story, CurrentSprint: sprint}
		t2 := &item.Task{Header: item.Header{Title: "Convince", Project: project, Status: item.StatusInProgress}, Story: story}
		require.NoError(t, store.Create(ctx, t1))
		require.NoError(t, store.Create(ctx, t2))
		assert.Equal(t, []*item.Task{t1, t2}, story.Tasks, "create links tasks into the story")

		got, err := store.Get(ctx, story.ID)
		require.NoError(t, err)
		gotStory, ok := got.(*item.Story)
		require.True(t, ok)
		assert.Equal(t, "coulson", gotStory.Assignee)
		require.Len(t, gotStory.Tasks, 2)
		assert.Equal(t, t1.ID, gotStory.Tasks[0].ID)
		assert.Equal(t, item.StatusInProgress, gotStory.Tasks[1].Status)
		assert.Same(t, gotStory, gotStory.Tasks[0].Story)
		require.NotNil(t, gotStory.Tasks[0].CurrentSprint)
		assert.Equal(t, sprint.ID, gotStory.Tasks[0].CurrentSprint.ID)
		assert.Nil(t, gotStory.Tasks[1].CurrentSprint)
	})

	t.Run("subtask is the pointer inside its story", func(t *testing.T) {
		store := NewItemStore(openTestDB(t))
		project := createTestProject(t, store)

		story := &item.Story{Header: item.Header{Title: "Recruit", Project: project}}
		require.NoError(t, store.Create(ctx, story))
		task := &item.Task{Header: item.Header{Title: "Find", Project: project}, Story: story}
		require.NoError(t, store.Create(ctx, task))

		got, err := store.Get(ctx, task.ID)
		require.NoError(t, err)
		gotTask, ok := got.(*item.Task)
		require.True(t, ok)
		require.True(t, gotTask.IsSubtask())
		assert.Equal(t, story.ID, gotTask.Story.ID)
		require.Len(t, gotTask.Story.Tasks, 1)
		assert.Same(t, gotTask, gotTask.Story.Tasks[0])
		assert.Same(t, gotTask.Project, gotTask.Story.Project, "project shared across the graph")
	})

	t.Run("freestanding task", func(t *testing.T) {
		store := NewItemStore(openTestDB(t))
		project := createTestProject(t, store)

		task := &item.Task{Header: item.Header{Title: "Refuel", Project: project}, Assignee: "may"}
		require.NoError(t, store.Create(ctx, task))

		got, err := store.Get(ctx, task.ID)
		require.NoError(t, err)
		gotTask := got.(*item.Task)
		assert.False(t, gotTask.IsSubtask())
		assert.Equal(t, "may", gotTask.Assignee)
	})

	t.Run("create requires project", func(t *testing.T) {
		store := NewItemStore(openTestDB(t))

		err := store.Create(ctx, &item.Epic{Header: item.Header{Title: "x"}})
		require.Error(t, err)
	})

	t.Run("create rejects unknown status", func(t *testing.T) {
		store := NewItemStore(openTestDB(t))
		project := createTestProject(t, store)

		err := store.Create(ctx, &item.Epic{Header: item.Header{Title: "x", Project: project, Status: "ARCHIVED"}})
		require.ErrorIs(t, err, item.ErrUnknownStatus)
	})

	t.Run("get not found", func(t *testing.T) {
		store := NewItemStore(openTestDB(t))

		_, err := store.Get(ctx, 404)
		require.ErrorIs(t, err, item.ErrNotFound)
	})
}

func TestItemStore_Updates(t *testing.T) {
	ctx := context.Background()
	store := NewItemStore(openTestDB(t))
	project := createTestProject(t, store)

	epic := &item.Epic{Header: item.Header{Title: "Helicarrier", Project: project}}
	require.NoError(t, store.Create(ctx, epic))

	require.NoError(t, store.UpdateStatus(ctx, epic.ID, item.StatusDefined))
	require.NoError(t, store.UpdatePriority(ctx, epic.ID, 0))

	got, err := store.Get(ctx, epic.ID)
	require.NoError(t, err)
	assert.Equal(t, item.StatusDefined, got.Head().Status)

	err = store.UpdateStatus(ctx, epic.ID, "ARCHIVED")
	require.ErrorIs(t, err, item.ErrUnknownStatus)

	err = store.UpdateStatus(ctx, 404, item.StatusDone)
	require.ErrorIs(t, err, item.ErrNotFound)

	err = store.UpdatePriority(ctx, 404, 1)
	require.ErrorIs(t, err, item.ErrNotFound)
}

func TestItemStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewItemStore(openTestDB(t))
	project := createTestProject(t, store)

	epic := &item.Epic{Header: item.Header{Title: "Helicarrier", Project: project}}
	story := &item.Story{Header: item.Header{Title: "Recruit", Project: project, Status: item.StatusDefined}}
	require.NoError(t, store.Create(ctx, epic))
	require.NoError(t, store.Create(ctx, story))
	task := &item.Task{Header: item.Header{Title: "Find", Project: project}, Story: story}
	require.NoError(t, store.Create(ctx, task))

	all, err := store.List(ctx, item.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, epic.ID, all[0].ID)
	assert.Equal(t, story.ID, all[2].StoryID)

	stories, err := store.List(ctx, item.ListFilter{Kind: item.KindStory})
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "Recruit", stories[0].Title)

	defined, err := store.List(ctx, item.ListFilter{ProjectID: project.ID, Status: item.StatusDefined})
	require.NoError(t, err)
	require.Len(t, defined, 1)
	assert.Equal(t, story.ID, defined[0].ID)

	none, err := store.List(ctx, item.ListFilter{ProjectID: 404})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestItemStore_Approvals(t *testing.T) {
	ctx := context.Background()
	store := NewItemStore(openTestDB(t))
	project := createTestProject(t, store)

	story := &item.Story{Header: item.Header{Title: "Recruit", Project: project}}
	require.NoError(t, store.Create(ctx, story))
	t1 := &item.Task{Header: item.Header{Title: "a", Project: project}, Story: story}
	t2 := &item.Task{Header: item.Header{Title: "b", Project: project}, Story: story}
	require.NoError(t, store.Create(ctx, t1))
	require.NoError(t, store.Create(ctx, t2))

	ids, err := store.ApprovedTasks(ctx, story.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, store.ApproveTask(ctx, story.ID, t2.ID))
	require.NoError(t, store.ApproveTask(ctx, story.ID, t2.ID), "approving twice is idempotent")
	require.NoError(t, store.ApproveTask(ctx, story.ID, t1.ID))

	ids, err = store.ApprovedTasks(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, []item.ID{t1.ID, t2.ID}, ids)

	err = store.ApproveTask(ctx, story.ID, 404)
	require.ErrorIs(t, err, item.ErrNotFound)
}
