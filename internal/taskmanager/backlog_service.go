package taskmanager

import (
	"context"
	"errors"
	"fmt"

	"github.com/colonyops/taskmanager/internal/core/backlog"
	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/colonyops/taskmanager/internal/core/transition"
	"github.com/rs/zerolog"
)

var (
	// ErrNoProject is returned when an item must be placed in a project backlog
	// but has no project.
	ErrNoProject = errors.New("work item has no project")
	// ErrNoSprint is returned when a task must be placed in a sprint backlog
	// but is not planned into a sprint.
	ErrNoSprint = errors.New("task has no current sprint")
)

// ProjectBacklogService places stories and epics in project backlogs.
type ProjectBacklogService struct {
	backlogs backlog.Store
	items    item.Store
	log      zerolog.Logger
}

var _ transition.ProjectBacklog = (*ProjectBacklogService)(nil)

// NewProjectBacklogService creates a new ProjectBacklogService.
func NewProjectBacklogService(backlogs backlog.Store, items item.Store, log zerolog.Logger) *ProjectBacklogService {
	return &ProjectBacklogService{
		backlogs: backlogs,
		items:    items,
		log:      log.With().Str("component", "project-backlog").Logger(),
	}
}

// MoveToReadyForDevelopment adds the story to the project's ready lane.
func (s *ProjectBacklogService) MoveToReadyForDevelopment(ctx context.Context, story *item.Story, project *item.Project) error {
	if project == nil {
		return fmt.Errorf("move story %d to ready: %w", story.ID, ErrNoProject)
	}

	entry, err := s.backlogs.Add(ctx, backlog.ScopeProject, project.ID, backlog.LaneReady, story.ID)
	if err != nil {
		return fmt.Errorf("move story %d to ready: %w", story.ID, err)
	}

	s.log.Info().
		Int64("story_id", int64(story.ID)).
		Int64("project_id", int64(project.ID)).
		Int("position", entry.Position).
		Msg("story ready for development")
	return nil
}

// PutOnTop moves the epic to the top of its project's prioritized lane and
// rewrites the priority of every epic in that lane to match its position.
func (s *ProjectBacklogService) PutOnTop(ctx context.Context, epic *item.Epic) error {
	project := epic.Project
	if project == nil {
		return fmt.Errorf("put epic %d on top: %w", epic.ID, ErrNoProject)
	}

	entry, err := s.backlogs.PutOnTop(ctx, backlog.ScopeProject, project.ID, backlog.LanePrioritized, epic.ID)
	if err != nil {
		return fmt.Errorf("put epic %d on top: %w", epic.ID, err)
	}
	epic.Priority = entry.Position

	entries, err := s.backlogs.List(ctx, backlog.ScopeProject, project.ID)
	if err != nil {
		return fmt.Errorf("list project backlog: %w", err)
	}
	for _, e := range entries {
		if e.Lane != backlog.LanePrioritized {
			continue
		}
		if err := s.items.UpdatePriority(ctx, e.ItemID, e.Position); err != nil {
			return fmt.Errorf("update priority of %d: %w", e.ItemID, err)
		}
	}

	s.log.Info().
		Int64("epic_id", int64(epic.ID)).
		Int64("project_id", int64(project.ID)).
		Msg("epic put on top of project backlog")
	return nil
}

// SprintBacklogService places tasks in sprint backlogs.
type SprintBacklogService struct {
	backlogs backlog.Store
	log      zerolog.Logger
}

var _ transition.SprintBacklog = (*SprintBacklogService)(nil)

// NewSprintBacklogService creates a new SprintBacklogService.
func NewSprintBacklogService(backlogs backlog.Store, log zerolog.Logger) *SprintBacklogService {
	return &SprintBacklogService{
		backlogs: backlogs,
		log:      log.With().Str("component", "sprint-backlog").Logger(),
	}
}

// MoveToReadyForDevelopment adds the task to the sprint's ready lane.
// Returns ErrNoSprint when sprint is nil.
func (s *SprintBacklogService) MoveToReadyForDevelopment(ctx context.Context, task *item.Task, sprint *item.Sprint) error {
	if sprint == nil {
		return fmt.Errorf("move task %d to ready: %w", task.ID, ErrNoSprint)
	}

	entry, err := s.backlogs.Add(ctx, backlog.ScopeSprint, sprint.ID, backlog.LaneReady, task.ID)
	if err != nil {
		return fmt.Errorf("move task %d to ready: %w", task.ID, err)
	}

	s.log.Info().
		Int64("task_id", int64(task.ID)).
		Int64("sprint_id", int64(sprint.ID)).
		Int("position", entry.Position).
		Msg("task ready for development")
	return nil
}
