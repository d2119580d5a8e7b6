package taskmanager

import (
	"context"
	"fmt"

	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/colonyops/taskmanager/internal/core/transition"
	"github.com/rs/zerolog"
)

// StoryService derives story status from the status of its tasks.
type StoryService struct {
	items item.Store
	log   zerolog.Logger
}

var _ transition.StoryProgress = (*StoryService)(nil)

// NewStoryService creates a new StoryService.
func NewStoryService(items item.Store, log zerolog.Logger) *StoryService {
	return &StoryService{
		items: items,
		log:   log.With().Str("component", "story-service").Logger(),
	}
}

// UpdateProgressOf folds the task's current state into the story and
// persists the derived story status when it moves forward. A task without
// a story has no progress to fold in.
func (s *StoryService) UpdateProgressOf(ctx context.Context, story *item.Story, task *item.Task) error {
	if story == nil {
		s.log.Debug().Int64("task_id", int64(task.ID)).Msg("freestanding task, no story progress to update")
		return nil
	}

	replaceTask(story, task)

	next := progressOf(story)
	if next == "" || story.Status == next || story.Status.AtLeast(next) {
		return nil
	}

	return s.setStatus(ctx, story, next)
}

// AttachPartialApproval records the task's approval. Once every task of the
// story is approved the story becomes APPROVED.
func (s *StoryService) AttachPartialApproval(ctx context.Context, story *item.Story, task *item.Task) error {
	if story == nil {
		s.log.Debug().Int64("task_id", int64(task.ID)).Msg("freestanding task, no story to approve")
		return nil
	}

	replaceTask(story, task)

	if err := s.items.ApproveTask(ctx, story.ID, task.ID); err != nil {
		return fmt.Errorf("attach approval of task %d: %w", task.ID, err)
	}

	approved, err := s.items.ApprovedTasks(ctx, story.ID)
	if err != nil {
		return fmt.Errorf("list approvals of story %d: %w", story.ID, err)
	}

	s.log.Debug().
		Int64("story_id", int64(story.ID)).
		Int64("task_id", int64(task.ID)).
		Int("approved", len(approved)).
		Int("tasks", len(story.Tasks)).
		Msg("partial approval attached")

	if story.Status == item.StatusApproved || !allApproved(story, approved) {
		return nil
	}

	return s.setStatus(ctx, story, item.StatusApproved)
}

func (s *StoryService) setStatus(ctx context.Context, story *item.Story, status item.Status) error {
	if err := s.items.UpdateStatus(ctx, story.ID, status); err != nil {
		return fmt.Errorf("update story %d status: %w", story.ID, err)
	}

	s.log.Info().
		Int64("story_id", int64(story.ID)).
		Str("from", string(story.Status)).
		Str("to", string(status)).
		Msg("story progressed")

	story.Status = status
	return nil
}

// replaceTask swaps the story's copy of task for task itself, or appends it
// when the story does not list it yet.
func replaceTask(story *item.Story, task *item.Task) {
	for i, t := range story.Tasks {
		if t.ID == task.ID {
			story.Tasks[i] = task
			return
		}
	}
	story.Tasks = append(story.Tasks, task)
}

// progressOf returns the status the story's tasks imply, or "" when they
// imply nothing.
func progressOf(story *item.Story) item.Status {
	if len(story.Tasks) == 0 {
		return ""
	}

	allDone, anyStarted := true, false
	for _, t := range story.Tasks {
		if !t.Status.AtLeast(item.StatusDone) {
			allDone = false
		}
		if t.Status.AtLeast(item.StatusInProgress) {
			anyStarted = true
		}
	}

	switch {
	case allDone:
		return item.StatusDone
	case anyStarted:
		return item.StatusInProgress
	default:
		return ""
	}
}

func allApproved(story *item.Story, approved []item.ID) bool {
	if len(story.Tasks) == 0 {
		return false
	}
	set := make(map[item.ID]struct{}, len(approved))
	for _, id := range approved {
		set[id] = struct{}{}
	}
	for _, t := range story.Tasks {
		if _, ok := set[t.ID]; !ok {
			return false
		}
	}
	return true
}
