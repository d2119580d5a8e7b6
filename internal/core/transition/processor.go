package transition

import (
	"context"
	"sync"

	"github.com/colonyops/taskmanager/internal/core/eventbus"
	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/rs/zerolog"
)

// Services are the collaborators the Processor calls into.
type Services struct {
	ProjectBacklog ProjectBacklog
	SprintBacklog  SprintBacklog
	Communication  Communication
	StoryProgress  StoryProgress
	Events         EventRegistry
}

// Processor dispatches a work item to the side effects of its current status.
// It is safe for concurrent use; the status table is built once, on first use.
type Processor struct {
	svc Services
	log zerolog.Logger

	once     sync.Once
	states   States
	stateErr error
}

// NewProcessor creates a Processor over the given collaborators.
func NewProcessor(svc Services, log zerolog.Logger) *Processor {
	return &Processor{
		svc: svc,
		log: log.With().Str("component", "transition").Logger(),
	}
}

// ProcessFor fires the side effects for the item's current status. Collaborator
// errors are returned unchanged; the first failing call stops the transition.
// Repeated calls for the same item and status repeat the side effects.
func (p *Processor) ProcessFor(ctx context.Context, it item.WorkItem) error {
	states, err := p.table()
	if err != nil {
		return err
	}

	h := it.Head()
	p.log.Debug().
		Int64("item_id", int64(h.ID)).
		Str("kind", string(it.Kind())).
		Str("status", string(h.Status)).
		Msg("processing transition")

	switch h.Status {
	case item.StatusDefined:
		return p.processDefined(ctx, it)
	case item.StatusInProgress:
		return p.processInProgress(ctx, it)
	case item.StatusDone:
		return p.processDone(ctx, it)
	default:
		state, err := states.Get(h.Status)
		if err != nil {
			return err
		}
		return state.Process(ctx, it)
	}
}

func (p *Processor) table() (States, error) {
	p.once.Do(func() {
		p.states, p.stateErr = NewStates(p.svc.StoryProgress, p.svc.Events)
	})
	return p.states, p.stateErr
}

func (p *Processor) processDefined(ctx context.Context, it item.WorkItem) error {
	if story, ok := as[*item.Story](it, item.KindStory); ok {
		if !story.HasTasks() {
			return p.svc.ProjectBacklog.MoveToReadyForDevelopment(ctx, story, story.Project)
		}
		if !story.Assigned() {
			return p.svc.Communication.NotifyTeamsAbout(ctx, story, story.Project)
		}
		// Assigned stories with tasks advance through their tasks instead.
		return nil
	}

	if task, ok := as[*item.Task](it, item.KindTask); ok {
		return p.svc.SprintBacklog.MoveToReadyForDevelopment(ctx, task, task.CurrentSprint)
	}

	if epic, ok := as[*item.Epic](it, item.KindEpic); ok {
		if err := p.svc.ProjectBacklog.PutOnTop(ctx, epic); err != nil {
			return err
		}
		if err := p.svc.Events.Publish(ctx, eventbus.EpicReadyToPrioritizePayload{EpicID: epic.ID}); err != nil {
			return err
		}
		return p.svc.Communication.Notify(ctx, epic, productOwner(epic.Project))
	}

	return unsupported(it)
}

func (p *Processor) processInProgress(ctx context.Context, it item.WorkItem) error {
	task, ok := as[*item.Task](it, item.KindTask)
	if !ok {
		return nil
	}
	return p.svc.StoryProgress.UpdateProgressOf(ctx, task.Story, task)
}

func (p *Processor) processDone(ctx context.Context, it item.WorkItem) error {
	if task, ok := as[*item.Task](it, item.KindTask); ok {
		story := task.Story
		if err := p.svc.StoryProgress.UpdateProgressOf(ctx, story, task); err != nil {
			return err
		}
		// Read the story status only after the recompute.
		if story != nil && story.Status == item.StatusDone {
			return p.svc.Events.Publish(ctx, eventbus.StoryDonePayload{StoryID: story.ID})
		}
		return nil
	}

	if story, ok := as[*item.Story](it, item.KindStory); ok {
		return p.svc.Events.Publish(ctx, eventbus.StoryDonePayload{StoryID: story.ID})
	}

	return nil
}

// as narrows it to T when its kind tag is kind and the concrete type agrees.
func as[T item.WorkItem](it item.WorkItem, kind item.Kind) (T, bool) {
	var zero T
	if it.Kind() != kind {
		return zero, false
	}
	v, ok := it.(T)
	return v, ok
}

func productOwner(project *item.Project) *item.Person {
	if project == nil {
		return nil
	}
	return project.ProductOwner
}
