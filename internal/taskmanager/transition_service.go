package taskmanager

import (
	"context"
	"fmt"

	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/colonyops/taskmanager/internal/core/logging"
	"github.com/colonyops/taskmanager/internal/core/transition"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// TransitionService is the workflow around the transition processor: it
// loads an item, persists its new status and dispatches the side effects.
type TransitionService struct {
	items       item.Store
	processor   *transition.Processor
	tracer      trace.Tracer
	transitions metric.Int64Counter
	log         zerolog.Logger
}

// NewTransitionService creates a new TransitionService.
func NewTransitionService(
	items item.Store,
	processor *transition.Processor,
	tracer trace.Tracer,
	meter metric.Meter,
	log zerolog.Logger,
) (*TransitionService, error) {
	counter, err := meter.Int64Counter("taskmanager.transitions",
		metric.WithDescription("Work item status transitions dispatched"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create transitions counter: %w", err)
	}

	return &TransitionService{
		items:       items,
		processor:   processor,
		tracer:      tracer,
		transitions: counter,
		log:         log.With().Str("component", "transition-service").Logger(),
	}, nil
}

// Transition moves the item to status, persists it and runs the side
// effects of entering that status. The updated item is returned even when
// a side effect fails; the status change is not rolled back.
func (s *TransitionService) Transition(ctx context.Context, id item.ID, status item.Status) (item.WorkItem, error) {
	ctx, span := s.tracer.Start(ctx, "taskmanager.Transition", trace.WithAttributes(
		attribute.Int64("item.id", int64(id)),
		attribute.String("item.status", string(status)),
	))
	defer span.End()

	if !status.IsValid() {
		err := fmt.Errorf("transition %d: %w: %q", id, item.ErrUnknownStatus, status)
		recordError(span, err)
		return nil, err
	}

	it, err := s.items.Get(ctx, id)
	if err != nil {
		err = fmt.Errorf("load item %d: %w", id, err)
		recordError(span, err)
		return nil, err
	}

	if err := s.items.UpdateStatus(ctx, id, status); err != nil {
		err = fmt.Errorf("persist status of %d: %w", id, err)
		recordError(span, err)
		return nil, err
	}
	it.Head().Status = status

	return it, s.dispatch(ctx, span, it)
}

// Reprocess runs the side effects of the item's current status again.
// Side effects are not deduplicated.
func (s *TransitionService) Reprocess(ctx context.Context, id item.ID) (item.WorkItem, error) {
	ctx, span := s.tracer.Start(ctx, "taskmanager.Reprocess", trace.WithAttributes(
		attribute.Int64("item.id", int64(id)),
	))
	defer span.End()

	it, err := s.items.Get(ctx, id)
	if err != nil {
		err = fmt.Errorf("load item %d: %w", id, err)
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("item.status", string(it.Head().Status)))

	return it, s.dispatch(ctx, span, it)
}

// dispatch runs the processor for it. When an approved subtask completes
// the approval of its story, the story is dispatched as well so its own
// APPROVED side effects fire.
func (s *TransitionService) dispatch(ctx context.Context, span trace.Span, it item.WorkItem) error {
	span.SetAttributes(attribute.String("item.kind", string(it.Kind())))

	var story *item.Story
	var storyBefore item.Status
	if task, ok := it.(*item.Task); ok && task.IsSubtask() {
		story = task.Story
		storyBefore = story.Status
	}

	if err := s.process(ctx, it); err != nil {
		recordError(span, err)
		return err
	}

	if story != nil && storyBefore != item.StatusApproved && story.Status == item.StatusApproved {
		span.AddEvent("story approved", trace.WithAttributes(attribute.Int64("story.id", int64(story.ID))))
		if err := s.process(ctx, story); err != nil {
			recordError(span, err)
			return err
		}
	}

	return nil
}

func (s *TransitionService) process(ctx context.Context, it item.WorkItem) error {
	h := it.Head()
	ctx = logging.WithItem(ctx, it)

	err := s.processor.ProcessFor(ctx, it)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(it.Kind())),
		attribute.String("status", string(h.Status)),
		attribute.String("outcome", outcome),
	))

	if err != nil {
		s.log.Error().Ctx(ctx).Err(err).Str("kind", string(it.Kind())).Msg("transition side effects failed")
		return fmt.Errorf("process %s %d at %s: %w", it.Kind(), h.ID, h.Status, err)
	}

	s.log.Info().Ctx(ctx).Str("kind", string(it.Kind())).Msg("transition processed")
	return nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
