package taskmanager

import (
	"context"
	"errors"
	"fmt"
	"text/template"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/colonyops/taskmanager/internal/core/config"
	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/colonyops/taskmanager/internal/core/notify"
	"github.com/colonyops/taskmanager/internal/core/transition"
	"github.com/colonyops/taskmanager/pkg/tmpl"
	"github.com/rs/zerolog"
)

// ErrNoRecipient is returned when a notification has nobody to address.
var ErrNoRecipient = errors.New("notification has no recipient")

// CommunicationService records notifications in the outbox.
type CommunicationService struct {
	store  notify.Store
	muted  []string
	team   *template.Template
	person *template.Template
	log    zerolog.Logger
}

var _ transition.Communication = (*CommunicationService)(nil)

// messageData is the data message templates are rendered with. Fields are
// plain types so template functions accept them.
type messageData struct {
	ID      int64
	Kind    string
	Title   string
	Status  string
	Project string
}

// NewCommunicationService creates a new CommunicationService. Notifications
// about items whose project name matches one of the muted glob patterns are
// skipped. Empty message templates fall back to the config defaults.
func NewCommunicationService(store notify.Store, cfg config.CommunicationConfig, log zerolog.Logger) (*CommunicationService, error) {
	if cfg.TeamMessage == "" {
		cfg.TeamMessage = config.DefaultTeamMessage
	}
	if cfg.PersonMessage == "" {
		cfg.PersonMessage = config.DefaultPersonMessage
	}

	team, err := tmpl.Parse(cfg.TeamMessage)
	if err != nil {
		return nil, fmt.Errorf("team message: %w", err)
	}
	person, err := tmpl.Parse(cfg.PersonMessage)
	if err != nil {
		return nil, fmt.Errorf("person message: %w", err)
	}

	return &CommunicationService{
		store:  store,
		muted:  cfg.MutedProjects,
		team:   team,
		person: person,
		log:    log.With().Str("component", "communication").Logger(),
	}, nil
}

// NotifyTeamsAbout records one notification per project team asking for an
// assignee for the story.
func (s *CommunicationService) NotifyTeamsAbout(ctx context.Context, story *item.Story, project *item.Project) error {
	if project == nil || len(project.Teams) == 0 {
		return fmt.Errorf("notify teams about story %d: %w", story.ID, ErrNoRecipient)
	}
	if s.isMuted(project) {
		s.log.Debug().Str("project", project.Name).Int64("story_id", int64(story.ID)).Msg("project muted, skipping team notification")
		return nil
	}

	msg, err := tmpl.Execute(s.team, newMessageData(story))
	if err != nil {
		return fmt.Errorf("render team message: %w", err)
	}
	for _, team := range project.Teams {
		_, err := s.store.Save(ctx, notify.Notification{
			ItemID:    story.ID,
			Channel:   notify.ChannelTeam,
			Recipient: team.Name,
			Message:   msg,
		})
		if err != nil {
			return fmt.Errorf("notify team %s: %w", team.Name, err)
		}
	}

	s.log.Info().Int64("story_id", int64(story.ID)).Int("teams", len(project.Teams)).Msg("teams notified")
	return nil
}

// Notify records a notification addressed to person about it.
func (s *CommunicationService) Notify(ctx context.Context, it item.WorkItem, person *item.Person) error {
	h := it.Head()
	if person == nil {
		return fmt.Errorf("notify about %s %d: %w", it.Kind(), h.ID, ErrNoRecipient)
	}
	if s.isMuted(h.Project) {
		s.log.Debug().Str("project", h.Project.Name).Int64("item_id", int64(h.ID)).Msg("project muted, skipping notification")
		return nil
	}

	recipient := person.Email
	if recipient == "" {
		recipient = person.Name
	}

	msg, err := tmpl.Execute(s.person, newMessageData(it))
	if err != nil {
		return fmt.Errorf("render person message: %w", err)
	}

	_, err = s.store.Save(ctx, notify.Notification{
		ItemID:    h.ID,
		Channel:   notify.ChannelPerson,
		Recipient: recipient,
		Message:   msg,
	})
	if err != nil {
		return fmt.Errorf("notify %s: %w", recipient, err)
	}

	s.log.Info().Int64("item_id", int64(h.ID)).Str("recipient", recipient).Msg("person notified")
	return nil
}

func newMessageData(it item.WorkItem) messageData {
	h := it.Head()
	data := messageData{ID: int64(h.ID), Kind: string(it.Kind()), Title: h.Title, Status: string(h.Status)}
	if h.Project != nil {
		data.Project = h.Project.Name
	}
	return data
}

func (s *CommunicationService) isMuted(project *item.Project) bool {
	if project == nil {
		return false
	}
	for _, pattern := range s.muted {
		// Patterns are validated at config load; a bad pattern never matches.
		if ok, _ := doublestar.Match(pattern, project.Name); ok {
			return true
		}
	}
	return false
}
