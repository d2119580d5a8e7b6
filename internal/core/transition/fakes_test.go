package transition

import (
	"context"
	"sync"

	"github.com/colonyops/taskmanager/internal/core/eventbus"
	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/rs/zerolog"
)

// Port operation names recorded in the call log.
const (
	opProjectReady  = "project.MoveToReadyForDevelopment"
	opPutOnTop      = "project.PutOnTop"
	opSprintReady   = "sprint.MoveToReadyForDevelopment"
	opNotifyTeams   = "communication.NotifyTeamsAbout"
	opNotify        = "communication.Notify"
	opUpdateProg    = "story.UpdateProgressOf"
	opPartialApprov = "story.AttachPartialApproval"
	opPublish       = "events.Publish"
)

type call struct {
	Op   string
	Args []any
}

// callLog is shared by every fake port so ordering across ports can be asserted.
type callLog struct {
	mu    sync.Mutex
	calls []call
	fail  map[string]error
}

func (l *callLog) record(op string, args ...any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call{Op: op, Args: args})
	return l.fail[op]
}

func (l *callLog) failOn(op string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail == nil {
		l.fail = make(map[string]error)
	}
	l.fail[op] = err
}

func (l *callLog) ops() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	for i, c := range l.calls {
		out[i] = c.Op
	}
	return out
}

func (l *callLog) count(op string) int {
	n := 0
	for _, o := range l.ops() {
		if o == op {
			n++
		}
	}
	return n
}

func (l *callLog) args(op string) [][]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out [][]any
	for _, c := range l.calls {
		if c.Op == op {
			out = append(out, c.Args)
		}
	}
	return out
}

func (l *callLog) published() []eventbus.Payload {
	var out []eventbus.Payload
	for _, a := range l.args(opPublish) {
		out = append(out, a[0].(eventbus.Payload))
	}
	return out
}

type fakeProjectBacklog struct{ log *callLog }

func (f fakeProjectBacklog) MoveToReadyForDevelopment(_ context.Context, story *item.Story, project *item.Project) error {
	return f.log.record(opProjectReady, story, project)
}

func (f fakeProjectBacklog) PutOnTop(_ context.Context, epic *item.Epic) error {
	return f.log.record(opPutOnTop, epic)
}

type fakeSprintBacklog struct{ log *callLog }

func (f fakeSprintBacklog) MoveToReadyForDevelopment(_ context.Context, task *item.Task, sprint *item.Sprint) error {
	return f.log.record(opSprintReady, task, sprint)
}

type fakeCommunication struct{ log *callLog }

func (f fakeCommunication) NotifyTeamsAbout(_ context.Context, story *item.Story, project *item.Project) error {
	return f.log.record(opNotifyTeams, story, project)
}

func (f fakeCommunication) Notify(_ context.Context, it item.WorkItem, person *item.Person) error {
	return f.log.record(opNotify, it, person)
}

// fakeStoryProgress applies recompute (when set) after recording the call,
// standing in for the real status derivation.
type fakeStoryProgress struct {
	log       *callLog
	recompute func(story *item.Story, task *item.Task)
}

func (f fakeStoryProgress) UpdateProgressOf(_ context.Context, story *item.Story, task *item.Task) error {
	if err := f.log.record(opUpdateProg, story, task); err != nil {
		return err
	}
	if f.recompute != nil {
		f.recompute(story, task)
	}
	return nil
}

func (f fakeStoryProgress) AttachPartialApproval(_ context.Context, story *item.Story, task *item.Task) error {
	return f.log.record(opPartialApprov, story, task)
}

type fakeEvents struct{ log *callLog }

func (f fakeEvents) Publish(_ context.Context, event eventbus.Payload) error {
	return f.log.record(opPublish, event)
}

type harness struct {
	log       *callLog
	processor *Processor
}

// newHarness wires a Processor to recording fakes. recompute may be nil.
func newHarness(recompute func(*item.Story, *item.Task)) *harness {
	log := &callLog{}
	svc := Services{
		ProjectBacklog: fakeProjectBacklog{log: log},
		SprintBacklog:  fakeSprintBacklog{log: log},
		Communication:  fakeCommunication{log: log},
		StoryProgress:  fakeStoryProgress{log: log, recompute: recompute},
		Events:         fakeEvents{log: log},
	}
	return &harness{log: log, processor: NewProcessor(svc, zerolog.Nop())}
}

// bug is a work item kind the processor has no policy for.
type bug struct {
	item.Header
}

func (b *bug) Kind() item.Kind { return "bug" }

// impostor claims to be a story but is not an *item.Story.
type impostor struct {
	item.Header
}

func (i *impostor) Kind() item.Kind { return item.KindStory }

// fixtures

func testProject() *item.Project {
	return &item.Project{
		ID:           69,
		Name:         "shield",
		ProductOwner: &item.Person{ID: 42, Name: "Nick Fury", Email: "nick.fury@shield.marvel.com"},
		Teams:        []item.Team{{ID: 1, Name: "avengers"}},
	}
}

func storyWithTasks(project *item.Project, status item.Status, taskStatuses ...item.Status) *item.Story {
	story := &item.Story{Header: item.Header{ID: 100, Title: "story", Status: status, Project: project}}
	for i, st := range taskStatuses {
		story.Tasks = append(story.Tasks, &item.Task{
			Header: item.Header{ID: item.ID(200 + i), Title: "task", Status: st, Project: project},
			Story:  story,
		})
	}
	return story
}
