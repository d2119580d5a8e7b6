// Package item defines the work item domain model: epics, stories and tasks,
// the projects and sprints they belong to, and the status lifecycle.
package item

import "errors"

var (
	// ErrNotFound is returned when a work item, project or sprint does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a uniquely named record already exists.
	ErrDuplicate = errors.New("already exists")
)

// ID identifies a work item, project, sprint, person or team.
type ID int64

// Kind is the variant tag of a work item.
type Kind string

const (
	KindEpic  Kind = "epic"
	KindStory Kind = "story"
	KindTask  Kind = "task"
)

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindEpic, KindStory, KindTask:
		return true
	}
	return false
}

// WorkItem is the capability set shared by every work item variant.
type WorkItem interface {
	// Head returns the fields common to every variant.
	Head() *Header
	// Kind returns the variant tag.
	Kind() Kind
}

// Header holds the fields shared by epics, stories and tasks.
type Header struct {
	ID          ID       `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status"`
	Project     *Project `json:"-"`
}

// Head returns h. Embedding Header gives each variant its WorkItem accessor.
func (h *Header) Head() *Header { return h }

// Person is someone a notification can be addressed to.
type Person struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Team is a group of people working on a project.
type Team struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Project owns a backlog of epics and stories.
type Project struct {
	ID           ID      `json:"id"`
	Name         string  `json:"name"`
	ProductOwner *Person `json:"product_owner,omitempty"`
	Teams        []Team  `json:"teams,omitempty"`
}

// Sprint is a time box with its own backlog of tasks.
type Sprint struct {
	ID        ID     `json:"id"`
	ProjectID ID     `json:"project_id"`
	Name      string `json:"name"`
}

// Epic is a large body of work prioritized in the project backlog.
type Epic struct {
	Header
	// Priority is the position in the project backlog; lower comes first.
	Priority int `json:"priority"`
}

func (e *Epic) Kind() Kind { return KindEpic }

// Story is a unit of user-facing work, optionally broken down into tasks.
type Story struct {
	Header
	Tasks    []*Task `json:"-"`
	Assignee string  `json:"assignee,omitempty"`
}

func (s *Story) Kind() Kind { return KindStory }

// Assigned reports whether a team or person is attached to the story.
func (s *Story) Assigned() bool {
	return s.Assignee != ""
}

// HasTasks reports whether the story was broken down into tasks.
func (s *Story) HasTasks() bool {
	return len(s.Tasks) > 0
}

// Task is the smallest unit of work, usually part of a story.
type Task struct {
	Header
	Story         *Story  `json:"-"`
	CurrentSprint *Sprint `json:"-"`
	Assignee      string  `json:"assignee,omitempty"`
}

func (t *Task) Kind() Kind { return KindTask }

// IsSubtask reports whether the task belongs to a story.
func (t *Task) IsSubtask() bool {
	return t.Story != nil
}

var (
	_ WorkItem = (*Epic)(nil)
	_ WorkItem = (*Story)(nil)
	_ WorkItem = (*Task)(nil)
)
