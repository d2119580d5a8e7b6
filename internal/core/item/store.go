package item

import "context"

// ListFilter controls which items are returned by List.
type ListFilter struct {
	ProjectID ID     // zero means all projects
	Kind      Kind   // empty means all kinds
	Status    Status // empty means all statuses
}

// Summary is a flat view of a work item used for listings.
type Summary struct {
	ID        ID     `json:"id"`
	Kind      Kind   `json:"kind"`
	ProjectID ID     `json:"project_id"`
	Title     string `json:"title"`
	Status    Status `json:"status"`
	StoryID   ID     `json:"story_id,omitempty"`
	SprintID  ID     `json:"sprint_id,omitempty"`
}

// Store defines the interface for work item persistence.
type Store interface {
	// CreatePerson persists a person and populates its ID.
	CreatePerson(ctx context.Context, p *Person) error

	// CreateProject persists a project with its teams. A product owner with
	// a zero ID is created first.
	CreateProject(ctx context.Context, p *Project) error

	// GetProject returns a project with its product owner and teams.
	// Returns ErrNotFound if the project does not exist.
	GetProject(ctx context.Context, id ID) (*Project, error)

	// CreateSprint persists a sprint and populates its ID.
	CreateSprint(ctx context.Context, s *Sprint) error

	// GetSprint returns a sprint by ID.
	// Returns ErrNotFound if the sprint does not exist.
	GetSprint(ctx context.Context, id ID) (*Sprint, error)

	// Create persists a work item and populates its ID. The item's project
	// must be set. Status defaults to TO_BE_DEFINED.
	Create(ctx context.Context, it WorkItem) error

	// Get loads a work item with its project, story, tasks and sprint.
	// A task that belongs to a story is returned as the same pointer found
	// in its story's task list.
	// Returns ErrNotFound if the item does not exist.
	Get(ctx context.Context, id ID) (WorkItem, error)

	// List returns item summaries matching the filter, ordered by ID.
	List(ctx context.Context, filter ListFilter) ([]Summary, error)

	// UpdateStatus changes the status of a work item.
	// Returns ErrNotFound if the item does not exist.
	UpdateStatus(ctx context.Context, id ID, status Status) error

	// UpdatePriority changes the priority of an epic.
	// Returns ErrNotFound if the item does not exist.
	UpdatePriority(ctx context.Context, id ID, priority int) error

	// ApproveTask records that a task of a story was approved. Idempotent.
	ApproveTask(ctx context.Context, storyID, taskID ID) error

	// ApprovedTasks returns the IDs of the approved tasks of a story.
	ApprovedTasks(ctx context.Context, storyID ID) ([]ID, error)
}
