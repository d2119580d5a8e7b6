package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/colonyops/taskmanager/internal/taskmanager"
	"github.com/colonyops/taskmanager/pkg/iojson"
	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"
)

type ItemCmd struct {
	flags *Flags
	app   *taskmanager.App
	fr    *iojson.FileReader[[]ItemSpec]

	// create flags
	spec ItemSpec

	// ls flags
	lsProject int
	lsKind    string
	lsStatus  string
}

// NewItemCmd creates a new item command.
func NewItemCmd(flags *Flags, app *taskmanager.App) *ItemCmd {
	return &ItemCmd{
		flags: flags,
		app:   app,
		fr:    &iojson.FileReader[[]ItemSpec]{},
	}
}

// Register adds the item command to the application.
func (cmd *ItemCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "item",
		Usage: "Create work items and move them through their lifecycle",
		Description: `Work items are epics, stories and tasks. Moving an item to a new status
runs the side effects of entering that status: backlog placement,
notifications, story progress and domain events.

Run 'taskmanager statuses' to list the lifecycle.`,
		Commands: []*cli.Command{
			cmd.createCmd(),
			cmd.importCmd(),
			cmd.showCmd(),
			cmd.lsCmd(),
			cmd.statusCmd(),
			cmd.reprocessCmd(),
		},
	})

	return app
}

func (cmd *ItemCmd) createCmd() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create an epic, story or task",
		UsageText: "taskmanager item create <epic|story|task> --project <id> --title <title> [options]",
		Description: `Creates a work item in TO_BE_DEFINED.

A task created with --story becomes a subtask of that story; its progress
drives the story's status. --sprint plans a task into a sprint.

Examples:
  taskmanager item create epic --project 1 --title "Helicarrier"
  taskmanager item create story --project 1 --title "Recruit" --assignee coulson
  taskmanager item create task --project 1 --title "Find Fitz" --story 2 --sprint 1`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "project",
				Aliases:     []string{"p"},
				Usage:       "project id",
				Required:    true,
				Destination: &cmd.spec.ProjectID,
			},
			&cli.StringFlag{
				Name:        "title",
				Aliases:     []string{"t"},
				Usage:       "item title",
				Required:    true,
				Destination: &cmd.spec.Title,
			},
			&cli.StringFlag{
				Name:        "description",
				Aliases:     []string{"d"},
				Usage:       "item description",
				Destination: &cmd.spec.Description,
			},
			&cli.IntFlag{
				Name:        "story",
				Usage:       "parent story id (tasks only)",
				Destination: &cmd.spec.StoryID,
			},
			&cli.IntFlag{
				Name:        "sprint",
				Usage:       "current sprint id (tasks only)",
				Destination: &cmd.spec.SprintID,
			},
			&cli.StringFlag{
				Name:        "assignee",
				Aliases:     []string{"a"},
				Usage:       "assignee (stories and tasks)",
				Destination: &cmd.spec.Assignee,
			},
		},
		Action: cmd.runCreate,
	}
}

func (cmd *ItemCmd) importCmd() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Create multiple work items from JSON input",
		UsageText: `taskmanager item import [options]

Read from stdin:
  echo '[{"kind":"epic","project_id":1,"title":"Helicarrier"}]' | taskmanager item import

Read from file:
  taskmanager item import -f items.json`,
		Description: `Creates work items from a JSON array, in order.

Input JSON schema:
  [
    {
      "kind": "epic|story|task",
      "project_id": 1,
      "title": "required title",
      "description": "optional",
      "story_id": 0,
      "sprint_id": 0,
      "assignee": "optional"
    }
  ]

The input is validated before anything is created. Output is JSON lines,
one per created item.`,
		Flags: []cli.Flag{
			cmd.fr.Flag(),
		},
		Action: cmd.runImport,
	}
}

func (cmd *ItemCmd) showCmd() *cli.Command {
	return &cli.Command{
		Name:          "show",
		Usage:         "Show a work item",
		UsageText:     "taskmanager item show <id>",
		ShellComplete: ItemCompleter(cmd.app, false),
		Action:        cmd.runShow,
	}
}

func (cmd *ItemCmd) lsCmd() *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "List work items",
		UsageText: "taskmanager item ls [--project <id>] [--kind <kind>] [--status <status>]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "project",
				Aliases:     []string{"p"},
				Usage:       "only items of this project",
				Destination: &cmd.lsProject,
			},
			&cli.StringFlag{
				Name:        "kind",
				Aliases:     []string{"k"},
				Usage:       "only items of this kind (epic, story, task)",
				Destination: &cmd.lsKind,
			},
			&cli.StringFlag{
				Name:        "status",
				Aliases:     []string{"s"},
				Usage:       "only items in this status",
				Destination: &cmd.lsStatus,
			},
		},
		Action: cmd.runLs,
	}
}

func (cmd *ItemCmd) statusCmd() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Move a work item to a new status",
		UsageText: "taskmanager item status <id> <status>",
		Description: `Persists the new status and runs the side effects of entering it.

The status change is kept even when a side effect fails; use
'taskmanager item reprocess' to run the side effects again.

Examples:
  taskmanager item status 4 defined
  taskmanager item status 7 IN_PROGRESS`,
		ShellComplete: ItemCompleter(cmd.app, true),
		Action:        cmd.runStatus,
	}
}

func (cmd *ItemCmd) reprocessCmd() *cli.Command {
	return &cli.Command{
		Name:      "reprocess",
		Usage:     "Run the side effects of the item's current status again",
		UsageText: "taskmanager item reprocess <id>",
		Description: `Side effects are not deduplicated: notifications are recorded and
events published again.`,
		ShellComplete: ItemCompleter(cmd.app, false),
		Action:        cmd.runReprocess,
	}
}

func (cmd *ItemCmd) runCreate(ctx context.Context, c *cli.Command) error {
	spec := cmd.spec
	spec.Kind = item.Kind(strings.ToLower(c.Args().First()))
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("invalid item: %w", err)
	}

	it, err := cmd.create(ctx, spec)
	if err != nil {
		return err
	}

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, newItemView(it))
}

func (cmd *ItemCmd) runImport(ctx context.Context, c *cli.Command) error {
	specs, err := cmd.fr.Read()
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if err := validateSpecs(specs); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}

	out := c.Root().Writer
	for i, spec := range specs {
		it, err := cmd.create(ctx, spec)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if err := iojson.WriteLine(out, newItemView(it)); err != nil {
			return fmt.Errorf("encode item: %w", err)
		}
	}

	return nil
}

func (cmd *ItemCmd) runShow(ctx context.Context, c *cli.Command) error {
	id, err := idArg(c, 0, "item id")
	if err != nil {
		return err
	}

	it, err := cmd.app.Items.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get item %d: %w", id, err)
	}

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, newItemView(it))
}

func (cmd *ItemCmd) runLs(ctx context.Context, c *cli.Command) error {
	filter := item.ListFilter{
		ProjectID: item.ID(cmd.lsProject),
		Kind:      item.Kind(strings.ToLower(cmd.lsKind)),
	}
	if filter.Kind != "" && !filter.Kind.IsValid() {
		return fmt.Errorf("unknown kind %q", cmd.lsKind)
	}
	if cmd.lsStatus != "" {
		status, err := item.ParseStatus(cmd.lsStatus)
		if err != nil {
			return err
		}
		filter.Status = status
	}

	items, err := cmd.app.Items.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}

	out := c.Root().Writer
	for _, s := range items {
		if err := iojson.WriteLine(out, s); err != nil {
			return fmt.Errorf("encode item: %w", err)
		}
	}
	return nil
}

func (cmd *ItemCmd) runStatus(ctx context.Context, c *cli.Command) error {
	id, err := idArg(c, 0, "item id")
	if err != nil {
		return err
	}
	status, err := item.ParseStatus(c.Args().Get(1))
	if err != nil {
		return err
	}

	it, err := cmd.app.Transitions.Transition(ctx, id, status)
	if it != nil {
		if werr := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, newItemView(it)); werr != nil {
			return errors.Join(err, werr)
		}
	}
	return err
}

func (cmd *ItemCmd) runReprocess(ctx context.Context, c *cli.Command) error {
	id, err := idArg(c, 0, "item id")
	if err != nil {
		return err
	}

	it, err := cmd.app.Transitions.Reprocess(ctx, id)
	if it != nil {
		if werr := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, newItemView(it)); werr != nil {
			return errors.Join(err, werr)
		}
	}
	return err
}

// create resolves the project, story and sprint references and persists the item.
func (cmd *ItemCmd) create(ctx context.Context, spec ItemSpec) (item.WorkItem, error) {
	project, err := cmd.app.Items.GetProject(ctx, item.ID(spec.ProjectID))
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", spec.ProjectID, err)
	}

	header := item.Header{
		Title:       spec.Title,
		Description: spec.Description,
		Project:     project,
	}

	var it item.WorkItem
	switch spec.Kind {
	case item.KindEpic:
		it = &item.Epic{Header: header}
	case item.KindStory:
		it = &item.Story{Header: header, Assignee: spec.Assignee}
	case item.KindTask:
		task := &item.Task{Header: header, Assignee: spec.Assignee}
		if spec.StoryID != 0 {
			parent, err := cmd.app.Items.Get(ctx, item.ID(spec.StoryID))
			if err != nil {
				return nil, fmt.Errorf("get story %d: %w", spec.StoryID, err)
			}
			story, ok := parent.(*item.Story)
			if !ok {
				return nil, fmt.Errorf("item %d is a %s, not a story", spec.StoryID, parent.Kind())
			}
			task.Story = story
		}
		if spec.SprintID != 0 {
			sprint, err := cmd.app.Items.GetSprint(ctx, item.ID(spec.SprintID))
			if err != nil {
				return nil, fmt.Errorf("get sprint %d: %w", spec.SprintID, err)
			}
			task.CurrentSprint = sprint
		}
		it = task
	default:
		return nil, fmt.Errorf("unknown kind %q", spec.Kind)
	}

	if err := cmd.app.Items.Create(ctx, it); err != nil {
		return nil, fmt.Errorf("create %s: %w", spec.Kind, err)
	}
	return it, nil
}

// ItemSpec is the input schema for creating a work item.
type ItemSpec struct {
	Kind        item.Kind `json:"kind"`
	ProjectID   int       `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StoryID     int       `json:"story_id,omitempty"`
	SprintID    int       `json:"sprint_id,omitempty"`
	Assignee    string    `json:"assignee,omitempty"`
}

// Validate checks the input for errors using criterio.
func (s ItemSpec) Validate() error {
	return s.validate("")
}

func (s ItemSpec) validate(prefix string) error {
	var errs criterio.FieldErrorsBuilder

	if !s.Kind.IsValid() {
		errs = errs.Append(prefix+"kind", fmt.Errorf("must be one of epic, story, task; got %q", s.Kind))
	}
	if s.ProjectID <= 0 {
		errs = errs.Append(prefix+"project_id", errors.New("must be a positive id"))
	}
	if strings.TrimSpace(s.Title) == "" {
		errs = errs.Append(prefix+"title", errors.New("cannot be empty"))
	}
	if s.Kind != item.KindTask {
		if s.StoryID != 0 {
			errs = errs.Append(prefix+"story_id", errors.New("only tasks belong to a story"))
		}
		if s.SprintID != 0 {
			errs = errs.Append(prefix+"sprint_id", errors.New("only tasks are planned into a sprint"))
		}
	}
	if s.Kind == item.KindEpic && s.Assignee != "" {
		errs = errs.Append(prefix+"assignee", errors.New("epics are not assigned"))
	}
	return errs.ToError()
}

func validateSpecs(specs []ItemSpec) error {
	if len(specs) == 0 {
		return criterio.NewFieldErrors("items", errors.New("array is empty"))
	}

	var errs []error
	for i, spec := range specs {
		if err := spec.validate(fmt.Sprintf("items[%d].", i)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// itemView is the JSON output format for a single work item.
type itemView struct {
	ID          item.ID     `json:"id"`
	Kind        item.Kind   `json:"kind"`
	ProjectID   item.ID     `json:"project_id,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Status      item.Status `json:"status"`
	Priority    *int        `json:"priority,omitempty"`
	Assignee    string      `json:"assignee,omitempty"`
	StoryID     item.ID     `json:"story_id,omitempty"`
	SprintID    item.ID     `json:"sprint_id,omitempty"`
	Tasks       []item.ID   `json:"tasks,omitempty"`
}

func newItemView(it item.WorkItem) itemView {
	h := it.Head()
	v := itemView{
		ID:          h.ID,
		Kind:        it.Kind(),
		Title:       h.Title,
		Description: h.Description,
		Status:      h.Status,
	}
	if h.Project != nil {
		v.ProjectID = h.Project.ID
	}

	switch x := it.(type) {
	case *item.Epic:
		priority := x.Priority
		v.Priority = &priority
	case *item.Story:
		v.Assignee = x.Assignee
		for _, t := range x.Tasks {
			v.Tasks = append(v.Tasks, t.ID)
		}
	case *item.Task:
		v.Assignee = x.Assignee
		if x.Story != nil {
			v.StoryID = x.Story.ID
		}
		if x.CurrentSprint != nil {
			v.SprintID = x.CurrentSprint.ID
		}
	}

	return v
}
