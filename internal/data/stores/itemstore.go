package stores

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/colonyops/taskmanager/internal/data/db"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// ItemStore implements item.Store using SQLite.
type ItemStore struct {
	db *db.DB
}

var _ item.Store = (*ItemStore)(nil)

// NewItemStore creates a new SQLite-backed work item store.
func NewItemStore(db *db.DB) *ItemStore {
	return &ItemStore{db: db}
}

// CreatePerson persists a person and populates its ID.
func (s *ItemStore) CreatePerson(ctx context.Context, p *item.Person) error {
	return insertPerson(ctx, s.db.Conn(), p)
}

func insertPerson(ctx context.Context, q querier, p *item.Person) error {
	res, err := q.ExecContext(ctx, "INSERT INTO people (name, email) VALUES (?, ?)", p.Name, p.Email)
	if err != nil {
		return fmt.Errorf("insert person: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert person: %w", err)
	}
	p.ID = item.ID(id)
	return nil
}

// CreateProject persists a project with its teams. A product owner with a
// zero ID is created in the same transaction.
func (s *ItemStore) CreateProject(ctx context.Context, p *item.Project) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var ownerID int64
		if p.ProductOwner != nil {
			if p.ProductOwner.ID == 0 {
				if err := insertPerson(ctx, tx, p.ProductOwner); err != nil {
					return err
				}
			}
			ownerID = int64(p.ProductOwner.ID)
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO projects (name, product_owner_id, created_at) VALUES (?, ?, ?)",
			p.Name, toNullInt64(ownerID), time.Now().UnixNano(),
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("project %q: %w", p.Name, item.ErrDuplicate)
			}
			if isForeignKeyError(err) {
				return fmt.Errorf("product owner %d: %w", ownerID, item.ErrNotFound)
			}
			return fmt.Errorf("insert project: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		p.ID = item.ID(id)

		for i := range p.Teams {
			res, err := tx.ExecContext(ctx,
				"INSERT INTO teams (project_id, name) VALUES (?, ?)", id, p.Teams[i].Name,
			)
			if err != nil {
				if isUniqueConstraintError(err) {
					return fmt.Errorf("team %q: %w", p.Teams[i].Name, item.ErrDuplicate)
				}
				return fmt.Errorf("insert team: %w", err)
			}
			teamID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("insert team: %w", err)
			}
			p.Teams[i].ID = item.ID(teamID)
		}

		return nil
	})
}

// GetProject returns a project with its product owner and teams.
func (s *ItemStore) GetProject(ctx context.Context, id item.ID) (*item.Project, error) {
	return getProject(ctx, s.db.Conn(), id)
}

func getProject(ctx context.Context, q querier, id item.ID) (*item.Project, error) {
	var (
		p          item.Project
		ownerID    sql.NullInt64
		ownerName  sql.NullString
		ownerEmail sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT p.id, p.name, p.product_owner_id, pe.name, pe.email
		FROM projects p
		LEFT JOIN people pe ON pe.id = p.product_owner_id
		WHERE p.id = ?`, int64(id),
	).Scan(&p.ID, &p.Name, &ownerID, &ownerName, &ownerEmail)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, fmt.Errorf("project %d: %w", id, item.ErrNotFound)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	if ownerID.Valid {
		p.ProductOwner = &item.Person{
			ID:    item.ID(ownerID.Int64),
			Name:  fromNullString(ownerName),
			Email: fromNullString(ownerEmail),
		}
	}

	rows, err := q.QueryContext(ctx, "SELECT id, name FROM teams WHERE project_id = ? ORDER BY id", int64(id))
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var t item.Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		p.Teams = append(p.Teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	return &p, nil
}

// CreateSprint persists a sprint and populates its ID.
func (s *ItemStore) CreateSprint(ctx context.Context, sp *item.Sprint) error {
	res, err := s.db.Conn().ExecContext(ctx,
		"INSERT INTO sprints (project_id, name, created_at) VALUES (?, ?, ?)",
		int64(sp.ProjectID), sp.Name, time.Now().UnixNano(),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("project %d: %w", sp.ProjectID, item.ErrNotFound)
		}
		return fmt.Errorf("insert sprint: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert sprint: %w", err)
	}
	sp.ID = item.ID(id)
	return nil
}

// GetSprint returns a sprint by ID.
func (s *ItemStore) GetSprint(ctx context.Context, id item.ID) (*item.Sprint, error) {
	return getSprint(ctx, s.db.Conn(), id)
}

func getSprint(ctx context.Context, q querier, id item.ID) (*item.Sprint, error) {
	var sp item.Sprint
	err := q.QueryRowContext(ctx,
		"SELECT id, project_id, name FROM sprints WHERE id = ?", int64(id),
	).Scan(&sp.ID, &sp.ProjectID, &sp.Name)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, fmt.Errorf("sprint %d: %w", id, item.ErrNotFound)
		}
		return nil, fmt.Errorf("get sprint: %w", err)
	}
	return &sp, nil
}

// Create persists a work item and populates its ID. A task created with a
// story pointer is appended to that story's task list.
func (s *ItemStore) Create(ctx context.Context, it item.WorkItem) error {
	h := it.Head()
	if h.Project == nil {
		return fmt.Errorf("create %s: project is required", it.Kind())
	}
	if h.Status == "" {
		h.Status = item.StatusToBeDefined
	}
	if !h.Status.IsValid() {
		return fmt.Errorf("create %s: %w: %q", it.Kind(), item.ErrUnknownStatus, h.Status)
	}

	var (
		priority int
		assignee string
		storyID  int64
		sprintID int64
	)

	switch v := it.(type) {
	case *item.Epic:
		priority = v.Priority
	case *item.Story:
		assignee = v.Assignee
	case *item.Task:
		assignee = v.Assignee
		if v.Story != nil {
			storyID = int64(v.Story.ID)
		}
		if v.CurrentSprint != nil {
			sprintID = int64(v.CurrentSprint.ID)
		}
	default:
		return fmt.Errorf("create: unsupported work item kind %q", it.Kind())
	}

	now := time.Now().UnixNano()
	res, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO work_items
			(kind, project_id, title, description, status, priority, assignee, story_id, sprint_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(it.Kind()), int64(h.Project.ID), h.Title, h.Description, string(h.Status),
		priority, assignee, toNullInt64(storyID), toNullInt64(sprintID), now, now,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("create %s: %w", it.Kind(), item.ErrNotFound)
		}
		return fmt.Errorf("create %s: %w", it.Kind(), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create %s: %w", it.Kind(), err)
	}
	h.ID = item.ID(id)

	if task, ok := it.(*item.Task); ok && task.Story != nil {
		task.Story.Tasks = append(task.Story.Tasks, task)
	}

	return nil
}

const itemColumns = "id, kind, project_id, title, description, status, priority, assignee, story_id, sprint_id"

type itemRow struct {
	ID          int64
	Kind        string
	ProjectID   int64
	Title       string
	Description string
	Status      string
	Priority    int
	Assignee    string
	StoryID     sql.NullInt64
	SprintID    sql.NullInt64
}

func scanItem(sc scanner) (itemRow, error) {
	var r itemRow
	err := sc.Scan(&r.ID, &r.Kind, &r.ProjectID, &r.Title, &r.Description,
		&r.Status, &r.Priority, &r.Assignee, &r.StoryID, &r.SprintID)
	return r, err
}

func (r itemRow) header(project *item.Project) item.Header {
	return item.Header{
		ID:          item.ID(r.ID),
		Title:       r.Title,
		Description: r.Description,
		Status:      item.Status(r.Status),
		Project:     project,
	}
}

// graphLoader hydrates rows into linked work items, sharing projects and
// sprints across one Get call.
type graphLoader struct {
	q        querier
	projects map[item.ID]*item.Project
	sprints  map[item.ID]*item.Sprint
}

func newGraphLoader(q querier) *graphLoader {
	return &graphLoader{
		q:        q,
		projects: make(map[item.ID]*item.Project),
		sprints:  make(map[item.ID]*item.Sprint),
	}
}

func (g *graphLoader) project(ctx context.Context, id int64) (*item.Project, error) {
	if p, ok := g.projects[item.ID(id)]; ok {
		return p, nil
	}
	p, err := getProject(ctx, g.q, item.ID(id))
	if err != nil {
		return nil, err
	}
	g.projects[p.ID] = p
	return p, nil
}

func (g *graphLoader) sprint(ctx context.Context, id sql.NullInt64) (*item.Sprint, error) {
	if !id.Valid {
		return nil, nil
	}
	if sp, ok := g.sprints[item.ID(id.Int64)]; ok {
		return sp, nil
	}
	sp, err := getSprint(ctx, g.q, item.ID(id.Int64))
	if err != nil {
		return nil, err
	}
	g.sprints[sp.ID] = sp
	return sp, nil
}

func (g *graphLoader) row(ctx context.Context, id item.ID) (itemRow, error) {
	r, err := scanItem(g.q.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM work_items WHERE id = ?", int64(id)))
	if err != nil {
		if IsNotFoundError(err) {
			return itemRow{}, fmt.Errorf("work item %d: %w", id, item.ErrNotFound)
		}
		return itemRow{}, fmt.Errorf("get work item: %w", err)
	}
	return r, nil
}

func (g *graphLoader) task(ctx context.Context, r itemRow, story *item.Story) (*item.Task, error) {
	project, err := g.project(ctx, r.ProjectID)
	if err != nil {
		return nil, err
	}
	sprint, err := g.sprint(ctx, r.SprintID)
	if err != nil {
		return nil, err
	}
	return &item.Task{
		Header:        r.header(project),
		Story:         story,
		CurrentSprint: sprint,
		Assignee:      r.Assignee,
	}, nil
}

func (g *graphLoader) story(ctx context.Context, r itemRow) (*item.Story, error) {
	project, err := g.project(ctx, r.ProjectID)
	if err != nil {
		return nil, err
	}
	story := &item.Story{Header: r.header(project), Assignee: r.Assignee}

	rows, err := g.q.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM work_items WHERE story_id = ? ORDER BY id", r.ID)
	if err != nil {
		return nil, fmt.Errorf("list story tasks: %w", err)
	}
	taskRows, err := collectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("list story tasks: %w", err)
	}

	for _, tr := range taskRows {
		task, err := g.task(ctx, tr, story)
		if err != nil {
			return nil, err
		}
		story.Tasks = append(story.Tasks, task)
	}

	return story, nil
}

func collectRows(rows *sql.Rows) ([]itemRow, error) {
	defer func() { _ = rows.Close() }()

	var out []itemRow
	for rows.Next() {
		r, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get loads a work item and the graph around it.
func (s *ItemStore) Get(ctx context.Context, id item.ID) (item.WorkItem, error) {
	g := newGraphLoader(s.db.Conn())

	r, err := g.row(ctx, id)
	if err != nil {
		return nil, err
	}

	switch item.Kind(r.Kind) {
	case item.KindEpic:
		project, err := g.project(ctx, r.ProjectID)
		if err != nil {
			return nil, err
		}
		return &item.Epic{Header: r.header(project), Priority: r.Priority}, nil

	case item.KindStory:
		return g.story(ctx, r)

	case item.KindTask:
		if !r.StoryID.Valid {
			return g.task(ctx, r, nil)
		}

		storyRow, err := g.row(ctx, item.ID(r.StoryID.Int64))
		if err != nil {
			return nil, err
		}
		story, err := g.story(ctx, storyRow)
		if err != nil {
			return nil, err
		}
		for _, task := range story.Tasks {
			if task.ID == id {
				return task, nil
			}
		}
		return nil, fmt.Errorf("task %d missing from story %d", id, story.ID)

	default:
		return nil, fmt.Errorf("get work item %d: unknown kind %q", id, r.Kind)
	}
}

// List returns item summaries matching the filter, ordered by ID.
func (s *ItemStore) List(ctx context.Context, filter item.ListFilter) ([]item.Summary, error) {
	var (
		where []string
		args  []any
	)
	if filter.ProjectID != 0 {
		where = append(where, "project_id = ?")
		args = append(args, int64(filter.ProjectID))
	}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := "SELECT " + itemColumns + " FROM work_items"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}
	itemRows, err := collectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}

	out := make([]item.Summary, 0, len(itemRows))
	for _, r := range itemRows {
		out = append(out, item.Summary{
			ID:        item.ID(r.ID),
			Kind:      item.Kind(r.Kind),
			ProjectID: item.ID(r.ProjectID),
			Title:     r.Title,
			Status:    item.Status(r.Status),
			StoryID:   item.ID(r.StoryID.Int64),
			SprintID:  item.ID(r.SprintID.Int64),
		})
	}
	return out, nil
}

// UpdateStatus changes the status of a work item.
func (s *ItemStore) UpdateStatus(ctx context.Context, id item.ID, status item.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("update status: %w: %q", item.ErrUnknownStatus, status)
	}
	return s.update(ctx, id, "status", string(status))
}

// UpdatePriority changes the priority of an epic.
func (s *ItemStore) UpdatePriority(ctx context.Context, id item.ID, priority int) error {
	return s.update(ctx, id, "priority", priority)
}

func (s *ItemStore) update(ctx context.Context, id item.ID, column string, value any) error {
	res, err := s.db.Conn().ExecContext(ctx,
		"UPDATE work_items SET "+column+" = ?, updated_at = ? WHERE id = ?",
		value, time.Now().UnixNano(), int64(id),
	)
	if err != nil {
		return fmt.Errorf("update work item %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update work item %s: %w", column, err)
	}
	if n == 0 {
		return fmt.Errorf("work item %d: %w", id, item.ErrNotFound)
	}
	return nil
}

// ApproveTask records that a task of a story was approved.
func (s *ItemStore) ApproveTask(ctx context.Context, storyID, taskID item.ID) error {
	_, err := s.db.Conn().ExecContext(ctx,
		"INSERT OR IGNORE INTO story_approvals (story_id, task_id, approved_at) VALUES (?, ?, ?)",
		int64(storyID), int64(taskID), time.Now().UnixNano(),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("approve task %d of story %d: %w", taskID, storyID, item.ErrNotFound)
		}
		return fmt.Errorf("approve task: %w", err)
	}
	return nil
}

// ApprovedTasks returns the IDs of the approved tasks of a story.
func (s *ItemStore) ApprovedTasks(ctx context.Context, storyID item.ID) ([]item.ID, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		"SELECT task_id FROM story_approvals WHERE story_id = ? ORDER BY task_id", int64(storyID))
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []item.ID
	for rows.Next() {
		var id item.ID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// fromNullString converts a sql.NullString to a string.
func fromNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
