package stask

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/the-dev-tools/kanban/pkg/idwrap"
	"github.com/the-dev-tools/kanban/pkg/model/mtask"
	"github.com/the-dev-tools/kanban/pkg/ordering"
)

var ErrNoTaskFound = sql.ErrNoRows

// TaskService orders tasks within a section or, when a task has no section,
// within the project's unlocated bucket. Moves may change the container:
// into a named section, or out to the unlocated bucket.
type TaskService struct {
	db     *sql.DB
	logger *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return TaskService{db: db, logger: logger}
}

func (ts TaskService) Get(ctx context.Context, id idwrap.IDWrap) (*mtask.Task, error) {
	return scanTask(ts.db.QueryRowContext(ctx,
		`SELECT id, project_id, section_id, name, rank_key FROM tasks WHERE id = ?`, id))
}

// GetInProject loads a task only if it belongs to the project.
func (ts TaskService) GetInProject(ctx context.Context, projectID, id idwrap.IDWrap) (*mtask.Task, error) {
	return scanTask(ts.db.QueryRowContext(ctx,
		`SELECT id, project_id, section_id, name, rank_key FROM tasks
		 WHERE id = ? AND project_id = ?`, id, projectID))
}

// ListByContainer returns one bucket's tasks in display order. A nil
// sectionID lists the project's unlocated bucket.
func (ts TaskService) ListByContainer(ctx context.Context, projectID idwrap.IDWrap, sectionID *idwrap.IDWrap) ([]mtask.Task, error) {
	var rows *sql.Rows
	var err error
	if sectionID == nil {
		rows, err = ts.db.QueryContext(ctx,
			`SELECT id, project_id, section_id, name, rank_key FROM tasks
			 WHERE project_id = ? AND section_id IS NULL ORDER BY rank_key ASC`, projectID)
	} else {
		rows, err = ts.db.QueryContext(ctx,
			`SELECT id, project_id, section_id, name, rank_key FROM tasks
			 WHERE project_id = ? AND section_id = ? ORDER BY rank_key ASC`, projectID, *sectionID)
	}
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []mtask.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// Create appends the task at the tail of its bucket.
func (ts TaskService) Create(ctx context.Context, task *mtask.Task) error {
	container := ordering.DefaultContainer()
	if task.SectionID != nil {
		container = ordering.Container(*task.SectionID)
	}
	var sectionID any
	if task.SectionID != nil {
		sectionID = *task.SectionID
	}
	store := ts.store(task.ProjectID)
	key, err := ordering.NewAppender(store).Append(ctx, container, task.ID,
		func(ctx context.Context, key string) error {
			_, err := ts.db.ExecContext(ctx,
				`INSERT INTO tasks (id, project_id, section_id, name, rank_key) VALUES (?, ?, ?, ?, ?)`,
				task.ID, task.ProjectID, sectionID, task.Name, key)
			return err
		})
	if err != nil {
		return err
	}
	task.RankKey = key
	return nil
}

// Move places the task per the request: reorder in place, move into a named
// section of the same project, or move to the unlocated bucket.
func (ts TaskService) Move(ctx context.Context, projectID, taskID idwrap.IDWrap, req ordering.MoveRequest) (*mtask.Task, error) {
	coord := ordering.NewCoordinator(ts.db, ts.store(projectID), ts.logger)
	if _, err := coord.Move(ctx, taskID, req); err != nil {
		return nil, err
	}
	return ts.GetInProject(ctx, projectID, taskID)
}

func (ts TaskService) store(projectID idwrap.IDWrap) taskStore {
	return taskStore{db: ts.db, projectID: projectID}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*mtask.Task, error) {
	var t mtask.Task
	var sectionID []byte
	if err := row.Scan(&t.ID, &t.ProjectID, &sectionID, &t.Name, &t.RankKey); err != nil {
		return nil, err
	}
	if len(sectionID) > 0 {
		id, err := idwrap.NewFromBytes(sectionID)
		if err != nil {
			return nil, fmt.Errorf("scan section id: %w", err)
		}
		t.SectionID = &id
	}
	return &t, nil
}
