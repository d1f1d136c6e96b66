package ssubtask

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/the-dev-tools/kanban/pkg/idwrap"
	"github.com/the-dev-tools/kanban/pkg/model/msubtask"
	"github.com/the-dev-tools/kanban/pkg/ordering"
)

var ErrNoSubtaskFound = sql.ErrNoRows

// SubtaskService orders subtasks within their owning task. The owning task
// is fixed, so moves only ever reorder.
type SubtaskService struct {
	db     *sql.DB
	logger *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) SubtaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return SubtaskService{db: db, logger: logger}
}

func (ss SubtaskService) Get(ctx context.Context, id idwrap.IDWrap) (*msubtask.Subtask, error) {
	var st msubtask.Subtask
	err := ss.db.QueryRowContext(ctx,
		`SELECT id, task_id, name, rank_key FROM subtasks WHERE id = ?`, id).
		Scan(&st.ID, &st.TaskID, &st.Name, &st.RankKey)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ListByTask returns the task's subtasks in display order.
func (ss SubtaskService) ListByTask(ctx context.Context, taskID idwrap.IDWrap) ([]msubtask.Subtask, error) {
	rows, err := ss.db.QueryContext(ctx,
		`SELECT id, task_id, name, rank_key FROM subtasks
		 WHERE task_id = ? ORDER BY rank_key ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	defer rows.Close()

	var subtasks []msubtask.Subtask
	for rows.Next() {
		var st msubtask.Subtask
		if err := rows.Scan(&st.ID, &st.TaskID, &st.Name, &st.RankKey); err != nil {
			return nil, fmt.Errorf("scan subtask: %w", err)
		}
		subtasks = append(subtasks, st)
	}
	return subtasks, rows.Err()
}

// Create appends the subtask at the tail of its task's order.
func (ss SubtaskService) Create(ctx context.Context, subtask *msubtask.Subtask) error {
	store := ss.store(subtask.TaskID)
	key, err := ordering.NewAppender(store).Append(ctx, ordering.DefaultContainer(), subtask.ID,
		func(ctx context.Context, key string) error {
			_, err := ss.db.ExecContext(ctx,
				`INSERT INTO subtasks (id, task_id, name, rank_key) VALUES (?, ?, ?, ?)`,
				subtask.ID, subtask.TaskID, subtask.Name, key)
			return err
		})
	if err != nil {
		return err
	}
	subtask.RankKey = key
	return nil
}

// Move reorders the subtask within its owning task.
func (ss SubtaskService) Move(ctx context.Context, subtaskID idwrap.IDWrap, hints ordering.Hints) (*msubtask.Subtask, error) {
	subtask, err := ss.Get(ctx, subtaskID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("subtask %s: %w", subtaskID.String(), ordering.ErrNotFound)
		}
		return nil, err
	}

	coord := ordering.NewCoordinator(ss.db, ss.store(subtask.TaskID), ss.logger)
	if _, err := coord.Move(ctx, subtaskID, ordering.MoveRequest{
		Container: ordering.NoChange(),
		Hints:     hints,
	}); err != nil {
		return nil, err
	}
	return ss.Get(ctx, subtaskID)
}

func (ss SubtaskService) store(taskID idwrap.IDWrap) subtaskStore {
	return subtaskStore{db: ss.db, taskID: taskID}
}
