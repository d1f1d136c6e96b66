package ssubtask

import (
	"context"
	"database/sql"

	"github.com/the-dev-tools/kanban/pkg/dbsetup"
	"github.com/the-dev-tools/kanban/pkg/idwrap"
	"github.com/the-dev-tools/kanban/pkg/ordering"
)

// subtaskStore implements ordering.Store over one task's subtasks. The task
// is the only container.
type subtaskStore struct {
	db     *sql.DB
	taskID idwrap.IDWrap
}

func (s subtaskStore) Item(ctx context.Context, id idwrap.IDWrap) (ordering.Item, bool, error) {
	return s.scan(s.db.QueryRowContext(ctx,
		`SELECT id, rank_key FROM subtasks WHERE id = ? AND task_id = ?`,
		id, s.taskID))
}

func (s subtaskStore) ItemInContainer(ctx context.Context, c ordering.ContainerRef, id idwrap.IDWrap) (ordering.Item, bool, error) {
	return s.Item(ctx, id)
}

func (s subtaskStore) FirstAbove(ctx context.Context, c ordering.ContainerRef, key string, exclude idwrap.IDWrap) (ordering.Item, bool, error) {
	return s.scan(s.db.QueryRowContext(ctx,
		`SELECT id, rank_key FROM subtasks
		 WHERE task_id = ? AND rank_key > ? AND id != ?
		 ORDER BY rank_key ASC LIMIT 1`, s.taskID, key, exclude))
}

func (s subtaskStore) LastBelow(ctx context.Context, c ordering.ContainerRef, key string, exclude idwrap.IDWrap) (ordering.Item, bool, error) {
	return s.scan(s.db.QueryRowContext(ctx,
		`SELECT id, rank_key FROM subtasks
		 WHERE task_id = ? AND rank_key < ? AND id != ?
		 ORDER BY rank_key DESC LIMIT 1`, s.taskID, key, exclude))
}

func (s subtaskStore) MaxKeyItem(ctx context.Context, c ordering.ContainerRef, exclude idwrap.IDWrap) (ordering.Item, bool, error) {
	return s.scan(s.db.QueryRowContext(ctx,
		`SELECT id, rank_key FROM subtasks
		 WHERE task_id = ? AND id != ?
		 ORDER BY rank_key DESC LIMIT 1`, s.taskID, exclude))
}

func (s subtaskStore) ContainerExists(ctx context.Context, id idwrap.IDWrap) (bool, error) {
	// subtasks cannot move between tasks
	return false, nil
}

func (s subtaskStore) UpdatePlacement(ctx context.Context, tx *sql.Tx, id idwrap.IDWrap, c ordering.ContainerRef, key string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE subtasks SET rank_key = ? WHERE id = ? AND task_id = ?`,
		key, id, s.taskID)
	return err
}

func (s subtaskStore) IsConflict(err error) bool {
	return dbsetup.IsUniqueViolation(err)
}

func (s subtaskStore) scan(row *sql.Row) (ordering.Item, bool, error) {
	var item ordering.Item
	err := row.Scan(&item.ID, &item.RankKey)
	if err == sql.ErrNoRows {
		return ordering.Item{}, false, nil
	}
	if err != nil {
		return ordering.Item{}, false, err
	}
	return item, true, nil
}
