package stask

import (
	"context"
	"database/sql"

	"github.com/the-dev-tools/kanban/pkg/dbsetup"
	"github.com/the-dev-tools/kanban/pkg/idwrap"
	"github.com/the-dev-tools/kanban/pkg/ordering"
)

// taskStore implements ordering.Store for one project's tasks. The container
// is the task's section; a nil container is the project's unlocated bucket.
type taskStore struct {
	db        *sql.DB
	projectID idwrap.IDWrap
}

func (s taskStore) Item(ctx context.Context, id idwrap.IDWrap) (ordering.Item, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, section_id, rank_key FROM tasks WHERE id = ? AND project_id = ?`,
		id, s.projectID)
	return scanItem(row)
}

func (s taskStore) ItemInContainer(ctx context.Context, c ordering.ContainerRef, id idwrap.IDWrap) (ordering.Item, bool, error) {
	var row *sql.Row
	if c.ID == nil {
		row = s.db.QueryRowContext(ctx,
			`SELECT id, section_id, rank_key FROM tasks
			 WHERE id = ? AND project_id = ? AND section_id IS NULL`,
			id, s.projectID)
	} else {
		row = s.db.QueryRowContext(ctx,
			`SELECT id, section_id, rank_key FROM tasks
			 WHERE id = ? AND project_id = ? AND section_id = ?`,
			id, s.projectID, *c.ID)
	}
	return scanItem(row)
}

func (s taskStore) FirstAbove(ctx context.Context, c ordering.ContainerRef, key string, exclude idwrap.IDWrap) (ordering.Item, bool, error) {
	if c.ID == nil {
		return scanItem(s.db.QueryRowContext(ctx,
			`SELECT id, section_id, rank_key FROM tasks
			 WHERE project_id = ? AND section_id IS NULL AND rank_key > ? AND id != ?
			 ORDER BY rank_key ASC LIMIT 1`, s.projectID, key, exclude))
	}
	return scanItem(s.db.QueryRowContext(ctx,
		`SELECT id, section_id, rank_key FROM tasks
		 WHERE project_id = ? AND section_id = ? AND rank_key > ? AND id != ?
		 ORDER BY rank_key ASC LIMIT 1`, s.projectID, *c.ID, key, exclude))
}

func (s taskStore) LastBelow(ctx context.Context, c ordering.ContainerRef, key string, exclude idwrap.IDWrap) (ordering.Item, bool, error) {
	if c.ID == nil {
		return scanItem(s.db.QueryRowContext(ctx,
			`SELECT id, section_id, rank_key FROM tasks
			 WHERE project_id = ? AND section_id IS NULL AND rank_key < ? AND id != ?
			 ORDER BY rank_key DESC LIMIT 1`, s.projectID, key, exclude))
	}
	return scanItem(s.db.QueryRowContext(ctx,
		`SELECT id, section_id, rank_key FROM tasks
		 WHERE project_id = ? AND section_id = ? AND rank_key < ? AND id != ?
		 ORDER BY rank_key DESC LIMIT 1`, s.projectID, *c.ID, key, exclude))
}

func (s taskStore) MaxKeyItem(ctx context.Context, c ordering.ContainerRef, exclude idwrap.IDWrap) (ordering.Item, bool, error) {
	if c.ID == nil {
		return scanItem(s.db.QueryRowContext(ctx,
			`SELECT id, section_id, rank_key FROM tasks
			 WHERE project_id = ? AND section_id IS NULL AND id != ?
			 ORDER BY rank_key DESC LIMIT 1`, s.projectID, exclude))
	}
	return scanItem(s.db.QueryRowContext(ctx,
		`SELECT id, section_id, rank_key FROM tasks
		 WHERE project_id = ? AND section_id = ? AND id != ?
		 ORDER BY rank_key DESC LIMIT 1`, s.projectID, *c.ID, exclude))
}

func (s taskStore) ContainerExists(ctx context.Context, id idwrap.IDWrap) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM sections WHERE id = ? AND project_id = ?`, id, s.projectID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s taskStore) UpdatePlacement(ctx context.Context, tx *sql.Tx, id idwrap.IDWrap, c ordering.ContainerRef, key string) error {
	var sectionID any
	if c.ID != nil {
		sectionID = *c.ID
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE tasks SET section_id = ?, rank_key = ? WHERE id = ? AND project_id = ?`,
		sectionID, key, id, s.projectID)
	return err
}

func (s taskStore) IsConflict(err error) bool {
	return dbsetup.IsUniqueViolation(err)
}

func scanItem(row *sql.Row) (ordering.Item, bool, error) {
	var item ordering.Item
	var sectionID []byte
	err := row.Scan(&item.ID, &sectionID, &item.RankKey)
	if err == sql.ErrNoRows {
		return ordering.Item{}, false, nil
	}
	if err != nil {
		return ordering.Item{}, false, err
	}
	if len(sectionID) > 0 {
		id, err := idwrap.NewFromBytes(sectionID)
		if err != nil {
			return ordering.Item{}, false, err
		}
		item.Container = ordering.Container(id)
	}
	return item, true, nil
}
