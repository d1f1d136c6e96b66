package ssection

import (
	"context"
	"database/sql"

	"github.com/the-dev-tools/kanban/pkg/dbsetup"
	"github.com/the-dev-tools/kanban/pkg/idwrap"
	"github.com/the-dev-tools/kanban/pkg/ordering"
)

// sectionStore implements ordering.Store over one project's sections. The
// project is the only container, so every ContainerRef resolves to the same
// bucket and named containers never exist.
type sectionStore struct {
	db        *sql.DB
	projectID idwrap.IDWrap
}

func (s sectionStore) Item(ctx context.Context, id idwrap.IDWrap) (ordering.Item, bool, error) {
	var item ordering.Item
	err := s.db.QueryRowContext(ctx,
		`SELECT id, rank_key FROM sections WHERE id = ? AND project_id = ?`,
		id, s.projectID).
		Scan(&item.ID, &item.RankKey)
	if err == sql.ErrNoRows {
		return ordering.Item{}, false, nil
	}
	if err != nil {
		return ordering.Item{}, false, err
	}
	return item, true, nil
}

func (s sectionStore) ItemInContainer(ctx context.Context, c ordering.ContainerRef, id idwrap.IDWrap) (ordering.Item, bool, error) {
	return s.Item(ctx, id)
}

func (s sectionStore) FirstAbove(ctx context.Context, c ordering.ContainerRef, key string, exclude idwrap.IDWrap) (ordering.Item, bool, error) {
	return s.boundary(ctx,
		`SELECT id, rank_key FROM sections
		 WHERE project_id = ? AND rank_key > ? AND id != ?
		 ORDER BY rank_key ASC LIMIT 1`, key, exclude)
}

func (s sectionStore) LastBelow(ctx context.Context, c ordering.ContainerRef, key string, exclude idwrap.IDWrap) (ordering.Item, bool, error) {
	return s.boundary(ctx,
		`SELECT id, rank_key FROM sections
		 WHERE project_id = ? AND rank_key < ? AND id != ?
		 ORDER BY rank_key DESC LIMIT 1`, key, exclude)
}

func (s sectionStore) MaxKeyItem(ctx context.Context, c ordering.ContainerRef, exclude idwrap.IDWrap) (ordering.Item, bool, error) {
	var item ordering.Item
	err := s.db.QueryRowContext(ctx,
		`SELECT id, rank_key FROM sections
		 WHERE project_id = ? AND id != ?
		 ORDER BY rank_key DESC LIMIT 1`, s.projectID, exclude).
		Scan(&item.ID, &item.RankKey)
	if err == sql.ErrNoRows {
		return ordering.Item{}, false, nil
	}
	if err != nil {
		return ordering.Item{}, false, err
	}
	return item, true, nil
}

func (s sectionStore) ContainerExists(ctx context.Context, id idwrap.IDWrap) (bool, error) {
	// sections live directly under the project; there is no named container
	return false, nil
}

func (s sectionStore) UpdatePlacement(ctx context.Context, tx *sql.Tx, id idwrap.IDWrap, c ordering.ContainerRef, key string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE sections SET rank_key = ? WHERE id = ? AND project_id = ?`,
		key, id, s.projectID)
	return err
}

func (s sectionStore) IsConflict(err error) bool {
	return dbsetup.IsUniqueViolation(err)
}

func (s sectionStore) boundary(ctx context.Context, query, key string, exclude idwrap.IDWrap) (ordering.Item, bool, error) {
	var item ordering.Item
	err := s.db.QueryRowContext(ctx, query, s.projectID, key, exclude).
		Scan(&item.ID, &item.RankKey)
	if err == sql.ErrNoRows {
		return ordering.Item{}, false, nil
	}
	if err != nil {
		return ordering.Item{}, false, err
	}
	return item, true, nil
}
