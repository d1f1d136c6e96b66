package ssection

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/the-dev-tools/kanban/pkg/idwrap"
	"github.com/the-dev-tools/kanban/pkg/model/msection"
	"github.com/the-dev-tools/kanban/pkg/ordering"
)

var ErrNoSectionFound = sql.ErrNoRows

// SectionService orders sections within their project. A project is a
// section's only possible container, so moves never change container.
type SectionService struct {
	db     *sql.DB
	logger *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) SectionService {
	if logger == nil {
		logger = slog.Default()
	}
	return SectionService{db: db, logger: logger}
}

func (ss SectionService) Get(ctx context.Context, id idwrap.IDWrap) (*msection.Section, error) {
	var s msection.Section
	err := ss.db.QueryRowContext(ctx,
		`SELECT id, project_id, name, rank_key FROM sections WHERE id = ?`, id).
		Scan(&s.ID, &s.ProjectID, &s.Name, &s.RankKey)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetInProject loads a section only if it belongs to the project.
func (ss SectionService) GetInProject(ctx context.Context, projectID, id idwrap.IDWrap) (*msection.Section, error) {
	var s msection.Section
	err := ss.db.QueryRowContext(ctx,
		`SELECT id, project_id, name, rank_key FROM sections WHERE id = ? AND project_id = ?`,
		id, projectID).
		Scan(&s.ID, &s.ProjectID, &s.Name, &s.RankKey)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByProject returns the project's sections in display order.
func (ss SectionService) ListByProject(ctx context.Context, projectID idwrap.IDWrap) ([]msection.Section, error) {
	rows, err := ss.db.QueryContext(ctx,
		`SELECT id, project_id, name, rank_key FROM sections
		 WHERE project_id = ? ORDER BY rank_key ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var sections []msection.Section
	for rows.Next() {
		var s msection.Section
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Name, &s.RankKey); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

// Create appends the section at the tail of its project's order, retrying
// the insert when a concurrent create claims the tail key first.
func (ss SectionService) Create(ctx context.Context, section *msection.Section) error {
	store := ss.store(section.ProjectID)
	key, err := ordering.NewAppender(store).Append(ctx, ordering.DefaultContainer(), section.ID,
		func(ctx context.Context, key string) error {
			_, err := ss.db.ExecContext(ctx,
				`INSERT INTO sections (id, project_id, name, rank_key) VALUES (?, ?, ?, ?)`,
				section.ID, section.ProjectID, section.Name, key)
			return err
		})
	if err != nil {
		return err
	}
	section.RankKey = key
	return nil
}

// Move reorders the section within its project.
func (ss SectionService) Move(ctx context.Context, projectID, sectionID idwrap.IDWrap, hints ordering.Hints) (*msection.Section, error) {
	coord := ordering.NewCoordinator(ss.db, ss.store(projectID), ss.logger)
	_, err := coord.Move(ctx, sectionID, ordering.MoveRequest{
		Container: ordering.NoChange(),
		Hints:     hints,
	})
	if err != nil {
		return nil, err
	}
	return ss.GetInProject(ctx, projectID, sectionID)
}

func (ss SectionService) store(projectID idwrap.IDWrap) sectionStore {
	return sectionStore{db: ss.db, projectID: projectID}
}
