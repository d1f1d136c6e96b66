package sproject

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/the-dev-tools/kanban/pkg/dbtime"
	"github.com/the-dev-tools/kanban/pkg/idwrap"
	"github.com/the-dev-tools/kanban/pkg/model/mproject"
)

var ErrNoProjectFound = sql.ErrNoRows

// ProjectService owns the outer scope the ordered collections live under.
// Projects carry no ordering of their own.
type ProjectService struct {
	db *sql.DB
}

func New(db *sql.DB) ProjectService {
	return ProjectService{db: db}
}

func (ps ProjectService) Create(ctx context.Context, project *mproject.Project) error {
	project.Updated = dbtime.DBTimeData(dbtime.DBNow())
	_, err := ps.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, updated) VALUES (?, ?, ?)`,
		project.ID, project.Name, dbtime.Unix(project.Updated.Time()))
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (ps ProjectService) Get(ctx context.Context, id idwrap.IDWrap) (*mproject.Project, error) {
	row := ps.db.QueryRowContext(ctx,
		`SELECT id, name, updated FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

func (ps ProjectService) List(ctx context.Context) ([]mproject.Project, error) {
	rows, err := ps.db.QueryContext(ctx,
		`SELECT id, name, updated FROM projects ORDER BY updated DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []mproject.Project
	for rows.Next() {
		var p mproject.Project
		var updated int64
		if err := rows.Scan(&p.ID, &p.Name, &updated); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.Updated = dbtime.DBTimeData(dbtime.FromUnix(updated))
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Exists reports whether the project id is known.
func (ps ProjectService) Exists(ctx context.Context, id idwrap.IDWrap) (bool, error) {
	var one int
	err := ps.db.QueryRowContext(ctx,
		`SELECT 1 FROM projects WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check project: %w", err)
	}
	return true, nil
}

func scanProject(row *sql.Row) (*mproject.Project, error) {
	var p mproject.Project
	var updated int64
	if err := row.Scan(&p.ID, &p.Name, &updated); err != nil {
		return nil, err
	}
	p.Updated = dbtime.DBTimeData(dbtime.FromUnix(updated))
	return &p, nil
}
