package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/the-dev-tools/kanban/pkg/dbsetup"
	"github.com/the-dev-tools/kanban/pkg/idwrap"
	"github.com/the-dev-tools/kanban/pkg/logger/mocklogger"
	"github.com/the-dev-tools/kanban/pkg/model/mproject"
	"github.com/the-dev-tools/kanban/pkg/service/sproject"
	"github.com/the-dev-tools/kanban/pkg/service/ssection"
	"github.com/the-dev-tools/kanban/pkg/service/ssubtask"
	"github.com/the-dev-tools/kanban/pkg/service/stask"
)

type BaseDB struct {
	DB  *sql.DB
	t   *testing.T
	ctx context.Context
}

type BaseTestServices struct {
	DB  *sql.DB
	Ps  sproject.ProjectService
	Ses ssection.SectionService
	Ts  stask.TaskService
	Sts ssubtask.SubtaskService
}

func CreateBaseDB(ctx context.Context, t *testing.T) *BaseDB {
	db, err := dbsetup.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	if err := dbsetup.CreateTables(ctx, db); err != nil {
		t.Fatal(err)
	}
	return &BaseDB{DB: db, t: t, ctx: ctx}
}

func (b *BaseDB) GetBaseServices() BaseTestServices {
	logger, _ := mocklogger.NewMockLogger()
	return BaseTestServices{
		DB:  b.DB,
		Ps:  sproject.New(b.DB),
		Ses: ssection.New(b.DB, logger),
		Ts:  stask.New(b.DB, logger),
		Sts: ssubtask.New(b.DB, logger),
	}
}

// CreateProject inserts a project fixture and returns its id.
func (b *BaseDB) CreateProject(name string) idwrap.IDWrap {
	b.t.Helper()
	project := &mproject.Project{ID: idwrap.NewNow(), Name: name}
	if err := sproject.New(b.DB).Create(b.ctx, project); err != nil {
		b.t.Fatal(err)
	}
	return project.ID
}

func (b *BaseDB) Close() {
	if err := b.DB.Close(); err != nil {
		b.t.Error(err)
	}
}

func AssertFatal[c comparable](t *testing.T, expected, got c) {
	t.Helper()
	if got != expected {
		t.Fatalf("got %v, expected %v", got, expected)
	}
}

func Assert[c comparable](t *testing.T, expected, got c) {
	t.Helper()
	if got != expected {
		t.Errorf("got %v, expected %v", got, expected)
	}
}
