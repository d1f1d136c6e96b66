package mproject

import (
	"github.com/the-dev-tools/kanban/pkg/dbtime"
	"github.com/the-dev-tools/kanban/pkg/idwrap"
)

type Project struct {
	ID      idwrap.IDWrap
	Name    string
	Updated dbtime.DBTimeData
}
