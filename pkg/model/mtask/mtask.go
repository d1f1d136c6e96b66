package mtask

import (
	"github.com/the-dev-tools/kanban/pkg/idwrap"
)

// Task is ordered by RankKey within its section, or within the project's
// unlocated bucket when SectionID is nil.
type Task struct {
	ID        idwrap.IDWrap
	ProjectID idwrap.IDWrap
	SectionID *idwrap.IDWrap
	Name      string
	RankKey   string
}
