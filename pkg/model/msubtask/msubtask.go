package msubtask

import (
	"github.com/the-dev-tools/kanban/pkg/idwrap"
)

// Subtask is ordered by RankKey within its owning task. The owning task is
// fixed at creation and never changes on move.
type Subtask struct {
	ID      idwrap.IDWrap
	TaskID  idwrap.IDWrap
	Name    string
	RankKey string
}
