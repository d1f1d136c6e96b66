package msection

import (
	"github.com/the-dev-tools/kanban/pkg/idwrap"
)

// Section is ordered within its project by RankKey.
type Section struct {
	ID        idwrap.IDWrap
	ProjectID idwrap.IDWrap
	Name      string
	RankKey   string
}
