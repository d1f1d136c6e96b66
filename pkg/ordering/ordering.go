// Package ordering maintains the client-reorderable total order of one
// collection: sections within a project, tasks within a section or the
// unlocated bucket, subtasks within a task. Position is a fixed-width rank
// key (pkg/rank); moving an item allocates a fresh key between its resolved
// neighbors instead of renumbering siblings.
//
// The engine owns no state of its own. Each collection plugs in a Store
// scoped to one outer scope (a project, or an owning task) and the engine
// funnels every mutation through the store inside a single transaction,
// relying on the store's uniqueness constraint on (container, rank key) to
// detect concurrent movers.
package ordering

import (
	"context"
	"database/sql"

	"github.com/the-dev-tools/kanban/pkg/idwrap"
)

// ContainerRef identifies the bucket an ordered collection lives in within
// the store's outer scope. A nil ID is the scope's default bucket: the
// project itself for sections, the unlocated bucket for tasks, the owning
// task for subtasks.
type ContainerRef struct {
	ID *idwrap.IDWrap
}

// DefaultContainer is the scope's default bucket.
func DefaultContainer() ContainerRef {
	return ContainerRef{}
}

// Container is the bucket named by id.
func Container(id idwrap.IDWrap) ContainerRef {
	return ContainerRef{ID: &id}
}

func (c ContainerRef) Equal(o ContainerRef) bool {
	if c.ID == nil || o.ID == nil {
		return c.ID == nil && o.ID == nil
	}
	return c.ID.Compare(*o.ID) == 0
}

// Item is the engine's view of one ordered row.
type Item struct {
	ID        idwrap.IDWrap
	Container ContainerRef
	RankKey   string
}

// Store is the persistence capability the engine needs from a collection.
// Implementations are scoped to one outer scope; every query below sees only
// rows of that scope. Boundary queries exclude the item named by exclude so
// an item's own row never acts as its neighbor.
type Store interface {
	// Item loads an item by id from any container of the scope.
	Item(ctx context.Context, id idwrap.IDWrap) (Item, bool, error)

	// ItemInContainer loads an item only if it lives in the given container.
	ItemInContainer(ctx context.Context, c ContainerRef, id idwrap.IDWrap) (Item, bool, error)

	// FirstAbove returns the item with the smallest rank key strictly
	// greater than key in the container.
	FirstAbove(ctx context.Context, c ContainerRef, key string, exclude idwrap.IDWrap) (Item, bool, error)

	// LastBelow returns the item with the largest rank key strictly less
	// than key in the container.
	LastBelow(ctx context.Context, c ContainerRef, key string, exclude idwrap.IDWrap) (Item, bool, error)

	// MaxKeyItem returns the item with the greatest rank key in the container.
	MaxKeyItem(ctx context.Context, c ContainerRef, exclude idwrap.IDWrap) (Item, bool, error)

	// ContainerExists reports whether id names a container belonging to the scope.
	ContainerExists(ctx context.Context, id idwrap.IDWrap) (bool, error)

	// UpdatePlacement persists the item's container and rank key inside tx.
	UpdatePlacement(ctx context.Context, tx *sql.Tx, id idwrap.IDWrap, c ContainerRef, key string) error

	// IsConflict reports whether err is the uniqueness violation on
	// (container, rank key).
	IsConflict(err error) bool
}

// moveAttempts bounds the collision retry loop. Three attempts have been
// sufficient in practice; past that the conflict surfaces to the caller.
const moveAttempts = 3
