package ordering

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/the-dev-tools/kanban/pkg/idwrap"
	"github.com/the-dev-tools/kanban/pkg/rank"
)

type containerChangeKind int8

const (
	containerNoChange containerChangeKind = iota
	containerToDefault
	containerTo
)

// ContainerChange is the tri-state destination of a move. On the wire the
// three states are carried by field presence (absent, explicit null, id);
// the transport layer converts presence into this variant so the engine
// never inspects raw payloads.
type ContainerChange struct {
	kind containerChangeKind
	id   idwrap.IDWrap
}

// NoChange reorders within the item's current container.
func NoChange() ContainerChange {
	return ContainerChange{kind: containerNoChange}
}

// ToDefault moves the item to the scope's default (unlocated) bucket.
func ToDefault() ContainerChange {
	return ContainerChange{kind: containerToDefault}
}

// To moves the item into the named container.
func To(id idwrap.IDWrap) ContainerChange {
	return ContainerChange{kind: containerTo, id: id}
}

// MoveRequest is a single move of one item.
type MoveRequest struct {
	Container ContainerChange
	Hints     Hints
}

// Coordinator orchestrates one move: destination selection, neighbor
// resolution, key allocation, no-op detection, and the bounded collision
// retry around the transactional write.
type Coordinator struct {
	db     *sql.DB
	store  Store
	logger *slog.Logger
}

func NewCoordinator(db *sql.DB, store Store, logger *slog.Logger) Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return Coordinator{db: db, store: store, logger: logger}
}

// Move places the item and returns its updated placement. The item must
// exist in the store's scope and a named destination container must belong
// to the same scope; both fail with ErrNotFound otherwise. A collision that
// survives all retry attempts fails with ErrConflict.
func (co Coordinator) Move(ctx context.Context, itemID idwrap.IDWrap, req MoveRequest) (Item, error) {
	item, ok, err := co.store.Item(ctx, itemID)
	if err != nil {
		return Item{}, fmt.Errorf("load item: %w", err)
	}
	if !ok {
		return Item{}, fmt.Errorf("item %s: %w", itemID.String(), ErrNotFound)
	}

	dest, err := co.destination(ctx, item, req.Container)
	if err != nil {
		return Item{}, err
	}

	for attempt := 0; attempt < moveAttempts; attempt++ {
		lower, upper, err := NewResolver(co.store).Boundaries(ctx, dest, itemID, req.Hints)
		if err != nil {
			return Item{}, err
		}
		key, fellBack := rank.Between(lower, upper)
		if fellBack {
			co.logger.Warn("rank boundaries out of order, falling back toward max",
				"item", itemID.String(), "attempt", attempt)
		}

		if dest.Equal(item.Container) && key == item.RankKey {
			// Already in place. No write, no event.
			return item, nil
		}

		err = co.apply(ctx, itemID, dest, key)
		if err == nil {
			return Item{ID: itemID, Container: dest, RankKey: key}, nil
		}
		if !co.store.IsConflict(err) {
			return Item{}, fmt.Errorf("apply move: %w", err)
		}
		co.logger.Info("rank key collision, retrying with fresh boundaries",
			"item", itemID.String(), "key", key, "attempt", attempt)
	}
	return Item{}, fmt.Errorf("move of %s exhausted retries: %w", itemID.String(), ErrConflict)
}

func (co Coordinator) destination(ctx context.Context, item Item, change ContainerChange) (ContainerRef, error) {
	switch change.kind {
	case containerNoChange:
		return item.Container, nil
	case containerToDefault:
		return DefaultContainer(), nil
	case containerTo:
		ok, err := co.store.ContainerExists(ctx, change.id)
		if err != nil {
			return ContainerRef{}, fmt.Errorf("check container: %w", err)
		}
		if !ok {
			return ContainerRef{}, fmt.Errorf("container %s: %w", change.id.String(), ErrNotFound)
		}
		return Container(change.id), nil
	default:
		return ContainerRef{}, fmt.Errorf("container change kind %d: %w", change.kind, ErrInvalidIdentifier)
	}
}

func (co Coordinator) apply(ctx context.Context, itemID idwrap.IDWrap, dest ContainerRef, key string) error {
	tx, err := co.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := co.store.UpdatePlacement(ctx, tx, itemID, dest, key); err != nil {
		return err
	}
	return tx.Commit()
}
