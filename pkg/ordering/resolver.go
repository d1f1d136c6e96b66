package ordering

import (
	"context"
	"fmt"

	"github.com/the-dev-tools/kanban/pkg/idwrap"
	"github.com/the-dev-tools/kanban/pkg/rank"
)

// Hints carries the client's optional neighbor ids. After names the item
// that should end up above the moved item in display order (smaller key),
// Before the item that should end up below it (greater key). Ascending key
// is top-to-bottom.
type Hints struct {
	After  *idwrap.IDWrap
	Before *idwrap.IDWrap
}

// Resolver turns neighbor hints into authoritative boundary keys by reading
// the current order, instead of trusting the client's pair verbatim. Stale
// hints are tolerated: a hint naming a row no longer in the destination
// container is treated as absent.
type Resolver struct {
	store Store
}

func NewResolver(store Store) Resolver {
	return Resolver{store: store}
}

// Boundaries resolves the (lower, upper) keys the new rank key must fall
// between for moving into container c. A nil boundary means the container
// has no item on that side. moving is excluded everywhere, both as a hint
// (self-reference guard) and as a candidate neighbor row.
func (r Resolver) Boundaries(ctx context.Context, c ContainerRef, moving idwrap.IDWrap, h Hints) (lower, upper *uint64, err error) {
	after := h.After
	before := h.Before
	if after != nil && after.Compare(moving) == 0 {
		after = nil
	}
	if before != nil && before.Compare(moving) == 0 {
		before = nil
	}

	var aboveItem, belowItem *Item
	if after != nil {
		item, ok, err := r.store.ItemInContainer(ctx, c, *after)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve after hint: %w", err)
		}
		if ok {
			aboveItem = &item
		}
	}
	if before != nil {
		item, ok, err := r.store.ItemInContainer(ctx, c, *before)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve before hint: %w", err)
		}
		if ok {
			belowItem = &item
		}
	}

	switch {
	case aboveItem != nil && belowItem != nil:
		lo := rank.Decode(aboveItem.RankKey)
		up := rank.Decode(belowItem.RankKey)
		return &lo, &up, nil

	case aboveItem != nil:
		// Only the above neighbor is known. The real next-below item caps
		// the new key so it cannot drift past rows the client did not know
		// about.
		lo := rank.Decode(aboveItem.RankKey)
		next, ok, err := r.store.FirstAbove(ctx, c, aboveItem.RankKey, moving)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve next below: %w", err)
		}
		if !ok {
			return &lo, nil, nil
		}
		up := rank.Decode(next.RankKey)
		return &lo, &up, nil

	case belowItem != nil:
		up := rank.Decode(belowItem.RankKey)
		prev, ok, err := r.store.LastBelow(ctx, c, belowItem.RankKey, moving)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve prev above: %w", err)
		}
		if !ok {
			return nil, &up, nil
		}
		lo := rank.Decode(prev.RankKey)
		return &lo, &up, nil

	default:
		// No usable hint: append at the tail of the destination container.
		tail, ok, err := r.store.MaxKeyItem(ctx, c, moving)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve tail: %w", err)
		}
		if !ok {
			return nil, nil, nil
		}
		lo := rank.Decode(tail.RankKey)
		return &lo, nil, nil
	}
}
