package ordering

import (
	"context"
	"fmt"

	"github.com/the-dev-tools/kanban/pkg/idwrap"
	"github.com/the-dev-tools/kanban/pkg/rank"
)

// Appender allocates tail keys for brand-new items: a new section at the
// bottom of its project, a new task at the bottom of its bucket.
type Appender struct {
	store Store
}

func NewAppender(store Store) Appender {
	return Appender{store: store}
}

// Append computes the tail key of container c and hands it to insert, which
// performs the actual transactional write. When insert reports a uniqueness
// conflict the tail has moved under us; the max key is re-read and insert
// runs again, bounded at the usual attempt count. newID is the id the caller
// will insert under, so the row cannot shadow itself between attempts.
func (a Appender) Append(ctx context.Context, c ContainerRef, newID idwrap.IDWrap, insert func(ctx context.Context, key string) error) (string, error) {
	for attempt := 0; attempt < moveAttempts; attempt++ {
		tail, ok, err := a.store.MaxKeyItem(ctx, c, newID)
		if err != nil {
			return "", fmt.Errorf("read tail: %w", err)
		}
		key := rank.DefaultKey
		if ok {
			key = rank.After(rank.Decode(tail.RankKey))
		}

		err = insert(ctx, key)
		if err == nil {
			return key, nil
		}
		if !a.store.IsConflict(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("append exhausted retries: %w", ErrConflict)
}
