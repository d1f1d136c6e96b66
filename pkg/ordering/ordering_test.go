package ordering_test

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sort"
	"testing"

	"github.com/the-dev-tools/kanban/pkg/idwrap"
	"github.com/the-dev-tools/kanban/pkg/logger/mocklogger"
	"github.com/the-dev-tools/kanban/pkg/ordering"
	"github.com/the-dev-tools/kanban/pkg/rank"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var errFakeConflict = errors.New("unique constraint violated")

// fakeStore keeps one scope's items in memory. Coordinator still needs a
// real *sql.DB for its transaction envelope, so tests pair it with an empty
// in-memory sqlite handle.
type fakeStore struct {
	items      map[string]ordering.Item
	containers map[string]bool

	updates       int
	conflictTimes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:      map[string]ordering.Item{},
		containers: map[string]bool{},
	}
}

func (s *fakeStore) add(item ordering.Item) {
	s.items[item.ID.String()] = item
}

func (s *fakeStore) Item(ctx context.Context, id idwrap.IDWrap) (ordering.Item, bool, error) {
	item, ok := s.items[id.String()]
	return item, ok, nil
}

func (s *fakeStore) ItemInContainer(ctx context.Context, c ordering.ContainerRef, id idwrap.IDWrap) (ordering.Item, bool, error) {
	item, ok := s.items[id.String()]
	if !ok || !item.Container.Equal(c) {
		return ordering.Item{}, false, nil
	}
	return item, true, nil
}

func (s *fakeStore) inContainer(c ordering.ContainerRef, exclude idwrap.IDWrap) []ordering.Item {
	var out []ordering.Item
	for _, item := range s.items {
		if item.Container.Equal(c) && item.ID.Compare(exclude) != 0 {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RankKey < out[j].RankKey })
	return out
}

func (s *fakeStore) FirstAbove(ctx context.Context, c ordering.ContainerRef, key string, exclude idwrap.IDWrap) (ordering.Item, bool, error) {
	for _, item := range s.inContainer(c, exclude) {
		if item.RankKey > key {
			return item, true, nil
		}
	}
	return ordering.Item{}, false, nil
}

func (s *fakeStore) LastBelow(ctx context.Context, c ordering.ContainerRef, key string, exclude idwrap.IDWrap) (ordering.Item, bool, error) {
	items := s.inContainer(c, exclude)
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].RankKey < key {
			return items[i], true, nil
		}
	}
	return ordering.Item{}, false, nil
}

func (s *fakeStore) MaxKeyItem(ctx context.Context, c ordering.ContainerRef, exclude idwrap.IDWrap) (ordering.Item, bool, error) {
	items := s.inContainer(c, exclude)
	if len(items) == 0 {
		return ordering.Item{}, false, nil
	}
	return items[len(items)-1], true, nil
}

func (s *fakeStore) ContainerExists(ctx context.Context, id idwrap.IDWrap) (bool, error) {
	return s.containers[id.String()], nil
}

func (s *fakeStore) UpdatePlacement(ctx context.Context, tx *sql.Tx, id idwrap.IDWrap, c ordering.ContainerRef, key string) error {
	s.updates++
	if s.conflictTimes > 0 {
		s.conflictTimes--
		return errFakeConflict
	}
	for _, other := range s.inContainer(c, id) {
		if other.RankKey == key {
			return errFakeConflict
		}
	}
	item := s.items[id.String()]
	item.Container = c
	item.RankKey = key
	s.items[id.String()] = item
	return nil
}

func (s *fakeStore) IsConflict(err error) bool {
	return errors.Is(err, errFakeConflict)
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func key(v uint64) string { return rank.Encode(v) }

func TestResolverBoundaries(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	a := idwrap.NewNow()
	b := idwrap.NewNow()
	c := idwrap.NewNow()
	d := idwrap.NewNow()
	bucket := ordering.DefaultContainer()

	store.add(ordering.Item{ID: a, Container: bucket, RankKey: key(10)})
	store.add(ordering.Item{ID: b, Container: bucket, RankKey: key(20)})
	store.add(ordering.Item{ID: c, Container: bucket, RankKey: key(30)})

	resolver := ordering.NewResolver(store)

	t.Run("BothNeighbors", func(t *testing.T) {
		lower, upper, err := resolver.Boundaries(ctx, bucket, d, ordering.Hints{After: &a, Before: &b})
		require.NoError(t, err)
		require.NotNil(t, lower)
		require.NotNil(t, upper)
		assert.Equal(t, uint64(10), *lower)
		assert.Equal(t, uint64(20), *upper)
	})

	t.Run("OnlyAboveCapsAtTrueNext", func(t *testing.T) {
		// the client knows A but not B; the true next row still bounds the key
		lower, upper, err := resolver.Boundaries(ctx, bucket, d, ordering.Hints{After: &a})
		require.NoError(t, err)
		require.NotNil(t, lower)
		require.NotNil(t, upper)
		assert.Equal(t, uint64(10), *lower)
		assert.Equal(t, uint64(20), *upper)
	})

	t.Run("OnlyBelowFloorsAtTruePrev", func(t *testing.T) {
		lower, upper, err := resolver.Boundaries(ctx, bucket, d, ordering.Hints{Before: &c})
		require.NoError(t, err)
		require.NotNil(t, lower)
		require.NotNil(t, upper)
		assert.Equal(t, uint64(20), *lower)
		assert.Equal(t, uint64(30), *upper)
	})

	t.Run("NoHintsAppendsAtTail", func(t *testing.T) {
		lower, upper, err := resolver.Boundaries(ctx, bucket, d, ordering.Hints{})
		require.NoError(t, err)
		require.NotNil(t, lower)
		assert.Nil(t, upper)
		assert.Equal(t, uint64(30), *lower)
	})

	t.Run("SelfReferenceTreatedAsAbsent", func(t *testing.T) {
		lower, upper, err := resolver.Boundaries(ctx, bucket, a, ordering.Hints{After: &a, Before: &a})
		require.NoError(t, err)
		require.NotNil(t, lower)
		assert.Nil(t, upper)
		// tail of the container excluding A itself
		assert.Equal(t, uint64(30), *lower)
	})

	t.Run("StaleHintTreatedAsAbsent", func(t *testing.T) {
		gone := idwrap.NewNow()
		lower, upper, err := resolver.Boundaries(ctx, bucket, d, ordering.Hints{After: &gone})
		require.NoError(t, err)
		require.NotNil(t, lower)
		assert.Nil(t, upper)
		assert.Equal(t, uint64(30), *lower)
	})

	t.Run("EmptyContainer", func(t *testing.T) {
		other := ordering.Container(idwrap.NewNow())
		lower, upper, err := resolver.Boundaries(ctx, other, d, ordering.Hints{})
		require.NoError(t, err)
		assert.Nil(t, lower)
		assert.Nil(t, upper)
	})

	t.Run("MovedItemNeverItsOwnNeighbor", func(t *testing.T) {
		// D currently sits right after A; resolving "after A" must skip D's
		// own row and cap at B instead
		store.add(ordering.Item{ID: d, Container: bucket, RankKey: key(15)})
		defer delete(store.items, d.String())

		lower, upper, err := resolver.Boundaries(ctx, bucket, d, ordering.Hints{After: &a})
		require.NoError(t, err)
		require.NotNil(t, lower)
		require.NotNil(t, upper)
		assert.Equal(t, uint64(10), *lower)
		assert.Equal(t, uint64(20), *upper)
	})
}

func TestCoordinatorMove(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fakeStore, ordering.Coordinator, [4]idwrap.IDWrap) {
		store := newFakeStore()
		db := openTestDB(t)
		coord := ordering.NewCoordinator(db, store, nil)

		ids := [4]idwrap.IDWrap{idwrap.NewNow(), idwrap.NewNow(), idwrap.NewNow(), idwrap.NewNow()}
		bucket := ordering.DefaultContainer()
		store.add(ordering.Item{ID: ids[0], Container: bucket, RankKey: key(10)})
		store.add(ordering.Item{ID: ids[1], Container: bucket, RankKey: key(20)})
		store.add(ordering.Item{ID: ids[2], Container: bucket, RankKey: key(30)})
		store.add(ordering.Item{ID: ids[3], Container: bucket, RankKey: key(40)})
		return store, coord, ids
	}

	t.Run("InsertBetween", func(t *testing.T) {
		store, coord, ids := setup(t)
		moved, err := coord.Move(ctx, ids[3], ordering.MoveRequest{
			Container: ordering.NoChange(),
			Hints:     ordering.Hints{After: &ids[0], Before: &ids[1]},
		})
		require.NoError(t, err)
		assert.Equal(t, key(15), moved.RankKey)
		assert.Equal(t, 1, store.updates)
	})

	t.Run("NoOpSkipsWrite", func(t *testing.T) {
		store, coord, ids := setup(t)
		// B already sits between A and C with the key the allocator computes
		store.add(ordering.Item{ID: ids[1], Container: ordering.DefaultContainer(), RankKey: key(20)})
		moved, err := coord.Move(ctx, ids[1], ordering.MoveRequest{
			Container: ordering.NoChange(),
			Hints:     ordering.Hints{After: &ids[0], Before: &ids[2]},
		})
		require.NoError(t, err)
		assert.Equal(t, key(20), moved.RankKey)
		assert.Equal(t, 0, store.updates)
	})

	t.Run("RepeatedMoveIsIdempotent", func(t *testing.T) {
		store, coord, ids := setup(t)
		req := ordering.MoveRequest{
			Container: ordering.NoChange(),
			Hints:     ordering.Hints{After: &ids[1], Before: &ids[2]},
		}
		first, err := coord.Move(ctx, ids[3], req)
		require.NoError(t, err)
		assert.Equal(t, 1, store.updates)

		second, err := coord.Move(ctx, ids[3], req)
		require.NoError(t, err)
		assert.Equal(t, first.RankKey, second.RankKey)
		assert.Equal(t, 1, store.updates, "second identical move must not write")
	})

	t.Run("MoveToContainer", func(t *testing.T) {
		store, coord, ids := setup(t)
		section := idwrap.NewNow()
		store.containers[section.String()] = true

		moved, err := coord.Move(ctx, ids[0], ordering.MoveRequest{
			Container: ordering.To(section),
		})
		require.NoError(t, err)
		require.NotNil(t, moved.Container.ID)
		assert.Equal(t, 0, moved.Container.ID.Compare(section))
		assert.Equal(t, rank.DefaultKey, moved.RankKey)
	})

	t.Run("MoveToDefaultFromContainer", func(t *testing.T) {
		store, coord, _ := setup(t)
		section := idwrap.NewNow()
		store.containers[section.String()] = true
		inSection := idwrap.NewNow()
		store.add(ordering.Item{ID: inSection, Container: ordering.Container(section), RankKey: key(10)})

		moved, err := coord.Move(ctx, inSection, ordering.MoveRequest{
			Container: ordering.ToDefault(),
		})
		require.NoError(t, err)
		assert.Nil(t, moved.Container.ID)
		assert.Greater(t, rank.Decode(moved.RankKey), uint64(40), "appends after the bucket tail")
	})

	t.Run("UnknownContainerFails", func(t *testing.T) {
		_, coord, ids := setup(t)
		_, err := coord.Move(ctx, ids[0], ordering.MoveRequest{
			Container: ordering.To(idwrap.NewNow()),
		})
		assert.ErrorIs(t, err, ordering.ErrNotFound)
	})

	t.Run("UnknownItemFails", func(t *testing.T) {
		_, coord, _ := setup(t)
		_, err := coord.Move(ctx, idwrap.NewNow(), ordering.MoveRequest{Container: ordering.NoChange()})
		assert.ErrorIs(t, err, ordering.ErrNotFound)
	})

	t.Run("ConflictRetriesWithFreshBoundaries", func(t *testing.T) {
		store, coord, ids := setup(t)
		store.conflictTimes = 2

		moved, err := coord.Move(ctx, ids[3], ordering.MoveRequest{
			Container: ordering.NoChange(),
			Hints:     ordering.Hints{After: &ids[0], Before: &ids[1]},
		})
		require.NoError(t, err)
		assert.Equal(t, key(15), moved.RankKey)
		assert.Equal(t, 3, store.updates)
	})

	t.Run("ConflictPastRetryBoundSurfaces", func(t *testing.T) {
		store, coord, ids := setup(t)
		store.conflictTimes = 3

		_, err := coord.Move(ctx, ids[3], ordering.MoveRequest{
			Container: ordering.NoChange(),
			Hints:     ordering.Hints{After: &ids[0], Before: &ids[1]},
		})
		assert.ErrorIs(t, err, ordering.ErrConflict)
	})
}

func TestAppender(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyContainerGetsDefaultKey", func(t *testing.T) {
		store := newFakeStore()
		var gotKey string
		keyOut, err := ordering.NewAppender(store).Append(ctx, ordering.DefaultContainer(), idwrap.NewNow(),
			func(ctx context.Context, key string) error {
				gotKey = key
				return nil
			})
		require.NoError(t, err)
		assert.Equal(t, rank.DefaultKey, keyOut)
		assert.Equal(t, rank.DefaultKey, gotKey)
	})

	t.Run("AppendsAfterTail", func(t *testing.T) {
		store := newFakeStore()
		tail := idwrap.NewNow()
		store.add(ordering.Item{ID: tail, Container: ordering.DefaultContainer(), RankKey: rank.DefaultKey})

		keyOut, err := ordering.NewAppender(store).Append(ctx, ordering.DefaultContainer(), idwrap.NewNow(),
			func(ctx context.Context, key string) error { return nil })
		require.NoError(t, err)
		assert.Greater(t, rank.Decode(keyOut), rank.Decode(rank.DefaultKey))
	})

	t.Run("ConflictRefetchesTail", func(t *testing.T) {
		store := newFakeStore()
		tail := idwrap.NewNow()
		bucket := ordering.DefaultContainer()
		store.add(ordering.Item{ID: tail, Container: bucket, RankKey: key(100)})

		calls := 0
		keyOut, err := ordering.NewAppender(store).Append(ctx, bucket, idwrap.NewNow(),
			func(ctx context.Context, k string) error {
				calls++
				if calls == 1 {
					// a concurrent append claimed this key first
					racer := idwrap.NewNow()
					store.add(ordering.Item{ID: racer, Container: bucket, RankKey: k})
					return errFakeConflict
				}
				return nil
			})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		racerKey := rank.After(100)
		assert.Greater(t, rank.Decode(keyOut), rank.Decode(racerKey))
	})

	t.Run("ConflictPastBoundSurfaces", func(t *testing.T) {
		store := newFakeStore()
		_, err := ordering.NewAppender(store).Append(ctx, ordering.DefaultContainer(), idwrap.NewNow(),
			func(ctx context.Context, key string) error { return errFakeConflict })
		assert.ErrorIs(t, err, ordering.ErrConflict)
	})
}

func TestCoordinatorLogsOutOfOrderFallback(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	db := openTestDB(t)
	logger, handler := mocklogger.NewMockLogger()
	coord := ordering.NewCoordinator(db, store, logger)

	bucket := ordering.DefaultContainer()
	a := idwrap.NewNow()
	b := idwrap.NewNow()
	moving := idwrap.NewNow()
	store.add(ordering.Item{ID: a, Container: bucket, RankKey: key(10)})
	store.add(ordering.Item{ID: b, Container: bucket, RankKey: key(20)})
	store.add(ordering.Item{ID: moving, Container: bucket, RankKey: key(30)})

	// hints swapped: the named above-neighbor actually sits below the named
	// below-neighbor, so the allocator ignores the upper bound
	moved, err := coord.Move(ctx, moving, ordering.MoveRequest{
		Container: ordering.NoChange(),
		Hints:     ordering.Hints{After: &b, Before: &a},
	})
	require.NoError(t, err)
	assert.Equal(t, key((20+rank.Max)/2), moved.RankKey)
	assert.Equal(t, 1, store.updates)

	assert.Contains(t, handler.Messages(), "rank boundaries out of order, falling back toward max")
	assert.Contains(t, handler.LoggedLevels, slog.LevelWarn)
}
