package rank_test

import (
	"testing"

	"github.com/the-dev-tools/kanban/pkg/rank"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	assert.Equal(t, "0000000000000000", rank.Encode(0))
	assert.Equal(t, "0000000000000042", rank.Encode(42))
	assert.Equal(t, "9999999999999999", rank.Encode(rank.Max))
	// wider than Width keeps the least-significant digits
	assert.Equal(t, "0000000000000000", rank.Encode(10000000000000000))
	assert.Equal(t, "0000000000000005", rank.Encode(10000000000000005))
}

func TestDecode(t *testing.T) {
	assert.Equal(t, uint64(0), rank.Decode(""))
	assert.Equal(t, uint64(0), rank.Decode("0000000000000000"))
	assert.Equal(t, uint64(42), rank.Decode("0000000000000042"))
	assert.Equal(t, rank.Max, rank.Decode("9999999999999999"))
}

func TestEncodeDecodeOrder(t *testing.T) {
	// string order matches numeric order
	values := []uint64{0, 1, 41, 42, 500, rank.Max / 2, rank.Max - 1, rank.Max}
	for i := 1; i < len(values); i++ {
		assert.Less(t, rank.Encode(values[i-1]), rank.Encode(values[i]))
	}
}

func TestBetweenEndpoints(t *testing.T) {
	t.Run("BothAbsent", func(t *testing.T) {
		key, fellBack := rank.Between(nil, nil)
		require.False(t, fellBack)
		assert.Equal(t, rank.DefaultKey, key)

		again, _ := rank.Between(nil, nil)
		assert.Equal(t, key, again)
	})

	t.Run("OnlyUpper", func(t *testing.T) {
		upper := uint64(1000)
		key, fellBack := rank.Between(nil, &upper)
		require.False(t, fellBack)
		assert.Less(t, rank.Decode(key), upper)
		assert.Equal(t, uint64(500), rank.Decode(key))
	})

	t.Run("OnlyLower", func(t *testing.T) {
		lower := uint64(1000)
		key, fellBack := rank.Between(&lower, nil)
		require.False(t, fellBack)
		assert.Greater(t, rank.Decode(key), lower)
	})
}

func TestBetweenBetweenness(t *testing.T) {
	pairs := [][2]uint64{
		{0, 10},
		{10, 20},
		{41, 43},
		{0, rank.Max},
		{rank.Max - 2, rank.Max},
		{4999999999999999, 5000000000000001},
	}
	for _, p := range pairs {
		lo, up := p[0], p[1]
		key, fellBack := rank.Between(&lo, &up)
		require.False(t, fellBack)
		got := rank.Decode(key)
		assert.Greater(t, got, lo, "between(%d,%d)", lo, up)
		assert.Less(t, got, up, "between(%d,%d)", lo, up)
	}
}

func TestBetweenAdjacent(t *testing.T) {
	// no integer fits between adjacent values; the allocator bumps to
	// lower+1 and lets the uniqueness constraint catch the collision
	lo, up := uint64(41), uint64(42)
	key, fellBack := rank.Between(&lo, &up)
	require.False(t, fellBack)
	assert.Equal(t, up, rank.Decode(key))
}

func TestBetweenOutOfOrder(t *testing.T) {
	t.Run("Reversed", func(t *testing.T) {
		lo, up := uint64(100), uint64(50)
		key, fellBack := rank.Between(&lo, &up)
		assert.True(t, fellBack)
		assert.Greater(t, rank.Decode(key), lo)
	})

	t.Run("Equal", func(t *testing.T) {
		lo, up := uint64(100), uint64(100)
		key, fellBack := rank.Between(&lo, &up)
		assert.True(t, fellBack)
		assert.Greater(t, rank.Decode(key), lo)
	})
}

func TestAfter(t *testing.T) {
	key := rank.After(1000)
	assert.Greater(t, rank.Decode(key), uint64(1000))
	assert.Equal(t, rank.Width, len(key))
}
