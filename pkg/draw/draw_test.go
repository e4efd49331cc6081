package draw

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawBounds(t *testing.T) {
	users := []string{"a", "b", "c", "d", "e"}

	tests := []struct {
		count int
		want  int
	}{
		{-3, 1},
		{0, 1},
		{1, 1},
		{3, 3},
		{5, 5},
		{50, 5},
	}

	for _, tt := range tests {
		winners, err := Draw(users, tt.count, rand.New(rand.NewSource(1)))
		require.NoError(t, err)
		assert.Len(t, winners, tt.want, "count %d", tt.count)
	}
}

func TestDrawDistinctSubset(t *testing.T) {
	users := []string{"a", "b", "c", "d", "e", "f", "g"}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 100; i++ {
		winners, err := Draw(users, 4, rng)
		require.NoError(t, err)

		seen := map[string]bool{}
		for _, w := range winners {
			assert.Contains(t, users, w)
			assert.False(t, seen[w], "duplicate winner %s", w)
			seen[w] = true
		}
	}
}

func TestDrawDoesNotMutateInput(t *testing.T) {
	users := []int{1, 2, 3, 4, 5}
	_, err := Draw(users, 5, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, users)
}

func TestDrawEmpty(t *testing.T) {
	_, err := Draw([]string{}, 1, nil)
	assert.ErrorIs(t, err, ErrNoUsers)

	_, err = Draw[string](nil, 3, nil)
	assert.ErrorIs(t, err, ErrNoUsers)
}

func TestDrawCoversEveryone(t *testing.T) {
	users := []string{"a", "b", "c"}
	rng := rand.New(rand.NewSource(3))
	counts := map[string]int{}

	for i := 0; i < 300; i++ {
		winners, err := Draw(users, 1, rng)
		require.NoError(t, err)
		counts[winners[0]]++
	}
	for _, u := range users {
		assert.Greater(t, counts[u], 50, "user %s drawn too rarely", u)
	}
}
