// Package draw picks random winners from a collected list.
package draw

import (
	"errors"
	"math/rand"
	"time"
)

// ErrNoUsers is returned when there is nobody to draw from
var ErrNoUsers = errors.New("no users")

// Draw returns min(max(count, 1), len(users)) distinct entries chosen
// uniformly without replacement. users is not modified. A nil rng uses a
// time-seeded source.
func Draw[T any](users []T, count int, rng *rand.Rand) ([]T, error) {
	if len(users) == 0 {
		return nil, ErrNoUsers
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	k := count
	if k < 1 {
		k = 1
	}
	if k > len(users) {
		k = len(users)
	}

	pool := make([]T, len(users))
	copy(pool, users)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k:k], nil
}
