package search

import (
	"math/rand"
	"sync"
	"time"
)

var (
	defaultRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randLock    sync.Mutex
)

// Sample picks desired distinct elements of candidates uniformly at random,
// without replacement. If there are no more candidates than desired, all of
// them are returned in random order. The candidates slice is never modified.
// A nil rnd uses a shared, time-seeded source.
func Sample[T any](candidates []T, desired int, rnd *rand.Rand) []T {
	count := min(desired, len(candidates))
	if count <= 0 {
		return []T{}
	}
	if rnd == nil {
		randLock.Lock()
		defer randLock.Unlock()
		rnd = defaultRand
	}
	pool := make([]T, len(candidates))
	copy(pool, candidates)

	picked := make([]T, 0, count)
	for i := 0; i < count; i++ {
		idx := rnd.Intn(len(pool))
		picked = append(picked, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return picked
}
