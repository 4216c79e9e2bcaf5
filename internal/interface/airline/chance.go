package airline

import (
	"math/rand"
	"sync"
)

// Chance returns a number in [0, 1) for simulated channel outcomes
type Chance func() float64

// NewChance returns a goroutine-safe Chance seeded with seed
func NewChance(seed int64) Chance {
	var mu sync.Mutex
	r := rand.New(rand.NewSource(seed))
	return func() float64 {
		mu.Lock()
		defer mu.Unlock()
		return r.Float64()
	}
}
