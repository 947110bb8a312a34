package engine

import (
	"errors"
	"math/rand"

	"antmania.io/internal/sim/world"
)

var ErrNoColonies = errors.New("no alive colonies to place ants")

// Ant is identified by its index in the pool. Dead ants stay in place so that
// indices remain valid for reporting.
type Ant struct {
	Colony int
	Moves  int
	Alive  bool
}

// SeedAnts places n ants uniformly over the live colonies of w, drawing from a
// single source seeded with seed.
func SeedAnts(w *world.World, n int, seed int64) ([]Ant, error) {
	if n <= 0 {
		return []Ant{}, nil
	}
	ids := w.AliveIDs()
	if len(ids) == 0 {
		return nil, ErrNoColonies
	}
	rng := rand.New(rand.NewSource(seed))
	ants := make([]Ant, n)
	for i := range ants {
		ants[i] = Ant{Colony: ids[rng.Intn(len(ids))], Alive: true}
	}
	return ants, nil
}
