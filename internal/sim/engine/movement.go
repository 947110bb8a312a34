package engine

import (
	"math/rand"

	"golang.org/x/sync/errgroup"

	"antmania.io/internal/sim/world"
)

type moveStats struct {
	Moved    int
	Trapped  int
	Stranded int
}

func (s *moveStats) add(o moveStats) {
	s.Moved += o.Moved
	s.Trapped += o.Trapped
	s.Stranded += o.Stranded
}

// moveAnt advances one live ant by a single step. An ant standing on a
// destroyed colony dies instead of moving. An ant on a colony with no roads
// stays put but still spends the move.
func moveAnt(a *Ant, w *world.World, rng *rand.Rand, maxMoves int) (st moveStats) {
	if !w.Alive(a.Colony) {
		a.Alive = false
		st.Stranded = 1
		return st
	}
	if a.Moves < maxMoves {
		a.Moves++
	}
	out := w.Outgoing(a.Colony)
	if len(out) == 0 {
		st.Trapped = 1
		return st
	}
	a.Colony = out[rng.Intn(len(out))].To
	st.Moved = 1
	return st
}

func moveChunk(ants []Ant, w *world.World, rng *rand.Rand, maxMoves int) moveStats {
	var st moveStats
	for i := range ants {
		if !ants[i].Alive {
			continue
		}
		st.add(moveAnt(&ants[i], w, rng, maxMoves))
	}
	return st
}

// movementPhase runs every chunk on the bounded pool. Each task owns ants
// [k*ChunkSize, (k+1)*ChunkSize) and chunk k's random source; the world is
// only read. Per-chunk stats land in their own slot and are summed in chunk
// order once all tasks are done.
func (e *Engine) movementPhase() moveStats {
	n := len(e.ants)
	size := e.cfg.ChunkSize
	chunks := len(e.rngs)

	if chunks == 1 {
		return moveChunk(e.ants, e.world, e.rngs[0], e.cfg.MaxMoves)
	}

	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for k := 0; k < chunks; k++ {
		lo := k * size
		hi := min(lo+size, n)
		g.Go(func() error {
			e.chunkStats[k] = moveChunk(e.ants[lo:hi], e.world, e.rngs[k], e.cfg.MaxMoves)
			return nil
		})
	}
	_ = g.Wait()

	var total moveStats
	for k := range e.chunkStats {
		total.add(e.chunkStats[k])
	}
	return total
}

func chunkCount(n, size int) int {
	if n == 0 {
		return 0
	}
	return (n + size - 1) / size
}

func chunkRNGs(chunks int, base int64) []*rand.Rand {
	rngs := make([]*rand.Rand, chunks)
	for k := range rngs {
		rngs[k] = rand.New(rand.NewSource(int64(k) + base))
	}
	return rngs
}
