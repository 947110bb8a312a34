package engine

import (
	"context"
	"math/rand"
	"time"

	"antmania.io/internal/sim/world"
)

type Outcome int

const (
	OutcomeRunning Outcome = iota
	OutcomeAllDead
	OutcomeMaxMovesReached
	OutcomeStopped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRunning:
		return "RUNNING"
	case OutcomeAllDead:
		return "ALL_DEAD"
	case OutcomeMaxMovesReached:
		return "MAX_MOVES_REACHED"
	case OutcomeStopped:
		return "STOPPED"
	}
	return "UNKNOWN"
}

type Result struct {
	Outcome       Outcome
	Ticks         uint64
	Alive         int
	Dead          int
	Destroyed     int
	ColoniesAlive int
	Elapsed       time.Duration
}

// Engine owns a world and its ant pool and advances them tick by tick:
// movement (parallel over chunks), collision detection, cleanup. Only
// movement runs concurrently; everything else happens on the caller's
// goroutine.
type Engine struct {
	cfg   Config
	runID string

	world *world.World
	ants  []Ant

	rngs       []*rand.Rand
	chunkStats []moveStats
	occ        *Occupancy
	doomed     []int

	tick      uint64
	destroyed int
	outcome   Outcome

	destructionLogger DestructionLogger
	tickLogger        TickLogger
}

func New(w *world.World, ants []Ant, cfg Config) *Engine {
	cfg.normalize()
	chunks := chunkCount(len(ants), cfg.ChunkSize)
	return &Engine{
		cfg:        cfg,
		world:      w,
		ants:       ants,
		rngs:       chunkRNGs(chunks, cfg.MoveSeedBase),
		chunkStats: make([]moveStats, chunks),
		occ:        newOccupancy(w.Len()),
	}
}

func (e *Engine) SetRunID(id string)                       { e.runID = id }
func (e *Engine) SetDestructionLogger(l DestructionLogger) { e.destructionLogger = l }
func (e *Engine) SetTickLogger(l TickLogger)               { e.tickLogger = l }

func (e *Engine) RunID() string       { return e.runID }
func (e *Engine) Config() Config      { return e.cfg }
func (e *Engine) World() *world.World { return e.world }
func (e *Engine) CurrentTick() uint64 { return e.tick }
func (e *Engine) Outcome() Outcome    { return e.outcome }

// Ants exposes the pool read-only; callers must not modify it.
func (e *Engine) Ants() []Ant { return e.ants }

// Step runs one full tick and returns the resulting state. Once a terminal
// outcome is reached Step does nothing.
func (e *Engine) Step() Outcome {
	if e.outcome != OutcomeRunning {
		return e.outcome
	}
	if e.tick == 0 && len(e.ants) == 0 {
		e.outcome = OutcomeAllDead
		return e.outcome
	}

	tick := e.tick
	ms := e.movementPhase()
	detectCollisions(e.ants, e.occ)
	_, destroyed := e.cleanupPhase(tick)
	e.tick++
	e.destroyed += len(destroyed)

	if e.destructionLogger != nil {
		for _, d := range destroyed {
			_ = e.destructionLogger.WriteDestruction(d)
		}
	}

	alive, atCap := e.census()
	switch {
	case alive == 0:
		e.outcome = OutcomeAllDead
	case atCap:
		e.outcome = OutcomeMaxMovesReached
	}

	if e.tickLogger != nil && (e.outcome != OutcomeRunning || tick%uint64(e.cfg.LogEveryTicks) == 0) {
		entry := TickLogEntry{
			RunID:    e.runID,
			Tick:     tick,
			Alive:    alive,
			Dead:     len(e.ants) - alive,
			Moved:    ms.Moved,
			Trapped:  ms.Trapped,
			Stranded: ms.Stranded,
			Digest:   e.Digest(),
		}
		for _, d := range destroyed {
			entry.Destroyed = append(entry.Destroyed, d.Colony)
		}
		_ = e.tickLogger.WriteTick(entry)
	}
	return e.outcome
}

// census counts live ants and reports whether all of them are at the move cap.
func (e *Engine) census() (alive int, atCap bool) {
	atCap = true
	for i := range e.ants {
		if !e.ants[i].Alive {
			continue
		}
		alive++
		if e.ants[i].Moves < e.cfg.MaxMoves {
			atCap = false
		}
	}
	return alive, atCap
}

// Run ticks until a terminal outcome. ctx and MaxTicks are only checked
// between ticks; a tick in progress always completes.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	var err error
	for e.outcome == OutcomeRunning {
		if err = ctx.Err(); err != nil {
			e.outcome = OutcomeStopped
			break
		}
		if e.cfg.MaxTicks > 0 && e.tick >= e.cfg.MaxTicks {
			e.outcome = OutcomeStopped
			break
		}
		e.Step()
	}
	res := e.Result()
	res.Elapsed = time.Since(start)
	return res, err
}

func (e *Engine) Result() Result {
	alive, _ := e.census()
	return Result{
		Outcome:       e.outcome,
		Ticks:         e.tick,
		Alive:         alive,
		Dead:          len(e.ants) - alive,
		Destroyed:     e.destroyed,
		ColoniesAlive: e.world.AliveCount(),
	}
}
