package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"antmania.io/internal/sim/world"
)

func mustParse(t testing.TB, s string) *world.World {
	t.Helper()
	w, err := world.ParseString(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return w
}

// gridMap builds an n x n torus where every colony has all four roads.
func gridMap(n int) string {
	name := func(x, y int) string { return fmt.Sprintf("C%d_%d", (x+n)%n, (y+n)%n) }
	var sb strings.Builder
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			fmt.Fprintf(&sb, "%s north=%s south=%s east=%s west=%s\n",
				name(x, y), name(x, y-1), name(x, y+1), name(x+1, y), name(x-1, y))
		}
	}
	return sb.String()
}

func placed(colony int, n int) []Ant {
	ants := make([]Ant, n)
	for i := range ants {
		ants[i] = Ant{Colony: colony, Alive: true}
	}
	return ants
}

type captureLogger struct {
	destructions []DestructionEntry
	ticks        []TickLogEntry
}

func (c *captureLogger) WriteDestruction(e DestructionEntry) error {
	c.destructions = append(c.destructions, e)
	return nil
}

func (c *captureLogger) WriteTick(e TickLogEntry) error {
	c.ticks = append(c.ticks, e)
	return nil
}

func TestEngine_TwoAntsMeet(t *testing.T) {
	w := mustParse(t, "A south=B\nB north=A\n")
	a, _ := w.Lookup("A")

	var out bytes.Buffer
	e := New(w, placed(a, 2), DefaultConfig())
	e.SetDestructionLogger(NewLineLogger(&out))

	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := out.String(); got != "B has been destroyed by ant 0 and ant 1!\n" {
		t.Fatalf("output=%q", got)
	}
	if res.Outcome != OutcomeAllDead || res.Ticks != 1 || res.Dead != 2 || res.Destroyed != 1 || res.ColoniesAlive != 1 {
		t.Fatalf("result=%+v", res)
	}
	if got := w.RenderString(); got != "A\n" {
		t.Fatalf("render=%q want %q", got, "A\n")
	}
	if err := w.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestEngine_TrappedAntHitsMoveCap(t *testing.T) {
	w := mustParse(t, "A\n")
	cfg := DefaultConfig()
	cfg.MaxMoves = 5
	e := New(w, placed(0, 1), cfg)

	res, _ := e.Run(context.Background())
	if res.Outcome != OutcomeMaxMovesReached || res.Ticks != 5 || res.Alive != 1 {
		t.Fatalf("result=%+v", res)
	}
	if e.Ants()[0].Moves != 5 || e.Ants()[0].Colony != 0 {
		t.Fatalf("ant=%+v", e.Ants()[0])
	}
	if got := w.RenderString(); got != "A\n" {
		t.Fatalf("render=%q", got)
	}
}

func TestEngine_DefaultMoveCap(t *testing.T) {
	w := mustParse(t, "A east=B\nB west=A\n")
	e := New(w, placed(0, 1), DefaultConfig())
	res, _ := e.Run(context.Background())
	if res.Outcome != OutcomeMaxMovesReached || res.Ticks != DefaultMaxMoves {
		t.Fatalf("result=%+v", res)
	}
}

func TestEngine_SingleAntNeverCollides(t *testing.T) {
	w := mustParse(t, gridMap(4))
	ants, err := SeedAnts(w, 1, DefaultSpawnSeed)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	cfg := DefaultConfig()
	cfg.MaxMoves = 200
	res, _ := New(w, ants, cfg).Run(context.Background())
	if res.Destroyed != 0 || res.Alive != 1 || res.Outcome != OutcomeMaxMovesReached {
		t.Fatalf("result=%+v", res)
	}
}

func TestEngine_AntOnDestroyedColonyDies(t *testing.T) {
	w := mustParse(t, "A east=B\nB\nC\n")
	ants := []Ant{
		{Colony: 0, Moves: 3, Alive: true},
		{Colony: 2, Alive: true},
	}
	log := &captureLogger{}
	e := New(w, ants, DefaultConfig())
	e.SetTickLogger(log)
	w.DestroyColony(0)

	if got := e.Step(); got != OutcomeRunning {
		t.Fatalf("outcome=%s want RUNNING", got)
	}
	if a := e.Ants()[0]; a.Alive || a.Moves != 3 || a.Colony != 0 {
		t.Fatalf("stranded ant=%+v want dead at colony 0 with 3 moves", a)
	}
	if a := e.Ants()[1]; !a.Alive || a.Moves != 1 {
		t.Fatalf("trapped ant=%+v", a)
	}
	if len(log.ticks) != 1 {
		t.Fatalf("tick entries=%d want 1", len(log.ticks))
	}
	if tk := log.ticks[0]; tk.Stranded != 1 || tk.Trapped != 1 || tk.Moved != 0 || tk.Alive != 1 || tk.Dead != 1 {
		t.Fatalf("tick entry=%+v", tk)
	}
}

func TestEngine_CollisionThreshold(t *testing.T) {
	w := mustParse(t, "A\nB\nC\n")
	ants := []Ant{
		{Colony: 0, Alive: true},
		{Colony: 1, Alive: true},
		{Colony: 2, Alive: true},
		{Colony: 1, Alive: true},
		{Colony: 1, Alive: true},
	}
	log := &captureLogger{}
	e := New(w, ants, DefaultConfig())
	e.SetDestructionLogger(log)
	e.Step()

	if len(log.destructions) != 1 {
		t.Fatalf("destructions=%v", log.destructions)
	}
	d := log.destructions[0]
	if d.Colony != "B" || d.AntA != 1 || d.AntB != 3 || d.Ants != 3 || d.Tick != 0 {
		t.Fatalf("entry=%+v", d)
	}
	for i, want := range []bool{true, false, true, false, false} {
		if e.Ants()[i].Alive != want {
			t.Fatalf("ant %d alive=%v want %v", i, e.Ants()[i].Alive, want)
		}
	}
	if w.Alive(1) || !w.Alive(0) || !w.Alive(2) {
		t.Fatalf("only B should be destroyed")
	}
}

func TestEngine_DestructionsInColonyOrder(t *testing.T) {
	w := mustParse(t, "A\nB\nC\n")
	ants := []Ant{
		{Colony: 2, Alive: true},
		{Colony: 0, Alive: true},
		{Colony: 2, Alive: true},
		{Colony: 0, Alive: true},
	}
	log := &captureLogger{}
	e := New(w, ants, DefaultConfig())
	e.SetDestructionLogger(log)
	if got := e.Step(); got != OutcomeAllDead {
		t.Fatalf("outcome=%s", got)
	}
	if len(log.destructions) != 2 || log.destructions[0].Colony != "A" || log.destructions[1].Colony != "C" {
		t.Fatalf("destructions=%+v", log.destructions)
	}
	if log.destructions[1].AntA != 0 || log.destructions[1].AntB != 2 {
		t.Fatalf("C entry=%+v", log.destructions[1])
	}
}

func TestEngine_Conservation(t *testing.T) {
	w := mustParse(t, gridMap(6))
	ants, err := SeedAnts(w, 30, 7)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	cfg := DefaultConfig()
	cfg.ChunkSize = 4
	cfg.MaxMoves = 300
	e := New(w, ants, cfg)
	for e.Step() == OutcomeRunning {
		res := e.Result()
		if res.Alive+res.Dead != len(ants) {
			t.Fatalf("tick %d: alive=%d dead=%d", res.Ticks, res.Alive, res.Dead)
		}
		for i, a := range e.Ants() {
			if a.Alive && !w.Alive(a.Colony) {
				t.Fatalf("tick %d: live ant %d on destroyed colony", res.Ticks, i)
			}
			if a.Moves > cfg.MaxMoves {
				t.Fatalf("ant %d moves=%d over cap", i, a.Moves)
			}
		}
		if err := w.Verify(); err != nil {
			t.Fatalf("tick %d: %v", res.Ticks, err)
		}
	}
	if e.CurrentTick() > uint64(cfg.MaxMoves) {
		t.Fatalf("ran %d ticks past the move cap", e.CurrentTick())
	}
}

func TestEngine_DeterministicAcrossWorkers(t *testing.T) {
	run := func(workers int) (string, Result, []DestructionEntry) {
		w := mustParse(t, gridMap(10))
		ants, err := SeedAnts(w, 150, DefaultSpawnSeed)
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		cfg := DefaultConfig()
		cfg.ChunkSize = 16
		cfg.MaxMoves = 500
		cfg.Workers = workers
		log := &captureLogger{}
		e := New(w, ants, cfg)
		e.SetDestructionLogger(log)
		res, _ := e.Run(context.Background())
		return e.Digest(), res, log.destructions
	}

	d1, r1, l1 := run(1)
	d8, r8, l8 := run(8)
	if d1 != d8 {
		t.Fatalf("digest differs: %s vs %s", d1, d8)
	}
	if r1.Outcome != r8.Outcome || r1.Ticks != r8.Ticks || r1.Destroyed != r8.Destroyed {
		t.Fatalf("results differ: %+v vs %+v", r1, r8)
	}
	if len(l1) != len(l8) {
		t.Fatalf("destruction count %d vs %d", len(l1), len(l8))
	}
	for i := range l1 {
		if l1[i] != l8[i] {
			t.Fatalf("destruction %d: %+v vs %+v", i, l1[i], l8[i])
		}
	}
}

func TestEngine_ZeroAnts(t *testing.T) {
	w := mustParse(t, "A north=B\n")
	ants, err := SeedAnts(w, 0, DefaultSpawnSeed)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	res, _ := New(w, ants, DefaultConfig()).Run(context.Background())
	if res.Outcome != OutcomeAllDead || res.Ticks != 0 {
		t.Fatalf("result=%+v", res)
	}
	if got := w.RenderString(); got != "A north=B\nB\n" {
		t.Fatalf("render=%q", got)
	}
}

func TestSeedAnts(t *testing.T) {
	if _, err := SeedAnts(world.New(), 3, 1); !errors.Is(err, ErrNoColonies) {
		t.Fatalf("err=%v want ErrNoColonies", err)
	}

	w := mustParse(t, "A\nB\nC\n")
	w.DestroyColony(1)
	a1, _ := SeedAnts(w, 50, 99)
	a2, _ := SeedAnts(w, 50, 99)
	for i := range a1 {
		if a1[i] != a2[i] {
			t.Fatalf("ant %d differs: %+v vs %+v", i, a1[i], a2[i])
		}
		if a1[i].Colony == 1 || !a1[i].Alive || a1[i].Moves != 0 {
			t.Fatalf("ant %d=%+v", i, a1[i])
		}
	}
}

func TestEngine_MaxTicksStops(t *testing.T) {
	w := mustParse(t, "A east=B\nB west=A\n")
	cfg := DefaultConfig()
	cfg.MaxTicks = 7
	e := New(w, placed(0, 1), cfg)
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != OutcomeStopped || res.Ticks != 7 {
		t.Fatalf("result=%+v", res)
	}
}

func TestEngine_CanceledContext(t *testing.T) {
	w := mustParse(t, "A east=B\nB west=A\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := New(w, placed(0, 1), DefaultConfig()).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
	if res.Outcome != OutcomeStopped || res.Ticks != 0 {
		t.Fatalf("result=%+v", res)
	}
}

func TestEngine_TickLogSampling(t *testing.T) {
	w := mustParse(t, "A\n")
	cfg := DefaultConfig()
	cfg.MaxMoves = 5
	cfg.LogEveryTicks = 2
	log := &captureLogger{}
	e := New(w, placed(0, 1), cfg)
	e.SetRunID("r1")
	e.SetTickLogger(log)
	_, _ = e.Run(context.Background())

	var got []uint64
	for _, tk := range log.ticks {
		got = append(got, tk.Tick)
		if tk.RunID != "r1" || len(tk.Digest) != 64 || tk.Trapped != 1 {
			t.Fatalf("entry=%+v", tk)
		}
	}
	if fmt.Sprint(got) != "[0 2 4]" {
		t.Fatalf("logged ticks=%v want [0 2 4]", got)
	}
	if last := log.ticks[len(log.ticks)-1]; last.Digest != e.Digest() {
		t.Fatalf("terminal digest mismatch")
	}
}

func TestEngine_StepAfterTerminalIsNoop(t *testing.T) {
	w := mustParse(t, "A south=B\nB north=A\n")
	e := New(w, placed(0, 2), DefaultConfig())
	e.Step()
	before := e.Digest()
	if got := e.Step(); got != OutcomeAllDead {
		t.Fatalf("outcome=%s", got)
	}
	if e.Digest() != before || e.CurrentTick() != 1 {
		t.Fatalf("state changed after terminal outcome")
	}
}

func BenchmarkRun100(b *testing.B) {
	src := gridMap(30)
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		w := mustParse(b, src)
		ants, err := SeedAnts(w, 100, DefaultSpawnSeed)
		if err != nil {
			b.Fatalf("seed: %v", err)
		}
		e := New(w, ants, DefaultConfig())
		b.StartTimer()
		_, _ = e.Run(context.Background())
	}
}

func BenchmarkRun10k(b *testing.B) {
	src := gridMap(60)
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		w := mustParse(b, src)
		ants, err := SeedAnts(w, 10000, DefaultSpawnSeed)
		if err != nil {
			b.Fatalf("seed: %v", err)
		}
		e := New(w, ants, DefaultConfig())
		b.StartTimer()
		_, _ = e.Run(context.Background())
	}
}
