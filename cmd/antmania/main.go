package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"antmania.io/internal/persistence/indexdb"
	persistlog "antmania.io/internal/persistence/log"
	"antmania.io/internal/persistence/snapshot"
	"antmania.io/internal/sim/engine"
	"antmania.io/internal/sim/tuning"
	"antmania.io/internal/sim/world"
	"antmania.io/internal/transport/observer"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is the whole program; it returns the exit code so deferred flushes and
// closes always happen.
func run(args []string, stdoutW, stderrW io.Writer) int {
	fs := flag.NewFlagSet("antmania", flag.ContinueOnError)
	fs.SetOutput(stderrW)
	var (
		mapPath    = fs.String("map", "ant_mania_map.txt", "colony map file")
		numAnts    = fs.Int("ants", -1, "number of ants (or pass it as the first argument)")
		tuningPath = fs.String("tuning", "configs/tuning.yaml", "path to tuning.yaml (missing file means built-in defaults)")

		chunkSize    = fs.Int("chunk_size", 0, "ants per movement task (overrides tuning)")
		workers      = fs.Int("workers", 0, "max concurrent movement tasks (overrides tuning)")
		maxMoves     = fs.Int("max_moves", 0, "per-ant move cap (overrides tuning)")
		maxTicks     = fs.Uint64("max_ticks", 0, "stop after this many ticks (overrides tuning)")
		spawnSeed    = fs.Int64("spawn_seed", 0, "seed for initial placement (overrides tuning)")
		moveSeedBase = fs.Int64("move_seed_base", 0, "base seed for per-chunk movement sources (overrides tuning)")

		eventsDir = fs.String("events", "", "write destruction and tick logs (.jsonl.zst) under this directory")
		indexPath = fs.String("index", "", "record the run in this sqlite index")
		snapPath  = fs.String("snapshot", "", "write the final state to this snapshot file")
		observe   = fs.String("observe", "", "serve the run as a websocket feed on this loopback address")
		linger    = fs.Duration("observe_linger", 0, "keep the observer up this long after the run ends")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := log.New(stderrW, "[antmania] ", log.LstdFlags|log.Lmicroseconds)

	n, err := antCount(*numAnts, fs.Args())
	if err != nil {
		fmt.Fprintln(stderrW, "usage: antmania [flags] <num_ants>")
		logger.Printf("%v", err)
		return 2
	}

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Printf("load tuning: %v", err)
			return 1
		}
		logger.Printf("tuning not found (%s); using defaults", *tuningPath)
		tune = tuning.Defaults()
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "chunk_size":
			tune.ChunkSize = *chunkSize
		case "workers":
			tune.Workers = *workers
		case "max_moves":
			tune.MaxMoves = *maxMoves
		case "max_ticks":
			tune.MaxTicks = *maxTicks
		case "spawn_seed":
			tune.SpawnSeed = *spawnSeed
		case "move_seed_base":
			tune.MoveSeedBase = *moveSeedBase
		}
	})
	if err := tune.Validate(); err != nil {
		logger.Printf("tuning: %v", err)
		return 1
	}
	cfg := tune.EngineConfig()

	w, err := world.Load(*mapPath)
	if err != nil {
		logger.Printf("load map %s: %v", *mapPath, err)
		return 1
	}
	ants, err := engine.SeedAnts(w, n, cfg.SpawnSeed)
	if err != nil {
		logger.Printf("seed ants: %v", err)
		return 1
	}

	runID := uuid.NewString()
	info := engine.RunInfo{
		RunID:     runID,
		MapPath:   *mapPath,
		Ants:      n,
		Colonies:  w.Len(),
		Config:    cfg,
		StartedAt: time.Now().UTC(),
	}

	e := engine.New(w, ants, cfg)
	e.SetRunID(runID)

	stdout := bufio.NewWriterSize(stdoutW, 64*1024)
	defer stdout.Flush()

	destructions := multiDestructionLogger{engine.NewLineLogger(stdout)}
	var ticks multiTickLogger

	if *eventsDir != "" {
		dl := persistlog.NewDestructionLogger(*eventsDir, runID)
		tl := persistlog.NewTickLogger(*eventsDir, runID)
		defer func() {
			if err := dl.Close(); err != nil {
				logger.Printf("close %s: %v", dl.Path(), err)
			}
			if err := tl.Close(); err != nil {
				logger.Printf("close %s: %v", tl.Path(), err)
			}
		}()
		destructions = append(destructions, dl)
		ticks = append(ticks, tl)
	}

	var idx *indexdb.SQLiteIndex
	if *indexPath != "" {
		idx, err = indexdb.OpenSQLite(*indexPath)
		if err != nil {
			logger.Printf("open index: %v", err)
			return 1
		}
		defer func() {
			if st := idx.Stats(); st.DropDestructionTotal > 0 || st.DropTickTotal > 0 {
				logger.Printf("index dropped destructions=%d ticks=%d", st.DropDestructionTotal, st.DropTickTotal)
			}
			if err := idx.Close(); err != nil {
				logger.Printf("close index: %v", err)
			}
		}()
		if err := idx.BeginRun(info); err != nil {
			logger.Printf("index begin run: %v", err)
			return 1
		}
		destructions = append(destructions, idx)
		ticks = append(ticks, idx)
	}

	var hub *observer.Hub
	if *observe != "" {
		hub = observer.NewHub()
		hub.Begin(info)
		stop, err := serveObserver(*observe, hub, logger)
		if err != nil {
			logger.Printf("observer: %v", err)
			return 1
		}
		defer func() {
			if *linger > 0 {
				logger.Printf("observer lingering for %s", *linger)
				time.Sleep(*linger)
			}
			hub.Close()
			stop()
		}()
		destructions = append(destructions, hub)
		ticks = append(ticks, hub)
	}

	e.SetDestructionLogger(destructions)
	if len(ticks) > 0 {
		e.SetTickLogger(ticks)
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Printf("run=%s map=%s colonies=%d ants=%d chunk_size=%d workers=%d", runID, *mapPath, w.Len(), n, cfg.ChunkSize, cfg.Workers)
	res, err := e.Run(ctx)
	if err != nil {
		logger.Printf("run interrupted: %v", err)
	}

	if idx != nil {
		idx.FinishRun(runID, res)
	}
	if hub != nil {
		hub.Finish(runID, res)
	}
	if *snapPath != "" {
		if err := snapshot.WriteSnapshot(*snapPath, e.ExportSnapshot()); err != nil {
			logger.Printf("snapshot write: %v", err)
		} else {
			logger.Printf("snapshot=%s tick=%d", *snapPath, res.Ticks)
		}
	}

	fmt.Fprintln(stdout, "Final world state:")
	if err := w.Render(stdout); err != nil {
		logger.Printf("render: %v", err)
		return 1
	}
	fmt.Fprintf(stdout, "Simulation phase latency: %v\n", res.Elapsed)
	if err := stdout.Flush(); err != nil {
		logger.Printf("flush stdout: %v", err)
	}

	logger.Printf("outcome=%s ticks=%s ants_dead=%s/%s colonies_destroyed=%s colonies_left=%s",
		res.Outcome,
		humanize.Comma(int64(res.Ticks)),
		humanize.Comma(int64(res.Dead)),
		humanize.Comma(int64(n)),
		humanize.Comma(int64(res.Destroyed)),
		humanize.Comma(int64(res.ColoniesAlive)),
	)
	return 0
}

// antCount takes the ant count from -ants or the first positional argument.
func antCount(flagVal int, args []string) (int, error) {
	if len(args) > 0 {
		if flagVal >= 0 {
			return 0, errors.New("ant count given both as -ants and as an argument")
		}
		v, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil {
			return 0, fmt.Errorf("invalid ant count %q: %w", args[0], err)
		}
		flagVal = v
	}
	if flagVal < 0 {
		return 0, errors.New("missing ant count")
	}
	return flagVal, nil
}

// serveObserver starts the websocket feed and returns a function that shuts it
// down.
func serveObserver(addr string, hub *observer.Hub, logger *log.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{
		Handler:           observer.NewServer(hub, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("observer serve: %v", err)
		}
	}()
	logger.Printf("observer listening on ws://%s/v1/observe", ln.Addr())
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(ch)
	}()
	return ctx, cancel
}
