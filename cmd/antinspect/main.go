package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"antmania.io/internal/persistence/indexdb"
	persistlog "antmania.io/internal/persistence/log"
	"antmania.io/internal/persistence/snapshot"
	"antmania.io/internal/sim/world"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		case "events":
			eventsCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: antinspect snapshot|events|db [flags] [runs|destructions]")
	os.Exit(2)
}

func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	path := fs.String("path", "", "path to .snap.zst")
	render := fs.Bool("render", false, "print the surviving colonies in map format")
	_ = fs.Parse(args)

	if *path == "" && fs.NArg() > 0 {
		*path = fs.Arg(0)
	}
	if *path == "" {
		fmt.Fprintln(os.Stderr, "missing -path")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	w, err := world.FromColonies(snap.Colonies)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rebuild world:", err)
		os.Exit(1)
	}
	if err := w.Verify(); err != nil {
		fmt.Fprintln(os.Stderr, "verify world:", err)
		os.Exit(1)
	}

	alive := 0
	for _, a := range snap.Ants {
		if a.Alive {
			alive++
		}
	}
	fmt.Printf("snapshot v%d run=%s tick=%d outcome=%s colonies=%d alive_colonies=%d ants=%d alive_ants=%d digest=%s\n",
		snap.Header.Version, snap.Header.RunID, snap.Header.Tick, snap.Outcome,
		w.Len(), w.AliveCount(), len(snap.Ants), alive, snap.Digest)

	if *render {
		if err := w.Render(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "render:", err)
			os.Exit(1)
		}
	}
}

func eventsCmd(args []string) {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	dir := fs.String("dir", "", "events dir passed to antmania -events")
	runID := fs.String("run", "", "only this run id (optional)")
	asJSON := fs.Bool("json", false, "print entries as JSON instead of text lines")
	_ = fs.Parse(args)

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "missing -dir")
		os.Exit(2)
	}

	files, err := persistlog.ListFiles(filepath.Join(*dir, "destructions"), "destructions")
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(1)
	}
	if *runID != "" {
		files = filterRun(files, *runID)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no destruction logs found")
		os.Exit(2)
	}

	total := 0
	for _, f := range files {
		entries, err := persistlog.ReadDestructions(f)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
		for _, e := range entries {
			if *asJSON {
				printJSON(e)
				continue
			}
			fmt.Printf("tick=%d %s\n", e.Tick, e.Line())
		}
		total += len(entries)
	}
	fmt.Fprintf(os.Stderr, "files=%d destructions=%d\n", len(files), total)
}

// filterRun keeps the log files written for runID.
func filterRun(files []string, runID string) []string {
	var out []string
	for _, f := range files {
		if strings.Contains(filepath.Base(f), "-"+runID+".") {
			out = append(out, f)
		}
	}
	return out
}

type dbArgs struct {
	Path  string
	Query string
	RunID string
	Limit int
}

// parseDBArgs accepts flags on either side of the query name, so both
// `db -db p destructions -run id` and `db -db p -run id destructions` work.
func parseDBArgs(args []string) (dbArgs, error) {
	fs := flag.NewFlagSet("db", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	dbPath := fs.String("db", "", "sqlite index path")
	runID := fs.String("run", "", "run id (destructions; defaults to the latest run)")
	limit := fs.Int("limit", 20, "result limit")

	var query string
	for {
		if err := fs.Parse(args); err != nil {
			return dbArgs{}, err
		}
		if fs.NArg() == 0 {
			break
		}
		if query != "" {
			return dbArgs{}, fmt.Errorf("unexpected argument %q after query %q", fs.Arg(0), query)
		}
		query = strings.TrimSpace(fs.Arg(0))
		args = fs.Args()[1:]
	}
	if query == "" {
		query = "runs"
	}
	if *dbPath == "" {
		return dbArgs{}, fmt.Errorf("missing -db")
	}
	return dbArgs{Path: *dbPath, Query: query, RunID: *runID, Limit: *limit}, nil
}

func dbCmd(args []string) {
	a, err := parseDBArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "db:", err)
		os.Exit(2)
	}

	r, err := indexdb.OpenReader(a.Path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer r.Close()

	ctx := context.Background()
	switch a.Query {
	case "runs":
		rows, err := r.Runs(ctx, a.Limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, row := range rows {
			printJSON(row)
		}
	case "destructions":
		id := a.RunID
		if id == "" {
			rows, err := r.Runs(ctx, 1)
			if err != nil {
				fmt.Fprintln(os.Stderr, "query:", err)
				os.Exit(1)
			}
			if len(rows) == 0 {
				fmt.Fprintln(os.Stderr, "no runs found")
				os.Exit(2)
			}
			id = rows[0].RunID
		}
		rows, err := r.Destructions(ctx, id, a.Limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, row := range rows {
			printJSON(row)
		}
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", a.Query)
		os.Exit(2)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
