package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"antmania.io/internal/persistence/indexdb"
	"antmania.io/internal/sim/engine"
)

func TestAntCount(t *testing.T) {
	tests := []struct {
		flag    int
		args    []string
		want    int
		wantErr bool
	}{
		{flag: -1, args: []string{"100"}, want: 100},
		{flag: 42, want: 42},
		{flag: 0, want: 0},
		{flag: -1, wantErr: true},
		{flag: -1, args: []string{"ten"}, wantErr: true},
		{flag: 5, args: []string{"5"}, wantErr: true},
	}
	for _, tt := range tests {
		got, err := antCount(tt.flag, tt.args)
		if (err != nil) != tt.wantErr {
			t.Fatalf("antCount(%d, %v) err=%v wantErr=%v", tt.flag, tt.args, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Fatalf("antCount(%d, %v)=%d want %d", tt.flag, tt.args, got, tt.want)
		}
	}
}

type countingLogger struct{ destructions, ticks int }

func (c *countingLogger) WriteDestruction(engine.DestructionEntry) error { c.destructions++; return nil }
func (c *countingLogger) WriteTick(engine.TickLogEntry) error            { c.ticks++; return nil }

func TestMultiLoggersFanOut(t *testing.T) {
	a, b := &countingLogger{}, &countingLogger{}
	md := multiDestructionLogger{a, nil, b}
	mt := multiTickLogger{a, b}
	_ = md.WriteDestruction(engine.DestructionEntry{})
	_ = mt.WriteTick(engine.TickLogEntry{})
	_ = mt.WriteTick(engine.TickLogEntry{})
	if a.destructions != 1 || b.destructions != 1 || a.ticks != 2 || b.ticks != 2 {
		t.Fatalf("a=%+v b=%+v", a, b)
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRun_PrintsFinalState(t *testing.T) {
	dir := t.TempDir()
	mapPath := writeFile(t, dir, "map.txt", "A south=B\nB north=A\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-map", mapPath, "-tuning", filepath.Join(dir, "none.yaml"), "0"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, stderr.String())
	}
	out := stdout.String()
	if !strings.HasPrefix(out, "Final world state:\nA south=B\nB north=A\nSimulation phase latency: ") {
		t.Fatalf("stdout=%q", out)
	}
	if !strings.Contains(stderr.String(), "using defaults") {
		t.Fatalf("stderr=%q", stderr.String())
	}
}

func TestRun_BadInputExitCodes(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-map", filepath.Join(dir, "missing.txt"), "3"}, &stdout, &stderr); code != 1 {
		t.Fatalf("missing map exit=%d want 1", code)
	}
	if code := run([]string{"-map", filepath.Join(dir, "missing.txt")}, &stdout, &stderr); code != 2 {
		t.Fatalf("missing ant count exit=%d want 2", code)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("stdout closed") }

func TestRun_OutputFailureStillClosesIndex(t *testing.T) {
	dir := t.TempDir()
	var sb strings.Builder
	for i := 0; i < 3000; i++ {
		fmt.Fprintf(&sb, "Colony%05d east=Colony%05d\n", i, i+1)
	}
	mapPath := writeFile(t, dir, "big.txt", sb.String())
	indexPath := filepath.Join(dir, "index.sqlite")

	var stderr bytes.Buffer
	code := run([]string{"-map", mapPath, "-tuning", filepath.Join(dir, "none.yaml"), "-index", indexPath, "-ants", "0"}, failingWriter{}, &stderr)
	if code != 1 {
		t.Fatalf("exit=%d want 1, stderr=%s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "render:") {
		t.Fatalf("stderr=%q", stderr.String())
	}

	r, err := indexdb.OpenReader(indexPath)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()
	runs, err := r.Runs(context.Background(), 10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Outcome != "ALL_DEAD" || runs[0].FinishedAt == "" {
		t.Fatalf("run not finished in index: %+v", runs)
	}
}
