package engine

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// DestructionEntry is one colony destroyed during cleanup. AntA and AntB are
// the first two ants (by index) found there.
type DestructionEntry struct {
	RunID    string `json:"run_id,omitempty"`
	Tick     uint64 `json:"tick"`
	Colony   string `json:"colony"`
	ColonyID int    `json:"colony_id"`
	AntA     int    `json:"ant_a"`
	AntB     int    `json:"ant_b"`
	Ants     int    `json:"ants"`
}

func (d DestructionEntry) Line() string {
	return fmt.Sprintf("%s has been destroyed by ant %d and ant %d!", d.Colony, d.AntA, d.AntB)
}

type TickLogEntry struct {
	RunID     string   `json:"run_id,omitempty"`
	Tick      uint64   `json:"tick"`
	Alive     int      `json:"alive"`
	Dead      int      `json:"dead"`
	Moved     int      `json:"moved"`
	Trapped   int      `json:"trapped"`
	Stranded  int      `json:"stranded"`
	Destroyed []string `json:"destroyed,omitempty"`
	Digest    string   `json:"digest"`
}

type DestructionLogger interface {
	WriteDestruction(entry DestructionEntry) error
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// LineLogger prints destruction events in the human-readable form.
type LineLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func NewLineLogger(w io.Writer) *LineLogger { return &LineLogger{w: w} }

func (l *LineLogger) WriteDestruction(entry DestructionEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := fmt.Fprintln(l.w, entry.Line())
	return err
}

// RunInfo describes a run before its first tick.
type RunInfo struct {
	RunID     string    `json:"run_id"`
	MapPath   string    `json:"map_path,omitempty"`
	Ants      int       `json:"ants"`
	Colonies  int       `json:"colonies"`
	Config    Config    `json:"-"`
	StartedAt time.Time `json:"started_at"`
}
