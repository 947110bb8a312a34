package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"

	"antmania.io/internal/sim/engine"
)

const fileSuffix = ".jsonl.zst"

// JSONLZstdWriter appends JSON lines to one zstd stream per run. The file is
// created on the first write so runs that never log leave nothing behind.
type JSONLZstdWriter struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix, runID string) *JSONLZstdWriter {
	return &JSONLZstdWriter{path: filepath.Join(baseDir, fmt.Sprintf("%s-%s%s", prefix, runID, fileSuffix))}
}

func (w *JSONLZstdWriter) Path() string { return w.path }

func (w *JSONLZstdWriter) Write(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		if err := w.openLocked(); err != nil {
			return err
		}
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

func (w *JSONLZstdWriter) openLocked() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	return nil
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	if w.w != nil {
		err = w.w.Flush()
		w.w = nil
	}
	if w.enc != nil {
		if cerr := w.enc.Close(); err == nil {
			err = cerr
		}
		w.enc = nil
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		w.f = nil
	}
	return err
}

// ReadJSONL calls fn for every line of a .jsonl.zst file, in order.
func ReadJSONL(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		if err := fn(sc.Bytes()); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	return sc.Err()
}

// ListFiles returns the log files under dir whose names start with prefix,
// sorted by name.
func ListFiles(dir, prefix string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}

// DestructionLogger writes one JSONL entry per destroyed colony (compressed).
type DestructionLogger struct{ w *JSONLZstdWriter }

func NewDestructionLogger(dir, runID string) *DestructionLogger {
	return &DestructionLogger{w: NewJSONLZstdWriter(filepath.Join(dir, "destructions"), "destructions", runID)}
}

func (l *DestructionLogger) WriteDestruction(v engine.DestructionEntry) error { return l.w.Write(v) }
func (l *DestructionLogger) Path() string                                   { return l.w.Path() }
func (l *DestructionLogger) Close() error                                   { return l.w.Close() }

// TickLogger writes sampled per-tick summaries (compressed).
type TickLogger struct{ w *JSONLZstdWriter }

func NewTickLogger(dir, runID string) *TickLogger {
	return &TickLogger{w: NewJSONLZstdWriter(filepath.Join(dir, "ticks"), "ticks", runID)}
}

func (l *TickLogger) WriteTick(v engine.TickLogEntry) error { return l.w.Write(v) }
func (l *TickLogger) Path() string                          { return l.w.Path() }
func (l *TickLogger) Close() error                          { return l.w.Close() }

// ReadDestructions decodes every entry of a destruction log.
func ReadDestructions(path string) ([]engine.DestructionEntry, error) {
	var out []engine.DestructionEntry
	err := ReadJSONL(path, func(line []byte) error {
		var e engine.DestructionEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		out = append(out, e)
		return nil
	})
	return out, err
}
