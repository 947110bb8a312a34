package world

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	ErrMissingSeparator   = errors.New("edge token missing '='")
	ErrUnknownDirection   = errors.New("unknown direction")
	ErrDuplicateDirection = errors.New("duplicate direction")
)

// Parse builds a world from map text: one colony per line, the name followed by
// up to four `direction=target` tokens. Blank lines are skipped. Any malformed
// token fails the whole parse; no partial world is returned.
func Parse(r io.Reader) (*World, error) {
	w := New()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if err := w.parseLine(fields); err != nil {
			return nil, fmt.Errorf("map line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	return w, nil
}

func ParseString(s string) (*World, error) {
	return Parse(strings.NewReader(s))
}

// Load reads and parses a map file.
func Load(path string) (*World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func (w *World) parseLine(fields []string) error {
	src := w.GetOrAddColony(fields[0])
	for _, tok := range fields[1:] {
		dirTok, target, ok := strings.Cut(tok, "=")
		if !ok {
			return fmt.Errorf("%q: %w", tok, ErrMissingSeparator)
		}
		dir, ok := ParseDirection(dirTok)
		if !ok {
			return fmt.Errorf("%q: %w", dirTok, ErrUnknownDirection)
		}
		if w.HasDirection(src, dir) {
			return fmt.Errorf("colony %q %s: %w", fields[0], dir, ErrDuplicateDirection)
		}
		dst := w.GetOrAddColony(target)
		w.AddDirection(src, dir, dst)
	}
	return nil
}
