package world

import (
	"bufio"
	"io"
	"strings"
)

// Render writes the surviving colonies in map format, in id order. Destroyed
// colonies are left out; a colony without roads is written as its name alone.
func (w *World) Render(out io.Writer) error {
	bw := bufio.NewWriter(out)
	for id := range w.colonies {
		c := &w.colonies[id]
		if !c.alive {
			continue
		}
		bw.WriteString(c.name)
		for _, e := range c.out {
			bw.WriteByte(' ')
			bw.WriteString(e.Dir.String())
			bw.WriteByte('=')
			bw.WriteString(w.colonies[e.To].name)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func (w *World) RenderString() string {
	var sb strings.Builder
	_ = w.Render(&sb)
	return sb.String()
}
