package world

import (
	"fmt"

	"antmania.io/internal/persistence/snapshot"
)

func (w *World) ExportColonies() []snapshot.ColonyV1 {
	out := make([]snapshot.ColonyV1, 0, len(w.colonies))
	for _, c := range w.colonies {
		sc := snapshot.ColonyV1{Name: c.name, Alive: c.alive}
		for _, e := range c.out {
			sc.Edges = append(sc.Edges, snapshot.EdgeV1{Dir: e.Dir.String(), To: e.To})
		}
		out = append(out, sc)
	}
	return out
}

// FromColonies rebuilds a world from an exported arena, preserving ids.
func FromColonies(cols []snapshot.ColonyV1) (*World, error) {
	w := New()
	for i, c := range cols {
		if id := w.GetOrAddColony(c.Name); id != i {
			return nil, fmt.Errorf("colony %d: duplicate name %q (first at %d)", i, c.Name, id)
		}
	}
	for i, c := range cols {
		if !c.Alive && len(c.Edges) > 0 {
			return nil, fmt.Errorf("colony %q: dead colony with %d edges", c.Name, len(c.Edges))
		}
		for _, e := range c.Edges {
			dir, ok := ParseDirection(e.Dir)
			if !ok {
				return nil, fmt.Errorf("colony %q: %q: %w", c.Name, e.Dir, ErrUnknownDirection)
			}
			if e.To < 0 || e.To >= len(cols) {
				return nil, fmt.Errorf("colony %q: edge %s to unknown id %d", c.Name, e.Dir, e.To)
			}
			if !cols[e.To].Alive {
				return nil, fmt.Errorf("colony %q: edge %s to destroyed colony %q", c.Name, e.Dir, cols[e.To].Name)
			}
			w.AddDirection(i, dir, e.To)
		}
	}
	for i, c := range cols {
		if !c.Alive {
			w.DestroyColony(i)
		}
	}
	return w, nil
}
