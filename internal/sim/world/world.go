package world

import "fmt"

// World is the colony graph. Colonies live in an arena addressed by id; ids are
// assigned in first-seen order and the arena never shrinks, so ant positions and
// render order stay stable for the whole run.
//
// Forward edges and the reverse-link index are only mutated together, through
// AddDirection and DestroyColony.
type World struct {
	colonies []colony
	byName   map[string]int
	alive    int
}

func New() *World {
	return &World{byName: map[string]int{}}
}

// GetOrAddColony returns the id for name, appending a new live colony with no
// edges the first time the name is seen.
func (w *World) GetOrAddColony(name string) int {
	if id, ok := w.byName[name]; ok {
		return id
	}
	id := len(w.colonies)
	w.byName[name] = id
	w.colonies = append(w.colonies, colony{name: name, alive: true})
	w.alive++
	return id
}

// AddDirection records the edge from -dir-> to and its reverse entry. It does
// not look for an existing edge in the same direction; the builder does.
func (w *World) AddDirection(from int, dir Direction, to int) {
	src := &w.colonies[from]
	src.out = append(src.out, Edge{Dir: dir, To: to})
	dst := &w.colonies[to]
	if dst.in == nil {
		dst.in = map[Link]struct{}{}
	}
	dst.in[Link{From: from, Dir: dir}] = struct{}{}
}

// DestroyColony marks id dead and removes every edge touching it, on both sides
// of the index. Destroying a dead colony is a no-op.
func (w *World) DestroyColony(id int) {
	c := &w.colonies[id]
	if !c.alive {
		return
	}
	c.alive = false
	w.alive--

	for l := range c.in {
		src := &w.colonies[l.From]
		src.out = removeEdge(src.out, Edge{Dir: l.Dir, To: id})
	}
	c.in = nil

	for _, e := range c.out {
		if dst := &w.colonies[e.To]; dst.in != nil {
			delete(dst.in, Link{From: id, Dir: e.Dir})
		}
	}
	c.out = nil
}

// removeEdge drops every occurrence of e, keeping the order of the rest.
func removeEdge(edges []Edge, e Edge) []Edge {
	kept := edges[:0]
	for _, x := range edges {
		if x != e {
			kept = append(kept, x)
		}
	}
	for i := len(kept); i < len(edges); i++ {
		edges[i] = Edge{}
	}
	return kept
}

// Len is the size of the arena, dead colonies included.
func (w *World) Len() int { return len(w.colonies) }

// AliveCount is the number of colonies not yet destroyed.
func (w *World) AliveCount() int { return w.alive }

func (w *World) Name(id int) string { return w.colonies[id].name }

func (w *World) Alive(id int) bool { return w.colonies[id].alive }

func (w *World) Lookup(name string) (int, bool) {
	id, ok := w.byName[name]
	return id, ok
}

// Outgoing returns the live edge list of id. The slice is owned by the world;
// callers must not modify it and must not hold it across a DestroyColony.
func (w *World) Outgoing(id int) []Edge { return w.colonies[id].out }

// Incoming returns a sorted copy of the reverse-link entries pointing at id.
func (w *World) Incoming(id int) []Link {
	in := w.colonies[id].in
	if len(in) == 0 {
		return nil
	}
	out := make([]Link, 0, len(in))
	for l := range in {
		out = append(out, l)
	}
	sortLinks(out)
	return out
}

// HasDirection reports whether id already has an outgoing edge in dir.
func (w *World) HasDirection(id int, dir Direction) bool {
	for _, e := range w.colonies[id].out {
		if e.Dir == dir {
			return true
		}
	}
	return false
}

// AliveIDs lists live colony ids in ascending order.
func (w *World) AliveIDs() []int {
	ids := make([]int, 0, w.alive)
	for id := range w.colonies {
		if w.colonies[id].alive {
			ids = append(ids, id)
		}
	}
	return ids
}

// Verify checks the edge mirror: (dir, t) is in c's outgoing list iff (c, dir)
// is in t's reverse set, and dead colonies carry no edges.
func (w *World) Verify() error {
	for id := range w.colonies {
		c := &w.colonies[id]
		if !c.alive && (len(c.out) != 0 || len(c.in) != 0) {
			return fmt.Errorf("dead colony %q still has edges (out=%d in=%d)", c.name, len(c.out), len(c.in))
		}
		for _, e := range c.out {
			if e.To < 0 || e.To >= len(w.colonies) {
				return fmt.Errorf("colony %q: edge %s to unknown id %d", c.name, e.Dir, e.To)
			}
			if _, ok := w.colonies[e.To].in[Link{From: id, Dir: e.Dir}]; !ok {
				return fmt.Errorf("colony %q: edge %s=%s missing reverse link", c.name, e.Dir, w.colonies[e.To].name)
			}
		}
		for l := range c.in {
			found := false
			for _, e := range w.colonies[l.From].out {
				if e.Dir == l.Dir && e.To == id {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("colony %q: stale reverse link from %q (%s)", c.name, w.colonies[l.From].name, l.Dir)
			}
		}
	}
	return nil
}
