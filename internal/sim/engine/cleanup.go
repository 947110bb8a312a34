package engine

// cleanupPhase destroys every colony holding two or more ants and kills those
// ants. Events are emitted while scanning; colonies are torn down afterwards so
// the scan sees this tick's names and edges.
func (e *Engine) cleanupPhase(tick uint64) (killed int, destroyed []DestructionEntry) {
	e.doomed = e.doomed[:0]
	for _, c := range e.occ.Colonies() {
		here := e.occ.At(c)
		if len(here) < 2 {
			continue
		}
		e.doomed = append(e.doomed, c)
		for _, i := range here {
			e.ants[i].Alive = false
		}
		killed += len(here)
		destroyed = append(destroyed, DestructionEntry{
			RunID:    e.runID,
			Tick:     tick,
			Colony:   e.world.Name(c),
			ColonyID: c,
			AntA:     here[0],
			AntB:     here[1],
			Ants:     len(here),
		})
	}
	for _, c := range e.doomed {
		e.world.DestroyColony(c)
	}
	return killed, destroyed
}
