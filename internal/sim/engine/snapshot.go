package engine

import "antmania.io/internal/persistence/snapshot"

func (e *Engine) ExportSnapshot() snapshot.SnapshotV1 {
	ants := make([]snapshot.AntV1, len(e.ants))
	for i, a := range e.ants {
		ants[i] = snapshot.AntV1{Colony: a.Colony, Moves: a.Moves, Alive: a.Alive}
	}
	return snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			RunID:   e.runID,
			Tick:    e.tick,
		},
		Outcome:      e.outcome.String(),
		SpawnSeed:    e.cfg.SpawnSeed,
		MoveSeedBase: e.cfg.MoveSeedBase,
		ChunkSize:    e.cfg.ChunkSize,
		MaxMoves:     e.cfg.MaxMoves,
		Digest:       e.Digest(),
		Colonies:     e.world.ExportColonies(),
		Ants:         ants,
	}
}
