// Package eventproto defines the JSON messages of the read-only observer
// stream. Schemas for every message live in schemas/observer.schema.json.
package eventproto

import "antmania.io/internal/sim/engine"

const Version = "1.0"

const (
	TypeHello     = "HELLO"
	TypeDestroyed = "DESTROYED"
	TypeTick      = "TICK"
	TypeRunEnd    = "RUN_END"
)

type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RunID           string `json:"run_id"`
	Colonies        int    `json:"colonies"`
	Ants            int    `json:"ants"`
	ChunkSize       int    `json:"chunk_size"`
	MaxMoves        int    `json:"max_moves"`
}

type DestroyedMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RunID           string `json:"run_id"`
	Tick            uint64 `json:"tick"`
	Colony          string `json:"colony"`
	ColonyID        int    `json:"colony_id"`
	AntA            int    `json:"ant_a"`
	AntB            int    `json:"ant_b"`
	Ants            int    `json:"ants"`
	Line            string `json:"line"`
}

type TickMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	RunID           string   `json:"run_id"`
	Tick            uint64   `json:"tick"`
	Alive           int      `json:"alive"`
	Dead            int      `json:"dead"`
	Destroyed       []string `json:"destroyed,omitempty"`
	Digest          string   `json:"digest,omitempty"`
}

type RunEndMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	RunID           string  `json:"run_id"`
	Outcome         string  `json:"outcome"`
	Ticks           uint64  `json:"ticks"`
	Alive           int     `json:"alive"`
	Dead            int     `json:"dead"`
	Destroyed       int     `json:"destroyed"`
	ColoniesAlive   int     `json:"colonies_alive"`
	ElapsedMS       float64 `json:"elapsed_ms"`
}

func Hello(info engine.RunInfo) HelloMsg {
	return HelloMsg{
		Type:            TypeHello,
		ProtocolVersion: Version,
		RunID:           info.RunID,
		Colonies:        info.Colonies,
		Ants:            info.Ants,
		ChunkSize:       info.Config.ChunkSize,
		MaxMoves:        info.Config.MaxMoves,
	}
}

func Destroyed(e engine.DestructionEntry) DestroyedMsg {
	return DestroyedMsg{
		Type:            TypeDestroyed,
		ProtocolVersion: Version,
		RunID:           e.RunID,
		Tick:            e.Tick,
		Colony:          e.Colony,
		ColonyID:        e.ColonyID,
		AntA:            e.AntA,
		AntB:            e.AntB,
		Ants:            e.Ants,
		Line:            e.Line(),
	}
}

func Tick(e engine.TickLogEntry) TickMsg {
	return TickMsg{
		Type:            TypeTick,
		ProtocolVersion: Version,
		RunID:           e.RunID,
		Tick:            e.Tick,
		Alive:           e.Alive,
		Dead:            e.Dead,
		Destroyed:       e.Destroyed,
		Digest:          e.Digest,
	}
}

func RunEnd(runID string, res engine.Result) RunEndMsg {
	return RunEndMsg{
		Type:            TypeRunEnd,
		ProtocolVersion: Version,
		RunID:           runID,
		Outcome:         res.Outcome.String(),
		Ticks:           res.Ticks,
		Alive:           res.Alive,
		Dead:            res.Dead,
		Destroyed:       res.Destroyed,
		ColoniesAlive:   res.ColoniesAlive,
		ElapsedMS:       float64(res.Elapsed.Microseconds()) / 1000.0,
	}
}
