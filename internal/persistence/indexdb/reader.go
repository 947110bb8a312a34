package indexdb

import (
	"context"
	"database/sql"
	"fmt"
)

type RunRow struct {
	RunID         string  `json:"run_id"`
	MapPath       string  `json:"map_path"`
	Ants          int     `json:"ants"`
	Colonies      int     `json:"colonies"`
	ChunkSize     int     `json:"chunk_size"`
	StartedAt     string  `json:"started_at"`
	FinishedAt    string  `json:"finished_at"`
	Outcome       string  `json:"outcome"`
	Ticks         int64   `json:"ticks"`
	Alive         int     `json:"alive"`
	Destroyed     int     `json:"destroyed"`
	ColoniesAlive int     `json:"colonies_alive"`
	ElapsedMS     float64 `json:"elapsed_ms"`
}

type DestructionRow struct {
	RunID    string `json:"run_id"`
	Tick     int64  `json:"tick"`
	ColonyID int    `json:"colony_id"`
	Colony   string `json:"colony"`
	AntA     int    `json:"ant_a"`
	AntB     int    `json:"ant_b"`
	Ants     int    `json:"ants"`
}

// Reader runs read-only queries against an index written by SQLiteIndex.
type Reader struct {
	db *sql.DB
}

func OpenReader(path string) (*Reader, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() error { return r.db.Close() }

// Runs lists the most recent runs first.
func (r *Reader) Runs(ctx context.Context, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT run_id,map_path,ants,colonies,chunk_size,started_at,
		COALESCE(finished_at,''),COALESCE(outcome,''),COALESCE(ticks,0),COALESCE(alive,0),
		COALESCE(destroyed,0),COALESCE(colonies_alive,0),COALESCE(elapsed_ms,0)
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var rr RunRow
		if err := rows.Scan(&rr.RunID, &rr.MapPath, &rr.Ants, &rr.Colonies, &rr.ChunkSize, &rr.StartedAt,
			&rr.FinishedAt, &rr.Outcome, &rr.Ticks, &rr.Alive, &rr.Destroyed, &rr.ColoniesAlive, &rr.ElapsedMS); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

// Destructions lists a run's destroyed colonies in tick order, then colony id,
// which is the order they were reported in.
func (r *Reader) Destructions(ctx context.Context, runID string, limit int) ([]DestructionRow, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := r.db.QueryContext(ctx, `SELECT run_id,tick,colony_id,colony,ant_a,ant_b,ants
		FROM destructions WHERE run_id=? ORDER BY tick, colony_id LIMIT ?`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DestructionRow
	for rows.Next() {
		var d DestructionRow
		if err := rows.Scan(&d.RunID, &d.Tick, &d.ColonyID, &d.Colony, &d.AntA, &d.AntB, &d.Ants); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
