package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"antmania.io/internal/sim/engine"
)

// SQLiteIndex records runs, their destructions and sampled ticks. All writes go
// through one writer goroutine; per-tick writes never block the simulation and
// are dropped when the queue is full. Writes racing with Close are discarded.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	// mu guards closed and the close of ch; senders hold the read lock.
	mu     sync.RWMutex
	closed bool

	dropDestruction atomic.Uint64
	dropTick        atomic.Uint64
}

type reqKind int

const (
	reqBegin reqKind = iota + 1
	reqDestruction
	reqTick
	reqFinish
)

type req struct {
	kind reqKind

	begin       engine.RunInfo
	done        chan error
	destruction engine.DestructionEntry
	tick        engine.TickLogEntry
	finish      finishRow
}

type finishRow struct {
	RunID  string
	Result engine.Result
	At     time.Time
}

type QueueStats struct {
	QueueDepth           int
	QueueCapacity        int
	DropDestructionTotal uint64
	DropTickTotal        uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, 65536)
}

func openSQLite(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, queue),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			map_path TEXT NOT NULL,
			ants INTEGER NOT NULL,
			colonies INTEGER NOT NULL,
			chunk_size INTEGER NOT NULL,
			max_moves INTEGER NOT NULL,
			spawn_seed INTEGER NOT NULL,
			move_seed_base INTEGER NOT NULL,
			workers INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			outcome TEXT,
			ticks INTEGER,
			alive INTEGER,
			destroyed INTEGER,
			colonies_alive INTEGER,
			elapsed_ms REAL
		);`,
		`CREATE TABLE IF NOT EXISTS destructions (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			tick INTEGER NOT NULL,
			colony_id INTEGER NOT NULL,
			colony TEXT NOT NULL,
			ant_a INTEGER NOT NULL,
			ant_b INTEGER NOT NULL,
			ants INTEGER NOT NULL,
			PRIMARY KEY (run_id, colony_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_destructions_run_tick ON destructions(run_id, tick);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			tick INTEGER NOT NULL,
			alive INTEGER NOT NULL,
			dead INTEGER NOT NULL,
			moved INTEGER NOT NULL,
			trapped INTEGER NOT NULL,
			stranded INTEGER NOT NULL,
			digest TEXT NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// BeginRun inserts the run row and waits for it to be committed. It must be
// called before any other write for that run id.
func (s *SQLiteIndex) BeginRun(info engine.RunInfo) error {
	if s == nil {
		return nil
	}
	done := make(chan error, 1)
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("index closed")
	}
	s.ch <- req{kind: reqBegin, begin: info, done: done}
	s.mu.RUnlock()
	return <-done
}

func (s *SQLiteIndex) WriteDestruction(entry engine.DestructionEntry) error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	select {
	case s.ch <- req{kind: reqDestruction, destruction: entry}:
	default:
		// Dropped; the JSONL log stays the source of truth.
		s.dropDestruction.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) WriteTick(entry engine.TickLogEntry) error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		s.dropTick.Add(1)
	}
	return nil
}

// FinishRun records the run result. Unlike the per-tick writes it blocks until
// queued so the summary is never dropped.
func (s *SQLiteIndex) FinishRun(runID string, res engine.Result) {
	if s == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	s.ch <- req{kind: reqFinish, finish: finishRow{RunID: runID, Result: res, At: time.Now()}}
}

func (s *SQLiteIndex) Stats() QueueStats {
	if s == nil {
		return QueueStats{}
	}
	return QueueStats{
		QueueDepth:           len(s.ch),
		QueueCapacity:        cap(s.ch),
		DropDestructionTotal: s.dropDestruction.Load(),
		DropTickTotal:        s.dropTick.Load(),
	}
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertDestruction, _ := s.db.Prepare(`INSERT OR REPLACE INTO destructions(run_id,tick,colony_id,colony,ant_a,ant_b,ants) VALUES(?,?,?,?,?,?,?)`)
	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(run_id,tick,alive,dead,moved,trapped,stranded,digest) VALUES(?,?,?,?,?,?,?,?)`)
	insertRun, _ := s.db.Prepare(`INSERT INTO runs(run_id,map_path,ants,colonies,chunk_size,max_moves,spawn_seed,move_seed_base,workers,started_at) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	updateRun, _ := s.db.Prepare(`UPDATE runs SET finished_at=?,outcome=?,ticks=?,alive=?,destroyed=?,colonies_alive=?,elapsed_ms=? WHERE run_id=?`)
	defer func() {
		for _, st := range []*sql.Stmt{insertRun, insertDestruction, insertTick, updateRun} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	exec := func(st *sql.Stmt, args ...any) {
		if st == nil || tx == nil {
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return
		}
		opCount++
	}

	for r := range s.ch {
		if r.kind == reqBegin {
			// Flush pending writes of earlier runs, then insert outside the batch
			// so the caller gets the real error.
			commit()
			r.done <- insertRunRow(insertRun, r.begin)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqDestruction:
			d := r.destruction
			exec(insertDestruction, d.RunID, int64(d.Tick), d.ColonyID, d.Colony, d.AntA, d.AntB, d.Ants)
		case reqTick:
			tk := r.tick
			exec(insertTick, tk.RunID, int64(tk.Tick), tk.Alive, tk.Dead, tk.Moved, tk.Trapped, tk.Stranded, tk.Digest)
		case reqFinish:
			f := r.finish
			res := f.Result
			exec(updateRun,
				f.At.UTC().Format(time.RFC3339Nano),
				res.Outcome.String(),
				int64(res.Ticks),
				res.Alive,
				res.Destroyed,
				res.ColoniesAlive,
				float64(res.Elapsed.Microseconds())/1000.0,
				f.RunID,
			)
			// A finished run is a natural durability point.
			commit()
			continue
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}

func insertRunRow(st *sql.Stmt, info engine.RunInfo) error {
	if st == nil {
		return fmt.Errorf("runs table not prepared")
	}
	cfg := info.Config
	_, err := st.Exec(
		info.RunID,
		info.MapPath,
		info.Ants,
		info.Colonies,
		cfg.ChunkSize,
		cfg.MaxMoves,
		cfg.SpawnSeed,
		cfg.MoveSeedBase,
		cfg.Workers,
		info.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}
