package indexdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"tribalgrid.ai/internal/persistence/log"
)

// SQLiteIndex is the admin read model: episodes, per-tick digests and
// per-team stockpile deltas. A single writer goroutine owns the database;
// producers enqueue and never block the sim. The JSONL logs stay the
// source of truth, the index only accelerates queries.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqStockpiles
	reqFlush
)

type req struct {
	kind reqKind

	episode string
	tick    log.TickEntry
	spTick  uint64
	deltas  [][]int32

	done chan struct{}
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS episodes (
			episode_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			end_tick INTEGER,
			final_digest TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			episode_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			PRIMARY KEY (episode_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS stockpile_deltas (
			episode_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			team INTEGER NOT NULL,
			item INTEGER NOT NULL,
			delta INTEGER NOT NULL,
			PRIMARY KEY (episode_id, tick, team, item)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_stockpile_team_tick ON stockpile_deltas(episode_id, team, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// StartEpisode registers a new episode row synchronously so queries see
// it before any tick arrives.
func (s *SQLiteIndex) StartEpisode(id string, seed int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO episodes (episode_id, seed, started_at) VALUES (?, ?, ?)`,
		id, seed, now,
	)
	return err
}

// FinishEpisode stamps the end of an episode.
func (s *SQLiteIndex) FinishEpisode(id string, endTick uint64, digest string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(
		`UPDATE episodes SET ended_at = ?, end_tick = ?, final_digest = ? WHERE episode_id = ?`,
		now, int64(endTick), digest, id,
	)
	return err
}

// WriteTick queues a tick digest row. Drops when the indexer falls
// behind; the JSONL log keeps the complete record.
func (s *SQLiteIndex) WriteTick(episode string, e log.TickEntry) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqTick, episode: episode, tick: e}:
	default:
	}
}

// WriteStockpileDeltas queues one tick's nonzero per-team item deltas.
func (s *SQLiteIndex) WriteStockpileDeltas(episode string, tick uint64, deltas [][]int32) {
	if s == nil || s.closed.Load() {
		return
	}
	cp := make([][]int32, len(deltas))
	for i, row := range deltas {
		cp[i] = append([]int32(nil), row...)
	}
	select {
	case s.ch <- req{kind: reqStockpiles, episode: episode, spTick: tick, deltas: cp}:
	default:
	}
}

// Flush waits for everything queued so far to hit the database.
func (s *SQLiteIndex) Flush() {
	if s == nil || s.closed.Load() {
		return
	}
	done := make(chan struct{})
	s.ch <- req{kind: reqFlush, done: done}
	<-done
}

func (s *SQLiteIndex) loop() {
	for r := range s.ch {
		switch r.kind {
		case reqTick:
			_, _ = s.db.Exec(
				`INSERT OR REPLACE INTO ticks (episode_id, tick, digest) VALUES (?, ?, ?)`,
				r.episode, int64(r.tick.Tick), r.tick.Digest,
			)
		case reqStockpiles:
			for team, row := range r.deltas {
				for item, d := range row {
					if d == 0 {
						continue
					}
					_, _ = s.db.Exec(
						`INSERT OR REPLACE INTO stockpile_deltas (episode_id, tick, team, item, delta) VALUES (?, ?, ?, ?, ?)`,
						r.episode, int64(r.spTick), team, item, d,
					)
				}
			}
		case reqFlush:
			close(r.done)
		}
	}
}

// TickCount reports how many tick rows an episode has.
func (s *SQLiteIndex) TickCount(episode string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM ticks WHERE episode_id = ?`, episode).Scan(&n)
	return n, err
}

// TickDigest returns the recorded digest of one tick.
func (s *SQLiteIndex) TickDigest(episode string, tick uint64) (string, error) {
	var d string
	err := s.db.QueryRow(
		`SELECT digest FROM ticks WHERE episode_id = ? AND tick = ?`,
		episode, int64(tick),
	).Scan(&d)
	return d, err
}

// StockpileTotal sums one team's recorded deltas for an item, i.e. the
// net stockpile movement over the episode so far.
func (s *SQLiteIndex) StockpileTotal(episode string, team, item int) (int64, error) {
	var n sql.NullInt64
	err := s.db.QueryRow(
		`SELECT SUM(delta) FROM stockpile_deltas WHERE episode_id = ? AND team = ? AND item = ?`,
		episode, team, item,
	).Scan(&n)
	return n.Int64, err
}
