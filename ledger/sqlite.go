package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps blocks and snapshots in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path. ":memory:" gives a
// private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if path != ":memory:" {
		if parent := filepath.Dir(path); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{`PRAGMA busy_timeout = 5000;`, `PRAGMA journal_mode = WAL;`} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{`
CREATE TABLE IF NOT EXISTS blocks (
    idx INTEGER PRIMARY KEY,
    height INTEGER NOT NULL,
    game_id INTEGER NOT NULL,
    hash TEXT NOT NULL UNIQUE,
    prev_hash TEXT NOT NULL,
    body TEXT NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    block_idx INTEGER NOT NULL,
    game_id INTEGER NOT NULL,
    height INTEGER NOT NULL,
    phase TEXT NOT NULL,
    state TEXT NOT NULL,
    created_at_ms INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_blocks_game ON blocks(game_id, idx)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) AppendBlock(ctx context.Context, b Block) error {
	body, err := json.Marshal(b)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO blocks (idx, height, game_id, hash, prev_hash, body)
VALUES (?, ?, ?, ?, ?, ?)
`, b.Index, int64(b.Height), int64(b.GameID), b.Hash, b.PrevHash, string(body))
	return err
}

func (s *SQLiteStore) Blocks(ctx context.Context) ([]Block, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM blocks ORDER BY idx ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []Block
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var b Block
		if err := json.Unmarshal([]byte(body), &b); err != nil {
			return nil, fmt.Errorf("decoding block: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO snapshots (block_idx, game_id, height, phase, state, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?)
`, snap.BlockIndex, int64(snap.GameID), int64(snap.Height), snap.Phase, string(snap.State), time.Now().UTC().UnixMilli())
	return err
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context) (Snapshot, error) {
	var (
		snap           Snapshot
		gameID, height int64
		state          string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT block_idx, game_id, height, phase, state
FROM snapshots
ORDER BY id DESC
LIMIT 1
`).Scan(&snap.BlockIndex, &gameID, &height, &snap.Phase, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, err
	}
	snap.GameID = uint64(gameID)
	snap.Height = uint64(height)
	snap.State = json.RawMessage(state)
	return snap, nil
}
