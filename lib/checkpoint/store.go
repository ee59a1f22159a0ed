// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

// Package checkpoint persists conversation threads. Each thread is a
// sequence of turns keyed by thread ID; deleting a thread removes all
// of its turns. Turn payloads are stored as CBOR blobs so the turn
// shape can grow without schema migrations.
package checkpoint

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/opine-ai/opine/lib/clock"
	"github.com/opine-ai/opine/lib/codec"
	"github.com/opine-ai/opine/lib/sqlitepool"
)

const storeSchema = `
	CREATE TABLE IF NOT EXISTS checkpoints (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		thread_id TEXT NOT NULL,
		created   TEXT NOT NULL,
		payload   BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_checkpoints_thread_id ON checkpoints (thread_id);
`

// Turn is one conversation turn as persisted. Type uses the service's
// message vocabulary ("human", "ai").
type Turn struct {
	Type    string `cbor:"type"`
	Content string `cbor:"content"`
	RunID   string `cbor:"run_id,omitempty"`
}

// Store is the durable conversation store.
type Store struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// Config holds the parameters for opening a checkpoint store.
type Config struct {
	// Path is the filesystem path to the SQLite database file.
	// Required.
	Path string

	// PoolSize is the connection pool size. Defaults to 4.
	PoolSize int

	// Clock provides created-at timestamps. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives operational messages. If nil, a no-op logger is
	// used.
	Logger *slog.Logger
}

// Open opens (creating if necessary) the checkpoint database and
// ensures the schema exists.
func Open(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, storeSchema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("checkpoint: %w", err)
	}

	return &Store{pool: pool, clock: clk, logger: logger}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Append persists one turn at the end of a thread.
func (s *Store) Append(ctx context.Context, threadID string, turn Turn) error {
	if threadID == "" {
		return fmt.Errorf("checkpoint: append: thread ID is empty")
	}

	payload, err := codec.Marshal(turn)
	if err != nil {
		return fmt.Errorf("checkpoint: encoding turn: %w", err)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("checkpoint: append: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"INSERT INTO checkpoints (thread_id, created, payload) VALUES (?, ?, ?)",
		&sqlitex.ExecOptions{
			Args: []any{
				threadID,
				s.clock.Now().UTC().Format(time.RFC3339Nano),
				payload,
			},
		})
	if err != nil {
		return fmt.Errorf("checkpoint: append: %w", err)
	}
	return nil
}

// History returns a thread's turns in insertion order. An unknown
// thread yields an empty slice, not an error: an empty history and a
// never-seen thread are indistinguishable by design.
func (s *Store) History(ctx context.Context, threadID string) ([]Turn, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: history: %w", err)
	}
	defer s.pool.Put(conn)

	var turns []Turn
	err = sqlitex.Execute(conn,
		"SELECT payload FROM checkpoints WHERE thread_id = ? ORDER BY id ASC",
		&sqlitex.ExecOptions{
			Args: []any{threadID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				payload := make([]byte, stmt.ColumnLen(0))
				stmt.ColumnBytes(0, payload)

				var turn Turn
				if err := codec.Unmarshal(payload, &turn); err != nil {
					return fmt.Errorf("decoding turn: %w", err)
				}
				turns = append(turns, turn)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("checkpoint: history: %w", err)
	}
	return turns, nil
}

// Delete removes every turn of a thread and returns the count
// removed. Deleting an unknown thread removes zero turns and is not
// an error.
func (s *Store) Delete(ctx context.Context, threadID string) (int64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("checkpoint: delete: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"DELETE FROM checkpoints WHERE thread_id = ?",
		&sqlitex.ExecOptions{Args: []any{threadID}})
	if err != nil {
		return 0, fmt.Errorf("checkpoint: delete: %w", err)
	}

	deleted := int64(conn.Changes())
	if deleted > 0 {
		s.logger.Info("thread deleted",
			"logger", "checkpoint",
			"thread_id", threadID,
			"turns", deleted,
		)
	}
	return deleted, nil
}
