// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package logdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/opine-ai/opine/lib/sqlitepool"
)

// storeSchema creates the log table and its secondary indexes. Runs
// once per pooled connection and is idempotent, so every process start
// can apply it without data loss.
const storeSchema = `
	CREATE TABLE IF NOT EXISTS logs (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp    TEXT NOT NULL,
		level        TEXT NOT NULL,
		logger_name  TEXT NOT NULL,
		message      TEXT NOT NULL,
		exc_info     TEXT,
		thread_name  TEXT,
		process_name TEXT,
		extra        TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON logs (timestamp);
	CREATE INDEX IF NOT EXISTS idx_logs_level ON logs (level);
`

// Store is the durable sink for log records: SQLite storage plus the
// query and purge operations the read side is built on. Writes are
// expected from a single goroutine (the pipeline's drain worker);
// reads may run concurrently with writes under WAL.
type Store struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

// StoreConfig holds the parameters for opening a log store.
type StoreConfig struct {
	// Path is the filesystem path to the SQLite database file.
	// Required.
	Path string

	// PoolSize is the connection pool size. Defaults to 4.
	PoolSize int

	// Logger receives operational messages. If nil, a no-op logger
	// is used. This must NOT be a logger that writes back into this
	// store.
	Logger *slog.Logger
}

// OpenStore opens (creating if necessary) the log database and
// ensures the schema exists.
func OpenStore(cfg StoreConfig) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
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
		return nil, fmt.Errorf("logdb: %w", err)
	}

	return &Store{pool: pool, logger: logger}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Append inserts one record. The row identity is assigned by SQLite at
// write time, so rows with identical timestamps keep their insertion
// order for the query tie-break.
func (s *Store) Append(ctx context.Context, record Record) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("logdb: append: %w", err)
	}
	defer s.pool.Put(conn)

	var extraJSON any
	if len(record.Extra) > 0 {
		data, err := json.Marshal(record.Extra)
		if err != nil {
			return fmt.Errorf("logdb: marshal extra: %w", err)
		}
		extraJSON = string(data)
	}

	err = sqlitex.Execute(conn, `INSERT INTO logs
		(timestamp, level, logger_name, message, exc_info, thread_name, process_name, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				record.Timestamp,
				record.Level,
				record.LoggerName,
				record.Message,
				nullableText(record.ExcInfo),
				nullableText(record.ThreadName),
				nullableText(record.ProcessName),
				extraJSON,
			},
		})
	if err != nil {
		return fmt.Errorf("logdb: append: %w", err)
	}
	return nil
}

// Filter specifies the criteria for querying records. All filter
// fields are optional and compose with logical AND; zero-valued fields
// are not applied. The timestamp range is inclusive on both ends.
type Filter struct {
	Level      string // Exact match on severity name.
	LoggerName string // Exact match on logger name.
	Start      string // Earliest timestamp (inclusive), storage format.
	End        string // Latest timestamp (inclusive), storage format.
	Limit      int    // Maximum rows to return (default 100).
}

// Query returns records matching the filter, most recent first. Rows
// with identical timestamps are ordered by insertion identity
// descending, so the result order is stable.
func (s *Store) Query(ctx context.Context, filter Filter) ([]Record, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("logdb: query: %w", err)
	}
	defer s.pool.Put(conn)

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var conditions []string
	var args []any

	if filter.Level != "" {
		conditions = append(conditions, "level = ?")
		args = append(args, filter.Level)
	}
	if filter.LoggerName != "" {
		conditions = append(conditions, "logger_name = ?")
		args = append(args, filter.LoggerName)
	}
	if filter.Start != "" {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.Start)
	}
	if filter.End != "" {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, filter.End)
	}

	query := "SELECT timestamp, level, logger_name, message, exc_info, " +
		"thread_name, process_name, extra FROM logs"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, limit)

	var records []Record
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			record, err := scanRecord(stmt)
			if err != nil {
				return err
			}
			records = append(records, record)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("logdb: query: %w", err)
	}
	return records, nil
}

// PurgeOlderThan deletes all rows with timestamp strictly less than
// cutoff (storage format) and returns the count deleted. A single bulk
// DELETE, atomic under SQLite's transaction guarantees: concurrent
// queries see either all of the rows or none of them.
func (s *Store) PurgeOlderThan(ctx context.Context, cutoff string) (int64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("logdb: purge: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, "DELETE FROM logs WHERE timestamp < ?",
		&sqlitex.ExecOptions{Args: []any{cutoff}})
	if err != nil {
		return 0, fmt.Errorf("logdb: purge: %w", err)
	}
	return int64(conn.Changes()), nil
}

// scanRecord reads one row back into a Record. The extra column is
// reconstituted with encoding/json — a safe structured reader; stored
// text is never evaluated.
func scanRecord(stmt *sqlite.Stmt) (Record, error) {
	record := Record{
		Timestamp:   stmt.ColumnText(0),
		Level:       stmt.ColumnText(1),
		LoggerName:  stmt.ColumnText(2),
		Message:     stmt.ColumnText(3),
		ExcInfo:     stmt.ColumnText(4),
		ThreadName:  stmt.ColumnText(5),
		ProcessName: stmt.ColumnText(6),
	}

	if !stmt.ColumnIsNull(7) {
		extraJSON := stmt.ColumnText(7)
		if err := json.Unmarshal([]byte(extraJSON), &record.Extra); err != nil {
			return record, fmt.Errorf("logdb: unmarshal extra: %w", err)
		}
	}

	return record, nil
}

// nullableText maps an empty string to NULL so optional columns stay
// NULL rather than storing empty text.
func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
