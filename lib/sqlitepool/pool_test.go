// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool

import (
	"context"
	"path/filepath"
	"testing"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Fatal("Open with empty Path succeeded, want error")
	}
}

func TestTakePutRoundtrip(t *testing.T) {
	pool, err := Open(Config{
		Path:     filepath.Join(t.TempDir(), "pool_test.db"),
		PoolSize: 2,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()
	conn, err := pool.Take(ctx)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}

	var one int
	err = sqlitex.ExecuteTransient(conn, "SELECT 1", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			one = stmt.ColumnInt(0)
			return nil
		},
	})
	pool.Put(conn)
	if err != nil {
		t.Fatalf("SELECT 1: %v", err)
	}
	if one != 1 {
		t.Errorf("SELECT 1 = %d", one)
	}
}

func TestOnConnectCreatesSchema(t *testing.T) {
	pool, err := Open(Config{
		Path:     filepath.Join(t.TempDir(), "schema_test.db"),
		PoolSize: 2,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn,
				"CREATE TABLE IF NOT EXISTS items (id INTEGER PRIMARY KEY, name TEXT);", nil)
		},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()

	// Both pooled connections must see the schema; OnConnect runs
	// per-connection and must be idempotent.
	for i := 0; i < 2; i++ {
		conn, err := pool.Take(ctx)
		if err != nil {
			t.Fatalf("Take %d: %v", i, err)
		}
		err = sqlitex.Execute(conn, "INSERT INTO items (name) VALUES (?)", &sqlitex.ExecOptions{
			Args: []any{"sample"},
		})
		pool.Put(conn)
		if err != nil {
			t.Fatalf("INSERT via connection %d: %v", i, err)
		}
	}
}

func TestOnConnectErrorSurfacesOnTake(t *testing.T) {
	pool, err := Open(Config{
		Path:     filepath.Join(t.TempDir(), "bad_schema.db"),
		PoolSize: 1,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, "THIS IS NOT SQL;", nil)
		},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Take(context.Background()); err == nil {
		t.Fatal("Take with failing OnConnect succeeded, want error")
	}
}
