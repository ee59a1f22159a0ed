// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package checkpoint

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/opine-ai/opine/lib/clock"
)

var storeTestEpoch = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(Config{
		Path:     filepath.Join(t.TempDir(), "checkpoints_test.db"),
		PoolSize: 2,
		Clock:    clock.Fake(storeTestEpoch),
		Logger:   slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("store.Close: %v", err)
		}
	})
	return store
}

func TestAppendAndHistory(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	turns := []Turn{
		{Type: "human", Content: "I love this product."},
		{Type: "ai", Content: "positive", RunID: "run-1"},
		{Type: "human", Content: "It broke after a week."},
		{Type: "ai", Content: "negative", RunID: "run-2"},
	}
	for i, turn := range turns {
		if err := store.Append(ctx, "thread-a", turn); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	history, err := store.History(ctx, "thread-a")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != len(turns) {
		t.Fatalf("history length = %d, want %d", len(history), len(turns))
	}
	for i, want := range turns {
		if history[i] != want {
			t.Errorf("turn %d = %+v, want %+v", i, history[i], want)
		}
	}
}

func TestHistoryIsolatesThreads(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, "thread-a", Turn{Type: "human", Content: "a"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Append(ctx, "thread-b", Turn{Type: "human", Content: "b"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	history, err := store.History(ctx, "thread-b")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].Content != "b" {
		t.Fatalf("History(thread-b) = %+v, want only thread-b's turn", history)
	}
}

func TestHistoryUnknownThreadIsEmpty(t *testing.T) {
	store := openTestStore(t)

	history, err := store.History(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("History(never-seen) = %+v, want empty", history)
	}
}

func TestAppendRejectsEmptyThreadID(t *testing.T) {
	store := openTestStore(t)
	if err := store.Append(context.Background(), "", Turn{Type: "human", Content: "x"}); err == nil {
		t.Fatal("Append with empty thread ID succeeded, want error")
	}
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Append(ctx, "thread-a", Turn{Type: "human", Content: fmt.Sprintf("t%d", i)}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := store.Append(ctx, "thread-b", Turn{Type: "human", Content: "keep"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	deleted, err := store.Delete(ctx, "thread-a")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}

	history, err := store.History(ctx, "thread-a")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("History after delete = %+v, want empty", history)
	}

	// Other threads are untouched.
	other, err := store.History(ctx, "thread-b")
	if err != nil {
		t.Fatalf("History(thread-b): %v", err)
	}
	if len(other) != 1 {
		t.Errorf("History(thread-b) length = %d, want 1", len(other))
	}

	// Deleting an absent thread is a no-op, not an error.
	deleted, err = store.Delete(ctx, "thread-a")
	if err != nil {
		t.Fatalf("Delete (repeat): %v", err)
	}
	if deleted != 0 {
		t.Errorf("repeat delete = %d, want 0", deleted)
	}
}
