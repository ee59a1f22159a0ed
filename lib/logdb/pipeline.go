// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package logdb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/opine-ai/opine/lib/clock"
)

// DefaultQueueSize is the queue capacity when Config.QueueSize is zero.
const DefaultQueueSize = 1000

// Config holds the parameters for opening a log pipeline.
type Config struct {
	// Path is the filesystem path to the SQLite log database.
	// Required. The parent directory must exist.
	Path string

	// QueueSize is the ingestion queue capacity. Defaults to
	// DefaultQueueSize.
	QueueSize int

	// Level is the initial severity threshold name. Defaults to INFO.
	// Invalid names are an open error.
	Level string

	// PoolSize is the sink's connection pool size. Defaults to 4.
	PoolSize int

	// Fallback receives drop and write-failure notices — the one
	// place pipeline problems surface, since they must never reach
	// the logging call site. Defaults to os.Stderr.
	Fallback io.Writer

	// Clock provides the current time for purge cutoffs. Defaults to
	// clock.Real().
	Clock clock.Clock

	// Logger receives operational messages (open, close, drain
	// summary). It must not route back into this pipeline. If nil, a
	// no-op logger is used.
	Logger *slog.Logger
}

// Pipeline owns the full write path (queue, drain worker, sink) and
// the read-side facade (Logs, Purge). Open it once per process, hand
// its Handler to slog, and Close it last during shutdown so the final
// log events are still captured.
type Pipeline struct {
	store       *Store
	queue       *queue
	threshold   *slog.LevelVar
	clock       clock.Clock
	fallback    io.Writer
	logger      *slog.Logger
	processName string

	drainDone chan struct{}
	closeOnce sync.Once
	closeErr  error

	// Counters for Stats. Updated by producers (enqueued, dropped)
	// and the drain worker (written, writeErrors).
	enqueued    atomic.Uint64
	dropped     atomic.Uint64
	written     atomic.Uint64
	writeErrors atomic.Uint64
}

// Open validates the configuration, opens the sink (creating the
// schema if needed), and starts the drain worker. An error here is
// expected to be non-fatal to the host process: the caller should fall
// back to console-only logging instead of crashing.
func Open(cfg Config) (*Pipeline, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("logdb: Path is required")
	}

	levelName := cfg.Level
	if levelName == "" {
		levelName = LevelInfo
	}
	level, err := ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	fallback := cfg.Fallback
	if fallback == nil {
		fallback = os.Stderr
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}

	store, err := OpenStore(StoreConfig{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	threshold := new(slog.LevelVar)
	threshold.Set(level)

	pipeline := &Pipeline{
		store:       store,
		queue:       newQueue(cfg.QueueSize),
		threshold:   threshold,
		clock:       clk,
		fallback:    fallback,
		logger:      logger,
		processName: filepath.Base(os.Args[0]),
		drainDone:   make(chan struct{}),
	}

	go pipeline.drainLoop()

	logger.Info("log pipeline started",
		"path", cfg.Path,
		"level", LevelName(level),
		"queue_size", cap(pipeline.queue.entries),
	)
	return pipeline, nil
}

// drainLoop is the single writer to the sink. It runs until the queue
// closes and its remaining entries drain. One failed write never halts
// the loop: the failure goes to the fallback writer and the next
// record proceeds.
func (p *Pipeline) drainLoop() {
	defer close(p.drainDone)

	for record := range p.queue.entries {
		if err := p.store.Append(context.Background(), record); err != nil {
			p.writeErrors.Add(1)
			fmt.Fprintf(p.fallback, "logdb: write failed, record dropped: %v\n", err)
			continue
		}
		p.written.Add(1)
	}
}

// submit enqueues a normalized record, fire-and-forget. Drops are
// counted and surfaced on the fallback writer; nothing propagates to
// the caller.
func (p *Pipeline) submit(record Record) {
	if err := p.queue.enqueue(record); err != nil {
		p.dropped.Add(1)
		fmt.Fprintf(p.fallback, "logdb: record dropped: %v\n", err)
		return
	}
	p.enqueued.Add(1)
}

// SetLevel updates the process-wide severity threshold. The name is
// validated; unknown severities are rejected without changing the
// threshold.
func (p *Pipeline) SetLevel(name string) error {
	level, err := ParseLevel(name)
	if err != nil {
		return err
	}
	p.threshold.Set(level)
	p.logger.Info("log level updated", "level", LevelName(level))
	return nil
}

// Level returns the current severity threshold name.
func (p *Pipeline) Level() string {
	return LevelName(p.threshold.Level())
}

// Logs returns records matching the filter, most recent first. The
// limit is clamped to [1, 1000], defaulting to 100 when unset.
func (p *Pipeline) Logs(ctx context.Context, filter Filter) ([]Record, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = 100
	case filter.Limit > 1000:
		filter.Limit = 1000
	}
	return p.store.Query(ctx, filter)
}

// Purge deletes records older than the given number of days, measured
// from the pipeline clock's current time. Returns the count deleted.
func (p *Pipeline) Purge(ctx context.Context, days int) (int64, error) {
	if days < 0 {
		return 0, fmt.Errorf("logdb: purge days must be >= 0, got %d", days)
	}
	cutoff := FormatTimestamp(p.clock.Now().AddDate(0, 0, -days))
	deleted, err := p.store.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		p.logger.Info("purged old log records", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}

// Stats is a snapshot of the pipeline's operational counters.
type Stats struct {
	Enqueued    uint64
	Dropped     uint64
	Written     uint64
	WriteErrors uint64
}

// Stats returns the current counter values.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Enqueued:    p.enqueued.Load(),
		Dropped:     p.dropped.Load(),
		Written:     p.written.Load(),
		WriteErrors: p.writeErrors.Load(),
	}
}

// Close shuts the pipeline down: intake stops, the drain worker
// finishes the queued backlog, and the sink closes. Safe to call more
// than once.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		p.queue.close()
		<-p.drainDone

		stats := p.Stats()
		p.logger.Info("log pipeline stopped",
			"written", stats.Written,
			"dropped", stats.Dropped,
			"write_errors", stats.WriteErrors,
		)

		p.closeErr = p.store.Close()
	})
	return p.closeErr
}
