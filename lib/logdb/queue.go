// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package logdb

import (
	"errors"
	"sync"
)

// ErrShutdown is returned by enqueue after the pipeline has begun
// shutting down. No new records are accepted once shutdown starts.
var ErrShutdown = errors.New("logdb: pipeline is shut down")

// ErrQueueFull is returned by enqueue when the queue is at capacity.
// The incoming (newest) record is the one dropped; records already
// queued are preserved.
var ErrQueueFull = errors.New("logdb: queue is full")

// queue is the bounded buffer between log producers and the single
// drain worker. Enqueue is non-blocking: a full queue rejects the
// incoming record immediately rather than stalling the logging call
// site. The consumer ranges over entries, which the close call
// terminates after the remaining records drain.
type queue struct {
	mu      sync.Mutex
	entries chan Record
	closed  bool
}

func newQueue(capacity int) *queue {
	if capacity <= 0 {
		capacity = DefaultQueueSize
	}
	return &queue{entries: make(chan Record, capacity)}
}

// enqueue offers a record to the queue. Returns ErrQueueFull when at
// capacity and ErrShutdown after close. Never blocks.
//
// The mutex does not serialize producers against each other for the
// channel send (the select is non-blocking); it exists to make the
// closed check and the send atomic with respect to close, so a
// producer can never send on a closed channel.
func (q *queue) enqueue(record Record) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrShutdown
	}

	select {
	case q.entries <- record:
		return nil
	default:
		return ErrQueueFull
	}
}

// close stops intake. Records already queued remain available to the
// consumer; once they drain, the consumer's range loop terminates.
// Idempotent.
func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.entries)
}
