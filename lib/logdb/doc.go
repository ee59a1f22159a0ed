// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

// Package logdb implements the asynchronous database-backed log
// pipeline: application log events are normalized into records,
// buffered in a bounded queue, and drained by a single background
// worker into a SQLite sink, which also serves filtered queries and
// age-based purges.
//
// The write path never blocks or fails the logging call site. A full
// queue drops the incoming record; a failed database write is reported
// on the fallback writer (process stderr by default) and the worker
// moves on. Queued-but-undrained records are invisible to queries:
// reads go straight to the sink and observe only committed writes.
//
// The emission side is an slog.Handler, so the whole process logs
// through the standard structured logging API and the pipeline decides
// what reaches the database. The severity threshold is process-wide
// state with an explicit validated setter, not ambient mutation.
package logdb
