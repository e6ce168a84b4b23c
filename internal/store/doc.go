// Package store provides the SQLite run journal.
//
// The journal is an append-only audit log of an engine session:
//   - Journals: one header per session (config, topology hash, versions)
//   - Frames: elapsed delta per frame, with the commands processed in it
//   - Signals: every outbound signal, payload in canonical JSON
//   - Runs: one row per run, closed with its outcome
//
// Sessions are never restored from a journal. It exists for traces and
// for replay verification: re-executing the frames must reproduce the
// recorded signal stream byte for byte.
//
// # Ordering
//
// All ordering uses logical columns (frame number, signal seq), never
// timestamps, so a replayed session is comparable row by row.
//
// # Queries
//
// Signal and run reads are described as queryir queries and compiled by
// querysql, so every result comes back in a stable order with bound
// parameters. QuerySignals and QueryRuns accept arbitrary filters over
// those tables.
//
// # Database Configuration
//
//   - WAL mode: trace readers do not block the writer
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
