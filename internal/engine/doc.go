// Package engine implements the tickbot game core.
//
// The engine owns one play session at a time and advances it in frames.
// Presentation code submits commands from any goroutine and reads back
// signals; everything else happens on the single frame goroutine.
//
// ARCHITECTURE:
//
// Screen machine: Loading → Menu → Playing ⇄ Paused, and back to Menu.
// A Session exists only while Playing or Paused. Inside a session the
// phase machine alternates between Buying (edit the program, buy
// upgrades) and Running (the interpreter executes the program against a
// countdown).
//
// Frame processing:
//  1. The run in flight consumes the frame delta event by event. The next
//     event is the earlier of countdown expiry and the next due tick; on a
//     tie the countdown wins and the run fails.
//  2. Queued commands are processed in FIFO order. A refused command is a
//     no-op that logs a warning and emits command_rejected.
//  3. The frame is handed to the Recorder, if any.
//
// CRITICAL PATTERNS:
//
// Logical clock: every signal is stamped with a strictly increasing seq
// from Clock.Next(). Signal.At is simulated time, never wall time.
//
// Determinism: given the same config, run IDs, commands and frame deltas,
// the engine emits byte-identical signals. Replay relies on it: a journal
// is reproduced by feeding its frames to a fresh engine.
//
// Frame independence: because run timers resolve in time order, splitting
// the same elapsed time into different frames yields the same run.
// Journal uses this to merge idle frames.
package engine
