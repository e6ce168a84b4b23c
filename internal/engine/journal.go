package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/tickbot/internal/ir"
	"github.com/roach88/tickbot/internal/store"
)

// Journal records an engine session to the store so it can be replayed.
//
// Frames that processed no commands and emitted no signals are not written
// one by one; their deltas are carried into the next recorded frame. Run
// timers are resolved in time order, so the merged frame replays to the
// same signals.
type Journal struct {
	st *store.Store
	id string

	pending time.Duration
	written int64
}

// StartJournal writes the journal header for e and attaches the journal as
// e's recorder. It must be called before the first frame.
// An empty id is replaced with a fresh UUIDv7.
func StartJournal(ctx context.Context, st *store.Store, e *Engine, id string) (*Journal, error) {
	if e.frame > 0 {
		return nil, fmt.Errorf("journal must start before the first frame, engine is at frame %d", e.frame)
	}
	if id == "" {
		id = UUIDv7Generator{}.Generate()
	}

	cfg, err := json.Marshal(e.cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal session config: %w", err)
	}
	header := store.Journal{
		ID:             id,
		Config:         string(cfg),
		TopologyHash:   e.cfg.Topology.Hash(),
		StartScreen:    e.start.String(),
		EngineVersion:  ir.EngineVersion,
		JournalVersion: ir.JournalVersion,
	}
	if err := st.WriteJournal(ctx, header); err != nil {
		return nil, err
	}

	j := &Journal{st: st, id: id}
	e.recorder = j
	slog.Info("journal started", "journal", id, "start_screen", header.StartScreen)
	return j, nil
}

// ID returns the journal identifier.
func (j *Journal) ID() string {
	return j.id
}

// RecordFrame implements Recorder.
func (j *Journal) RecordFrame(ctx context.Context, f FrameRecord) error {
	if len(f.Commands) == 0 && len(f.Signals) == 0 {
		j.pending += f.Delta
		return nil
	}

	frame, err := j.frame(f)
	if err != nil {
		return err
	}
	if err := j.st.WriteFrame(ctx, frame); err != nil {
		return err
	}
	j.pending = 0
	j.written++
	return nil
}

// Close writes any idle time still carried so a replay ends at the same
// engine time as the recorded session.
func (j *Journal) Close(ctx context.Context) error {
	if j.pending == 0 {
		return nil
	}
	frame := store.Frame{JournalID: j.id, Number: j.written + 1, DeltaNS: int64(j.pending)}
	if err := j.st.WriteFrame(ctx, frame); err != nil {
		return err
	}
	j.pending = 0
	j.written++
	return nil
}

func (j *Journal) frame(f FrameRecord) (store.Frame, error) {
	out := store.Frame{
		JournalID: j.id,
		Number:    j.written + 1,
		DeltaNS:   int64(j.pending + f.Delta),
	}

	for i, cmd := range f.Commands {
		payload, err := EncodeCommand(cmd)
		if err != nil {
			return store.Frame{}, err
		}
		out.Commands = append(out.Commands, store.CommandRecord{
			Index:   i,
			Type:    cmd.Type.String(),
			Payload: payload,
		})
	}

	for _, sig := range f.Signals {
		payload, err := sig.Encode()
		if err != nil {
			return store.Frame{}, err
		}
		out.Signals = append(out.Signals, store.SignalRecord{
			Seq:     sig.Seq,
			Type:    sig.Type.String(),
			RunID:   sig.RunID,
			Payload: payload,
		})

		switch sig.Type {
		case SignalRunStarted:
			out.Runs = append(out.Runs, store.RunRecord{
				ID:          sig.RunID,
				StartedSeq:  sig.Seq,
				ProgramHash: sig.ProgramHash,
				Length:      sig.Length,
			})
		case SignalRunCompleted:
			out.Runs = append(out.Runs, store.RunRecord{
				ID:       sig.RunID,
				EndedSeq: sig.Seq,
				Outcome:  sig.Outcome.String(),
				Reason:   sig.Reason.String(),
				Ticks:    sig.Ticks,
			})
		case SignalRunCancelled:
			out.Runs = append(out.Runs, store.RunRecord{
				ID:       sig.RunID,
				EndedSeq: sig.Seq,
				Outcome:  "cancelled",
				Ticks:    sig.Ticks,
			})
		}
	}
	return out, nil
}
