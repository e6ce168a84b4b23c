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

// ReplayResult summarizes a successful replay.
type ReplayResult struct {
	JournalID string        `json:"journal_id"`
	Frames    int           `json:"frames"`
	Commands  int           `json:"commands"`
	Signals   int           `json:"signals"`
	Runs      int           `json:"runs"`
	Elapsed   time.Duration `json:"elapsed"`
	Final     Snapshot      `json:"final"`
}

// Replay rebuilds a fresh engine from a journal header, feeds it the
// recorded frames and checks that every emitted signal matches the
// journal byte for byte.
//
// The same engine code path handles recording and replay; there is no
// replay mode. Determinism comes from three things:
//   - run IDs are taken from the journal instead of generated
//   - every frame is fed the recorded delta
//   - payloads are canonical JSON with Frame left out
//
// Returns a *ReplayError on divergence or an incompatible journal.
func Replay(ctx context.Context, st *store.Store, journalID string) (*ReplayResult, error) {
	header, err := st.ReadJournal(ctx, journalID)
	if err != nil {
		return nil, err
	}
	if header.JournalVersion != ir.JournalVersion {
		return nil, &ReplayError{
			Code:      ErrCodeIncompatible,
			JournalID: journalID,
			Message:   fmt.Sprintf("journal version %q, this build reads %q", header.JournalVersion, ir.JournalVersion),
		}
	}

	var cfg SessionConfig
	if err := json.Unmarshal([]byte(header.Config), &cfg); err != nil {
		return nil, fmt.Errorf("decode journal config: %w", err)
	}
	if got := cfg.Topology.Hash(); got != header.TopologyHash {
		return nil, &ReplayError{
			Code:      ErrCodeIncompatible,
			JournalID: journalID,
			Message:   fmt.Sprintf("topology hash %s does not match recorded %s", got, header.TopologyHash),
		}
	}
	screen, err := ParseScreen(header.StartScreen)
	if err != nil {
		return nil, fmt.Errorf("journal start screen: %w", err)
	}

	started, err := st.ReadSignals(ctx, journalID, SignalRunStarted.String())
	if err != nil {
		return nil, err
	}
	runIDs := make([]string, len(started))
	for i, s := range started {
		runIDs[i] = s.RunID
	}

	frames, err := st.ReadFrames(ctx, journalID)
	if err != nil {
		return nil, err
	}
	want, err := st.ReadSignals(ctx, journalID)
	if err != nil {
		return nil, err
	}

	e, err := New(cfg, WithStartScreen(screen), WithRunIDs(&journalRunIDs{ids: runIDs}))
	if err != nil {
		return nil, fmt.Errorf("rebuild engine: %w", err)
	}

	slog.Info("replay starting",
		"journal", journalID,
		"frames", len(frames),
		"signals", len(want),
		"engine_version", header.EngineVersion,
	)

	res := &ReplayResult{JournalID: journalID, Frames: len(frames), Runs: len(runIDs)}
	next := 0
	for _, f := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, rec := range f.Commands {
			cmd, err := DecodeCommand(rec.Payload)
			if err != nil {
				return nil, fmt.Errorf("frame %d command %d: %w", f.Number, rec.Index, err)
			}
			e.Submit(cmd)
			res.Commands++
		}

		for _, sig := range e.Frame(ctx, time.Duration(f.DeltaNS)) {
			got, err := sig.Encode()
			if err != nil {
				return nil, err
			}
			if next >= len(want) {
				return nil, &ReplayError{
					Code:      ErrCodeTruncated,
					JournalID: journalID,
					Frame:     f.Number,
					Seq:       sig.Seq,
					Got:       got,
					Message:   "replay emitted a signal the journal does not have",
				}
			}
			if w := want[next]; w.Payload != got {
				return nil, &ReplayError{
					Code:      ErrCodeDiverged,
					JournalID: journalID,
					Frame:     f.Number,
					Seq:       w.Seq,
					Want:      w.Payload,
					Got:       got,
					Message:   "replayed signal differs from journal",
				}
			}
			next++
		}
	}
	if next < len(want) {
		w := want[next]
		return nil, &ReplayError{
			Code:      ErrCodeTruncated,
			JournalID: journalID,
			Frame:     w.Frame,
			Seq:       w.Seq,
			Want:      w.Payload,
			Message:   fmt.Sprintf("replay stopped after %d of %d signals", next, len(want)),
		}
	}

	res.Signals = next
	res.Elapsed = e.Now()
	res.Final = e.Snapshot()
	slog.Info("replay complete", "journal", journalID, "signals", next, "elapsed", res.Elapsed)
	return res, nil
}

// journalRunIDs hands out the recorded run IDs. Once they run out it keeps
// going with placeholder names so the extra run shows up as a divergence
// instead of a panic.
type journalRunIDs struct {
	ids   []string
	extra int
}

func (g *journalRunIDs) Generate() string {
	if len(g.ids) > 0 {
		id := g.ids[0]
		g.ids = g.ids[1:]
		return id
	}
	g.extra++
	return fmt.Sprintf("unrecorded-%d", g.extra)
}
