package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickbot/internal/queryir"
	"github.com/roach88/tickbot/internal/querysql"
)

func TestWriteJournal_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	j := createTestJournal(t, s, "j-1")
	require.NoError(t, s.WriteJournal(ctx, j), "second write is a no-op")

	got, err := s.ReadJournal(ctx, "j-1")
	require.NoError(t, err)
	assert.Equal(t, j, got)
}

func TestReadJournal_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadJournal(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestWriteFrame_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestJournal(t, s, "j-1")

	f1 := Frame{
		JournalID: "j-1",
		Number:    1,
		DeltaNS:   0,
		Commands: []CommandRecord{
			{Index: 0, Type: "add_instruction", Payload: `{"instruction":"MoveForward","type":"add_instruction"}`},
			{Index: 1, Type: "start_run", Payload: `{"type":"start_run"}`},
		},
		Signals: []SignalRecord{
			{Seq: 1, Type: "program_changed", Payload: `{"seq":1}`},
			{Seq: 2, Type: "run_started", RunID: "run-1", Payload: `{"seq":2}`},
		},
		Runs: []RunRecord{{ID: "run-1", StartedSeq: 2, ProgramHash: "ph", Length: 1}},
	}
	f2 := Frame{
		JournalID: "j-1",
		Number:    2,
		DeltaNS:   1_000_000_000,
		Signals: []SignalRecord{
			{Seq: 3, Type: "run_completed", RunID: "run-1", Payload: `{"seq":3}`},
		},
		Runs: []RunRecord{{ID: "run-1", EndedSeq: 3, Outcome: "success", Reason: "program_complete", Ticks: 1}},
	}
	require.NoError(t, s.WriteFrame(ctx, f1))
	require.NoError(t, s.WriteFrame(ctx, f2))

	frames, err := s.ReadFrames(ctx, "j-1")
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, int64(1), frames[0].Number)
	require.Len(t, frames[0].Commands, 2)
	assert.Equal(t, "add_instruction", frames[0].Commands[0].Type)
	assert.Equal(t, "start_run", frames[0].Commands[1].Type)
	assert.Equal(t, int64(1_000_000_000), frames[1].DeltaNS)
	assert.Empty(t, frames[1].Commands)

	signals, err := s.ReadSignals(ctx, "j-1")
	require.NoError(t, err)
	require.Len(t, signals, 3)
	for i, sig := range signals {
		assert.Equal(t, int64(i+1), sig.Seq)
	}
	assert.Equal(t, int64(2), signals[2].Frame)

	filtered, err := s.ReadSignals(ctx, "j-1", "run_started", "run_completed")
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	runSignals, err := s.ReadRunSignals(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, runSignals, 2)

	run, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.True(t, run.Ended())
	assert.Equal(t, "success", run.Outcome)
	assert.Equal(t, "program_complete", run.Reason)
	assert.Equal(t, 1, run.Ticks)
	assert.Equal(t, "ph", run.ProgramHash)

	summaries, err := s.ListJournals(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(2), summaries[0].Frames)
	assert.Equal(t, int64(3), summaries[0].Signals)
	assert.Equal(t, int64(1), summaries[0].Runs)
}

func TestWriteFrame_Atomic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestJournal(t, s, "j-1")

	// Duplicate signal seq inside one frame fails the whole frame.
	err := s.WriteFrame(ctx, Frame{
		JournalID: "j-1",
		Number:    1,
		Signals: []SignalRecord{
			{Seq: 1, Type: "wallet_changed", Payload: "{}"},
			{Seq: 1, Type: "wallet_changed", Payload: "{}"},
		},
	})
	require.Error(t, err)

	frames, err := s.ReadFrames(ctx, "j-1")
	require.NoError(t, err)
	assert.Empty(t, frames, "failed frame leaves nothing behind")
}

func TestWriteFrame_EndUnknownRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestJournal(t, s, "j-1")

	err := s.WriteFrame(ctx, Frame{
		JournalID: "j-1",
		Number:    1,
		Runs:      []RunRecord{{ID: "ghost", EndedSeq: 4, Outcome: "failure"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no open run")
}

func TestListRuns_OpenRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestJournal(t, s, "j-1")

	require.NoError(t, s.WriteFrame(ctx, Frame{
		JournalID: "j-1",
		Number:    1,
		Runs:      []RunRecord{{ID: "run-1", StartedSeq: 5, ProgramHash: "ph", Length: 3}},
	}))

	runs, err := s.ListRuns(ctx, "j-1")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].Ended())
	assert.Equal(t, "", runs[0].Outcome)
	assert.Equal(t, 3, runs[0].Length)

	all, err := s.ListRuns(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = s.ReadRun(ctx, "run-404")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestQuerySignals(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestJournal(t, s, "j-1")
	createTestJournal(t, s, "j-2")

	for _, jid := range []string{"j-2", "j-1"} {
		require.NoError(t, s.WriteFrame(ctx, Frame{
			JournalID: jid,
			Number:    1,
			Signals: []SignalRecord{
				{Seq: 1, Type: "wallet_changed", Payload: "{}"},
				{Seq: 2, Type: "tick_executed", RunID: "run-" + jid, Payload: "{}"},
				{Seq: 3, Type: "tick_executed", RunID: "run-" + jid, Payload: "{}"},
				{Seq: 4, Type: "run_completed", RunID: "run-" + jid, Payload: "{}"},
			},
		}))
	}

	all, err := s.QuerySignals(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 8)
	assert.Equal(t, "j-1", all[0].JournalID, "ordered by journal first")
	assert.Equal(t, "j-2", all[7].JournalID)

	window, err := s.QuerySignals(ctx, queryir.Where(
		queryir.Equals{Field: "journal_id", Value: "j-2"},
		queryir.Range{Field: "seq", Min: 2, Max: 3},
	))
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, int64(2), window[0].Seq)
	assert.Equal(t, int64(3), window[1].Seq)

	ticks, err := s.QuerySignals(ctx, queryir.And{Predicates: []queryir.Predicate{
		queryir.Equals{Field: "run_id", Value: "run-j-1"},
		queryir.In{Field: "type", Values: []any{"tick_executed"}},
	}})
	require.NoError(t, err)
	assert.Len(t, ticks, 2)

	_, err = s.QuerySignals(ctx, queryir.Equals{Field: "at", Value: "1s"})
	require.ErrorIs(t, err, querysql.ErrInvalidQuery)
}

func TestQueryRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestJournal(t, s, "j-1")

	require.NoError(t, s.WriteFrame(ctx, Frame{
		JournalID: "j-1",
		Number:    1,
		Runs: []RunRecord{
			{ID: "run-1", StartedSeq: 1, ProgramHash: "ph", Length: 1},
			{ID: "run-2", StartedSeq: 5, ProgramHash: "ph", Length: 2},
		},
	}))
	require.NoError(t, s.WriteFrame(ctx, Frame{
		JournalID: "j-1",
		Number:    2,
		Runs: []RunRecord{
			{ID: "run-1", EndedSeq: 3, Outcome: "success", Reason: "program_complete", Ticks: 1},
			{ID: "run-2", EndedSeq: 9, Outcome: "failure", Reason: "bomb_exploded", Ticks: 2},
		},
	}))

	failed, err := s.QueryRuns(ctx, queryir.Equals{Field: "outcome", Value: "failure"})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "run-2", failed[0].ID)
	assert.Equal(t, 2, failed[0].Ticks)

	long, err := s.QueryRuns(ctx, queryir.Range{Field: "length", Min: 2})
	require.NoError(t, err)
	require.Len(t, long, 1)
	assert.Equal(t, "run-2", long[0].ID)

	runs, err := s.ListRuns(ctx, "j-1")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-1", runs[0].ID)
}
