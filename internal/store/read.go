package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tickbot/internal/queryir"
)

// ErrNotFound is returned when a journal or run does not exist.
var ErrNotFound = errors.New("not found")

// ReadJournal returns the header of journal id.
func (s *Store) ReadJournal(ctx context.Context, id string) (Journal, error) {
	var j Journal
	err := s.db.QueryRowContext(ctx, `
		SELECT id, config, topology_hash, start_screen, engine_version, journal_version
		FROM journals
		WHERE id = ?
	`, id).Scan(&j.ID, &j.Config, &j.TopologyHash, &j.StartScreen, &j.EngineVersion, &j.JournalVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Journal{}, fmt.Errorf("journal %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Journal{}, fmt.Errorf("read journal %s: %w", id, err)
	}
	return j, nil
}

// ListJournals returns every journal with row counts, ordered by id.
// UUIDv7 ids sort by creation time.
func (s *Store) ListJournals(ctx context.Context) ([]JournalSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT j.id, j.config, j.topology_hash, j.start_screen, j.engine_version, j.journal_version,
			(SELECT COUNT(*) FROM frames f WHERE f.journal_id = j.id),
			(SELECT COUNT(*) FROM signals g WHERE g.journal_id = j.id),
			(SELECT COUNT(*) FROM runs r WHERE r.journal_id = j.id)
		FROM journals j
		ORDER BY j.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query journals: %w", err)
	}
	defer rows.Close()

	out := []JournalSummary{}
	for rows.Next() {
		var js JournalSummary
		if err := rows.Scan(&js.ID, &js.Config, &js.TopologyHash, &js.StartScreen,
			&js.EngineVersion, &js.JournalVersion, &js.Frames, &js.Signals, &js.Runs); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		out = append(out, js)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journals: %w", err)
	}
	return out, nil
}

// ReadFrames returns the frames of a journal in order, each with its
// commands in processing order. Signals and Runs are left empty; use
// ReadSignals for the signal stream.
func (s *Store) ReadFrames(ctx context.Context, journalID string) ([]Frame, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT number, delta_ns
		FROM frames
		WHERE journal_id = ?
		ORDER BY number ASC
	`, journalID)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}

	frames := []Frame{}
	index := make(map[int64]int)
	for rows.Next() {
		f := Frame{JournalID: journalID}
		if err := rows.Scan(&f.Number, &f.DeltaNS); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		index[f.Number] = len(frames)
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate frames: %w", err)
	}
	rows.Close()

	crows, err := s.db.QueryContext(ctx, `
		SELECT frame, idx, type, payload
		FROM commands
		WHERE journal_id = ?
		ORDER BY frame ASC, idx ASC
	`, journalID)
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}
	defer crows.Close()

	for crows.Next() {
		var frame int64
		var c CommandRecord
		if err := crows.Scan(&frame, &c.Index, &c.Type, &c.Payload); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		i, ok := index[frame]
		if !ok {
			return nil, fmt.Errorf("command %d references missing frame %d", c.Index, frame)
		}
		frames[i].Commands = append(frames[i].Commands, c)
	}
	if err := crows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commands: %w", err)
	}
	return frames, nil
}

// ReadSignals returns the signals of a journal ordered by seq.
// A non-empty types list restricts the result to those signal types.
func (s *Store) ReadSignals(ctx context.Context, journalID string, types ...string) ([]SignalRecord, error) {
	return s.QuerySignals(ctx, queryir.Where(
		queryir.Equals{Field: "journal_id", Value: journalID},
		typeFilter(types),
	))
}

// ReadRunSignals returns the signals tagged with runID ordered by seq.
func (s *Store) ReadRunSignals(ctx context.Context, runID string) ([]SignalRecord, error) {
	return s.QuerySignals(ctx, queryir.Equals{Field: "run_id", Value: runID})
}

// QuerySignals returns the signals matching filter, ordered by journal
// then seq. A nil filter returns every signal.
func (s *Store) QuerySignals(ctx context.Context, filter queryir.Predicate) ([]SignalRecord, error) {
	query, args, err := s.compiler.Compile(queryir.Select{From: queryir.TableSignals, Filter: filter})
	if err != nil {
		return nil, fmt.Errorf("compile signal query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	out := []SignalRecord{}
	for rows.Next() {
		var r SignalRecord
		if err := rows.Scan(&r.JournalID, &r.Seq, &r.Frame, &r.Type, &r.RunID, &r.Payload); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signals: %w", err)
	}
	return out, nil
}

// ListRuns returns the runs of a journal by start order.
// An empty journalID lists the runs of every journal.
func (s *Store) ListRuns(ctx context.Context, journalID string) ([]RunRecord, error) {
	var filter queryir.Predicate
	if journalID != "" {
		filter = queryir.Equals{Field: "journal_id", Value: journalID}
	}
	return s.QueryRuns(ctx, filter)
}

// QueryRuns returns the runs matching filter, ordered by journal then
// start seq.
func (s *Store) QueryRuns(ctx context.Context, filter queryir.Predicate) ([]RunRecord, error) {
	query, args, err := s.compiler.Compile(queryir.Select{From: queryir.TableRuns, Filter: filter})
	if err != nil {
		return nil, fmt.Errorf("compile run query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	out := []RunRecord{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

func typeFilter(types []string) queryir.Predicate {
	if len(types) == 0 {
		return nil
	}
	values := make([]any, len(types))
	for i, t := range types {
		values[i] = t
	}
	return queryir.In{Field: "type", Values: values}
}

// ReadRun returns one run by id.
func (s *Store) ReadRun(ctx context.Context, id string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, journal_id, started_seq, program_hash, length, ended_seq, outcome, reason, ticks
		FROM runs
		WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunRecord, error) {
	var (
		r        RunRecord
		endedSeq sql.NullInt64
		outcome  sql.NullString
		reason   sql.NullString
		ticks    sql.NullInt64
	)
	if err := sc.Scan(&r.ID, &r.JournalID, &r.StartedSeq, &r.ProgramHash, &r.Length,
		&endedSeq, &outcome, &reason, &ticks); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, err
		}
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}
	r.EndedSeq = endedSeq.Int64
	r.Outcome = outcome.String
	r.Reason = reason.String
	r.Ticks = int(ticks.Int64)
	return r, nil
}
