package store

import (
	"context"
	"database/sql"
	"fmt"
)

// WriteJournal inserts a journal header.
// Uses ON CONFLICT(id) DO NOTHING: reopening an existing journal is a no-op.
func (s *Store) WriteJournal(ctx context.Context, j Journal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journals
		(id, config, topology_hash, start_screen, engine_version, journal_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		j.ID,
		j.Config,
		j.TopologyHash,
		j.StartScreen,
		j.EngineVersion,
		j.JournalVersion,
	)
	if err != nil {
		return fmt.Errorf("write journal %s: %w", j.ID, err)
	}
	return nil
}

// WriteFrame appends a frame with its commands, signals and run updates
// in one transaction. Either the whole frame is journaled or none of it.
func (s *Store) WriteFrame(ctx context.Context, f Frame) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write frame %d: begin tx: %w", f.Number, err)
	}
	defer tx.Rollback() // no-op after commit

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO frames (journal_id, number, delta_ns)
		VALUES (?, ?, ?)
	`, f.JournalID, f.Number, f.DeltaNS); err != nil {
		return fmt.Errorf("write frame %d: %w", f.Number, err)
	}

	for _, c := range f.Commands {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO commands (journal_id, frame, idx, type, payload)
			VALUES (?, ?, ?, ?, ?)
		`, f.JournalID, f.Number, c.Index, c.Type, c.Payload); err != nil {
			return fmt.Errorf("write frame %d: command %d: %w", f.Number, c.Index, err)
		}
	}

	for _, sig := range f.Signals {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO signals (journal_id, seq, frame, type, run_id, payload)
			VALUES (?, ?, ?, ?, ?, ?)
		`, f.JournalID, sig.Seq, f.Number, sig.Type, sig.RunID, sig.Payload); err != nil {
			return fmt.Errorf("write frame %d: signal %d: %w", f.Number, sig.Seq, err)
		}
	}

	for _, r := range f.Runs {
		if err := writeRun(ctx, tx, f.JournalID, r); err != nil {
			return fmt.Errorf("write frame %d: %w", f.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write frame %d: commit: %w", f.Number, err)
	}
	return nil
}

func writeRun(ctx context.Context, tx *sql.Tx, journalID string, r RunRecord) error {
	if !r.Ended() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, journal_id, started_seq, program_hash, length)
			VALUES (?, ?, ?, ?, ?)
		`, r.ID, journalID, r.StartedSeq, r.ProgramHash, r.Length)
		if err != nil {
			return fmt.Errorf("start run %s: %w", r.ID, err)
		}
		return nil
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE runs
		SET ended_seq = ?, outcome = ?, reason = ?, ticks = ?
		WHERE id = ? AND ended_seq IS NULL
	`, r.EndedSeq, r.Outcome, r.Reason, r.Ticks, r.ID)
	if err != nil {
		return fmt.Errorf("end run %s: %w", r.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end run %s: %w", r.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("end run %s: no open run with that id", r.ID)
	}
	return nil
}
