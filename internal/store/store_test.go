package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"journals", "frames", "commands", "signals", "runs"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	cases := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1", // NORMAL
		"busy_timeout": "5000",
		"foreign_keys": "1",
		"user_version": "1",
	}
	for name, want := range cases {
		if err := s.verifyPragma(name, want); err != nil {
			t.Error(err)
		}
	}
}

func TestSchema_Columns(t *testing.T) {
	s := createTestStore(t)

	expected := map[string][]string{
		"journals": {"id", "config", "topology_hash", "start_screen", "engine_version", "journal_version"},
		"frames":   {"journal_id", "number", "delta_ns"},
		"commands": {"journal_id", "frame", "idx", "type", "payload"},
		"signals":  {"journal_id", "seq", "frame", "type", "run_id", "payload"},
		"runs":     {"id", "journal_id", "started_seq", "program_hash", "length", "ended_seq", "outcome", "reason", "ticks"},
	}
	for table, cols := range expected {
		columns := getTableColumns(t, s.db, table)
		for _, col := range cols {
			if !contains(columns, col) {
				t.Errorf("%s table missing column %q", table, col)
			}
		}
	}
}

func TestSchema_Indexes(t *testing.T) {
	s := createTestStore(t)

	if !contains(getTableIndexes(t, s.db, "signals"), "idx_signals_run") {
		t.Error("signals table missing index idx_signals_run")
	}
	if !contains(getTableIndexes(t, s.db, "signals"), "idx_signals_type") {
		t.Error("signals table missing migrated index idx_signals_type")
	}
	if !contains(getTableIndexes(t, s.db, "runs"), "idx_runs_journal") {
		t.Error("runs table missing index idx_runs_journal")
	}
}

func TestConstraint_FrameNeedsJournal(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`INSERT INTO frames (journal_id, number, delta_ns) VALUES ('missing', 1, 0)`)
	if err == nil {
		t.Error("expected foreign key violation for frame without journal")
	}
}
