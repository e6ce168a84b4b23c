package store

// Journal is the header of one recorded engine session.
type Journal struct {
	ID             string
	Config         string // session config as JSON
	TopologyHash   string
	StartScreen    string
	EngineVersion  string
	JournalVersion string
}

// JournalSummary is a Journal with row counts, for listings.
type JournalSummary struct {
	Journal
	Frames  int64
	Signals int64
	Runs    int64
}

// Frame is one recorded frame: the elapsed delta and the commands the
// engine processed at its end. Signals and Runs are written with it in
// the same transaction.
type Frame struct {
	JournalID string
	Number    int64
	DeltaNS   int64
	Commands  []CommandRecord
	Signals   []SignalRecord
	Runs      []RunRecord
}

// CommandRecord is one processed command, in processing order.
type CommandRecord struct {
	Index   int
	Type    string
	Payload string // canonical JSON
}

// SignalRecord is one emitted signal.
type SignalRecord struct {
	JournalID string
	Seq       int64
	Frame     int64
	Type      string
	RunID     string
	Payload   string // canonical JSON
}

// RunRecord tracks one run. A record with EndedSeq == 0 marks the start;
// a record with EndedSeq > 0 closes the run.
type RunRecord struct {
	ID          string
	JournalID   string
	StartedSeq  int64
	ProgramHash string
	Length      int
	EndedSeq    int64
	Outcome     string // "success", "failure" or "cancelled"
	Reason      string
	Ticks       int
}

// Ended reports whether the run has finished.
func (r RunRecord) Ended() bool {
	return r.EndedSeq > 0
}
