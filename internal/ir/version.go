package ir

// Version constants for the journal schema and engine.
const (
	// JournalVersion is the version of the run journal payload format.
	JournalVersion = "1"

	// EngineVersion is the tickbot engine version.
	EngineVersion = "0.1.0"
)
