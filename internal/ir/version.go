package ir

// Version constants for the journal schema and engine.
const (
	// JournalVersion is the journal entry schema version.
	JournalVersion = "1"

	// EngineVersion is the hotbar engine version.
	EngineVersion = "0.1.0"
)
