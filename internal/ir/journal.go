package ir

// EntryKind names a journal entry type.
type EntryKind string

// Input kinds are what the host fed the session; replay re-drives them.
const (
	KindSessionStart EntryKind = "session_start"
	KindJoin         EntryKind = "join"
	KindDisconnect   EntryKind = "disconnect"
	KindTick         EntryKind = "tick"
	KindUse          EntryKind = "use"
	KindChat         EntryKind = "chat"
	KindSetGlobal    EntryKind = "set_global"
	KindSetEnabled   EntryKind = "set_enabled"
)

// Output kinds are what the session decided; replay compares them.
const (
	KindProbeSent           EntryKind = "probe_sent"
	KindProbesDropped       EntryKind = "probes_dropped"
	KindCooldownSet         EntryKind = "cooldown_set"
	KindCorrelationRejected EntryKind = "correlation_rejected"
)

// IsInput reports whether entries of this kind are replayable inputs.
func (k EntryKind) IsInput() bool {
	switch k {
	case KindSessionStart, KindJoin, KindDisconnect, KindTick, KindUse, KindChat, KindSetGlobal, KindSetEnabled:
		return true
	default:
		return false
	}
}

// Entry is one journal record of a session.
//
// Seq orders entries within a session. Data holds canonical-JSON-safe
// values only (string, bool, int64, nested maps and slices).
type Entry struct {
	ID           string         `json:"id"`
	SessionToken string         `json:"session_token"`
	Seq          int64          `json:"seq"`
	Kind         EntryKind      `json:"kind"`
	Tick         int64          `json:"tick"`
	WallMs       int64          `json:"wall_ms"`
	Data         map[string]any `json:"data"`
}
