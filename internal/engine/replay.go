package engine

import (
	"bytes"
	"fmt"

	"github.com/roach88/hotbar/internal/config"
	"github.com/roach88/hotbar/internal/ir"
)

// ReplayResult is the outcome of Replay.
type ReplayResult struct {
	Session    string     `json:"session"`
	Inputs     int        `json:"inputs"`
	Outputs    int        `json:"outputs"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// OK reports whether the replayed outputs matched the recording.
func (r ReplayResult) OK() bool {
	return len(r.Mismatches) == 0
}

// Mismatch is one output position where recording and replay differ.
// Either side is nil when one run produced fewer outputs.
type Mismatch struct {
	Index    int       `json:"index"`
	Recorded *ir.Entry `json:"recorded,omitempty"`
	Replayed *ir.Entry `json:"replayed,omitempty"`
}

// replayWallClock reports the wall time of the entry being replayed.
type replayWallClock struct {
	now int64
}

func (c *replayWallClock) NowMs() int64 { return c.now }

// discardChannel accepts every probe. Send failures are not journaled, so
// replay treats every send as successful.
type discardChannel struct{}

func (discardChannel) Send(ir.InteractItem) error { return nil }

// Replay re-drives a fresh Session with the inputs of one journaled session
// and compares the decisions it makes against the recorded outputs.
//
// Replay is structural: the same Session code runs, fed the recorded wall
// time and channel availability of every input. Outputs are compared by
// kind, tick and canonical data, so entries decoded from SQLite and entries
// built in memory compare equal.
//
// entries must be one session in journal order, starting with its
// session_start entry.
func Replay(entries []ir.Entry, meta ItemMetadata) (ReplayResult, error) {
	if len(entries) == 0 {
		return ReplayResult{}, fmt.Errorf("replay: no entries")
	}
	start := entries[0]
	if start.Kind != ir.KindSessionStart {
		return ReplayResult{}, fmt.Errorf("replay: session %s: first entry is %s, want %s", start.SessionToken, start.Kind, ir.KindSessionStart)
	}

	cfgData, ok := start.Data["config"].(map[string]any)
	if !ok {
		return ReplayResult{}, fmt.Errorf("replay: session %s: session_start has no config", start.SessionToken)
	}

	wall := &replayWallClock{now: start.WallMs}
	journal := NewMemoryJournal()
	session := NewSession(config.FromData(cfgData), meta,
		WithWallClock(wall),
		WithJournal(journal),
		WithTokenGenerator(NewFixedGenerator(start.SessionToken)),
	)

	result := ReplayResult{Session: start.SessionToken}
	var recorded []ir.Entry

	for _, e := range entries[1:] {
		if e.SessionToken != start.SessionToken {
			return result, fmt.Errorf("replay: entry %d belongs to session %s, want %s", e.Seq, e.SessionToken, start.SessionToken)
		}
		if !e.Kind.IsInput() {
			recorded = append(recorded, e)
			continue
		}

		result.Inputs++
		wall.now = e.WallMs
		if err := applyInput(session, e); err != nil {
			return result, fmt.Errorf("replay: entry %d (%s): %w", e.Seq, e.Kind, err)
		}
	}

	var replayed []ir.Entry
	for _, e := range journal.Session(start.SessionToken) {
		if !e.Kind.IsInput() {
			replayed = append(replayed, e)
		}
	}

	result.Outputs = len(recorded)
	result.Mismatches = compareOutputs(recorded, replayed)
	return result, nil
}

// applyInput feeds one recorded input entry to session.
func applyInput(session *Session, e ir.Entry) error {
	switch e.Kind {
	case ir.KindTick:
		var ch Channel
		if dataBool(e.Data, "channel") {
			ch = discardChannel{}
		}
		session.Tick(dataBool(e.Data, "in_world"), ch)

	case ir.KindUse:
		itemData, ok := e.Data["item"].(map[string]any)
		if !ok {
			return fmt.Errorf("missing item")
		}
		stack, err := ir.ItemStackFromData(itemData)
		if err != nil {
			return err
		}
		hand, err := ir.ParseHand(dataString(e.Data, "hand"))
		if err != nil {
			return err
		}
		session.OnItemUse(ItemUse{Item: stack, Hand: hand, Spectator: dataBool(e.Data, "spectator")})

	case ir.KindChat:
		// Rejections are journaled as outputs and compared there.
		_, _ = session.Correlate(dataString(e.Data, "message"), dataInt(e.Data, "latency_ms"))

	case ir.KindSetGlobal:
		session.SetGlobal(dataInt(e.Data, "ticks"))

	case ir.KindSetEnabled:
		session.SetEnabled(dataBool(e.Data, "enabled"))

	case ir.KindJoin, ir.KindDisconnect:
		// Ends the session; nothing after it belongs to this token.

	case ir.KindSessionStart:
		return fmt.Errorf("unexpected second session_start")

	default:
		return fmt.Errorf("unknown input kind %q", e.Kind)
	}
	return nil
}

// compareOutputs pairs recorded and replayed outputs by position.
func compareOutputs(recorded, replayed []ir.Entry) []Mismatch {
	var mismatches []Mismatch
	for i := range max(len(recorded), len(replayed)) {
		var rec, rep *ir.Entry
		if i < len(recorded) {
			rec = &recorded[i]
		}
		if i < len(replayed) {
			rep = &replayed[i]
		}
		if rec == nil || rep == nil || !sameOutput(*rec, *rep) {
			mismatches = append(mismatches, Mismatch{Index: i, Recorded: rec, Replayed: rep})
		}
	}
	return mismatches
}

func sameOutput(a, b ir.Entry) bool {
	if a.Kind != b.Kind || a.Tick != b.Tick {
		return false
	}
	ca, errA := ir.MarshalCanonical(a.Data)
	cb, errB := ir.MarshalCanonical(b.Data)
	return errA == nil && errB == nil && bytes.Equal(ca, cb)
}

func dataBool(data map[string]any, key string) bool {
	b, _ := data[key].(bool)
	return b
}

func dataString(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// dataInt reads an integer written in memory (int, int64) or decoded from
// the store (int64).
func dataInt(data map[string]any, key string) int64 {
	switch v := data[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
