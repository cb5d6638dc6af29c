package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/roach88/hotbar/internal/engine"
	"github.com/roach88/hotbar/internal/ir"
)

// hostEvent is one line of the run command's input stream.
type hostEvent struct {
	Type string `json:"type"`

	// use
	Item      ir.ItemStack `json:"item"`
	Hand      string       `json:"hand"`
	Spectator bool         `json:"spectator"`

	// chat
	Message string `json:"message"`

	// latency
	LatencyMs int64 `json:"latency_ms"`

	// world, channel
	InWorld *bool `json:"in_world"`
	Up      *bool `json:"up"`

	// set_global
	Ticks int64 `json:"ticks"`

	// set_enabled
	Enabled *bool `json:"enabled"`

	// progress
	Ability string `json:"ability"`

	// place
	BlockEntity bool `json:"block_entity"`
	Sneaking    bool `json:"sneaking"`

	// charge_label
	Label string `json:"label"`

	// wait
	Ms int64 `json:"ms"`
}

// lineWriter serializes JSON lines written from the engine goroutine and
// the input reader.
type lineWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newLineWriter(w io.Writer) *lineWriter {
	return &lineWriter{enc: json.NewEncoder(w)}
}

func (w *lineWriter) write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(v)
}

// probeLine is what the run command prints for every probe it sends.
type probeLine struct {
	Type     string `json:"type"`
	Hand     string `json:"hand"`
	Sequence int64  `json:"sequence"`
}

// placeLine answers a place query.
type placeLine struct {
	Type    string `json:"type"`
	Item    string `json:"item"`
	Allowed bool   `json:"allowed"`
}

// chargeLabelLine answers a charge_label query. Label is empty when no
// counter should be drawn.
type chargeLabelLine struct {
	Type  string `json:"type"`
	Item  string `json:"item"`
	Label string `json:"label,omitempty"`
	Shown bool   `json:"shown"`
}

// lineChannel sends probes as JSON lines.
type lineChannel struct {
	out *lineWriter
}

func (c lineChannel) Send(p ir.InteractItem) error {
	return c.out.write(probeLine{Type: "probe", Hand: p.Hand.String(), Sequence: p.Sequence})
}

// streamHost is the engine.Host of the run command. Its state is set by
// input lines and polled by the engine every tick.
type streamHost struct {
	mu        sync.Mutex
	inWorld   bool
	channelUp bool
	latencyMs int64
	channel   lineChannel
}

func newStreamHost(out *lineWriter) *streamHost {
	return &streamHost{
		inWorld:   true,
		channelUp: true,
		channel:   lineChannel{out: out},
	}
}

func (h *streamHost) InWorld() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inWorld
}

func (h *streamHost) Channel() engine.Channel {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.channelUp {
		return nil
	}
	return h.channel
}

func (h *streamHost) LatencyMs() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latencyMs
}

func (h *streamHost) setInWorld(v bool) {
	h.mu.Lock()
	h.inWorld = v
	h.mu.Unlock()
}

func (h *streamHost) setChannelUp(v bool) {
	h.mu.Lock()
	h.channelUp = v
	h.mu.Unlock()
}

func (h *streamHost) setLatency(ms int64) {
	h.mu.Lock()
	h.latencyMs = ms
	h.mu.Unlock()
}

// toEngineEvent converts the queued kinds of host events.
// ok is false for kinds the reader applies itself.
func (ev hostEvent) toEngineEvent() (engine.Event, bool, error) {
	switch ev.Type {
	case "use":
		hand, err := ir.ParseHand(ev.Hand)
		if err != nil {
			return engine.Event{}, false, err
		}
		return engine.Event{
			Type: engine.EventItemUse,
			Use:  engine.ItemUse{Item: ev.Item, Hand: hand, Spectator: ev.Spectator},
		}, true, nil
	case "chat":
		return engine.Event{Type: engine.EventChat, Message: ev.Message}, true, nil
	case "join":
		return engine.Event{Type: engine.EventJoin}, true, nil
	case "disconnect":
		return engine.Event{Type: engine.EventDisconnect}, true, nil
	case "latency", "world", "channel", "set_global", "set_enabled", "progress", "place", "charge_label", "wait":
		return engine.Event{}, false, nil
	default:
		return engine.Event{}, false, fmt.Errorf("unknown event type %q", ev.Type)
	}
}
