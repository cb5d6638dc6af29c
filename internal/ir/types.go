package ir

import "fmt"

// Hand identifies which hand held the used item.
type Hand uint8

const (
	HandMain Hand = iota
	HandOff
)

// String returns the lowercase hand name used in journals and scenarios.
func (h Hand) String() string {
	switch h {
	case HandMain:
		return "main"
	case HandOff:
		return "off"
	default:
		return fmt.Sprintf("hand(%d)", uint8(h))
	}
}

// ParseHand converts a hand name back to a Hand.
// An empty name is the main hand.
func ParseHand(name string) (Hand, error) {
	switch name {
	case "", "main":
		return HandMain, nil
	case "off":
		return HandOff, nil
	default:
		return HandMain, fmt.Errorf("unknown hand %q", name)
	}
}

// InteractItem is the outbound "use item in hand" action re-issued as a probe.
// Sequence carries the tick the action was scheduled on.
type InteractItem struct {
	Hand     Hand  `json:"hand"`
	Sequence int64 `json:"sequence"`
}

// CooldownEntry is an active cooldown window, inclusive of EndTick.
//
// INVARIANT: EndTick >= StartTick.
type CooldownEntry struct {
	StartTick int64 `json:"start_tick"`
	EndTick   int64 `json:"end_tick"`
}

// Duration returns the window length in ticks.
func (e CooldownEntry) Duration() int64 {
	return e.EndTick - e.StartTick
}

// Expired reports whether the window has passed at tick now.
// Comparison is exclusive: the entry is still active on EndTick itself.
func (e CooldownEntry) Expired(now int64) bool {
	return now > e.EndTick
}

// UsageEvent records one local attempt to use an item.
type UsageEvent struct {
	Item        ItemStack `json:"item"`
	WallClockMs int64     `json:"wall_clock_ms"`
}

// PendingProbe is a deferred re-issue of a local action, fired once
// FireTick <= current tick.
type PendingProbe struct {
	Payload       InteractItem `json:"payload"`
	ScheduledTick int64        `json:"scheduled_tick"`
	FireTick      int64        `json:"fire_tick"`
}

// Ready reports whether the probe should fire at tick now.
func (p PendingProbe) Ready(now int64) bool {
	return p.FireTick <= now
}

// Correlation is the outcome of matching a server cooldown notification
// to a logged item use.
type Correlation struct {
	Ability         string        `json:"ability"`
	DurationSeconds float64       `json:"duration_seconds"`
	LatencyMs       int64         `json:"latency_ms"`
	Ticks           int64         `json:"ticks"`
	Usage           UsageEvent    `json:"usage"`
	Entry           CooldownEntry `json:"entry"`

	// Applied is false when the ability was already cooling down and the
	// ledger kept the existing window.
	Applied bool `json:"applied"`
}
