package engine

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/hotbar/internal/ir"
)

// DefaultNotificationPrefix marks server cooldown notifications, e.g. "[CD] 4.5s".
const DefaultNotificationPrefix = "[CD] "

// DefaultTicksPerSecond is the game's simulation rate.
const DefaultTicksPerSecond = 20

// ItemMetadata resolves what ability, if any, an item grants.
// Implemented by mmoitems.Resolver.
type ItemMetadata interface {
	HasAbility(ir.ItemStack) bool
	AbilityID(ir.ItemStack) (string, bool)
}

// Correlator turns a server notification into a cooldown for the item use
// that caused it.
//
// Correlator holds no mutable state. Resolve works on a usage snapshot so the
// nearest-timestamp scan runs outside the session lock.
type Correlator struct {
	Enabled        bool
	Prefix         string
	TicksPerSecond int64
	Metadata       ItemMetadata
}

// Resolve matches message against usages and computes the cooldown length.
//
// nowMs is the wall clock when the message arrived and latencyMs the
// measured round trip; the usage nearest nowMs-latencyMs is taken as the
// cause. The returned Correlation has Entry and Applied unset: writing it to
// the ledger is the caller's job.
//
// Rejections are checked in order: disabled, prefix, usage match, ability,
// duration.
func (c *Correlator) Resolve(message string, usages []ir.UsageEvent, nowMs, latencyMs int64) (*ir.Correlation, error) {
	if !c.Enabled {
		return nil, newCorrelationError(ErrCodeDisabled, message, "cooldown prediction is disabled")
	}

	body, ok := Recognize(message, c.prefix())
	if !ok {
		return nil, newCorrelationError(ErrCodeNotRecognized, message, "missing prefix %q", c.prefix())
	}

	latencyMs = max(latencyMs, 0)
	usage, ok := BestMatch(usages, nowMs-latencyMs)
	if !ok {
		return nil, newCorrelationError(ErrCodeNoUsageMatch, message, "no item use recorded")
	}

	ability, ok := "", false
	if c.Metadata != nil {
		ability, ok = c.Metadata.AbilityID(usage.Item)
	}
	if !ok {
		return nil, newCorrelationError(ErrCodeUnknownAbility, message, "item %s has no ability", usage.Item.ID)
	}

	seconds, err := ParseDuration(body)
	if err != nil {
		return nil, newCorrelationError(ErrCodeMalformedDuration, message, "%v", err)
	}

	return &ir.Correlation{
		Ability:         ability,
		DurationSeconds: seconds,
		LatencyMs:       latencyMs,
		Ticks:           CompensatedTicks(seconds, latencyMs, c.ticksPerSecond()),
		Usage:           usage,
	}, nil
}

func (c *Correlator) prefix() string {
	if c.Prefix == "" {
		return DefaultNotificationPrefix
	}
	return c.Prefix
}

func (c *Correlator) ticksPerSecond() int64 {
	if c.TicksPerSecond <= 0 {
		return DefaultTicksPerSecond
	}
	return c.TicksPerSecond
}

// Recognize strips prefix from an NFC-normalized message.
// ok is false when the message does not start with prefix.
func Recognize(message, prefix string) (body string, ok bool) {
	return strings.CutPrefix(norm.NFC.String(message), prefix)
}

// ParseDuration reads the leading "<seconds>s" token of a notification body.
// The seconds value must be a finite, non-negative number.
func ParseDuration(body string) (float64, error) {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return 0, &strconv.NumError{Func: "ParseDuration", Num: body, Err: strconv.ErrSyntax}
	}

	token := fields[0]
	num, ok := strings.CutSuffix(token, "s")
	if !ok {
		return 0, &strconv.NumError{Func: "ParseDuration", Num: token, Err: strconv.ErrSyntax}
	}

	seconds, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0, &strconv.NumError{Func: "ParseDuration", Num: token, Err: strconv.ErrRange}
	}
	return seconds, nil
}

// ParseNotification recognizes and parses a full notification.
// Returns an ErrCodeNotRecognized or ErrCodeMalformedDuration
// CorrelationError on failure.
func ParseNotification(message, prefix string) (float64, error) {
	body, ok := Recognize(message, prefix)
	if !ok {
		return 0, newCorrelationError(ErrCodeNotRecognized, message, "missing prefix %q", prefix)
	}
	seconds, err := ParseDuration(body)
	if err != nil {
		return 0, newCorrelationError(ErrCodeMalformedDuration, message, "%v", err)
	}
	return seconds, nil
}

// CompensatedTicks converts a server cooldown to client ticks and adds the
// round trip already spent, in whole seconds:
//
//	round(seconds*tps) + floor(latencyMs/1000)*tps
func CompensatedTicks(seconds float64, latencyMs, ticksPerSecond int64) int64 {
	base := int64(math.Round(seconds * float64(ticksPerSecond)))
	return base + (max(latencyMs, 0)/1000)*ticksPerSecond
}
