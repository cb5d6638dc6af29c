package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hotbar/internal/ir"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		body    string
		want    float64
		wantErr bool
	}{
		{"4.5s", 4.5, false},
		{"2.0s", 2.0, false},
		{"10s", 10, false},
		{"0s", 0, false},
		{"  3.25s  ", 3.25, false},
		{"1.5s remaining", 1.5, false},
		{"4.5", 0, true},
		{"s", 0, true},
		{"4.5ss", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"-2s", 0, true},
		{"NaNs", 0, true},
		{"Infs", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			got, err := ParseDuration(tt.body)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecognize(t *testing.T) {
	body, ok := Recognize("[CD] 4.5s", DefaultNotificationPrefix)
	require.True(t, ok)
	assert.Equal(t, "4.5s", body)

	_, ok = Recognize("[CD]4.5s", DefaultNotificationPrefix)
	assert.False(t, ok)

	_, ok = Recognize(" [CD] 4.5s", DefaultNotificationPrefix)
	assert.False(t, ok, "prefix must be at the start")

	// Decomposed "é" (e + U+0301) normalizes to the precomposed form.
	body, ok = Recognize("Re\u0301cupe\u0301ration 2s", "R\u00e9cup\u00e9ration ")
	require.True(t, ok)
	assert.Equal(t, "2s", body)
}

func TestParseNotification(t *testing.T) {
	sec, err := ParseNotification("[CD] 4.5s", DefaultNotificationPrefix)
	require.NoError(t, err)
	assert.Equal(t, 4.5, sec)

	_, err = ParseNotification("welcome back", DefaultNotificationPrefix)
	assert.Equal(t, ErrCodeNotRecognized, CorrelationCode(err))

	_, err = ParseNotification("[CD] fast", DefaultNotificationPrefix)
	assert.True(t, IsMalformed(err))
}

func TestCompensatedTicks(t *testing.T) {
	tests := []struct {
		seconds float64
		latency int64
		tps     int64
		want    int64
	}{
		{2.0, 150, 20, 40},
		{2.0, 1000, 20, 60},
		{2.0, 1999, 20, 60},
		{2.0, 2000, 20, 80},
		{4.5, 0, 20, 90},
		{0.07, 0, 20, 1},
		{0.02, 0, 20, 0},
		{3, 1500, 10, 40},
		{1, -500, 20, 20},
		{math.SmallestNonzeroFloat64, 0, 20, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CompensatedTicks(tt.seconds, tt.latency, tt.tps), "%vs @ %dms, %d tps", tt.seconds, tt.latency, tt.tps)
	}
}

func TestCorrelator_Resolve(t *testing.T) {
	c := &Correlator{Enabled: true, Metadata: testMeta}
	usages := []ir.UsageEvent{
		{Item: ir.ItemStack{ID: "fire_staff"}, WallClockMs: 100},
		{Item: ir.ItemStack{ID: "frost_staff"}, WallClockMs: 200},
		{Item: ir.ItemStack{ID: "heal_wand"}, WallClockMs: 300},
	}

	corr, err := c.Resolve("[CD] 2.0s", usages, 355, 150)
	require.NoError(t, err)
	assert.Equal(t, "FROSTBOLT", corr.Ability)
	assert.Equal(t, int64(40), corr.Ticks)
	assert.Equal(t, int64(150), corr.LatencyMs)
	assert.Equal(t, usages[1], corr.Usage)
	assert.False(t, corr.Applied, "Resolve never touches the ledger")
}

func TestCorrelator_Defaults(t *testing.T) {
	c := &Correlator{Enabled: true, Metadata: testMeta}
	usages := []ir.UsageEvent{{Item: ir.ItemStack{ID: "heal_wand"}, WallClockMs: 0}}

	corr, err := c.Resolve("[CD] 1s", usages, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultTicksPerSecond), corr.Ticks)
}

func TestCorrelator_NegativeLatencyClamped(t *testing.T) {
	c := &Correlator{Enabled: true, Metadata: testMeta}
	usages := []ir.UsageEvent{
		{Item: ir.ItemStack{ID: "fire_staff"}, WallClockMs: 1000},
		{Item: ir.ItemStack{ID: "frost_staff"}, WallClockMs: 1400},
	}

	corr, err := c.Resolve("[CD] 1s", usages, 1000, -400)
	require.NoError(t, err)
	assert.Equal(t, "FIREBALL", corr.Ability)
	assert.Equal(t, int64(0), corr.LatencyMs)
}

func TestCorrelator_NilMetadata(t *testing.T) {
	c := &Correlator{Enabled: true}
	usages := []ir.UsageEvent{{Item: ir.ItemStack{ID: "frost_staff"}}}

	_, err := c.Resolve("[CD] 1s", usages, 0, 0)
	assert.Equal(t, ErrCodeUnknownAbility, CorrelationCode(err))
}

func TestCorrelator_RejectionOrder(t *testing.T) {
	usages := []ir.UsageEvent{{Item: ir.ItemStack{ID: "dirt"}}}

	_, err := (&Correlator{Enabled: false, Metadata: testMeta}).Resolve("garbage", nil, 0, 0)
	assert.Equal(t, ErrCodeDisabled, CorrelationCode(err), "disabled wins over everything")

	c := &Correlator{Enabled: true, Metadata: testMeta}

	_, err = c.Resolve("garbage", nil, 0, 0)
	assert.Equal(t, ErrCodeNotRecognized, CorrelationCode(err))

	_, err = c.Resolve("[CD] garbage", nil, 0, 0)
	assert.Equal(t, ErrCodeNoUsageMatch, CorrelationCode(err), "usage match is checked before the duration")

	_, err = c.Resolve("[CD] garbage", usages, 0, 0)
	assert.Equal(t, ErrCodeUnknownAbility, CorrelationCode(err), "ability is checked before the duration")
}
