package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-alert-bot/internal/market"
)

func testConfig() Config {
	return Config{
		MaxDrawdownPct:      30,
		TrailingStartPct:    20,
		TrailingGapPct:      15,
		LiquidityDropRugPct: 50,
		GrowthStepPct:       25,
		PositionTTL:         24 * time.Hour,
		SeenTTL:             24 * time.Hour,
	}
}

func snap(pair string, price, liquidity float64) *market.TokenSnapshot {
	return &market.TokenSnapshot{
		PairAddress:  pair,
		Symbol:       "TEST",
		Name:         "Test Token",
		PriceUSD:     price,
		LiquidityUSD: liquidity,
		ObservedAt:   time.Now(),
	}
}

func enter(t *testing.T, tr *Tracker, s *market.TokenSnapshot) {
	t.Helper()
	ev, ok := tr.Enter(s)
	require.True(t, ok, "expected entry to be accepted")
	require.Equal(t, EventEntry, ev.Kind)
}

func TestEnterRejectsDuplicates(t *testing.T) {
	tr := New(testConfig())

	enter(t, tr, snap("pair1", 1.0, 50000))

	_, ok := tr.Enter(snap("pair1", 1.1, 50000))
	assert.False(t, ok, "second entry for the same pair must be rejected")
	assert.Equal(t, 1, tr.Len())
}

func TestEnterRejectsSeenPairs(t *testing.T) {
	tr := New(testConfig())

	tr.MarkSeen("pair1")

	_, ok := tr.Enter(snap("pair1", 1.0, 50000))
	assert.False(t, ok, "a pair already in the seen set must not re-enter")
	assert.False(t, tr.Tracking("pair1"))
}

func TestStopLossBoundary(t *testing.T) {
	// Entry $1.00 with a 30% drawdown limit: $0.70 is exactly at the
	// limit and must not fire, $0.69 is past it and must.
	tr := New(testConfig())
	enter(t, tr, snap("pair1", 1.00, 50000))

	events := tr.Observe(snap("pair1", 0.70, 50000))
	assert.Empty(t, events, "drop of exactly the limit must not exit")
	assert.True(t, tr.Tracking("pair1"))

	events = tr.Observe(snap("pair1", 0.69, 50000))
	require.Len(t, events, 1)
	assert.Equal(t, EventStopLoss, events[0].Kind)
	assert.False(t, tr.Tracking("pair1"), "stop-loss removes the position")
}

func TestTrailingStop(t *testing.T) {
	// Entry $1.00, arm at +20%, gap 15%. Rise to $1.25 arms the trail
	// (peak $1.25), then $1.05 is a 16% drop from peak and fires.
	tr := New(testConfig())
	enter(t, tr, snap("pair1", 1.00, 50000))

	events := tr.Observe(snap("pair1", 1.25, 50000))
	assert.Empty(t, events, "rising to the peak emits nothing")

	events = tr.Observe(snap("pair1", 1.05, 50000))
	require.Len(t, events, 1)
	assert.Equal(t, EventTrailingStop, events[0].Kind)
	assert.InDelta(t, 1.25, events[0].PeakPrice, 1e-9)
	assert.False(t, tr.Tracking("pair1"))
}

func TestTrailingStopNotArmedBelowStart(t *testing.T) {
	// A 10% gain never arms the trail, so a later 15% drop from that
	// peak emits nothing (stop-loss is not reached either).
	tr := New(testConfig())
	enter(t, tr, snap("pair1", 1.00, 50000))

	tr.Observe(snap("pair1", 1.10, 50000))
	events := tr.Observe(snap("pair1", 0.93, 50000))
	assert.Empty(t, events)
	assert.True(t, tr.Tracking("pair1"))
}

func TestRugBoundary(t *testing.T) {
	// Peak liquidity $50,000 with a 50% rug threshold: $24,000 (52%
	// drop) fires, $26,000 (48% drop) does not.
	tr := New(testConfig())
	enter(t, tr, snap("pair1", 1.00, 50000))

	events := tr.Observe(snap("pair1", 1.00, 26000))
	assert.Empty(t, events, "48% liquidity drop stays below the threshold")

	events = tr.Observe(snap("pair1", 1.00, 24000))
	require.Len(t, events, 1)
	assert.Equal(t, EventRug, events[0].Kind)
	assert.False(t, tr.Tracking("pair1"))
}

func TestStopLossBeatsRug(t *testing.T) {
	// A single snapshot satisfying both exits emits only the
	// higher-priority stop-loss.
	tr := New(testConfig())
	enter(t, tr, snap("pair1", 1.00, 50000))

	events := tr.Observe(snap("pair1", 0.10, 1000))
	require.Len(t, events, 1)
	assert.Equal(t, EventStopLoss, events[0].Kind)
}

func TestPeaksAreMonotone(t *testing.T) {
	tr := New(testConfig())
	enter(t, tr, snap("pair1", 1.00, 50000))

	prices := []float64{1.05, 1.02, 1.10, 0.95, 1.10, 1.08}
	liquidity := []float64{52000, 48000, 60000, 55000, 58000, 59000}

	peakPrice, peakLiq := 1.00, 50000.0
	for i := range prices {
		tr.Observe(snap("pair1", prices[i], liquidity[i]))

		positions := tr.Positions()
		require.Len(t, positions, 1)
		pos := positions[0]

		assert.GreaterOrEqual(t, pos.PeakPrice, peakPrice)
		assert.GreaterOrEqual(t, pos.PeakLiquidityUSD, peakLiq)
		peakPrice = pos.PeakPrice
		peakLiq = pos.PeakLiquidityUSD
	}
	assert.InDelta(t, 1.10, peakPrice, 1e-9)
	assert.InDelta(t, 60000, peakLiq, 1e-9)
}

func TestNoResurrectionAfterExit(t *testing.T) {
	tr := New(testConfig())
	enter(t, tr, snap("pair1", 1.00, 50000))

	events := tr.Observe(snap("pair1", 0.50, 50000))
	require.Len(t, events, 1)

	// Further observations of the exited pair are ignored.
	events = tr.Observe(snap("pair1", 2.00, 50000))
	assert.Empty(t, events)
	assert.False(t, tr.Tracking("pair1"))

	// The exit deleted all history, so a fresh entry is permitted.
	_, ok := tr.Enter(snap("pair1", 2.00, 50000))
	assert.True(t, ok, "exit must delete seen history so re-entry works")
}

func TestGrowthStepSlides(t *testing.T) {
	// Growth step 25%: entry at $1.00 alerts at $1.25, which slides the
	// reference so the next alert needs $1.25*1.25.
	tr := New(testConfig())
	enter(t, tr, snap("pair1", 1.00, 50000))

	events := tr.Observe(snap("pair1", 1.20, 50000))
	assert.Empty(t, events, "+20% is below the growth step")

	events = tr.Observe(snap("pair1", 1.30, 50000))
	require.Len(t, events, 1)
	assert.Equal(t, EventGrowth, events[0].Kind)
	assert.InDelta(t, 30, events[0].ChangeFromEntryPct, 1e-6)

	events = tr.Observe(snap("pair1", 1.50, 50000))
	assert.Empty(t, events, "+15% over the last alert price is below the step")

	events = tr.Observe(snap("pair1", 1.70, 50000))
	require.Len(t, events, 1)
	assert.Equal(t, EventGrowth, events[0].Kind)
}

func TestGrowthStepBoundary(t *testing.T) {
	// Growth step 25% from a $1.00 entry: landing exactly on $1.25 does
	// not fire, one tick above does.
	tr := New(testConfig())
	enter(t, tr, snap("pair1", 1.00, 50000))

	events := tr.Observe(snap("pair1", 1.25, 50000))
	assert.Empty(t, events, "price exactly at the step must not fire")

	events = tr.Observe(snap("pair1", 1.26, 50000))
	require.Len(t, events, 1)
	assert.Equal(t, EventGrowth, events[0].Kind)
}

func TestTTLEvictionIsSilent(t *testing.T) {
	tr := New(testConfig())

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }

	enter(t, tr, snap("pair1", 1.00, 50000))
	enter(t, tr, snap("pair2", 2.00, 80000))

	now = now.Add(12 * time.Hour)
	assert.Equal(t, 0, tr.EvictExpired(), "no position is old enough yet")
	assert.Equal(t, 2, tr.Len())

	now = now.Add(12 * time.Hour)
	assert.Equal(t, 2, tr.EvictExpired())
	assert.Equal(t, 0, tr.Len())

	// Eviction deletes the seen history too, so the pair may re-enter.
	assert.False(t, tr.Seen("pair1"))
	_, ok := tr.Enter(snap("pair1", 1.00, 50000))
	assert.True(t, ok)
}

func TestSeenSetPruning(t *testing.T) {
	tr := New(testConfig())

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }

	tr.MarkSeen("ws-token")
	assert.True(t, tr.Seen("ws-token"))

	now = now.Add(25 * time.Hour)
	tr.EvictExpired()
	assert.False(t, tr.Seen("ws-token"), "stale seen entries are pruned")
}
