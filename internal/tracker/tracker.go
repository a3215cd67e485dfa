package tracker

import (
	"sync"
	"time"

	"dex-alert-bot/internal/market"
)

// EventKind identifies what a tracked position did on an observation.
type EventKind string

const (
	// EventEntry fires once when a pair is first admitted for tracking.
	EventEntry EventKind = "entry"
	// EventGrowth fires each time price clears the sliding growth step.
	EventGrowth EventKind = "growth"
	// Terminal kinds. At most one terminal event per tracked lifetime;
	// the position is removed when one fires.
	EventStopLoss     EventKind = "stop_loss"
	EventTrailingStop EventKind = "trailing_stop"
	EventRug          EventKind = "rug"
)

// Terminal reports whether the event kind removes the position.
func (k EventKind) Terminal() bool {
	return k == EventStopLoss || k == EventTrailingStop || k == EventRug
}

// Event is one alert-worthy transition emitted by Observe.
type Event struct {
	Kind     EventKind
	Snapshot market.TokenSnapshot

	EntryPrice       float64
	PeakPrice        float64
	PeakLiquidityUSD float64

	// Signed percentage moves at the moment the event fired.
	ChangeFromEntryPct float64
	ChangeFromPeakPct  float64
	LiquidityDropPct   float64

	EnteredAt time.Time
}

// Position is the per-pair mutable record owned by the Tracker.
type Position struct {
	PairAddress string
	Symbol      string
	Name        string

	EntryPrice       float64 // set once at entry
	PeakPrice        float64 // monotonically non-decreasing
	PeakLiquidityUSD float64 // monotonically non-decreasing
	LastAlertPrice   float64 // slides forward on each growth event

	EnteredAt    time.Time
	LastObserved time.Time

	// One-shot flags; each transitions false->true exactly once.
	stopLossFired     bool
	trailingStopFired bool
	rugFired          bool
}

// Config holds the exit thresholds. All percentages are expressed as whole
// percents (30 means 30%).
type Config struct {
	MaxDrawdownPct      float64
	TrailingStartPct    float64
	TrailingGapPct      float64
	LiquidityDropRugPct float64
	GrowthStepPct       float64

	// PositionTTL bounds how long an open position is retained; expired
	// positions are evicted without an event. SeenTTL bounds the
	// first-sight dedupe set.
	PositionTTL time.Duration
	SeenTTL     time.Duration
}

// Tracker owns all mutable pipeline state: open positions and the set of
// pairs already alerted as first sightings. All access is serialized behind
// one mutex so the poll loop and the WebSocket goroutine act as a single
// logical writer.
type Tracker struct {
	cfg Config

	mu        sync.Mutex
	positions map[string]*Position
	seen      map[string]time.Time

	now func() time.Time
}

// New creates an empty tracker.
func New(cfg Config) *Tracker {
	return &Tracker{
		cfg:       cfg,
		positions: make(map[string]*Position),
		seen:      make(map[string]time.Time),
		now:       time.Now,
	}
}

// Tracking reports whether the pair currently has an open position.
func (t *Tracker) Tracking(pairAddress string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.positions[pairAddress]
	return ok
}

// Seen reports whether the pair has already produced a first-sight alert.
func (t *Tracker) Seen(pairAddress string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.seen[pairAddress]
	return ok
}

// MarkSeen records a pair in the first-sight dedupe set without opening a
// position. Used for WebSocket new-token alerts and for state reloaded
// from storage at startup.
func (t *Tracker) MarkSeen(pairAddress string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.seen[pairAddress]; !ok {
		t.seen[pairAddress] = t.now()
	}
}

// Len returns the number of open positions.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.positions)
}

// Enter opens a position for a pair that passed the entry filter. Entry
// price, peak price and peak liquidity are captured from the snapshot. The
// second return is false when the pair is already tracked or already seen.
func (t *Tracker) Enter(snap *market.TokenSnapshot) (Event, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.positions[snap.PairAddress]; ok {
		return Event{}, false
	}
	if _, ok := t.seen[snap.PairAddress]; ok {
		return Event{}, false
	}

	now := t.now()
	pos := &Position{
		PairAddress:      snap.PairAddress,
		Symbol:           snap.Symbol,
		Name:             snap.Name,
		EntryPrice:       snap.PriceUSD,
		PeakPrice:        snap.PriceUSD,
		PeakLiquidityUSD: snap.LiquidityUSD,
		LastAlertPrice:   snap.PriceUSD,
		EnteredAt:        now,
		LastObserved:     now,
	}
	t.positions[snap.PairAddress] = pos
	t.seen[snap.PairAddress] = now

	return t.event(EventEntry, pos, snap), true
}

// Observe folds one snapshot into the tracked position for its pair,
// returning any events the observation produced. Pairs without an open
// position are ignored; an exited pair is never resurrected here.
//
// Peaks update first, then terminal conditions are checked in fixed
// priority order (stop-loss, trailing-stop, rug) and short-circuit: a
// single observation emits at most one terminal event. Growth events are
// only considered when no terminal fired.
func (t *Tracker) Observe(snap *market.TokenSnapshot) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	pos, ok := t.positions[snap.PairAddress]
	if !ok {
		return nil
	}

	pos.LastObserved = t.now()

	if snap.PriceUSD > pos.PeakPrice {
		pos.PeakPrice = snap.PriceUSD
	}
	if snap.LiquidityUSD > pos.PeakLiquidityUSD {
		pos.PeakLiquidityUSD = snap.LiquidityUSD
	}

	if kind, fired := t.checkTerminal(pos, snap); fired {
		delete(t.positions, snap.PairAddress)
		delete(t.seen, snap.PairAddress)
		return []Event{t.event(kind, pos, snap)}
	}

	// Growth requires strictly exceeding the step over the last alert
	// price; landing exactly on it does not fire.
	if t.cfg.GrowthStepPct > 0 && pos.LastAlertPrice > 0 {
		stepPrice := pos.LastAlertPrice * (1 + t.cfg.GrowthStepPct/100)
		if snap.PriceUSD > stepPrice {
			pos.LastAlertPrice = snap.PriceUSD
			return []Event{t.event(EventGrowth, pos, snap)}
		}
	}

	return nil
}

// checkTerminal evaluates the terminal conditions in priority order.
// Stop-loss fires only when the drawdown strictly exceeds the configured
// limit, so a drop of exactly the limit does not exit.
func (t *Tracker) checkTerminal(pos *Position, snap *market.TokenSnapshot) (EventKind, bool) {
	if t.cfg.MaxDrawdownPct > 0 && pos.EntryPrice > 0 && !pos.stopLossFired {
		stopPrice := pos.EntryPrice * (1 - t.cfg.MaxDrawdownPct/100)
		if snap.PriceUSD < stopPrice {
			pos.stopLossFired = true
			return EventStopLoss, true
		}
	}

	if t.cfg.TrailingGapPct > 0 && pos.EntryPrice > 0 && !pos.trailingStopFired {
		gainPct := (pos.PeakPrice/pos.EntryPrice - 1) * 100
		if gainPct >= t.cfg.TrailingStartPct {
			trailPrice := pos.PeakPrice * (1 - t.cfg.TrailingGapPct/100)
			if snap.PriceUSD <= trailPrice {
				pos.trailingStopFired = true
				return EventTrailingStop, true
			}
		}
	}

	if t.cfg.LiquidityDropRugPct > 0 && pos.PeakLiquidityUSD > 0 && !pos.rugFired {
		floor := pos.PeakLiquidityUSD * (1 - t.cfg.LiquidityDropRugPct/100)
		if snap.LiquidityUSD <= floor {
			pos.rugFired = true
			return EventRug, true
		}
	}

	return "", false
}

// EvictExpired removes open positions older than the position TTL and
// prunes stale first-sight entries. Eviction deletes all history for the
// pair and emits no event; it exists to bound memory, not as a trade rule.
// Returns the number of evicted positions.
func (t *Tracker) EvictExpired() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	evicted := 0

	if t.cfg.PositionTTL > 0 {
		for addr, pos := range t.positions {
			if now.Sub(pos.EnteredAt) >= t.cfg.PositionTTL {
				delete(t.positions, addr)
				delete(t.seen, addr)
				evicted++
			}
		}
	}

	if t.cfg.SeenTTL > 0 {
		for addr, seenAt := range t.seen {
			if _, open := t.positions[addr]; open {
				continue
			}
			if now.Sub(seenAt) >= t.cfg.SeenTTL {
				delete(t.seen, addr)
			}
		}
	}

	return evicted
}

// Positions returns a copy of the open positions, for the journal and for
// shutdown reporting.
func (t *Tracker) Positions() []Position {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Position, 0, len(t.positions))
	for _, pos := range t.positions {
		out = append(out, *pos)
	}
	return out
}

func (t *Tracker) event(kind EventKind, pos *Position, snap *market.TokenSnapshot) Event {
	ev := Event{
		Kind:             kind,
		Snapshot:         *snap,
		EntryPrice:       pos.EntryPrice,
		PeakPrice:        pos.PeakPrice,
		PeakLiquidityUSD: pos.PeakLiquidityUSD,
		EnteredAt:        pos.EnteredAt,
	}
	if pos.EntryPrice > 0 {
		ev.ChangeFromEntryPct = (snap.PriceUSD/pos.EntryPrice - 1) * 100
	}
	if pos.PeakPrice > 0 {
		ev.ChangeFromPeakPct = (snap.PriceUSD/pos.PeakPrice - 1) * 100
	}
	if pos.PeakLiquidityUSD > 0 {
		ev.LiquidityDropPct = (1 - snap.LiquidityUSD/pos.PeakLiquidityUSD) * 100
	}
	return ev
}
