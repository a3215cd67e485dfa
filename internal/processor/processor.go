package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"dex-alert-bot/internal/alerts"
	"dex-alert-bot/internal/config"
	"dex-alert-bot/internal/filter"
	"dex-alert-bot/internal/market"
	"dex-alert-bot/internal/market/pumpportal"
	"dex-alert-bot/internal/metrics"
	"dex-alert-bot/internal/storage"
	"dex-alert-bot/internal/tracker"
)

// Source is one pollable market data feed. Fetch errors are contained to
// the current cycle; the loop never stops because a source is down.
type Source struct {
	Name  string
	Fetch func(ctx context.Context) ([]market.TokenSnapshot, error)
}

// Processor wires the collector sources, entry filter, tracker and alert
// sender into one poll cycle. It is the single writer of tracker state.
type Processor struct {
	cfg     *config.Config
	db      *storage.DB
	sources []Source
	tracker *tracker.Tracker
	sender  alerts.Sender
	log     *logrus.Logger

	thresholds filter.Thresholds
}

// New creates a new processor
func New(
	cfg *config.Config,
	db *storage.DB,
	sources []Source,
	trk *tracker.Tracker,
	sender alerts.Sender,
	log *logrus.Logger,
) *Processor {
	return &Processor{
		cfg:     cfg,
		db:      db,
		sources: sources,
		tracker: trk,
		sender:  sender,
		log:     log,
		thresholds: filter.Thresholds{
			MinLiquidityUSD:   cfg.MinLiquidityUSD,
			MaxLiquidityUSD:   cfg.MaxLiquidityUSD,
			MinVolumeUSD:      cfg.MinVolumeUSD,
			MinTxns:           cfg.MinTxns,
			MinBuyRatio:       cfg.MinBuyRatio,
			MinPriceChangePct: cfg.MinPriceChangePct,
			MaxAgeMinutes:     cfg.MaxAgeMinutes,
		},
	}
}

// LoadSeen rebuilds the first-sight dedupe set from the journal. Without a
// database this is a no-op and history resets on restart.
func (p *Processor) LoadSeen(ctx context.Context) error {
	since := time.Now().Add(-p.cfg.SeenTTL)
	pairs, err := p.db.LoadSeenPairs(ctx, since)
	if err != nil {
		return fmt.Errorf("load seen pairs: %w", err)
	}
	for _, addr := range pairs {
		p.tracker.MarkSeen(addr)
	}
	if len(pairs) > 0 {
		p.log.WithField("count", len(pairs)).Info("Restored seen pairs from database")
	}
	return nil
}

// RunCycle executes one poll iteration: fetch every source, fold the
// snapshots into the tracker, then sweep expired state. Per-source and
// per-snapshot failures are logged and skipped.
func (p *Processor) RunCycle(ctx context.Context) {
	for _, src := range p.sources {
		start := time.Now()
		snapshots, err := src.Fetch(ctx)
		metrics.RecordPoll(src.Name, time.Since(start), len(snapshots), err)

		if err != nil {
			p.log.WithError(err).WithField("source", src.Name).Warn("Fetch failed, skipping source this cycle")
			continue
		}

		p.log.WithFields(logrus.Fields{
			"source": src.Name,
			"count":  len(snapshots),
		}).Debug("Fetched snapshots")

		for i := range snapshots {
			p.processSnapshot(ctx, src.Name, &snapshots[i])
		}
	}

	evicted := p.tracker.EvictExpired()
	if evicted > 0 {
		metrics.PositionsExited.WithLabelValues("evicted").Add(float64(evicted))
		p.log.WithField("count", evicted).Info("Evicted expired positions")
	}
	metrics.PositionsOpen.Set(float64(p.tracker.Len()))
}

// processSnapshot routes one snapshot: tracked pairs are observed for exit
// and growth conditions, untracked pairs are run through the entry filter.
func (p *Processor) processSnapshot(ctx context.Context, source string, snap *market.TokenSnapshot) {
	if p.tracker.Tracking(snap.PairAddress) {
		for _, ev := range p.tracker.Observe(snap) {
			p.emit(ctx, ev)
		}
		return
	}

	if p.tracker.Seen(snap.PairAddress) {
		return
	}

	passed := filter.Passes(snap, p.thresholds, time.Now())
	metrics.RecordFilter(passed)
	if !passed {
		return
	}

	ev, ok := p.tracker.Enter(snap)
	if !ok {
		return
	}
	metrics.PositionsEntered.Inc()

	if err := p.db.InsertSeenPair(ctx, &storage.SeenPair{
		PairAddress: snap.PairAddress,
		Symbol:      snap.Symbol,
		Source:      source,
		SeenTS:      time.Now().Unix(),
	}); err != nil {
		metrics.RecordDatabaseQuery("insert_seen", err)
		p.log.WithError(err).Warn("Failed to journal seen pair")
	}

	p.emit(ctx, ev)
}

// HandleNewToken processes a launch event from the WebSocket feed. These
// events carry no price or liquidity, so they alert once and never open a
// position.
func (p *Processor) HandleNewToken(ctx context.Context, ev pumpportal.NewTokenEvent) {
	metrics.WebSocketEvents.Inc()

	if p.tracker.Seen(ev.Mint) {
		return
	}
	p.tracker.MarkSeen(ev.Mint)

	if err := p.db.InsertSeenPair(ctx, &storage.SeenPair{
		PairAddress: ev.Mint,
		Symbol:      ev.Symbol,
		Source:      "pumpportal",
		SeenTS:      time.Now().Unix(),
	}); err != nil {
		metrics.RecordDatabaseQuery("insert_seen", err)
		p.log.WithError(err).Warn("Failed to journal seen pair")
	}

	payload := &alerts.AlertPayload{
		Severity:     alerts.SeverityInfo,
		Kind:         alerts.KindNewToken,
		PairAddress:  ev.Mint,
		TokenAddress: ev.Mint,
		Symbol:       ev.Symbol,
		Name:         ev.Name,
		ChainID:      "solana",
		PairURL:      fmt.Sprintf("https://dexscreener.com/solana/%s", ev.Mint),
		Timestamp:    time.Now(),
		Environment:  p.cfg.Environment,
	}
	p.send(ctx, payload)
}

// Heartbeat sends the periodic "still alive" notice.
func (p *Processor) Heartbeat(ctx context.Context) {
	payload := &alerts.AlertPayload{
		Severity:    alerts.SeverityInfo,
		Kind:        alerts.KindHeartbeat,
		Message:     fmt.Sprintf("🤖 Bot alive, tracking %d positions", p.tracker.Len()),
		Timestamp:   time.Now(),
		Environment: p.cfg.Environment,
	}
	p.send(ctx, payload)
}

// emit converts a tracker event into an alert and journals the lifecycle
// transition.
func (p *Processor) emit(ctx context.Context, ev tracker.Event) {
	snap := ev.Snapshot
	payload := &alerts.AlertPayload{
		Severity:           severityFor(ev.Kind),
		Kind:               kindFor(ev.Kind),
		PairAddress:        snap.PairAddress,
		TokenAddress:       snap.TokenAddress,
		Symbol:             snap.Symbol,
		Name:               snap.Name,
		ChainID:            snap.ChainID,
		DexID:              snap.DexID,
		PairURL:            snap.URL,
		PriceUSD:           snap.PriceUSD,
		LiquidityUSD:       snap.LiquidityUSD,
		VolumeUSD:          snap.VolumeUSD,
		EntryPrice:         ev.EntryPrice,
		PeakPrice:          ev.PeakPrice,
		ChangeFromEntryPct: ev.ChangeFromEntryPct,
		ChangeFromPeakPct:  ev.ChangeFromPeakPct,
		LiquidityDropPct:   ev.LiquidityDropPct,
		Timestamp:          time.Now(),
		Environment:        p.cfg.Environment,
	}
	p.send(ctx, payload)

	p.journal(ctx, ev)

	if ev.Kind.Terminal() {
		metrics.PositionsExited.WithLabelValues(string(ev.Kind)).Inc()
		if err := p.db.DeleteSeenPair(ctx, snap.PairAddress); err != nil {
			metrics.RecordDatabaseQuery("delete_seen", err)
			p.log.WithError(err).Warn("Failed to remove seen pair from journal")
		}
	}
}

func (p *Processor) send(ctx context.Context, payload *alerts.AlertPayload) {
	err := p.sender.Send(ctx, payload)
	metrics.RecordAlert(string(payload.Kind), err)
	if err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"kind":   payload.Kind,
			"symbol": payload.Symbol,
		}).Error("Failed to send alert")
		return
	}

	if err := p.db.InsertAlert(ctx, &storage.AlertRecord{
		Kind:         string(payload.Kind),
		Severity:     string(payload.Severity),
		PairAddress:  payload.PairAddress,
		Symbol:       payload.Symbol,
		Name:         payload.Name,
		PriceUSD:     payload.PriceUSD,
		LiquidityUSD: payload.LiquidityUSD,
		FromEntryPct: payload.ChangeFromEntryPct,
		CreatedTS:    time.Now().Unix(),
	}); err != nil {
		metrics.RecordDatabaseQuery("insert_alert", err)
		p.log.WithError(err).Warn("Failed to journal alert")
	}
}

func (p *Processor) journal(ctx context.Context, ev tracker.Event) {
	event := "entered"
	if ev.Kind != tracker.EventEntry {
		event = string(ev.Kind)
	}
	if ev.Kind == tracker.EventGrowth {
		return // growth alerts are in the alerts table already
	}

	if err := p.db.InsertPositionJournal(ctx, &storage.PositionJournal{
		PairAddress:      ev.Snapshot.PairAddress,
		Symbol:           ev.Snapshot.Symbol,
		Event:            event,
		EntryPrice:       ev.EntryPrice,
		ExitPrice:        ev.Snapshot.PriceUSD,
		PeakPrice:        ev.PeakPrice,
		PeakLiquidityUSD: ev.PeakLiquidityUSD,
		EnteredTS:        ev.EnteredAt.Unix(),
		CreatedTS:        time.Now().Unix(),
	}); err != nil {
		metrics.RecordDatabaseQuery("insert_journal", err)
		p.log.WithError(err).Warn("Failed to journal position transition")
	}
}

func severityFor(kind tracker.EventKind) alerts.Severity {
	switch kind {
	case tracker.EventStopLoss, tracker.EventRug:
		return alerts.SeverityAlert
	case tracker.EventTrailingStop:
		return alerts.SeverityWarn
	default:
		return alerts.SeverityInfo
	}
}

func kindFor(kind tracker.EventKind) alerts.Kind {
	switch kind {
	case tracker.EventEntry:
		return alerts.KindEntry
	case tracker.EventGrowth:
		return alerts.KindGrowth
	case tracker.EventStopLoss:
		return alerts.KindStopLoss
	case tracker.EventTrailingStop:
		return alerts.KindTrailingStop
	case tracker.EventRug:
		return alerts.KindRug
	default:
		return alerts.Kind(string(kind))
	}
}
