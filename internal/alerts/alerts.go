package alerts

import (
	"context"
	"time"
)

// Severity represents alert severity
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityAlert Severity = "ALERT"
)

// Kind classifies what the alert is about
type Kind string

const (
	KindNewToken     Kind = "new_token"
	KindEntry        Kind = "entry"
	KindGrowth       Kind = "growth"
	KindStopLoss     Kind = "stop_loss"
	KindTrailingStop Kind = "trailing_stop"
	KindRug          Kind = "rug"
	KindHeartbeat    Kind = "heartbeat"
)

// AlertPayload contains all information for an alert
type AlertPayload struct {
	Severity Severity
	Kind     Kind

	PairAddress  string
	TokenAddress string
	Symbol       string
	Name         string
	ChainID      string
	DexID        string
	PairURL      string

	PriceUSD     float64
	LiquidityUSD float64
	VolumeUSD    float64

	EntryPrice         float64
	PeakPrice          float64
	ChangeFromEntryPct float64
	ChangeFromPeakPct  float64
	LiquidityDropPct   float64

	// Free-form body used by kinds that carry no market data
	// (heartbeat, reconnect notices).
	Message string

	Timestamp   time.Time
	Environment string
}

// Sender defines the interface for alert senders
type Sender interface {
	Send(ctx context.Context, payload *AlertPayload) error
}
