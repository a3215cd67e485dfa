package alerts

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSender sends alerts to the logger
type LogSender struct {
	log *logrus.Logger
}

// NewLogSender creates a new log sender
func NewLogSender(log *logrus.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send logs the alert
func (s *LogSender) Send(ctx context.Context, payload *AlertPayload) error {
	s.log.WithFields(logrus.Fields{
		"severity":      payload.Severity,
		"kind":          payload.Kind,
		"symbol":        payload.Symbol,
		"pair":          payload.PairAddress,
		"price_usd":     payload.PriceUSD,
		"liquidity_usd": payload.LiquidityUSD,
		"from_entry":    payload.ChangeFromEntryPct,
	}).Info("Alert generated")
	return nil
}
