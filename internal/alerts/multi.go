package alerts

import (
	"context"
	"errors"
	"fmt"
)

// MultiSender fans one alert out to several destinations, so a deployment
// can keep the structured log trail while also posting to Telegram.
type MultiSender struct {
	senders []Sender
}

// NewMultiSender wraps the given senders. Order is preserved.
func NewMultiSender(senders ...Sender) *MultiSender {
	return &MultiSender{senders: senders}
}

// Send delivers the payload to every destination. A failing destination
// never blocks the remaining ones; the failures are joined into a single
// error naming each sender type.
func (s *MultiSender) Send(ctx context.Context, payload *AlertPayload) error {
	var errs []error
	for _, sender := range s.senders {
		if err := sender.Send(ctx, payload); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", sender, err))
		}
	}
	return errors.Join(errs...)
}
