package pumpportal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"dex-alert-bot/internal/metrics"
)

// NewTokenEvent is one new-token creation event from the PumpPortal feed.
// Messages without a mint (subscription acks, heartbeats) are discarded.
type NewTokenEvent struct {
	Mint         string  `json:"mint"`
	Name         string  `json:"name"`
	Symbol       string  `json:"symbol"`
	InitialBuy   float64 `json:"initialBuy"`
	MarketCapSol float64 `json:"marketCapSol"`
}

// Client maintains the PumpPortal WebSocket subscription. The connection is
// re-dialed after any read failure with a fixed backoff, and the
// subscription message is re-sent after every reconnect.
type Client struct {
	url           string
	reconnectWait time.Duration
	log           *logrus.Logger
}

// NewClient creates a new PumpPortal client.
func NewClient(url string, log *logrus.Logger) *Client {
	return &Client{
		url:           url,
		reconnectWait: 5 * time.Second,
		log:           log,
	}
}

// Run connects, subscribes and delivers events on the channel until the
// context is cancelled. Connection loss never propagates to the caller; the
// client retries forever.
func (c *Client) Run(ctx context.Context, events chan<- NewTokenEvent) {
	for {
		if err := c.connectAndRead(ctx, events); err != nil {
			metrics.WebSocketReconnects.Inc()
			c.log.WithError(err).Warn("PumpPortal connection lost, reconnecting")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnectWait):
		}
	}
}

func (c *Client) connectAndRead(ctx context.Context, events chan<- NewTokenEvent) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := c.subscribe(conn); err != nil {
		return err
	}

	c.log.WithField("url", c.url).Info("PumpPortal subscription established")

	// Unblock the read loop when the context is cancelled. The watcher
	// must not outlive this connection attempt or it piles up one
	// goroutine per reconnect.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var event NewTokenEvent
		if err := json.Unmarshal(message, &event); err != nil {
			c.log.WithError(err).Debug("Skipping unparseable PumpPortal message")
			continue
		}
		if event.Mint == "" {
			continue
		}

		select {
		case events <- event:
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Client) subscribe(conn *websocket.Conn) error {
	payload := map[string]interface{}{
		"method": "subscribeNewToken",
	}

	message, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return conn.WriteMessage(websocket.TextMessage, message)
}
