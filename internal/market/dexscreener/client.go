package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dex-alert-bot/internal/market"
	"dex-alert-bot/internal/ratelimit"
)

// Window selects which provider reporting window is folded into the
// snapshot's volume and price-change fields.
type Window string

const (
	WindowM5  Window = "m5"
	WindowH1  Window = "h1"
	WindowH24 Window = "h24"
)

// Client handles communication with the DexScreener search API.
type Client struct {
	baseURL    string
	window     Window
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

// NewClient creates a new DexScreener client. The search endpoint is public;
// no auth headers are needed.
func NewClient(baseURL string, window Window, rps float64) *Client {
	return &Client{
		baseURL:    baseURL,
		window:     window,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    ratelimit.New(rps),
	}
}

// Search fetches pairs matching the query and converts them to snapshots.
// An empty result set is a valid, non-error outcome: the provider simply
// returned no matches this cycle.
func (c *Client) Search(ctx context.Context, query string) ([]market.TokenSnapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u, err := url.Parse(c.baseURL + "/latest/dex/search")
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var search SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	now := time.Now()
	snapshots := make([]market.TokenSnapshot, 0, len(search.Pairs))
	for _, pair := range search.Pairs {
		snapshots = append(snapshots, c.toSnapshot(&pair, now))
	}

	return snapshots, nil
}

func (c *Client) toSnapshot(pair *Pair, observedAt time.Time) market.TokenSnapshot {
	snap := market.TokenSnapshot{
		PairAddress:  pair.PairAddress,
		ChainID:      pair.ChainID,
		DexID:        pair.DexID,
		URL:          pair.URL,
		TokenAddress: pair.BaseToken.Address,
		Symbol:       pair.BaseToken.Symbol,
		Name:         pair.BaseToken.Name,
		PriceUSD:     parseFloat(pair.PriceUSD),
		LiquidityUSD: pair.Liquidity.USD,
		FDV:          pair.FDV,
		ObservedAt:   observedAt,
	}

	switch c.window {
	case WindowH1:
		snap.VolumeUSD = pair.Volume.H1
		snap.PriceChangePct = pair.PriceChange.H1
		snap.Buys = pair.Txns.H1.Buys
		snap.Sells = pair.Txns.H1.Sells
	case WindowH24:
		snap.VolumeUSD = pair.Volume.H24
		snap.PriceChangePct = pair.PriceChange.H24
		snap.Buys = pair.Txns.H24.Buys
		snap.Sells = pair.Txns.H24.Sells
	default:
		snap.VolumeUSD = pair.Volume.M5
		snap.PriceChangePct = pair.PriceChange.M5
		snap.Buys = pair.Txns.M5.Buys
		snap.Sells = pair.Txns.M5.Sells
	}

	if pair.PairCreatedAt > 0 {
		snap.CreatedAt = time.UnixMilli(pair.PairCreatedAt)
	}

	return snap
}

func parseFloat(s string) float64 {
	val, _ := strconv.ParseFloat(s, 64)
	return val
}
