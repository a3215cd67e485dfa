package birdeye

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

// Client handles communication with the Birdeye public API. Birdeye requires
// an API key in the X-API-KEY header and a chain selector header.
type Client struct {
	baseURL    string
	apiKey     string
	chain      string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

// NewClient creates a new Birdeye client.
func NewClient(baseURL, apiKey, chain string, rps float64) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		chain:      chain,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    ratelimit.New(rps),
	}
}

// TokenList fetches the top tokens sorted by liquidity and converts them to
// snapshots. Birdeye does not report per-window transaction counts, so Buys
// and Sells stay zero; callers filtering on transactions should rely on the
// DexScreener source.
func (c *Client) TokenList(ctx context.Context, limit int) ([]market.TokenSnapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u, err := url.Parse(c.baseURL + "/defi/tokenlist")
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	q := u.Query()
	q.Set("sort_by", "liquidity")
	q.Set("sort_type", "desc")
	q.Set("offset", "0")
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("x-chain", c.chain)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("401 Unauthorized - check BIRDEYE_API_KEY")
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var list TokenListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	now := time.Now()
	snapshots := make([]market.TokenSnapshot, 0, len(list.Data.Tokens))
	for _, token := range list.Data.Tokens {
		snap := market.TokenSnapshot{
			// Birdeye indexes by token mint, not pair; the mint serves as
			// the tracking key for this source.
			PairAddress:  token.Address,
			ChainID:      c.chain,
			URL:          fmt.Sprintf("https://birdeye.so/token/%s", token.Address),
			TokenAddress: token.Address,
			Symbol:       token.Symbol,
			Name:         token.Name,
			PriceUSD:     token.PriceUSD,
			LiquidityUSD: token.LiquidityUSD,
			VolumeUSD:    token.VolumeUSD,
			ObservedAt:   now,
		}
		if token.CreatedAt > 0 {
			snap.CreatedAt = time.Unix(token.CreatedAt, 0)
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, nil
}
