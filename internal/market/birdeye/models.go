package birdeye

// TokenListResponse wraps the token list endpoint payload.
type TokenListResponse struct {
	Data struct {
		Tokens []Token `json:"tokens"`
	} `json:"data"`
	Success bool `json:"success"`
}

// Token is one token record from the liquidity-sorted token list.
type Token struct {
	Address      string  `json:"address"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	PriceUSD     float64 `json:"price"`
	LiquidityUSD float64 `json:"liquidity_usd"`
	VolumeUSD    float64 `json:"volume_usd"`
	// Unix seconds; 0 when the provider has no listing time.
	CreatedAt int64 `json:"created_at"`
}
