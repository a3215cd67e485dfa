package market

import "time"

// TokenSnapshot is one polled observation of a tradable pair. Snapshots are
// constructed fresh on every fetch and never mutated; continuity between
// observations of the same pair is reconstructed by the tracker, keyed on
// PairAddress.
type TokenSnapshot struct {
	PairAddress  string
	ChainID      string
	DexID        string
	URL          string // market-data page for the pair
	TokenAddress string // base token mint
	Symbol       string
	Name         string

	PriceUSD       float64
	LiquidityUSD   float64
	VolumeUSD      float64 // over the provider's reporting window
	PriceChangePct float64 // signed, over the provider's reporting window
	Buys           int
	Sells          int
	FDV            float64

	// CreatedAt is zero when the provider did not report a creation time.
	CreatedAt  time.Time
	ObservedAt time.Time
}

// BuyRatio returns buys / (buys + sells), or 0 when the pair has no
// transactions in the window.
func (s *TokenSnapshot) BuyRatio() float64 {
	total := s.Buys + s.Sells
	if total == 0 {
		return 0
	}
	return float64(s.Buys) / float64(total)
}

// AgeMinutes returns the pair age at the given instant. The second return
// is false when the provider did not report a creation time.
func (s *TokenSnapshot) AgeMinutes(now time.Time) (float64, bool) {
	if s.CreatedAt.IsZero() {
		return 0, false
	}
	return now.Sub(s.CreatedAt).Minutes(), true
}
