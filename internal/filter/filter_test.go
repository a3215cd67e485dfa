package filter

import (
	"testing"
	"time"

	"dex-alert-bot/internal/market"
)

func TestPasses(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	base := market.TokenSnapshot{
		PairAddress:    "pair1",
		Symbol:         "TEST",
		PriceUSD:       0.001,
		LiquidityUSD:   50000,
		VolumeUSD:      20000,
		PriceChangePct: 12,
		Buys:           30,
		Sells:          10,
		CreatedAt:      now.Add(-30 * time.Minute),
	}

	thresholds := Thresholds{
		MinLiquidityUSD:   10000,
		MaxLiquidityUSD:   250000,
		MinVolumeUSD:      5000,
		MinTxns:           10,
		MinBuyRatio:       0.6,
		MinPriceChangePct: 5,
		MaxAgeMinutes:     120,
	}

	tests := []struct {
		name        string
		description string
		mutate      func(s *market.TokenSnapshot)
		thresholds  func(th *Thresholds)
		want        bool
	}{
		{
			name:        "healthy snapshot passes",
			description: "all fields inside the configured bounds",
			mutate:      func(s *market.TokenSnapshot) {},
			want:        true,
		},
		{
			name:        "liquidity below floor",
			description: "thin pools are rejected",
			mutate:      func(s *market.TokenSnapshot) { s.LiquidityUSD = 9999 },
			want:        false,
		},
		{
			name:        "liquidity above cap",
			description: "established pools are out of scope",
			mutate:      func(s *market.TokenSnapshot) { s.LiquidityUSD = 250001 },
			want:        false,
		},
		{
			name:        "liquidity exactly at floor",
			description: "bounds are inclusive",
			mutate:      func(s *market.TokenSnapshot) { s.LiquidityUSD = 10000 },
			want:        true,
		},
		{
			name:        "volume too low",
			description: "inactive pairs are rejected",
			mutate:      func(s *market.TokenSnapshot) { s.VolumeUSD = 4000 },
			want:        false,
		},
		{
			name:        "too few transactions",
			description: "buys plus sells must reach the minimum",
			mutate: func(s *market.TokenSnapshot) {
				s.Buys = 4
				s.Sells = 5
			},
			want: false,
		},
		{
			name:        "zero transactions yields zero buy ratio",
			description: "0/0 is treated as ratio 0, never a division error",
			mutate: func(s *market.TokenSnapshot) {
				s.Buys = 0
				s.Sells = 0
			},
			want: false,
		},
		{
			name:        "zero transactions passes when txn checks disabled",
			description: "disabled thresholds skip both the count and ratio checks",
			mutate: func(s *market.TokenSnapshot) {
				s.Buys = 0
				s.Sells = 0
			},
			thresholds: func(th *Thresholds) {
				th.MinTxns = 0
				th.MinBuyRatio = 0
			},
			want: true,
		},
		{
			name:        "sell pressure",
			description: "buy ratio below the minimum",
			mutate: func(s *market.TokenSnapshot) {
				s.Buys = 10
				s.Sells = 30
			},
			want: false,
		},
		{
			name:        "negative momentum",
			description: "price change below the configured minimum",
			mutate:      func(s *market.TokenSnapshot) { s.PriceChangePct = -3 },
			want:        false,
		},
		{
			name:        "too old",
			description: "pair created before the age cap",
			mutate:      func(s *market.TokenSnapshot) { s.CreatedAt = now.Add(-3 * time.Hour) },
			want:        false,
		},
		{
			name:        "unknown age fails the age cap",
			description: "a missing creation time is treated as infinitely old",
			mutate:      func(s *market.TokenSnapshot) { s.CreatedAt = time.Time{} },
			want:        false,
		},
		{
			name:        "unknown age passes when age cap disabled",
			description: "no age cap means unknown creation time is acceptable",
			mutate:      func(s *market.TokenSnapshot) { s.CreatedAt = time.Time{} },
			thresholds:  func(th *Thresholds) { th.MaxAgeMinutes = 0 },
			want:        true,
		},
		{
			name:        "zero price rejected",
			description: "snapshots without a usable price cannot be tracked",
			mutate:      func(s *market.TokenSnapshot) { s.PriceUSD = 0 },
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			tt.mutate(&s)

			th := thresholds
			if tt.thresholds != nil {
				tt.thresholds(&th)
			}

			if got := Passes(&s, th, now); got != tt.want {
				t.Errorf("%s: Passes() = %v, want %v", tt.description, got, tt.want)
			}
		})
	}
}

func TestBuyRatio(t *testing.T) {
	tests := []struct {
		name  string
		buys  int
		sells int
		want  float64
	}{
		{"all buys", 10, 0, 1.0},
		{"balanced", 10, 10, 0.5},
		{"no transactions", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := market.TokenSnapshot{Buys: tt.buys, Sells: tt.sells}
			if got := s.BuyRatio(); got != tt.want {
				t.Errorf("BuyRatio() = %v, want %v", got, tt.want)
			}
		})
	}
}
