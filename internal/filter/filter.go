package filter

import (
	"time"

	"dex-alert-bot/internal/market"
)

// Thresholds holds the numeric entry criteria a snapshot must satisfy.
// A zero or negative bound disables the corresponding check.
type Thresholds struct {
	MinLiquidityUSD   float64
	MaxLiquidityUSD   float64
	MinVolumeUSD      float64
	MinTxns           int
	MinBuyRatio       float64
	MinPriceChangePct float64
	MaxAgeMinutes     float64
}

// Passes reports whether the snapshot satisfies every enabled threshold.
// Deterministic and side-effect free given its inputs.
//
// Missing fields err toward exclusion: a pair with no creation timestamp is
// treated as infinitely old and fails any age cap, and a pair with zero
// transactions has buy ratio 0 and fails any positive ratio floor.
func Passes(snap *market.TokenSnapshot, th Thresholds, now time.Time) bool {
	if snap.PriceUSD <= 0 {
		return false
	}
	if th.MinLiquidityUSD > 0 && snap.LiquidityUSD < th.MinLiquidityUSD {
		return false
	}
	if th.MaxLiquidityUSD > 0 && snap.LiquidityUSD > th.MaxLiquidityUSD {
		return false
	}
	if th.MinVolumeUSD > 0 && snap.VolumeUSD < th.MinVolumeUSD {
		return false
	}
	if th.MinTxns > 0 && snap.Buys+snap.Sells < th.MinTxns {
		return false
	}
	if th.MinBuyRatio > 0 && snap.BuyRatio() < th.MinBuyRatio {
		return false
	}
	if th.MinPriceChangePct != 0 && snap.PriceChangePct < th.MinPriceChangePct {
		return false
	}
	if th.MaxAgeMinutes > 0 {
		age, known := snap.AgeMinutes(now)
		if !known || age > th.MaxAgeMinutes {
			return false
		}
	}
	return true
}
