// Package rebalance computes per-asset allocation drift and recommended
// buy/sell actions from a target allocation and current holdings. It is a
// pure computation over in-memory data: no I/O, no shared state, and no
// errors for ordinary edge cases like an empty portfolio or a zero price.
package rebalance

import "math"

// Action is the recommended adjustment for one asset.
type Action string

const (
	ActionBuy     Action = "BUY"
	ActionSell    Action = "SELL"
	ActionHold    Action = "HOLD"
	ActionSellAll Action = "SELL_ALL"
)

// DefaultDriftThresholdPercent is used when the caller supplies a
// non-positive drift threshold.
const DefaultDriftThresholdPercent = 5.0

// holdDeltaThreshold is the currency-unit band below which an adjustment is
// too small to act on, regardless of drift.
const holdDeltaThreshold = 1.0

// Asset is one row of the target allocation with its current holding.
type Asset struct {
	Symbol              string
	TargetWeightPercent float64
	Price               float64
	AverageCost         float64
	Units               float64
	Locked              bool
}

// Result is the derived allocation state and recommended action for one asset.
type Result struct {
	Symbol               string  `json:"symbol"`
	CurrentValue         float64 `json:"current_value"`
	CurrentWeightPercent float64 `json:"current_weight_percent"`
	TargetWeightPercent  float64 `json:"target_weight_percent"`
	TargetValue          float64 `json:"target_value"`
	Delta                float64 `json:"delta"`
	DriftPercent         float64 `json:"drift_percent"`
	Action               Action  `json:"action"`
	ActionUnits          float64 `json:"action_units"`
}

// Summary aggregates cost basis and unrealized P&L across all assets. It is
// computed independently of the action logic.
type Summary struct {
	MarketValue     float64 `json:"market_value"`
	CostBasis       float64 `json:"cost_basis"`
	UnrealizedPL    float64 `json:"unrealized_pl"`
	UnrealizedPLPct float64 `json:"unrealized_pl_pct"`
	PortfolioTotal  float64 `json:"portfolio_total"`
}

// sanitize maps NaN and infinities to 0 so that bad user input degrades to
// "no holding" instead of poisoning every downstream value.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Rebalance computes the allocation state and recommended action for every
// asset. Target weights need not sum to 100: under- or over-allocation is
// valid and simply produces systematic buy or sell pressure. A portfolio
// with zero total value yields an empty result set.
func Rebalance(assets []Asset, cash, driftThresholdPercent float64) []Result {
	if driftThresholdPercent <= 0 {
		driftThresholdPercent = DefaultDriftThresholdPercent
	}

	cash = sanitize(cash)

	portfolioTotal := cash
	currentValues := make([]float64, len(assets))
	for i, a := range assets {
		cv := sanitize(a.Price) * sanitize(a.Units)
		currentValues[i] = cv
		portfolioTotal += cv
	}

	// No meaningful weights can be computed. Not an error.
	if portfolioTotal == 0 {
		return []Result{}
	}

	results := make([]Result, 0, len(assets))
	for i, a := range assets {
		price := sanitize(a.Price)
		units := sanitize(a.Units)
		target := sanitize(a.TargetWeightPercent)

		currentValue := currentValues[i]
		currentWeight := currentValue / portfolioTotal * 100
		targetValue := portfolioTotal * target / 100
		delta := targetValue - currentValue
		drift := math.Abs(currentWeight - target)

		r := Result{
			Symbol:               a.Symbol,
			CurrentValue:         currentValue,
			CurrentWeightPercent: currentWeight,
			TargetWeightPercent:  target,
			TargetValue:          targetValue,
			Delta:                delta,
			DriftPercent:         drift,
		}

		switch {
		case target == 0 && units > 0:
			// Target-zero always triggers full liquidation, even inside
			// the tolerance band.
			r.Action = ActionSellAll
			r.ActionUnits = units
		case math.Abs(delta) <= holdDeltaThreshold:
			r.Action = ActionHold
		case drift >= driftThresholdPercent:
			effectivePrice := price
			if effectivePrice <= 0 {
				effectivePrice = 1
			}
			if delta > 0 {
				r.Action = ActionBuy
			} else {
				r.Action = ActionSell
			}
			r.ActionUnits = math.Abs(delta) / effectivePrice
		default:
			r.Action = ActionHold
		}

		results = append(results, r)
	}

	return results
}

// Summarize computes market value, cost basis, and unrealized P&L across all
// assets plus cash. Unlike Rebalance it never returns an empty result: a
// zero-value portfolio simply has zero everything.
func Summarize(assets []Asset, cash float64) Summary {
	s := Summary{}
	for _, a := range assets {
		units := sanitize(a.Units)
		s.MarketValue += units * sanitize(a.Price)
		s.CostBasis += units * sanitize(a.AverageCost)
	}
	s.UnrealizedPL = s.MarketValue - s.CostBasis
	if s.CostBasis > 0 {
		s.UnrealizedPLPct = s.UnrealizedPL / s.CostBasis * 100
	}
	s.PortfolioTotal = s.MarketValue + sanitize(cash)
	return s
}
