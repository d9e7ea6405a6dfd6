// Package positions folds an append-only trade history into net positions
// with quantity-weighted average cost, keyed by (symbol, account), and
// provides consolidation views that merge positions across accounts or
// strategy tags. The fold is pure and deterministic: computing it twice
// from the same trade list yields identical output, which is what lets the
// service layer recompute everything from history instead of patching
// positions incrementally.
package positions

import (
	"fmt"
	"sort"
	"time"

	apperrors "fireboard/internal/errors"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Trade is the plain-data input to the fold. Trades may arrive in any
// order; the fold sorts them by ascending date (stable on input order for
// equal dates) before applying average-cost math.
type Trade struct {
	Date        time.Time
	Account     string
	StrategyTag string
	Symbol      string
	Side        Side
	Quantity    float64
	Price       float64
}

// Position is a derived net holding for one (symbol, account) pair.
type Position struct {
	Symbol       string   `json:"symbol"`
	Account      string   `json:"account"`
	Quantity     float64  `json:"quantity"`
	AverageCost  float64  `json:"average_cost"`
	StrategyTags []string `json:"strategy_tags"`
}

// Rejected pairs a structurally invalid trade with the reason it was not
// folded. A rejected trade is fatal to itself only, never to the batch.
type Rejected struct {
	Trade Trade
	Err   error
}

type key struct {
	symbol  string
	account string
}

type holding struct {
	quantity    float64
	averageCost float64
	tags        map[string]struct{}
	tagOrder    []string
}

func (h *holding) addTag(tag string) {
	if tag == "" {
		return
	}
	if _, ok := h.tags[tag]; ok {
		return
	}
	h.tags[tag] = struct{}{}
	h.tagOrder = append(h.tagOrder, tag)
}

// Validate rejects trades the fold must never see: unknown sides and
// non-positive quantities. Negative prices are also structurally invalid;
// a zero price is allowed (free shares, transfers in).
func Validate(t Trade) error {
	switch t.Side {
	case SideBuy, SideSell:
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidTrade, fmt.Sprintf("unknown trade side %q", t.Side))
	}
	if t.Quantity <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidTrade, "trade quantity must be positive")
	}
	if t.Price < 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidTrade, "trade price must not be negative")
	}
	return nil
}

// Compute folds trades into positions. Invalid trades are returned as
// rejections and do not corrupt the positions computed from the valid
// remainder. The result is sorted by symbol, then account.
func Compute(trades []Trade) ([]Position, []Rejected) {
	valid := make([]Trade, 0, len(trades))
	var rejected []Rejected
	for _, t := range trades {
		if err := Validate(t); err != nil {
			rejected = append(rejected, Rejected{Trade: t, Err: err})
			continue
		}
		valid = append(valid, t)
	}

	// Chronological order per key is what makes weighted-average cost
	// correct. A stable sort keeps input order for same-date trades.
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Date.Before(valid[j].Date)
	})

	holdings := make(map[key]*holding)
	for _, t := range valid {
		k := key{symbol: t.Symbol, account: t.Account}
		h, ok := holdings[k]

		switch t.Side {
		case SideBuy:
			if !ok {
				h = &holding{tags: make(map[string]struct{})}
				holdings[k] = h
			}
			newQuantity := h.quantity + t.Quantity
			h.averageCost = (h.quantity*h.averageCost + t.Quantity*t.Price) / newQuantity
			h.quantity = newQuantity
			h.addTag(t.StrategyTag)

		case SideSell:
			if !ok {
				// Sell with no holding: the position would be negative,
				// so there is nothing to keep.
				continue
			}
			h.quantity -= t.Quantity
			// Selling never moves the average cost.
			if h.quantity <= 0 {
				// Full liquidation removes the key entirely so a later
				// re-buy starts a fresh average cost.
				delete(holdings, k)
			}
		}
	}

	result := make([]Position, 0, len(holdings))
	for k, h := range holdings {
		result = append(result, Position{
			Symbol:       k.symbol,
			Account:      k.account,
			Quantity:     h.quantity,
			AverageCost:  h.averageCost,
			StrategyTags: sortedTags(h.tagOrder),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Symbol != result[j].Symbol {
			return result[i].Symbol < result[j].Symbol
		}
		return result[i].Account < result[j].Account
	})

	return result, rejected
}

// Consolidate merges positions sharing a symbol into one logical position,
// dropping the account key: quantities are summed, average cost becomes the
// quantity-weighted mean, and strategy-tag sets are unioned. The merge is
// associative and commutative, so input order never changes the result.
func Consolidate(positions []Position) []Position {
	merged := make(map[string]*holding)
	for _, p := range positions {
		h, ok := merged[p.Symbol]
		if !ok {
			h = &holding{tags: make(map[string]struct{})}
			merged[p.Symbol] = h
		}
		newQuantity := h.quantity + p.Quantity
		if newQuantity != 0 {
			h.averageCost = (h.quantity*h.averageCost + p.Quantity*p.AverageCost) / newQuantity
		}
		h.quantity = newQuantity
		for _, tag := range p.StrategyTags {
			h.addTag(tag)
		}
	}

	result := make([]Position, 0, len(merged))
	for symbol, h := range merged {
		result = append(result, Position{
			Symbol:       symbol,
			Quantity:     h.quantity,
			AverageCost:  h.averageCost,
			StrategyTags: sortedTags(h.tagOrder),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})

	return result
}

// FilterByStrategy returns the trades carrying the given strategy tag.
// Folding the filtered list yields the per-strategy position view.
func FilterByStrategy(trades []Trade, tag string) []Trade {
	filtered := make([]Trade, 0, len(trades))
	for _, t := range trades {
		if t.StrategyTag == tag {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

func sortedTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	sort.Strings(out)
	return out
}
