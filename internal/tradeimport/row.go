// Package tradeimport turns raw broker CSV rows into validated trades. It
// owns the column mapping, the date/number parsing, and the rule tables
// that detect the brokerage account and the strategy tag for each row.
// Malformed rows are skipped with a per-row reason; they never fail a batch.
package tradeimport

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "fireboard/internal/errors"
	"fireboard/internal/positions"
)

// RawRow is one loosely-structured CSV row after column mapping: every
// field is still a string exactly as the broker exported it, plus the name
// of the file it came from.
type RawRow struct {
	Date       string
	Symbol     string
	Side       string
	Quantity   string
	Price      string
	Account    string
	Tag        string
	SourceFile string
	Line       int
}

// Skipped pairs a raw row with the reason it was not imported.
type Skipped struct {
	Row    RawRow `json:"row"`
	Reason string `json:"reason"`
}

// dateLayouts are tried in order when parsing trade dates. Brokers are not
// consistent even within one export.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"02.01.2006",
	"2006/01/02",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseNumber handles plain floats plus the thousand separators and
// currency prefixes brokers like to include.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	return strconv.ParseFloat(s, 64)
}

func normalizeSide(s string) (positions.Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "b", "bot", "bought":
		return positions.SideBuy, nil
	case "sell", "s", "sld", "sold":
		return positions.SideSell, nil
	default:
		return "", fmt.Errorf("unknown trade side %q", s)
	}
}

// Interpret validates one raw row and converts it into a trade. Structural
// problems (missing symbol, bad side, non-positive quantity, negative
// price) return ErrInvalidTrade for that row only.
func Interpret(row RawRow) (positions.Trade, error) {
	symbol := strings.ToUpper(strings.TrimSpace(row.Symbol))
	if symbol == "" {
		return positions.Trade{}, apperrors.WithMessage(apperrors.ErrInvalidTrade, "row has no symbol")
	}

	side, err := normalizeSide(row.Side)
	if err != nil {
		return positions.Trade{}, apperrors.WithMessage(apperrors.ErrInvalidTrade, err.Error())
	}

	date, err := parseDate(row.Date)
	if err != nil {
		return positions.Trade{}, apperrors.WithMessage(apperrors.ErrInvalidTrade, err.Error())
	}

	quantity, err := parseNumber(row.Quantity)
	if err != nil {
		return positions.Trade{}, apperrors.WithMessage(apperrors.ErrInvalidTrade, fmt.Sprintf("bad quantity: %v", err))
	}
	if quantity <= 0 {
		return positions.Trade{}, apperrors.WithMessage(apperrors.ErrInvalidTrade, "trade quantity must be positive")
	}

	price, err := parseNumber(row.Price)
	if err != nil {
		return positions.Trade{}, apperrors.WithMessage(apperrors.ErrInvalidTrade, fmt.Sprintf("bad price: %v", err))
	}
	if price < 0 {
		return positions.Trade{}, apperrors.WithMessage(apperrors.ErrInvalidTrade, "trade price must not be negative")
	}

	return positions.Trade{
		Date:        date,
		Account:     DetectAccount(row.Account, row.SourceFile),
		StrategyTag: DetectStrategy(row.Tag, row.SourceFile),
		Symbol:      symbol,
		Side:        side,
		Quantity:    quantity,
		Price:       price,
	}, nil
}

// Key is the deduplication identity of a trade: two rows describing the
// same execution collapse to the same key within a batch and against
// already-stored trades.
func Key(t positions.Trade) string {
	return fmt.Sprintf("%s|%s|%s|%s|%.8f|%.8f",
		t.Date.UTC().Format("2006-01-02"), t.Account, t.Symbol, t.Side, t.Quantity, t.Price)
}

// Batch is the outcome of interpreting a full set of rows.
type Batch struct {
	Trades  []positions.Trade
	Skipped []Skipped
}

// InterpretBatch interprets every row, deduplicates within the batch, and
// skips rows whose Key already appears in existing. Bad rows are collected
// in Skipped so callers can report them; they are never fatal.
func InterpretBatch(rows []RawRow, existing map[string]bool) Batch {
	batch := Batch{}
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		trade, err := Interpret(row)
		if err != nil {
			batch.Skipped = append(batch.Skipped, Skipped{Row: row, Reason: err.Error()})
			continue
		}

		k := Key(trade)
		if seen[k] {
			batch.Skipped = append(batch.Skipped, Skipped{Row: row, Reason: "duplicate of another row in this batch"})
			continue
		}
		if existing[k] {
			batch.Skipped = append(batch.Skipped, Skipped{Row: row, Reason: "already imported"})
			continue
		}
		seen[k] = true

		batch.Trades = append(batch.Trades, trade)
	}

	return batch
}
