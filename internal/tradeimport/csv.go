package tradeimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// columnAliases maps the header names brokers actually use onto the
// canonical RawRow fields. Comparison is case-insensitive after trimming.
var columnAliases = map[string]string{
	"date":       "date",
	"trade date": "date",
	"datetime":   "date",
	"time":       "date",

	"symbol":     "symbol",
	"ticker":     "symbol",
	"instrument": "symbol",

	"side":   "side",
	"action": "side",
	"type":   "side",

	"quantity": "quantity",
	"qty":      "quantity",
	"shares":   "quantity",
	"units":    "quantity",

	"price":       "price",
	"trade price": "price",
	"avg price":   "price",

	"account": "account",
	"broker":  "account",

	"tag":      "tag",
	"system":   "tag",
	"strategy": "tag",
	"notes":    "tag",
}

// ParseCSV reads a broker export into raw rows using header-based column
// mapping. Short or ragged records are tolerated; only a missing header
// line or unreadable input is an error. Rows are not validated here;
// Interpret does that per row.
func ParseCSV(r io.Reader, sourceFile string) ([]RawRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// column index -> canonical field name
	fields := make(map[int]string, len(header))
	for i, name := range header {
		canonical, ok := columnAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		// First alias wins when a header repeats a concept.
		if _, taken := indexOf(fields, canonical); !taken {
			fields[i] = canonical
		}
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no recognizable columns in CSV header %v", header)
	}

	var rows []RawRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			// A malformed record is a skipped row, not a dead batch.
			rows = append(rows, RawRow{SourceFile: sourceFile, Line: line})
			continue
		}

		row := RawRow{SourceFile: sourceFile, Line: line}
		for i, value := range record {
			switch fields[i] {
			case "date":
				row.Date = value
			case "symbol":
				row.Symbol = value
			case "side":
				row.Side = value
			case "quantity":
				row.Quantity = value
			case "price":
				row.Price = value
			case "account":
				row.Account = value
			case "tag":
				row.Tag = value
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func indexOf(fields map[int]string, canonical string) (int, bool) {
	for i, f := range fields {
		if f == canonical {
			return i, true
		}
	}
	return 0, false
}
