package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "fireboard/internal/errors"
)

const (
	yahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	yahooUA      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"
)

// yahooChartResponse is the relevant part of the Yahoo Finance chart API
// response; only the meta block is used.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
		} `json:"result"`
		Error *json.RawMessage `json:"error"`
	} `json:"chart"`
}

// YahooProvider fetches quotes from the Yahoo Finance chart API.
type YahooProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
}

// NewYahooProvider creates a new Yahoo Finance quote provider. A nil
// httpClient gets a sensible default timeout.
func NewYahooProvider(httpClient *http.Client, baseURL string) *YahooProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	return &YahooProvider{httpClient: httpClient, baseURL: baseURL}
}

// FetchQuote fetches the current price for one symbol. All failure modes
// collapse to ErrQuoteUnavailable with the underlying cause wrapped.
func (p *YahooProvider) FetchQuote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "symbol is required")
	}

	url := fmt.Sprintf("%s/%s?interval=1d&range=1d", p.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrQuoteUnavailable, fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("User-Agent", yahooUA)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrQuoteUnavailable, fmt.Errorf("http request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Wrap(apperrors.ErrQuoteUnavailable, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, symbol))
	}

	var chartResp yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chartResp); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrQuoteUnavailable, fmt.Errorf("decoding response: %w", err))
	}

	if len(chartResp.Chart.Result) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrQuoteUnavailable, fmt.Errorf("no result for symbol %s", symbol))
	}

	meta := chartResp.Chart.Result[0].Meta
	if meta.RegularMarketPrice == 0 {
		return nil, apperrors.Wrap(apperrors.ErrQuoteUnavailable, fmt.Errorf("zero price for %s", symbol))
	}

	asOf := time.Now().UTC()
	if meta.RegularMarketTime > 0 {
		asOf = time.Unix(meta.RegularMarketTime, 0).UTC()
	}

	return &Quote{
		Symbol:   symbol,
		Price:    meta.RegularMarketPrice,
		Currency: meta.Currency,
		AsOf:     asOf,
	}, nil
}
