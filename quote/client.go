package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTimeout bounds a single lookup when the caller's context carries
// no earlier deadline.
const DefaultTimeout = 10 * time.Second

// Client fetches quotes from an IEX-style HTTP quote API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a quote API client. token is sent as a query
// parameter on every request.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// apiQuote is the provider's response shape.
type apiQuote struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	LatestPrice float64 `json:"latestPrice"`
}

// Lookup fetches the current quote for symbol.
//
// A 404 from the provider maps to ErrUnknownSymbol; transport failures,
// timeouts and non-200 statuses map to ErrUnavailable.
func (c *Client) Lookup(ctx context.Context, symbol string) (Quote, error) {
	symbol = Normalize(symbol)
	if symbol == "" {
		return Quote{}, fmt.Errorf("%w: empty symbol", ErrUnknownSymbol)
	}

	params := url.Values{}
	params.Set("token", c.token)

	apiURL := fmt.Sprintf("%s/stable/stock/%s/quote?%s",
		c.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Quote{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Quote{}, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, body)
	}

	var aq apiQuote
	if err := json.NewDecoder(resp.Body).Decode(&aq); err != nil {
		return Quote{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if aq.Symbol == "" {
		return Quote{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	return Quote{
		Symbol: Normalize(aq.Symbol),
		Name:   aq.CompanyName,
		Price:  decimal.NewFromFloat(aq.LatestPrice),
	}, nil
}
