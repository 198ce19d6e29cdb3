package source

import (
	"context"
	"fmt"

	"resty.dev/v3"

	"marketcache/internal/ratelimit"
	"marketcache/internal/table"
)

// OptionChainResponse is the dataset source's option chain for one ticker:
// the nearest expiration date plus the full calls and puts tables.
type OptionChainResponse struct {
	ExpDate string      `json:"exp_date"`
	Calls   []table.Row `json:"calls"`
	Puts    []table.Row `json:"puts"`
}

// Client pulls pricing, news and option chain datasets from the upstream
// market data API. It is used by the loader to seed the cache that the
// extraction pipeline reads.
type Client struct {
	apiKey  string
	client  *resty.Client
	limiter *ratelimit.Limiter
}

// NewClient creates a dataset source client against the given base URL.
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		client:  newHTTPClient(baseURL),
		limiter: ratelimit.GetLimiter(),
	}
}

// Pricing retrieves the daily pricing rows for a ticker.
func (c *Client) Pricing(ctx context.Context, ticker string) ([]table.Row, error) {
	var rows []table.Row
	if err := c.get(ctx, "/pricing", ticker, &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch pricing for %s: %w", ticker, err)
	}
	return rows, nil
}

// News retrieves the headline rows for a ticker.
func (c *Client) News(ctx context.Context, ticker string) ([]table.Row, error) {
	var rows []table.Row
	if err := c.get(ctx, "/news", ticker, &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch news for %s: %w", ticker, err)
	}
	return rows, nil
}

// OptionChain retrieves the option chain for a ticker.
func (c *Client) OptionChain(ctx context.Context, ticker string) (*OptionChainResponse, error) {
	var chain OptionChainResponse
	if err := c.get(ctx, "/options", ticker, &chain); err != nil {
		return nil, fmt.Errorf("failed to fetch option chain for %s: %w", ticker, err)
	}
	return &chain, nil
}

// get performs one rate-limited GET against the source API, decoding the
// JSON body into result.
func (c *Client) get(ctx context.Context, path, ticker string, result any) error {
	if err := c.limiter.Wait(ctx, ratelimit.APIDatasetSource); err != nil {
		return err
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"apikey": c.apiKey,
			"symbol": ticker,
		}).
		SetResult(result).
		Get(path)

	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("source API returned status %d", resp.StatusCode())
	}
	return nil
}
