package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/c-johnson06/optionSentinel/internal/cache"
	"github.com/c-johnson06/optionSentinel/internal/domain/models"
	xhttp "github.com/c-johnson06/optionSentinel/pkg/http"
	"github.com/c-johnson06/optionSentinel/pkg/metrics"
	"github.com/c-johnson06/optionSentinel/pkg/util"
)

// TTLConfig sets how long each request kind may be served from cache.
// Quotes are short-lived because prices move fast; expirations rarely change
// intraday; chains drift with volume and open interest.
type TTLConfig struct {
	Quote       time.Duration
	Expirations time.Duration
	Chain       time.Duration
	Search      time.Duration
	History     time.Duration
}

// Client wraps outbound calls to the market-data provider behind the
// expiring cache. All endpoints are bearer-authenticated.
type Client struct {
	baseURL string
	token   string
	http    *xhttp.Client
	cache   *cache.TTLCache
	metrics *metrics.Recorder
	ttl     TTLConfig
}

func NewClient(baseURL, token string, c *cache.TTLCache, rec *metrics.Recorder, ttl TTLConfig) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    xhttp.NewClient(xhttp.WithTimeout(15 * time.Second)),
		cache:   c,
		metrics: rec,
		ttl:     ttl,
	}
}

// oneOrMany absorbs the provider's envelope quirk: a field that normally
// holds a list comes back as a bare object when there is exactly one element,
// and as null when there are none.
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = nil
		return nil
	}
	if b[0] == '[' {
		var many []T
		if err := json.Unmarshal(b, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}
	var one T
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*o = []T{one}
	return nil
}

// GetQuote fetches the underlying quote snapshot. Returns (nil, nil) for an
// unknown symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	var env struct {
		Quotes struct {
			Quote oneOrMany[models.Quote] `json:"quote"`
		} `json:"quotes"`
	}
	params := map[string][]string{"symbols": {symbol}}
	if err := c.getJSON(ctx, "/markets/quotes", params, c.ttl.Quote, &env); err != nil {
		return nil, err
	}
	if len(env.Quotes.Quote) == 0 {
		return nil, nil
	}
	q := env.Quotes.Quote[0]
	return &q, nil
}

// GetExpirations fetches the ordered option expiration dates for a symbol.
func (c *Client) GetExpirations(ctx context.Context, symbol string) ([]string, error) {
	var env struct {
		Expirations struct {
			Date oneOrMany[string] `json:"date"`
		} `json:"expirations"`
	}
	params := map[string][]string{"symbol": {symbol}}
	if err := c.getJSON(ctx, "/markets/options/expirations", params, c.ttl.Expirations, &env); err != nil {
		return nil, err
	}
	return env.Expirations.Date, nil
}

// GetChain fetches the option chain for one expiration, greeks included.
func (c *Client) GetChain(ctx context.Context, symbol, expiration string) ([]models.Contract, error) {
	var env struct {
		Options struct {
			Option oneOrMany[models.Contract] `json:"option"`
		} `json:"options"`
	}
	params := map[string][]string{
		"symbol":     {symbol},
		"expiration": {expiration},
		"greeks":     {"true"},
	}
	if err := c.getJSON(ctx, "/markets/options/chains", params, c.ttl.Chain, &env); err != nil {
		return nil, err
	}
	return env.Options.Option, nil
}

// Search looks up securities matching the query.
func (c *Client) Search(ctx context.Context, query string) ([]models.Security, error) {
	var env struct {
		Securities struct {
			Security oneOrMany[models.Security] `json:"security"`
		} `json:"securities"`
	}
	params := map[string][]string{"q": {query}}
	if err := c.getJSON(ctx, "/markets/search", params, c.ttl.Search, &env); err != nil {
		return nil, err
	}
	return env.Securities.Security, nil
}

// GetHistory fetches daily OHLCV bars from start to now.
func (c *Client) GetHistory(ctx context.Context, symbol string, start time.Time) ([]models.HistoryBar, error) {
	var env struct {
		History struct {
			Day oneOrMany[models.HistoryBar] `json:"day"`
		} `json:"history"`
	}
	params := map[string][]string{
		"symbol":   {symbol},
		"interval": {"daily"},
		"start":    {start.Format(util.ExpirationLayout)},
	}
	if err := c.getJSON(ctx, "/markets/history", params, c.ttl.History, &env); err != nil {
		return nil, err
	}
	return env.History.Day, nil
}

// getJSON performs a cache-checked GET against the provider. With a positive
// ttl the cache is consulted first and the raw response body is stored on
// success; with ttl 0 the call always goes out.
func (c *Client) getJSON(ctx context.Context, endpoint string, params map[string][]string, ttl time.Duration, dest interface{}) error {
	key := requestKey(endpoint, params)

	if ttl > 0 {
		if b, ok := c.cache.Get(key); ok {
			if c.metrics != nil {
				c.metrics.RecordCacheLookup("hit")
			}
			return json.Unmarshal(b, dest)
		}
		if c.metrics != nil {
			c.metrics.RecordCacheLookup("miss")
		}
	}

	start := time.Now()
	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + endpoint,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.token,
			"Accept":        "application/json",
		},
		QueryParams: params,
	})
	if err != nil {
		return fmt.Errorf("upstream %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordUpstreamLatency(endpoint, time.Since(start).Seconds())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &UpstreamError{Status: resp.StatusCode, Endpoint: key}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("upstream %s: read body: %w", endpoint, err)
	}

	if ttl > 0 {
		c.cache.Set(key, b, ttl)
	}

	return json.Unmarshal(b, dest)
}

// requestKey builds the cache key from endpoint plus sorted query params.
func requestKey(endpoint string, params map[string][]string) string {
	return endpoint + "?" + url.Values(params).Encode()
}
