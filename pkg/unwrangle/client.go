package unwrangle

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://data.unwrangle.com/api/getter/"

	// PlatformSearch and PlatformDetail select the Ferguson Home scrapers
	// on the Unwrangle side.
	PlatformSearch = "fergusonhome_search"
	PlatformDetail = "fergusonhome_detail"
)

// Client performs Ferguson Home product lookups through the Unwrangle
// data API.
type Client interface {
	Search(ctx context.Context, query string, page int) (*SearchResponse, error)
	Detail(ctx context.Context, productURL string) (*DetailResponse, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an Unwrangle API client. Every search or detail call
// costs Unwrangle credits, so the default limiter is deliberately slow.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 45 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string, page int) (*SearchResponse, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{
		"platform": {PlatformSearch},
		"search":   {query},
		"page":     {strconv.Itoa(page)},
	}

	var result SearchResponse
	if err := c.get(ctx, params, &result); err != nil {
		return nil, eris.Wrap(err, "unwrangle: search")
	}
	if !result.Success {
		return nil, eris.Errorf("unwrangle: search for %q returned unsuccessful response", query)
	}
	return &result, nil
}

func (c *httpClient) Detail(ctx context.Context, productURL string) (*DetailResponse, error) {
	params := url.Values{
		"platform": {PlatformDetail},
		"url":      {productURL},
		"page":     {"1"},
	}

	var result DetailResponse
	if err := c.get(ctx, params, &result); err != nil {
		return nil, eris.Wrap(err, "unwrangle: detail")
	}
	if !result.Success {
		return nil, eris.Errorf("unwrangle: detail for %s returned unsuccessful response", productURL)
	}
	return &result, nil
}

func (c *httpClient) get(ctx context.Context, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "wait for rate limiter")
	}

	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	return nil
}
