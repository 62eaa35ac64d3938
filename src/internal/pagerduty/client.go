package pagerduty

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"pdrelay/src/internal/core"
	"pdrelay/src/internal/version"

	"github.com/lixenwraith/log"
	"github.com/valyala/fasthttp"
)

// Versioned vendor media type required by the REST API
const acceptHeader = "application/vnd.pagerduty+json;version=2"

// Related objects expanded inline in every log entries response
var includeExpansions = []string{"incidents", "services"}

// Config holds PagerDuty API client configuration.
type Config struct {
	APIURL  string
	APIKey  string
	Timeout time.Duration
}

// Page is one page of the log entries listing.
type Page struct {
	LogEntries []core.Entry `json:"log_entries"`
	More       bool         `json:"more"`
	Offset     *int         `json:"offset"`
}

// Client fetches log entries from the PagerDuty REST API. Requests are
// single best-effort GETs; any transport or decoding failure is
// returned to the caller and aborts the run.
type Client struct {
	config Config
	http   *fasthttp.Client
	logger *log.Logger

	// Statistics
	totalRequests atomic.Uint64
	totalEntries  atomic.Uint64
}

// NewClient creates a PagerDuty API client.
func NewClient(cfg Config, logger *log.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pagerduty client requires an API key")
	}
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("pagerduty client requires an API URL")
	}
	cfg.APIURL = strings.TrimSuffix(cfg.APIURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		config: cfg,
		http: &fasthttp.Client{
			MaxConnsPerHost:     2,
			MaxIdleConnDuration: 10 * time.Second,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
		},
		logger: logger,
	}, nil
}

// LogEntries fetches one page of log entries for the time range. When
// the response reports more pages it must also carry an offset; a
// response violating that is a protocol error.
func (c *Client) LogEntries(since, until time.Time, limit, offset int) (*Page, error) {
	query := url.Values{}
	query.Set("time_zone", "UTC")
	query.Set("limit", strconv.Itoa(limit))
	query.Set("since", since.Format(time.RFC3339))
	query.Set("until", until.Format(time.RFC3339))
	query.Set("offset", strconv.Itoa(offset))
	query.Set("is_overview", "false")
	for _, include := range includeExpansions {
		query.Add("include[]", include)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()

	req.SetRequestURI(c.config.APIURL + "/log_entries?" + query.Encode())
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", acceptHeader)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Token token="+c.config.APIKey)
	req.Header.Set("User-Agent", fmt.Sprintf("pdrelay/%s", version.Short()))

	c.totalRequests.Add(1)
	err := c.http.DoTimeout(req, resp, c.config.Timeout)

	statusCode := resp.StatusCode()
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())

	fasthttp.ReleaseRequest(req)
	fasthttp.ReleaseResponse(resp)

	if err != nil {
		return nil, fmt.Errorf("log entries request failed: %w", err)
	}
	if statusCode != fasthttp.StatusOK {
		return nil, fmt.Errorf("log entries request returned status %d: %s", statusCode, body)
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode log entries response: %w", err)
	}
	if page.More && page.Offset == nil {
		return nil, fmt.Errorf("log entries response reported more pages without an offset")
	}

	c.totalEntries.Add(uint64(len(page.LogEntries)))
	c.logger.Debug("msg", "Fetched log entries page",
		"component", "pagerduty_client",
		"offset", offset,
		"entries", len(page.LogEntries),
		"more", page.More)

	return &page, nil
}

// GetStats returns client statistics.
func (c *Client) GetStats() map[string]any {
	return map[string]any{
		"api_url":        c.config.APIURL,
		"total_requests": c.totalRequests.Load(),
		"total_entries":  c.totalEntries.Load(),
	}
}
