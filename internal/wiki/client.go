// Package wiki reads category membership and page history from a MediaWiki
// Action API endpoint.
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/common"
	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
	"github.com/DiFronzo/CatWatchBot2.0/internal/service"
	"golang.org/x/time/rate"
)

// DefaultAPIURL is the Norwegian (bokmål) Wikipedia API endpoint.
const DefaultAPIURL = "https://no.wikipedia.org/w/api.php"

const (
	defaultUserAgent = "CatWatchBot/2.0 (https://github.com/DiFronzo/CatWatchBot2.0)"
	defaultBatchSize = 50
	// maxContentBatch is the API ceiling for rvlimit when content is requested.
	maxContentBatch = 50
	maxResponseSize = 32 << 20
)

// Config configures a Client.
type Config struct {
	APIURL            string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxLag            int
	RetryAttempts     int
	BatchSize         int
}

// Client implements service.WikiSource over HTTP.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	retry      common.RetryOptions
	cfg        Config
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRetryOptions overrides the retry policy applied to every request.
func WithRetryOptions(opts common.RetryOptions) Option {
	return func(c *Client) { c.retry = opts }
}

// NewClient creates a client for the API at cfg.APIURL.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if _, err := url.ParseRequestURI(cfg.APIURL); err != nil {
		return nil, fmt.Errorf("%w: wiki api url: %w", common.ErrInvalidConfig, err)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > maxContentBatch {
		cfg.BatchSize = defaultBatchSize
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     slog.Default(),
		retry: common.RetryOptions{
			MaxAttempts:  cfg.RetryAttempts,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListMembers returns the titles of the pages and files in category,
// following continuation until the listing is complete.
func (c *Client) ListMembers(ctx context.Context, category string, namespace int) ([]string, error) {
	params := url.Values{
		"action":  {"query"},
		"list":    {"categorymembers"},
		"cmtitle": {categoryTitle(category)},
		"cmprop":  {"title"},
		"cmtype":  {"page|file"},
		"cmlimit": {"max"},
	}
	if namespace != service.NamespaceAll {
		params.Set("cmnamespace", strconv.Itoa(namespace))
	}

	var titles []string
	for {
		var resp queryResponse
		if err := c.get(ctx, params, &resp); err != nil {
			return nil, fmt.Errorf("failed to list members of %s: %w", category, err)
		}
		for _, m := range resp.Query.CategoryMembers {
			titles = append(titles, m.Title)
		}
		if len(resp.Continue) == 0 {
			return titles, nil
		}
		params = withContinue(params, resp.Continue)
	}
}

// RevisionsBackward yields the revisions of page newest first, fetching
// BatchSize revisions per request. Iteration stops at the first error, which
// is yielded with a zero revision.
func (c *Client) RevisionsBackward(ctx context.Context, page string, startID int64) iter.Seq2[model.Revision, error] {
	return func(yield func(model.Revision, error) bool) {
		params := url.Values{
			"action":  {"query"},
			"prop":    {"revisions"},
			"titles":  {page},
			"rvprop":  {"ids|timestamp|user|content"},
			"rvslots": {"main"},
			"rvlimit": {strconv.Itoa(c.cfg.BatchSize)},
			"rvdir":   {"older"},
		}
		if startID > 0 {
			params.Set("rvstartid", strconv.FormatInt(startID, 10))
		}

		for {
			var resp queryResponse
			if err := c.get(ctx, params, &resp); err != nil {
				yield(model.Revision{}, fmt.Errorf("failed to fetch revisions of %s: %w", page, err))
				return
			}
			p, err := resp.page(page)
			if err != nil {
				yield(model.Revision{}, err)
				return
			}
			for _, r := range p.Revisions {
				rev, err := r.toModel()
				if err != nil {
					yield(model.Revision{}, err)
					return
				}
				if !yield(rev, nil) {
					return
				}
			}
			if len(resp.Continue) == 0 {
				return
			}
			params = withContinue(params, resp.Continue)
		}
	}
}

// EarliestRevision returns the first revision of page without its content.
func (c *Client) EarliestRevision(ctx context.Context, page string) (model.Revision, error) {
	params := url.Values{
		"action":  {"query"},
		"prop":    {"revisions"},
		"titles":  {page},
		"rvprop":  {"ids|timestamp|user"},
		"rvlimit": {"1"},
		"rvdir":   {"newer"},
	}

	var resp queryResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return model.Revision{}, fmt.Errorf("failed to fetch first revision of %s: %w", page, err)
	}
	p, err := resp.page(page)
	if err != nil {
		return model.Revision{}, err
	}
	if len(p.Revisions) == 0 {
		return model.Revision{}, fmt.Errorf("%w: %s", common.ErrNoRevisions, page)
	}
	return p.Revisions[0].toModel()
}

// PageExists reports whether page exists.
func (c *Client) PageExists(ctx context.Context, page string) (bool, error) {
	params := url.Values{
		"action": {"query"},
		"prop":   {"info"},
		"titles": {page},
	}

	var resp queryResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return false, fmt.Errorf("failed to look up %s: %w", page, err)
	}
	if _, err := resp.page(page); err != nil {
		if errors.Is(err, common.ErrPageNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SiteStatistics returns the wiki's global counters.
func (c *Client) SiteStatistics(ctx context.Context) (model.SiteStatistics, error) {
	params := url.Values{
		"action": {"query"},
		"meta":   {"siteinfo"},
		"siprop": {"statistics"},
	}

	var resp queryResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return model.SiteStatistics{}, fmt.Errorf("failed to fetch site statistics: %w", err)
	}
	s := resp.Query.Statistics
	if s == nil {
		return model.SiteStatistics{}, fmt.Errorf("%w: response has no statistics", common.ErrUpstream)
	}
	return model.SiteStatistics{
		Articles: s.Articles,
		Pages:    s.Pages,
		Edits:    s.Edits,
		Users:    s.Users,
	}, nil
}

// get performs one rate-limited, retried API request and decodes the result
// into out.
func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("format", "json")
	q.Set("formatversion", "2")
	if c.cfg.MaxLag > 0 {
		q.Set("maxlag", strconv.Itoa(c.cfg.MaxLag))
	}
	endpoint := c.cfg.APIURL + "?" + q.Encode()

	return common.WithRetry(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return c.do(ctx, endpoint, out)
	}, c.retry)
}

func (c *Client) do(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("wiki request", "url", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("%w: %w", common.ErrUpstream, err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("%w: reading body: %w", common.ErrUpstream, err), Retryable: true}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d", common.ErrRateLimit, resp.StatusCode)
	case resp.StatusCode >= http.StatusInternalServerError:
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: HTTP %d", common.ErrUpstream, resp.StatusCode),
			Retryable: true,
		}
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: HTTP %d: %s", common.ErrUpstream, resp.StatusCode, truncate(string(body), 200))
	}

	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%w: invalid JSON: %w", common.ErrUpstream, err)
	}
	if apiErr := envelope.Error; apiErr != nil {
		switch {
		case apiErr.Code == "ratelimited":
			return fmt.Errorf("%w: %w", common.ErrRateLimit, apiErr)
		case apiErr.Retryable():
			return &common.RetryableError{Err: apiErr, Retryable: true}
		default:
			return apiErr
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: unexpected response: %w", common.ErrUpstream, err)
	}
	return nil
}

// withContinue returns a copy of params carrying the continuation values of
// the previous response.
func withContinue(params url.Values, cont map[string]string) url.Values {
	next := url.Values{}
	for k, v := range params {
		next[k] = v
	}
	for k, v := range cont {
		next.Set(k, v)
	}
	return next
}

// categoryTitle adds the namespace prefix the API expects.
func categoryTitle(name string) string {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "category:") || strings.HasPrefix(lower, "kategori:") {
		return name
	}
	return "Category:" + name
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
