package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"icandy/internal/fileutil"
	"icandy/internal/logging"
)

const (
	defaultBaseURL          = "https://api.unsplash.com"
	searchPath              = "search/photos"
	defaultHourlyLimit      = 50
	defaultWindow           = time.Hour
	defaultMaxRetries       = 3
	defaultRateLimitRetries = 2
	defaultRateLimitDelay   = 5 * time.Second
	defaultRetryDelay       = time.Second
	defaultTimeout          = 30 * time.Second
	defaultUserAgent        = "icandy/1.0"

	// MaxPerPage is the largest page size the search endpoint accepts.
	MaxPerPage = 30

	errorBodyLimit = 4096
)

// Config controls how the client talks to Unsplash. Zero values fall back to
// the package defaults.
type Config struct {
	AccessKey        string
	BaseURL          string
	HourlyLimit      int
	Window           time.Duration
	MaxRetries       int // total attempts for transient failures
	RateLimitRetries int
	RateLimitDelay   time.Duration
	RetryDelay       time.Duration
	Timeout          time.Duration
	UserAgent        string
}

// Sleeper pauses for d or until ctx ends.
type Sleeper func(ctx context.Context, d time.Duration) error

// Client searches Unsplash and downloads the resulting images. It enforces
// the hourly request quota and is meant to be driven by a single goroutine.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
	sleeper    Sleeper
	window     rateWindow
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the logger used for rate limit notices and download failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source used by the rate window.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSleeper overrides how waits are performed (useful for tests).
func WithSleeper(sleeper Sleeper) Option {
	return func(c *Client) {
		if sleeper != nil {
			c.sleeper = sleeper
		}
	}
}

// New constructs a client. A missing access key is reported as ErrCredentials
// without contacting the provider.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.AccessKey = strings.TrimSpace(cfg.AccessKey)
	if cfg.AccessKey == "" {
		return nil, fmt.Errorf("%w: access key is not set", ErrCredentials)
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.HourlyLimit <= 0 {
		cfg.HourlyLimit = defaultHourlyLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultWindow
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RateLimitRetries <= 0 {
		cfg.RateLimitRetries = defaultRateLimitRetries
	}
	if cfg.RateLimitDelay <= 0 {
		cfg.RateLimitDelay = defaultRateLimitDelay
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.NewNop(),
		now:        time.Now,
		sleeper:    SleepWithContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "unsplash")
	c.window = rateWindow{limit: cfg.HourlyLimit, length: cfg.Window}
	return c, nil
}

// RequestCount reports the successful searches counted in the current window.
func (c *Client) RequestCount() int {
	return c.window.count
}

// ResetWindow starts a fresh rate window at the current time.
func (c *Client) ResetWindow() {
	c.window.reset(c.now())
}

type searchResponse struct {
	Total   int           `json:"total"`
	Results []photoResult `json:"results"`
}

type photoResult struct {
	ID   string `json:"id"`
	URLs struct {
		Raw     string `json:"raw"`
		Full    string `json:"full"`
		Regular string `json:"regular"`
		Small   string `json:"small"`
	} `json:"urls"`
}

func (p photoResult) imageURL() string {
	for _, candidate := range []string{p.URLs.Regular, p.URLs.Full, p.URLs.Small, p.URLs.Raw} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// Search returns up to count image URLs for query. An empty query or a
// non-positive count returns no results without contacting the provider.
// The call may block while the hourly window is full.
func (c *Client) Search(ctx context.Context, query string, count int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" || count <= 0 {
		return nil, nil
	}
	if count > MaxPerPage {
		count = MaxPerPage
	}

	if err := c.window.acquire(ctx, c.now, c.sleeper, c.logger); err != nil {
		return nil, err
	}

	var urls []string
	err := c.withRetry(ctx, "search "+strconv.Quote(query), func(ctx context.Context) error {
		found, err := c.searchOnce(ctx, query, count)
		if err != nil {
			return err
		}
		urls = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.window.record()

	c.logger.Debug("search completed",
		logging.String(logging.FieldKey, query),
		logging.Int("results", len(urls)),
		logging.Int("window_requests", c.window.count))
	return urls, nil
}

func (c *Client) searchOnce(ctx context.Context, query string, count int) ([]string, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, searchPath)
	if err != nil {
		return nil, fmt.Errorf("unsplash search: build url: %w", err)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("unsplash search: new request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.cfg.AccessKey)
	req.Header.Set("Accept-Version", "v1")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unsplash search: http error (timeout=%s): %w", c.cfg.Timeout, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("unsplash search: decode response: %w", err)
	}

	urls := make([]string, 0, count)
	for _, result := range payload.Results {
		if len(urls) == count {
			break
		}
		if uri := result.imageURL(); uri != "" {
			urls = append(urls, uri)
		}
	}
	return urls, nil
}

// Download fetches uri into localPath, creating parent directories. Ordinary
// failures are logged and reported as false; a partially written file never
// replaces localPath.
func (c *Client) Download(ctx context.Context, uri, localPath string) bool {
	uri = strings.TrimSpace(uri)
	if uri == "" || strings.TrimSpace(localPath) == "" {
		return false
	}

	var written int64
	err := c.withRetry(ctx, "download", func(ctx context.Context) error {
		n, err := c.downloadOnce(ctx, uri, localPath)
		written = n
		return err
	})
	if err != nil {
		logging.WarnWithContext(c.logger, "image download failed", "download_failed",
			logging.String("uri", uri),
			logging.String("path", localPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network connectivity and disk space"),
			logging.String(logging.FieldImpact, "key keeps fewer assets"))
		return false
	}
	c.logger.Debug("image downloaded",
		logging.String("path", localPath),
		logging.Int64("bytes", written))
	return true
}

func (c *Client) downloadOnce(ctx context.Context, uri, localPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return 0, fmt.Errorf("unsplash download: new request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("unsplash download: http error (timeout=%s): %w", c.cfg.Timeout, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return 0, err
	}
	n, err := fileutil.WriteStreamAtomic(localPath, resp.Body, 0o644)
	if err != nil {
		return n, fmt.Errorf("unsplash download: %w", err)
	}
	return n, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
