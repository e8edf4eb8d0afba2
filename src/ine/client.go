package ine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mmngreco/ine-go/src/logger"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Tempus3 JSON root; the language code is appended to it.
	DefaultBaseURL = "https://servicios.ine.es/wstempus/js"
	// DefaultTimeout bounds a single request made with the default transport.
	DefaultTimeout = 20 * time.Second

	defaultUserAgent = "ine-go/1.0 (+https://github.com/mmngreco/ine-go)"
)

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the Tempus3 service. The language is ordinary instance
// configuration; a Client must not be reconfigured while another goroutine uses it.
type Client struct {
	baseURL   string
	language  Language
	http      Doer
	timeout   time.Duration
	limiter   *rate.Limiter
	log       *slog.Logger
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL replaces DefaultBaseURL, e.g. with an httptest server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithLanguage sets the initial language.
func WithLanguage(lang Language) Option {
	return func(c *Client) { c.language = lang }
}

// WithHTTPClient injects the transport. The timeout option is ignored when set.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// WithTimeout sets the timeout of the default transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRateLimit throttles outgoing requests. A non-positive limit disables throttling.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		if limit <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a client for DefaultBaseURL in DefaultLanguage unless told otherwise.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:   DefaultBaseURL,
		language:  DefaultLanguage,
		timeout:   DefaultTimeout,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}

	if !c.language.valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLanguage, c.language)
	}
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("ine: invalid base URL %q", c.baseURL)
	}
	if c.log == nil {
		c.log = logger.L
	}
	if c.http == nil {
		c.http = c.newHTTPClient()
	}
	return c, nil
}

func (c *Client) newHTTPClient() *http.Client {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		c.log.Error("Failed to create cookie jar", "error", err)
	}
	return &http.Client{
		Jar:     jar,
		Timeout: c.timeout,
	}
}

// SetLanguage switches the language used by subsequent calls.
func (c *Client) SetLanguage(lang Language) error {
	if !lang.valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}
	c.language = lang
	return nil
}

// Language returns the current language.
func (c *Client) Language() Language { return c.language }

// BaseURL returns the root every endpoint path is appended to, language included.
func (c *Client) BaseURL() string {
	return c.baseURL + "/" + string(c.language)
}

// URL returns the full request URL for path and params.
func (c *Client) URL(path string, params url.Values) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	u := c.BaseURL() + "/" + strings.Join(segments, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// Invoke performs one GET against path with params as the query string and
// returns the body untouched once it is known to be valid JSON.
func (c *Client) Invoke(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	endpoint := c.URL(path, params)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{URL: endpoint, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("INE request failed", "url", endpoint, "error", err)
		return nil, &TransportError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.log.Debug("INE request completed",
		"url", endpoint,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"size", humanize.Bytes(uint64(len(body))))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("INE returned non-2xx status", "url", endpoint, "status", resp.StatusCode)
		return nil, &TransportError{URL: endpoint, StatusCode: resp.StatusCode, Body: truncateBody(body)}
	}

	if !json.Valid(body) {
		return nil, &DecodeError{URL: endpoint, Err: syntaxError(body)}
	}
	return json.RawMessage(body), nil
}
