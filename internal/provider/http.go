package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http/httpproxy"
)

// maxResponseBytes caps how much of a provider response is read
const maxResponseBytes = 4 << 20

// retryBaseDelay is the first backoff step; it doubles per attempt
const retryBaseDelay = 500 * time.Millisecond

// sleepFunc is the sleep function used between retries (injectable for tests)
var sleepFunc = time.Sleep

// NewProxyFunc creates a proxy function based on configuration.
// If no proxy URLs are provided, falls back to environment variables.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	proxy := (&httpproxy.Config{
		HTTPProxy:  httpProxy,
		HTTPSProxy: httpsProxy,
		NoProxy:    noProxy,
	}).ProxyFunc()

	return func(req *http.Request) (*url.URL, error) {
		return proxy(req.URL)
	}
}

// httpClient is the shared transport for HTTP-based providers
type httpClient struct {
	client     *http.Client
	userAgent  string
	maxRetries int
}

func newHTTPClient(cfg Config) *httpClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	return &httpClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
		},
		userAgent:  cfg.UserAgent,
		maxRetries: maxRetries,
	}
}

// do executes the request built by newReq, retrying transient failures with
// exponential backoff. newReq is called once per attempt so bodies can be re-read.
// A non-2xx status is returned as an error carrying the response body.
func (c *httpClient) do(ctx context.Context, newReq func() (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			sleepFunc(time.Duration(1<<uint(attempt-1)) * retryBaseDelay)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := newReq()
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		body, status, err := c.once(req)
		if err != nil {
			lastErr = fmt.Errorf("execute request: %w", err)
			if isRetryableNetworkError(err) {
				continue
			}
			return nil, lastErr
		}

		if status >= 200 && status < 300 {
			return body, nil
		}

		lastErr = &StatusError{Code: status, Body: strings.TrimSpace(string(body))}
		if !isRetryableStatus(status) {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (c *httpClient) once(req *http.Request) ([]byte, int, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// StatusError is a non-2xx provider response
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Code, e.Body)
}

// isRetryableStatus returns true for 5xx server errors and 429 rate limits
func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

// isRetryableNetworkError checks for transient network failures
func isRetryableNetworkError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "eof")
}
