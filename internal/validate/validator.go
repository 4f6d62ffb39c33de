package validate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/provider"
)

const validateMaxRetries = 3

// validateSleepFunc is the sleep function used between retries (injectable for tests)
var validateSleepFunc = time.Sleep

// Validator checks that cited sources are reachable, concurrently
type Validator struct {
	httpClient *http.Client
	maxWorkers int
	userAgent  string
	authority  *AuthorityClassifier
	robots     *RobotsChecker // Optional
}

// NewValidator creates a new validator
func NewValidator(timeout time.Duration, maxWorkers int, authConfig *model.AuthorityConfig, httpCfg model.HTTPConfig) *Validator {
	if maxWorkers <= 0 {
		maxWorkers = 20
	}

	userAgent := httpCfg.UserAgent
	if userAgent == "" {
		userAgent = provider.DefaultConfig().UserAgent
	}

	return &Validator{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: provider.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		maxWorkers: maxWorkers,
		userAgent:  userAgent,
		authority:  NewAuthorityClassifier(authConfig),
	}
}

// UseRobots makes the validator skip sources disallowed by robots.txt
func (v *Validator) UseRobots(r *RobotsChecker) *Validator {
	v.robots = r
	return v
}

// Check probes every source URL. Results are in input order; sources
// without a URL are reported as dead without a request.
func (v *Validator) Check(ctx context.Context, sources []model.Source) []model.SourceCheck {
	results := make([]model.SourceCheck, len(sources))
	if len(sources) == 0 {
		return results
	}

	var wg sync.WaitGroup

	// Semaphore limits concurrent requests
	semaphore := make(chan struct{}, v.maxWorkers)

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, rawURL string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = model.SourceCheck{
					URL:       rawURL,
					Authority: v.authority.Classify(rawURL),
					Error:     "context cancelled",
				}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			if v.robots != nil && rawURL != "" && !v.robots.Allowed(ctx, rawURL) {
				results[idx] = model.SourceCheck{
					URL:       rawURL,
					Authority: v.authority.Classify(rawURL),
					Error:     errRobotsDisallowed,
				}
				return
			}

			results[idx] = v.checkWithRetry(ctx, rawURL)
		}(i, strings.TrimSpace(src.URL))
	}

	wg.Wait()

	return results
}

// checkSingle sends one HEAD request to a source
func (v *Validator) checkSingle(ctx context.Context, rawURL string) model.SourceCheck {
	result := model.SourceCheck{
		URL:       rawURL,
		Authority: v.authority.Classify(rawURL),
	}

	if rawURL == "" {
		result.Error = "missing URL"
		result.IsDead = true
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		result.IsDead = true
		return result
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.IsDead = true
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.IsAccessible = true
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		result.IsDead = true
	}

	if final := resp.Request.URL.String(); final != rawURL {
		result.RedirectURL = final
	}

	if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
		if t, err := http.ParseTime(lastModified); err == nil {
			result.LastModified = &t
			ageDays := int(time.Since(t).Hours() / 24)
			result.Age = &ageDays
			result.IsStale = ageDays > 365
		}
	}

	return result
}

// checkWithRetry retries transient failures with exponential backoff
func (v *Validator) checkWithRetry(ctx context.Context, rawURL string) model.SourceCheck {
	var result model.SourceCheck
	for attempt := 0; attempt < validateMaxRetries; attempt++ {
		result = v.checkSingle(ctx, rawURL)
		if !isRetryableCheck(result) || ctx.Err() != nil {
			return result
		}
		if attempt < validateMaxRetries-1 {
			validateSleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return result
}

// isRetryableCheck returns true for results that indicate transient failures
func isRetryableCheck(result model.SourceCheck) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if result.Error != "" {
		s := strings.ToLower(result.Error)
		return strings.Contains(s, "timeout") ||
			strings.Contains(s, "connection refused") ||
			strings.Contains(s, "connection reset")
	}
	return false
}

// Summary counts accessible, dead and stale sources
type Summary struct {
	Total      int `json:"total"`
	Accessible int `json:"accessible"`
	Dead       int `json:"dead"`
	Stale      int `json:"stale"`
}

// Summarize counts the outcome of a source check
func Summarize(checks []model.SourceCheck) Summary {
	s := Summary{Total: len(checks)}
	for _, c := range checks {
		if c.IsAccessible {
			s.Accessible++
		}
		if c.IsDead {
			s.Dead++
		}
		if c.IsStale {
			s.Stale++
		}
	}
	return s
}
