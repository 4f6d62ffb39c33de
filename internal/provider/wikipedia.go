package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/corroborate/internal/extract"
	"github.com/ppiankov/corroborate/internal/model"
)

const (
	// minCorroboration is the share of statement content words a snippet must contain
	minCorroboration = 0.5

	// disputedPenalty scales confidence when the best article is under an edit war
	disputedPenalty = 0.7
)

// refutingMarkers in a matching snippet mean the encyclopedia treats the claim as false
var refutingMarkers = []string{
	"myth", "misconception", "conspiracy theor", "pseudoscien", "hoax", "debunked",
	"disproven", "discredited", "false claim", "urban legend", "no evidence",
}

// WikipediaVerifier corroborates statements against MediaWiki full-text search.
// It needs no key; a statement is corroborated when a search snippet contains
// most of its content words and refuted when such a snippet frames it as a myth.
type WikipediaVerifier struct {
	baseURL string
	client  *httpClient
	config  Config
}

// MediaWiki API structures
type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			PageID  int    `json:"pageid"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

type wikiRevision struct {
	RevID     int    `json:"revid"`
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
	Comment   string `json:"comment"`
}

type wikiRevisionsResponse struct {
	Query struct {
		Pages map[string]struct {
			Revisions []wikiRevision `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

// EditWarIndicators contains metrics for detecting edit wars on one article
type EditWarIndicators struct {
	RecentEdits      int     // Edits in last 30 days
	RevertCount      int     // Number of reverts detected
	UniqueEditors    int     // Number of different editors
	EditFrequency    float64 // Edits per day
	IsHighConflict   bool
	ConflictSeverity string // low, medium, high
}

// NewWikipediaVerifier creates a new Wikipedia verifier
func NewWikipediaVerifier(config Config) (*WikipediaVerifier, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://en.wikipedia.org"
	}

	return &WikipediaVerifier{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  newHTTPClient(config),
		config:  config,
	}, nil
}

// Name returns the provider id
func (p *WikipediaVerifier) Name() string {
	return "wikipedia"
}

// IsAvailable checks that the MediaWiki API answers
func (p *WikipediaVerifier) IsAvailable(ctx context.Context) bool {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("meta", "siteinfo")
	params.Set("format", "json")
	_, err := p.get(ctx, params)
	return err == nil
}

// CheckFact searches for the statement and scores the best matching snippet
func (p *WikipediaVerifier) CheckFact(ctx context.Context, statement string) (*Response, error) {
	words := extract.ContentWords(statement)
	if len(words) == 0 {
		return nil, fmt.Errorf("wikipedia: %w", ErrNoEvidence)
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", strings.Join(words, " "))
	params.Set("srlimit", "5")
	params.Set("format", "json")
	params.Set("utf8", "1")

	body, err := p.get(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("Wikipedia API error: %w", err)
	}

	var result wikiSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	var (
		bestTitle, bestText string
		bestScore           float64
		refuted             []string
		sources             []model.Source
	)
	for _, hit := range result.Query.Search {
		text := extract.VisibleText(hit.Snippet)
		score := extract.Overlap(words, hit.Title+" "+text)
		sources = append(sources, model.Source{Name: "Wikipedia: " + hit.Title, URL: p.articleURL(hit.Title)})

		if score < minCorroboration {
			continue
		}
		if marker := refutingMarker(text); marker != "" {
			refuted = append(refuted, fmt.Sprintf("%q describes it as %s", hit.Title, marker))
		}
		if score > bestScore {
			bestTitle, bestText, bestScore = hit.Title, text, score
		}
	}

	if bestTitle == "" {
		return nil, fmt.Errorf("wikipedia: %w", ErrNoEvidence)
	}

	resp := &Response{
		Context: fmt.Sprintf("%s: %s", bestTitle, bestText),
		Sources: firstSources(sources, 3),
		Model:   "mediawiki/search",
	}

	if len(refuted) > 0 {
		resp.Verdict = false
		resp.Confidence = minFloat(0.8, 0.5+0.1*float64(len(refuted)))
		resp.Explanation = "Matching encyclopedia articles treat the claim as false: " + strings.Join(refuted, "; ") + "."
	} else {
		resp.Verdict = true
		resp.Confidence = 0.4 + 0.4*bestScore
		resp.Explanation = fmt.Sprintf("The article %q corroborates %.0f%% of the claim's key terms.", bestTitle, bestScore*100)
	}

	// A contested article weakens whatever it says
	if war, err := p.DetectEditWar(ctx, bestTitle); err == nil && war.IsHighConflict {
		resp.Confidence *= disputedPenalty
		resp.Explanation += fmt.Sprintf(" The article is under %s edit conflict (%d reverts among recent revisions).",
			war.ConflictSeverity, war.RevertCount)
	}

	return resp, nil
}

// DetectEditWar checks an article's revision history for edit war patterns
func (p *WikipediaVerifier) DetectEditWar(ctx context.Context, title string) (*EditWarIndicators, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", title)
	params.Set("prop", "revisions")
	params.Set("rvlimit", "100")
	params.Set("rvprop", "timestamp|user|comment")
	params.Set("format", "json")

	body, err := p.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var apiResp wikiRevisionsResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode Wikipedia API response: %w", err)
	}

	var revisions []wikiRevision
	for _, page := range apiResp.Query.Pages {
		revisions = page.Revisions
		break // Only one page expected
	}

	return analyzeRevisions(revisions, time.Now()), nil
}

// analyzeRevisions processes revision data to detect edit war patterns.
// Revisions arrive newest first.
func analyzeRevisions(revisions []wikiRevision, now time.Time) *EditWarIndicators {
	thirtyDaysAgo := now.Add(-30 * 24 * time.Hour)

	indicators := &EditWarIndicators{}
	editors := make(map[string]bool)
	var oldestRecent time.Time

	for _, rev := range revisions {
		t, err := time.Parse(time.RFC3339, rev.Timestamp)
		if err != nil {
			continue
		}

		if t.After(thirtyDaysAgo) {
			indicators.RecentEdits++
			editors[rev.User] = true
			if oldestRecent.IsZero() || t.Before(oldestRecent) {
				oldestRecent = t
			}
		}

		comment := strings.ToLower(rev.Comment)
		if strings.Contains(comment, "revert") || strings.Contains(comment, "rv ") ||
			strings.Contains(comment, "undo") || strings.Contains(comment, "undid") {
			indicators.RevertCount++
		}
	}

	indicators.UniqueEditors = len(editors)
	if !oldestRecent.IsZero() {
		if days := now.Sub(oldestRecent).Hours() / 24; days > 0 {
			indicators.EditFrequency = float64(indicators.RecentEdits) / days
		}
	}

	// High conflict: >10 edits/month AND >3 reverts, OR >5 edits/day
	// Medium conflict: >5 edits/month AND >1 revert, OR >2 edits/day
	switch {
	case (indicators.RecentEdits > 10 && indicators.RevertCount > 3) || indicators.EditFrequency > 5:
		indicators.IsHighConflict = true
		indicators.ConflictSeverity = "high"
	case (indicators.RecentEdits > 5 && indicators.RevertCount > 1) || indicators.EditFrequency > 2:
		indicators.IsHighConflict = true
		indicators.ConflictSeverity = "medium"
	case indicators.RevertCount > 0:
		indicators.ConflictSeverity = "low"
	}

	return indicators
}

func (p *WikipediaVerifier) get(ctx context.Context, params url.Values) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/w/api.php?%s", p.baseURL, params.Encode())
	return p.client.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
}

func (p *WikipediaVerifier) articleURL(title string) string {
	return p.baseURL + "/wiki/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

func refutingMarker(text string) string {
	folded := extract.Fold(text)
	for _, m := range refutingMarkers {
		if strings.Contains(folded, m) {
			return m
		}
	}
	return ""
}

func firstSources(sources []model.Source, n int) []model.Source {
	if len(sources) > n {
		return sources[:n]
	}
	return sources
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
