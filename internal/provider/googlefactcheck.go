package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// GoogleFactCheckVerifier queries the Google Fact Check Tools claim search
// and aggregates the textual ratings of published reviews
type GoogleFactCheckVerifier struct {
	apiKey  string
	baseURL string
	client  *httpClient
	config  Config
}

// Google Fact Check Tools API structures
type googleSearchResponse struct {
	Claims []struct {
		Text        string `json:"text"`
		Claimant    string `json:"claimant"`
		ClaimDate   string `json:"claimDate"`
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
				Site string `json:"site"`
			} `json:"publisher"`
			URL           string `json:"url"`
			Title         string `json:"title"`
			ReviewDate    string `json:"reviewDate"`
			TextualRating string `json:"textualRating"`
			LanguageCode  string `json:"languageCode"`
		} `json:"claimReview"`
	} `json:"claims"`
	NextPageToken string `json:"nextPageToken"`
}

// NewGoogleFactCheckVerifier creates a new Google Fact Check verifier
func NewGoogleFactCheckVerifier(config Config) (*GoogleFactCheckVerifier, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("google_factcheck: %w", ErrMissingAPIKey)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://factchecktools.googleapis.com"
	}

	return &GoogleFactCheckVerifier{
		apiKey:  config.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  newHTTPClient(config),
		config:  config,
	}, nil
}

// Name returns the provider id
func (p *GoogleFactCheckVerifier) Name() string {
	return "google_factcheck"
}

// IsAvailable checks the key with a one-result search
func (p *GoogleFactCheckVerifier) IsAvailable(ctx context.Context) bool {
	_, err := p.search(ctx, "earth", 1)
	return err == nil
}

// CheckFact rates the statement by the majority of matching published reviews
func (p *GoogleFactCheckVerifier) CheckFact(ctx context.Context, statement string) (*Response, error) {
	result, err := p.search(ctx, statement, 10)
	if err != nil {
		return nil, fmt.Errorf("Google Fact Check API error: %w", err)
	}

	var t tally
	var ratings []string
	resp := &Response{Model: "factchecktools/v1alpha1"}

	for _, claim := range result.Claims {
		for _, review := range claim.ClaimReview {
			rating := MapRating(review.TextualRating)
			t.add(rating)
			if rating == RatingUnknown {
				continue
			}

			publisher := review.Publisher.Name
			if publisher == "" {
				publisher = review.Publisher.Site
			}
			ratings = append(ratings, fmt.Sprintf("%s: %q", publisher, review.TextualRating))
			resp.Sources = append(resp.Sources, sourceFor(publisher, review.Title, review.URL))
		}

		if resp.Context == "" && claim.Text != "" {
			resp.Context = describeClaim(claim.Text, claim.Claimant, claim.ClaimDate)
		}
	}

	if t.decisive() == 0 {
		return nil, fmt.Errorf("google_factcheck: %w", ErrNoEvidence)
	}

	resp.Verdict, resp.Confidence = t.verdict()
	resp.Explanation = fmt.Sprintf("%d of %d published fact-check reviews of matching claims rate it %s (%s).",
		winningCount(t, resp.Verdict), t.trueCount+t.falseCount+t.mixedCount, verdictLabel(resp.Verdict),
		strings.Join(firstN(ratings, 4), "; "))

	return resp, nil
}

func (p *GoogleFactCheckVerifier) search(ctx context.Context, query string, pageSize int) (*googleSearchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", p.apiKey)
	params.Set("languageCode", "en")
	params.Set("pageSize", fmt.Sprintf("%d", pageSize))
	endpoint := fmt.Sprintf("%s/v1alpha1/claims:search?%s", p.baseURL, params.Encode())

	body, err := p.client.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return nil, err
	}

	var result googleSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &result, nil
}

func describeClaim(text, claimant, date string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reviewed claim: %q", strings.TrimSpace(text))
	if claimant != "" {
		fmt.Fprintf(&b, ", made by %s", claimant)
	}
	if len(date) >= 10 {
		fmt.Fprintf(&b, " on %s", date[:10])
	}
	b.WriteString(".")
	return b.String()
}

func winningCount(t tally, verdict bool) int {
	if verdict {
		return t.trueCount
	}
	return t.falseCount
}

func verdictLabel(verdict bool) string {
	if verdict {
		return "true"
	}
	return "false"
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
