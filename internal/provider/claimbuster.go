package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ClaimBusterVerifier matches the statement against ClaimBuster's database of
// fact-checked claims and aggregates their truth ratings
type ClaimBusterVerifier struct {
	apiKey  string
	baseURL string
	client  *httpClient
	config  Config
}

// ClaimBuster API structures
type claimBusterMatchResponse struct {
	Claim         string `json:"claim"`
	Justification []struct {
		TruthRating   string `json:"truth_rating"`
		Speaker       string `json:"speaker"`
		URL           string `json:"url"`
		Claim         string `json:"claim"`
		Justification string `json:"justification"`
		Host          string `json:"host"`
	} `json:"justification"`
}

// NewClaimBusterVerifier creates a new ClaimBuster verifier
func NewClaimBusterVerifier(config Config) (*ClaimBusterVerifier, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("claimbuster: %w", ErrMissingAPIKey)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://idir.uta.edu/claimbuster"
	}

	return &ClaimBusterVerifier{
		apiKey:  config.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  newHTTPClient(config),
		config:  config,
	}, nil
}

// Name returns the provider id
func (p *ClaimBusterVerifier) Name() string {
	return "claimbuster"
}

// IsAvailable checks the key against the check-worthiness scoring endpoint
func (p *ClaimBusterVerifier) IsAvailable(ctx context.Context) bool {
	_, err := p.get(ctx, "/api/v2/score/text/"+url.PathEscape("The sky is blue"))
	return err == nil
}

// CheckFact rates the statement by the ratings of matched, already checked claims
func (p *ClaimBusterVerifier) CheckFact(ctx context.Context, statement string) (*Response, error) {
	body, err := p.get(ctx, "/api/v2/query/fact_matcher/"+url.PathEscape(statement))
	if err != nil {
		return nil, fmt.Errorf("ClaimBuster API error: %w", err)
	}

	var result claimBusterMatchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	var t tally
	resp := &Response{Model: "claimbuster/v2/fact_matcher"}
	var best string

	for _, match := range result.Justification {
		rating := MapRating(match.TruthRating)
		t.add(rating)
		if rating == RatingUnknown {
			continue
		}

		publisher := match.Host
		if publisher == "" {
			publisher = hostOf(match.URL)
		}
		resp.Sources = append(resp.Sources, sourceFor(publisher, match.Claim, match.URL))

		if best == "" && strings.TrimSpace(match.Justification) != "" {
			best = strings.TrimSpace(match.Justification)
		}
		if resp.Context == "" && match.Claim != "" {
			resp.Context = describeClaim(match.Claim, match.Speaker, "")
		}
	}

	if t.decisive() == 0 {
		return nil, fmt.Errorf("claimbuster: %w", ErrNoEvidence)
	}

	resp.Verdict, resp.Confidence = t.verdict()
	resp.Explanation = fmt.Sprintf("%d of %d matched fact-checked claims are rated %s.",
		winningCount(t, resp.Verdict), t.trueCount+t.falseCount+t.mixedCount, verdictLabel(resp.Verdict))
	if best != "" {
		resp.Explanation += " " + best
	}

	return resp, nil
}

func (p *ClaimBusterVerifier) get(ctx context.Context, path string) ([]byte, error) {
	endpoint := p.baseURL + path
	return p.client.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("x-api-key", p.apiKey)
		return req, nil
	})
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
