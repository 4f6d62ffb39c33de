package provider

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/corroborate/internal/model"
)

// SystemPrompt frames every LLM-backed provider as a fact checker
const SystemPrompt = `You are a careful fact-checking assistant. You judge whether a single declarative statement is factually accurate.

RULES:
1. Answer ONLY with a JSON object, no other text.
2. If the statement is partially true, judge its main assertion and explain the caveat.
3. Lower your confidence when your knowledge may be outdated or the evidence is contested.
4. Only cite sources you are confident exist. Prefer primary and authoritative sources.`

// BuildPrompt constructs the user prompt for a statement
func BuildPrompt(statement string) string {
	return fmt.Sprintf(`Statement to verify:
%q

Respond with a JSON object:
{
  "verdict": true or false,
  "confidence": 0.0-1.0,
  "explanation": "two or three sentences explaining the verdict",
  "historical_context": "background that helps a reader understand the claim, or an empty string",
  "sources": [{"name": "source name", "url": "https://..."}]
}`, statement)
}

// verdictPayload is the JSON shape LLM providers are asked to produce
type verdictPayload struct {
	Verdict           json.RawMessage `json:"verdict"`
	Confidence        json.RawMessage `json:"confidence"`
	Explanation       string          `json:"explanation"`
	HistoricalContext string          `json:"historical_context"`
	Context           string          `json:"context"`
	Sources           []struct {
		Name  string `json:"name"`
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"sources"`
}

var codeFence = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// ParseVerdictJSON extracts a Response from model output. It tolerates code
// fences and prose around the JSON object, string verdicts ("mostly true")
// and percentage confidences.
func ParseVerdictJSON(text string) (*Response, error) {
	text = strings.TrimSpace(text)

	if m := codeFence.FindStringSubmatch(text); len(m) > 1 {
		text = m[1]
	}

	var payload verdictPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no JSON found in response")
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	verdict, err := parseVerdict(payload.Verdict)
	if err != nil {
		return nil, err
	}

	confidence, err := parseConfidence(payload.Confidence)
	if err != nil {
		return nil, err
	}

	context := payload.HistoricalContext
	if context == "" {
		context = payload.Context
	}

	resp := &Response{
		Verdict:     verdict,
		Confidence:  confidence,
		Explanation: strings.TrimSpace(payload.Explanation),
		Context:     strings.TrimSpace(context),
	}
	for _, s := range payload.Sources {
		name := s.Name
		if name == "" {
			name = s.Title
		}
		if strings.TrimSpace(s.URL) == "" {
			continue
		}
		resp.Sources = append(resp.Sources, model.Source{Name: name, URL: strings.TrimSpace(s.URL)})
	}

	return resp, nil
}

func parseVerdict(raw json.RawMessage) (bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return false, fmt.Errorf("missing verdict in response")
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, fmt.Errorf("invalid verdict: %s", string(raw))
	}
	switch MapRating(s) {
	case RatingTrue:
		return true, nil
	case RatingFalse:
		return false, nil
	default:
		return false, fmt.Errorf("inconclusive verdict: %q", s)
	}
}

func parseConfidence(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("missing confidence in response")
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("invalid confidence: %s", string(raw))
		}
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid confidence: %q", s)
		}
		f = parsed
	}

	// Some models answer on a 0-100 scale
	if f > 1 {
		f /= 100
	}
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return f, nil
}
