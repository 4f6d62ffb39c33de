package provider

import (
	"math"
	"strings"
	"testing"
)

func TestParseVerdictJSON(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		verdict    bool
		confidence float64
		sources    int
		wantErr    bool
	}{
		{
			name:       "plain object",
			input:      `{"verdict": false, "confidence": 0.95, "explanation": "The Earth is an oblate spheroid.", "sources": [{"name": "NASA", "url": "https://nasa.gov"}]}`,
			verdict:    false,
			confidence: 0.95,
			sources:    1,
		},
		{
			name:       "code fence",
			input:      "```json\n{\"verdict\": true, \"confidence\": 0.8, \"explanation\": \"ok\"}\n```",
			verdict:    true,
			confidence: 0.8,
		},
		{
			name:       "prose around object",
			input:      `Here is my answer: {"verdict": true, "confidence": 0.7, "explanation": "ok"} Hope it helps.`,
			verdict:    true,
			confidence: 0.7,
		},
		{
			name:       "string verdict and percentage",
			input:      `{"verdict": "Mostly true", "confidence": "85%", "explanation": "ok"}`,
			verdict:    true,
			confidence: 0.85,
		},
		{
			name:       "hundred scale",
			input:      `{"verdict": false, "confidence": 90, "explanation": "ok"}`,
			verdict:    false,
			confidence: 0.9,
		},
		{
			name:       "negative confidence clamped",
			input:      `{"verdict": true, "confidence": -0.3, "explanation": "ok"}`,
			verdict:    true,
			confidence: 0,
		},
		{
			name:       "sources without url dropped",
			input:      `{"verdict": true, "confidence": 0.6, "sources": [{"name": "Book"}, {"title": "Site", "url": " https://a.example "}]}`,
			verdict:    true,
			confidence: 0.6,
			sources:    1,
		},
		{name: "no json", input: "I cannot answer that.", wantErr: true},
		{name: "missing verdict", input: `{"confidence": 0.5}`, wantErr: true},
		{name: "missing confidence", input: `{"verdict": true}`, wantErr: true},
		{name: "inconclusive verdict", input: `{"verdict": "half true", "confidence": 0.5}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseVerdictJSON(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got %+v", resp)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVerdictJSON failed: %v", err)
			}
			if resp.Verdict != tt.verdict {
				t.Errorf("Expected verdict %v, got %v", tt.verdict, resp.Verdict)
			}
			if math.Abs(resp.Confidence-tt.confidence) > 1e-9 {
				t.Errorf("Expected confidence %.2f, got %.2f", tt.confidence, resp.Confidence)
			}
			if len(resp.Sources) != tt.sources {
				t.Errorf("Expected %d sources, got %d", tt.sources, len(resp.Sources))
			}
		})
	}
}

func TestParseVerdictJSON_Context(t *testing.T) {
	resp, err := ParseVerdictJSON(`{"verdict": true, "confidence": 0.9, "historical_context": "  Known since antiquity.  "}`)
	if err != nil {
		t.Fatalf("ParseVerdictJSON failed: %v", err)
	}
	if resp.Context != "Known since antiquity." {
		t.Errorf("Unexpected context: %q", resp.Context)
	}

	resp, err = ParseVerdictJSON(`{"verdict": true, "confidence": 0.9, "context": "Fallback field."}`)
	if err != nil {
		t.Fatalf("ParseVerdictJSON failed: %v", err)
	}
	if resp.Context != "Fallback field." {
		t.Errorf("Unexpected context: %q", resp.Context)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("The Earth is flat.")
	if !strings.Contains(prompt, `"The Earth is flat."`) {
		t.Error("Expected prompt to quote the statement")
	}
	if !strings.Contains(prompt, `"verdict"`) || !strings.Contains(prompt, `"confidence"`) {
		t.Error("Expected prompt to describe the JSON shape")
	}
}

func TestMapRating(t *testing.T) {
	tests := []struct {
		input string
		want  Rating
	}{
		{"True", RatingTrue},
		{"Mostly True", RatingTrue},
		{"Correct", RatingTrue},
		{"False", RatingFalse},
		{"Pants on Fire!", RatingFalse},
		{"Incorrect", RatingFalse},
		{"Inaccurate", RatingFalse},
		{"Not true", RatingFalse},
		{"Unsupported", RatingFalse},
		{"Four Pinocchios", RatingFalse},
		{"Half True", RatingMixed},
		{"Mixture", RatingMixed},
		{"Needs Context", RatingMixed},
		{"Exaggerated", RatingMixed},
		{"", RatingUnknown},
		{"Satisfying", RatingUnknown},
	}

	for _, tt := range tests {
		if got := MapRating(tt.input); got != tt.want {
			t.Errorf("MapRating(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestTally(t *testing.T) {
	var tl tally
	for _, r := range []Rating{RatingFalse, RatingFalse, RatingTrue, RatingMixed, RatingUnknown} {
		tl.add(r)
	}

	if tl.decisive() != 3 {
		t.Errorf("Expected 3 decisive ratings, got %d", tl.decisive())
	}

	verdict, confidence := tl.verdict()
	if verdict {
		t.Error("Expected false verdict")
	}
	if math.Abs(confidence-0.5) > 1e-9 {
		t.Errorf("Expected confidence 0.5 (2 of 4 rated), got %.2f", confidence)
	}

	// Equal counts do not make a claim true
	even := tally{trueCount: 1, falseCount: 1}
	if v, _ := even.verdict(); v {
		t.Error("Expected tie between reviews to resolve false")
	}
}
