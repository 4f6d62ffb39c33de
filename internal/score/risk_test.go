package score

import (
	"math"
	"testing"

	"github.com/ppiankov/corroborate/internal/model"
)

func TestRiskAnalyzer_ManipulationScore(t *testing.T) {
	tests := []struct {
		name  string
		input string
		hits  int
		score float64
	}{
		{"neutral", "The Earth orbits the Sun.", 0, 0},
		{"absolutist", "Everyone knows this is guaranteed true and proven", 3, 0.6},
		{"repeated marker counts each time", "Never, never, never give up", 3, 0.6},
		{"phrases", "Experts agree: they don't want you to know this secret cover-up!", 4, 0.8},
		{"curly apostrophe", "You won’t believe this", 1, 0.2},
		{"percent", "This cure is 100% effective", 1, 0.2},
		{"saturates", "Shocking miracle: doctors hate it, always works, absolutely proven, wake up", 7, 1.0},
		{"word boundary", "Nevertheless the alwaysOn flag is unproven", 0, 0},
		{"case insensitive", "NOBODY EXPECTED THIS", 1, 0.2},
	}

	a := NewRiskAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := a.MarkerHits(tt.input)
			if len(hits) != tt.hits {
				t.Errorf("Expected %d marker hits, got %d (%v)", tt.hits, len(hits), hits)
			}
			if got := ManipulationScore(len(hits)); math.Abs(got-tt.score) > 1e-9 {
				t.Errorf("Expected score %f, got %f", tt.score, got)
			}
		})
	}
}

func TestRiskAnalyzer_ManipulationIndependentOfResults(t *testing.T) {
	a := NewRiskAnalyzer()
	raw := "Everyone knows this is guaranteed true and proven"

	withResults := a.Analyze(raw, []model.ProviderResult{
		{ProviderID: "a", Verdict: false, Succeeded: true},
	})
	withoutResults := a.Analyze(raw, nil)

	if withResults.ManipulationScore < 0.6 {
		t.Errorf("Expected manipulation >= 0.6, got %f", withResults.ManipulationScore)
	}
	if withResults.ManipulationScore != withoutResults.ManipulationScore {
		t.Errorf("Expected manipulation to ignore provider outcomes, got %f and %f",
			withResults.ManipulationScore, withoutResults.ManipulationScore)
	}
	if withoutResults.ContradictionIndex != 0 {
		t.Errorf("Expected contradiction 0 with no results, got %f", withoutResults.ContradictionIndex)
	}
}

func TestContradictionIndex(t *testing.T) {
	tests := []struct {
		name     string
		verdicts []bool
		want     float64
	}{
		{"none", nil, 0},
		{"unanimous true", []bool{true, true, true}, 0},
		{"unanimous false", []bool{false, false}, 0},
		{"even split", []bool{true, false}, 1.0},
		{"two to one", []bool{true, true, false}, 2.0 / 3.0},
		{"three to one", []bool{false, true, false, false}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var results []model.ProviderResult
			for _, v := range tt.verdicts {
				results = append(results, model.ProviderResult{Verdict: v, Succeeded: true})
			}
			if got := ContradictionIndex(results); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestRiskAnalyzer_IgnoresFailedResults(t *testing.T) {
	a := NewRiskAnalyzer()

	risk := a.Analyze("Plain statement", []model.ProviderResult{
		{ProviderID: "a", Verdict: true, Succeeded: true},
		{ProviderID: "b", Verdict: true, Succeeded: true},
		{ProviderID: "c", Succeeded: false, Error: "timeout"},
	})

	if risk.ContradictionIndex != 0 {
		t.Errorf("Expected failed result to be ignored, got contradiction %f", risk.ContradictionIndex)
	}
	if _, ok := risk.Reliability["c"]; ok {
		t.Error("Expected no reliability score for failed provider")
	}
}

func TestReliability(t *testing.T) {
	sources := func(n int) []model.Source {
		out := make([]model.Source, n)
		for i := range out {
			out[i] = model.Source{URL: "https://example.com"}
		}
		return out
	}

	scores := Reliability([]model.ProviderResult{
		{ProviderID: "a", Verdict: true, Succeeded: true, Sources: sources(2)},
		{ProviderID: "b", Verdict: true, Succeeded: true, Sources: sources(10)},
		{ProviderID: "c", Verdict: false, Succeeded: true},
	})

	// a: 0.7 + 0.2*(1/2) + 0.04
	if math.Abs(scores["a"]-0.84) > 1e-9 {
		t.Errorf("Expected a = 0.84, got %f", scores["a"])
	}
	// b: 0.7 + 0.2*(1/2) + 0.1 (capped)
	if math.Abs(scores["b"]-0.9) > 1e-9 {
		t.Errorf("Expected b = 0.9, got %f", scores["b"])
	}
	// c: 0.7 + 0 + 0
	if math.Abs(scores["c"]-0.7) > 1e-9 {
		t.Errorf("Expected c = 0.7, got %f", scores["c"])
	}

	solo := Reliability([]model.ProviderResult{{ProviderID: "only", Verdict: true, Succeeded: true}})
	if solo["only"] != 0.7 {
		t.Errorf("Expected lone provider reliability 0.7, got %f", solo["only"])
	}
}
