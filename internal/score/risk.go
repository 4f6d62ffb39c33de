package score

import (
	"math"
	"regexp"
	"strings"

	"github.com/ppiankov/corroborate/internal/extract"
	"github.com/ppiankov/corroborate/internal/model"
)

// MarkersForFullScore is the number of marker hits that saturates the manipulation score
const MarkersForFullScore = 5

// defaultMarkers are absolutist and propaganda phrasings
var defaultMarkers = []string{
	"always", "never", "everyone", "everybody", "nobody", "no one",
	"guaranteed", "proven", "undeniable", "undeniably", "secret",
	"they don't want you to know", "experts agree", "wake up",
	"mainstream media", "cover-up", "100%", "absolutely",
	"you won't believe", "shocking", "miracle", "doctors hate",
}

type marker struct {
	phrase string
	re     *regexp.Regexp
}

// RiskAnalyzer scores raw input for manipulative language and a result set
// for disagreement between providers
type RiskAnalyzer struct {
	markers []marker
}

// NewRiskAnalyzer creates an analyzer with the built-in marker list
func NewRiskAnalyzer() *RiskAnalyzer {
	return NewRiskAnalyzerWithMarkers(defaultMarkers)
}

// NewRiskAnalyzerWithMarkers creates an analyzer with a custom marker list.
// Markers match case-insensitively on word boundaries.
func NewRiskAnalyzerWithMarkers(phrases []string) *RiskAnalyzer {
	a := &RiskAnalyzer{}
	for _, phrase := range phrases {
		a.markers = append(a.markers, marker{
			phrase: phrase,
			re:     markerRegexp(extract.Fold(phrase)),
		})
	}
	return a
}

// markerRegexp builds a boundary-aware pattern; \b only applies next to word characters
func markerRegexp(phrase string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(phrase)
	// Curly apostrophes are as common as straight ones in pasted text
	quoted = strings.ReplaceAll(quoted, "'", "['’]")
	prefix, suffix := `\b`, `\b`
	if !isWordByte(phrase[0]) {
		prefix = `(?:^|\W)`
	}
	if !isWordByte(phrase[len(phrase)-1]) {
		suffix = `(?:\W|$)`
	}
	return regexp.MustCompile(prefix + quoted + suffix)
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Analyze computes manipulation from the raw input and contradiction and
// reliability from the succeeded results
func (a *RiskAnalyzer) Analyze(raw string, results []model.ProviderResult) model.RiskSignals {
	hits := a.MarkerHits(raw)
	succeeded := model.Succeeded(results)

	return model.RiskSignals{
		ManipulationScore:  ManipulationScore(len(hits)),
		ContradictionIndex: ContradictionIndex(succeeded),
		MarkerHits:         hits,
		Reliability:        Reliability(succeeded),
	}
}

// MarkerHits returns every marker occurrence in text, one entry per occurrence
func (a *RiskAnalyzer) MarkerHits(text string) []string {
	folded := extract.Fold(text)
	var hits []string
	for _, m := range a.markers {
		for range m.re.FindAllStringIndex(folded, -1) {
			hits = append(hits, m.phrase)
		}
	}
	return hits
}

// ManipulationScore maps a marker count to [0,1]
func ManipulationScore(matches int) float64 {
	return math.Min(1, float64(matches)/MarkersForFullScore)
}

// ContradictionIndex is 2*min(true,false)/n over succeeded results, 0 when n is 0
func ContradictionIndex(succeeded []model.ProviderResult) float64 {
	if len(succeeded) == 0 {
		return 0
	}
	trueCount := 0
	for _, r := range succeeded {
		if r.Verdict {
			trueCount++
		}
	}
	falseCount := len(succeeded) - trueCount
	minority := trueCount
	if falseCount < minority {
		minority = falseCount
	}
	return 2 * float64(minority) / float64(len(succeeded))
}

// Reliability scores each succeeded provider: 0.7 base, up to 0.2 for agreeing
// with the other providers, up to 0.1 for cited sources
func Reliability(succeeded []model.ProviderResult) map[string]float64 {
	if len(succeeded) == 0 {
		return nil
	}
	scores := make(map[string]float64, len(succeeded))
	others := len(succeeded) - 1
	for i, r := range succeeded {
		agreement := 0.0
		if others > 0 {
			agreeing := 0
			for j, o := range succeeded {
				if i != j && o.Verdict == r.Verdict {
					agreeing++
				}
			}
			agreement = float64(agreeing) / float64(others)
		}
		sourceBonus := math.Min(0.1, 0.02*float64(len(r.Sources)))
		scores[r.ProviderID] = 0.7 + 0.2*agreement + sourceBonus
	}
	return scores
}
