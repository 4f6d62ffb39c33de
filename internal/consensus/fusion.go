package consensus

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/corroborate/internal/model"
)

const (
	// StrongConsensus is the agreement ratio above which providers "broadly agree"
	StrongConsensus = 0.7

	// MinContextLength is the shortest context considered informative
	MinContextLength = 20

	// MaxSources caps the merged source list
	MaxSources = 5
)

// NoProviderExplanation is the explanation used when nothing could be consulted
const NoProviderExplanation = "No verification provider could be consulted for this claim, so it could not be checked."

// Fuse merges the succeeded results into one explanation, one context and a
// ranked source list, and measures agreement with the unweighted majority.
// The result does not depend on the order in which results arrived.
func Fuse(statement string, results []model.ProviderResult, weighting model.Weighting, risk model.RiskSignals) model.FusionOutcome {
	succeeded := byWeight(model.Succeeded(results), weighting)
	if len(succeeded) == 0 {
		return model.FusionOutcome{
			MergedExplanation: NoProviderExplanation,
			RankedSources:     []model.Source{},
		}
	}

	majority := MajorityVerdict(succeeded)
	matching := 0
	for _, r := range succeeded {
		if r.Verdict == majority {
			matching++
		}
	}
	consensusStrength := float64(matching) / float64(len(succeeded))

	return model.FusionOutcome{
		ConsensusStrength: consensusStrength,
		MajorityVerdict:   majority,
		MergedExplanation: mergeExplanations(statement, succeeded, majority, consensusStrength, risk),
		MergedContext:     longestContext(succeeded),
		RankedSources:     rankSources(succeeded),
	}
}

// MajorityVerdict is an unweighted vote; a tie resolves to true
func MajorityVerdict(succeeded []model.ProviderResult) bool {
	if len(succeeded) == 0 {
		return false
	}
	trueCount := 0
	for _, r := range succeeded {
		if r.Verdict {
			trueCount++
		}
	}
	return 2*trueCount >= len(succeeded)
}

// byWeight orders results by weight descending. Ties and providers missing
// from the weighting fall back to provider id so arrival order never matters.
func byWeight(results []model.ProviderResult, weighting model.Weighting) []model.ProviderResult {
	rank := make(map[string]int, len(weighting.Ranked))
	for i, pw := range weighting.Ranked {
		rank[pw.ProviderID] = i
	}

	sorted := make([]model.ProviderResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, iok := rank[sorted[i].ProviderID]
		rj, jok := rank[sorted[j].ProviderID]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return sorted[i].ProviderID < sorted[j].ProviderID
		}
	})
	return sorted
}

func mergeExplanations(statement string, succeeded []model.ProviderResult, majority bool, consensusStrength float64, risk model.RiskSignals) string {
	var paragraphs []string
	for _, r := range succeeded {
		explanation := strings.TrimSpace(r.Explanation)
		if explanation == "" {
			explanation = fmt.Sprintf("rated the claim %s (confidence %.2f) without further explanation.",
				verdictWord(r.Verdict), r.Confidence)
		}
		paragraphs = append(paragraphs, fmt.Sprintf("%s: %s", r.ProviderID, explanation))
	}
	paragraphs = append(paragraphs, Conclusion(statement, majority, consensusStrength, risk))
	return strings.Join(paragraphs, "\n\n")
}

// Conclusion picks one of four summary lines from consensus strength and risk
func Conclusion(statement string, majority bool, consensusStrength float64, risk model.RiskSignals) string {
	verdict := verdictWord(majority)
	strong := consensusStrength > StrongConsensus

	switch {
	case strong && !risk.IsHigh():
		return fmt.Sprintf("Conclusion: providers broadly agree that \"%s\" is %s.", statement, verdict)
	case strong && risk.IsHigh():
		return fmt.Sprintf("Conclusion: providers broadly agree that \"%s\" is %s, but the wording or the provider split calls for caution.", statement, verdict)
	case !strong && !risk.IsHigh():
		return fmt.Sprintf("Conclusion: providers are divided on \"%s\"; the balance leans %s but is not conclusive.", statement, verdict)
	default:
		return fmt.Sprintf("Conclusion: providers disagree on \"%s\" and risk signals are high; treat the claim as unverified.", statement)
	}
}

// longestContext returns the longest trimmed context above MinContextLength.
// Equal lengths keep the higher-weighted provider.
func longestContext(succeeded []model.ProviderResult) string {
	best := ""
	bestLen := MinContextLength
	for _, r := range succeeded {
		ctx := strings.TrimSpace(r.Context)
		if n := utf8.RuneCountInString(ctx); n > bestLen {
			best, bestLen = ctx, n
		}
	}
	return best
}

// rankSources unions sources in weight order, deduplicated by URL, capped at MaxSources
func rankSources(succeeded []model.ProviderResult) []model.Source {
	seen := make(map[string]bool)
	sources := []model.Source{}
	for _, r := range succeeded {
		for _, s := range r.Sources {
			url := strings.TrimSpace(s.URL)
			if url == "" || seen[url] {
				continue
			}
			seen[url] = true
			sources = append(sources, model.Source{
				Name:      strings.TrimSpace(s.Name),
				URL:       url,
				Authority: s.Authority,
			})
			if len(sources) == MaxSources {
				return sources
			}
		}
	}
	return sources
}

func verdictWord(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
