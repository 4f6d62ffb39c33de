package consensus

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"github.com/ppiankov/corroborate/internal/model"
)

// voteEpsilon absorbs float error so an exact weighted tie resolves to true
const voteEpsilon = 1e-9

// Compose builds the final report from the weighting, the fan-out results,
// the fusion outcome and the risk signals. Failed providers contribute to
// neither side of the weighted vote; their weight is not redistributed.
// Claim and Domains are filled in by the caller.
func Compose(weighting model.Weighting, results []model.ProviderResult, fusion model.FusionOutcome, risk model.RiskSignals) model.VerdictReport {
	succeeded := byWeight(model.Succeeded(results), weighting)

	report := model.VerdictReport{
		ID:                 uuid.NewString(),
		CheckedAt:          time.Now().UTC(),
		Explanation:        fusion.MergedExplanation,
		Context:            fusion.MergedContext,
		Sources:            fusion.RankedSources,
		Breakdown:          []model.ProviderBreakdown{},
		ConsensusStrength:  fusion.ConsensusStrength,
		ManipulationScore:  risk.ManipulationScore,
		ContradictionIndex: risk.ContradictionIndex,
		Weights:            weighting.Vector(),
	}
	if report.Sources == nil {
		report.Sources = []model.Source{}
	}

	for _, r := range byWeight(results, weighting) {
		if !r.Succeeded {
			report.Failures = append(report.Failures, model.ProviderFailure{
				ProviderID: r.ProviderID,
				Error:      r.Error,
			})
		}
	}

	if len(succeeded) == 0 {
		report.IsTrue = false
		report.Confidence = 0
		report.ContradictionIndex = 0
		report.Explanation = NoProviderExplanation
		report.Context = ""
		report.Sources = []model.Source{}
		report.Signals = signals(report, 0, risk)
		return report
	}

	for _, r := range succeeded {
		report.Breakdown = append(report.Breakdown, model.ProviderBreakdown{
			ProviderID:           r.ProviderID,
			Verdict:              r.Verdict,
			NormalizedConfidence: clamp01(r.Confidence),
			Weight:               weighting.Weight(r.ProviderID),
			Reliability:          risk.Reliability[r.ProviderID],
		})
		report.Coverage += weighting.Weight(r.ProviderID)
	}

	report.IsTrue = weightedVerdict(succeeded, weighting, fusion.MajorityVerdict)
	report.Confidence = meanConfidence(succeeded)
	report.Signals = signals(report, len(succeeded), risk)

	return report
}

// weightedVerdict returns sum(w*verdict)/sum(w) >= 0.5 over succeeded results.
// If none of them carries weight, the unweighted majority decides.
func weightedVerdict(succeeded []model.ProviderResult, weighting model.Weighting, majority bool) bool {
	var num, den float64
	for _, r := range succeeded {
		w := weighting.Weight(r.ProviderID)
		den += w
		if r.Verdict {
			num += w
		}
	}
	if den <= 0 {
		return majority
	}
	return num/den >= 0.5-voteEpsilon
}

// meanConfidence is the arithmetic mean of the providers' own confidences
func meanConfidence(succeeded []model.ProviderResult) float64 {
	confidences := make([]float64, len(succeeded))
	for i, r := range succeeded {
		confidences[i] = clamp01(r.Confidence)
	}
	mean, err := stats.Mean(confidences)
	if err != nil {
		return 0
	}
	return clamp01(mean)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// signals builds the transparent scoring breakdown for a report
func signals(report model.VerdictReport, succeeded int, risk model.RiskSignals) []model.Signal {
	return []model.Signal{
		consensusSignal(report.ConsensusStrength, succeeded),
		contradictionSignal(report.ContradictionIndex, succeeded),
		manipulationSignal(risk),
		coverageSignal(report.Coverage, succeeded, len(report.Weights)),
	}
}

func consensusSignal(strength float64, succeeded int) model.Signal {
	severity := model.SeverityInfo
	if succeeded == 0 || strength < 0.5 {
		severity = model.SeverityCritical
	} else if strength <= StrongConsensus {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalConsensus,
		Severity:    severity,
		Description: fmt.Sprintf("%.0f%% of %d responding providers agree with the majority verdict", strength*100, succeeded),
		Data: map[string]interface{}{
			"consensus_strength": strength,
			"succeeded":          succeeded,
			"formula":            "matching_majority / succeeded",
		},
	}
}

func contradictionSignal(index float64, succeeded int) model.Signal {
	severity := model.SeverityInfo
	if index >= 0.5 {
		severity = model.SeverityCritical
	} else if index > 0 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalContradiction,
		Severity:    severity,
		Description: fmt.Sprintf("Contradiction index: %.2f", index),
		Data: map[string]interface{}{
			"contradiction_index": index,
			"succeeded":           succeeded,
			"formula":             "2 * min(true_count, false_count) / succeeded",
		},
	}
}

func manipulationSignal(risk model.RiskSignals) model.Signal {
	severity := model.SeverityInfo
	if risk.ManipulationScore >= 0.4 {
		severity = model.SeverityCritical
	} else if risk.ManipulationScore > 0 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalManipulation,
		Severity:    severity,
		Description: fmt.Sprintf("%d manipulation marker(s) in the original wording", len(risk.MarkerHits)),
		Data: map[string]interface{}{
			"manipulation_score": risk.ManipulationScore,
			"markers":            risk.MarkerHits,
			"formula":            "min(1, marker_matches / 5)",
		},
	}
}

func coverageSignal(coverage float64, succeeded, selected int) model.Signal {
	severity := model.SeverityInfo
	if coverage < 0.5 {
		severity = model.SeverityCritical
	} else if coverage < 1-voteEpsilon {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d selected providers answered (%.0f%% of weight)", succeeded, selected, coverage*100),
		Data: map[string]interface{}{
			"coverage":  coverage,
			"succeeded": succeeded,
			"selected":  selected,
			"formula":   "sum(weight[p] for succeeded p)",
		},
	}
}
