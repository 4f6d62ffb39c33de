package model

import "time"

// VerdictReport is the terminal artifact returned to the caller.
// The engine never persists it; storage and rendering belong to the caller.
type VerdictReport struct {
	ID        string    `json:"id"`
	Claim     Claim     `json:"claim"`
	CheckedAt time.Time `json:"checked_at"`

	IsTrue      bool     `json:"is_true"`
	Confidence  float64  `json:"confidence"` // Mean provider confidence, never discounted by risk
	Coverage    float64  `json:"coverage"`   // Sum of weights of providers that answered
	Explanation string   `json:"explanation"`
	Context     string   `json:"context,omitempty"`
	Sources     []Source `json:"sources"`

	Breakdown []ProviderBreakdown `json:"breakdown"`
	Failures  []ProviderFailure   `json:"failures,omitempty"`

	ConsensusStrength  float64 `json:"consensus_strength"`
	ManipulationScore  float64 `json:"manipulation_score"`
	ContradictionIndex float64 `json:"contradiction_index"`

	Domains []Domain     `json:"domains"`
	Weights WeightVector `json:"weights"`

	Signals []Signal `json:"signals"` // Transparent scoring breakdown
}

// ProviderBreakdown is the per-provider line of a report
type ProviderBreakdown struct {
	ProviderID           string  `json:"provider_id"`
	Verdict              bool    `json:"verdict"`
	NormalizedConfidence float64 `json:"normalized_confidence"`
	Weight               float64 `json:"weight"`
	Reliability          float64 `json:"reliability"` // Secondary signal, not used for the verdict
}

// ProviderFailure records a provider that was selected but produced no answer
type ProviderFailure struct {
	ProviderID string `json:"provider_id"`
	Error      string `json:"error"`
}

// FusionOutcome is what the consensus layer derives from the surviving results
type FusionOutcome struct {
	ConsensusStrength float64  `json:"consensus_strength"`
	MajorityVerdict   bool     `json:"majority_verdict"` // Unweighted vote, ties resolve true
	MergedExplanation string   `json:"merged_explanation"`
	MergedContext     string   `json:"merged_context,omitempty"`
	RankedSources     []Source `json:"ranked_sources"`
}

// RiskSignals are the two derived risk measures plus their inputs
type RiskSignals struct {
	ManipulationScore  float64            `json:"manipulation_score"`
	ContradictionIndex float64            `json:"contradiction_index"`
	MarkerHits         []string           `json:"marker_hits,omitempty"` // Every manipulation marker occurrence
	Reliability        map[string]float64 `json:"reliability,omitempty"` // Per succeeded provider
}

// IsHigh reports whether the risk signals warrant a cautionary conclusion
func (r RiskSignals) IsHigh() bool {
	return r.ManipulationScore >= 0.4 || r.ContradictionIndex >= 0.5
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"` // Inputs and formula
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalConsensus     SignalType = "consensus"     // Agreement with the majority verdict
	SignalContradiction SignalType = "contradiction" // Split between providers
	SignalManipulation  SignalType = "manipulation"  // Rhetorical markers in the raw input
	SignalCoverage      SignalType = "coverage"      // Weight mass that actually answered
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
