package model

import "time"

// ProviderDescriptor is the static, rarely-changing description of one provider.
// IsAvailable is decided by the caller (e.g., whether credentials are present).
type ProviderDescriptor struct {
	ID          string             `json:"id" yaml:"id"`
	Strengths   map[Domain]float64 `json:"strengths" yaml:"strengths"`
	IsAvailable bool               `json:"is_available" yaml:"is_available"`
}

// Strength returns the provider's strength for a domain, or fallback if unset
func (d ProviderDescriptor) Strength(domain Domain, fallback float64) float64 {
	if s, ok := d.Strengths[domain]; ok {
		return s
	}
	return fallback
}

// WeightVector maps provider id to its normalized trust weight
type WeightVector map[string]float64

// ProviderWeight is one selected provider with its raw and normalized strength
type ProviderWeight struct {
	ProviderID  string  `json:"provider_id"`
	RawStrength float64 `json:"raw_strength"` // Product of per-domain strengths
	Weight      float64 `json:"weight"`       // Normalized over the selected set
}

// Weighting is the ordered selection produced by the weight calculator.
// Ranked is sorted by weight descending; ties keep provider declaration order.
type Weighting struct {
	Ranked []ProviderWeight `json:"ranked"`
}

// Vector returns the weights as a map
func (w Weighting) Vector() WeightVector {
	v := make(WeightVector, len(w.Ranked))
	for _, pw := range w.Ranked {
		v[pw.ProviderID] = pw.Weight
	}
	return v
}

// Weight returns the weight of a provider, 0 if it was not selected
func (w Weighting) Weight(id string) float64 {
	for _, pw := range w.Ranked {
		if pw.ProviderID == id {
			return pw.Weight
		}
	}
	return 0
}

// IDs returns the selected provider ids in rank order
func (w Weighting) IDs() []string {
	ids := make([]string, len(w.Ranked))
	for i, pw := range w.Ranked {
		ids[i] = pw.ProviderID
	}
	return ids
}

// ProviderResult is the outcome of one fan-out attempt.
// Results with Succeeded=false are excluded from fusion but kept for reporting.
type ProviderResult struct {
	ProviderID  string        `json:"provider_id"`
	Verdict     bool          `json:"verdict"`
	Confidence  float64       `json:"confidence"` // 0..1
	Explanation string        `json:"explanation,omitempty"`
	Context     string        `json:"context,omitempty"` // Historical/background context
	Sources     []Source      `json:"sources,omitempty"`
	Succeeded   bool          `json:"succeeded"`
	Error       string        `json:"error,omitempty"`
	Latency     time.Duration `json:"latency_ns"`
	Model       string        `json:"model,omitempty"` // Model or API version that answered
}

// Succeeded filters results down to the ones that produced an answer
func Succeeded(results []ProviderResult) []ProviderResult {
	out := make([]ProviderResult, 0, len(results))
	for _, r := range results {
		if r.Succeeded {
			out = append(out, r)
		}
	}
	return out
}
