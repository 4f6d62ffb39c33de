package model

// Claim is the normalized, declarative form of one verification request.
// It is built once by the normalizer and never mutated afterwards.
type Claim struct {
	RawInput            string   `json:"raw_input"`                 // Exactly what the caller submitted
	NormalizedStatement string   `json:"normalized_statement"`      // Declarative, checkable statement
	WasQuestion         bool     `json:"was_question"`              // Whether the input was phrased as a question
	ImplicitClaims      []string `json:"implicit_claims,omitempty"` // Sub-claims implied by the question form
	Rule                string   `json:"rule,omitempty"`            // Which rewrite rule fired (e.g., "copula", "fallback")
}

// Domain is a topical tag used to select and weight providers
type Domain string

const (
	DomainMedical       Domain = "medical"
	DomainScientific    Domain = "scientific"
	DomainHistorical    Domain = "historical"
	DomainTechnical     Domain = "technical"
	DomainFinancial     Domain = "financial"
	DomainPolitical     Domain = "political"
	DomainCurrentEvents Domain = "current_events"
	DomainSports        Domain = "sports"
	DomainEntertainment Domain = "entertainment"
	DomainGeneral       Domain = "general" // Fallback when nothing else matches
)

// AllDomains returns every domain in declaration order
func AllDomains() []Domain {
	return []Domain{
		DomainMedical,
		DomainScientific,
		DomainHistorical,
		DomainTechnical,
		DomainFinancial,
		DomainPolitical,
		DomainCurrentEvents,
		DomainSports,
		DomainEntertainment,
		DomainGeneral,
	}
}

// ParseDomain converts a string to a Domain, reporting whether it is known
func ParseDomain(s string) (Domain, bool) {
	for _, d := range AllDomains() {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}
