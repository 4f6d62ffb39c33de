package score

import (
	"math"
	"sort"

	"github.com/ppiankov/corroborate/internal/model"
)

const (
	// DefaultStrength is used for a domain missing from a provider's table
	DefaultStrength = 0.5

	// MinStrength floors every per-domain strength so a product is never zero
	MinStrength = 0.01

	// MaxStrength caps every per-domain strength so a product stays finite
	MaxStrength = 10.0
)

// Weigh ranks available providers by the product of their per-domain strengths,
// keeps the top quota and normalizes the kept strengths to sum to 1.
//
// quota <= 0 keeps every available provider. Unavailable and unkept providers
// get no entry. Ties keep the declaration order of providers; a repeated
// provider id keeps its first available declaration.
func Weigh(domains []model.Domain, quota int, providers []model.ProviderDescriptor) model.Weighting {
	ranked := make([]model.ProviderWeight, 0, len(providers))
	seen := make(map[string]bool, len(providers))
	for _, p := range providers {
		if !p.IsAvailable || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		ranked = append(ranked, model.ProviderWeight{
			ProviderID:  p.ID,
			RawStrength: RawStrength(p, domains),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RawStrength > ranked[j].RawStrength
	})

	if quota > 0 && len(ranked) > quota {
		ranked = ranked[:quota]
	}

	var total float64
	for _, pw := range ranked {
		total += pw.RawStrength
	}
	for i := range ranked {
		ranked[i].Weight = ranked[i].RawStrength / total
	}

	return model.Weighting{Ranked: ranked}
}

// RawStrength is the product of a provider's strengths over the matched domains.
// Each strength is clamped to [MinStrength, MaxStrength]; NaN counts as MinStrength.
func RawStrength(p model.ProviderDescriptor, domains []model.Domain) float64 {
	if len(domains) == 0 {
		domains = []model.Domain{model.DomainGeneral}
	}
	product := 1.0
	for _, d := range domains {
		s := p.Strength(d, DefaultStrength)
		switch {
		case math.IsNaN(s) || s < MinStrength:
			s = MinStrength
		case s > MaxStrength:
			s = MaxStrength
		}
		product *= s
	}
	return product
}
