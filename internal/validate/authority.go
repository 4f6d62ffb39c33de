package validate

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ppiankov/corroborate/internal/model"
)

// AuthorityClassifier classifies source URLs into authority tiers.
// It is pure: no I/O, safe for concurrent use once built.
type AuthorityClassifier struct {
	config       *model.AuthorityConfig
	primary      []string
	secondary    []string
	pathPatterns []compiledPattern
}

type compiledPattern struct {
	pattern *regexp.Regexp
	tier    model.AuthorityTier
}

// NewAuthorityClassifier creates a new authority classifier.
// A nil config uses the default domain lists.
func NewAuthorityClassifier(config *model.AuthorityConfig) *AuthorityClassifier {
	if config == nil {
		config = &model.DefaultConfig().Authority
	}

	classifier := &AuthorityClassifier{
		config:    config,
		primary:   normalizeDomains(config.PrimaryDomains),
		secondary: normalizeDomains(config.SecondaryDomains),
	}

	// Invalid patterns are skipped; config validation reports them earlier
	for _, pp := range config.PathPatterns {
		if re, err := regexp.Compile(pp.Pattern); err == nil {
			classifier.pathPatterns = append(classifier.pathPatterns, compiledPattern{
				pattern: re,
				tier:    parseTierString(pp.Tier),
			})
		}
	}

	return classifier
}

// Classify classifies a URL into an authority tier
func (a *AuthorityClassifier) Classify(rawURL string) model.AuthorityTier {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return model.TierTertiary
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	if host == "" {
		return model.TierTertiary
	}

	// Explicit mappings win over everything else
	if tierStr, ok := a.config.DomainMap[host]; ok {
		return parseTierString(tierStr)
	}

	if matchesDomain(host, a.primary) {
		return model.TierPrimary
	}
	if matchesDomain(host, a.secondary) {
		return model.TierSecondary
	}

	for _, cp := range a.pathPatterns {
		if cp.pattern.MatchString(parsed.Path) {
			return cp.tier
		}
	}

	// Government and academic TLDs
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") || strings.HasSuffix(host, ".ac.uk") {
		return model.TierPrimary
	}

	return model.TierTertiary
}

// ClassifySources sets the authority tier of every source in place
func (a *AuthorityClassifier) ClassifySources(sources []model.Source) {
	for i := range sources {
		sources[i].Authority = a.Classify(sources[i].URL)
	}
}

// matchesDomain reports whether host equals a domain or is a subdomain of it
func matchesDomain(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func normalizeDomains(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

// parseTierString converts a tier string to AuthorityTier
func parseTierString(tier string) model.AuthorityTier {
	switch strings.ToLower(tier) {
	case "primary", "1":
		return model.TierPrimary
	case "secondary", "2":
		return model.TierSecondary
	default:
		return model.TierTertiary
	}
}
