package model

import "time"

// Source is a citation returned by a provider
type Source struct {
	Name      string        `json:"name"`
	URL       string        `json:"url"`
	Authority AuthorityTier `json:"authority,omitempty"` // Assigned after fusion
}

// AuthorityTier represents the classification of source authority
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Laws, statutes, academic papers, official documents
	TierSecondary AuthorityTier = 2 // Encyclopedias, fact-checkers, reputable media
	TierTertiary  AuthorityTier = 3 // Blogs, personal websites, everything else
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// SourceCheck is the result of probing one source URL for accessibility
type SourceCheck struct {
	URL          string        `json:"url"`
	IsAccessible bool          `json:"is_accessible"`
	StatusCode   int           `json:"status_code,omitempty"`
	LastModified *time.Time    `json:"last_modified,omitempty"`
	Age          *int          `json:"age_days,omitempty"` // Days since last modified
	IsStale      bool          `json:"is_stale"`           // > 1 year old
	IsDead       bool          `json:"is_dead"`            // 404, 410, or network failure
	RedirectURL  string        `json:"redirect_url,omitempty"`
	Authority    AuthorityTier `json:"authority"`
	Error        string        `json:"error,omitempty"`
}
