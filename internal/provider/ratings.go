package provider

import (
	"strings"

	"github.com/ppiankov/corroborate/internal/model"
)

// Rating is a normalized fact-checker rating
type Rating int

const (
	RatingUnknown Rating = iota
	RatingTrue
	RatingFalse
	RatingMixed
)

func (r Rating) String() string {
	switch r {
	case RatingTrue:
		return "true"
	case RatingFalse:
		return "false"
	case RatingMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// Checked in order: "half true" is mixed and "incorrect" is false, not true
var (
	mixedRatings = []string{
		"half true", "half-true", "mixture", "mixed", "partly", "partially",
		"unproven", "disputed", "needs context", "missing context", "unverified",
		"exaggerat", "cherry",
	}
	falseRatings = []string{
		"false", "untrue", "not true", "incorrect", "inaccurate", "pants on fire",
		"fake", "misleading", "wrong", "fabricated", "hoax", "debunked",
		"pinocchio", "baseless", "no evidence", "unsupported", "scam", "satire",
	}
	trueRatings = []string{
		"true", "correct", "accurate", "verified", "confirmed", "legit",
		"supported",
	}
)

// MapRating maps a free-text fact-checker rating to a normalized Rating
func MapRating(textual string) Rating {
	s := strings.ToLower(strings.TrimSpace(textual))
	if s == "" {
		return RatingUnknown
	}
	for _, kw := range mixedRatings {
		if strings.Contains(s, kw) {
			return RatingMixed
		}
	}
	for _, kw := range falseRatings {
		if strings.Contains(s, kw) {
			return RatingFalse
		}
	}
	for _, kw := range trueRatings {
		if strings.Contains(s, kw) {
			return RatingTrue
		}
	}
	return RatingUnknown
}

// tally counts normalized ratings
type tally struct {
	trueCount, falseCount, mixedCount int
}

func (t *tally) add(r Rating) {
	switch r {
	case RatingTrue:
		t.trueCount++
	case RatingFalse:
		t.falseCount++
	case RatingMixed:
		t.mixedCount++
	}
}

func (t tally) decisive() int {
	return t.trueCount + t.falseCount
}

// verdict is true when true ratings outnumber false ones. Confidence is the
// share of the winning side among all rated reviews, mixed ones included.
func (t tally) verdict() (bool, float64) {
	total := t.trueCount + t.falseCount + t.mixedCount
	if total == 0 {
		return false, 0
	}
	verdict := t.trueCount > t.falseCount
	winning := t.falseCount
	if verdict {
		winning = t.trueCount
	}
	return verdict, float64(winning) / float64(total)
}

// sourceFor names a review source after its publisher, falling back to the title
func sourceFor(publisher, title, rawURL string) model.Source {
	name := strings.TrimSpace(publisher)
	if name == "" {
		name = strings.TrimSpace(title)
	}
	return model.Source{Name: name, URL: strings.TrimSpace(rawURL)}
}
