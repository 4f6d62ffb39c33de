package extract

import (
	"strings"

	"github.com/ppiankov/corroborate/internal/model"
)

// defaultDomainKeywords are matched as substrings of the folded, space-padded
// statement, so "vaccin" also hits "unvaccinated". Short keywords carry spaces
// to match whole words only (" king " does not match "making").
var defaultDomainKeywords = map[model.Domain][]string{
	model.DomainMedical: {
		"vaccin", "virus", "disease", "cancer", "doctor", "medicine", "medical",
		"health", "drug", "symptom", "treatment", "hospital", "infection", "covid",
		"autism", "vitamin", "surgery", "patient", "pandemic", "diabetes",
		"heart attack", "blood pressure", "antibiotic", "nutrition",
	},
	model.DomainScientific: {
		"science", "scientific", "research", "physics", "chemistry", "biology",
		"earth", "planet", "climate", "evolution", "species", "atom", "molecule",
		"gravity", "universe", "nasa", "experiment", "theory", "moon", " sun ",
		"solar", "speed of light", "dinosaur", "fossil",
	},
	model.DomainHistorical: {
		"history", "historical", "century", "ancient", " war ", " wars ", "empire",
		" king ", " queen ", "revolution", "invented", "founded", "dynasty",
		"medieval", "battle", "pharaoh", "colonial", "titanic", "pyramid",
	},
	model.DomainTechnical: {
		"software", "computer", "internet", "programming", "algorithm", "technolog",
		" ai ", "artificial intelligence", "smartphone", "processor", "database",
		"network", "cyber", "encryption", "robot", "semiconductor", " app ", " apps ",
		"website", "linux", "telephone", " 5g ",
	},
	model.DomainFinancial: {
		"stock", "market", "econom", "inflation", "bank", "money", "dollar", "price",
		" tax ", " taxes ", " gdp ", "interest rate", "bitcoin", "crypto", "invest",
		"profit", "revenue", "debt", "salary", "wage", "unemployment",
	},
	model.DomainPolitical: {
		"president", "election", "government", "congress", "senate", "parliament",
		"vote", "voting", "democrat", "republican", "policy", " law ", " laws ",
		"minister", "politic", "campaign", "governor", "immigration", "constitution",
	},
	model.DomainCurrentEvents: {
		"today", "yesterday", "this week", "this year", "breaking", "recently",
		"latest", "news", "announced", "currently", "right now", "2025", "2026",
	},
	model.DomainSports: {
		"football", "soccer", "basketball", "baseball", "tennis", "olympic",
		"world cup", "championship", " team ", " teams ", "player", "league", " nba ",
		" nfl ", "fifa", "athlete", "tournament", "medal", "super bowl", " goal ",
	},
	model.DomainEntertainment: {
		"movie", "film", "actor", "actress", "music", "singer", "album", "song",
		"celebrit", "hollywood", "oscar", "grammy", "netflix", "television", " tv ",
		"concert", "novel", "box office",
	},
}

// DomainClassifier assigns topical domains to a statement by keyword matching
type DomainClassifier struct {
	keywords map[model.Domain][]string
}

// NewDomainClassifier creates a classifier with the built-in keyword lists
func NewDomainClassifier() *DomainClassifier {
	return &DomainClassifier{keywords: defaultDomainKeywords}
}

// NewDomainClassifierWithKeywords creates a classifier with custom keyword lists
func NewDomainClassifierWithKeywords(keywords map[model.Domain][]string) *DomainClassifier {
	return &DomainClassifier{keywords: keywords}
}

// Classify returns every domain with at least one keyword hit, in
// model.AllDomains order. A statement that matches nothing is general.
// Classification is inclusive: multi-domain results are normal.
func (c *DomainClassifier) Classify(statement string) []model.Domain {
	text := wordText(statement)

	var domains []model.Domain
	for _, domain := range model.AllDomains() {
		for _, kw := range c.keywords[domain] {
			if strings.Contains(text, Fold(kw)) {
				domains = append(domains, domain)
				break
			}
		}
	}

	if len(domains) == 0 {
		return []model.Domain{model.DomainGeneral}
	}
	return domains
}
