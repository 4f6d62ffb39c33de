package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/corroborate/internal/model"
)

// interrogatives are leading words that mark an input as a question.
// Inputs led by was/were/has/have count as questions only with a trailing '?'.
var interrogatives = map[string]bool{
	"who": true, "what": true, "where": true, "when": true, "why": true, "how": true,
	"is": true, "are": true,
	"do": true, "does": true, "did": true,
	"can": true, "could": true, "will": true, "would": true, "should": true,
	"may": true, "might": true,
}

// determiners start a noun phrase; used to find subject/predicate boundaries
var determiners = map[string]bool{
	"the": true, "a": true, "an": true, "this": true, "that": true, "these": true,
	"those": true, "my": true, "your": true, "his": true, "her": true, "its": true,
	"our": true, "their": true, "some": true, "any": true, "every": true, "each": true,
	"all": true, "no": true,
}

// rewriteRule turns one interrogative pattern into a declarative statement
type rewriteRule struct {
	name    string
	pattern *regexp.Regexp
	rewrite func(m []string) (statement string, implicit []string, ok bool)
}

// Normalizer rewrites questions into declarative, checkable statements
type Normalizer struct {
	rules []rewriteRule
}

// NewNormalizer creates a normalizer with the built-in rewrite rules.
// Rules are tried in order; the first one that produces a statement wins.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		rules: []rewriteRule{
			{"who-is", regexp.MustCompile(`(?i)^who\s+(is|are|was|were)\s+(.+)$`), rewriteWhoIs},
			{"who", regexp.MustCompile(`(?i)^who\s+(\S+)\s+(.+)$`), rewriteWho},
			{"what-is", regexp.MustCompile(`(?i)^what\s+(is|are|was|were)\s+(.+)$`), rewriteWhatIs},
			{"when", regexp.MustCompile(`(?i)^when\s+(is|are|was|were|do|does|did|will|can)\s+(.+)$`), rewriteWhen},
			{"where", regexp.MustCompile(`(?i)^where\s+(is|are|was|were|do|does|did|can)\s+(.+)$`), rewriteWhere},
			{"why", regexp.MustCompile(`(?i)^why\s+(is|are|was|were|do|does|did|can|will|would|should|has|have)\s+(.+)$`), rewriteWhy},
			{"how-many", regexp.MustCompile(`(?i)^how\s+(?:many|much)\s+(.+)$`), rewriteHowMany},
			{"how", regexp.MustCompile(`(?i)^how\s+(is|are|was|were|do|does|did|can|could)\s+(.+)$`), rewriteHow},
			{"do-support", regexp.MustCompile(`(?i)^(do|does|did)\s+(.+)$`), rewriteDo},
			{"modal", regexp.MustCompile(`(?i)^(can|could|will|would|should|may|might|has|have)\s+(.+)$`), rewriteModal},
			{"copula", regexp.MustCompile(`(?i)^(is|are|was|were)\s+(.+)$`), rewriteCopula},
		},
	}
}

// Normalize converts raw input into a Claim. It never fails: unmatched
// questions fall back to a generic verifiable statement.
func (n *Normalizer) Normalize(input string) model.Claim {
	cleaned := collapseSpace(input)
	if !IsQuestion(cleaned) {
		return model.Claim{
			RawInput:            input,
			NormalizedStatement: input,
		}
	}

	body := strings.TrimSpace(strings.TrimRight(cleaned, "?!. "))
	for _, rule := range n.rules {
		m := rule.pattern.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		statement, implicit, ok := rule.rewrite(m)
		if !ok {
			continue
		}
		return model.Claim{
			RawInput:            input,
			NormalizedStatement: sentence(statement),
			WasQuestion:         true,
			ImplicitClaims:      sentences(implicit),
			Rule:                rule.name,
		}
	}

	return model.Claim{
		RawInput:            input,
		NormalizedStatement: fmt.Sprintf("The answer to '%s' is factually verifiable.", body),
		WasQuestion:         true,
		ImplicitClaims:      []string{fmt.Sprintf("A definitive answer to '%s' exists.", body)},
		Rule:                "fallback",
	}
}

// IsQuestion reports whether text is phrased as a question: a trailing '?'
// or a leading interrogative word, whatever the final punctuation.
func IsQuestion(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if strings.HasSuffix(text, "?") {
		return true
	}
	first := strings.ToLower(strings.Trim(strings.Fields(text)[0], ",;:"))
	return interrogatives[first]
}

func rewriteWhoIs(m []string) (string, []string, bool) {
	verb, subject := strings.ToLower(m[1]), m[2]
	role := "a specific person"
	if verb == "are" || verb == "were" {
		role = "specific people"
	}
	return fmt.Sprintf("%s %s %s", subject, verb, role),
		[]string{subject + " exists", subject + " can be identified by name"}, true
}

func rewriteWho(m []string) (string, []string, bool) {
	verb, rest := m[1], m[2]
	return fmt.Sprintf("A specific, identifiable person %s %s", verb, rest),
		[]string{fmt.Sprintf("Someone %s %s", verb, rest)}, true
}

func rewriteWhatIs(m []string) (string, []string, bool) {
	verb, subject := strings.ToLower(m[1]), m[2]
	thing := "a specific thing"
	if verb == "are" || verb == "were" {
		thing = "specific things"
	}
	return fmt.Sprintf("%s %s %s", subject, verb, thing),
		[]string{subject + " exists", subject + " has a definable meaning"}, true
}

func rewriteWhen(m []string) (string, []string, bool) {
	event, ok := invert(m[1], m[2])
	if !ok {
		return "", nil, false
	}
	return event + " at a specific, documented time", []string{event}, true
}

func rewriteWhere(m []string) (string, []string, bool) {
	aux := strings.ToLower(m[1])
	if isCopula(aux) {
		subject := m[2]
		// "where is X located" keeps X only
		if words := strings.Fields(subject); len(words) > 1 && strings.EqualFold(words[len(words)-1], "located") {
			subject = strings.Join(words[:len(words)-1], " ")
		}
		return fmt.Sprintf("%s %s located in a specific, identifiable place", subject, aux),
			[]string{subject + " exists"}, true
	}
	event, ok := invert(aux, m[2])
	if !ok {
		return "", nil, false
	}
	return event + " in a specific, identifiable place", []string{event}, true
}

func rewriteWhy(m []string) (string, []string, bool) {
	event, ok := invert(m[1], m[2])
	if !ok {
		return "", nil, false
	}
	return "There is an established reason why " + lowerFirstArticle(event), []string{event}, true
}

var countAux = regexp.MustCompile(`(?i)^(.+?)\s+(do|does|did)\s+(.+)$`)

func rewriteHowMany(m []string) (string, []string, bool) {
	rest := m[1]
	// "how many moons does Jupiter have" -> "Jupiter has a specific, measurable number of moons"
	if cm := countAux.FindStringSubmatch(rest); cm != nil {
		subject, predicate := splitSubject(cm[3])
		if subject != "" && predicate != "" {
			owner := doSupport(strings.ToLower(cm[2]), subject, predicate)
			return fmt.Sprintf("%s a specific, measurable number of %s", owner, cm[1]),
				[]string{fmt.Sprintf("A definitive count of %s exists", cm[1])}, true
		}
	}

	words := strings.Fields(rest)
	noun := words[0]
	phrase := noun
	if len(words) > 1 {
		phrase = noun + " that " + strings.Join(words[1:], " ")
	}
	return fmt.Sprintf("The number of %s is a specific, measurable quantity", phrase),
		[]string{fmt.Sprintf("A definitive count of %s exists", noun)}, true
}

func rewriteHow(m []string) (string, []string, bool) {
	event, ok := invert(m[1], m[2])
	if !ok {
		return "", nil, false
	}
	return event + " through a documented process", []string{event}, true
}

func rewriteDo(m []string) (string, []string, bool) {
	aux := strings.ToLower(m[1])
	subject, predicate := splitSubject(m[2])
	if subject == "" || predicate == "" {
		return "", nil, false
	}
	return doSupport(aux, subject, predicate), []string{subject + " exists"}, true
}

func rewriteModal(m []string) (string, []string, bool) {
	aux := strings.ToLower(m[1])
	subject, predicate := splitSubject(m[2])
	if subject == "" || predicate == "" {
		return "", nil, false
	}
	return fmt.Sprintf("%s %s %s", subject, aux, predicate), []string{subject + " exists"}, true
}

func rewriteCopula(m []string) (string, []string, bool) {
	aux := strings.ToLower(m[1])
	subject, predicate := splitCopula(m[2])
	if subject == "" || predicate == "" {
		return "", nil, false
	}
	return fmt.Sprintf("%s %s %s", subject, aux, predicate),
		[]string{
			subject + " exists",
			fmt.Sprintf("Whether %s %s %s can be determined from evidence", lowerFirstArticle(subject), aux, predicate),
		}, true
}

// invert rebuilds "aux subject predicate" into declarative word order.
// A bare copula with no predicate ("when is Easter") keeps the subject alone.
func invert(aux, rest string) (string, bool) {
	aux = strings.ToLower(aux)
	subject, predicate := splitSubject(rest)
	if subject == "" {
		return "", false
	}
	switch {
	case aux == "do" || aux == "does" || aux == "did":
		if predicate == "" {
			return "", false
		}
		return doSupport(aux, subject, predicate), true
	case predicate == "":
		return subject + " " + aux, true
	default:
		return subject + " " + aux + " " + predicate, true
	}
}

// doSupport drops the auxiliary "do" and inflects the main verb.
// "did" is kept to avoid guessing irregular past tenses.
func doSupport(aux, subject, predicate string) string {
	switch aux {
	case "does":
		words := strings.Fields(predicate)
		words[0] = thirdPerson(words[0])
		return subject + " " + strings.Join(words, " ")
	case "did":
		return subject + " did " + predicate
	default:
		return subject + " " + predicate
	}
}

// splitSubject splits "the Eiffel Tower lean to the south" into the subject
// noun phrase and the remaining predicate. The subject is an optional
// determiner, one word, and any following capitalized words.
func splitSubject(rest string) (string, string) {
	words := strings.Fields(rest)
	if len(words) == 0 {
		return "", ""
	}
	i := 0
	if determiners[strings.ToLower(words[0])] && len(words) > 1 {
		i++
	}
	i++ // head word
	for i < len(words) && startsUpper(words[i]) {
		i++
	}
	if i > len(words) {
		i = len(words)
	}
	return strings.Join(words[:i], " "), strings.Join(words[i:], " ")
}

// splitCopula splits "the Earth flat" into subject and complement: before the
// first non-initial determiner, otherwise before the last word.
func splitCopula(rest string) (string, string) {
	words := strings.Fields(rest)
	if len(words) < 2 {
		return "", ""
	}
	for i := 1; i < len(words); i++ {
		if determiners[strings.ToLower(words[i])] {
			return strings.Join(words[:i], " "), strings.Join(words[i:], " ")
		}
	}
	last := len(words) - 1
	return strings.Join(words[:last], " "), words[last]
}

func thirdPerson(verb string) string {
	lower := strings.ToLower(verb)
	switch {
	case lower == "have":
		return "has"
	case lower == "be":
		return "is"
	case strings.HasSuffix(lower, "s"), strings.HasSuffix(lower, "sh"),
		strings.HasSuffix(lower, "ch"), strings.HasSuffix(lower, "x"),
		strings.HasSuffix(lower, "z"), strings.HasSuffix(lower, "o"):
		return verb + "es"
	case len(lower) > 1 && strings.HasSuffix(lower, "y") && !strings.ContainsRune("aeiou", rune(lower[len(lower)-2])):
		return verb[:len(verb)-1] + "ies"
	default:
		return verb + "s"
	}
}

func isCopula(aux string) bool {
	return aux == "is" || aux == "are" || aux == "was" || aux == "were"
}

func startsUpper(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.IsUpper(r)
}

// lowerFirstArticle lower-cases a leading determiner so it reads mid-sentence
func lowerFirstArticle(s string) string {
	words := strings.SplitN(s, " ", 2)
	if determiners[strings.ToLower(words[0])] {
		words[0] = strings.ToLower(words[0])
	}
	return strings.Join(words, " ")
}

// sentence capitalizes the first letter and ensures a terminating period
func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	s = string(unicode.ToUpper(r)) + s[size:]
	if !strings.HasSuffix(s, ".") {
		s += "."
	}
	return s
}

func sentences(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = sentence(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
