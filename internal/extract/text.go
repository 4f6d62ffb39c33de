package extract

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
)

// Fold returns the Unicode case-folded form of s for caseless matching.
// A cases.Caser is stateful, so a fresh one is built per call.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// wordText folds s, replaces everything except letters, digits and '%' with
// spaces, and pads the result so every word is preceded and followed by a space
func wordText(s string) string {
	folded := Fold(s)
	var buf strings.Builder
	buf.Grow(len(folded) + 2)
	buf.WriteByte(' ')
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '%' {
			buf.WriteRune(r)
		} else {
			buf.WriteByte(' ')
		}
	}
	buf.WriteByte(' ')
	return collapseSpacePadded(buf.String())
}

func collapseSpacePadded(s string) string {
	return " " + strings.Join(strings.Fields(s), " ") + " "
}

// VisibleText extracts text nodes from an HTML fragment, skipping scripts and styles
func VisibleText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return collapseSpace(buf.String())
}

// stopWords carry no topical content for overlap scoring
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "by": true, "with": true, "and": true, "or": true, "not": true, "it": true,
	"its": true, "this": true, "that": true, "as": true, "from": true, "did": true,
	"do": true, "does": true, "has": true, "have": true, "had": true, "can": true,
	"will": true, "would": true, "should": true, "could": true, "may": true, "might": true,
	"specific": true, "there": true, "than": true, "then": true, "which": true,
}

// ContentWords returns the distinct folded words of s that are not stop words
func ContentWords(s string) []string {
	seen := make(map[string]bool)
	var words []string
	for _, w := range strings.Fields(wordText(s)) {
		if len([]rune(w)) < 2 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	return words
}

// Overlap returns the fraction of want's content words that appear in text
func Overlap(want []string, text string) float64 {
	if len(want) == 0 {
		return 0
	}
	padded := wordText(text)
	hits := 0
	for _, w := range want {
		if strings.Contains(padded, " "+w+" ") {
			hits++
		}
	}
	return float64(hits) / float64(len(want))
}
