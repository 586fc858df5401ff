// Package content cleans supplier copy before it reaches the storefront.
package content

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	whitespace   = regexp.MustCompile(`\s+`)
	noisyPunct   = regexp.MustCompile(`[!?*#~]{2,}|[★☆✓✔🔥]+`)
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// smallWords stay lower-case inside a title.
var smallWords = map[string]bool{
	"a": true, "an": true, "and": true, "for": true, "in": true,
	"of": true, "on": true, "or": true, "the": true, "to": true, "with": true,
}

// Sanitize strips unsafe tags and attributes, keeping basic formatting.
func Sanitize(html string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(html))
}

// PlainText renders HTML into collapsed plain text.
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return cleanText(strictPolicy.Sanitize(html))
	}
	return cleanText(doc.Text())
}

// EnhanceName turns a noisy supplier title into a storefront product name. Only
// lower-case words are title-cased, so acronyms and brands ("USB", "iPhone") keep
// their casing; a title written entirely in capitals is treated as lower-case.
func EnhanceName(title string) string {
	title = noisyPunct.ReplaceAllString(PlainText(title), " ")
	title = cleanText(title)
	if title == "" {
		return ""
	}
	if !hasLower(title) {
		title = strings.ToLower(title)
	}

	// Casers are stateful, so one per call.
	caser := cases.Title(language.English)
	words := strings.Fields(title)
	for i, w := range words {
		if w != strings.ToLower(w) {
			continue
		}
		if i > 0 && smallWords[w] {
			continue
		}
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}

func hasLower(s string) bool {
	for _, r := range s {
		if unicode.IsLower(r) {
			return true
		}
	}
	return false
}

// Truncate cuts s to at most max runes on a word boundary.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	cut := string(runes[:max])
	if idx := strings.LastIndex(cut, " "); idx > max/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "…"
}

func cleanText(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
