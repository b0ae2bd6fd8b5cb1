package source

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// strategy is one named candidate selector for a field. Listing-site markup
// is not a stable contract, so every field is extracted through an ordered
// chain of strategies; the first one yielding a non-empty value wins.
type strategy struct {
	name     string
	selector string
}

// fieldMatch is the tagged result of running a strategy chain: the extracted
// value plus the name of the strategy that produced it.
type fieldMatch struct {
	value    string
	strategy string
}

func (m fieldMatch) found() bool { return m.value != "" }

// firstCards runs a card strategy chain against the whole document and
// returns the first selection with at least one match.
func firstCards(doc *goquery.Document, chain []strategy) (*goquery.Selection, string) {
	for _, s := range chain {
		sel := doc.Find(s.selector)
		if sel.Length() > 0 {
			return sel, s.name
		}
	}
	return nil, ""
}

// firstText runs a strategy chain against one card and returns the first
// non-empty trimmed text.
func firstText(card *goquery.Selection, chain []strategy) fieldMatch {
	for _, s := range chain {
		text := strings.TrimSpace(card.Find(s.selector).First().Text())
		if text != "" {
			return fieldMatch{value: text, strategy: s.name}
		}
	}
	return fieldMatch{}
}

// firstAttr runs a strategy chain against one card and returns the first
// non-empty value of attr.
func firstAttr(card *goquery.Selection, attr string, chain []strategy) fieldMatch {
	for _, s := range chain {
		val, ok := card.Find(s.selector).First().Attr(attr)
		val = strings.TrimSpace(val)
		if ok && val != "" {
			return fieldMatch{value: val, strategy: s.name}
		}
	}
	return fieldMatch{}
}

// absoluteURL resolves href against the site base. Detail links on search
// result pages are frequently relative.
func absoluteURL(href string, base *url.URL) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
