package source

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestFirstText_StrategyOrder(t *testing.T) {
	doc := docFrom(t, `<div class="card"><span class="new">New Title</span><span class="old">Old Title</span></div>`)
	card := doc.Find(".card")

	m := firstText(card, []strategy{
		{"missing", ".gone"},
		{"new", ".new"},
		{"old", ".old"},
	})

	require.True(t, m.found())
	assert.Equal(t, "New Title", m.value)
	assert.Equal(t, "new", m.strategy, "first matching strategy is tagged")
}

func TestFirstText_NoMatch(t *testing.T) {
	doc := docFrom(t, `<div class="card"></div>`)
	m := firstText(doc.Find(".card"), []strategy{{"missing", ".gone"}})
	assert.False(t, m.found())
}

func TestFirstAttr(t *testing.T) {
	doc := docFrom(t, `<div class="card"><a href="  /e/abc  ">link</a></div>`)
	m := firstAttr(doc.Find(".card"), "href", []strategy{{"link", "a"}})

	require.True(t, m.found())
	assert.Equal(t, "/e/abc", m.value, "attribute values are trimmed")
}

func TestAbsoluteURL(t *testing.T) {
	base, err := url.Parse("https://www.eventbrite.com")
	require.NoError(t, err)

	assert.Equal(t, "https://www.eventbrite.com/e/abc", absoluteURL("/e/abc", base))
	assert.Equal(t, "https://other.example/e/xyz", absoluteURL("https://other.example/e/xyz", base))
	assert.Empty(t, absoluteURL("://bad", base))
}

func TestRegistry(t *testing.T) {
	logger := discardLogger()
	eb := NewEventbrite("ua", time.Second, logger)
	mu := NewMeetup("ua", time.Second, logger)

	r := NewRegistry(eb, mu)

	assert.Equal(t, []string{"eventbrite", "meetup"}, r.Names())

	got, ok := r.Get("meetup")
	require.True(t, ok)
	assert.Equal(t, "meetup", got.Name())

	_, ok = r.Get("craigslist")
	assert.False(t, ok)
}
