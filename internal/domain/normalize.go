package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when a source leaves a field empty.
const (
	DefaultAgeGroup = "all-ages"
	DefaultCategory = "general"
)

// priceRe matches the first contiguous numeric token in a price string,
// e.g. "From £12.50" -> "12.50", "Free" -> no match.
var priceRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// dateLayouts are tried in order when parsing scraped date text. Listing
// sites render dates in a handful of human formats; anything that fails all
// layouts falls back to the current instant.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"Mon, Jan 2, 3:04 PM",
	"Mon, Jan 2 2006",
	"Monday, January 2, 2006 3:04 PM",
	"Monday, January 2, 2006",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
	"02/01/2006",
}

// Normalize maps a raw listing plus resolved coordinates into a canonical
// record. Pure aside from the injected clock: no I/O, deterministic given
// its inputs. A nil coords leaves the record unmapped rather than dropping it.
func Normalize(raw RawActivity, coords *Coordinates, source string) CanonicalActivity {
	now := clock.Now().UTC()

	act := CanonicalActivity{
		Title:       raw.Title,
		Description: defaultString(raw.Description, raw.Title),
		Location:    raw.LocationText,
		DateTime:    ParseDateText(raw.DateText),
		Price:       ParsePriceText(raw.PriceText),
		AgeGroup:    defaultString(raw.AgeGroup, DefaultAgeGroup),
		Category:    defaultString(raw.Category, DefaultCategory),
		Organizer:   defaultString(raw.Organizer, source),
		ExternalURL: raw.ExternalURL,
		ImageURL:    raw.ImageURL,
		Tags:        raw.Tags,
		Source:      source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if coords != nil {
		lat, lng := coords.Lat, coords.Lng
		act.Latitude = &lat
		act.Longitude = &lng
	}

	return act
}

// ParsePriceText extracts the first numeric token from scraped price text.
// Returns nil when no number is present ("Free", "Sold out", ""). Currency
// symbols are ignored; no conversion is attempted.
func ParsePriceText(text string) *float64 {
	match := priceRe.FindString(text)
	if match == "" {
		return nil
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseDateText attempts each known layout against the scraped date text.
// Layouts without a year get the current year. Unparseable text yields the
// current instant, a deliberate imprecision so listings are never dropped
// over a bad date.
func ParseDateText(text string) time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return clock.Now().UTC()
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, text)
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			now := clock.Now().UTC()
			t = time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
		}
		return t.UTC()
	}

	return clock.Now().UTC()
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
