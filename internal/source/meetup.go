package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wandero/activity-ingest-service/internal/domain"
)

var (
	meetupCardChain = []strategy{
		{"testid-card", `[data-testid="event-card"]`},
		{"listing-class", ".event-listing"},
		{"result-class", ".search-result"},
	}
	meetupTitleChain = []strategy{
		{"heading-h3", "h3"},
		{"heading-h2", "h2"},
		{"title-class", ".event-title"},
	}
	meetupLinkChain = []strategy{
		{"event-link", `a[href*="/events/"]`},
	}
	meetupLocationChain = []strategy{
		{"venue-class", ".venue-name"},
		{"location-class", ".location"},
	}
	meetupDateChain = []strategy{
		{"event-date-class", ".event-date"},
		{"date-class", ".date"},
	}
)

// Meetup scrapes the Meetup keyword search for family events. Most Meetup
// events are free, so a card without price text defaults to zero rather than
// unknown.
type Meetup struct {
	fetcher *pageFetcher
	baseURL string
	logger  *slog.Logger
}

// NewMeetup creates the Meetup adapter.
func NewMeetup(userAgent string, timeout time.Duration, logger *slog.Logger) *Meetup {
	return &Meetup{
		fetcher: newPageFetcher(userAgent, timeout),
		baseURL: "https://www.meetup.com",
		logger:  logger,
	}
}

func (m *Meetup) Name() string { return "meetup" }

// Scrape fetches the Meetup search results for kids/family keywords near the
// location and extracts one RawActivity per usable card.
func (m *Meetup) Scrape(ctx context.Context, location, category string) ([]domain.RawActivity, error) {
	searchURL := fmt.Sprintf("%s/find/?keywords=kids+children+family&location=%s",
		m.baseURL, url.QueryEscape(location))

	doc, err := m.fetcher.fetchDocument(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("meetup: %w", err)
	}

	base, err := url.Parse(m.baseURL)
	if err != nil {
		return nil, fmt.Errorf("meetup: parse base url: %w", err)
	}

	cards, cardStrategy := firstCards(doc, meetupCardChain)
	if cards == nil {
		m.logger.Info("meetup: no card selector matched", "url", searchURL)
		return nil, nil
	}
	m.logger.Debug("meetup: cards found", "count", cards.Length(), "strategy", cardStrategy)

	if category == "" {
		category = "social"
	}

	var activities []domain.RawActivity
	cards.Each(func(_ int, card *goquery.Selection) {
		title := firstText(card, meetupTitleChain)
		link := firstAttr(card, "href", meetupLinkChain)
		if !title.found() || !link.found() {
			m.logger.Debug("meetup: skipping incomplete card",
				"has_title", title.found(), "has_link", link.found())
			return
		}

		externalURL := absoluteURL(link.value, base)
		if externalURL == "" {
			m.logger.Debug("meetup: skipping card with unparseable link", "href", link.value)
			return
		}

		cardLocation := firstText(card, meetupLocationChain).value
		if cardLocation == "" {
			cardLocation = location
		}

		activities = append(activities, domain.RawActivity{
			Title:        title.value,
			LocationText: cardLocation,
			DateText:     firstText(card, meetupDateChain).value,
			PriceText:    "0",
			Category:     category,
			Organizer:    "Meetup",
			ExternalURL:  externalURL,
			Tags:         []string{"kids", "family", "meetup"},
		})
	})

	return activities, nil
}
