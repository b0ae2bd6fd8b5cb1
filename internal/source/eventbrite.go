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

// Eventbrite card extraction chains. Eventbrite ships markup changes without
// notice; older class-based selectors stay in the chain behind the current
// data-testid ones.
var (
	eventbriteCardChain = []strategy{
		{"testid-card", `[data-testid="search-result-card"]`},
		{"search-card-class", ".search-event-card"},
		{"generic-card-class", ".event-card"},
	}
	eventbriteTitleChain = []strategy{
		{"heading-h3", "h3"},
		{"heading-h2", "h2"},
		{"title-class", ".event-card__title"},
		{"testid-title", `[data-testid="event-title"]`},
	}
	eventbriteLinkChain = []strategy{
		{"event-link", `a[href*="/e/"]`},
	}
	eventbriteLocationChain = []strategy{
		{"location-class", ".location"},
		{"card-location-class", ".event-card__location"},
		{"testid-location", `[data-testid="event-location"]`},
	}
	eventbriteDateChain = []strategy{
		{"date-class", ".date"},
		{"card-date-class", ".event-card__date"},
		{"testid-date", `[data-testid="event-date"]`},
	}
	eventbritePriceChain = []strategy{
		{"price-class", ".price"},
		{"card-price-class", ".event-card__price"},
		{"testid-price", `[data-testid="event-price"]`},
	}
	eventbriteImageChain = []strategy{
		{"card-image", "img"},
	}
)

// Eventbrite scrapes the Eventbrite family/kids activity search.
type Eventbrite struct {
	fetcher *pageFetcher
	baseURL string
	logger  *slog.Logger
}

// NewEventbrite creates the Eventbrite adapter.
func NewEventbrite(userAgent string, timeout time.Duration, logger *slog.Logger) *Eventbrite {
	return &Eventbrite{
		fetcher: newPageFetcher(userAgent, timeout),
		baseURL: "https://www.eventbrite.com",
		logger:  logger,
	}
}

func (e *Eventbrite) Name() string { return "eventbrite" }

// Scrape fetches the first page of kids-activity search results for the
// location and extracts one RawActivity per usable card.
func (e *Eventbrite) Scrape(ctx context.Context, location, category string) ([]domain.RawActivity, error) {
	searchURL := fmt.Sprintf("%s/d/%s/family--education--kids-activities/?page=1",
		e.baseURL, url.PathEscape(location))

	doc, err := e.fetcher.fetchDocument(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("eventbrite: %w", err)
	}

	base, err := url.Parse(e.baseURL)
	if err != nil {
		return nil, fmt.Errorf("eventbrite: parse base url: %w", err)
	}

	cards, cardStrategy := firstCards(doc, eventbriteCardChain)
	if cards == nil {
		e.logger.Info("eventbrite: no card selector matched", "url", searchURL)
		return nil, nil
	}
	e.logger.Debug("eventbrite: cards found", "count", cards.Length(), "strategy", cardStrategy)

	var activities []domain.RawActivity
	cards.Each(func(_ int, card *goquery.Selection) {
		title := firstText(card, eventbriteTitleChain)
		link := firstAttr(card, "href", eventbriteLinkChain)
		if !title.found() || !link.found() {
			// A card missing its title or detail URL is unusable; its
			// siblings are unaffected.
			e.logger.Debug("eventbrite: skipping incomplete card",
				"has_title", title.found(), "has_link", link.found())
			return
		}

		externalURL := absoluteURL(link.value, base)
		if externalURL == "" {
			e.logger.Debug("eventbrite: skipping card with unparseable link", "href", link.value)
			return
		}

		cardLocation := firstText(card, eventbriteLocationChain).value
		if cardLocation == "" {
			cardLocation = location
		}

		activities = append(activities, domain.RawActivity{
			Title:        title.value,
			LocationText: cardLocation,
			DateText:     firstText(card, eventbriteDateChain).value,
			PriceText:    firstText(card, eventbritePriceChain).value,
			Category:     category,
			Organizer:    "Eventbrite",
			ExternalURL:  externalURL,
			ImageURL:     firstAttr(card, "src", eventbriteImageChain).value,
			Tags:         []string{"kids", "family"},
		})
	})

	return activities, nil
}
