package domain

import "time"

// RawActivity is a listing as extracted from a source site, before any
// validation or enrichment. Free-text fields (location, date, price) carry
// whatever the site rendered; semantic parsing happens in Normalize.
type RawActivity struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	LocationText string   `json:"location"`
	DateText     string   `json:"date_text,omitempty"`
	PriceText    string   `json:"price_text,omitempty"`
	AgeGroup     string   `json:"age_group"`
	Category     string   `json:"category"`
	Organizer    string   `json:"organizer"`
	ExternalURL  string   `json:"external_url"`
	ImageURL     string   `json:"image_url,omitempty"`
	Tags         []string `json:"tags"`
}

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CanonicalActivity is the normalized, geocoded record persisted to the store.
// Nil Latitude/Longitude means "unmapped" — a valid state, not an error.
// Nil Price means the source listing carried no parseable price.
type CanonicalActivity struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	DateTime    time.Time  `json:"date_time"`
	Price       *float64   `json:"price"`
	AgeGroup    string     `json:"age_group"`
	Category    string     `json:"category"`
	Organizer   string     `json:"organizer"`
	ExternalURL string     `json:"external_url"`
	ImageURL    string     `json:"image_url,omitempty"`
	Tags        []string   `json:"tags"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	Source      string     `json:"source"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
