package domain

import "context"

// Geocoder resolves a free-text location query into coordinates.
type Geocoder interface {
	// Geocode returns the best-match coordinates for the query.
	// ok is false when the provider had no match; err is reserved for
	// transport or decode failures.
	Geocode(ctx context.Context, query string) (coords Coordinates, ok bool, err error)
}
