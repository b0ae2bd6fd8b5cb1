package geocode

import "github.com/wandero/activity-ingest-service/internal/domain"

// DefaultCityTable returns the built-in city coordinate table. The public
// geocoding service has unreliable availability under load, and most
// locations in this domain resolve to a small set of cities, so well-known
// ones are answered without a network call.
//
// Keys are lowercase; lookups are case-insensitive. The table is constructed
// per call and injected into the Resolver rather than shared as a global, so
// tests can substitute their own.
func DefaultCityTable() map[string]domain.Coordinates {
	return map[string]domain.Coordinates{
		"lisbon":     {Lat: 38.7223, Lng: -9.1393},
		"lisboa":     {Lat: 38.7223, Lng: -9.1393},
		"leeds":      {Lat: 53.8008, Lng: -1.5491},
		"london":     {Lat: 51.5074, Lng: -0.1278},
		"manchester": {Lat: 53.4808, Lng: -2.2426},
		"birmingham": {Lat: 52.4862, Lng: -1.8904},
		"glasgow":    {Lat: 55.8642, Lng: -4.2518},
		"edinburgh":  {Lat: 55.9533, Lng: -3.1883},
		"cardiff":    {Lat: 51.4816, Lng: -3.1791},
		"bristol":    {Lat: 51.4545, Lng: -2.5879},
		"liverpool":  {Lat: 53.4084, Lng: -2.9916},
		"newcastle":  {Lat: 54.9783, Lng: -1.6178},
		"york":       {Lat: 53.9600, Lng: -1.0873},
		"paris":      {Lat: 48.8566, Lng: 2.3522},
		"madrid":     {Lat: 40.4168, Lng: -3.7038},
		"barcelona":  {Lat: 41.3851, Lng: 2.1734},
		"rome":       {Lat: 41.9028, Lng: 12.4964},
		"milan":      {Lat: 45.4642, Lng: 9.1900},
		"berlin":     {Lat: 52.5200, Lng: 13.4050},
		"amsterdam":  {Lat: 52.3676, Lng: 4.9041},
		"brussels":   {Lat: 50.8503, Lng: 4.3517},
	}
}
