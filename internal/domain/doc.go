// Package domain models family-activity listings scraped from third-party
// event sites.
//
// # Data Source
//
// Listings come from public search-result pages (Eventbrite, Meetup) fetched
// on demand by the ingestion pipeline. The markup of those pages is not a
// stable contract: each source adapter extracts cards using an ordered chain
// of selector strategies and emits a [RawActivity] per card. Fields arrive as
// free text exactly as rendered.
//
// # Normalization Conventions
//
// Price:
//
//	The first contiguous numeric token of the scraped price text, e.g.
//	"From £12.50" → 12.50. "Free", "Sold out", and empty text normalize to
//	nil (unknown). No currency conversion is performed.
//
// Date:
//
//	A fixed list of human layouts is tried in order (RFC 3339, "Jan 2, 2006",
//	"Monday, January 2, 2006 3:04 PM", ...). Text that matches no layout
//	normalizes to the current instant rather than dropping the listing: a
//	listing with an unreadable date is still worth surfacing on the map
//	today.
//
// Defaults:
//
//	age_group → "all-ages", category → "general", organizer → the source
//	name, description → the title. Applied only when the scraped value is
//	empty or whitespace.
//
// # Identity
//
// external_url is the natural identifier: two raw listings with the same URL
// are the same physical event. The store enforces uniqueness with
// ON CONFLICT DO NOTHING, so re-ingesting an unchanged source is idempotent.
// The same physical event listed on two sources keeps two rows — dedup is
// per-source URL, not cross-source identity.
//
// # Coordinates
//
// Latitude/longitude are resolved by the tiered geocode resolver and may be
// nil. Nil means "unmapped": the discover map skips the pin but every other
// consumer still sees the listing.
package domain
