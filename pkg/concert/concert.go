// Package concert holds the event-side core of the pipeline: the concert
// record, the three query modes used to search an event vendor, artist
// resolution against the vendor's attraction catalog, and the category
// aggregation that turns per-artist searches into capped, de-duplicated
// result lists.
package concert

import "time"

// Placeholders used when the vendor response omits a field. Venues and times
// are never guessed.
const (
	VenueUnavailable = "Venue information not available"
	CityUnavailable  = "City information not available"
	TimeUnavailable  = "Time information not available"
)

// Coordinates is a geocoded search origin. The values are passed through to
// the vendor verbatim.
type Coordinates struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
}

// IsZero reports whether either coordinate is missing.
func (c Coordinates) IsZero() bool { return c.Lat == "" || c.Lng == "" }

// DateWindow bounds the event start date.
type DateWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Concert is a normalised event listing. URL is unique per event and vendor
// and is the only de-duplication key.
type Concert struct {
	VenueName string `json:"venue_name"`
	CityName  string `json:"city_name"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	Time      string `json:"time,omitempty"`
	URL       string `json:"url"`
	ImageURL  string `json:"image_url,omitempty"`
	Genre     string `json:"genre,omitempty"`
}

// Attraction is a performer in the event vendor's catalog.
type Attraction struct {
	ID    string
	Name  string
	Genre string
}

// Category names one of the three result groupings.
type Category string

const (
	CategoryTopArtists     Category = "top_artists"
	CategoryGenre          Category = "top_genre"
	CategoryRelatedArtists Category = "related_artists"
)

// Categories lists the categories in precedence order.
var Categories = []Category{CategoryTopArtists, CategoryGenre, CategoryRelatedArtists}

// AggregatedOutput is the final grouped result of a pipeline run.
type AggregatedOutput struct {
	TopArtists     []Concert `json:"top_artists"`
	TopGenre       []Concert `json:"top_genre"`
	RelatedArtists []Concert `json:"related_artists"`
}

// Get returns the list for the category.
func (o AggregatedOutput) Get(c Category) []Concert {
	switch c {
	case CategoryTopArtists:
		return o.TopArtists
	case CategoryGenre:
		return o.TopGenre
	case CategoryRelatedArtists:
		return o.RelatedArtists
	}
	return nil
}

// URLSet is a set of concert URLs.
type URLSet map[string]struct{}

// NewURLSet returns a set holding the URLs of the given concert lists.
func NewURLSet(lists ...[]Concert) URLSet {
	s := URLSet{}
	for _, l := range lists {
		for _, c := range l {
			s[c.URL] = struct{}{}
		}
	}
	return s
}

// Has reports whether url is in the set.
func (s URLSet) Has(url string) bool {
	_, ok := s[url]
	return ok
}

func (s URLSet) clone() URLSet {
	c := make(URLSet, len(s))
	for u := range s {
		c[u] = struct{}{}
	}
	return c
}
