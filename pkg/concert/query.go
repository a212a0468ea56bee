package concert

// Mode selects how a query identifies the events it wants.
type Mode int

const (
	// ByArtistID searches by the vendor's attraction identifier.
	ByArtistID Mode = iota + 1
	// ByKeyword searches by free-text artist name when resolution missed.
	ByKeyword
	// ByGenre searches by vendor classification without naming an artist.
	ByGenre
)

func (m Mode) String() string {
	switch m {
	case ByArtistID:
		return "artist_id"
	case ByKeyword:
		return "keyword"
	case ByGenre:
		return "genre"
	}
	return "unknown"
}

// Fixed search parameters shared by every mode.
const (
	RadiusMiles  = 100
	SegmentMusic = "Music"
)

// Sort orders. Name-based searches rank by relevance; exploratory searches
// surface the nearest, soonest events first.
const (
	SortRelevance    = "relevance,desc"
	SortDistanceDate = "distance,date,asc"
)

// Query is a vendor-neutral event search. Optional fields left at their zero
// value are omitted when the query is encoded.
type Query struct {
	Mode           Mode
	Coordinates    Coordinates
	RadiusMiles    int
	Segment        string
	DateWindow     *DateWindow
	AttractionID   string
	Keyword        string
	Classification string
	// Size is the number of raw candidates requested from the vendor.
	Size int
}

// Sort returns the vendor sort order for the query mode.
func (q Query) Sort() string {
	if q.Mode == ByGenre {
		return SortDistanceDate
	}
	return SortRelevance
}

func baseQuery(mode Mode, loc Coordinates, window *DateWindow, size int) Query {
	return Query{
		Mode:        mode,
		Coordinates: loc,
		RadiusMiles: RadiusMiles,
		Segment:     SegmentMusic,
		DateWindow:  window,
		Size:        size,
	}
}

// ArtistQuery builds a query for a named artist. When the artist resolved to
// an attraction the query is ByArtistID; otherwise it falls back to a
// ByKeyword search on the name.
func ArtistQuery(loc Coordinates, window *DateWindow, name string, attraction *Attraction, size int) Query {
	if attraction != nil && attraction.ID != "" {
		q := baseQuery(ByArtistID, loc, window, size)
		q.AttractionID = attraction.ID
		return q
	}
	q := baseQuery(ByKeyword, loc, window, size)
	q.Keyword = name
	return q
}

// GenreQuery builds an exploratory query for a vendor classification.
func GenreQuery(loc Coordinates, window *DateWindow, classification string, size int) Query {
	q := baseQuery(ByGenre, loc, window, size)
	q.Classification = classification
	return q
}
