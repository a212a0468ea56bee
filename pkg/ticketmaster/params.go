package ticketmaster

import (
	"net/url"
	"strconv"
	"time"

	"Concert-Scout-Go/pkg/concert"
)

// dateTimeLayout is the UTC timestamp format the Discovery API accepts for
// startDateTime and endDateTime.
const dateTimeLayout = "2006-01-02T15:04:05Z"

// queryParams encodes q as Discovery API event search parameters. Fields
// without a value are left out rather than sent empty.
func queryParams(q concert.Query) url.Values {
	v := url.Values{}
	if !q.Coordinates.IsZero() {
		v.Set("latlong", q.Coordinates.Lat+","+q.Coordinates.Lng)
	}
	if q.RadiusMiles > 0 {
		v.Set("radius", strconv.Itoa(q.RadiusMiles))
		v.Set("unit", "miles")
	}
	if q.Segment != "" {
		v.Set("segmentName", q.Segment)
	}
	if q.AttractionID != "" {
		v.Set("attractionId", q.AttractionID)
	}
	if q.Keyword != "" {
		v.Set("keyword", q.Keyword)
	}
	if q.Classification != "" {
		v.Set("classificationName", q.Classification)
	}
	if w := q.DateWindow; w != nil {
		if !w.Start.IsZero() {
			v.Set("startDateTime", formatTime(w.Start))
		}
		if !w.End.IsZero() {
			v.Set("endDateTime", formatTime(w.End))
		}
	}
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	v.Set("sort", q.Sort())
	return v
}

func formatTime(t time.Time) string {
	return t.UTC().Format(dateTimeLayout)
}
