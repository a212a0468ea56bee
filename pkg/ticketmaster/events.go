package ticketmaster

import (
	"context"
	"encoding/json"
	"fmt"

	"Concert-Scout-Go/pkg/concert"
)

// Raw Discovery API shapes. Only the fields the pipeline reads are declared;
// anything missing decodes to its zero value.
type (
	eventsResponse struct {
		Embedded struct {
			Events []json.RawMessage `json:"events"`
		} `json:"_embedded"`
	}

	rawEvent struct {
		Name  string `json:"name"`
		URL   string `json:"url"`
		Dates struct {
			Start struct {
				LocalDate string `json:"localDate"`
				LocalTime string `json:"localTime"`
				DateTime  string `json:"dateTime"`
			} `json:"start"`
		} `json:"dates"`
		Images          []rawImage          `json:"images"`
		Classifications []rawClassification `json:"classifications"`
		Embedded        struct {
			Venues []rawVenue `json:"venues"`
		} `json:"_embedded"`
	}

	rawImage struct {
		URL   string `json:"url"`
		Ratio string `json:"ratio"`
		Width int    `json:"width"`
	}

	rawClassification struct {
		Genre struct {
			Name string `json:"name"`
		} `json:"genre"`
	}

	rawVenue struct {
		Name string `json:"name"`
		City struct {
			Name string `json:"name"`
		} `json:"city"`
	}
)

const (
	preferredRatio    = "16_9"
	preferredMinWidth = 1024
	undefinedGenre    = "Undefined"
)

// SearchEvents executes q against the event search endpoint and returns the
// normalised concerts in response order.
func (c *Client) SearchEvents(ctx context.Context, q concert.Query) ([]concert.Concert, error) {
	body, err := c.get(ctx, "/events.json", queryParams(q))
	if err != nil {
		return nil, err
	}
	return c.parseEvents(body)
}

// parseEvents decodes an event search response. Each event is decoded on its
// own so one malformed entry is skipped instead of failing the whole page.
// Events without a URL are dropped: they cannot be linked or de-duplicated.
func (c *Client) parseEvents(body []byte) ([]concert.Concert, error) {
	var resp eventsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%s events: %w: %v", serviceName, concert.ErrSourceUnavailable, err)
	}
	concerts := make([]concert.Concert, 0, len(resp.Embedded.Events))
	for _, raw := range resp.Embedded.Events {
		var ev rawEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.WithError(err).Warn("skipping malformed event")
			continue
		}
		if ev.URL == "" {
			continue
		}
		concerts = append(concerts, toConcert(ev))
	}
	return concerts, nil
}

// toConcert maps a raw event to a Concert, substituting placeholders for
// missing venue, city and time.
func toConcert(ev rawEvent) concert.Concert {
	c := concert.Concert{
		VenueName: concert.VenueUnavailable,
		CityName:  concert.CityUnavailable,
		Name:      ev.Name,
		Date:      ev.Dates.Start.LocalDate,
		Time:      eventTime(ev),
		URL:       ev.URL,
		ImageURL:  selectImage(ev.Images),
		Genre:     eventGenre(ev.Classifications),
	}
	if len(ev.Embedded.Venues) > 0 {
		v := ev.Embedded.Venues[0]
		if v.Name != "" {
			c.VenueName = v.Name
		}
		if v.City.Name != "" {
			c.CityName = v.City.Name
		}
	}
	if c.Date == "" && len(ev.Dates.Start.DateTime) >= len("2006-01-02") {
		c.Date = ev.Dates.Start.DateTime[:len("2006-01-02")]
	}
	return c
}

// eventTime prefers the local start time, then the combined timestamp.
func eventTime(ev rawEvent) string {
	switch {
	case ev.Dates.Start.LocalTime != "":
		return ev.Dates.Start.LocalTime
	case ev.Dates.Start.DateTime != "":
		return ev.Dates.Start.DateTime
	default:
		return concert.TimeUnavailable
	}
}

// selectImage picks the first 16:9 image at least 1024 pixels wide, then the
// first image of any shape, then nothing.
func selectImage(images []rawImage) string {
	for _, img := range images {
		if img.Ratio == preferredRatio && img.Width >= preferredMinWidth && img.URL != "" {
			return img.URL
		}
	}
	if len(images) > 0 {
		return images[0].URL
	}
	return ""
}

func eventGenre(classes []rawClassification) string {
	for _, cl := range classes {
		if name := cl.Genre.Name; name != "" && name != undefinedGenre {
			return name
		}
	}
	return ""
}
