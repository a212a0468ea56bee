package ticketmaster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"Concert-Scout-Go/pkg/concert"
)

type attractionsResponse struct {
	Embedded struct {
		Attractions []struct {
			ID              string              `json:"id"`
			Name            string              `json:"name"`
			Classifications []rawClassification `json:"classifications"`
		} `json:"attractions"`
	} `json:"_embedded"`
}

// FindAttraction returns the most relevant attraction for name. The first hit
// is taken as is; concert.ErrNotFound is returned when there is none.
func (c *Client) FindAttraction(ctx context.Context, name string) (concert.Attraction, error) {
	params := url.Values{
		"keyword": {name},
		"sort":    {concert.SortRelevance},
	}
	body, err := c.get(ctx, "/attractions.json", params)
	if err != nil {
		return concert.Attraction{}, err
	}
	var resp attractionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return concert.Attraction{}, fmt.Errorf("%s attractions: %w: %v", serviceName, concert.ErrSourceUnavailable, err)
	}
	for _, a := range resp.Embedded.Attractions {
		if a.ID == "" {
			continue
		}
		return concert.Attraction{ID: a.ID, Name: a.Name, Genre: eventGenre(a.Classifications)}, nil
	}
	return concert.Attraction{}, fmt.Errorf("attraction %q: %w", name, concert.ErrNotFound)
}
