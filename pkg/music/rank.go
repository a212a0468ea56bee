package music

import "sort"

// DefaultTopArtists is the number of artists selected when no K is given.
const DefaultTopArtists = 5

// RankedArtist is an artist with the number of track credits it received.
type RankedArtist struct {
	Name  string `json:"name"`
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// TopArtists counts artist credits across tracks and returns the k most
// frequent. Artists are keyed by the (name, id) pair; credits without an ID
// are skipped. Equal counts keep the order in which the artists were first
// encountered. A k below one selects DefaultTopArtists.
func TopArtists(tracks []Track, k int) []RankedArtist {
	if k < 1 {
		k = DefaultTopArtists
	}
	index := make(map[ArtistRef]int)
	var ranked []RankedArtist
	for _, t := range tracks {
		for _, a := range t.Artists {
			if a.ID == "" {
				continue
			}
			if i, ok := index[a]; ok {
				ranked[i].Count++
				continue
			}
			index[a] = len(ranked)
			ranked = append(ranked, RankedArtist{Name: a.Name, ID: a.ID, Count: 1})
		}
	}
	// ranked is in first-encountered order; a stable sort preserves it for ties.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// Names returns the artist names in rank order.
func Names(ranked []RankedArtist) []string {
	names := make([]string, len(ranked))
	for i, a := range ranked {
		names[i] = a.Name
	}
	return names
}

// IDs returns the artist IDs in rank order.
func IDs(ranked []RankedArtist) []string {
	ids := make([]string, len(ranked))
	for i, a := range ranked {
		ids[i] = a.ID
	}
	return ids
}
