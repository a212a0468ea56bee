// Package spotify adapts the official Spotify client library to the catalog
// collaborators of the concert pipeline. It authenticates with the client
// credentials flow and exposes playlist pages, artist genres and related
// artist discovery.
//
// The wrapped library does not accept a context, so cancellation is checked
// explicitly before each call.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zmb3/spotify"
	"golang.org/x/oauth2/clientcredentials"

	"Concert-Scout-Go/pkg/concert"
	"Concert-Scout-Go/pkg/metrics"
	"Concert-Scout-Go/pkg/music"
)

const (
	serviceName = "spotify"
	// pageSize is the largest page the playlist tracks endpoint returns.
	pageSize = 100
	// artistBatch is the most IDs the several-artists endpoint accepts.
	artistBatch = 50
)

// searcher defines the subset of the spotify.Client used by this package.
// It allows the concrete client to be replaced in tests.
type searcher interface {
	Search(query string, t spotify.SearchType) (*spotify.SearchResult, error)
	GetPlaylistTracksOpt(playlistID spotify.ID, opt *spotify.Options, fields string) (*spotify.PlaylistTrackPage, error)
	GetArtists(ids ...spotify.ID) ([]*spotify.FullArtist, error)
	GetRelatedArtists(id spotify.ID) ([]spotify.FullArtist, error)
}

// SpotifyClient wraps the official Spotify client.
type SpotifyClient struct {
	client searcher
}

// Compile-time check that SpotifyClient satisfies music.Catalog.
var _ music.Catalog = (*SpotifyClient)(nil)

// NewSpotifyClient authenticates using the client credentials flow and returns
// a SpotifyClient ready for API calls. clientID and clientSecret are obtained
// from the Spotify developer dashboard. A first token is fetched with ctx so
// bad credentials fail here; later tokens are refreshed on demand.
func NewSpotifyClient(ctx context.Context, clientID, clientSecret string) (*SpotifyClient, error) {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotify.TokenURL,
	}
	_, err := config.Token(ctx)
	metrics.RecordExternal(serviceName, err)
	if err != nil {
		return nil, fmt.Errorf("spotify token: %w: %v", concert.ErrSourceUnavailable, err)
	}
	c := spotify.NewClient(config.Client(context.Background()))
	return &SpotifyClient{client: &c}, nil
}

// PlaylistPage implements music.Catalog. The cursor is the offset of the
// requested page; an empty cursor requests the first one.
func (sc *SpotifyClient) PlaylistPage(ctx context.Context, playlistID, cursor string) (music.Page, error) {
	if err := ctx.Err(); err != nil {
		return music.Page{}, err
	}
	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return music.Page{}, fmt.Errorf("invalid playlist cursor %q", cursor)
		}
		offset = n
	}
	limit := pageSize
	page, err := sc.client.GetPlaylistTracksOpt(spotify.ID(playlistID), &spotify.Options{Limit: &limit, Offset: &offset}, "")
	metrics.RecordExternal(serviceName, err)
	if err != nil {
		return music.Page{}, err
	}

	out := music.Page{Tracks: make([]music.Track, 0, len(page.Tracks))}
	for _, pt := range page.Tracks {
		t := music.Track{Artists: make([]music.ArtistRef, 0, len(pt.Track.Artists))}
		for _, a := range pt.Track.Artists {
			t.Artists = append(t.Artists, music.ArtistRef{Name: a.Name, ID: string(a.ID)})
		}
		out.Tracks = append(out.Tracks, t)
	}
	if page.Next != "" && len(page.Tracks) > 0 {
		out.Next = strconv.Itoa(offset + len(page.Tracks))
	}
	return out, nil
}

// Artists implements music.Catalog, splitting ids into batches the API
// accepts. Unknown IDs come back as nil entries and are skipped.
func (sc *SpotifyClient) Artists(ctx context.Context, ids []string) ([]music.Artist, error) {
	var out []music.Artist
	for start := 0; start < len(ids); start += artistBatch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+artistBatch, len(ids))
		batch := make([]spotify.ID, 0, end-start)
		for _, id := range ids[start:end] {
			batch = append(batch, spotify.ID(id))
		}
		artists, err := sc.client.GetArtists(batch...)
		metrics.RecordExternal(serviceName, err)
		if err != nil {
			return nil, err
		}
		for _, a := range artists {
			if a == nil {
				continue
			}
			out = append(out, music.Artist{
				ArtistRef: music.ArtistRef{Name: a.Name, ID: string(a.ID)},
				Genres:    a.Genres,
			})
		}
	}
	return out, nil
}

// errNoArtist is returned when an artist search has no results.
var errNoArtist = errors.New("no artist found")

// RelatedArtists returns the names of artists Spotify lists as related to
// name. The name is first resolved with an artist search, preferring an exact
// case-insensitive match over the top result.
func (sc *SpotifyClient) RelatedArtists(ctx context.Context, name string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := sc.client.Search(name, spotify.SearchTypeArtist)
	metrics.RecordExternal(serviceName, err)
	if err != nil {
		return nil, err
	}
	if res.Artists == nil || len(res.Artists.Artists) == 0 {
		return nil, fmt.Errorf("%s: %w", name, errNoArtist)
	}
	match := res.Artists.Artists[0]
	for _, a := range res.Artists.Artists {
		if strings.EqualFold(a.Name, name) {
			match = a
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	related, err := sc.client.GetRelatedArtists(match.ID)
	metrics.RecordExternal(serviceName, err)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(related))
	for _, a := range related {
		names = append(names, a.Name)
	}
	return names, nil
}
