// Package music defines the catalog side of the concert pipeline: the tracks
// and artists read from a music-catalog service and the deterministic steps
// that turn them into a ranked artist list and a genre set. Implementations
// of Catalog wrap a concrete provider such as Spotify; the rest of the
// application stays agnostic about the underlying platform.
package music

import "context"

// ArtistRef identifies an artist credited on a track. ID may be empty for
// local files or catalog entries the provider could not resolve.
type ArtistRef struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

// Track is a playlist entry reduced to the credited artists, in credit order.
type Track struct {
	Artists []ArtistRef `json:"artists"`
}

// Artist is a catalog artist together with its genre tags.
type Artist struct {
	ArtistRef
	Genres []string `json:"genres"`
}

// Page is one page of playlist tracks. Next is an opaque cursor for the
// following page and is empty once the playlist is exhausted.
type Page struct {
	Tracks []Track
	Next   string
}

// Catalog exposes the catalog operations the pipeline consumes.
type Catalog interface {
	// PlaylistPage returns the page of tracks addressed by cursor. An empty
	// cursor requests the first page.
	PlaylistPage(ctx context.Context, playlistID, cursor string) (Page, error)

	// Artists looks up the given artist IDs in a single logical call.
	// Implementations split the request when the provider limits batch size.
	Artists(ctx context.Context, ids []string) ([]Artist, error)
}
