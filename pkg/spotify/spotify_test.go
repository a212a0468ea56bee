package spotify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	libspotify "github.com/zmb3/spotify"

	"Concert-Scout-Go/pkg/music"
)

type fakeSearcher struct {
	lastQuery   string
	lastType    libspotify.SearchType
	result      *libspotify.SearchResult
	pages       map[int]*libspotify.PlaylistTrackPage
	offsets     []int
	artistCalls [][]libspotify.ID
	related     map[libspotify.ID][]libspotify.FullArtist
	relatedIDs  []libspotify.ID
	err         error
}

func (f *fakeSearcher) Search(query string, t libspotify.SearchType) (*libspotify.SearchResult, error) {
	f.lastQuery = query
	f.lastType = t
	return f.result, f.err
}

func (f *fakeSearcher) GetPlaylistTracksOpt(id libspotify.ID, opt *libspotify.Options, fields string) (*libspotify.PlaylistTrackPage, error) {
	f.offsets = append(f.offsets, *opt.Offset)
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.pages[*opt.Offset]
	if !ok {
		return nil, fmt.Errorf("no page at %d", *opt.Offset)
	}
	return p, nil
}

func (f *fakeSearcher) GetArtists(ids ...libspotify.ID) ([]*libspotify.FullArtist, error) {
	f.artistCalls = append(f.artistCalls, ids)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*libspotify.FullArtist, len(ids))
	for i, id := range ids {
		if id == "unknown" {
			continue
		}
		out[i] = &libspotify.FullArtist{
			SimpleArtist: libspotify.SimpleArtist{Name: "name-" + string(id), ID: id},
			Genres:       []string{"genre-" + string(id)},
		}
	}
	return out, nil
}

func (f *fakeSearcher) GetRelatedArtists(id libspotify.ID) ([]libspotify.FullArtist, error) {
	f.relatedIDs = append(f.relatedIDs, id)
	return f.related[id], f.err
}

func playlistTrack(artists ...libspotify.SimpleArtist) libspotify.PlaylistTrack {
	return libspotify.PlaylistTrack{Track: libspotify.FullTrack{SimpleTrack: libspotify.SimpleTrack{Artists: artists}}}
}

func TestPlaylistPageCursor(t *testing.T) {
	first := &libspotify.PlaylistTrackPage{Tracks: []libspotify.PlaylistTrack{
		playlistTrack(libspotify.SimpleArtist{Name: "X", ID: "id1"}, libspotify.SimpleArtist{Name: "Y", ID: "id2"}),
		playlistTrack(libspotify.SimpleArtist{Name: "Local"}),
	}}
	first.Next = "https://api.spotify.com/v1/playlists/p/tracks?offset=2"
	last := &libspotify.PlaylistTrackPage{Tracks: []libspotify.PlaylistTrack{
		playlistTrack(libspotify.SimpleArtist{Name: "X", ID: "id1"}),
	}}
	fs := &fakeSearcher{pages: map[int]*libspotify.PlaylistTrackPage{0: first, 2: last}}
	sc := &SpotifyClient{client: fs}

	got, err := sc.PlaylistPage(context.Background(), "p", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := music.Page{
		Tracks: []music.Track{
			{Artists: []music.ArtistRef{{Name: "X", ID: "id1"}, {Name: "Y", ID: "id2"}}},
			{Artists: []music.ArtistRef{{Name: "Local"}}},
		},
		Next: "2",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("first page mismatch (-want +got):\n%s", diff)
	}

	got, err = sc.PlaylistPage(context.Background(), "p", got.Next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Next != "" || len(got.Tracks) != 1 {
		t.Errorf("unexpected last page: %+v", got)
	}
	if diff := cmp.Diff([]int{0, 2}, fs.offsets); diff != "" {
		t.Errorf("offsets mismatch (-want +got):\n%s", diff)
	}
}

func TestPlaylistPageBadCursor(t *testing.T) {
	sc := &SpotifyClient{client: &fakeSearcher{}}
	if _, err := sc.PlaylistPage(context.Background(), "p", "abc"); err == nil {
		t.Fatal("expected error for malformed cursor")
	}
}

func TestPlaylistPageCancelled(t *testing.T) {
	fs := &fakeSearcher{}
	sc := &SpotifyClient{client: fs}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sc.PlaylistPage(ctx, "p", ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(fs.offsets) != 0 {
		t.Errorf("cancelled call reached the API")
	}
}

// TestArtistsBatches verifies IDs are split into batches of 50 and unknown
// IDs are dropped.
func TestArtistsBatches(t *testing.T) {
	ids := make([]string, 0, 51)
	for i := 0; i < 50; i++ {
		ids = append(ids, fmt.Sprintf("a%d", i))
	}
	ids = append(ids, "unknown")
	fs := &fakeSearcher{}
	sc := &SpotifyClient{client: fs}

	got, err := sc.Artists(context.Background(), ids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fs.artistCalls) != 2 || len(fs.artistCalls[0]) != 50 || len(fs.artistCalls[1]) != 1 {
		t.Errorf("unexpected batches: %d calls", len(fs.artistCalls))
	}
	if len(got) != 50 {
		t.Fatalf("expected 50 artists, got %d", len(got))
	}
	if got[0].ID != "a0" || got[0].Genres[0] != "genre-a0" {
		t.Errorf("unexpected first artist %+v", got[0])
	}
}

func TestArtistsError(t *testing.T) {
	sc := &SpotifyClient{client: &fakeSearcher{err: errors.New("boom")}}
	if _, err := sc.Artists(context.Background(), []string{"a"}); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom error, got %v", err)
	}
}

func TestRelatedArtists(t *testing.T) {
	sr := &libspotify.SearchResult{Artists: &libspotify.FullArtistPage{Artists: []libspotify.FullArtist{
		{SimpleArtist: libspotify.SimpleArtist{Name: "X Tribute", ID: "t"}},
		{SimpleArtist: libspotify.SimpleArtist{Name: "x", ID: "id1"}},
	}}}
	fs := &fakeSearcher{
		result: sr,
		related: map[libspotify.ID][]libspotify.FullArtist{
			"id1": {{SimpleArtist: libspotify.SimpleArtist{Name: "R1"}}, {SimpleArtist: libspotify.SimpleArtist{Name: "R2"}}},
		},
	}
	sc := &SpotifyClient{client: fs}

	got, err := sc.RelatedArtists(context.Background(), "X")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"R1", "R2"}, got); diff != "" {
		t.Errorf("related mismatch (-want +got):\n%s", diff)
	}
	if fs.lastQuery != "X" || fs.lastType != libspotify.SearchTypeArtist {
		t.Errorf("Search called with %s %v", fs.lastQuery, fs.lastType)
	}
	if len(fs.relatedIDs) != 1 || fs.relatedIDs[0] != "id1" {
		t.Errorf("exact match not preferred: %v", fs.relatedIDs)
	}
}

func TestRelatedArtistsNotFound(t *testing.T) {
	sc := &SpotifyClient{client: &fakeSearcher{result: &libspotify.SearchResult{}}}
	if _, err := sc.RelatedArtists(context.Background(), "Zzyx"); !errors.Is(err, errNoArtist) {
		t.Fatalf("expected errNoArtist, got %v", err)
	}
}
