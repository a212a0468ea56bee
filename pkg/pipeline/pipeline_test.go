package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"Concert-Scout-Go/pkg/concert"
	"Concert-Scout-Go/pkg/music"
)

type fakeCatalog struct {
	tracks  map[string][]music.Track
	genres  map[string][]string
	pageErr error
	artErr  error
}

func (f *fakeCatalog) PlaylistPage(_ context.Context, id, _ string) (music.Page, error) {
	if f.pageErr != nil {
		return music.Page{}, f.pageErr
	}
	return music.Page{Tracks: f.tracks[id]}, nil
}

func (f *fakeCatalog) Artists(_ context.Context, ids []string) ([]music.Artist, error) {
	if f.artErr != nil {
		return nil, f.artErr
	}
	var out []music.Artist
	for _, id := range ids {
		out = append(out, music.Artist{ArtistRef: music.ArtistRef{ID: id}, Genres: f.genres[id]})
	}
	return out, nil
}

type noAttractions struct{}

func (noAttractions) FindAttraction(context.Context, string) (concert.Attraction, error) {
	return concert.Attraction{}, concert.ErrNotFound
}

type fakeEvents struct {
	mu      sync.Mutex
	results map[string][]concert.Concert
	errs    map[string]error
	keys    []string
}

func (f *fakeEvents) SearchEvents(_ context.Context, q concert.Query) ([]concert.Concert, error) {
	key := "kw:" + q.Keyword
	if q.Mode == concert.ByGenre {
		key = "genre:" + q.Classification
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	return f.results[key], nil
}

func (f *fakeEvents) searched(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range f.keys {
		if k == key {
			return true
		}
	}
	return false
}

type fakeFinder struct {
	related map[string][]string
	err     error
}

func (f fakeFinder) RelatedArtists(_ context.Context, name string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.related[name], nil
}

func shows(prefix string, n int) []concert.Concert {
	out := make([]concert.Concert, n)
	for i := range out {
		out[i] = concert.Concert{Name: prefix, URL: fmt.Sprintf("https://tm/%s-%d", prefix, i)}
	}
	return out
}

func track(refs ...music.ArtistRef) music.Track { return music.Track{Artists: refs} }

var (
	refX = music.ArtistRef{Name: "X", ID: "id1"}
	refY = music.ArtistRef{Name: "Y", ID: "id2"}
	loc  = concert.Coordinates{Lat: "40.7", Lng: "-74.0"}
)

func newOrchestrator(cat music.Catalog, events *fakeEvents, finder RelatedFinder) *Orchestrator {
	return &Orchestrator{
		Catalog: cat,
		Aggregator: &concert.Aggregator{
			Resolver: concert.NewResolver(noAttractions{}, 0, 0, nil),
			Events:   events,
		},
		Related: finder,
	}
}

func statuses(r Report) []string {
	out := make([]string, len(r))
	for i, s := range r {
		out[i] = s.State.String() + "=" + string(s.Status)
	}
	return out
}

func TestRunFromPlaylist(t *testing.T) {
	cat := &fakeCatalog{
		tracks: map[string][]music.Track{"p": {track(refX), track(refX), track(refY)}},
		genres: map[string][]string{"id1": {"indie rock"}, "id2": {"indie pop", "pop"}},
	}
	events := &fakeEvents{results: map[string][]concert.Concert{
		"kw:X":              shows("x", 2),
		"kw:Y":              shows("y", 1),
		"genre:Alternative": append(shows("x", 1), shows("g", 3)...),
		"kw:R1":             shows("r1", 2),
		"kw:R2":             shows("r2", 2),
	}}
	finder := fakeFinder{related: map[string][]string{"X": {"Y", "R1"}, "Y": {"r1", "R2"}}}
	o := newOrchestrator(cat, events, finder)

	res := o.Run(context.Background(), Input{PlaylistIDs: []string{"p"}, Location: loc})

	if res.RunID == "" {
		t.Error("expected a run id")
	}
	want := []string{"ingest=success", "resolve_related=success", "search_concerts=success", "aggregate=success"}
	if diff := cmp.Diff(want, statuses(res.Report)); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
	if got := len(res.TopArtists); got != 3 {
		t.Errorf("expected 3 top-artist concerts, got %d", got)
	}
	if got := len(res.TopGenre); got != 3 || res.TopGenre[0].URL != "https://tm/g-0" {
		t.Errorf("unexpected genre category %+v", res.TopGenre)
	}
	if got := len(res.RelatedArtists); got != 4 {
		t.Errorf("expected 4 related concerts, got %d", got)
	}
	if events.searched("kw:r1") {
		t.Error("related artists should be de-duplicated case-insensitively")
	}
	if !events.searched("kw:R2") {
		t.Error("expected R2 to be searched")
	}
}

func TestRunOneCategoryFails(t *testing.T) {
	events := &fakeEvents{
		results: map[string][]concert.Concert{"kw:A": shows("a", 2), "kw:R": shows("r", 2)},
		errs:    map[string]error{"genre:Rock": fmt.Errorf("tm: %w", concert.ErrSourceUnavailable)},
	}
	o := newOrchestrator(nil, events, nil)

	res := o.Run(context.Background(), Input{Artists: []string{"A"}, Genre: "rock", Location: loc, RelatedArtists: []string{"R"}})

	if len(res.TopArtists) != 2 || len(res.RelatedArtists) != 2 {
		t.Errorf("other categories should survive: %+v", res.AggregatedOutput)
	}
	if len(res.TopGenre) != 0 {
		t.Errorf("failed category should be empty, got %+v", res.TopGenre)
	}
	if diff := cmp.Diff([]State{StateSearchConcerts}, res.Report.Failed()); diff != "" {
		t.Errorf("failed stages mismatch (-want +got):\n%s", diff)
	}
	if !res.Report[2].Partial {
		t.Error("search stage should be marked partial")
	}
}

func TestRunPlaylistUnavailable(t *testing.T) {
	cat := &fakeCatalog{pageErr: errors.New("401")}
	events := &fakeEvents{results: map[string][]concert.Concert{"kw:A": shows("a", 1)}}
	o := newOrchestrator(cat, events, nil)

	res := o.Run(context.Background(), Input{PlaylistIDs: []string{"p"}, Artists: []string{"A"}, Location: loc})

	if res.Report[0].Status != StatusError {
		t.Errorf("ingest should fail, got %+v", res.Report[0])
	}
	if len(res.Report) != 4 || res.Report[3].State != StateAggregate {
		t.Fatalf("run should reach the last stage: %+v", res.Report)
	}
	if len(res.TopArtists) != 1 {
		t.Errorf("explicit artists should still be searched, got %+v", res.TopArtists)
	}
}

func TestRunGenreLookupPartial(t *testing.T) {
	cat := &fakeCatalog{
		tracks: map[string][]music.Track{"p": {track(refX)}},
		artErr: errors.New("503"),
	}
	events := &fakeEvents{}
	o := newOrchestrator(cat, events, nil)

	res := o.Run(context.Background(), Input{PlaylistIDs: []string{"p"}, Location: loc})

	if res.Report[0].Status != StatusSuccess || !res.Report[0].Partial {
		t.Errorf("ingest should succeed partially, got %+v", res.Report[0])
	}
	for _, k := range events.keys {
		if strings.HasPrefix(k, "genre:") {
			t.Errorf("no genre search expected without genres, got %s", k)
		}
	}
}

func TestRunRelatedFinderFails(t *testing.T) {
	events := &fakeEvents{results: map[string][]concert.Concert{"kw:A": shows("a", 1)}}
	o := newOrchestrator(nil, events, fakeFinder{err: errors.New("down")})

	res := o.Run(context.Background(), Input{Artists: []string{"A"}, Location: loc})

	if res.Report[1].Status != StatusError {
		t.Errorf("resolve_related should fail, got %+v", res.Report[1])
	}
	if len(res.TopArtists) != 1 || len(res.RelatedArtists) != 0 {
		t.Errorf("unexpected output %+v", res.AggregatedOutput)
	}
}

func TestRunCapsRelated(t *testing.T) {
	related := make([]string, 20)
	for i := range related {
		related[i] = fmt.Sprintf("R%d", i)
	}
	events := &fakeEvents{}
	o := newOrchestrator(nil, events, fakeFinder{related: map[string][]string{"A": related}})
	o.MaxRelated = 3

	o.Run(context.Background(), Input{Artists: []string{"A"}, Location: loc})

	if !events.searched("kw:R2") || events.searched("kw:R3") {
		t.Errorf("expected exactly R0..R2 to be searched, got %v", events.keys)
	}
}

func TestRunCancelled(t *testing.T) {
	events := &fakeEvents{results: map[string][]concert.Concert{"kw:A": shows("a", 1)}}
	o := newOrchestrator(nil, events, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := o.Run(ctx, Input{Artists: []string{"A"}, Location: loc})

	if len(res.Report) != 4 {
		t.Fatalf("expected 4 stage reports, got %d", len(res.Report))
	}
	if res.TopArtists == nil || res.TopGenre == nil || res.RelatedArtists == nil {
		t.Error("categories should encode as empty arrays")
	}
}

func TestContextAppendOnly(t *testing.T) {
	pc := NewContext()
	pc.AppendTopArtists("A")
	pc.AppendTopArtists("B")
	got := pc.TopArtists()
	got[0] = "mutated"
	if diff := cmp.Diff([]string{"A", "B"}, pc.TopArtists()); diff != "" {
		t.Errorf("top artists mismatch (-want +got):\n%s", diff)
	}

	if err := pc.SetLocation(loc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pc.SetLocation(concert.Coordinates{Lat: "0", Lng: "0"}); !errors.Is(err, ErrAlreadySet) {
		t.Errorf("expected ErrAlreadySet, got %v", err)
	}
	if pc.Location() != loc {
		t.Errorf("location overwritten: %+v", pc.Location())
	}

	if err := pc.SetDateWindow(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pc.SetDateWindow(&concert.DateWindow{Start: time.Now()}); !errors.Is(err, ErrAlreadySet) {
		t.Errorf("expected ErrAlreadySet, got %v", err)
	}
	if pc.DateWindow() != nil {
		t.Error("date window overwritten")
	}
}

func TestInputValidate(t *testing.T) {
	if err := (Input{}).Validate(); !errors.Is(err, ErrMissingLocation) {
		t.Errorf("expected ErrMissingLocation, got %v", err)
	}
	start := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	bad := Input{Location: loc, DateWindow: &concert.DateWindow{Start: start, End: start.Add(-time.Hour)}}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for inverted window")
	}
	if err := (Input{Location: loc}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStateText(t *testing.T) {
	var s State
	if err := s.UnmarshalText([]byte("search_concerts")); err != nil || s != StateSearchConcerts {
		t.Fatalf("got %v, %v", s, err)
	}
	if err := s.UnmarshalText([]byte("nope")); err == nil {
		t.Error("expected error for unknown state")
	}
}
