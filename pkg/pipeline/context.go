package pipeline

import (
	"errors"
	"sync"

	"Concert-Scout-Go/pkg/concert"
)

// ErrAlreadySet is returned when a write-once field of a Context is written a
// second time.
var ErrAlreadySet = errors.New("already set")

// Context accumulates the contributions of each stage of one pipeline run.
// List-valued fields can only be appended to, so earlier contributions, such
// as the artists of a first playlist, are never overwritten by later ones.
// Scalar fields are write-once. A Context belongs to a single run and is safe
// for concurrent use by that run's stages.
type Context struct {
	mu sync.Mutex

	topArtists     []string
	genres         []string
	relatedArtists []string
	concerts       map[concert.Category][]concert.Concert

	location       *concert.Coordinates
	dateWindow     *concert.DateWindow
	windowSet      bool
	classification *string
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{concerts: make(map[concert.Category][]concert.Concert)}
}

// AppendTopArtists adds artist names to the top-artist list.
func (c *Context) AppendTopArtists(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topArtists = append(c.topArtists, names...)
}

// TopArtists returns a copy of the top-artist list.
func (c *Context) TopArtists() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.topArtists)
}

// AppendGenres adds genre tags.
func (c *Context) AppendGenres(genres ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.genres = append(c.genres, genres...)
}

// Genres returns a copy of the genre list.
func (c *Context) Genres() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.genres)
}

// AppendRelatedArtists adds related-artist names.
func (c *Context) AppendRelatedArtists(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.relatedArtists = append(c.relatedArtists, names...)
}

// RelatedArtists returns a copy of the related-artist list.
func (c *Context) RelatedArtists() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.relatedArtists)
}

// AppendConcerts adds concerts to a category.
func (c *Context) AppendConcerts(cat concert.Category, concerts ...concert.Concert) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.concerts[cat] = append(c.concerts[cat], concerts...)
}

// Concerts returns a copy of the concerts gathered for a category.
func (c *Context) Concerts(cat concert.Category) []concert.Concert {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.concerts[cat])
}

// SetLocation records the search origin.
func (c *Context) SetLocation(loc concert.Coordinates) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.location != nil {
		return ErrAlreadySet
	}
	c.location = &loc
	return nil
}

// Location returns the search origin, or the zero value if unset.
func (c *Context) Location() concert.Coordinates {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.location == nil {
		return concert.Coordinates{}
	}
	return *c.location
}

// SetDateWindow records the optional date window. A nil window still counts
// as a write.
func (c *Context) SetDateWindow(w *concert.DateWindow) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.windowSet {
		return ErrAlreadySet
	}
	c.windowSet = true
	if w != nil {
		cp := *w
		c.dateWindow = &cp
	}
	return nil
}

// DateWindow returns a copy of the date window, or nil.
func (c *Context) DateWindow() *concert.DateWindow {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dateWindow == nil {
		return nil
	}
	cp := *c.dateWindow
	return &cp
}

// SetClassification records the vendor classification used for the genre
// category. An empty classification is recorded too and disables it.
func (c *Context) SetClassification(s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.classification != nil {
		return ErrAlreadySet
	}
	c.classification = &s
	return nil
}

// Classification returns the vendor classification.
func (c *Context) Classification() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.classification == nil {
		return ""
	}
	return *c.classification
}

func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
