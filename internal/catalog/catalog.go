package catalog

import (
	"sort"

	"vibebeat/pkg/models"

	"github.com/samber/lo"
)

// DefaultIDFloor is the id NextID counts up from while the catalog is empty.
const DefaultIDFloor = 1000

// Catalog is the in-memory song collection keyed by id. It remembers the
// order in which ids were first inserted; that order drives default listings
// and search results. Entries are append-only within a session.
//
// Catalog is not safe for concurrent use; the session serialises access.
type Catalog struct {
	songs map[int]models.Song
	order []int
	maxID int
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		songs: make(map[int]models.Song),
		maxID: DefaultIDFloor,
	}
}

// Get returns the song with the given id.
func (c *Catalog) Get(id int) (models.Song, bool) {
	song, ok := c.songs[id]
	return song, ok
}

// Upsert inserts a song or replaces the existing entry with the same id.
// A replaced song keeps its original position.
func (c *Catalog) Upsert(song models.Song) {
	if _, exists := c.songs[song.ID]; !exists {
		c.order = append(c.order, song.ID)
	}
	c.songs[song.ID] = song

	if len(c.order) == 1 || song.ID > c.maxID {
		c.maxID = song.ID
	}
}

// NextID returns the id to assign to the next new song: one above the
// highest id ever inserted, or DefaultIDFloor+1 for an empty catalog.
func (c *Catalog) NextID() int {
	return c.maxID + 1
}

// Len returns the number of songs.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Songs returns every song in insertion order.
func (c *Catalog) Songs() []models.Song {
	return c.Head(len(c.order))
}

// Head returns up to n songs in insertion order.
func (c *Catalog) Head(n int) []models.Song {
	if n > len(c.order) {
		n = len(c.order)
	}
	if n <= 0 {
		return []models.Song{}
	}
	return lo.Map(c.order[:n], func(id int, _ int) models.Song {
		return c.songs[id]
	})
}

// Pick returns the songs for ids in the given order, skipping unknown ids.
func (c *Catalog) Pick(ids []int) []models.Song {
	return lo.FilterMap(ids, func(id int, _ int) (models.Song, bool) {
		song, ok := c.songs[id]
		return song, ok
	})
}

// AllArtists returns the distinct artist names, sorted.
func (c *Catalog) AllArtists() []string {
	return c.distinct(func(s models.Song) string { return s.Artist })
}

// AllAlbums returns the distinct album names, sorted.
func (c *Catalog) AllAlbums() []string {
	return c.distinct(func(s models.Song) string { return s.Album })
}

func (c *Catalog) distinct(field func(models.Song) string) []string {
	values := lo.Uniq(lo.Map(c.Songs(), func(s models.Song, _ int) string {
		return field(s)
	}))
	sort.Strings(values)
	return values
}
