package playlist

import (
	"errors"
	"strings"
	"time"

	"vibebeat/pkg/models"
)

// ErrEmptyName is returned when a playlist name is blank after trimming.
var ErrEmptyName = errors.New("playlist name is empty")

// Store holds user-created playlists in creation order.
type Store struct {
	playlists []models.Playlist
	index     map[int64]int
	lastID    int64
	now       func() time.Time
}

// NewStore creates an empty playlist store using the wall clock for ids.
func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock creates an empty playlist store with a custom clock
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		index: make(map[int64]int),
		now:   now,
	}
}

// Create adds a playlist named name (trimmed). Ids are the creation time in
// Unix milliseconds, bumped when needed so they strictly increase.
func (s *Store) Create(name string) (models.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Playlist{}, ErrEmptyName
	}

	created := s.now()
	id := created.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	p := models.Playlist{
		ID:        id,
		Name:      name,
		SongIDs:   []int{},
		CreatedAt: created,
	}
	s.index[id] = len(s.playlists)
	s.playlists = append(s.playlists, p)
	return p, nil
}

// Get returns the playlist with the given id
func (s *Store) Get(id int64) (models.Playlist, bool) {
	i, ok := s.index[id]
	if !ok {
		return models.Playlist{}, false
	}
	return s.playlists[i], true
}

// List returns every playlist, oldest first.
func (s *Store) List() []models.Playlist {
	out := make([]models.Playlist, len(s.playlists))
	copy(out, s.playlists)
	return out
}

// Len returns the number of playlists
func (s *Store) Len() int {
	return len(s.playlists)
}
