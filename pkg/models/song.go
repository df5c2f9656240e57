package models

import "time"

// Song represents a track in the catalog. Songs are immutable once created;
// whether a song is liked is tracked by the session's liked set, not here.
type Song struct {
	ID            int    `json:"id" toml:"id"`
	Title         string `json:"title" toml:"title"`
	Artist        string `json:"artist" toml:"artist"`
	Album         string `json:"album" toml:"album"`
	ImageRef      string `json:"imageRef,omitempty" toml:"image"`
	AudioRef      string `json:"-" toml:"audio"` // locator handed to the media backend
	DurationLabel string `json:"duration" toml:"duration"`
	Genre         string `json:"genre,omitempty" toml:"genre"`
	Year          int    `json:"year" toml:"year"`
}

// Playlist represents a user-created playlist
type Playlist struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SongIDs     []int     `json:"songIds"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SongCount returns the number of song references held by the playlist,
// dangling ones included.
func (p Playlist) SongCount() int {
	return len(p.SongIDs)
}

// ItemKind tags the payload carried by a LibraryItem.
type ItemKind int

const (
	ItemSong ItemKind = iota
	ItemArtist
	ItemAlbum
	ItemPlaylist
)

func (k ItemKind) String() string {
	switch k {
	case ItemSong:
		return "song"
	case ItemArtist:
		return "artist"
	case ItemAlbum:
		return "album"
	case ItemPlaylist:
		return "playlist"
	default:
		return "unknown"
	}
}

// LibraryItem is one entry of a library view. Song is set for ItemSong;
// Name is the group label for artist, album and playlist groups, and
// SongCount is only meaningful for playlist groups.
type LibraryItem struct {
	Kind       ItemKind `json:"kind"`
	Song       *Song    `json:"song,omitempty"`
	Name       string   `json:"name,omitempty"`
	PlaylistID int64    `json:"playlistId,omitempty"`
	SongCount  int      `json:"songCount,omitempty"`
}

// Label returns the display text for the item.
func (i LibraryItem) Label() string {
	if i.Kind == ItemSong && i.Song != nil {
		return i.Song.Title
	}
	return i.Name
}
