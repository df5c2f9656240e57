package query

import (
	"fmt"
	"strings"

	"vibebeat/internal/catalog"
	"vibebeat/internal/playlist"
	"vibebeat/pkg/models"

	"github.com/samber/lo"
)

// Filter is a library filter chip.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterSongs     Filter = "songs"
	FilterArtists   Filter = "artists"
	FilterAlbums    Filter = "albums"
	FilterPlaylists Filter = "playlists"
)

// Filters lists the chips in display order.
var Filters = []Filter{FilterAll, FilterSongs, FilterArtists, FilterAlbums, FilterPlaylists}

// ParseFilter validates a chip name, case-insensitively.
func ParseFilter(s string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(s)))
	if lo.Contains(Filters, f) {
		return f, nil
	}
	return "", fmt.Errorf("invalid library filter: %s", s)
}

// FilterLibrary builds the library view for kind from the current catalog
// and playlist store. The view is rebuilt on every call.
func FilterLibrary(c *catalog.Catalog, playlists *playlist.Store, kind Filter) []models.LibraryItem {
	switch kind {
	case FilterArtists:
		return groups(models.ItemArtist, c.AllArtists())
	case FilterAlbums:
		return groups(models.ItemAlbum, c.AllAlbums())
	case FilterPlaylists:
		return lo.Map(playlists.List(), func(p models.Playlist, _ int) models.LibraryItem {
			return models.LibraryItem{
				Kind:       models.ItemPlaylist,
				Name:       p.Name,
				PlaylistID: p.ID,
				SongCount:  p.SongCount(),
			}
		})
	default:
		return lo.Map(c.Songs(), func(s models.Song, _ int) models.LibraryItem {
			return models.LibraryItem{Kind: models.ItemSong, Song: &s}
		})
	}
}

func groups(kind models.ItemKind, names []string) []models.LibraryItem {
	return lo.Map(names, func(name string, _ int) models.LibraryItem {
		return models.LibraryItem{Kind: kind, Name: name}
	})
}

// Liked returns the liked songs in like order. Ids no longer in the catalog
// are skipped.
func Liked(c *catalog.Catalog, liked *catalog.LikedSet) []models.Song {
	return c.Pick(liked.IDs())
}

// PlaylistSongs returns the songs referenced by p, skipping dangling ids.
func PlaylistSongs(c *catalog.Catalog, p models.Playlist) []models.Song {
	return c.Pick(p.SongIDs)
}
