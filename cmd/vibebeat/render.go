package main

import (
	"fmt"
	"io"
	"strconv"

	"vibebeat/internal/player"
	"vibebeat/internal/query"
	"vibebeat/pkg/models"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderSongs(w io.Writer, songs []models.Song) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Title", "Artist", "Album", "Duration"})
	for _, song := range songs {
		t.AppendRow(table.Row{song.ID, song.Title, song.Artist, song.Album, song.DurationLabel})
	}
	t.Render()
}

func renderLibrary(w io.Writer, items []models.LibraryItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Your library is empty")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Kind", "Name", "Detail"})
	for _, item := range items {
		t.AppendRow(table.Row{text.FgHiBlack.Sprint(item.Kind), item.Label(), itemDetail(item)})
	}
	t.Render()
}

func itemDetail(item models.LibraryItem) string {
	switch item.Kind {
	case models.ItemSong:
		if item.Song != nil {
			return item.Song.Artist
		}
	case models.ItemPlaylist:
		if item.SongCount == 1 {
			return "1 song"
		}
		return strconv.Itoa(item.SongCount) + " songs"
	}
	return ""
}

func renderHome(w io.Writer, user string, home query.HomeSections) {
	fmt.Fprintln(w, text.Bold.Sprintf("Welcome back, %s", user))
	sections := []struct {
		title string
		songs []models.Song
	}{
		{"Recently played", home.Recent},
		{"Made for you", home.MadeForYou},
		{"Trending now", home.Trending},
	}
	for _, section := range sections {
		fmt.Fprintln(w)
		fmt.Fprintln(w, text.FgGreen.Sprint(section.title))
		renderSongs(w, section.songs)
	}
}

// progressLine renders the transport bar for one snapshot.
func progressLine(st *player.State) string {
	title := "Nothing playing"
	if st.Song != nil {
		title = st.Song.Title + " - " + st.Song.Artist
	}

	flags := ""
	if st.IsRepeated {
		flags += " [repeat]"
	}
	if st.IsMuted {
		flags += " [muted]"
	}
	return fmt.Sprintf("%s  %s / %s  vol %d%s", title, st.ElapsedLabel, st.TotalLabel, st.Volume, flags)
}
