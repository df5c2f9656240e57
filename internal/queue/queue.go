package queue

import (
	"fmt"
	"slices"

	"vibebeat/pkg/models"
)

// Direction selects the neighbour Advance moves to.
type Direction int

const (
	Previous Direction = iota
	Next
)

func (d Direction) String() string {
	if d == Previous {
		return "prev"
	}
	return "next"
}

// Source decides what becomes the queue when a song is chosen from a list.
type Source string

const (
	// Single collapses the queue to the chosen song.
	Single Source = "single"
	// List makes the containing list the queue, cursor on the chosen song.
	List Source = "list"
)

// ParseSource validates a queue source name.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case Single, List:
		return Source(s), nil
	default:
		return "", fmt.Errorf("invalid queue source: %s (must be single or list)", s)
	}
}

// Queue is the ordered sequence of songs eligible for prev/next navigation.
// The cursor is -1 exactly when the queue is empty.
type Queue struct {
	songs  []models.Song
	cursor int
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{cursor: -1}
}

// SetSingle replaces the queue with exactly one song.
func (q *Queue) SetSingle(song models.Song) {
	q.songs = []models.Song{song}
	q.cursor = 0
}

// SetList replaces the queue with songs, cursor at index. An out of range
// index leaves the queue untouched and returns false.
func (q *Queue) SetList(songs []models.Song, index int) bool {
	if index < 0 || index >= len(songs) {
		return false
	}
	q.songs = slices.Clone(songs)
	q.cursor = index
	return true
}

// HasPrevious reports whether Advance(Previous) would move.
func (q *Queue) HasPrevious() bool {
	return q.cursor > 0
}

// HasNext reports whether Advance(Next) would move.
func (q *Queue) HasNext() bool {
	return q.cursor < len(q.songs)-1
}

// Advance steps the cursor one position in dir and returns the new current
// song. At either end it does nothing and returns false; it never wraps.
func (q *Queue) Advance(dir Direction) (models.Song, bool) {
	switch {
	case dir == Previous && q.HasPrevious():
		q.cursor--
	case dir == Next && q.HasNext():
		q.cursor++
	default:
		return models.Song{}, false
	}
	return q.songs[q.cursor], true
}

// Current returns the song under the cursor.
func (q *Queue) Current() (models.Song, bool) {
	if q.cursor < 0 {
		return models.Song{}, false
	}
	return q.songs[q.cursor], true
}

// Cursor returns the current index, -1 when empty.
func (q *Queue) Cursor() int {
	return q.cursor
}

// Len returns the number of queued songs.
func (q *Queue) Len() int {
	return len(q.songs)
}

// Songs returns a copy of the queued songs.
func (q *Queue) Songs() []models.Song {
	return slices.Clone(q.songs)
}
