package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vibebeat/internal/config"
	"vibebeat/internal/player"
	"vibebeat/internal/query"
	"vibebeat/internal/queue"
	"vibebeat/internal/session"
	"vibebeat/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSongs(t *testing.T) {
	var buf bytes.Buffer
	renderSongs(&buf, config.DemoSongs()[:2])

	out := buf.String()
	assert.Contains(t, out, "Night Vibes")
	assert.Contains(t, out, "Pop Energy")
	assert.Contains(t, out, "3:45")
	assert.NotContains(t, out, "Rock Classics")
}

func TestRenderLibrary(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		var buf bytes.Buffer
		renderLibrary(&buf, nil)
		assert.Equal(t, "Your library is empty\n", buf.String())
	})

	t.Run("Mixed", func(t *testing.T) {
		song := config.DemoSongs()[0]
		items := []models.LibraryItem{
			{Kind: models.ItemSong, Song: &song},
			{Kind: models.ItemArtist, Name: "Rock Legends"},
			{Kind: models.ItemPlaylist, Name: "Road Trip", SongCount: 1},
		}

		var buf bytes.Buffer
		renderLibrary(&buf, items)

		out := buf.String()
		assert.Contains(t, out, "Night Vibes")
		assert.Contains(t, out, "Chill Beats")
		assert.Contains(t, out, "Rock Legends")
		assert.Contains(t, out, "1 song")
	})
}

func TestRenderHome(t *testing.T) {
	songs := config.DemoSongs()
	var buf bytes.Buffer
	renderHome(&buf, "Ada", query.HomeSections{
		Recent:     songs,
		MadeForYou: songs[:1],
		Trending:   songs[1:2],
	})

	out := buf.String()
	assert.Contains(t, out, "Welcome back, Ada")
	for _, title := range []string{"Recently played", "Made for you", "Trending now"} {
		assert.Contains(t, out, title)
	}
}

func TestProgressLine(t *testing.T) {
	song := config.DemoSongs()[2]
	line := progressLine(&player.State{
		Song:         &song,
		Volume:       0,
		IsMuted:      true,
		IsRepeated:   true,
		ElapsedLabel: "1:05",
		TotalLabel:   "4:12",
	})
	assert.Equal(t, "Rock Classics - Rock Legends  1:05 / 4:12  vol 0 [repeat] [muted]", line)

	assert.True(t, strings.HasPrefix(progressLine(&player.State{}), "Nothing playing"))
}

func TestFollowPlayback(t *testing.T) {
	playing := &player.State{Playback: "playing"}
	paused := &player.State{Playback: "paused"}

	t.Run("StopsWhenTrackEnds", func(t *testing.T) {
		updates := make(chan *player.State, 4)
		updates <- playing
		updates <- paused

		var buf bytes.Buffer
		require.NoError(t, followPlayback(context.Background(), updates, false, &buf))
	})

	t.Run("RepeatKeepsGoing", func(t *testing.T) {
		updates := make(chan *player.State, 4)
		updates <- playing
		updates <- paused
		updates <- playing

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		var buf bytes.Buffer
		require.NoError(t, followPlayback(ctx, updates, true, &buf))
		assert.Equal(t, 3, strings.Count(buf.String(), "\r"), "every snapshot should be drawn")
	})

	t.Run("Failure", func(t *testing.T) {
		updates := make(chan *player.State, 1)
		updates <- &player.State{Playback: "paused", Notice: "Playback failed"}

		var buf bytes.Buffer
		assert.ErrorIs(t, followPlayback(context.Background(), updates, false, &buf), errPlaybackFailed)
	})

	t.Run("ClosedChannel", func(t *testing.T) {
		updates := make(chan *player.State)
		close(updates)
		assert.NoError(t, followPlayback(context.Background(), updates, false, &bytes.Buffer{}))
	})
}

// listSession runs a session without audio whose lists become the queue.
func listSession(t *testing.T) *session.Session {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Player.QueueSource = string(queue.List)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s := session.New(cfg, nil, logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		s.Close()
	})
	return s
}

func TestPlayDir(t *testing.T) {
	t.Run("QueuesWholeDirectory", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"two.mp3", "one.mp3", "readme.txt"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("not audio"), 0644))
		}
		s := listSession(t)

		var buf bytes.Buffer
		require.NoError(t, playDir(s, dir, &buf))
		assert.Contains(t, buf.String(), "Added 2 songs")

		snap := s.States().GetState()
		require.NotNil(t, snap.Song)
		assert.Equal(t, "one", snap.Song.Title)
		assert.Equal(t, 2, snap.QueueLength)
		assert.True(t, snap.HasNext)
	})

	t.Run("NothingToPlay", func(t *testing.T) {
		s := listSession(t)
		err := playDir(s, t.TempDir(), &bytes.Buffer{})
		assert.ErrorContains(t, err, "no supported audio files")
	})
}

func TestReadCommands(t *testing.T) {
	s := listSession(t)
	require.NoError(t, s.PlayWithin([]int{1, 2, 3}, 1))

	quit := make(chan struct{})
	readCommands(strings.NewReader("n\nbogus\nn\np\nq\nn\n"), s, func() { close(quit) })

	select {
	case <-quit:
	default:
		t.Fatal("q should stop playback")
	}

	snap := s.States().GetState()
	require.NotNil(t, snap.Song)
	assert.Equal(t, 2, snap.Song.ID, "commands after q must be ignored")
	assert.Equal(t, 3, snap.QueueLength)
}
