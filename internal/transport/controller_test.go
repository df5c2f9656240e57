package transport

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"vibebeat/internal/catalog"
	"vibebeat/internal/player"
	"vibebeat/internal/queue"
	"vibebeat/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records every command it receives.
type fakeBackend struct {
	calls    []string
	loadErr  error
	position int
	duration int
	volume   int
}

func (f *fakeBackend) Load(ref string) error {
	f.calls = append(f.calls, "load:"+ref)
	return f.loadErr
}

func (f *fakeBackend) Play() error {
	f.calls = append(f.calls, "play")
	return nil
}

func (f *fakeBackend) Pause() error {
	f.calls = append(f.calls, "pause")
	return nil
}

func (f *fakeBackend) SetPosition(ms int) error {
	f.calls = append(f.calls, fmt.Sprintf("setPosition:%d", ms))
	f.position = ms
	return nil
}

func (f *fakeBackend) SetVolume(v int) error {
	f.calls = append(f.calls, fmt.Sprintf("setVolume:%d", v))
	f.volume = v
	return nil
}

func (f *fakeBackend) Position() int { return f.position }
func (f *fakeBackend) Duration() int { return f.duration }
func (f *fakeBackend) Volume() int   { return f.volume }
func (f *fakeBackend) Close() error  { return nil }

func (f *fakeBackend) reset() { f.calls = nil }

type fixture struct {
	ctrl    *Controller
	catalog *catalog.Catalog
	liked   *catalog.LikedSet
	queue   *queue.Queue
	states  *player.StateManager
	backend *fakeBackend
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func newFixture(t *testing.T, withBackend bool, opts Options) *fixture {
	t.Helper()

	c := catalog.New()
	c.Upsert(models.Song{ID: 1, Title: "Night Vibes", Artist: "Chill Beats", AudioRef: "night.mp3"})
	c.Upsert(models.Song{ID: 2, Title: "Pop Energy", Artist: "Pop Mix", AudioRef: "pop.mp3"})
	c.Upsert(models.Song{ID: 3, Title: "Rock Classics", Artist: "Rock Legends", AudioRef: "rock.mp3"})

	f := &fixture{
		catalog: c,
		liked:   catalog.NewLikedSet(),
		queue:   queue.New(),
		states:  player.NewStateManager(),
	}
	deps := Deps{
		Catalog: f.catalog,
		Liked:   f.liked,
		Queue:   f.queue,
		States:  f.states,
		Logger:  quietLogger(),
	}
	if withBackend {
		f.backend = &fakeBackend{}
		deps.Backend = f.backend
	}
	f.ctrl = NewController(deps, opts)
	return f
}

func (f *fixture) queueIDs() []int {
	ids := []int{}
	for _, s := range f.queue.Songs() {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestDefaults(t *testing.T) {
	f := newFixture(t, true, Options{})

	assert.Equal(t, State{Volume: 70}, f.ctrl.State())
	assert.Equal(t, Idle, f.ctrl.Playback())
	assert.Equal(t, -1, f.queue.Cursor())

	custom := newFixture(t, true, Options{Volume: 35})
	assert.Equal(t, 35, custom.ctrl.State().Volume)
}

func TestSelectAndPlay(t *testing.T) {
	t.Run("StartsSong", func(t *testing.T) {
		f := newFixture(t, true, Options{})
		f.ctrl.SelectAndPlay(2)

		assert.Equal(t, []string{"load:pop.mp3", "play"}, f.backend.calls)
		assert.Equal(t, LoadedPlaying, f.ctrl.Playback())
		assert.True(t, f.ctrl.State().IsPlaying)
		assert.Equal(t, []int{2}, f.queueIDs())
		assert.Equal(t, 0, f.queue.Cursor())

		snap := f.states.GetState()
		require.NotNil(t, snap.Song)
		assert.Equal(t, "Pop Energy", snap.Song.Title)
		assert.Equal(t, "playing", snap.Playback)
		assert.Empty(t, snap.Notice)
	})

	t.Run("ResetsPosition", func(t *testing.T) {
		f := newFixture(t, true, Options{})
		f.ctrl.SelectAndPlay(1)
		f.ctrl.OnDurationChanged(200_000)
		f.ctrl.OnPositionChanged(50_000)

		f.ctrl.SelectAndPlay(2)
		assert.Equal(t, 0, f.ctrl.State().PositionMs)
		assert.Equal(t, 0, f.ctrl.State().DurationMs)
		assert.Equal(t, 0, f.ctrl.SliderValue())
	})

	t.Run("UnknownIDLeavesEverythingUnchanged", func(t *testing.T) {
		f := newFixture(t, true, Options{})
		f.ctrl.SelectAndPlay(1)
		f.ctrl.ToggleLike()
		f.backend.reset()

		stateBefore := f.ctrl.State()
		queueBefore := f.queueIDs()
		likedBefore := f.liked.IDs()

		f.ctrl.SelectAndPlay(999)

		assert.Equal(t, stateBefore, f.ctrl.State())
		assert.Equal(t, queueBefore, f.queueIDs())
		assert.Equal(t, likedBefore, f.liked.IDs())
		assert.Empty(t, f.backend.calls)
	})

	t.Run("LoadFailureLeavesSongPaused", func(t *testing.T) {
		f := newFixture(t, true, Options{})
		f.backend.loadErr = errors.New("unreadable file")
		f.ctrl.SelectAndPlay(1)

		assert.Equal(t, LoadedPaused, f.ctrl.Playback())
		assert.False(t, f.ctrl.State().IsPlaying)
		assert.Equal(t, []int{1}, f.queueIDs())
		assert.Equal(t, NoticePlaybackFailed.String(), f.states.GetState().Notice)
	})
}

func TestPlayWithin(t *testing.T) {
	t.Run("SingleSourceCollapses", func(t *testing.T) {
		f := newFixture(t, true, Options{})
		f.ctrl.PlayWithin([]int{1, 2, 3}, 2)

		assert.Equal(t, []int{2}, f.queueIDs())
		assert.Equal(t, 0, f.queue.Cursor())
	})

	t.Run("ListSourceQueuesList", func(t *testing.T) {
		f := newFixture(t, true, Options{Source: queue.List})
		f.ctrl.PlayWithin([]int{3, 99, 1, 2}, 1)

		assert.Equal(t, []int{3, 1, 2}, f.queueIDs())
		assert.Equal(t, 1, f.queue.Cursor())
		assert.Equal(t, []string{"load:night.mp3", "play"}, f.backend.calls)

		f.ctrl.Skip(queue.Next)
		current, _ := f.queue.Current()
		assert.Equal(t, 2, current.ID)
	})

	t.Run("ListSourceSongMissingFromList", func(t *testing.T) {
		f := newFixture(t, true, Options{Source: queue.List})
		f.ctrl.PlayWithin([]int{2, 3}, 1)

		assert.Equal(t, []int{1}, f.queueIDs())
	})
}

func TestTogglePlayPause(t *testing.T) {
	t.Run("IdleIsNoop", func(t *testing.T) {
		f := newFixture(t, true, Options{})
		f.ctrl.TogglePlayPause()

		assert.Equal(t, Idle, f.ctrl.Playback())
		assert.Empty(t, f.backend.calls)
	})

	t.Run("PauseAndResume", func(t *testing.T) {
		f := newFixture(t, true, Options{})
		f.ctrl.SelectAndPlay(1)
		f.backend.reset()

		f.ctrl.TogglePlayPause()
		assert.Equal(t, LoadedPaused, f.ctrl.Playback())
		assert.False(t, f.ctrl.State().IsPlaying)

		f.ctrl.TogglePlayPause()
		assert.Equal(t, LoadedPlaying, f.ctrl.Playback())
		assert.Equal(t, []string{"pause", "play"}, f.backend.calls)
	})

	t.Run("NoBackendOnlyNotifies", func(t *testing.T) {
		f := newFixture(t, false, Options{})
		f.ctrl.SelectAndPlay(1)
		before := f.ctrl.State()

		f.ctrl.TogglePlayPause()

		assert.Equal(t, before, f.ctrl.State())
		assert.Equal(t, LoadedPlaying, f.ctrl.Playback())
		assert.Equal(t, NoticePlaybackUnavailable.String(), f.states.GetState().Notice)
	})
}

func TestNoBackend(t *testing.T) {
	f := newFixture(t, false, Options{})
	ch := f.states.Subscribe()
	defer f.states.Unsubscribe(ch)

	f.ctrl.SelectAndPlay(1)
	snap := <-ch
	assert.Equal(t, NoticePlaybackUnavailable.String(), snap.Notice)
	assert.Equal(t, LoadedPlaying, f.ctrl.Playback())
	assert.Equal(t, []int{1}, f.queueIDs())

	// the advisory is raised every time, and never blocks other state
	f.ctrl.SelectAndPlay(2)
	assert.Equal(t, NoticePlaybackUnavailable.String(), (<-ch).Notice)

	f.ctrl.ToggleLike()
	assert.Empty(t, (<-ch).Notice)
	assert.True(t, f.liked.Has(2))

	f.ctrl.SetVolume(30)
	assert.Equal(t, NoticePlaybackUnavailable.String(), (<-ch).Notice)
	assert.Equal(t, 30, f.ctrl.State().Volume)

	f.ctrl.OnDurationChanged(1000)
	<-ch
	before := f.ctrl.State()
	f.ctrl.SeekTo(0.5)
	assert.Equal(t, before, f.ctrl.State())
}

func TestSkip(t *testing.T) {
	t.Run("NextAtEndIsNoop", func(t *testing.T) {
		f := newFixture(t, true, Options{})
		f.ctrl.SelectAndPlay(1)
		f.ctrl.OnDurationChanged(180_000)
		f.ctrl.OnPositionChanged(12_000)
		f.backend.reset()

		stateBefore := f.ctrl.State()
		f.ctrl.Skip(queue.Next)

		assert.Equal(t, stateBefore, f.ctrl.State())
		assert.Equal(t, []int{1}, f.queueIDs())
		assert.Equal(t, 0, f.queue.Cursor())
		assert.Empty(t, f.backend.calls)
	})

	t.Run("NoWrapAround", func(t *testing.T) {
		f := newFixture(t, true, Options{Source: queue.List})
		f.ctrl.PlayWithin([]int{1, 2, 3}, 3)
		f.backend.reset()

		f.ctrl.Skip(queue.Next)
		assert.Equal(t, 2, f.queue.Cursor())
		assert.Empty(t, f.backend.calls)

		f.ctrl.Skip(queue.Previous)
		assert.Equal(t, 1, f.queue.Cursor())
		assert.Equal(t, []string{"load:pop.mp3", "play"}, f.backend.calls)
	})
}

func TestToggles(t *testing.T) {
	f := newFixture(t, true, Options{})

	f.ctrl.ToggleShuffle()
	f.ctrl.ToggleRepeat()
	assert.True(t, f.ctrl.State().IsShuffled)
	assert.True(t, f.ctrl.State().IsRepeated)
	assert.Empty(t, f.backend.calls)

	f.ctrl.ToggleShuffle()
	f.ctrl.ToggleRepeat()
	assert.False(t, f.ctrl.State().IsShuffled)
	assert.False(t, f.ctrl.State().IsRepeated)
}

func TestToggleLike(t *testing.T) {
	t.Run("NothingSelected", func(t *testing.T) {
		f := newFixture(t, true, Options{})
		f.ctrl.ToggleLike()
		assert.Equal(t, 0, f.liked.Len())
	})

	t.Run("TwiceRestoresMembership", func(t *testing.T) {
		for _, id := range []int{1, 2, 3} {
			f := newFixture(t, true, Options{})
			f.ctrl.SelectAndPlay(id)
			before := f.liked.Has(id)

			f.ctrl.ToggleLike()
			assert.NotEqual(t, before, f.liked.Has(id))
			assert.Equal(t, f.liked.Has(id), f.states.GetState().IsLiked)

			f.ctrl.ToggleLike()
			assert.Equal(t, before, f.liked.Has(id))
			assert.Equal(t, before, f.ctrl.IsLiked())
		}
	})

	t.Run("IndicatorFollowsSelection", func(t *testing.T) {
		f := newFixture(t, true, Options{})
		f.ctrl.SelectAndPlay(1)
		f.ctrl.ToggleLike()
		assert.True(t, f.states.GetState().IsLiked)

		f.ctrl.SelectAndPlay(2)
		assert.False(t, f.states.GetState().IsLiked)

		f.ctrl.SelectAndPlay(1)
		assert.True(t, f.states.GetState().IsLiked)
	})
}

func TestSetVolume(t *testing.T) {
	tests := []struct {
		in    int
		want  int
		tier  VolumeTier
		muted bool
	}{
		{150, 100, TierNormal, false},
		{-5, 0, TierMuted, true},
		{0, 0, TierMuted, true},
		{1, 1, TierLow, false},
		{49, 49, TierLow, false},
		{50, 50, TierNormal, false},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprint(tc.in), func(t *testing.T) {
			f := newFixture(t, true, Options{})
			f.ctrl.SetVolume(tc.in)

			assert.Equal(t, tc.want, f.ctrl.State().Volume)
			assert.Equal(t, tc.muted, f.ctrl.State().IsMuted)
			assert.Equal(t, tc.want, f.backend.volume)
			assert.Equal(t, tc.tier.String(), f.states.GetState().VolumeTier)
		})
	}
}

func TestToggleMute(t *testing.T) {
	t.Run("Scenario", func(t *testing.T) {
		f := newFixture(t, true, Options{})
		require.Equal(t, 70, f.ctrl.State().Volume)

		f.ctrl.ToggleMute()
		assert.Equal(t, 0, f.ctrl.State().Volume)
		assert.Equal(t, 70, f.ctrl.State().MutedVolumeMemo)
		assert.True(t, f.ctrl.State().IsMuted)

		f.ctrl.ToggleMute()
		assert.Equal(t, 70, f.ctrl.State().Volume)
		assert.False(t, f.ctrl.State().IsMuted)
		assert.Equal(t, []string{"setVolume:0", "setVolume:70"}, f.backend.calls)
	})

	t.Run("TwiceRestoresAnyVolume", func(t *testing.T) {
		for v := 0; v <= 100; v++ {
			f := newFixture(t, true, Options{})
			f.ctrl.SetVolume(v)

			f.ctrl.ToggleMute()
			f.ctrl.ToggleMute()
			assert.Equal(t, v, f.ctrl.State().Volume, "starting volume %d", v)
		}
	})

	t.Run("UnmuteWithoutMemoUsesDefault", func(t *testing.T) {
		f := newFixture(t, true, Options{})
		f.ctrl.SetVolume(0)
		f.ctrl.ToggleMute()
		assert.Equal(t, DefaultVolume, f.ctrl.State().Volume)
	})
}

func TestPositionAndSeeking(t *testing.T) {
	f := newFixture(t, true, Options{})
	f.ctrl.SelectAndPlay(1)
	f.ctrl.OnDurationChanged(200_000)

	f.ctrl.OnPositionChanged(50_000)
	assert.Equal(t, 250, f.ctrl.SliderValue())
	snap := f.states.GetState()
	assert.Equal(t, "0:50", snap.ElapsedLabel)
	assert.Equal(t, "3:20", snap.TotalLabel)

	f.ctrl.BeginSeek()
	f.ctrl.OnPositionChanged(100_000)
	assert.Equal(t, 250, f.ctrl.SliderValue(), "slider must not move while seeking")
	assert.Equal(t, "1:40", f.states.GetState().ElapsedLabel, "label always follows")

	f.backend.reset()
	f.ctrl.SeekSlider(750)
	f.ctrl.EndSeek()
	assert.Equal(t, []string{"setPosition:150000"}, f.backend.calls)
	assert.Equal(t, 150_000, f.ctrl.State().PositionMs)

	f.ctrl.OnPositionChanged(160_000)
	assert.Equal(t, 800, f.ctrl.SliderValue())
}

func TestSeekWithoutDuration(t *testing.T) {
	f := newFixture(t, true, Options{})
	f.ctrl.SelectAndPlay(1)
	f.backend.reset()

	f.ctrl.SeekTo(0.5)
	assert.Empty(t, f.backend.calls)
}

func TestPlayStateEvents(t *testing.T) {
	f := newFixture(t, true, Options{})

	f.ctrl.Handle(Event{Kind: PlayStateChanged, Playing: true})
	assert.Equal(t, Idle, f.ctrl.Playback(), "events before any selection are ignored")

	f.ctrl.SelectAndPlay(1)
	f.ctrl.Handle(Event{Kind: PlayStateChanged, Playing: false})
	assert.Equal(t, LoadedPaused, f.ctrl.Playback())
	f.ctrl.Handle(Event{Kind: PlayStateChanged, Playing: true})
	assert.Equal(t, LoadedPlaying, f.ctrl.Playback())

	f.ctrl.Handle(Event{Kind: DurationChanged, Value: 4000})
	f.ctrl.Handle(Event{Kind: PositionChanged, Value: 1000})
	assert.Equal(t, 4000, f.ctrl.State().DurationMs)
	assert.Equal(t, 250, f.ctrl.SliderValue())
}

// Reaching the end of a track never advances the queue on its own; only an
// explicit Skip does.
func TestMediaEndedDoesNotAutoAdvance(t *testing.T) {
	f := newFixture(t, true, Options{Source: queue.List})
	f.ctrl.PlayWithin([]int{1, 2, 3}, 1)
	require.True(t, f.queue.HasNext())
	f.backend.reset()

	f.ctrl.Handle(Event{Kind: MediaStatusChanged, Status: StatusEndOfMedia})

	assert.Equal(t, 0, f.queue.Cursor())
	assert.Equal(t, []int{1, 2, 3}, f.queueIDs())
	assert.Empty(t, f.backend.calls)
}

func TestMediaEndedWithRepeat(t *testing.T) {
	f := newFixture(t, true, Options{})
	f.ctrl.SelectAndPlay(2)
	f.ctrl.ToggleRepeat()
	f.ctrl.OnDurationChanged(3000)
	f.ctrl.OnPositionChanged(3000)
	f.ctrl.OnPlayStateChanged(false)
	f.backend.reset()

	f.ctrl.OnMediaEnded()

	assert.Equal(t, []string{"setPosition:0", "play"}, f.backend.calls)
	assert.Equal(t, 0, f.queue.Cursor())
	assert.Equal(t, 0, f.ctrl.State().PositionMs)
	assert.Equal(t, LoadedPlaying, f.ctrl.Playback())
}

func TestSelectionScenario(t *testing.T) {
	f := newFixture(t, true, Options{})

	f.ctrl.SelectAndPlay(1)
	assert.Equal(t, []int{1}, f.queueIDs())
	assert.Equal(t, 0, f.queue.Cursor())
	assert.Equal(t, LoadedPlaying, f.ctrl.Playback())

	f.ctrl.ToggleLike()
	assert.Equal(t, []int{1}, f.liked.IDs())

	f.ctrl.SelectAndPlay(2)
	assert.Equal(t, []int{2}, f.queueIDs(), "queue collapses to the chosen song")
	assert.Equal(t, 0, f.queue.Cursor())
	assert.Equal(t, []int{1}, f.liked.IDs())

	f.backend.reset()
	stateBefore := f.ctrl.State()
	f.ctrl.Skip(queue.Previous)
	assert.Equal(t, stateBefore, f.ctrl.State())
	assert.Equal(t, 0, f.queue.Cursor())
	assert.Empty(t, f.backend.calls)
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, TierMuted, TierFor(0))
	assert.Equal(t, TierLow, TierFor(1))
	assert.Equal(t, TierLow, TierFor(49))
	assert.Equal(t, TierNormal, TierFor(50))
	assert.Equal(t, TierNormal, TierFor(100))
}

// sequencedBackend numbers its loads like the audio backend does.
type sequencedBackend struct {
	fakeBackend
	generation uint64
}

func (s *sequencedBackend) Load(ref string) error {
	s.generation++
	return s.fakeBackend.Load(ref)
}

func (s *sequencedBackend) Current(ev Event) bool { return ev.Generation == s.generation }

func TestStaleEndOfTrackIsIgnoredAfterNewSelection(t *testing.T) {
	backend := &sequencedBackend{}
	ctrl := NewController(Deps{
		Catalog: newFixture(t, false, Options{}).catalog,
		Liked:   catalog.NewLikedSet(),
		Queue:   queue.New(),
		States:  player.NewStateManager(),
		Backend: backend,
		Logger:  quietLogger(),
	}, Options{})

	ctrl.SelectAndPlay(1)
	ctrl.ToggleRepeat()
	oldGen := backend.generation
	ctrl.SelectAndPlay(2)
	backend.reset()

	ctrl.Handle(Event{Kind: PlayStateChanged, Playing: false, Generation: oldGen})
	ctrl.Handle(Event{Kind: MediaStatusChanged, Status: StatusEndOfMedia, Generation: oldGen})

	assert.Equal(t, LoadedPlaying, ctrl.Playback())
	assert.Empty(t, backend.calls, "stale end of track must not restart the new song")

	ctrl.Handle(Event{Kind: PlayStateChanged, Playing: false, Generation: backend.generation})
	assert.Equal(t, LoadedPaused, ctrl.Playback())
}
