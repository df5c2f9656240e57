package transport

import (
	"slices"

	"vibebeat/internal/catalog"
	"vibebeat/internal/player"
	"vibebeat/internal/query"
	"vibebeat/internal/queue"
	"vibebeat/pkg/models"

	"github.com/sirupsen/logrus"
)

// Deps are the collaborators a Controller drives. Backend may be nil.
type Deps struct {
	Catalog *catalog.Catalog
	Liked   *catalog.LikedSet
	Queue   *queue.Queue
	Backend Backend
	States  *player.StateManager
	Logger  *logrus.Logger
}

// Options tune controller behaviour. A zero Source means queue.Single and a
// zero Volume means DefaultVolume.
type Options struct {
	Source queue.Source
	Volume int
}

// Controller is the playback state machine. It owns the transport state,
// steers the queue and the media backend, and publishes a display snapshot
// after every change.
//
// Controller is not safe for concurrent use. Backend notifications must be
// delivered on the same goroutine as user operations.
type Controller struct {
	catalog *catalog.Catalog
	liked   *catalog.LikedSet
	queue   *queue.Queue
	backend Backend
	states  *player.StateManager
	logger  *logrus.Logger
	source  queue.Source

	state    State
	playback PlaybackState
	slider   int
	notice   Notice
}

// NewController creates a controller in the Idle state.
func NewController(deps Deps, opts Options) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
	}
	states := deps.States
	if states == nil {
		states = player.NewStateManager()
	}
	q := deps.Queue
	if q == nil {
		q = queue.New()
	}
	source := opts.Source
	if source == "" {
		source = queue.Single
	}

	state := DefaultState()
	if opts.Volume != 0 && ValidateVolume(opts.Volume) == nil {
		state.Volume = opts.Volume
	}

	return &Controller{
		catalog:  deps.Catalog,
		liked:    deps.Liked,
		queue:    q,
		backend:  deps.Backend,
		states:   states,
		logger:   logger,
		source:   source,
		state:    state,
		playback: Idle,
	}
}

// SelectAndPlay collapses the queue to song id and starts it. Unknown ids
// are ignored.
func (c *Controller) SelectAndPlay(id int) {
	song, ok := c.catalog.Get(id)
	if !ok {
		c.logger.WithField("song_id", id).Debug("Ignoring selection of unknown song")
		return
	}
	c.queue.SetSingle(song)
	c.playCurrent()
}

// PlayWithin starts song id chosen from the list ids. The configured queue
// source decides whether the list or just the song becomes the queue.
func (c *Controller) PlayWithin(ids []int, id int) {
	song, ok := c.catalog.Get(id)
	if !ok {
		c.logger.WithField("song_id", id).Debug("Ignoring selection of unknown song")
		return
	}

	if c.source == queue.List {
		songs := c.catalog.Pick(ids)
		index := slices.IndexFunc(songs, func(s models.Song) bool { return s.ID == id })
		if !c.queue.SetList(songs, index) {
			c.queue.SetSingle(song)
		}
	} else {
		c.queue.SetSingle(song)
	}
	c.playCurrent()
}

// TogglePlayPause flips between playing and paused. It does nothing while
// Idle; without a backend it only raises a notice.
func (c *Controller) TogglePlayPause() {
	if c.playback == Idle {
		return
	}
	if c.backend == nil {
		c.notice = NoticePlaybackUnavailable
		c.publish()
		return
	}

	if c.playback == LoadedPlaying {
		if err := c.backend.Pause(); err != nil {
			c.fail("pause", err)
			return
		}
		c.setPlaying(false)
	} else {
		if err := c.backend.Play(); err != nil {
			c.fail("play", err)
			return
		}
		c.setPlaying(true)
	}
	c.publish()
}

// Skip moves to the previous or next queued song. At either end of the
// queue it does nothing.
func (c *Controller) Skip(dir queue.Direction) {
	if _, ok := c.queue.Advance(dir); !ok {
		return
	}
	c.playCurrent()
}

// ToggleShuffle flips the shuffle flag.
func (c *Controller) ToggleShuffle() {
	c.state.IsShuffled = !c.state.IsShuffled
	c.publish()
}

// ToggleRepeat flips the repeat flag.
func (c *Controller) ToggleRepeat() {
	c.state.IsRepeated = !c.state.IsRepeated
	c.publish()
}

// ToggleLike flips the liked status of the current song.
func (c *Controller) ToggleLike() {
	song, ok := c.queue.Current()
	if !ok {
		return
	}
	liked := c.liked.Toggle(song.ID)
	c.logger.WithFields(logrus.Fields{
		"song_id": song.ID,
		"liked":   liked,
	}).Debug("Toggled like")
	c.publish()
}

// SetVolume clamps v to [0,100] and applies it.
func (c *Controller) SetVolume(v int) {
	c.applyVolume(clamp(v, 0, 100))
	c.publish()
}

// ToggleMute silences playback, remembering the level, or restores the
// remembered level (DefaultVolume when none was kept).
func (c *Controller) ToggleMute() {
	if c.state.Volume != 0 {
		c.state.MutedVolumeMemo = c.state.Volume
		c.applyVolume(0)
	} else {
		restore := c.state.MutedVolumeMemo
		if restore == 0 {
			restore = DefaultVolume
		}
		c.applyVolume(restore)
	}
	c.publish()
}

// BeginSeek marks the start of a slider drag.
func (c *Controller) BeginSeek() {
	c.state.IsSeeking = true
	c.publish()
}

// EndSeek marks the end of a slider drag.
func (c *Controller) EndSeek() {
	c.state.IsSeeking = false
	c.publish()
}

// SeekTo jumps to fraction (0 to 1) of the current track. It does nothing
// without a backend or a known duration.
func (c *Controller) SeekTo(fraction float64) {
	if c.backend == nil || c.state.DurationMs <= 0 {
		return
	}
	fraction = min(max(fraction, 0), 1)
	target := int(fraction * float64(c.state.DurationMs))

	if err := c.backend.SetPosition(target); err != nil {
		c.fail("seek", err)
		return
	}
	c.state.PositionMs = target
	if !c.state.IsSeeking {
		c.slider = sliderValue(target, c.state.DurationMs)
	}
	c.publish()
}

// SeekSlider seeks to a raw slider value in [0,SliderMax].
func (c *Controller) SeekSlider(raw int) {
	c.SeekTo(float64(clamp(raw, 0, SliderMax)) / SliderMax)
}

// Handle routes a backend notification to its handler. Notifications left
// over from a superseded load are dropped.
func (c *Controller) Handle(ev Event) {
	if seq, ok := c.backend.(Sequencer); ok && !seq.Current(ev) {
		c.logger.WithField("generation", ev.Generation).Debug("Dropping stale backend event")
		return
	}

	switch ev.Kind {
	case PositionChanged:
		c.OnPositionChanged(ev.Value)
	case DurationChanged:
		c.OnDurationChanged(ev.Value)
	case PlayStateChanged:
		c.OnPlayStateChanged(ev.Playing)
	case MediaStatusChanged:
		c.OnMediaStatusChanged(ev.Status)
	}
}

// OnPositionChanged records the playback position. The slider only follows
// while the user is not dragging it.
func (c *Controller) OnPositionChanged(ms int) {
	c.state.PositionMs = max(ms, 0)
	if !c.state.IsSeeking {
		c.slider = sliderValue(c.state.PositionMs, c.state.DurationMs)
	}
	c.publish()
}

// OnDurationChanged records the track duration.
func (c *Controller) OnDurationChanged(ms int) {
	c.state.DurationMs = max(ms, 0)
	c.publish()
}

// OnPlayStateChanged mirrors the backend's playing flag.
func (c *Controller) OnPlayStateChanged(playing bool) {
	if c.playback == Idle {
		return
	}
	c.setPlaying(playing)
	c.publish()
}

// OnMediaStatusChanged reacts to load status changes.
func (c *Controller) OnMediaStatusChanged(status MediaStatus) {
	switch status {
	case StatusEndOfMedia:
		c.OnMediaEnded()
	case StatusInvalid:
		if c.playback == Idle {
			return
		}
		c.logger.Warn("Media backend reported invalid media")
		c.notice = NoticePlaybackFailed
		c.setPlaying(false)
		c.publish()
	}
}

// OnMediaEnded restarts the track when repeat is on. Otherwise playback
// stays stopped at the end; the queue does not advance on its own.
func (c *Controller) OnMediaEnded() {
	if !c.state.IsRepeated || c.backend == nil {
		return
	}
	if err := c.backend.SetPosition(0); err != nil {
		c.fail("restart", err)
		return
	}
	if err := c.backend.Play(); err != nil {
		c.fail("restart", err)
		return
	}
	c.state.PositionMs = 0
	c.slider = 0
	c.setPlaying(true)
	c.publish()
}

// State returns the transport state.
func (c *Controller) State() State {
	return c.state
}

// Playback returns the state machine position.
func (c *Controller) Playback() PlaybackState {
	return c.playback
}

// IsLiked reports whether the current song is liked.
func (c *Controller) IsLiked() bool {
	song, ok := c.queue.Current()
	return ok && c.liked.Has(song.ID)
}

// SliderValue returns the progress slider value.
func (c *Controller) SliderValue() int {
	return c.slider
}

// HasBackend reports whether playback commands reach a media backend.
func (c *Controller) HasBackend() bool {
	return c.backend != nil
}

// Snapshot builds the display snapshot for the current state.
func (c *Controller) Snapshot() player.State {
	s := player.State{
		Playback:        c.playback.String(),
		IsPlaying:       c.state.IsPlaying,
		Volume:          c.state.Volume,
		IsMuted:         c.state.IsMuted,
		MutedVolumeMemo: c.state.MutedVolumeMemo,
		PositionMs:      c.state.PositionMs,
		DurationMs:      c.state.DurationMs,
		IsShuffled:      c.state.IsShuffled,
		IsRepeated:      c.state.IsRepeated,
		IsSeeking:       c.state.IsSeeking,
		VolumeTier:      TierFor(c.state.Volume).String(),
		SliderValue:     c.slider,
		ElapsedLabel:    query.FormatTime(c.state.PositionMs),
		TotalLabel:      query.FormatTime(c.state.DurationMs),
		QueueLength:     c.queue.Len(),
		QueueIndex:      c.queue.Cursor(),
		HasPrevious:     c.queue.HasPrevious(),
		HasNext:         c.queue.HasNext(),
		Notice:          c.notice.String(),
	}
	if song, ok := c.queue.Current(); ok {
		s.Song = &song
		s.IsLiked = c.liked.Has(song.ID)
	}
	return s
}

// playCurrent loads and starts the queue's current song.
func (c *Controller) playCurrent() {
	song, ok := c.queue.Current()
	if !ok {
		return
	}

	c.state.PositionMs = 0
	c.state.DurationMs = 0
	c.slider = 0
	c.playback = LoadedPlaying
	c.state.IsPlaying = true

	logEntry := c.logger.WithFields(logrus.Fields{
		"song_id": song.ID,
		"title":   song.Title,
	})

	if c.backend == nil {
		logEntry.Debug("Selected song without media backend")
		c.notice = NoticePlaybackUnavailable
		c.publish()
		return
	}

	if err := c.backend.Load(song.AudioRef); err != nil {
		logEntry.WithError(err).Warn("Failed to load song")
		c.notice = NoticePlaybackFailed
		c.setPlaying(false)
		c.publish()
		return
	}
	if err := c.backend.Play(); err != nil {
		logEntry.WithError(err).Warn("Failed to start playback")
		c.notice = NoticePlaybackFailed
		c.setPlaying(false)
		c.publish()
		return
	}

	logEntry.Info("Playing song")
	c.publish()
}

func (c *Controller) applyVolume(v int) {
	if c.backend == nil {
		c.notice = NoticePlaybackUnavailable
	} else if err := c.backend.SetVolume(v); err != nil {
		c.logger.WithError(err).WithField("volume", v).Warn("Failed to set backend volume")
		c.notice = NoticePlaybackFailed
	}
	c.state.Volume = v
	c.state.IsMuted = v == 0
}

func (c *Controller) setPlaying(playing bool) {
	c.state.IsPlaying = playing
	if playing {
		c.playback = LoadedPlaying
	} else {
		c.playback = LoadedPaused
	}
}

// fail surfaces a failed backend command without changing state.
func (c *Controller) fail(op string, err error) {
	c.logger.WithError(err).WithField("op", op).Warn("Media backend command failed")
	c.notice = NoticePlaybackFailed
	c.publish()
}

// publish sends the snapshot to the UI layer. Notices are one-shot.
func (c *Controller) publish() {
	c.states.Publish(c.Snapshot())
	c.notice = NoticeNone
}
