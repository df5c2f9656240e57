//go:build cgo

package audio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"vibebeat/internal/transport"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/sirupsen/logrus"
)

// Available indicates whether audio playback is supported in this build.
const Available = true

// Player is a beep-backed media backend. Notifications are delivered in
// order on Events by a single goroutine and carry the generation of the
// load they describe. emit must not be called with mu held.
type Player struct {
	mu     sync.Mutex
	logger *logrus.Logger

	initialized bool
	sampleRate  beep.SampleRate

	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	level    int
	ended    bool

	// generation is bumped by every Load so that callbacks from a
	// superseded track are dropped.
	generation uint64

	pending chan transport.Event
	events  chan transport.Event
	quit    chan struct{}
	once    sync.Once
}

// New creates a player and starts its notification goroutine. The speaker
// is initialised lazily on the first Load.
func New(logger *logrus.Logger) (*Player, error) {
	if logger == nil {
		logger = logrus.New()
	}
	p := &Player{
		logger:     logger,
		sampleRate: beep.SampleRate(44100),
		level:      transport.DefaultVolume,
		pending:    make(chan transport.Event, 64),
		events:     make(chan transport.Event, 64),
		quit:       make(chan struct{}),
	}
	go p.run()
	return p, nil
}

// Events returns the notification channel. It is closed by Close.
func (p *Player) Events() <-chan transport.Event {
	return p.events
}

// Load opens and decodes ref, replacing the current track. The new track
// starts paused.
func (p *Player) Load(ref string) error {
	path, err := ResolveRef(ref)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	streamer, format, err := decode(f, path)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode %s: %w", path, err)
	}

	if err := p.initSpeaker(); err != nil {
		streamer.Close()
		f.Close()
		return fmt.Errorf("init speaker: %w", err)
	}

	gen, duration := p.install(f, streamer, format)

	p.logger.WithFields(logrus.Fields{
		"path":        path,
		"sample_rate": int(format.SampleRate),
		"duration_ms": duration,
	}).Debug("Loaded audio file")

	p.emit(gen, transport.Event{Kind: transport.DurationChanged, Value: duration})
	p.emit(gen, transport.Event{Kind: transport.MediaStatusChanged, Status: transport.StatusLoaded})
	return nil
}

// install replaces the current track with a decoded one, paused at the
// start, and returns its generation and length in milliseconds.
func (p *Player) install(f *os.File, streamer beep.StreamSeekCloser, format beep.Format) (uint64, int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	p.generation++
	p.file = f
	p.streamer = streamer
	p.format = format
	p.startLocked(true)
	return p.generation, toMillis(format.SampleRate.D(streamer.Len()))
}

// Play resumes output of the loaded track. A track that played to the end
// starts again from the beginning.
func (p *Player) Play() error {
	p.mu.Lock()
	if p.streamer == nil {
		p.mu.Unlock()
		return ErrNothingLoaded
	}
	restarted := false
	if p.ended {
		speaker.Lock()
		err := p.streamer.Seek(0)
		speaker.Unlock()
		if err != nil {
			p.mu.Unlock()
			return fmt.Errorf("rewind: %w", err)
		}
		p.ended = false
		p.startLocked(false)
		restarted = true
	} else {
		speaker.Lock()
		p.ctrl.Paused = false
		speaker.Unlock()
	}
	gen := p.generation
	p.mu.Unlock()

	if restarted {
		p.emit(gen, transport.Event{Kind: transport.PositionChanged, Value: 0})
	}
	p.emit(gen, transport.Event{Kind: transport.PlayStateChanged, Playing: true})
	return nil
}

// Pause halts output, keeping the position.
func (p *Player) Pause() error {
	p.mu.Lock()
	if p.streamer == nil {
		p.mu.Unlock()
		return ErrNothingLoaded
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	gen := p.generation
	p.mu.Unlock()

	p.emit(gen, transport.Event{Kind: transport.PlayStateChanged, Playing: false})
	return nil
}

// SetPosition seeks to ms, clamped to the track length.
func (p *Player) SetPosition(ms int) error {
	p.mu.Lock()
	if p.streamer == nil {
		p.mu.Unlock()
		return ErrNothingLoaded
	}

	speaker.Lock()
	n := p.format.SampleRate.N(time.Duration(max(ms, 0)) * time.Millisecond)
	n = min(n, max(p.streamer.Len()-1, 0))
	err := p.streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("seek to %dms: %w", ms, err)
	}

	if p.ended {
		// the finished track left the mixer; queue it again, paused
		p.ended = false
		p.startLocked(true)
	}
	pos := p.positionLocked()
	gen := p.generation
	p.mu.Unlock()

	p.emit(gen, transport.Event{Kind: transport.PositionChanged, Value: pos})
	return nil
}

// SetVolume sets the output level, 0 to 100.
func (p *Player) SetVolume(v int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.level = min(max(v, 0), 100)
	if p.volume != nil {
		speaker.Lock()
		applyLevel(p.volume, p.level)
		speaker.Unlock()
	}
	return nil
}

// Position returns the playback position in milliseconds.
func (p *Player) Position() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

// Duration returns the track length in milliseconds.
func (p *Player) Duration() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return 0
	}
	return toMillis(p.format.SampleRate.D(p.streamer.Len()))
}

// Volume returns the output level.
func (p *Player) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Close stops playback and the notification goroutine.
func (p *Player) Close() error {
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()

	p.once.Do(func() { close(p.quit) })
	return nil
}

// initSpeaker initializes the speaker if not already done.
func (p *Player) initSpeaker() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}
	if err := speaker.Init(p.sampleRate, p.sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	p.initialized = true
	return nil
}

// startLocked hands the current streamer to the speaker (must be called with lock held).
func (p *Player) startLocked(paused bool) {
	gen := p.generation
	resampled := beep.Resample(4, p.format.SampleRate, p.sampleRate, p.streamer)
	p.ctrl = &beep.Ctrl{Streamer: resampled, Paused: paused}
	p.volume = &effects.Volume{Streamer: p.ctrl, Base: 2}
	applyLevel(p.volume, p.level)

	speaker.Play(beep.Seq(p.volume, beep.Callback(func() {
		// runs on the speaker goroutine with the speaker locked
		go p.finished(gen)
	})))
}

// stopLocked drops the current track (must be called with lock held).
func (p *Player) stopLocked() {
	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = true
		p.ctrl.Streamer = nil
		speaker.Unlock()
	}
	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	if p.file != nil {
		p.file.Close()
		p.file = nil
	}
	p.ctrl = nil
	p.volume = nil
	p.ended = false
}

func (p *Player) finished(gen uint64) {
	p.mu.Lock()
	if gen != p.generation || p.streamer == nil {
		p.mu.Unlock()
		return
	}
	p.ended = true
	p.mu.Unlock()

	p.emit(gen, transport.Event{Kind: transport.PlayStateChanged, Playing: false})
	p.emit(gen, transport.Event{Kind: transport.MediaStatusChanged, Status: transport.StatusEndOfMedia})
}

// Current reports whether ev was emitted for the track loaded now.
func (p *Player) Current(ev transport.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ev.Generation == p.generation
}

func (p *Player) positionLocked() int {
	if p.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := p.streamer.Position()
	speaker.Unlock()
	return toMillis(p.format.SampleRate.D(pos))
}

// playingPosition returns the position and generation while audio is flowing.
func (p *Player) playingPosition() (int, uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl == nil || p.ended {
		return 0, 0, false
	}
	speaker.Lock()
	paused := p.ctrl.Paused
	speaker.Unlock()
	if paused {
		return 0, 0, false
	}
	return p.positionLocked(), p.generation, true
}

func (p *Player) emit(gen uint64, ev transport.Event) {
	ev.Generation = gen
	select {
	case p.pending <- ev:
	case <-p.quit:
	}
}

// run forwards notifications and reports the position while playing.
func (p *Player) run() {
	ticker := time.NewTicker(positionInterval)
	defer ticker.Stop()
	defer close(p.events)

	deliver := func(ev transport.Event) bool {
		select {
		case p.events <- ev:
			return true
		case <-p.quit:
			return false
		}
	}

	for {
		select {
		case <-p.quit:
			return
		case ev := <-p.pending:
			if !p.Current(ev) {
				continue
			}
			if !deliver(ev) {
				return
			}
		case <-ticker.C:
			if pos, gen, ok := p.playingPosition(); ok {
				if !deliver(transport.Event{Kind: transport.PositionChanged, Value: pos, Generation: gen}) {
					return
				}
			}
		}
	}
}

// applyLevel maps a 0-100 level onto a base-2 gain.
func applyLevel(v *effects.Volume, level int) {
	v.Silent = level <= 0
	if level > 0 {
		v.Volume = math.Log2(float64(level) / 100)
	}
}

func decode(f *os.File, path string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return mp3.Decode(f)
	case ".wav":
		return wav.Decode(f)
	case ".flac":
		return flac.Decode(f)
	case ".ogg":
		return vorbis.Decode(f)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}
