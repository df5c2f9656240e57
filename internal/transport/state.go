package transport

import "fmt"

// DefaultVolume is the startup volume and the level ToggleMute restores when
// nothing was remembered.
const DefaultVolume = 70

// SliderMax is the upper bound of the progress slider.
const SliderMax = 1000

// PlaybackState is the controller's state machine position.
type PlaybackState int

const (
	Idle PlaybackState = iota
	LoadedPaused
	LoadedPlaying
)

func (s PlaybackState) String() string {
	switch s {
	case LoadedPaused:
		return "paused"
	case LoadedPlaying:
		return "playing"
	default:
		return "idle"
	}
}

// State holds the transport bookkeeping.
type State struct {
	IsPlaying       bool
	Volume          int
	IsMuted         bool
	MutedVolumeMemo int
	PositionMs      int
	DurationMs      int
	IsShuffled      bool
	IsRepeated      bool
	IsSeeking       bool
}

// DefaultState returns the startup transport state
func DefaultState() State {
	return State{Volume: DefaultVolume}
}

// VolumeTier is the icon shown next to the volume slider.
type VolumeTier int

const (
	TierMuted VolumeTier = iota
	TierLow
	TierNormal
)

// TierFor derives the volume icon tier for v.
func TierFor(v int) VolumeTier {
	switch {
	case v <= 0:
		return TierMuted
	case v < 50:
		return TierLow
	default:
		return TierNormal
	}
}

func (t VolumeTier) String() string {
	switch t {
	case TierMuted:
		return "muted"
	case TierLow:
		return "low"
	default:
		return "normal"
	}
}

// Notice is a non-fatal advisory surfaced to the user.
type Notice int

const (
	NoticeNone Notice = iota
	NoticePlaybackUnavailable
	NoticePlaybackFailed
)

func (n Notice) String() string {
	switch n {
	case NoticePlaybackUnavailable:
		return "Playback unavailable: no audio backend"
	case NoticePlaybackFailed:
		return "Playback failed"
	default:
		return ""
	}
}

// ValidateVolume reports whether v is a usable volume level.
func ValidateVolume(v int) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", v)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sliderValue maps a position onto the progress slider.
func sliderValue(positionMs, durationMs int) int {
	return clamp(positionMs*SliderMax/max(1, durationMs), 0, SliderMax)
}
