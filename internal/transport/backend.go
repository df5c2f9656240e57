package transport

// MediaStatus is the load state reported by a media backend.
type MediaStatus int

const (
	StatusNoMedia MediaStatus = iota
	StatusLoading
	StatusLoaded
	StatusEndOfMedia
	StatusInvalid
)

func (s MediaStatus) String() string {
	switch s {
	case StatusNoMedia:
		return "no-media"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusEndOfMedia:
		return "end-of-media"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// EventKind identifies a backend notification.
type EventKind int

const (
	PositionChanged EventKind = iota
	DurationChanged
	PlayStateChanged
	MediaStatusChanged
)

// Event is an asynchronous backend notification. Value carries milliseconds
// for position and duration changes.
type Event struct {
	Kind    EventKind
	Value   int
	Playing bool
	Status  MediaStatus

	// Generation identifies the Load the event belongs to. Zero means
	// the backend does not track loads.
	Generation uint64
}

// Backend is the audio decode/output subsystem driven by the controller.
// A nil Backend means playback is unavailable.
type Backend interface {
	Load(ref string) error
	Play() error
	Pause() error
	SetPosition(ms int) error
	SetVolume(v int) error
	Position() int
	Duration() int
	Volume() int
	Close() error
}

// Notifier is implemented by backends that report changes asynchronously.
// Events are delivered in order on the returned channel, which is closed
// when the backend is closed.
type Notifier interface {
	Events() <-chan Event
}

// Sequencer is implemented by backends whose notifications can outlive
// the track they describe. Current reports whether ev belongs to the most
// recent Load.
type Sequencer interface {
	Current(ev Event) bool
}
