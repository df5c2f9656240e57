package player

import (
	"sync"
	"time"

	"vibebeat/pkg/models"
)

// State is a display snapshot of the transport bar
type State struct {
	Song     *models.Song `json:"song,omitempty"`
	IsLiked  bool         `json:"isLiked"`
	Playback string       `json:"playback"` // idle, paused or playing

	IsPlaying       bool `json:"isPlaying"`
	Volume          int  `json:"volume"` // 0 to 100
	IsMuted         bool `json:"isMuted"`
	MutedVolumeMemo int  `json:"mutedVolumeMemo"`
	PositionMs      int  `json:"positionMs"`
	DurationMs      int  `json:"durationMs"`
	IsShuffled      bool `json:"isShuffled"`
	IsRepeated      bool `json:"isRepeated"`
	IsSeeking       bool `json:"isSeeking"`

	VolumeTier   string `json:"volumeTier"`
	SliderValue  int    `json:"sliderValue"` // 0 to 1000
	ElapsedLabel string `json:"elapsed"`
	TotalLabel   string `json:"total"`

	QueueLength int  `json:"queueLength"`
	QueueIndex  int  `json:"queueIndex"`
	HasPrevious bool `json:"hasPrevious"`
	HasNext     bool `json:"hasNext"`

	Notice    string    `json:"notice,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StateManager holds the latest snapshot and fans it out to listeners
type StateManager struct {
	state     *State
	mutex     sync.RWMutex
	listeners []chan *State
}

// NewStateManager creates a new state manager with an idle snapshot
func NewStateManager() *StateManager {
	return &StateManager{
		state: &State{
			Playback:     "idle",
			QueueIndex:   -1,
			ElapsedLabel: "0:00",
			TotalLabel:   "0:00",
			UpdatedAt:    time.Now(),
		},
		listeners: make([]chan *State, 0),
	}
}

// GetState returns a copy of the latest snapshot (thread-safe)
func (sm *StateManager) GetState() *State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	stateCopy := *sm.state
	return &stateCopy
}

// Publish replaces the snapshot and notifies listeners
func (sm *StateManager) Publish(state State) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if state.Song != nil {
		song := *state.Song
		state.Song = &song
	}
	state.UpdatedAt = time.Now()
	sm.state = &state
	sm.notifyListeners()
}

// Subscribe adds a listener for snapshot changes
func (sm *StateManager) Subscribe() <-chan *State {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	ch := make(chan *State, 16)
	sm.listeners = append(sm.listeners, ch)
	return ch
}

// Unsubscribe removes and closes a listener
func (sm *StateManager) Unsubscribe(ch <-chan *State) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	for i, listener := range sm.listeners {
		if listener == ch {
			close(listener)
			sm.listeners = append(sm.listeners[:i], sm.listeners[i+1:]...)
			break
		}
	}
}

// Close closes every listener channel
func (sm *StateManager) Close() {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	for _, listener := range sm.listeners {
		close(listener)
	}
	sm.listeners = nil
}

// notifyListeners sends the snapshot to all subscribers (must be called with lock held).
// A listener that has fallen behind loses its oldest pending snapshot.
func (sm *StateManager) notifyListeners() {
	for _, listener := range sm.listeners {
		stateCopy := *sm.state
		select {
		case listener <- &stateCopy:
			continue
		default:
		}

		select {
		case <-listener:
		default:
		}
		select {
		case listener <- &stateCopy:
		default:
		}
	}
}
