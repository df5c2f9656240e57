//go:build !cgo

package audio

import (
	"vibebeat/internal/transport"

	"github.com/sirupsen/logrus"
)

// Available indicates whether audio playback is supported in this build.
// Audio output requires cgo for the native sound libraries.
const Available = false

// Player is a stub for builds without cgo. New never returns one.
type Player struct{}

// New reports ErrUnavailable when cgo is disabled.
func New(logger *logrus.Logger) (*Player, error) {
	return nil, ErrUnavailable
}

func (p *Player) Load(ref string) error          { return ErrUnavailable }
func (p *Player) Play() error                    { return ErrUnavailable }
func (p *Player) Pause() error                   { return ErrUnavailable }
func (p *Player) SetPosition(ms int) error       { return ErrUnavailable }
func (p *Player) SetVolume(v int) error          { return ErrUnavailable }
func (p *Player) Position() int                  { return 0 }
func (p *Player) Duration() int                  { return 0 }
func (p *Player) Volume() int                    { return 0 }
func (p *Player) Close() error                   { return nil }
func (p *Player) Events() <-chan transport.Event { return nil }
