package player

import (
	"sync"

	"github.com/jsphweid/midi2mml/model"
)

// Status is the playback state shared by the coordinator (writer) and every
// track player (readers).
type Status struct {
	mu    sync.RWMutex
	value model.PlaybackStatus
}

func (s *Status) Get() model.PlaybackStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Swap sets the status and returns the previous one.
func (s *Status) Swap(v model.PlaybackStatus) model.PlaybackStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.value
	s.value = v
	return old
}

// Sink receives the MIDI events produced by playback.
type Sink interface {
	NoteOn(channel, key, velocity uint8)
	NoteOff(channel, key uint8)
	ProgramChange(channel, program uint8)
	AllNotesOff(channel uint8)
}

type NoteOnFunc func(track, charIndex, charLength int)

type TrackEndFunc func(track int)
