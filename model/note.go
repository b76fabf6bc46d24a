package model

import "math"

// NoteEvent is a note (or rest) parsed back out of an MML string.
// CharIndex and CharLength point into the source string.
type NoteEvent struct {
	CharIndex         int     `json:"char_index"`
	CharLength        int     `json:"char_length"`
	Pitch             Pitch   `json:"pitch"`
	Octave            uint8   `json:"octave"`
	Velocity          uint8   `json:"velocity"` // 0..15
	Tempo             uint32  `json:"tempo"`
	Duration64        float64 `json:"duration_64"` // 1/64 note units
	IsConnectedToPrev bool    `json:"is_connected_to_prev_note"`
	DurationMs        int64   `json:"duration_ms"`
}

var baseKeys = [...]int{12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23}

func (n NoteEvent) IsRest() bool {
	return n.Pitch == PitchRest
}

// MidiKey returns the MIDI key of the note. Rests have no key.
func (n NoteEvent) MidiKey() (uint8, bool) {
	if n.IsRest() {
		return 0, false
	}
	key := baseKeys[n.Pitch] + int(n.Octave)*12
	if key > 127 {
		key = 127
	}
	return uint8(key), true
}

func (n NoteEvent) MidiVelocity() uint8 {
	return uint8(math.Round(float64(n.Velocity) / 15 * 127))
}

// DurationToMs converts a length in 1/64 note units at the given tempo.
func DurationToMs(units float64, tempo uint32) int64 {
	if tempo == 0 {
		return 0
	}
	return int64(math.Round(units * 15000 / float64(tempo*4)))
}

type PlaybackStatus uint8

const (
	StatusStop PlaybackStatus = iota
	StatusPlay
	StatusPause
)

func (s PlaybackStatus) String() string {
	switch s {
	case StatusPlay:
		return "play"
	case StatusPause:
		return "pause"
	}
	return "stop"
}
