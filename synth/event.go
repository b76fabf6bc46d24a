package synth

import (
	"github.com/sinshu/go-meltysynth/meltysynth"
)

type EventKind uint8

const (
	NoteOn EventKind = iota + 1
	NoteOff
	ProgramChange
	AllNotesOff
)

type Event struct {
	Kind     EventKind
	Channel  uint8
	Key      uint8
	Velocity uint8
	Program  uint8
}

func (e Event) apply(s *meltysynth.Synthesizer) {
	ch := int32(e.Channel & 0x0f)
	switch e.Kind {
	case NoteOn:
		s.ProcessMidiMessage(ch, 0x90, int32(e.Key), int32(e.Velocity))
	case NoteOff:
		s.ProcessMidiMessage(ch, 0x80, int32(e.Key), 0)
	case ProgramChange:
		s.ProcessMidiMessage(ch, 0xC0, int32(e.Program), 0)
	case AllNotesOff:
		s.ProcessMidiMessage(ch, 0xB0, 0x7B, 0)
	}
}

// Connection is a cheap, copyable handle that queues events for the audio
// callback. It is safe for concurrent use.
type Connection struct {
	events chan<- Event
}

func (c Connection) send(e Event) {
	select {
	case c.events <- e:
	default:
		log.WithField("kind", e.Kind).Warn("event queue full, dropping event")
	}
}

func (c Connection) NoteOn(channel, key, velocity uint8) {
	c.send(Event{Kind: NoteOn, Channel: channel, Key: key, Velocity: velocity})
}

func (c Connection) NoteOff(channel, key uint8) {
	c.send(Event{Kind: NoteOff, Channel: channel, Key: key})
}

func (c Connection) ProgramChange(channel, program uint8) {
	c.send(Event{Kind: ProgramChange, Channel: channel, Program: program})
}

func (c Connection) AllNotesOff(channel uint8) {
	c.send(Event{Kind: AllNotesOff, Channel: channel})
}
