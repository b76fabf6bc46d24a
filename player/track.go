package player

import (
	"time"

	"github.com/jsphweid/midi2mml/chord"
	"github.com/jsphweid/midi2mml/constants"
	"github.com/jsphweid/midi2mml/model"
	"github.com/jsphweid/midi2mml/util"
)

type outcome uint8

const (
	finished outcome = iota
	paused
	stopped
)

// TrackPlayer plays the parsed notes of one track in real time. A note is
// sounded once the next note is seen, so that chords connected to it can be
// collected first.
type TrackPlayer struct {
	index      int
	notes      []model.NoteEvent
	instrument model.Instrument
	channel    uint8
	status     *Status
	sink       Sink
	onNoteOn   NoteOnFunc
	onTrackEnd TrackEndFunc

	noteBefore  *model.NoteEvent
	chord       []model.NoteEvent
	absolute    int64 // ms of music already played
	current     int
	programSent bool
	done        bool
}

func NewTrackPlayer(index int, notes []model.NoteEvent, instrument model.Instrument, channel uint8, status *Status, sink Sink) *TrackPlayer {
	return &TrackPlayer{
		index:      index,
		notes:      notes,
		instrument: instrument,
		channel:    channel,
		status:     status,
		sink:       sink,
	}
}

func (p *TrackPlayer) reset() {
	p.noteBefore = nil
	p.chord = nil
	p.absolute = 0
	p.current = 0
	p.programSent = false
	p.done = false
}

// Play runs from the current note until the track ends, pauses or stops.
// start is the wall clock time at which the track's first note began;
// after a pause the caller moves it forward by the length of the pause.
func (p *TrackPlayer) Play(start time.Time) {
	if p.done {
		return
	}
	if !p.programSent {
		p.sink.ProgramChange(p.channel, p.instrument.ID)
		p.programSent = true
	}

	for p.current < len(p.notes) {
		note := p.notes[p.current]
		if note.IsConnectedToPrev {
			if len(p.chord) == 0 && p.noteBefore != nil {
				p.chord = append(p.chord, *p.noteBefore)
			}
			p.chord = append(p.chord, note)
			p.current++
			continue
		}

		drift := time.Since(start).Milliseconds() - p.absolute
		if len(p.chord) > 0 {
			duration := chord.DurationMs(p.chord)
			if p.sound(p.chord, duration-drift) != finished {
				return
			}
			p.absolute += duration
			p.chord = nil
		} else if p.noteBefore != nil {
			duration := p.noteBefore.DurationMs
			if p.sound([]model.NoteEvent{*p.noteBefore}, duration-drift) != finished {
				return
			}
			p.absolute += duration
		}
		p.noteBefore = &note
		p.current++
	}

	if len(p.chord) > 0 {
		if p.sound(p.chord, chord.DurationMs(p.chord)) != finished {
			return
		}
	} else if p.noteBefore != nil {
		if p.sound([]model.NoteEvent{*p.noteBefore}, p.noteBefore.DurationMs) != finished {
			return
		}
	}
	p.chord = nil
	p.noteBefore = nil
	p.done = true

	if p.onTrackEnd != nil {
		p.onTrackEnd(p.index)
	}
}

// sound plays notes together for ms milliseconds. Nothing is played when ms
// is not positive.
func (p *TrackPlayer) sound(notes []model.NoteEvent, ms int64) outcome {
	if ms <= 0 {
		return finished
	}
	if p.onNoteOn != nil {
		index, length := chord.Span(notes)
		p.onNoteOn(p.index, index, length)
	}

	var keys []uint8
	for _, n := range notes {
		if key, ok := n.MidiKey(); ok {
			p.sink.NoteOn(p.channel, key, n.MidiVelocity())
			keys = append(keys, key)
		}
	}
	res := p.sleep(time.Duration(ms) * time.Millisecond)
	for _, key := range keys {
		p.sink.NoteOff(p.channel, key)
	}
	return res
}

// sleep waits for d in short slices so that pause and stop are observed
// quickly.
func (p *TrackPlayer) sleep(d time.Duration) outcome {
	deadline := time.Now().Add(d)
	for {
		switch p.status.Get() {
		case model.StatusPause:
			return paused
		case model.StatusStop:
			p.sink.AllNotesOff(p.channel)
			p.reset()
			return stopped
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return finished
		}
		time.Sleep(util.Min(remaining, constants.SleepSlice))
	}
}
