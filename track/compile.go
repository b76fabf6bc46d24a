package track

import (
	"github.com/jsphweid/midi2mml/chord"
	"github.com/jsphweid/midi2mml/midi"
	"github.com/jsphweid/midi2mml/model"
	"github.com/jsphweid/midi2mml/quantize"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("source", "track")

// lowest MIDI key MML can name (c in octave 0)
const lowestKey = 12

// Result is the output of compiling one track.
type Result struct {
	Events     []model.MmlEvent
	Instrument model.Instrument
	NoteLength int
}

type compiler struct {
	opts   model.SongOptions
	ppq    uint16
	events []model.MmlEvent

	prev   *model.MmlNote // last emitted note, chord members included
	lead   *model.MmlNote // last note that advances time
	anchor uint32         // where the next rest is measured from
}

// Compile turns bridge events into an MML event list. meta and notes are not
// modified.
func Compile(meta, notes []model.BridgeEvent, opts model.SongOptions, ppq uint16) Result {
	merged := make([]model.BridgeEvent, 0, len(meta)+len(notes))
	merged = append(merged, meta...)
	merged = append(merged, notes...)
	midi.SortEvents(merged)

	c := &compiler{opts: opts, ppq: ppq}
	for _, e := range merged {
		switch e.Kind {
		case model.BridgeTempo:
			c.tempo(e)
		case model.BridgeNote:
			c.note(e)
		}
	}
	correctPositions(c.events)
	unifyChords(c.events)
	length := render(c.events, opts.SmallestUnit)

	return Result{
		Events:     c.events,
		Instrument: detectInstrument(merged, notes),
		NoteLength: length,
	}
}

func (c *compiler) emit(kind model.MmlKind, value uint32) {
	c.events = append(c.events, model.MmlEvent{Kind: kind, Value: value})
}

func (c *compiler) su(tick uint32) uint32 {
	return quantize.TickToSU(tick, c.ppq, c.opts.SmallestUnit)
}

func (c *compiler) tempo(e model.BridgeEvent) {
	pos := c.su(e.Position)
	if pos > c.anchor {
		c.emit(model.MmlRest, pos-c.anchor)
		c.anchor = pos
	}
	c.emit(model.MmlTempo, e.BPM)
}

func (c *compiler) mapVelocity(v uint8) uint8 {
	span := uint32(c.opts.VelocityMax - c.opts.VelocityMin)
	return uint8(uint32(v)*span/127) + c.opts.VelocityMin
}

func (c *compiler) toMmlNote(e model.BridgeEvent) *model.MmlNote {
	if e.Key < lowestKey {
		log.WithFields(logrus.Fields{"key": e.Key, "position": e.Position}).
			Warn("key below octave 0, it will sound an octave higher")
	}
	pitch, octave := model.PitchFromKey(e.Key)
	duration := c.su(e.Duration)
	if duration == 0 {
		duration = 1
	}
	return &model.MmlNote{
		Pitch:    pitch,
		Octave:   octave,
		Velocity: c.mapVelocity(e.Velocity),
		Position: c.su(e.Position),
		Duration: duration,
	}
}

func (c *compiler) note(e model.BridgeEvent) {
	n := c.toMmlNote(e)

	if c.prev == nil {
		if n.Position > c.anchor {
			c.emit(model.MmlRest, n.Position-c.anchor)
		}
		c.emit(model.MmlVelocity, uint32(n.Velocity))
		c.emit(model.MmlOctave, uint32(n.Octave))
	} else {
		if n.Position == c.lead.Position {
			c.emit(model.MmlConnectChord, 0)
			n.IsPartOfChord = true
			c.lead.Duration = chord.Duration(c.lead.Duration, n.Duration)
			c.anchor = c.lead.Position + c.lead.Duration
		} else if n.Position > c.anchor {
			c.emit(model.MmlRest, n.Position-c.anchor)
		}

		switch delta := int(n.Octave) - int(c.prev.Octave); {
		case delta == 1:
			c.emit(model.MmlIncreOctave, 0)
		case delta == -1:
			c.emit(model.MmlDecreOctave, 0)
		case delta != 0:
			c.emit(model.MmlOctave, uint32(n.Octave))
		}
		if n.Velocity != c.prev.Velocity {
			c.emit(model.MmlVelocity, uint32(n.Velocity))
		}
	}

	c.events = append(c.events, model.MmlEvent{Kind: model.MmlNoteEvent, Note: n})
	c.prev = n
	if !n.IsPartOfChord {
		c.lead = n
		c.anchor = n.Position + n.Duration
	}
}

// correctPositions makes every time-advancing note start exactly at its
// quantized position. Overlaps are absorbed by shrinking the closest earlier
// rests and lead notes, never below one unit. Chord members are never shrunk.
func correctPositions(events []model.MmlEvent) {
	var cursor int64
	for i := 0; i < len(events); i++ {
		e := events[i]
		switch e.Kind {
		case model.MmlRest:
			cursor += int64(e.Value)
		case model.MmlNoteEvent:
			if e.Note.IsPartOfChord {
				continue
			}
			drift := int64(e.Note.Position) - cursor
			if drift < 0 {
				cursor -= shrinkBefore(events, i, -drift)
			}
			cursor += int64(e.Note.Duration)
		}
	}
}

func shrinkBefore(events []model.MmlEvent, index int, need int64) int64 {
	var absorbed int64
	for j := index - 1; j >= 0 && absorbed < need; j-- {
		e := &events[j]
		var duration *uint32
		switch {
		case e.Kind == model.MmlRest:
			duration = &e.Value
		case e.Kind == model.MmlNoteEvent && !e.Note.IsPartOfChord:
			duration = &e.Note.Duration
		default:
			continue
		}
		spare := int64(*duration) - 1
		if spare <= 0 {
			continue
		}
		take := need - absorbed
		if take > spare {
			take = spare
		}
		*duration -= uint32(take)
		absorbed += take
	}
	return absorbed
}

// unifyChords gives every chord member the final duration of its lead.
func unifyChords(events []model.MmlEvent) {
	for _, group := range chord.Groups(events) {
		lead := events[group[0]].Note
		for _, i := range group[1:] {
			events[i].Note.Duration = lead.Duration
		}
	}
}

func render(events []model.MmlEvent, unit uint32) int {
	total := 0
	for _, e := range events {
		if e.Kind != model.MmlNoteEvent {
			continue
		}
		e.Note.Text, e.Note.NoteLength = quantize.Render(e.Note.Pitch.String(), e.Note.Duration, unit)
		total += e.Note.NoteLength
	}
	return total
}

// detectInstrument picks the last program change on any channel the track
// plays on. Percussion wins over any program. events must be sorted.
func detectInstrument(events, notes []model.BridgeEvent) model.Instrument {
	if len(notes) == 0 {
		return model.NewInstrument(0, 0)
	}
	channels := make(map[uint8]bool)
	for _, n := range notes {
		channels[n.Channel] = true
	}
	if channels[model.PercussionChannel] {
		return model.NewInstrument(0, model.PercussionChannel)
	}

	channel := notes[0].Channel
	var program uint8
	for _, e := range events {
		if e.Kind == model.BridgeProgramChange && channels[e.Channel] {
			program = e.Program
			channel = e.Channel
		}
	}
	return model.NewInstrument(program, channel)
}
