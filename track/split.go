package track

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jsphweid/midi2mml/chord"
	"github.com/jsphweid/midi2mml/constants"
	"github.com/jsphweid/midi2mml/midi"
	"github.com/jsphweid/midi2mml/model"
	"github.com/jsphweid/midi2mml/quantize"
	"github.com/jsphweid/midi2mml/util"
)

func (t *Track) derive(name string, notes []model.BridgeEvent) *Track {
	d := &Track{
		ID:         uuid.New().String(),
		Name:       name,
		Instrument: t.Instrument,
		PPQ:        t.PPQ,
		Meta:       append([]model.BridgeEvent(nil), t.Meta...),
		Notes:      notes,
		Options:    t.Options,
	}
	midi.SortEvents(d.Notes)
	d.compile()
	return d
}

// partition splits the notes in two: a keeps chords and every note that
// starts once the notes already in a have ended, b gets the overlapping rest.
func (t *Track) partition() (a, b []model.BridgeEvent) {
	gap := quantize.SUToTick(uint32(t.Options.MinGapForChord), t.PPQ, t.Options.SmallestUnit)
	var last *model.BridgeEvent
	var maxEnd uint32
	for i := range t.Notes {
		n := t.Notes[i]
		if (last != nil && chord.Adjacent(n.Position, last.Position, gap)) || n.Position >= maxEnd {
			a = append(a, n)
			last = &t.Notes[i]
			if n.End() > maxEnd {
				maxEnd = n.End()
			}
			continue
		}
		b = append(b, n)
	}
	return a, b
}

// Split divides the track into two tracks that both keep the meta events and
// the instrument. With AutoEqualizeNoteLength an unbalanced result is
// rebalanced.
func (t *Track) Split() (*Track, *Track) {
	notesA, notesB := t.partition()
	a := t.derive(t.Name, notesA)
	b := t.derive(fmt.Sprintf("%s (2)", t.Name), notesB)

	if t.Options.AutoEqualizeNoteLength && unbalanced(a.NoteLength, b.NoteLength) {
		Equalize(a, b)
	}
	return a, b
}

func unbalanced(la, lb int) bool {
	if la > constants.EqualizeTokenThreshold || lb > constants.EqualizeTokenThreshold {
		return true
	}
	return la > 2*lb || lb > 2*la
}

// Merge builds a new track holding the notes of both tracks. It takes the
// instrument of a.
func Merge(a, b *Track) *Track {
	notes := make([]model.BridgeEvent, 0, len(a.Notes)+len(b.Notes))
	notes = append(notes, a.Notes...)
	notes = append(notes, b.Notes...)
	m := a.derive(a.Name+"+"+b.Name, notes)
	m.ID = a.ID
	return m
}

// Equalize moves the earliest notes of the heavier track to the lighter one
// until their note lengths are about even. Notes that start together move
// together. It reports whether the tracks were recompiled.
func Equalize(a, b *Track) bool {
	heavy, light := a, b
	if b.NoteLength > a.NoteLength {
		heavy, light = b, a
	}
	gap := util.Abs(heavy.NoteLength-light.NoteLength) / 2
	if gap <= 0 {
		return false
	}

	count, acc := 0, 0
	for _, e := range heavy.Events {
		if e.Kind != model.MmlNoteEvent {
			continue
		}
		acc += e.Note.NoteLength
		count++
		if acc >= gap {
			break
		}
	}
	for count < len(heavy.Notes) && heavy.Notes[count].Position == heavy.Notes[count-1].Position {
		count++
	}

	moved := heavy.Notes[:count:count]
	light.Notes = append(append([]model.BridgeEvent(nil), moved...), light.Notes...)
	heavy.Notes = append([]model.BridgeEvent(nil), heavy.Notes[count:]...)
	midi.SortEvents(light.Notes)
	heavy.compile()
	light.compile()
	return true
}
