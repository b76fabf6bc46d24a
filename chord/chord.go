// Package chord groups simultaneous notes: the loose same-start attachment
// used while compiling, the wider adjacency used to split tracks, and chord
// spans used during playback.
package chord

import (
	"github.com/jsphweid/midi2mml/model"
	"golang.org/x/exp/constraints"
)

// Adjacent reports whether two starts lie within gap of each other.
func Adjacent[A constraints.Integer](a, b, gap A) bool {
	if a > b {
		return a-b <= gap
	}
	return b-a <= gap
}

// Duration is the duration of a chord: the longest of its members.
func Duration[A constraints.Integer](durations ...A) A {
	var res A
	for _, d := range durations {
		if d > res {
			res = d
		}
	}
	return res
}

// Groups returns the indexes of MML note events grouped into chords. A note
// that is not part of a chord forms a group of one.
func Groups(events []model.MmlEvent) [][]int {
	var res [][]int
	for i, e := range events {
		if e.Kind != model.MmlNoteEvent {
			continue
		}
		if e.Note.IsPartOfChord && len(res) > 0 {
			res[len(res)-1] = append(res[len(res)-1], i)
			continue
		}
		res = append(res, []int{i})
	}
	return res
}

// Span is the character range covered by a run of parsed notes.
func Span(notes []model.NoteEvent) (int, int) {
	if len(notes) == 0 {
		return 0, 0
	}
	first, last := notes[0], notes[len(notes)-1]
	return first.CharIndex, last.CharIndex + last.CharLength - first.CharIndex
}

func DurationMs(notes []model.NoteEvent) int64 {
	durations := make([]int64, len(notes))
	for i, n := range notes {
		durations[i] = n.DurationMs
	}
	return Duration(durations...)
}
