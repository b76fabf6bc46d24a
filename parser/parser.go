// Package parser reads MML back into timed note events.
package parser

import (
	"unicode"

	"github.com/jsphweid/midi2mml/constants"
	"github.com/jsphweid/midi2mml/model"
	"github.com/pkg/errors"
)

type state struct {
	octave   int
	velocity int
	tempo    uint32
	connect  bool
}

type scanner struct {
	src []rune
	pos int
}

func (s *scanner) peek() rune {
	if s.pos < len(s.src) {
		return unicode.ToLower(s.src[s.pos])
	}
	return 0
}

// number reads a run of decimal digits. ok is false when there are none.
func (s *scanner) number() (value int, ok bool) {
	start := s.pos
	for s.pos < len(s.src) && s.src[s.pos] >= '0' && s.src[s.pos] <= '9' {
		if value < 1<<20 {
			value = value*10 + int(s.src[s.pos]-'0')
		}
		s.pos++
	}
	return value, s.pos > start
}

func (s *scanner) requireNumber(what string, at int) (int, error) {
	value, ok := s.number()
	if !ok {
		return 0, errors.Wrapf(model.ErrParse, "missing %s value at offset %d", what, at)
	}
	return value, nil
}

func isNoteLetter(r rune) bool {
	switch r {
	case 'c', 'd', 'e', 'f', 'g', 'a', 'b', 'r':
		return true
	}
	return false
}

var letterPitch = map[rune]model.Pitch{
	'c': model.PitchC, 'd': model.PitchD, 'e': model.PitchE, 'f': model.PitchF,
	'g': model.PitchG, 'a': model.PitchA, 'b': model.PitchB, 'r': model.PitchRest,
}

// Parse reads one MML track. Offsets in the returned events are rune
// offsets into mml.
func Parse(mml string) ([]model.NoteEvent, error) {
	st := state{
		octave:   constants.DefaultOctave,
		velocity: constants.DefaultVelocity,
		tempo:    constants.DefaultTempo,
	}
	sc := &scanner{src: []rune(mml)}
	var res []model.NoteEvent

	for sc.pos < len(sc.src) {
		at := sc.pos
		c := sc.peek()
		switch {
		case c == 't':
			sc.pos++
			tempo, err := sc.requireNumber("tempo", at)
			if err != nil {
				return nil, err
			}
			if tempo == 0 {
				return nil, errors.Wrapf(model.ErrParse, "tempo 0 at offset %d", at)
			}
			st.tempo = uint32(tempo)
		case c == 'o':
			sc.pos++
			octave, err := sc.requireNumber("octave", at)
			if err != nil {
				return nil, err
			}
			st.octave = octave
		case c == 'v':
			sc.pos++
			velocity, err := sc.requireNumber("velocity", at)
			if err != nil {
				return nil, err
			}
			if velocity > 15 {
				velocity = 15
			}
			st.velocity = velocity
		case c == '>':
			sc.pos++
			st.octave++
		case c == '<':
			sc.pos++
			if st.octave > 0 {
				st.octave--
			}
		case c == ':':
			sc.pos++
			st.connect = true
		case isNoteLetter(c):
			n, err := sc.note(&st)
			if err != nil {
				return nil, err
			}
			res = append(res, n)
		default:
			sc.pos++
		}
	}
	return res, nil
}

// note reads a note or rest including every tied length, e.g. "c+4.&c+16".
func (s *scanner) note(st *state) (model.NoteEvent, error) {
	start := s.pos
	letter := s.peek()
	s.pos++
	pitch := letterPitch[letter]
	sharp := false
	octave := st.octave
	if letter != 'r' && (s.peek() == '+' || s.peek() == '#') {
		sharp = true
		s.pos++
		if pitch == model.PitchB {
			pitch = model.PitchC
			octave++
		} else {
			pitch++
		}
	}

	var units float64
	for {
		at := s.pos
		value, ok := s.number()
		if !ok {
			value = 4
		}
		if value == 0 {
			return model.NoteEvent{}, errors.Wrapf(model.ErrParse, "invalid note length at offset %d", at)
		}
		base := 64 / float64(value)
		units += base
		if s.peek() == '.' {
			units += base / 2
			s.pos++
		}

		if s.peek() != '&' {
			break
		}
		next := s.pos + 1
		if next < len(s.src) && unicode.ToLower(s.src[next]) == letter {
			next++
			if sharp && next < len(s.src) && (s.src[next] == '+' || s.src[next] == '#') {
				next++
			}
		} else if next >= len(s.src) || s.src[next] < '0' || s.src[next] > '9' {
			break
		}
		s.pos = next
	}

	if octave > 10 {
		octave = 10
	}
	n := model.NoteEvent{
		CharIndex:         start,
		CharLength:        s.pos - start,
		Pitch:             pitch,
		Octave:            uint8(octave),
		Velocity:          uint8(st.velocity),
		Tempo:             st.tempo,
		Duration64:        units,
		IsConnectedToPrev: st.connect,
		DurationMs:        model.DurationToMs(units, st.tempo),
	}
	st.connect = false
	return n, nil
}

// ParseTracks parses several tracks; the first failure stops parsing.
func ParseTracks(mmls []string) ([][]model.NoteEvent, error) {
	res := make([][]model.NoteEvent, len(mmls))
	for i, mml := range mmls {
		notes, err := Parse(mml)
		if err != nil {
			return nil, errors.Wrapf(err, "track %d", i)
		}
		res[i] = notes
	}
	return res, nil
}
