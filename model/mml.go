package model

type Pitch uint8

const (
	PitchC Pitch = iota
	PitchCs
	PitchD
	PitchDs
	PitchE
	PitchF
	PitchFs
	PitchG
	PitchGs
	PitchA
	PitchAs
	PitchB
	PitchRest
)

var pitchSymbols = [...]string{"c", "c+", "d", "d+", "e", "f", "f+", "g", "g+", "a", "a+", "b", "r"}

func (p Pitch) String() string {
	if int(p) < len(pitchSymbols) {
		return pitchSymbols[p]
	}
	return "?"
}

// PitchFromKey splits a MIDI key into its pitch class and MML octave.
// Keys below 12 have no MML octave and clamp to octave 0.
func PitchFromKey(key uint8) (Pitch, uint8) {
	octave := int(key)/12 - 1
	if octave < 0 {
		octave = 0
	}
	return Pitch(key % 12), uint8(octave)
}

type MmlKind uint8

const (
	MmlTempo MmlKind = iota + 1
	MmlOctave
	MmlIncreOctave
	MmlDecreOctave
	MmlVelocity
	MmlConnectChord
	MmlNoteEvent
	MmlRest
)

type MmlNote struct {
	Pitch         Pitch  `json:"pitch"`
	Octave        uint8  `json:"octave"`
	Velocity      uint8  `json:"velocity"`
	Position      uint32 `json:"position"` // smallest units
	Duration      uint32 `json:"duration"` // smallest units
	IsPartOfChord bool   `json:"is_part_of_chord"`
	Text          string `json:"text"`
	NoteLength    int    `json:"note_length"`
}

// MmlEvent is one token of a compiled track. Value holds the tempo, octave,
// velocity or rest duration depending on Kind; Note is set for MmlNoteEvent.
type MmlEvent struct {
	Kind  MmlKind  `json:"kind"`
	Value uint32   `json:"value,omitempty"`
	Note  *MmlNote `json:"note,omitempty"`
}
