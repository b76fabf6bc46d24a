package track

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jsphweid/midi2mml/midi"
	"github.com/jsphweid/midi2mml/model"
	"github.com/jsphweid/midi2mml/quantize"
)

// Track is one MML voice. Meta and Notes are the source of truth; Events is
// regenerated from them by every compile.
type Track struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Instrument model.Instrument    `json:"instrument"`
	PPQ        uint16              `json:"ppq"`
	Meta       []model.BridgeEvent `json:"meta"`
	Notes      []model.BridgeEvent `json:"notes"`
	Options    model.SongOptions   `json:"options"`

	Events     []model.MmlEvent `json:"-"`
	NoteLength int              `json:"-"`
}

// New builds and compiles a track. The instrument is detected from the
// program changes in meta.
func New(name string, meta, notes []model.BridgeEvent, opts model.SongOptions, ppq uint16) *Track {
	t := &Track{
		ID:      uuid.New().String(),
		Name:    name,
		PPQ:     ppq,
		Meta:    append([]model.BridgeEvent(nil), meta...),
		Notes:   append([]model.BridgeEvent(nil), notes...),
		Options: opts,
	}
	midi.SortEvents(t.Notes)
	res := t.compile()
	t.Instrument = res.Instrument
	return t
}

func (t *Track) compile() Result {
	res := Compile(t.Meta, t.Notes, t.Options, t.PPQ)
	t.Events = res.Events
	t.NoteLength = res.NoteLength
	return res
}

// Recompile regenerates the MML events with opts. The instrument is kept.
func (t *Track) Recompile(opts model.SongOptions) {
	t.Options = opts
	t.compile()
}

// ApplyKeymap remaps the keys of every note and recompiles.
func (t *Track) ApplyKeymap(keymap map[uint8]uint8) {
	for i, n := range t.Notes {
		if to, ok := keymap[n.Key]; ok {
			t.Notes[i].Key = to & 0x7f
		}
	}
	t.compile()
}

func (t *Track) NoteCount() int {
	return len(t.Notes)
}

// MaxVelocity is the loudest Velocity event of the track.
func (t *Track) MaxVelocity() (uint8, bool) {
	var max uint8
	found := false
	for _, e := range t.Events {
		if e.Kind == model.MmlVelocity && (!found || uint8(e.Value) > max) {
			max = uint8(e.Value)
			found = true
		}
	}
	return max, found
}

// Boost raises every velocity by diff.
func (t *Track) Boost(diff uint8) {
	if diff == 0 {
		return
	}
	for i, e := range t.Events {
		switch e.Kind {
		case model.MmlVelocity:
			t.Events[i].Value += uint32(diff)
		case model.MmlNoteEvent:
			e.Note.Velocity += diff
		}
	}
}

func (t *Track) Summary(index int) model.TrackSummary {
	return model.TrackSummary{
		Index:      index,
		ID:         t.ID,
		Name:       t.Name,
		Instrument: t.Instrument,
		NoteCount:  t.NoteCount(),
		NoteLength: t.NoteLength,
	}
}

// Mml renders the track as MML text.
func (t *Track) Mml() string {
	return ToMml(t.Events, t.Options.SmallestUnit)
}

func ToMml(events []model.MmlEvent, unit uint32) string {
	var sb strings.Builder
	for _, e := range events {
		switch e.Kind {
		case model.MmlTempo:
			sb.WriteString("t" + strconv.FormatUint(uint64(e.Value), 10))
		case model.MmlOctave:
			sb.WriteString("o" + strconv.FormatUint(uint64(e.Value), 10))
		case model.MmlIncreOctave:
			sb.WriteByte('>')
		case model.MmlDecreOctave:
			sb.WriteByte('<')
		case model.MmlVelocity:
			sb.WriteString("v" + strconv.FormatUint(uint64(e.Value), 10))
		case model.MmlConnectChord:
			sb.WriteByte(':')
		case model.MmlRest:
			text, _ := quantize.Render(model.PitchRest.String(), e.Value, unit)
			sb.WriteString(text)
		case model.MmlNoteEvent:
			sb.WriteString(e.Note.Text)
		}
	}
	return sb.String()
}
