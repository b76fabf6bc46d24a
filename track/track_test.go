package track

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/jsphweid/midi2mml/chord"
	"github.com/jsphweid/midi2mml/model"
	"github.com/jsphweid/midi2mml/parser"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ppq = 480

func note(key uint8, position, duration uint32) model.BridgeEvent {
	return model.NewNote(key, 64, position, duration, 0)
}

func compileNotes(notes ...model.BridgeEvent) *Track {
	return New("test", nil, notes, model.DefaultSongOptions(), ppq)
}

func noteEvents(t *Track) []*model.MmlNote {
	var res []*model.MmlNote
	for _, e := range t.Events {
		if e.Kind == model.MmlNoteEvent {
			res = append(res, e.Note)
		}
	}
	return res
}

// assertPositionsPreserved checks that every time-advancing note starts where
// the durations before it say it does.
func assertPositionsPreserved(t *testing.T, tr *Track) {
	var cursor uint32
	for _, e := range tr.Events {
		switch e.Kind {
		case model.MmlRest:
			cursor += e.Value
		case model.MmlNoteEvent:
			if e.Note.IsPartOfChord {
				continue
			}
			require.Equal(t, e.Note.Position, cursor)
			cursor += e.Note.Duration
		}
	}
}

func TestSingleQuarterNote(t *testing.T) {
	tr := compileNotes(note(60, 0, 480))

	assert := assert.New(t)
	assert.Equal("v7o4c4", tr.Mml())
	assert.Equal(1, tr.NoteLength)
	notes := noteEvents(tr)
	require.Len(t, notes, 1)
	assert.Equal(uint8(4), notes[0].Octave)
	assert.Equal(model.PitchC, notes[0].Pitch)
}

func TestChordSharesDuration(t *testing.T) {
	tr := compileNotes(note(60, 0, 480), note(64, 0, 480), note(67, 0, 480))

	assert := assert.New(t)
	assert.Equal("v7o4c4:e4:g4", tr.Mml())
	notes := noteEvents(tr)
	require.Len(t, notes, 3)
	for _, n := range notes {
		assert.Equal(uint32(16), n.Duration)
	}
	assert.False(notes[0].IsPartOfChord)
	assert.True(notes[1].IsPartOfChord)
	assert.True(notes[2].IsPartOfChord)
}

func TestChordTakesLongestMember(t *testing.T) {
	tr := compileNotes(note(60, 0, 240), note(64, 0, 480), note(67, 480, 480))

	assert.Equal(t, "v7o4c4:e4g4", tr.Mml())
	assertPositionsPreserved(t, tr)
}

func TestChordFollowsShortenedLead(t *testing.T) {
	tr := compileNotes(note(60, 0, 480), note(64, 0, 480), note(62, 240, 480))

	assert.Equal(t, "v7o4c8:e8d4", tr.Mml())
	assertPositionsPreserved(t, tr)
}

func TestOverlappingNoteIsShortened(t *testing.T) {
	tr := compileNotes(note(60, 0, 480), note(62, 240, 480))
	assert.Equal(t, "v7o4c8d4", tr.Mml())
	assertPositionsPreserved(t, tr)
}

func TestRestsAndOctaveDeltas(t *testing.T) {
	tr := compileNotes(
		note(60, 480, 480),
		note(72, 960, 480),
		note(60, 1920, 480),
		note(84, 2400, 480),
		model.NewNote(83, 127, 2880, 480, 0),
	)
	assert.Equal(t, "r4v7o4c4>c4r4<c4o6c4<v15b4", tr.Mml())
	assertPositionsPreserved(t, tr)
}

func TestTempoReachesEveryTrack(t *testing.T) {
	meta := []model.BridgeEvent{model.NewTempo(150, 480)}
	first := New("a", meta, []model.BridgeEvent{note(60, 0, 480), note(62, 480, 480)}, model.DefaultSongOptions(), ppq)
	second := New("b", meta, []model.BridgeEvent{note(48, 0, 960)}, model.DefaultSongOptions(), ppq)
	third := New("c", meta, []model.BridgeEvent{note(48, 0, 240), note(50, 960, 480)}, model.DefaultSongOptions(), ppq)

	assert := assert.New(t)
	assert.Equal("v7o4c4t150d4", first.Mml())
	assert.Equal([]uint32{16}, tempoPositions(first))
	assert.Equal([]uint32{16}, tempoPositions(third))
	assert.Equal("v7o3c8r8t150r4d4", third.Mml())
	assert.Len(tempoPositions(second), 1)
	assertPositionsPreserved(t, third)
}

func TestTempoInsideNoteFollowsIt(t *testing.T) {
	meta := []model.BridgeEvent{model.NewTempo(150, 480)}
	tr := New("held", meta, []model.BridgeEvent{note(48, 0, 960), note(50, 960, 480)}, model.DefaultSongOptions(), ppq)

	assert := assert.New(t)
	assert.Equal("v7o3c2t150d4", tr.Mml())
	assert.Equal([]uint32{32}, tempoPositions(tr))
	assertPositionsPreserved(t, tr)
}

func tempoPositions(tr *Track) []uint32 {
	var res []uint32
	var cursor uint32
	for _, e := range tr.Events {
		switch e.Kind {
		case model.MmlTempo:
			res = append(res, cursor)
		case model.MmlRest:
			cursor += e.Value
		case model.MmlNoteEvent:
			if !e.Note.IsPartOfChord {
				cursor += e.Note.Duration
			}
		}
	}
	return res
}

func TestVelocityMapping(t *testing.T) {
	opts := model.DefaultSongOptions()
	opts.VelocityMin = 3
	opts.VelocityMax = 12
	tr := New("v", nil, []model.BridgeEvent{
		model.NewNote(60, 0, 0, 480, 0),
		model.NewNote(60, 127, 480, 480, 0),
	}, opts, ppq)

	notes := noteEvents(tr)
	assert := assert.New(t)
	assert.Equal(uint8(3), notes[0].Velocity)
	assert.Equal(uint8(12), notes[1].Velocity)
	max, ok := tr.MaxVelocity()
	assert.True(ok)
	assert.Equal(uint8(12), max)
}

func randomNotes(seed int64, count int) []model.BridgeEvent {
	r := rand.New(rand.NewSource(seed))
	var notes []model.BridgeEvent
	var pos uint32
	for i := 0; i < count; i++ {
		pos += uint32(r.Intn(4)) * 120
		notes = append(notes, model.NewNote(uint8(36+r.Intn(48)), uint8(r.Intn(128)), pos, uint32(30+r.Intn(8)*120), 0))
	}
	return notes
}

func TestCompiledTracksKeepInvariants(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		meta := []model.BridgeEvent{model.NewTempo(90, 960), model.NewTempo(140, 4800)}
		tr := New("random", meta, randomNotes(seed, 200), model.DefaultSongOptions(), ppq)

		assertPositionsPreserved(t, tr)
		assert.Len(t, tempoPositions(tr), 2)
		for _, group := range chord.Groups(tr.Events) {
			for _, i := range group {
				assert.Equal(t, tr.Events[group[0]].Note.Duration, tr.Events[i].Note.Duration)
			}
		}
		for i, e := range tr.Events {
			if e.Kind == model.MmlConnectChord {
				require.Greater(t, i, 0)
				assert.Equal(t, model.MmlNoteEvent, tr.Events[i-1].Kind)
				assert.Equal(t, model.MmlNoteEvent, nextAfterDeltas(tr.Events, i+1).Kind)
			}
		}
	}
}

func TestMmlParsesBackToCompiledEvents(t *testing.T) {
	for _, unit := range []uint32{32, 64, 128} {
		for seed := int64(1); seed <= 20; seed++ {
			t.Run(fmt.Sprintf("unit %d seed %d", unit, seed), func(t *testing.T) {
				opts := model.DefaultSongOptions()
				opts.SmallestUnit = unit
				meta := []model.BridgeEvent{model.NewTempo(90, 960)}
				tr := New("random", meta, randomNotes(seed, 100), opts, ppq)

				var compiled []model.MmlEvent
				for _, e := range tr.Events {
					if e.Kind == model.MmlNoteEvent || e.Kind == model.MmlRest {
						compiled = append(compiled, e)
					}
				}
				parsed, err := parser.Parse(tr.Mml())
				require.NoError(t, err)
				require.Len(t, parsed, len(compiled))

				assert := assert.New(t)
				for i, e := range compiled {
					got := parsed[i]
					if e.Kind == model.MmlRest {
						assert.True(got.IsRest(), "event %d", i)
						assert.InDelta(float64(e.Value)*64/float64(unit), got.Duration64, 1e-9, "event %d", i)
						continue
					}
					assert.Equal(e.Note.Pitch, got.Pitch, "event %d", i)
					assert.Equal(e.Note.Octave, got.Octave, "event %d", i)
					assert.Equal(e.Note.IsPartOfChord, got.IsConnectedToPrev, "event %d", i)
					assert.InDelta(float64(e.Note.Duration)*64/float64(unit), got.Duration64, 1e-9, "event %d", i)
				}
			})
		}
	}
}

// nextAfterDeltas skips the octave and velocity changes that may sit between
// a chord connector and its note.
func nextAfterDeltas(events []model.MmlEvent, i int) model.MmlEvent {
	for ; i < len(events); i++ {
		switch events[i].Kind {
		case model.MmlOctave, model.MmlIncreOctave, model.MmlDecreOctave, model.MmlVelocity:
			continue
		}
		return events[i]
	}
	return model.MmlEvent{}
}

func TestChordAcrossOctaves(t *testing.T) {
	tr := compileNotes(note(60, 0, 480), note(72, 0, 480), note(48, 0, 480))
	assert.Equal(t, "v7o4c4:>c4:o3c4", tr.Mml())
}

func TestInstrumentDetection(t *testing.T) {
	meta := []model.BridgeEvent{
		model.NewProgramChange(40, 1, 0),
		model.NewProgramChange(24, 0, 0),
		model.NewProgramChange(25, 0, 960),
	}
	assert := assert.New(t)

	guitar := New("g", meta, []model.BridgeEvent{note(60, 0, 480)}, model.DefaultSongOptions(), ppq)
	assert.Equal(uint8(25), guitar.Instrument.ID)
	assert.Equal("Acoustic Guitar (steel)", guitar.Instrument.Name)

	drums := New("d", meta, []model.BridgeEvent{model.NewNote(36, 100, 0, 120, 9)}, model.DefaultSongOptions(), ppq)
	assert.True(drums.Instrument.IsPercussion())
	assert.Equal(model.DrumSetName, drums.Instrument.Name)
}

func TestApplyKeymap(t *testing.T) {
	tr := compileNotes(note(60, 0, 480), note(62, 480, 480))
	tr.ApplyKeymap(map[uint8]uint8{62: 74})

	assert.Equal(t, "v7o4c4>d4", tr.Mml())
	assert.Equal(t, uint8(74), tr.Notes[1].Key)
}

func TestBoost(t *testing.T) {
	tr := compileNotes(note(60, 0, 480))
	tr.Boost(8)
	assert.Equal(t, "v15o4c4", tr.Mml())
}

func TestWarnsAboutKeysBelowOctaveZero(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	tr := compileNotes(note(5, 0, 480))

	assert := assert.New(t)
	assert.Equal("v7o0f4", tr.Mml())
	entry := hook.LastEntry()
	if assert.NotNil(entry) {
		assert.Equal(logrus.WarnLevel, entry.Level)
		assert.Equal(uint8(5), entry.Data["key"])
	}

	hook.Reset()
	compileNotes(note(12, 0, 480))
	assert.Empty(hook.AllEntries())
}
