package song

import (
	"path/filepath"
	"testing"

	"github.com/jsphweid/midi2mml/model"
	"github.com/jsphweid/midi2mml/parser"
	"github.com/jsphweid/midi2mml/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, opts model.SongOptions, tracks ...[]model.BridgeEvent) *Song {
	dat, err := sample.Bytes(sample.Create(model.DefaultPPQ, tracks...))
	require.NoError(t, err)
	s, err := Load(dat, opts)
	require.NoError(t, err)
	return s
}

func demo(t *testing.T) *Song {
	dat, err := sample.Bytes(sample.Demo())
	require.NoError(t, err)
	s, err := Load(dat, model.DefaultSongOptions())
	require.NoError(t, err)
	return s
}

// tempoPosition is where, in 1/64 notes, the parsed MML first plays at bpm.
func tempoPosition(t *testing.T, mml string, bpm uint32) float64 {
	notes, err := parser.Parse(mml)
	require.NoError(t, err)
	pos := 0.0
	for _, n := range notes {
		if n.Tempo == bpm {
			return pos
		}
		if !n.IsConnectedToPrev {
			pos += n.Duration64
		}
	}
	t.Fatalf("no tempo %d in %s", bpm, mml)
	return 0
}

func TestLoadDropsEmptyTracks(t *testing.T) {
	s := load(t, model.DefaultSongOptions(),
		[]model.BridgeEvent{model.NewTempo(120, 0)},
		[]model.BridgeEvent{model.NewNote(60, 64, 0, 480, 0)},
	)
	require.Len(t, s.Tracks, 1)
	assert.Equal(t, uint16(model.DefaultPPQ), s.PPQ)

	mml, err := s.Mml(0)
	require.NoError(t, err)
	assert.Contains(t, mml, "v7o4c4")
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load([]byte("MThd garbage"), model.DefaultSongOptions())
	assert.ErrorIs(t, err, model.ErrParse)

	opts := model.DefaultSongOptions()
	opts.VelocityMin = 16
	_, err = Load(nil, opts)
	assert.ErrorIs(t, err, model.ErrOutOfRange)
}

func TestTempoReachesEveryTrack(t *testing.T) {
	s := load(t, model.DefaultSongOptions(),
		[]model.BridgeEvent{
			model.NewTempo(150, 480),
			model.NewNote(60, 64, 0, 480, 0),
			model.NewNote(62, 64, 480, 480, 0),
		},
		[]model.BridgeEvent{
			model.NewNote(64, 64, 0, 480, 1),
			model.NewNote(65, 64, 960, 480, 1),
		},
	)
	require.Len(t, s.Tracks, 2)
	for i := range s.Tracks {
		mml, err := s.Mml(i)
		require.NoError(t, err)
		assert.Contains(t, mml, "t150")
		assert.Equal(t, 16.0, tempoPosition(t, mml, 150), mml)
	}
}

func TestAutoBoot(t *testing.T) {
	opts := model.DefaultSongOptions()
	opts.AutoBootVelocity = true
	s := load(t, opts,
		[]model.BridgeEvent{model.NewNote(60, 64, 0, 480, 0)},
		[]model.BridgeEvent{model.NewNote(64, 32, 0, 480, 1)},
	)

	max, ok := s.Tracks[0].MaxVelocity()
	require.True(t, ok)
	assert.Equal(t, opts.VelocityMax, max)
	assert.Equal(t, uint8(8), s.LastVelocityDiff)

	before := []string{s.Tracks[0].Mml(), s.Tracks[1].Mml()}
	s.applyAutoBoot()
	assert.Equal(t, before, []string{s.Tracks[0].Mml(), s.Tracks[1].Mml()})

	require.NoError(t, s.SetOptions(opts))
	assert.Equal(t, before, []string{s.Tracks[0].Mml(), s.Tracks[1].Mml()})
}

func maxVelocities(s *Song) []uint8 {
	var res []uint8
	for _, tr := range s.Tracks {
		v, _ := tr.MaxVelocity()
		res = append(res, v)
	}
	return res
}

func TestEqualizeKeepsBoostedVelocities(t *testing.T) {
	opts := model.DefaultSongOptions()
	opts.AutoBootVelocity = true
	s := load(t, opts,
		[]model.BridgeEvent{model.NewNote(60, 64, 0, 480, 0)},
		[]model.BridgeEvent{model.NewNote(64, 32, 0, 480, 1)},
	)
	before := []string{s.Tracks[0].Mml(), s.Tracks[1].Mml()}

	require.NoError(t, s.Equalize(0, 1))
	assert.Equal(t, before, []string{s.Tracks[0].Mml(), s.Tracks[1].Mml()})
	assert.Equal(t, []uint8{15, 11}, maxVelocities(s))
}

func TestEqualizeReboostsMovedNotes(t *testing.T) {
	opts := model.DefaultSongOptions()
	opts.AutoBootVelocity = true
	var heavy []model.BridgeEvent
	for i := uint32(0); i < 10; i++ {
		heavy = append(heavy, model.NewNote(60, 64, i*480, 480, 0))
	}
	s := load(t, opts,
		heavy,
		[]model.BridgeEvent{
			model.NewNote(48, 32, 4800, 480, 1),
			model.NewNote(50, 32, 5280, 480, 1),
		},
	)

	require.NoError(t, s.Equalize(0, 1))
	assert.Equal(t, 6, s.Tracks[0].NoteLength)
	assert.Equal(t, 6, s.Tracks[1].NoteLength)
	assert.Equal(t, []uint8{15, 15}, maxVelocities(s))
}

func TestIndexErrors(t *testing.T) {
	s := demo(t)

	assert.ErrorIs(t, s.Split(2), model.ErrOutOfRange)
	assert.ErrorIs(t, s.Merge(0, 0), model.ErrOutOfRange)
	assert.ErrorIs(t, s.Merge(0, 5), model.ErrOutOfRange)
	assert.ErrorIs(t, s.Equalize(-1, 0), model.ErrOutOfRange)
	assert.ErrorIs(t, s.Rename(-1, "x"), model.ErrOutOfRange)
	assert.ErrorIs(t, s.ApplyKeymap(3, nil), model.ErrOutOfRange)
	_, err := s.Mml(2)
	assert.ErrorIs(t, err, model.ErrOutOfRange)
	assert.Len(t, s.Tracks, 2)
}

func TestSplitAndMerge(t *testing.T) {
	s := demo(t)
	before, err := s.Mml(1)
	require.NoError(t, err)
	count := s.Tracks[1].NoteCount()

	require.NoError(t, s.Split(1))
	require.Len(t, s.Tracks, 3)
	assert.Equal(t, count, s.Tracks[1].NoteCount()+s.Tracks[2].NoteCount())

	require.NoError(t, s.Merge(1, 2))
	require.Len(t, s.Tracks, 2)
	after, err := s.Mml(1)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestJSONRoundTrip(t *testing.T) {
	s := demo(t)
	require.NoError(t, s.Rename(0, "melody"))

	path := filepath.Join(t.TempDir(), "song.json")
	require.NoError(t, s.Save(path))
	restored, err := LoadJSON(path)
	require.NoError(t, err)

	require.Len(t, restored.Tracks, len(s.Tracks))
	for i, tr := range s.Tracks {
		assert.Equal(t, tr.ID, restored.Tracks[i].ID)
		assert.Equal(t, tr.Name, restored.Tracks[i].Name)
		assert.Equal(t, tr.Instrument, restored.Tracks[i].Instrument)
		assert.Equal(t, tr.Mml(), restored.Tracks[i].Mml())
	}
	assert.Equal(t, s.Options, restored.Options)

	_, err = FromJSON([]byte("{"))
	assert.ErrorIs(t, err, model.ErrParse)
}

func TestListTracks(t *testing.T) {
	s := demo(t)
	tracks := s.ListTracks()
	require.Len(t, tracks, 2)
	assert.Equal(t, 1, tracks[1].Index)
	assert.Equal(t, 8, tracks[0].NoteCount)
	assert.Equal(t, 12, tracks[1].NoteCount)
	assert.NotEmpty(t, tracks[0].ID)
	assert.NotEqual(t, tracks[0].ID, tracks[1].ID)
}
