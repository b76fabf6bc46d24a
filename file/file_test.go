package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/midi2mml/model"
	"github.com/jsphweid/midi2mml/sample"
	"github.com/jsphweid/midi2mml/song"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoBytes(t *testing.T) []byte {
	dat, err := sample.Bytes(sample.Demo())
	require.NoError(t, err)
	return dat
}

func TestDetectKind(t *testing.T) {
	assert.Equal(t, KindMidi, DetectKind("a/b/song.MID"))
	assert.Equal(t, KindMidi, DetectKind("song.midi"))
	assert.Equal(t, KindJSON, DetectKind("song.json"))
	assert.Equal(t, KindUnknown, DetectKind("song"))
}

func TestLoadWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	dat := demoBytes(t)

	midiPath := filepath.Join(dir, "demo")
	require.NoError(t, os.WriteFile(midiPath, dat, 0666))
	s, kind, err := Load(midiPath, model.DefaultSongOptions())
	require.NoError(t, err)
	assert.Equal(t, KindMidi, kind)
	assert.Len(t, s.Tracks, 2)

	jsonPath := filepath.Join(dir, "saved")
	require.NoError(t, s.Save(jsonPath))
	restored, kind, err := Load(jsonPath, model.DefaultSongOptions())
	require.NoError(t, err)
	assert.Equal(t, KindJSON, kind)
	mml, err := restored.Mml(0)
	require.NoError(t, err)
	want, _ := s.Mml(0)
	assert.Equal(t, want, mml)
}

func TestLoadGarbage(t *testing.T) {
	_, _, err := LoadBytes([]byte("hello"), KindUnknown, model.DefaultSongOptions())
	assert.ErrorIs(t, err, model.ErrParse)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.mid"), model.DefaultSongOptions())
	assert.ErrorIs(t, err, model.ErrIo)
}

func TestUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.json")
	s, err := song.Load(demoBytes(t), model.DefaultSongOptions())
	require.NoError(t, err)
	require.NoError(t, s.Save(path))

	_, err = Update(path, func(s *song.Song) error {
		return s.Rename(1, "chords")
	})
	require.NoError(t, err)

	restored, err := song.LoadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, "chords", restored.Tracks[1].Name)

	_, err = Update(path, func(s *song.Song) error {
		return s.Rename(5, "nope")
	})
	assert.ErrorIs(t, err, model.ErrOutOfRange)
}
