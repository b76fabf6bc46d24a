// Package file loads songs from disk, accepting either a MIDI file or a
// saved song JSON.
package file

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/jsphweid/midi2mml/model"
	"github.com/jsphweid/midi2mml/song"
	"github.com/jsphweid/midi2mml/util"
	"github.com/pkg/errors"
)

type Kind uint8

const (
	KindUnknown Kind = iota
	KindMidi
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindMidi:
		return "midi"
	case KindJSON:
		return "json"
	}
	return "unknown"
}

// DetectKind guesses the input kind from the file extension.
func DetectKind(path string) Kind {
	if util.IsMidiPath(path) {
		return KindMidi
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return KindJSON
	}
	return KindUnknown
}

// sniff guesses the input kind from the content.
func sniff(dat []byte) Kind {
	if bytes.HasPrefix(dat, []byte("MThd")) {
		return KindMidi
	}
	if trimmed := bytes.TrimSpace(dat); len(trimmed) > 0 && trimmed[0] == '{' {
		return KindJSON
	}
	return KindUnknown
}

// LoadBytes builds a song from dat. An unknown kind tries MIDI first and
// then JSON.
func LoadBytes(dat []byte, kind Kind, opts model.SongOptions) (*song.Song, Kind, error) {
	if kind == KindUnknown {
		kind = sniff(dat)
	}
	switch kind {
	case KindMidi:
		s, err := song.Load(dat, opts)
		return s, kind, err
	case KindJSON:
		s, err := song.FromJSON(dat)
		return s, kind, err
	}

	s, midiErr := song.Load(dat, opts)
	if midiErr == nil {
		return s, KindMidi, nil
	}
	s, jsonErr := song.FromJSON(dat)
	if jsonErr == nil {
		return s, KindJSON, nil
	}
	return nil, KindUnknown, errors.Wrapf(model.ErrParse, "neither midi (%v) nor song json (%v)", midiErr, jsonErr)
}

func Load(path string, opts model.SongOptions) (*song.Song, Kind, error) {
	dat, err := util.ReadFile(path)
	if err != nil {
		return nil, KindUnknown, err
	}
	s, kind, err := LoadBytes(dat, DetectKind(path), opts)
	if err != nil {
		return nil, kind, errors.Wrapf(err, "could not load %s", path)
	}
	return s, kind, nil
}

// Update loads the song JSON at path, applies fn and writes it back.
func Update(path string, fn func(*song.Song) error) (*song.Song, error) {
	s, err := song.LoadJSON(path)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := s.Save(path); err != nil {
		return nil, err
	}
	return s, nil
}
