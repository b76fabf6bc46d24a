package song

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/jsphweid/midi2mml/midi"
	"github.com/jsphweid/midi2mml/model"
	"github.com/jsphweid/midi2mml/track"
	"github.com/jsphweid/midi2mml/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

var log = logrus.WithField("source", "song")

type Song struct {
	PPQ     uint16            `json:"ppq"`
	Tracks  []*track.Track    `json:"tracks"`
	Options model.SongOptions `json:"options"`

	// velocity shift of the last auto boot, reused for tracks compiled later
	LastVelocityDiff uint8 `json:"last_velocity_diff,omitempty"`
}

// Load builds a song from MIDI bytes. Tracks without notes are dropped.
func Load(dat []byte, opts model.SongOptions) (*Song, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f, err := midi.ExtractBytes(dat)
	if err != nil {
		return nil, err
	}

	var sources []midi.TrackEvents
	for _, te := range f.Tracks {
		if len(te.Notes) > 0 {
			sources = append(sources, te)
		}
	}

	s := &Song{PPQ: f.PPQ, Options: opts, Tracks: make([]*track.Track, len(sources))}
	var wg sync.WaitGroup
	for i, te := range sources {
		wg.Add(1)
		go func(i int, te midi.TrackEvents) {
			defer wg.Done()
			s.Tracks[i] = track.New(te.Name, f.Meta, te.Notes, opts, f.PPQ)
		}(i, te)
	}
	wg.Wait()

	s.applyAutoBoot()
	log.WithFields(logrus.Fields{"tracks": len(s.Tracks), "ppq": s.PPQ}).Debug("loaded song")
	return s, nil
}

func LoadFile(path string, opts model.SongOptions) (*Song, error) {
	dat, err := util.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Load(dat, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load %s", path)
	}
	return s, nil
}

// FromJSON restores a saved song and regenerates every track's MML events.
func FromJSON(dat []byte) (*Song, error) {
	var s Song
	if err := json.Unmarshal(dat, &s); err != nil {
		return nil, model.WithKind(model.ErrParse, err, "invalid song json")
	}
	if s.Options.SmallestUnit == 0 {
		s.Options.SmallestUnit = model.DefaultSmallestUnit
	}
	if s.PPQ == 0 {
		s.PPQ = model.DefaultPPQ
	}
	if err := s.Options.Validate(); err != nil {
		return nil, err
	}
	diff := s.LastVelocityDiff
	s.recompileAll()
	if s.LastVelocityDiff == 0 {
		s.LastVelocityDiff = diff
	}
	return &s, nil
}

func LoadJSON(path string) (*Song, error) {
	dat, err := util.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := FromJSON(dat)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load %s", path)
	}
	return s, nil
}

func (s *Song) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func (s *Song) Save(path string) error {
	dat, err := s.JSON()
	if err != nil {
		return errors.Wrap(err, "could not encode song")
	}
	return model.WithKind(model.ErrIo, os.WriteFile(path, dat, 0666), "could not write %s", path)
}

// SetOptions recompiles every track with opts.
func (s *Song) SetOptions(opts model.SongOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	s.Options = opts
	s.recompileAll()
	return nil
}

func (s *Song) recompileAll() {
	var wg sync.WaitGroup
	for _, t := range s.Tracks {
		wg.Add(1)
		go func(t *track.Track) {
			defer wg.Done()
			if t.PPQ == 0 {
				t.PPQ = s.PPQ
			}
			t.Recompile(s.Options)
		}(t)
	}
	wg.Wait()
	s.LastVelocityDiff = 0
	s.applyAutoBoot()
}

// applyAutoBoot raises all velocities so the loudest reaches VelocityMax.
func (s *Song) applyAutoBoot() {
	if !s.Options.AutoBootVelocity {
		return
	}
	var max uint8
	found := false
	for _, t := range s.Tracks {
		if v, ok := t.MaxVelocity(); ok {
			max = util.Max(max, v)
			found = true
		}
	}
	if !found || max >= s.Options.VelocityMax {
		return
	}
	diff := s.Options.VelocityMax - max
	for _, t := range s.Tracks {
		t.Boost(diff)
	}
	s.LastVelocityDiff = diff
	log.WithField("diff", diff).Debug("boosted velocities")
}

// reboost applies the cached auto boot shift to freshly compiled tracks.
func (s *Song) reboost(tracks ...*track.Track) {
	if !s.Options.AutoBootVelocity || s.LastVelocityDiff == 0 {
		return
	}
	for _, t := range tracks {
		t.Boost(s.LastVelocityDiff)
	}
}

func (s *Song) checkIndex(indexes ...int) error {
	for _, i := range indexes {
		if i < 0 || i >= len(s.Tracks) {
			return errors.Wrapf(model.ErrOutOfRange, "track index %d (song has %d tracks)", i, len(s.Tracks))
		}
	}
	return nil
}

func (s *Song) Track(index int) (*track.Track, error) {
	if err := s.checkIndex(index); err != nil {
		return nil, err
	}
	return s.Tracks[index], nil
}

// Split replaces the track at index with its first half and inserts the
// second half right after it.
func (s *Song) Split(index int) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	a, b := s.Tracks[index].Split()
	s.reboost(a, b)
	s.Tracks[index] = a
	s.Tracks = slices.Insert(s.Tracks, index+1, b)
	log.WithFields(logrus.Fields{"index": index, "a": a.NoteCount(), "b": b.NoteCount()}).Debug("split track")
	return nil
}

// Merge folds track b into track a and removes b.
func (s *Song) Merge(a, b int) error {
	if err := s.checkIndex(a, b); err != nil {
		return err
	}
	if a == b {
		return errors.Wrapf(model.ErrOutOfRange, "cannot merge track %d with itself", a)
	}
	merged := track.Merge(s.Tracks[a], s.Tracks[b])
	s.reboost(merged)
	s.Tracks[a] = merged
	s.Tracks = slices.Delete(s.Tracks, b, b+1)
	return nil
}

func (s *Song) Equalize(a, b int) error {
	if err := s.checkIndex(a, b); err != nil {
		return err
	}
	if a == b {
		return nil
	}
	if track.Equalize(s.Tracks[a], s.Tracks[b]) {
		s.reboost(s.Tracks[a], s.Tracks[b])
	}
	return nil
}

func (s *Song) Rename(index int, name string) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	s.Tracks[index].Name = name
	return nil
}

func (s *Song) ApplyKeymap(index int, keymap map[uint8]uint8) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	s.Tracks[index].ApplyKeymap(keymap)
	s.reboost(s.Tracks[index])
	return nil
}

func (s *Song) Mml(index int) (string, error) {
	t, err := s.Track(index)
	if err != nil {
		return "", err
	}
	return t.Mml(), nil
}

func (s *Song) ListTracks() []model.TrackSummary {
	res := make([]model.TrackSummary, len(s.Tracks))
	for i, t := range s.Tracks {
		res[i] = t.Summary(i)
	}
	return res
}
