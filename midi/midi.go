package midi

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/jsphweid/midi2mml/model"
	"github.com/jsphweid/midi2mml/util"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// File is a MIDI file reduced to bridge events. Meta holds the tempo and
// program changes of every track; Tracks holds only note events.
type File struct {
	PPQ    uint16
	Meta   []model.BridgeEvent
	Tracks []TrackEvents
}

type TrackEvents struct {
	Index int
	Name  string
	Notes []model.BridgeEvent
}

func ReadMidiFile(path string) (*smf.SMF, error) {
	dat, err := util.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := ReadMidiBytes(dat)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse %s", path)
	}
	return s, nil
}

func ReadMidiBytes(dat []byte) (s *smf.SMF, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s = nil
			e = errors.Wrapf(model.ErrParse, "midi reader panicked: %v", r)
		}
	}()

	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, model.WithKind(model.ErrParse, err, "error parsing midi file")
	}
	return res, nil
}

func PPQ(s *smf.SMF) uint16 {
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok && mt.Resolution() > 0 {
		return mt.Resolution()
	}
	return model.DefaultPPQ
}

// Extract walks every track in parallel and converts it to bridge events.
func Extract(s *smf.SMF) File {
	res := File{PPQ: PPQ(s), Tracks: make([]TrackEvents, len(s.Tracks))}
	metas := make([][]model.BridgeEvent, len(s.Tracks))

	var wg sync.WaitGroup
	for i, track := range s.Tracks {
		wg.Add(1)
		go func(i int, track smf.Track) {
			defer wg.Done()
			res.Tracks[i], metas[i] = extractTrack(i, track)
		}(i, track)
	}
	wg.Wait()

	for _, meta := range metas {
		res.Meta = append(res.Meta, meta...)
	}
	SortEvents(res.Meta)
	return res
}

func ExtractBytes(dat []byte) (File, error) {
	s, err := ReadMidiBytes(dat)
	if err != nil {
		return File{}, err
	}
	return Extract(s), nil
}

type heldNote struct {
	position uint32
	velocity uint8
	order    int
}

type heldKey struct {
	channel uint8
	key     uint8
}

type orderedNote struct {
	event model.BridgeEvent
	order int
}

func extractTrack(index int, track smf.Track) (TrackEvents, []model.BridgeEvent) {
	res := TrackEvents{Index: index, Name: fmt.Sprintf("Track %d", index)}
	var meta []model.BridgeEvent
	var notes []orderedNote
	held := make(map[heldKey][]heldNote)
	opened := 0

	closeNote := func(k heldKey, tick uint32) {
		stack := held[k]
		if len(stack) == 0 {
			return
		}
		h := stack[0]
		held[k] = stack[1:]
		notes = append(notes, orderedNote{
			event: model.NewNote(k.key, h.velocity, h.position, tick-h.position, k.channel),
			order: h.order,
		})
	}

	var absTicks uint32
	for _, event := range track {
		absTicks += event.Delta
		var channel, key, velocity, program uint8
		var bpm float64
		var name string
		msg := midi.Message(event.Message)
		switch {
		case event.Message.GetMetaTempo(&bpm):
			meta = append(meta, model.NewTempo(bpmFromFloat(bpm), absTicks))
		case event.Message.GetMetaTrackName(&name):
			if name != "" {
				res.Name = name
			}
		case msg.GetProgramChange(&channel, &program):
			meta = append(meta, model.NewProgramChange(program, channel, absTicks))
		case msg.GetNoteStart(&channel, &key, &velocity):
			k := heldKey{channel: channel, key: key}
			held[k] = append(held[k], heldNote{position: absTicks, velocity: velocity, order: opened})
			opened++
		case msg.GetNoteEnd(&channel, &key):
			closeNote(heldKey{channel: channel, key: key}, absTicks)
		}
	}

	// notes never released end with the track
	var open []heldKey
	for k := range held {
		open = append(open, k)
	}
	sort.Slice(open, func(i, j int) bool {
		if open[i].channel != open[j].channel {
			return open[i].channel < open[j].channel
		}
		return open[i].key < open[j].key
	})
	for _, k := range open {
		for len(held[k]) > 0 {
			closeNote(k, absTicks)
		}
	}

	// prioritize earlier start, then the order notes were pressed
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].event.Position != notes[j].event.Position {
			return notes[i].event.Position < notes[j].event.Position
		}
		return notes[i].order < notes[j].order
	})
	for _, n := range notes {
		res.Notes = append(res.Notes, n.event)
	}
	return res, meta
}

// bpmFromFloat recovers the integer tempo 60_000_000 / microseconds per
// quarter from the reader's floating point bpm.
func bpmFromFloat(bpm float64) uint32 {
	if bpm <= 0 {
		return 0
	}
	mpq := uint32(60_000_000/bpm + 0.5)
	if mpq == 0 {
		return 0
	}
	return 60_000_000 / mpq
}

// SortEvents orders events by position; at equal positions non-note events
// come before notes. The sort is stable so arrival order breaks ties.
func SortEvents(events []model.BridgeEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Position != events[j].Position {
			return events[i].Position < events[j].Position
		}
		return !events[i].IsNote() && events[j].IsNote()
	})
}
