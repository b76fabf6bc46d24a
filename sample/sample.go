package sample

import (
	"bytes"
	"sort"

	"github.com/jsphweid/midi2mml/model"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

type timedMessage struct {
	tick  uint32
	off   bool
	order int
	msg   []byte
}

// Track builds one SMF track out of bridge events.
func Track(name string, events []model.BridgeEvent) smf.Track {
	var msgs []timedMessage
	add := func(tick uint32, off bool, msg []byte) {
		msgs = append(msgs, timedMessage{tick: tick, off: off, order: len(msgs), msg: msg})
	}
	for _, e := range events {
		switch e.Kind {
		case model.BridgeTempo:
			add(e.Position, false, smf.MetaTempo(float64(e.BPM)))
		case model.BridgeProgramChange:
			add(e.Position, false, midi.ProgramChange(e.Channel, e.Program))
		case model.BridgeNote:
			add(e.Position, false, midi.NoteOn(e.Channel, e.Key, e.Velocity))
			add(e.End(), true, midi.NoteOff(e.Channel, e.Key))
		}
	}

	// note offs first so that repeated keys are released before they restart
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].tick != msgs[j].tick {
			return msgs[i].tick < msgs[j].tick
		}
		return msgs[i].off && !msgs[j].off
	})

	var tr smf.Track
	if name != "" {
		tr.Add(0, smf.MetaTrackSequenceName(name))
	}
	var last uint32
	for _, m := range msgs {
		tr.Add(m.tick-last, m.msg)
		last = m.tick
	}
	tr.Close(0)
	return tr
}

// Create builds a format 1 file with one track per entry of tracks.
func Create(ppq uint16, tracks ...[]model.BridgeEvent) *smf.SMF {
	res := smf.NewSMF1()
	res.TimeFormat = smf.MetricTicks(ppq)
	for _, events := range tracks {
		res.Tracks = append(res.Tracks, Track("", events))
	}
	return res
}

func Bytes(s *smf.SMF) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "could not write midi file")
	}
	return buf.Bytes(), nil
}

// Excerpt copies mf keeping, per track, every non-note event and at most
// maxNotes note on/off messages at or after ticksOffset. Events before the
// offset are moved to its start.
func Excerpt(mf *smf.SMF, ticksOffset uint64, maxNotes int) *smf.SMF {
	res := smf.NewSMF1()
	res.TimeFormat = mf.TimeFormat

	for _, track := range mf.Tracks {
		var newTrack smf.Track
		var absTicks, lastKept uint64
		var numNoteOnOff int
		keep := func(msg smf.Message) {
			at := absTicks
			if at < ticksOffset {
				at = ticksOffset
			}
			newTrack.Add(uint32(at-ticksOffset-lastKept), msg)
			lastKept = at - ticksOffset
		}
	TrackEventLoop:
		for _, evt := range track {
			absTicks += uint64(evt.Delta)
			switch {
			case evt.Message.Is(midi.NoteOnMsg),
				evt.Message.Is(midi.NoteOffMsg):
				if absTicks >= ticksOffset {
					keep(evt.Message)
					numNoteOnOff += 1
					if numNoteOnOff >= maxNotes {
						break TrackEventLoop
					}
				}
			case isEndOfTrack(evt.Message):
			default:
				keep(evt.Message)
			}
		}
		newTrack.Close(0)
		res.Tracks = append(res.Tracks, newTrack)
	}

	return res
}

func isEndOfTrack(msg smf.Message) bool {
	return len(msg) >= 2 && msg[0] == 0xFF && msg[1] == 0x2F
}

// Demo is a short two track song used by the sample command.
func Demo() *smf.SMF {
	melody := []model.BridgeEvent{
		model.NewTempo(120, 0),
		model.NewProgramChange(0, 0, 0),
	}
	keys := []uint8{60, 62, 64, 65, 67, 69, 71, 72}
	for i, k := range keys {
		melody = append(melody, model.NewNote(k, 100, uint32(i*480), 480, 0))
	}
	var chords []model.BridgeEvent
	chords = append(chords, model.NewProgramChange(48, 1, 0))
	for i, root := range []uint8{48, 53, 55, 48} {
		for _, offset := range []uint8{0, 4, 7} {
			chords = append(chords, model.NewNote(root+offset, 80, uint32(i*960), 960, 1))
		}
	}
	return Create(model.DefaultPPQ, melody, chords)
}
