// Package midiout sends playback to a hardware or virtual MIDI output port.
package midiout

import (
	"strconv"
	"strings"
	"sync"

	"github.com/jsphweid/midi2mml/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

var log = logrus.WithField("source", "midiout")

const controlAllNotesOff = 123

type Port struct {
	mu  sync.Mutex
	drv *rtmididrv.Driver
	out drivers.Out
}

func ListPorts() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, model.WithKind(model.ErrAudio, err, "opening midi driver")
	}
	defer drv.Close()
	outs, err := drv.Outs()
	if err != nil {
		return nil, model.WithKind(model.ErrAudio, err, "listing midi outputs")
	}
	names := make([]string, len(outs))
	for i, out := range outs {
		names[i] = out.String()
	}
	return names, nil
}

// match finds a port by number or by a case insensitive part of its name.
func match(names []string, query string) (int, bool) {
	if n, err := strconv.Atoi(query); err == nil {
		return n, n >= 0 && n < len(names)
	}
	query = strings.ToLower(query)
	for i, name := range names {
		if strings.Contains(strings.ToLower(name), query) {
			return i, true
		}
	}
	return 0, false
}

func Open(query string) (*Port, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, model.WithKind(model.ErrAudio, err, "opening midi driver")
	}
	outs, err := drv.Outs()
	if err != nil {
		drv.Close()
		return nil, model.WithKind(model.ErrAudio, err, "listing midi outputs")
	}
	names := make([]string, len(outs))
	for i, out := range outs {
		names[i] = out.String()
	}
	i, ok := match(names, query)
	if !ok {
		drv.Close()
		return nil, model.WithKind(model.ErrAudio, errors.Errorf("no output port matches %q", query), "opening midi output")
	}
	out := outs[i]
	if err := out.Open(); err != nil {
		drv.Close()
		return nil, model.WithKind(model.ErrAudio, err, "opening %s", out)
	}
	log.Infof("sending to %s", out)
	return &Port{drv: drv, out: out}, nil
}

func (p *Port) send(msg midi.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.out.Send(msg); err != nil {
		log.Warnf("sending %s: %v", msg, err)
	}
}

func (p *Port) NoteOn(channel, key, velocity uint8) {
	p.send(midi.NoteOn(channel, key, velocity))
}

func (p *Port) NoteOff(channel, key uint8) {
	p.send(midi.NoteOff(channel, key))
}

func (p *Port) ProgramChange(channel, program uint8) {
	p.send(midi.ProgramChange(channel, program))
}

func (p *Port) AllNotesOff(channel uint8) {
	p.send(midi.ControlChange(channel, controlAllNotesOff, 0))
}

func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.out.Close()
	p.drv.Close()
	return err
}
