// Package synth drives a SoundFont synthesizer from MIDI events and streams
// its output to an audio device.
package synth

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/faiface/beep"
	"github.com/jsphweid/midi2mml/constants"
	"github.com/jsphweid/midi2mml/model"
	"github.com/jsphweid/midi2mml/util"
	"github.com/pkg/errors"
	"github.com/sinshu/go-meltysynth/meltysynth"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("source", "synth")

// frames rendered between two looks at the event queue
const blockSize = 64

const queueSize = 4096

type Driver struct {
	mu         sync.Mutex
	fonts      []*meltysynth.SoundFont
	synth      *meltysynth.Synthesizer
	sampleRate int

	events chan Event

	// only touched by the audio callback
	pending     []Event
	left, right []float32

	stream Stream
}

func New(sampleRate int) *Driver {
	if sampleRate <= 0 {
		sampleRate = constants.SampleRate
	}
	return &Driver{
		sampleRate: sampleRate,
		events:     make(chan Event, queueSize),
		left:       make([]float32, blockSize),
		right:      make([]float32, blockSize),
	}
}

func (d *Driver) SampleRate() beep.SampleRate {
	return beep.SampleRate(d.sampleRate)
}

func (d *Driver) Connection() Connection {
	return Connection{events: d.events}
}

// FontCount is the number of SoundFonts on the stack.
func (d *Driver) FontCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.fonts)
}

func parseSoundFont(dat []byte) (sf *meltysynth.SoundFont, e error) {
	defer func() {
		if r := recover(); r != nil {
			sf = nil
			e = errors.Wrapf(model.ErrSoundFont, "soundfont reader panicked: %v", r)
		}
	}()
	sf, err := meltysynth.NewSoundFont(bytes.NewReader(dat))
	if err != nil {
		return nil, model.WithKind(model.ErrSoundFont, err, "invalid soundfont")
	}
	return sf, nil
}

// LoadSoundFont parses dat and pushes it on top of the font stack. The synth
// lock is held only while the parsed font is installed.
func (d *Driver) LoadSoundFont(dat []byte) error {
	sf, err := parseSoundFont(dat)
	if err != nil {
		return err
	}
	return d.install(sf)
}

// install rebuilds the synthesizer from sf, which becomes the top of the
// stack. Only the top font sounds.
func (d *Driver) install(sf *meltysynth.SoundFont) error {
	settings := meltysynth.NewSynthesizerSettings(int32(d.sampleRate))

	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := meltysynth.NewSynthesizer(sf, settings)
	if err != nil {
		return model.WithKind(model.ErrAudio, err, "could not create synthesizer")
	}
	d.fonts = append(d.fonts, sf)
	d.synth = s
	return nil
}

func readSoundFont(path string) (*meltysynth.SoundFont, error) {
	dat, err := util.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sf, err := parseSoundFont(dat)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load %s", path)
	}
	return sf, nil
}

func (d *Driver) LoadSoundFontFile(path string) error {
	sf, err := readSoundFont(path)
	if err != nil {
		return err
	}
	if err := d.install(sf); err != nil {
		return errors.Wrapf(err, "could not load %s", path)
	}
	log.WithField("path", path).Info("loaded soundfont")
	return nil
}

// LoadSoundFontsParallel reads and parses every path on its own goroutine,
// then pushes the fonts in path order, so the last path that loads ends up
// on top. The first error is returned; fonts that loaded stay loaded.
func (d *Driver) LoadSoundFontsParallel(paths []string) error {
	return loadInOrder(paths, readSoundFont, func(path string, sf *meltysynth.SoundFont) error {
		if err := d.install(sf); err != nil {
			return errors.Wrapf(err, "could not load %s", path)
		}
		log.WithField("path", path).Info("loaded soundfont")
		return nil
	})
}

func loadInOrder(
	paths []string,
	read func(string) (*meltysynth.SoundFont, error),
	install func(string, *meltysynth.SoundFont) error,
) error {
	fonts := make([]*meltysynth.SoundFont, len(paths))
	errs := make([]error, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			fonts[i], errs[i] = read(path)
		}(i, path)
	}
	wg.Wait()

	var first error
	for i, path := range paths {
		err := errs[i]
		if err == nil {
			err = install(path, fonts[i])
		}
		if err == nil {
			continue
		}
		log.WithError(err).Error("soundfont not loaded")
		if first == nil {
			first = err
		}
	}
	return first
}

// Start opens the output stream. d becomes the stream's audio callback.
func (d *Driver) Start(factory StreamFactory) error {
	if d.stream != nil {
		return nil
	}
	stream, err := factory(d, d.SampleRate())
	if err != nil {
		return model.WithKind(model.ErrAudio, err, "could not open audio stream")
	}
	d.stream = stream
	return nil
}

func (d *Driver) Close() error {
	if d.stream == nil {
		return nil
	}
	err := d.stream.Close()
	d.stream = nil
	return err
}

// Stream implements beep.Streamer. It never waits for the synth lock: when
// the lock is taken the block is silent and queued events wait for the next
// block.
func (d *Driver) Stream(samples [][2]float64) (int, bool) {
	for start := 0; start < len(samples); start += blockSize {
		end := start + blockSize
		if end > len(samples) {
			end = len(samples)
		}
		d.renderBlock(samples[start:end])
	}
	return len(samples), true
}

func (d *Driver) Err() error {
	return nil
}

func (d *Driver) drain() {
	for {
		select {
		case e := <-d.events:
			d.pending = append(d.pending, e)
		default:
			return
		}
	}
}

func (d *Driver) renderBlock(block [][2]float64) {
	d.drain()
	if !d.mu.TryLock() {
		silence(block)
		return
	}
	defer d.mu.Unlock()

	if d.synth == nil {
		d.pending = d.pending[:0]
		silence(block)
		return
	}
	for _, e := range d.pending {
		e.apply(d.synth)
	}
	d.pending = d.pending[:0]

	left, right := d.left[:len(block)], d.right[:len(block)]
	d.synth.Render(left, right)
	for i := range block {
		block[i][0] = float64(left[i])
		block[i][1] = float64(right[i])
	}
}

func silence(block [][2]float64) {
	for i := range block {
		block[i] = [2]float64{}
	}
}

func (d *Driver) String() string {
	return fmt.Sprintf("synth driver (%d Hz, %d soundfonts)", d.sampleRate, d.FontCount())
}
