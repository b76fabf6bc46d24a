package player

import (
	"sync"
	"time"

	"github.com/jsphweid/midi2mml/model"
	"github.com/jsphweid/midi2mml/parser"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("source", "player")

const channelCount = 16

// Source is one track handed to the player: its MML and instrument.
type Source struct {
	Mml        string
	Instrument model.Instrument
}

// Player coordinates one TrackPlayer per track against a shared clock.
type Player struct {
	mu      sync.Mutex
	sink    Sink
	status  *Status
	tracks  []*TrackPlayer
	start   time.Time
	elapsed time.Duration
	done    chan struct{}

	onNoteOn   NoteOnFunc
	onTrackEnd TrackEndFunc
}

func New(sink Sink) *Player {
	return &Player{sink: sink, status: &Status{}}
}

// SetCallbacks registers the optional note-on and track-end observers. They
// apply to tracks loaded afterwards.
func (p *Player) SetCallbacks(noteOn NoteOnFunc, trackEnd TrackEndFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onNoteOn = noteOn
	p.onTrackEnd = trackEnd
}

// Load parses the given tracks and replaces whatever was loaded before.
// Any playback in progress is stopped first.
func (p *Player) Load(sources []Source) error {
	mmls := make([]string, len(sources))
	for i, s := range sources {
		mmls[i] = s.Mml
	}
	parsed, err := parser.ParseTracks(mmls)
	if err != nil {
		return err
	}
	channels := allocateChannels(sources)

	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracks = make([]*TrackPlayer, len(sources))
	for i, notes := range parsed {
		tp := NewTrackPlayer(i, notes, sources[i].Instrument, channels[i], p.status, p.sink)
		tp.onNoteOn = p.onNoteOn
		tp.onTrackEnd = p.onTrackEnd
		p.tracks[i] = tp
	}
	log.Infof("loaded %d tracks", len(sources))
	return nil
}

// allocateChannels keeps percussion on its channel and hands the others out
// in order, skipping the percussion channel and wrapping after the last one.
func allocateChannels(sources []Source) []uint8 {
	channels := make([]uint8, len(sources))
	next := uint8(0)
	for i, s := range sources {
		if s.Instrument.IsPercussion() {
			channels[i] = model.PercussionChannel
			continue
		}
		if next == model.PercussionChannel {
			next++
		}
		channels[i] = next
		next = (next + 1) % channelCount
	}
	return channels
}

func (p *Player) Status() model.PlaybackStatus {
	return p.status.Get()
}

// Play starts playback from the beginning, or resumes it after a pause.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.status.Get() {
	case model.StatusPlay:
		return
	case model.StatusPause:
		p.start = time.Now().Add(-p.elapsed)
	default:
		p.start = time.Now()
	}
	p.status.Swap(model.StatusPlay)

	done := make(chan struct{})
	p.done = done
	start := p.start
	var wg sync.WaitGroup
	for _, tp := range p.tracks {
		wg.Add(1)
		go func(tp *TrackPlayer) {
			defer wg.Done()
			tp.Play(start)
		}(tp)
	}
	go func() {
		wg.Wait()
		close(done)
		p.finish(done)
	}()
}

// finish moves to Stop once every track of a run ended on its own.
func (p *Player) finish(done chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != done || p.status.Get() != model.StatusPlay {
		return
	}
	p.status.Swap(model.StatusStop)
	p.elapsed = 0
	for _, tp := range p.tracks {
		tp.reset()
	}
	log.Info("playback finished")
}

// Pause halts every track, keeping its position.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status.Get() != model.StatusPlay {
		return
	}
	p.status.Swap(model.StatusPause)
	p.elapsed = time.Since(p.start)
	<-p.done
}

// Stop halts every track, silences all channels and rewinds to the start.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status.Swap(model.StatusStop) == model.StatusPlay {
		<-p.done
	}
	for ch := uint8(0); ch < channelCount; ch++ {
		p.sink.AllNotesOff(ch)
	}
	for _, tp := range p.tracks {
		tp.reset()
	}
	p.elapsed = 0
}

// Wait blocks until the current run ends, whether finished, paused or stopped.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}
