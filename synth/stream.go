package synth

import (
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

type Stream interface {
	Close() error
}

// StreamFactory opens an output that pulls samples from s.
type StreamFactory func(s beep.Streamer, sampleRate beep.SampleRate) (Stream, error)

type speakerStream struct{}

func (speakerStream) Close() error {
	speaker.Clear()
	return nil
}

// SpeakerFactory plays through the default audio device with a small buffer
// for low latency.
func SpeakerFactory(s beep.Streamer, sampleRate beep.SampleRate) (Stream, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/50)); err != nil {
		return nil, err
	}
	speaker.Play(s)
	return speakerStream{}, nil
}
