package cmd

import (
	"github.com/jsphweid/midi2mml/constants"
	"github.com/jsphweid/midi2mml/midiout"
	"github.com/jsphweid/midi2mml/model"
	"github.com/jsphweid/midi2mml/player"
	"github.com/jsphweid/midi2mml/synth"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var log = logrus.WithField("source", "cmd")

type audioFlags struct {
	soundFonts []string
	midiOut    string
}

func (f *audioFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.soundFonts, "soundfont", constants.GetSoundFontPaths(), "SoundFont files, later ones take precedence")
	cmd.Flags().StringVar(&f.midiOut, "midi-out", "", "send to this MIDI output port (number or name) instead of the synthesizer")
}

// open returns the sink playback goes to and a function releasing it.
func (f *audioFlags) open() (player.Sink, func(), error) {
	if f.midiOut != "" {
		port, err := midiout.Open(f.midiOut)
		if err != nil {
			return nil, nil, err
		}
		return port, func() {
			if err := port.Close(); err != nil {
				log.Warnf("closing midi output: %v", err)
			}
		}, nil
	}

	if len(f.soundFonts) == 0 {
		return nil, nil, errors.Wrap(model.ErrSoundFont, "no soundfont given (use --soundfont or MIDI2MML_SOUNDFONT)")
	}
	d := synth.New(constants.SampleRate)
	if err := d.LoadSoundFontsParallel(f.soundFonts); err != nil {
		if d.FontCount() == 0 {
			return nil, nil, err
		}
		log.Warn(err)
	}
	if err := d.Start(synth.SpeakerFactory); err != nil {
		return nil, nil, err
	}
	return d.Connection(), func() {
		if err := d.Close(); err != nil {
			log.Warnf("closing synth: %v", err)
		}
	}, nil
}
