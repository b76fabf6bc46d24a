package cmd

import (
	"fmt"
	"os"

	"github.com/jsphweid/midi2mml/midi"
	"github.com/jsphweid/midi2mml/model"
	"github.com/jsphweid/midi2mml/sample"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2/smf"
)

var (
	sampleFrom   string
	sampleOffset uint64
	sampleMax    int
)

func init() {
	sampleCmd.Flags().StringVar(&sampleFrom, "from", "", "cut an excerpt from this MIDI file instead of writing the demo")
	sampleCmd.Flags().Uint64Var(&sampleOffset, "offset", 0, "excerpt start in ticks")
	sampleCmd.Flags().IntVar(&sampleMax, "max", 32, "maximum number of notes per track in the excerpt")
	rootCmd.AddCommand(sampleCmd)
}

var sampleCmd = &cobra.Command{
	Use:   "sample <out.mid>",
	Short: "Writes a small MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var s *smf.SMF
		if sampleFrom == "" {
			s = sample.Demo()
		} else {
			mf, err := midi.ReadMidiFile(sampleFrom)
			if err != nil {
				return err
			}
			s = sample.Excerpt(mf, sampleOffset, sampleMax)
		}

		dat, err := sample.Bytes(s)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[0], dat, 0666); err != nil {
			return model.WithKind(model.ErrIo, err, "could not write %s", args[0])
		}
		fmt.Printf("Wrote %s\n", args[0])
		return nil
	},
}
