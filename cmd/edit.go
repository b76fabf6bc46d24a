package cmd

import (
	"fmt"
	"strings"

	"github.com/jsphweid/midi2mml/file"
	"github.com/jsphweid/midi2mml/model"
	"github.com/jsphweid/midi2mml/song"
	"github.com/jsphweid/midi2mml/util"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(
		optionCmd("set-auto-boot-velocity", "<json> <bool>", "Raises all velocities so the loudest reaches velocity_max",
			func(o *model.SongOptions, arg string) (err error) {
				o.AutoBootVelocity, err = parseBool(arg)
				return err
			}),
		optionCmd("set-auto-equalize", "<json> <bool>", "Rebalances unequal halves after a split",
			func(o *model.SongOptions, arg string) (err error) {
				o.AutoEqualizeNoteLength, err = parseBool(arg)
				return err
			}),
		optionCmd("set-velocity-min", "<json> <0..15>", "Sets the lowest MML velocity",
			func(o *model.SongOptions, arg string) (err error) {
				o.VelocityMin, err = parseUint8(arg)
				return err
			}),
		optionCmd("set-velocity-max", "<json> <0..15>", "Sets the highest MML velocity",
			func(o *model.SongOptions, arg string) (err error) {
				o.VelocityMax, err = parseUint8(arg)
				return err
			}),
		optionCmd("set-min-gap-for-chord", "<json> <units>", "Sets how close two notes start to form a chord",
			func(o *model.SongOptions, arg string) (err error) {
				o.MinGapForChord, err = parseUint8(arg)
				return err
			}),
		optionCmd("set-smallest-unit", "<json> <power of two>", "Sets the shortest note value used in MML",
			func(o *model.SongOptions, arg string) error {
				v, err := parseIndex(arg)
				o.SmallestUnit = uint32(v)
				return err
			}),
		splitCmd, mergeCmd, equalizeCmd, renameCmd, keymapCmd,
	)
}

// optionCmd builds a command that changes one option of a song JSON and
// recompiles it.
func optionCmd(use, args, short string, set func(*model.SongOptions, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " " + args,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := file.Update(args[0], func(s *song.Song) error {
				opts := s.Options
				if err := set(&opts, args[1]); err != nil {
					return err
				}
				return s.SetOptions(opts)
			})
			return err
		},
	}
}

var splitCmd = &cobra.Command{
	Use:   "split <json> <index>",
	Short: "Splits a track in two",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[1])
		if err != nil {
			return err
		}
		s, err := file.Update(args[0], func(s *song.Song) error {
			return s.Split(index)
		})
		if err != nil {
			return err
		}
		printTracks(s)
		return nil
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge <json> <a> <b>",
	Short: "Merges track b into track a",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, b, err := parsePair(args[1], args[2])
		if err != nil {
			return err
		}
		s, err := file.Update(args[0], func(s *song.Song) error {
			return s.Merge(a, b)
		})
		if err != nil {
			return err
		}
		printTracks(s)
		return nil
	},
}

var equalizeCmd = &cobra.Command{
	Use:   "equalize <json> <a> <b>",
	Short: "Rebalances the notes of two tracks",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, b, err := parsePair(args[1], args[2])
		if err != nil {
			return err
		}
		s, err := file.Update(args[0], func(s *song.Song) error {
			return s.Equalize(a, b)
		})
		if err != nil {
			return err
		}
		printTracks(s)
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <json> <index> <name>",
	Short: "Renames a track",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[1])
		if err != nil {
			return err
		}
		_, err = file.Update(args[0], func(s *song.Song) error {
			return s.Rename(index, args[2])
		})
		if err == nil {
			fmt.Printf("Renamed track %d to %s\n", index, args[2])
		}
		return err
	},
}

var keymapCmd = &cobra.Command{
	Use:   "keymap <json> <index> <from=to>...",
	Short: "Replaces MIDI keys in a track, e.g. 36=35 to swap a drum",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[1])
		if err != nil {
			return err
		}
		keymap := make(map[uint8]uint8)
		for _, pair := range args[2:] {
			rawFrom, rawTo, ok := strings.Cut(pair, "=")
			if !ok {
				return errors.Wrapf(model.ErrParse, "invalid key pair %q", pair)
			}
			from, err := parseUint8(rawFrom)
			if err != nil {
				return err
			}
			to, err := parseUint8(rawTo)
			if err != nil {
				return err
			}
			keymap[from] = to
		}
		_, err = file.Update(args[0], func(s *song.Song) error {
			return s.ApplyKeymap(index, keymap)
		})
		if err != nil {
			return err
		}
		for _, from := range util.GetKeys(keymap) {
			fmt.Printf("%d -> %d\n", from, keymap[from])
		}
		return nil
	},
}

func parsePair(a, b string) (int, int, error) {
	i, err := parseIndex(a)
	if err != nil {
		return 0, 0, err
	}
	j, err := parseIndex(b)
	return i, j, err
}
