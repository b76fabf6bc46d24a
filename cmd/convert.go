package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/midi2mml/file"
	"github.com/jsphweid/midi2mml/model"
	"github.com/jsphweid/midi2mml/song"
	"github.com/jsphweid/midi2mml/util"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	toJSONCmd.Flags().IntVar(&toJSONMax, "max", 0, "convert at most this many files from a directory, 0 for all")
	rootCmd.AddCommand(toJSONCmd, toMmlCmd, listTracksCmd, listOptionsCmd)
}

var toJSONMax int

var toJSONCmd = &cobra.Command{
	Use:   "to-json <midi|dir> [out]",
	Short: "Saves a MIDI file, or every MIDI file below a directory, as song JSON",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := os.Stat(args[0])
		if err != nil {
			return model.WithKind(model.ErrIo, err, "could not open %s", args[0])
		}
		if !info.IsDir() {
			out := jsonPath(args[0])
			if len(args) == 2 {
				out = args[1]
			}
			return convertToJSON(args[0], out)
		}

		outDir := args[0]
		if len(args) == 2 {
			outDir = args[1]
			if err := util.EnsureDir(outDir); err != nil {
				return err
			}
		}
		paths, err := util.GatherAllMidiPaths(args[0], toJSONMax)
		if err != nil {
			return err
		}
		failed := 0
		for _, path := range paths {
			if err := convertToJSON(path, filepath.Join(outDir, filepath.Base(jsonPath(path)))); err != nil {
				log.Warn(err)
				failed++
			}
		}
		if failed > 0 {
			return errors.Errorf("%d of %d files could not be converted", failed, len(paths))
		}
		return nil
	},
}

func jsonPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
}

func convertToJSON(path, out string) error {
	s, err := song.LoadFile(path, model.DefaultSongOptions())
	if err != nil {
		return err
	}
	if err := s.Save(out); err != nil {
		return err
	}
	fmt.Printf("Saved %d tracks to %s\n", len(s.Tracks), out)
	return nil
}

var toMmlCmd = &cobra.Command{
	Use:   "to-mml <input>",
	Short: "Prints the MML of every track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := file.Load(args[0], model.DefaultSongOptions())
		if err != nil {
			return err
		}
		for i, t := range s.Tracks {
			fmt.Printf("# %d %s: %s\n%s\n", i, t.Name, t.Instrument, t.Mml())
		}
		return nil
	},
}

var listTracksCmd = &cobra.Command{
	Use:   "list-tracks <input>",
	Short: "Lists the tracks of a song",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := file.Load(args[0], model.DefaultSongOptions())
		if err != nil {
			return err
		}
		printTracks(s)
		return nil
	},
}

var listOptionsCmd = &cobra.Command{
	Use:   "list-options <input>",
	Short: "Prints the options of a song",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := file.Load(args[0], model.DefaultSongOptions())
		if err != nil {
			return err
		}
		dat, err := json.MarshalIndent(s.Options, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(dat))
		return nil
	},
}

func printTracks(s *song.Song) {
	tracks := s.ListTracks()
	lengths := make([]int, len(tracks))
	for i, t := range tracks {
		fmt.Printf("%d\t%s\t%s\t%d notes\t%d tokens\t%s\n", t.Index, t.Name, t.Instrument, t.NoteCount, t.NoteLength, t.ID)
		lengths[i] = t.NoteLength
	}
	fmt.Printf("%d tracks, %d tokens\n", len(tracks), util.Sum(lengths))
}
