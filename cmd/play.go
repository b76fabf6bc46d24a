package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/jsphweid/midi2mml/file"
	"github.com/jsphweid/midi2mml/model"
	"github.com/jsphweid/midi2mml/player"
	"github.com/jsphweid/midi2mml/server"
	"github.com/spf13/cobra"
)

var playAudio audioFlags

func init() {
	playAudio.register(playCmd)
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play <input>",
	Short: "Plays the MML of every track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := file.Load(args[0], model.DefaultSongOptions())
		if err != nil {
			return err
		}
		sink, release, err := playAudio.open()
		if err != nil {
			return err
		}
		defer release()

		p := player.New(sink)
		p.SetCallbacks(nil, func(track int) {
			fmt.Printf("Track %d done\n", track)
		})
		if err := p.Load(server.Sources(s)); err != nil {
			return err
		}

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
		defer signal.Stop(interrupt)
		go func() {
			if _, ok := <-interrupt; ok {
				p.Stop()
			}
		}()

		p.Play()
		p.Wait()
		return nil
	},
}
