package cmd

import (
	"github.com/jsphweid/midi2mml/constants"
	"github.com/jsphweid/midi2mml/player"
	"github.com/jsphweid/midi2mml/server"
	"github.com/spf13/cobra"
)

var (
	serveAudio    audioFlags
	serveAddr     string
	serveAutosave string
	serveNoAudio  bool
)

func init() {
	serveAudio.register(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", constants.GetListenAddr(), "listen address")
	serveCmd.Flags().StringVar(&serveAutosave, "autosave", constants.GetAutosavePath(), "where the current song is saved, empty to disable")
	serveCmd.Flags().BoolVar(&serveNoAudio, "no-audio", false, "serve without playback")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var p *player.Player
		if !serveNoAudio {
			sink, release, err := serveAudio.open()
			if err != nil {
				log.Warnf("serving without playback: %v", err)
			} else {
				defer release()
				p = player.New(sink)
			}
		}

		srv := server.New(p, serveAutosave)
		if err := srv.Restore(); err != nil {
			log.Warnf("could not restore %s: %v", serveAutosave, err)
		}
		return srv.ListenAndServe(serveAddr)
	},
}
