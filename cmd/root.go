package cmd

import (
	"github.com/jsphweid/midi2mml/constants"
	"github.com/jsphweid/midi2mml/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:           "midi2mml",
	Short:         "Converts MIDI files to MML",
	Long:          `Converts MIDI files to MML, edits the resulting tracks and plays them back.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return errors.Wrapf(model.ErrParse, "invalid log level %q", logLevel)
		}
		logrus.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", constants.GetLogLevel(), "panic, fatal, error, warn, info, debug or trace")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
