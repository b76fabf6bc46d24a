package cmd

import (
	"fmt"

	"github.com/jsphweid/midi2mml/midiout"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(listPortsCmd)
}

var listPortsCmd = &cobra.Command{
	Use:   "list-ports",
	Short: "Lists MIDI output ports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := midiout.ListPorts()
		if err != nil {
			return err
		}
		for i, name := range names {
			fmt.Printf("%d\t%s\n", i, name)
		}
		return nil
	},
}
