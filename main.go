package main

import "github.com/jsphweid/midi2mml/cmd"

func main() {
	cmd.Execute()
}
