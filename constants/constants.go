package constants

import (
	"os"
	"path/filepath"
	"time"
)

func GetSoundFontPaths() []string {
	paths := os.Getenv("MIDI2MML_SOUNDFONT")
	if paths == "" {
		return nil
	}
	return filepath.SplitList(paths)
}

func GetListenAddr() string {
	addr := os.Getenv("MIDI2MML_ADDR")
	if addr != "" {
		return addr
	}
	return ":8080"
}

func GetLogLevel() string {
	level := os.Getenv("MIDI2MML_LOG_LEVEL")
	if level != "" {
		return level
	}
	return "info"
}

// GetAutosavePath is where the server persists the current song.
func GetAutosavePath() string {
	path := os.Getenv("MIDI2MML_AUTOSAVE")
	if path != "" {
		return path
	}
	return "./song.json"
}

const SampleRate = 44100

// players wake at least this often to observe pause/stop
const SleepSlice = 32 * time.Millisecond

// a split side above this many note tokens is rebalanced
const EqualizeTokenThreshold = 3000

const AutosaveDelay = 500 * time.Millisecond

// MML parser initial state
const (
	DefaultOctave   = 4
	DefaultVelocity = 12
	DefaultTempo    = 120
)
