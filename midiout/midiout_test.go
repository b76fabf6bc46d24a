package midiout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	names := []string{"Midi Through:Midi Through Port-0 14:0", "FLUID Synth (1234):Synth input port 128:0"}

	i, ok := match(names, "fluid")
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	i, ok = match(names, "0")
	assert.True(t, ok)
	assert.Equal(t, 0, i)

	_, ok = match(names, "2")
	assert.False(t, ok)

	_, ok = match(names, "yamaha")
	assert.False(t, ok)
}
