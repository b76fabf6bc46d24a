package quantize

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickToSU(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(uint32(16), TickToSU(480, 480, 64))
	assert.Equal(uint32(8), TickToSU(240, 480, 64))
	assert.Equal(uint32(64), TickToSU(1920, 480, 64))
	assert.Equal(uint32(4), TickToSU(96, 96, 16))
	assert.Equal(uint32(0), TickToSU(10, 480, 64))
}

func TestQuantizationIsStable(t *testing.T) {
	for _, ppq := range []uint16{96, 480, 960} {
		for d := uint32(1); d <= 512; d++ {
			assert.Equal(t, d, TickToSU(SUToTick(d, ppq, 64), ppq, 64), "ppq %d, d %d", ppq, d)
		}
	}
}

func TestRender(t *testing.T) {
	cases := []struct {
		symbol   string
		duration uint32
		unit     uint32
		text     string
		count    int
	}{
		{"c", 16, 64, "c4", 1},
		{"c", 8, 64, "c8", 1},
		{"c", 24, 64, "c4.", 1},
		{"d+", 1, 64, "d+64", 1},
		{"r", 64, 64, "r1", 1},
		{"r", 80, 64, "r1&r4", 2},
		{"e", 7, 64, "e16.&e64", 2},
		{"g", 96, 64, "g1.", 1},
		{"a", 3, 16, "a8.", 1},
		{"b", 0, 64, "", 0},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("%s %d/%d", c.symbol, c.duration, c.unit), func(t *testing.T) {
			text, count := Render(c.symbol, c.duration, c.unit)
			assert := assert.New(t)
			assert.Equal(c.text, text)
			assert.Equal(c.count, count)
		})
	}
}
