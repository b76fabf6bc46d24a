package chord

import (
	"fmt"
	"testing"

	"github.com/jsphweid/midi2mml/model"
	"github.com/stretchr/testify/assert"
)

func TestAdjacent(t *testing.T) {
	cases := []struct {
		a, b, gap uint32
		want      bool
	}{
		{0, 0, 0, true},
		{0, 1, 0, false},
		{5, 3, 2, true},
		{3, 6, 2, false},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%d %d gap %d", c.a, c.b, c.gap), func(t *testing.T) {
			assert.Equal(t, c.want, Adjacent(c.a, c.b, c.gap))
		})
	}
}

func TestDurationIsLongestMember(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(uint32(16), Duration[uint32](8, 16, 4))
	assert.Equal(0, Duration[int]())
}

func TestGroups(t *testing.T) {
	note := func(chord bool) model.MmlEvent {
		return model.MmlEvent{Kind: model.MmlNoteEvent, Note: &model.MmlNote{IsPartOfChord: chord}}
	}
	events := []model.MmlEvent{
		{Kind: model.MmlVelocity, Value: 7},
		note(false),
		{Kind: model.MmlConnectChord},
		note(true),
		{Kind: model.MmlRest, Value: 4},
		note(false),
	}
	assert.Equal(t, [][]int{{1, 3}, {5}}, Groups(events))
}

func TestSpan(t *testing.T) {
	notes := []model.NoteEvent{
		{CharIndex: 4, CharLength: 2, DurationMs: 500},
		{CharIndex: 7, CharLength: 2, DurationMs: 250},
		{CharIndex: 10, CharLength: 3, DurationMs: 750},
	}
	index, length := Span(notes)
	assert := assert.New(t)
	assert.Equal(4, index)
	assert.Equal(9, length)
	assert.Equal(int64(750), DurationMs(notes))
}
