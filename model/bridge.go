package model

type BridgeKind uint8

const (
	BridgeNote BridgeKind = iota + 1
	BridgeTempo
	BridgeProgramChange
)

// BridgeEvent is a timestamped event taken from a MIDI track. Only the fields
// relevant to Kind are meaningful.
type BridgeEvent struct {
	Kind     BridgeKind `json:"kind"`
	Position uint32     `json:"position"` // ticks

	// note
	Key      uint8  `json:"key,omitempty"`
	Velocity uint8  `json:"velocity,omitempty"`
	Duration uint32 `json:"duration,omitempty"` // ticks
	Channel  uint8  `json:"channel,omitempty"`

	// tempo
	BPM uint32 `json:"bpm,omitempty"`

	// program change
	Program uint8 `json:"program,omitempty"`
}

func NewNote(key, velocity uint8, position, duration uint32, channel uint8) BridgeEvent {
	return BridgeEvent{
		Kind:     BridgeNote,
		Key:      key,
		Velocity: velocity,
		Position: position,
		Duration: duration,
		Channel:  channel,
	}
}

func NewTempo(bpm uint32, position uint32) BridgeEvent {
	return BridgeEvent{Kind: BridgeTempo, BPM: bpm, Position: position}
}

func NewProgramChange(program, channel uint8, position uint32) BridgeEvent {
	return BridgeEvent{Kind: BridgeProgramChange, Program: program, Channel: channel, Position: position}
}

func (e BridgeEvent) IsNote() bool {
	return e.Kind == BridgeNote
}

func (e BridgeEvent) End() uint32 {
	return e.Position + e.Duration
}
