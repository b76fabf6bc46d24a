package model

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	DefaultPPQ          = 480
	DefaultSmallestUnit = 64
	PercussionChannel   = 9
	DrumSetName         = "Drum Set"
)

type SongOptions struct {
	AutoBootVelocity       bool   `json:"auto_boot_velocity"`
	AutoEqualizeNoteLength bool   `json:"auto_equalize_note_length"`
	VelocityMin            uint8  `json:"velocity_min"`
	VelocityMax            uint8  `json:"velocity_max"`
	MinGapForChord         uint8  `json:"min_gap_for_chord"`
	SmallestUnit           uint32 `json:"smallest_unit"`
}

func DefaultSongOptions() SongOptions {
	return SongOptions{
		VelocityMin:  0,
		VelocityMax:  15,
		SmallestUnit: DefaultSmallestUnit,
	}
}

func (o SongOptions) Validate() error {
	if o.VelocityMax > 15 || o.VelocityMin > 15 {
		return errors.Wrapf(ErrOutOfRange, "velocity range %d..%d must be within 0..15", o.VelocityMin, o.VelocityMax)
	}
	if o.VelocityMin > o.VelocityMax {
		return errors.Wrapf(ErrOutOfRange, "velocity_min %d is above velocity_max %d", o.VelocityMin, o.VelocityMax)
	}
	if o.SmallestUnit == 0 || o.SmallestUnit > 256 || o.SmallestUnit&(o.SmallestUnit-1) != 0 {
		return errors.Wrapf(ErrOutOfRange, "smallest_unit %d must be a power of two up to 256", o.SmallestUnit)
	}
	return nil
}

type Instrument struct {
	ID      uint8  `json:"id"`
	Channel uint8  `json:"channel"`
	Name    string `json:"name"`
}

func NewInstrument(id, channel uint8) Instrument {
	return Instrument{ID: id, Channel: channel, Name: InstrumentName(id, channel)}
}

func (i Instrument) IsPercussion() bool {
	return i.Channel == PercussionChannel
}

func (i Instrument) String() string {
	return fmt.Sprintf("%s (program %d, channel %d)", i.Name, i.ID, i.Channel)
}
