// Package quantize converts MIDI ticks to smallest units and renders
// durations as MML length tokens.
package quantize

import (
	"math"
	"strconv"
	"strings"
)

// TickToSU converts ticks into smallest units, where unit is N in "1/N of a
// whole note".
func TickToSU(tick uint32, ppq uint16, unit uint32) uint32 {
	if ppq == 0 {
		return 0
	}
	return uint32(math.Round(float64(tick) * float64(unit) / (4 * float64(ppq))))
}

func SUToTick(su uint32, ppq uint16, unit uint32) uint32 {
	if unit == 0 {
		return 0
	}
	return uint32(math.Round(float64(su) * 4 * float64(ppq) / float64(unit)))
}

type lengthEntry struct {
	value uint32 // the number written after the pitch
	units uint32 // how many smallest units it spans
}

func lengthTable(unit uint32) []lengthEntry {
	var table []lengthEntry
	for units := unit; units >= 1; units /= 2 {
		table = append(table, lengthEntry{value: unit / units, units: units})
	}
	return table
}

// Render writes duration (in smallest units) for symbol as tied MML tokens,
// e.g. "c4.&c16". It returns the text and the number of atomic tokens.
func Render(symbol string, duration uint32, unit uint32) (string, int) {
	if duration == 0 || unit == 0 {
		return "", 0
	}
	table := lengthTable(unit)

	var sb strings.Builder
	count := 0
	for duration > 0 {
		entry := table[len(table)-1]
		for _, e := range table {
			if e.units <= duration {
				entry = e
				break
			}
		}
		if count > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(symbol)
		sb.WriteString(strconv.FormatUint(uint64(entry.value), 10))
		count++
		duration -= entry.units

		half := entry.units / 2
		if half > 0 && duration >= half {
			sb.WriteByte('.')
			duration -= half
		}
	}
	return sb.String(), count
}
