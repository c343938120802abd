// internal/growatt/codec.go
package growatt

import (
	"errors"
	"fmt"
)

// ErrTruncated reports a register block shorter than the layout minimum.
var ErrTruncated = errors.New("register block truncated")

// Decode converts one raw input-register block into a Snapshot.
// Pure function of the block and the layout: no I/O, no external state.
// All-or-nothing: a short block fails with ErrTruncated and no partial
// snapshot is produced.
func Decode(l Layout, regs []uint16) (Snapshot, error) {
	if len(regs) < l.MinWords {
		return Snapshot{}, fmt.Errorf("%w: got %d registers, want %d", ErrTruncated, len(regs), l.MinWords)
	}

	s := Snapshot{Variant: l.Variant}

	s.StatusCode = int(regs[l.Status.Offset])
	s.StatusStr = StatusString(s.StatusCode)

	for _, sf := range l.Strings {
		s.PVStrings = append(s.PVStrings, PVString{
			Volts: sf.Volts.value(regs),
			Amps:  sf.Amps.value(regs),
			Power: sf.Power.value(regs),
		})
	}

	if l.PVPower.Words != 0 {
		s.PVPower = l.PVPower.value(regs)
	} else {
		for _, ps := range s.PVStrings {
			s.PVPower += ps.Power
		}
	}

	s.ACPower = l.ACPower.value(regs)
	s.ACFreq = l.ACFreq.value(regs)
	s.ACVolts = l.ACVolts.value(regs)
	s.ACAmps = l.ACAmps.value(regs)

	s.EnergyToday = l.EnergyToday.value(regs)
	s.EnergyTotal = l.EnergyTotal.value(regs)
	s.OpHours = l.OpHours.value(regs)

	s.Temp = l.Temp.value(regs)
	s.IPMTemp = l.IPMTemp.value(regs)

	return s, nil
}

// value reads one scaled field from the block.
func (f field) value(regs []uint16) float64 {
	raw := uint32(regs[f.Offset])
	if f.Words == 2 {
		raw = raw<<16 | uint32(regs[f.Offset+1])
	}
	return float64(raw) / f.Div
}
