// internal/growatt/encode.go
package growatt

import "math"

// Encode renders a snapshot back into a raw input-register block using
// the same layout table the decoder reads, so the offsets and word order
// are verifiable by round-trip. Inverse of Decode within scaling
// precision. No IO. No side effects.
func Encode(l Layout, s Snapshot) []uint16 {
	regs := make([]uint16, l.MinWords)

	putField(regs, l.Status, float64(s.StatusCode))

	for i, sf := range l.Strings {
		var ps PVString
		if i < len(s.PVStrings) {
			ps = s.PVStrings[i]
		}
		putField(regs, sf.Volts, ps.Volts)
		putField(regs, sf.Amps, ps.Amps)
		putField(regs, sf.Power, ps.Power)
	}

	if l.PVPower.Words != 0 {
		putField(regs, l.PVPower, s.PVPower)
	}

	putField(regs, l.ACPower, s.ACPower)
	putField(regs, l.ACFreq, s.ACFreq)
	putField(regs, l.ACVolts, s.ACVolts)
	putField(regs, l.ACAmps, s.ACAmps)

	putField(regs, l.EnergyToday, s.EnergyToday)
	putField(regs, l.EnergyTotal, s.EnergyTotal)
	putField(regs, l.OpHours, s.OpHours)

	putField(regs, l.Temp, s.Temp)
	putField(regs, l.IPMTemp, s.IPMTemp)

	return regs
}

// putField writes one scaled value into the block, big-endian word order
// for two-word fields.
func putField(regs []uint16, f field, v float64) {
	raw := uint32(math.Round(v * f.Div))
	if f.Words == 2 {
		regs[f.Offset] = uint16(raw >> 16)
		regs[f.Offset+1] = uint16(raw)
		return
	}
	regs[f.Offset] = uint16(raw)
}
