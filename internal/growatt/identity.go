// internal/growatt/identity.go
package growatt

import (
	"fmt"
	"strings"
)

// Identity is the device identity block read from holding registers.
// Read once at startup and reused for the life of the process.
type Identity struct {
	Serial    string
	Model     string
	Firmware  string
	ControlFW string
	DTC       uint16 // device type code, e.g. 134 = single phase single tracker
}

// Identity field geometry inside the holding block.
const (
	regFirmware  = 9  // 3 words, ASCII
	regControlFW = 12 // 3 words, ASCII
	regSerial    = 23 // 5 words, ASCII
	regModel     = 28 // 2 words, packed nibbles
	regDTC       = 43

	identityMinWords = 45
)

// DecodeIdentity parses the holding-register block.
// Same all-or-nothing contract as Decode.
func DecodeIdentity(regs []uint16) (Identity, error) {
	if len(regs) < identityMinWords {
		return Identity{}, fmt.Errorf("%w: got %d registers, want %d", ErrTruncated, len(regs), identityMinWords)
	}

	return Identity{
		Firmware:  asciiString(regs[regFirmware : regFirmware+3]),
		ControlFW: asciiString(regs[regControlFW : regControlFW+3]),
		Serial:    asciiString(regs[regSerial : regSerial+5]),
		Model:     modelString(uint32(regs[regModel])<<16 | uint32(regs[regModel+1])),
		DTC:       regs[regDTC],
	}, nil
}

// asciiString unpacks two ASCII characters per register, high byte first,
// trimming trailing padding.
func asciiString(regs []uint16) string {
	b := make([]byte, 0, len(regs)*2)
	for _, r := range regs {
		b = append(b, byte(r>>8), byte(r))
	}
	return strings.TrimRight(string(b), " \x00")
}

// modelString renders the packed model word the way the vendor labels
// units, one decimal digit per nibble: "T2 Q1 P0 U2 M5 S1".
func modelString(mo uint32) string {
	return fmt.Sprintf("T%d Q%d P%d U%d M%d S%d",
		(mo>>20)&0xF,
		(mo>>16)&0xF,
		(mo>>12)&0xF,
		(mo>>8)&0xF,
		(mo>>4)&0xF,
		mo&0xF,
	)
}
