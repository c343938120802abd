// internal/growatt/identity_test.go
package growatt

import (
	"errors"
	"testing"
)

// packASCII writes a string into the block two characters per register,
// high byte first, space padded.
func packASCII(regs []uint16, off int, words int, s string) {
	for len(s) < words*2 {
		s += " "
	}
	for i := 0; i < words; i++ {
		regs[off+i] = uint16(s[2*i])<<8 | uint16(s[2*i+1])
	}
}

func TestDecodeIdentity(t *testing.T) {
	regs := make([]uint16, 45)
	packASCII(regs, 9, 3, "G.1.8")
	packASCII(regs, 12, 3, "AB12CD")
	packASCII(regs, 23, 5, "ABC1234567")
	regs[28] = 0x0021
	regs[29] = 0x0251
	regs[43] = 134

	id, err := DecodeIdentity(regs)
	if err != nil {
		t.Fatalf("DecodeIdentity err=%v", err)
	}

	if id.Firmware != "G.1.8" {
		t.Fatalf("Firmware=%q, want %q", id.Firmware, "G.1.8")
	}
	if id.ControlFW != "AB12CD" {
		t.Fatalf("ControlFW=%q, want %q", id.ControlFW, "AB12CD")
	}
	if id.Serial != "ABC1234567" {
		t.Fatalf("Serial=%q, want %q", id.Serial, "ABC1234567")
	}
	if id.Model != "T2 Q1 P0 U2 M5 S1" {
		t.Fatalf("Model=%q, want %q", id.Model, "T2 Q1 P0 U2 M5 S1")
	}
	if id.DTC != 134 {
		t.Fatalf("DTC=%d, want 134", id.DTC)
	}
}

func TestDecodeIdentity_TrimsNulPadding(t *testing.T) {
	regs := make([]uint16, 45)
	// 8-character serial padded with NULs, as older firmware ships it.
	packASCII(regs, 23, 4, "AB123456")
	// regs[27] stays 0x0000

	id, err := DecodeIdentity(regs)
	if err != nil {
		t.Fatalf("DecodeIdentity err=%v", err)
	}
	if id.Serial != "AB123456" {
		t.Fatalf("Serial=%q, want %q", id.Serial, "AB123456")
	}
}

func TestDecodeIdentity_Truncated(t *testing.T) {
	_, err := DecodeIdentity(make([]uint16, 30))
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("err=%v, want ErrTruncated", err)
	}
}
