// internal/growatt/layout.go
package growatt

import "fmt"

// Register layouts for the supported inverter families.
// Offsets, widths and scale divisors come from the vendor protocol
// and MUST NOT be configurable.

// Variant selects which register layout the codec uses.
// It is chosen by configuration, never auto-detected.
type Variant string

const (
	// VariantSingle is a single-tracker inverter. The device reports
	// aggregate PV power directly.
	VariantSingle Variant = "single"

	// VariantDual is a dual-tracker inverter. Aggregate PV power is the
	// sum of the per-string powers.
	VariantDual Variant = "dual"
)

// ParseVariant maps a configuration string onto a Variant.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantSingle:
		return VariantSingle, nil
	case VariantDual:
		return VariantDual, nil
	}
	return "", fmt.Errorf("growatt: unknown layout variant %q (want %q or %q)", s, VariantSingle, VariantDual)
}

// ---- READ GEOMETRY ----

// Input register block (FC 4). The first 45 registers carry every
// measurement the layouts reference.
const (
	InputRegBase  uint16 = 0
	InputRegCount uint16 = 45
)

// Holding register block (FC 3). Carries the identity fields.
const (
	HoldingRegBase  uint16 = 0
	HoldingRegCount uint16 = 45
)

// ---- LAYOUT TABLES ----

// field locates one physical value inside the input block.
// Offset is in registers. Words is 1 or 2; two-word fields are
// big-endian word order (hi<<16 | lo). Scaled value = raw / Div.
type field struct {
	Offset int
	Words  int
	Div    float64
}

// stringFields is the register set of one PV string.
type stringFields struct {
	Volts field
	Amps  field
	Power field
}

// Layout describes one vendor register map. The decoder is
// layout-agnostic; all offsets, widths and scale factors live here.
type Layout struct {
	Variant  Variant
	MinWords int

	Status field

	// PVPower is the directly-reported aggregate. Words == 0 means the
	// device has no usable aggregate register and the decoder sums the
	// per-string powers instead.
	PVPower field

	Strings []stringFields

	ACPower field
	ACFreq  field
	ACVolts field
	ACAmps  field

	EnergyToday field // Wh, device granularity 100 Wh
	EnergyTotal field // Wh, device granularity 100 Wh
	OpHours     field // raw counts half-seconds

	Temp    field
	IPMTemp field
}

// LayoutFor returns the layout table for a variant.
func LayoutFor(v Variant) Layout {
	if v == VariantSingle {
		return layoutSingle
	}
	return layoutDual
}

var layoutSingle = Layout{
	Variant:  VariantSingle,
	MinWords: 45,
	Status:   field{0, 1, 1},
	PVPower:  field{1, 2, 10},
	Strings: []stringFields{
		{Volts: field{3, 1, 10}, Amps: field{4, 1, 10}, Power: field{5, 2, 10}},
	},
	ACPower:     field{11, 2, 10},
	ACFreq:      field{13, 1, 100},
	ACVolts:     field{14, 1, 10},
	ACAmps:      field{15, 1, 10},
	EnergyToday: field{26, 2, 0.01},
	EnergyTotal: field{28, 2, 0.01},
	OpHours:     field{30, 2, 7200},
	Temp:        field{32, 1, 10},
	IPMTemp:     field{41, 1, 10},
}

var layoutDual = Layout{
	Variant:  VariantDual,
	MinWords: 45,
	Status:   field{0, 1, 1},
	Strings: []stringFields{
		{Volts: field{3, 1, 10}, Amps: field{4, 1, 10}, Power: field{5, 2, 10}},
		{Volts: field{7, 1, 10}, Amps: field{8, 1, 10}, Power: field{9, 2, 10}},
	},
	ACPower:     field{11, 2, 10},
	ACFreq:      field{13, 1, 100},
	ACVolts:     field{14, 1, 10},
	ACAmps:      field{15, 1, 10},
	EnergyToday: field{26, 2, 0.01},
	EnergyTotal: field{28, 2, 0.01},
	OpHours:     field{30, 2, 7200},
	Temp:        field{32, 1, 10},
	IPMTemp:     field{41, 1, 10},
}
