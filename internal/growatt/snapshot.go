// internal/growatt/snapshot.go
package growatt

import (
	"strconv"
	"time"
)

// PVString is one DC input: voltage, current and reported power.
type PVString struct {
	Volts float64
	Amps  float64
	Power float64
}

// Snapshot is the fully-decoded result of one poll cycle.
// It is either complete or it does not exist; the codec never
// produces a partial one.
type Snapshot struct {
	At      time.Time
	Variant Variant

	// Identity, read from the holding block and cached by the poller.
	Serial   string
	Model    string
	Firmware string

	StatusCode int
	StatusStr  string

	// PVPower is the aggregate over all strings.
	PVPower   float64
	PVStrings []PVString

	ACPower float64
	ACVolts float64
	ACAmps  float64
	ACFreq  float64

	EnergyToday float64 // Wh, resets at local midnight
	EnergyTotal float64 // Wh, lifetime

	OpHours float64 // cumulative runtime, hours

	Temp    float64 // inverter, degrees C
	IPMTemp float64 // power module, degrees C
}

// Efficiency returns AC output as a percentage of PV input.
// 0 when the array is producing nothing; never NaN.
func (s Snapshot) Efficiency() float64 {
	if s.PVPower <= 0 {
		return 0
	}
	return s.ACPower / s.PVPower * 100
}

// Field is one published measurement: topic suffix plus rendered value.
type Field struct {
	Name  string
	Value string
}

// Fields returns the full broker field set in publish order.
// The set is fixed at 20 entries regardless of variant; a missing
// second string renders as zeros.
func (s Snapshot) Fields() []Field {
	var p1, p2 PVString
	if len(s.PVStrings) > 0 {
		p1 = s.PVStrings[0]
	}
	if len(s.PVStrings) > 1 {
		p2 = s.PVStrings[1]
	}

	return []Field{
		{"status", strconv.Itoa(s.StatusCode)},
		{"status_str", s.StatusStr},
		{"pv_power", formatValue(s.PVPower)},
		{"pv_volts1", formatValue(p1.Volts)},
		{"pv_amps1", formatValue(p1.Amps)},
		{"pv_power1", formatValue(p1.Power)},
		{"pv_volts2", formatValue(p2.Volts)},
		{"pv_amps2", formatValue(p2.Amps)},
		{"pv_power2", formatValue(p2.Power)},
		{"ac_power", formatValue(s.ACPower)},
		{"ac_volts", formatValue(s.ACVolts)},
		{"ac_amps", formatValue(s.ACAmps)},
		{"ac_frequency", formatValue(s.ACFreq)},
		{"wh_today", formatWh(s.EnergyToday)},
		{"wh_total", formatWh(s.EnergyTotal)},
		{"temp", formatValue(s.Temp)},
		{"ipm_temp", formatValue(s.IPMTemp)},
		{"operation_hours", formatValue(s.OpHours)},
		{"serial_no", s.Serial},
		{"model_no", s.Model},
	}
}

// formatValue renders a measurement without trailing zeros.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatWh renders an energy counter. The device granularity is 100 Wh,
// so the value is always a whole number.
func formatWh(v float64) string {
	return strconv.FormatInt(int64(v), 10)
}
