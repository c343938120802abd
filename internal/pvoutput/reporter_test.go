// internal/pvoutput/reporter_test.go
package pvoutput

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BruceRobertson/growatt-mqtt/internal/growatt"
)

type fakeSubmitter struct {
	calls []Status
	err   error
}

func (f *fakeSubmitter) AddStatus(_ context.Context, st Status) error {
	f.calls = append(f.calls, st)
	return f.err
}

func reportSnap(at time.Time, whToday float64) growatt.Snapshot {
	return growatt.Snapshot{
		At:      at,
		PVPower: 300.5,
		PVStrings: []growatt.PVString{
			{Volts: 30.5, Amps: 5, Power: 152.5},
			{Volts: 30.2, Amps: 4.9, Power: 148},
		},
		ACPower:     240.4,
		ACVolts:     230.1,
		EnergyToday: whToday,
		EnergyTotal: 9876500,
		Temp:        35.2,
	}
}

func at(hour, min, sec int) time.Time {
	return time.Date(2024, 6, 1, hour, min, sec, 0, time.UTC)
}

func TestShouldReport_AlignedBoundariesOnly(t *testing.T) {
	cases := []struct {
		name     string
		now      time.Time
		last     time.Time
		interval time.Duration
		want     bool
	}{
		{"exact boundary", at(12, 0, 0), time.Time{}, 5 * time.Minute, true},
		{"inside aligned minute", at(12, 5, 7), time.Time{}, 5 * time.Minute, true},
		{"end of aligned minute", at(12, 5, 59), time.Time{}, 5 * time.Minute, true},
		{"just before boundary", at(12, 4, 59), time.Time{}, 5 * time.Minute, false},
		{"minute after boundary", at(12, 6, 10), time.Time{}, 5 * time.Minute, false},
		{"unaligned minute", at(12, 1, 0), time.Time{}, 5 * time.Minute, false},
		{"slot already consumed", at(12, 5, 45), at(12, 5, 7), 5 * time.Minute, false},
		{"next slot after consumed", at(12, 10, 0), at(12, 5, 7), 5 * time.Minute, true},
		{"ten minute grid skips 05", at(12, 5, 0), time.Time{}, 10 * time.Minute, false},
		{"ten minute grid fires 10", at(12, 10, 0), time.Time{}, 10 * time.Minute, true},
		{"zero interval never fires", at(12, 0, 0), time.Time{}, 0, false},
	}

	for _, tc := range cases {
		if got := ShouldReport(tc.now, tc.last, tc.interval); got != tc.want {
			t.Fatalf("%s: ShouldReport(%v) = %v, want %v", tc.name, tc.now, got, tc.want)
		}
	}
}

func TestShouldReport_FollowsWallClockOffset(t *testing.T) {
	// UTC+05:30: local 12:05 is 06:35 UTC. The grid must follow the
	// local clock, not the epoch.
	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2024, 6, 1, 12, 5, 3, 0, loc)
	if !ShouldReport(now, time.Time{}, 5*time.Minute) {
		t.Fatalf("aligned local minute not detected in offset zone")
	}
	if ShouldReport(now.Add(time.Minute), time.Time{}, 5*time.Minute) {
		t.Fatalf("unaligned local minute accepted in offset zone")
	}
}

func TestMaybeReport_OncePerSlot(t *testing.T) {
	fake := &fakeSubmitter{}
	r := &Reporter{cli: fake, interval: 5 * time.Minute, log: testLog()}

	sent, err := r.MaybeReport(context.Background(), reportSnap(at(12, 5, 7), 12300))
	if err != nil || !sent {
		t.Fatalf("first boundary: sent=%v err=%v", sent, err)
	}
	sent, err = r.MaybeReport(context.Background(), reportSnap(at(12, 5, 37), 12300))
	if err != nil || sent {
		t.Fatalf("same slot repeated: sent=%v err=%v", sent, err)
	}
	sent, err = r.MaybeReport(context.Background(), reportSnap(at(12, 10, 1), 12400))
	if err != nil || !sent {
		t.Fatalf("next boundary: sent=%v err=%v", sent, err)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("submissions = %d, want 2", len(fake.calls))
	}
}

func TestMaybeReport_FailureConsumesSlot(t *testing.T) {
	fake := &fakeSubmitter{err: errors.New("service down")}
	r := &Reporter{cli: fake, interval: 5 * time.Minute, log: testLog()}

	sent, err := r.MaybeReport(context.Background(), reportSnap(at(12, 5, 7), 12300))
	if !sent || err == nil {
		t.Fatalf("failing attempt: sent=%v err=%v", sent, err)
	}

	// No retry inside the same slot; the data for it is accepted loss.
	sent, err = r.MaybeReport(context.Background(), reportSnap(at(12, 5, 37), 12300))
	if sent || err != nil {
		t.Fatalf("retry inside consumed slot: sent=%v err=%v", sent, err)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("submissions = %d, want 1", len(fake.calls))
	}

	fake.err = nil
	sent, err = r.MaybeReport(context.Background(), reportSnap(at(12, 10, 0), 12300))
	if !sent || err != nil {
		t.Fatalf("next boundary after failure: sent=%v err=%v", sent, err)
	}
}

func TestMaybeReport_EnergyOmittedUntilChanged(t *testing.T) {
	fake := &fakeSubmitter{}
	r := &Reporter{cli: fake, interval: 5 * time.Minute, log: testLog()}

	// Counter still at zero: omit, matching the initial state.
	r.MaybeReport(context.Background(), reportSnap(at(6, 0, 0), 0))
	// First movement: send.
	r.MaybeReport(context.Background(), reportSnap(at(6, 5, 0), 12300))
	// Unchanged since last upload: omit.
	r.MaybeReport(context.Background(), reportSnap(at(6, 10, 0), 12300))
	// Moved again: send.
	r.MaybeReport(context.Background(), reportSnap(at(6, 15, 0), 12400))

	if len(fake.calls) != 4 {
		t.Fatalf("submissions = %d, want 4", len(fake.calls))
	}
	if fake.calls[0].EnergyToday != nil {
		t.Fatalf("initial zero counter was sent")
	}
	if fake.calls[1].EnergyToday == nil || *fake.calls[1].EnergyToday != 12300 {
		t.Fatalf("first movement not sent: %+v", fake.calls[1].EnergyToday)
	}
	if fake.calls[2].EnergyToday != nil {
		t.Fatalf("unchanged counter resent")
	}
	if fake.calls[3].EnergyToday == nil || *fake.calls[3].EnergyToday != 12400 {
		t.Fatalf("second movement not sent")
	}
}

func TestMaybeReport_EfficiencyOmittedWithoutSun(t *testing.T) {
	fake := &fakeSubmitter{}
	r := &Reporter{cli: fake, interval: 5 * time.Minute, log: testLog()}

	snap := reportSnap(at(12, 5, 0), 12300)
	r.MaybeReport(context.Background(), snap)

	dark := reportSnap(at(12, 10, 0), 12300)
	dark.PVPower = 0
	dark.ACPower = 0
	r.MaybeReport(context.Background(), dark)

	if len(fake.calls) != 2 {
		t.Fatalf("submissions = %d, want 2", len(fake.calls))
	}
	if fake.calls[0].Efficiency == nil || *fake.calls[0].Efficiency != 80.0 {
		t.Fatalf("efficiency = %v, want 80", fake.calls[0].Efficiency)
	}
	if fake.calls[0].PV1Volts != 30.5 {
		t.Fatalf("pv1 volts = %v, want 30.5", fake.calls[0].PV1Volts)
	}
	if fake.calls[1].Efficiency != nil {
		t.Fatalf("efficiency sent with zero PV power")
	}
}

func TestMaybeReport_DryRunSkipsSubmit(t *testing.T) {
	fake := &fakeSubmitter{}
	r := &Reporter{cli: fake, interval: 5 * time.Minute, dryRun: true, log: testLog()}

	sent, err := r.MaybeReport(context.Background(), reportSnap(at(12, 5, 0), 12300))
	if !sent || err != nil {
		t.Fatalf("dry run boundary: sent=%v err=%v", sent, err)
	}
	if len(fake.calls) != 0 {
		t.Fatalf("dry run submitted %d statuses", len(fake.calls))
	}
	// The decision pipeline still ran: the energy guard advanced.
	if r.lastEnergy != 12300 {
		t.Fatalf("lastEnergy = %d, want 12300", r.lastEnergy)
	}
}
