// internal/pvoutput/reporter.go
package pvoutput

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BruceRobertson/growatt-mqtt/internal/growatt"
)

// submitter is the part of Client the reporter consumes.
type submitter interface {
	AddStatus(ctx context.Context, st Status) error
}

// Reporter decides when to upload and assembles each submission.
// Driven from the poll loop; not safe for concurrent use.
type Reporter struct {
	cli      submitter
	interval time.Duration
	dryRun   bool
	log      *logrus.Entry

	last       time.Time // snapshot time of the last attempt
	lastEnergy int       // wh_today carried by the last submission
}

// NewReporter builds a reporter uploading once per aligned interval.
func NewReporter(cli *Client, interval time.Duration, dryRun bool, log *logrus.Entry) (*Reporter, error) {
	if cli == nil && !dryRun {
		return nil, errors.New("pvoutput: client required")
	}
	if log == nil {
		return nil, errors.New("pvoutput: logger required")
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	r := &Reporter{interval: interval, dryRun: dryRun, log: log}
	if cli != nil {
		r.cli = cli
	}
	return r, nil
}

// ShouldReport reports whether now sits on an interval-aligned boundary
// that last has not consumed yet. Boundaries are aligned to the wall
// clock, not to process start: with a 300s interval it fires during
// minutes :00, :05, :10 and so on, at most once per boundary.
//
// No IO. No side effects.
func ShouldReport(now, last time.Time, interval time.Duration) bool {
	step := int64(interval / time.Second)
	if step <= 0 {
		return false
	}
	if !last.IsZero() && localSeconds(last)/step == localSeconds(now)/step {
		return false
	}
	return localSeconds(now)%step < 60
}

// localSeconds maps t onto an epoch shifted by its UTC offset, so the
// alignment grid follows the wall clock across zones and DST changes.
func localSeconds(t time.Time) int64 {
	_, offset := t.Zone()
	return t.Unix() + int64(offset)
}

// MaybeReport submits the snapshot when an aligned boundary has been
// reached. The attempt consumes the boundary whether or not it
// succeeds; a failed upload waits for the next one.
func (r *Reporter) MaybeReport(ctx context.Context, snap growatt.Snapshot) (bool, error) {
	if !ShouldReport(snap.At, r.last, r.interval) {
		return false, nil
	}
	r.last = snap.At

	st := r.statusFrom(snap)
	if r.dryRun {
		r.log.WithFields(logrus.Fields{
			"t":  st.At.Format("15:04"),
			"v2": st.ACPower,
		}).Debug("dry run: status not sent")
		return true, nil
	}

	if err := r.cli.AddStatus(ctx, st); err != nil {
		return true, err
	}
	r.log.WithField("t", st.At.Format("15:04")).Info("status submitted")
	return true, nil
}

// statusFrom maps a snapshot onto the remote field schema. The energy
// counter moves in 100 Wh steps; resending an unchanged value would
// drag the service's computed average power toward zero, so the field
// is omitted until the counter moves.
func (r *Reporter) statusFrom(snap growatt.Snapshot) Status {
	st := Status{
		At:           snap.At,
		ACPower:      snap.ACPower,
		ACVolts:      snap.ACVolts,
		InverterTemp: snap.Temp,
		EnergyTotal:  int(snap.EnergyTotal),
	}
	if len(snap.PVStrings) > 0 {
		st.PV1Volts = snap.PVStrings[0].Volts
	}
	if wh := int(snap.EnergyToday); wh != r.lastEnergy {
		r.lastEnergy = wh
		st.EnergyToday = &wh
	}
	if snap.PVPower > 0 {
		eff := snap.Efficiency()
		st.Efficiency = &eff
	}
	return st
}
