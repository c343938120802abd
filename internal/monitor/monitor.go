// internal/monitor/monitor.go
package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BruceRobertson/growatt-mqtt/internal/growatt"
	"github.com/BruceRobertson/growatt-mqtt/internal/metrics"
)

// Repeated poll failures escalate from Warn to Error at this count.
const failureEscalation = 3

// Outside the window we sleep in bounded steps so wall clock changes
// and shutdown signals are picked up promptly.
const sleepStep = time.Minute

// Poller produces one decoded snapshot per cycle.
type Poller interface {
	PollOnce() (growatt.Snapshot, error)
}

// Telemetry receives every snapshot.
type Telemetry interface {
	PublishSnapshot(growatt.Snapshot) error
}

// Reporter receives every snapshot and decides which ones to upload.
type Reporter interface {
	MaybeReport(ctx context.Context, snap growatt.Snapshot) (bool, error)
}

// Config is the loop schedule.
type Config struct {
	PollInterval time.Duration
	Window       Window
}

// Deps are the collaborators driven by the loop. Reporter and Metrics
// may be nil.
type Deps struct {
	Poller    Poller
	Telemetry Telemetry
	Reporter  Reporter
	Metrics   *metrics.Metrics
	Log       *logrus.Entry
}

// Monitor owns the single control flow: poll, decode, fan out. It is
// the only caller of the serial transport; at most one register read
// is in flight at a time.
type Monitor struct {
	cfg Config
	d   Deps

	consecutiveFailures int

	now func() time.Time
}

// New validates the wiring and returns a ready loop.
func New(cfg Config, d Deps) (*Monitor, error) {
	if d.Poller == nil {
		return nil, errors.New("monitor: poller required")
	}
	if d.Telemetry == nil {
		return nil, errors.New("monitor: telemetry required")
	}
	if d.Log == nil {
		return nil, errors.New("monitor: logger required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	return &Monitor{cfg: cfg, d: d, now: time.Now}, nil
}

// Run drives the loop until ctx is cancelled and returns ctx.Err().
// One goroutine. No overlap. A cycle failure never stops the loop.
func (m *Monitor) Run(ctx context.Context) error {
	m.d.Log.WithFields(logrus.Fields{
		"poll_interval": m.cfg.PollInterval,
		"window":        m.cfg.Window,
	}).Info("monitor started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := m.now()
		if !m.cfg.Window.Contains(now) {
			wake := m.cfg.Window.NextStart(now)
			m.d.Log.WithField("until", wake.Format("2006-01-02 15:04")).Info("outside operating hours, sleeping")
			if !m.sleepUntil(ctx, wake) {
				return ctx.Err()
			}
			continue
		}

		m.cycle(ctx)

		if !m.sleepFor(ctx, m.cfg.PollInterval) {
			return ctx.Err()
		}
	}
}

// cycle runs one poll and fans the snapshot out to both sinks. The
// sinks fail independently: a broker outage never blocks an upload
// boundary and the other way round.
func (m *Monitor) cycle(ctx context.Context) {
	snap, err := m.d.Poller.PollOnce()
	if err != nil {
		m.consecutiveFailures++
		m.d.Metrics.PollCycle(false)
		log := m.d.Log.WithError(err).WithField("consecutive", m.consecutiveFailures)
		if m.consecutiveFailures >= failureEscalation {
			log.Error("poll cycle failed")
		} else {
			log.Warn("poll cycle failed")
		}
		return
	}

	if m.consecutiveFailures >= failureEscalation {
		m.d.Log.WithField("after", m.consecutiveFailures).Info("polling recovered")
	}
	m.consecutiveFailures = 0
	m.d.Metrics.PollCycle(true)
	m.d.Metrics.ObserveSnapshot(snap)

	if err := m.d.Telemetry.PublishSnapshot(snap); err != nil {
		m.d.Metrics.PublishError("mqtt")
		m.d.Log.WithError(err).Warn("telemetry publish failed")
	}

	if m.d.Reporter != nil {
		sent, err := m.d.Reporter.MaybeReport(ctx, snap)
		switch {
		case err != nil:
			m.d.Metrics.Report(false)
			m.d.Log.WithError(err).Warn("status upload failed")
		case sent:
			m.d.Metrics.Report(true)
		}
	}
}

// sleepFor suspends for d. Returns false when cancelled.
func (m *Monitor) sleepFor(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// sleepUntil suspends until wake, rechecking the clock every step.
func (m *Monitor) sleepUntil(ctx context.Context, wake time.Time) bool {
	for {
		d := wake.Sub(m.now())
		if d <= 0 {
			return true
		}
		if d > sleepStep {
			d = sleepStep
		}
		if !m.sleepFor(ctx, d) {
			return false
		}
	}
}
