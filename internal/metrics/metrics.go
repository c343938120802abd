// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BruceRobertson/growatt-mqtt/internal/growatt"
)

// Metrics owns the process instrument set on a private registry, so a
// scrape never observes anything but our own series. A nil *Metrics is
// valid and records nothing; dry runs pass nil.
type Metrics struct {
	registry *prometheus.Registry

	pollCycles    *prometheus.CounterVec
	publishErrors *prometheus.CounterVec
	reports       *prometheus.CounterVec

	acPower     prometheus.Gauge
	pvPower     prometheus.Gauge
	energyToday prometheus.Gauge
	temp        prometheus.Gauge
	statusCode  prometheus.Gauge
}

// New builds and registers the instrument set.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "growatt_poll_cycles_total",
			Help: "Poll cycles by result.",
		}, []string{"result"}),
		publishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "growatt_publish_errors_total",
			Help: "Publish failures by sink.",
		}, []string{"sink"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "growatt_reports_total",
			Help: "Status upload attempts by result.",
		}, []string{"result"}),
		acPower: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "growatt_ac_power_watts",
			Help: "AC output power from the last snapshot.",
		}),
		pvPower: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "growatt_pv_power_watts",
			Help: "Aggregate DC input power from the last snapshot.",
		}),
		energyToday: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "growatt_energy_today_watthours",
			Help: "Energy generated today from the last snapshot.",
		}),
		temp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "growatt_inverter_temp_celsius",
			Help: "Inverter temperature from the last snapshot.",
		}),
		statusCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "growatt_status_code",
			Help: "Raw inverter status code from the last snapshot.",
		}),
	}

	m.registry.MustRegister(
		m.pollCycles, m.publishErrors, m.reports,
		m.acPower, m.pvPower, m.energyToday, m.temp, m.statusCode,
	)
	return m
}

// Handler serves the scrape endpoint for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// PollCycle records one poll outcome.
func (m *Metrics) PollCycle(ok bool) {
	if m == nil {
		return
	}
	m.pollCycles.WithLabelValues(result(ok)).Inc()
}

// PublishError records one failed publish for the named sink.
func (m *Metrics) PublishError(sink string) {
	if m == nil {
		return
	}
	m.publishErrors.WithLabelValues(sink).Inc()
}

// Report records one status upload attempt.
func (m *Metrics) Report(ok bool) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(result(ok)).Inc()
}

// ObserveSnapshot mirrors headline measurements into gauges.
func (m *Metrics) ObserveSnapshot(snap growatt.Snapshot) {
	if m == nil {
		return
	}
	m.acPower.Set(snap.ACPower)
	m.pvPower.Set(snap.PVPower)
	m.energyToday.Set(snap.EnergyToday)
	m.temp.Set(snap.Temp)
	m.statusCode.Set(float64(snap.StatusCode))
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
