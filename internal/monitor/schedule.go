// internal/monitor/schedule.go
package monitor

import "time"

// Window is the daily operating window in local hours. Start is
// inclusive, Stop exclusive; {0, 24} is always active. Outside the
// window the inverter is dark and not worth polling.
type Window struct {
	StartHour int
	StopHour  int
}

// Contains reports whether t falls inside the window.
//
// No IO. No side effects.
func (w Window) Contains(t time.Time) bool {
	h := t.Hour()
	return h >= w.StartHour && h < w.StopHour
}

// NextStart returns the first window opening strictly after t.
func (w Window) NextStart(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), w.StartHour, 0, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
