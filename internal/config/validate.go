// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	// ------------------------------------------------------------
	// SERIAL TRANSPORT
	// ------------------------------------------------------------

	if cfg.Serial.Device == "" {
		return fmt.Errorf("serial: device is required")
	}
	if cfg.Serial.BaudRate < 0 {
		return fmt.Errorf("serial: baud_rate %d must not be negative", cfg.Serial.BaudRate)
	}
	if cfg.Serial.TimeoutMs < 0 {
		return fmt.Errorf("serial: timeout_ms %d must not be negative", cfg.Serial.TimeoutMs)
	}

	// ------------------------------------------------------------
	// INVERTER LAYOUT
	// ------------------------------------------------------------

	switch cfg.Inverter.Variant {
	case "", "single", "dual":
	default:
		return fmt.Errorf("inverter: unknown variant %q (want single or dual)", cfg.Inverter.Variant)
	}

	// ------------------------------------------------------------
	// BROKER
	// ------------------------------------------------------------

	if cfg.MQTT.Broker == "" && !cfg.DryRun {
		return fmt.Errorf("mqtt: broker is required unless dry_run is set")
	}

	// ------------------------------------------------------------
	// UPLOAD SERVICE
	// ------------------------------------------------------------

	if cfg.PVOutput.Enabled && !cfg.DryRun {
		if cfg.PVOutput.APIKey == "" {
			return fmt.Errorf("pvoutput: api_key is required when enabled")
		}
		if cfg.PVOutput.SystemID == "" {
			return fmt.Errorf("pvoutput: system_id is required when enabled")
		}
	}
	if cfg.PVOutput.TimeoutMs < 0 {
		return fmt.Errorf("pvoutput: timeout_ms %d must not be negative", cfg.PVOutput.TimeoutMs)
	}

	// ------------------------------------------------------------
	// SCHEDULE
	// ------------------------------------------------------------

	if cfg.Schedule.PollIntervalS < 0 {
		return fmt.Errorf("schedule: poll_interval_s %d must not be negative", cfg.Schedule.PollIntervalS)
	}

	// Upload slots must land on wall clock boundaries: whole minutes
	// dividing evenly into one hour.
	if s := cfg.Schedule.UploadIntervalS; s != 0 {
		if s < 60 || s > 3600 || s%60 != 0 || 3600%s != 0 {
			return fmt.Errorf("schedule: upload_interval_s %d must be a whole number of minutes dividing one hour", s)
		}
	}

	// Both-zero hours mean "use defaults" and are filled in later.
	start, stop := cfg.Schedule.StartHour, cfg.Schedule.StopHour
	if start != 0 || stop != 0 {
		if start < 0 || start > 23 {
			return fmt.Errorf("schedule: start_hour %d out of range", start)
		}
		if stop < 1 || stop > 24 {
			return fmt.Errorf("schedule: stop_hour %d out of range", stop)
		}
		if start >= stop {
			return fmt.Errorf("schedule: start_hour %d must be before stop_hour %d", start, stop)
		}
	}

	// ------------------------------------------------------------
	// LOGGING
	// ------------------------------------------------------------

	switch cfg.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log: unknown format %q (want text or json)", cfg.Log.Format)
	}
	if cfg.Log.Level != "" {
		if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("log: invalid level %q", cfg.Log.Level)
		}
	}

	return nil
}
