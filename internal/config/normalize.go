// internal/config/normalize.go
package config

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ------------------------------------------------------------
	// SERIAL TRANSPORT
	// ------------------------------------------------------------

	if cfg.Serial.BaudRate == 0 {
		cfg.Serial.BaudRate = 9600
	}
	if cfg.Serial.SlaveID == 0 {
		cfg.Serial.SlaveID = 1
	}
	if cfg.Serial.TimeoutMs == 0 {
		cfg.Serial.TimeoutMs = 1000
	}

	// ------------------------------------------------------------
	// INVERTER LAYOUT
	// ------------------------------------------------------------

	if cfg.Inverter.Variant == "" {
		cfg.Inverter.Variant = "dual"
	}

	// ------------------------------------------------------------
	// BROKER
	// ------------------------------------------------------------

	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "growatt"
	}
	if cfg.MQTT.DiscoveryPrefix == "" {
		cfg.MQTT.DiscoveryPrefix = "homeassistant"
	}
	if cfg.MQTT.PublishTimeoutMs == 0 {
		cfg.MQTT.PublishTimeoutMs = 5000
	}

	// ------------------------------------------------------------
	// UPLOAD SERVICE
	// ------------------------------------------------------------

	if cfg.PVOutput.TimeoutMs == 0 {
		cfg.PVOutput.TimeoutMs = 10000
	}

	// ------------------------------------------------------------
	// SCHEDULE
	// ------------------------------------------------------------

	if cfg.Schedule.PollIntervalS == 0 {
		cfg.Schedule.PollIntervalS = 10
	}
	if cfg.Schedule.UploadIntervalS == 0 {
		cfg.Schedule.UploadIntervalS = 300
	}
	if cfg.Schedule.StartHour == 0 && cfg.Schedule.StopHour == 0 {
		cfg.Schedule.StartHour = 5
		cfg.Schedule.StopHour = 21
	}

	// ------------------------------------------------------------
	// LOGGING
	// ------------------------------------------------------------

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
