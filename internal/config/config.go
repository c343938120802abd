// internal/config/config.go
package config

type Config struct {
	Serial   SerialConfig   `yaml:"serial"`
	Inverter InverterConfig `yaml:"inverter"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	PVOutput PVOutputConfig `yaml:"pvoutput"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`

	// DryRun computes everything but transmits nothing.
	DryRun bool `yaml:"dry_run"`
}

// ---- SERIAL ----

type SerialConfig struct {
	Device    string `yaml:"device"` // e.g. /dev/ttyUSB0
	BaudRate  int    `yaml:"baud_rate"`
	SlaveID   uint8  `yaml:"slave_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- INVERTER ----

type InverterConfig struct {
	Variant string `yaml:"variant"` // "single" or "dual"
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker           string `yaml:"broker"` // e.g. tcp://127.0.0.1:1883
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	ClientID         string `yaml:"client_id"` // empty gets a random suffix
	Topic            string `yaml:"topic"`
	DiscoveryPrefix  string `yaml:"discovery_prefix"`
	PublishTimeoutMs int    `yaml:"publish_timeout_ms"`
}

// ---- PVOUTPUT ----

type PVOutputConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIKey    string `yaml:"api_key"`
	SystemID  string `yaml:"system_id"`
	BaseURL   string `yaml:"base_url"` // empty uses the production service
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- SCHEDULE ----

type ScheduleConfig struct {
	PollIntervalS   int `yaml:"poll_interval_s"`
	UploadIntervalS int `yaml:"upload_interval_s"`
	StartHour       int `yaml:"start_hour"` // inclusive, local time
	StopHour        int `yaml:"stop_hour"`  // exclusive, local time
}

// ---- METRICS ----

type MetricsConfig struct {
	Listen string `yaml:"listen"` // e.g. :9100; empty disables the endpoint
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}
