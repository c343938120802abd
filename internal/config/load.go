// internal/config/load.go
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment overrides for secrets kept out of the config file.
const (
	envMQTTUsername   = "GROWATT_MQTT_USERNAME"
	envMQTTPassword   = "GROWATT_MQTT_PASSWORD"
	envPVOutputAPIKey = "GROWATT_PVOUTPUT_API_KEY"
	envPVOutputSystem = "GROWATT_PVOUTPUT_SYSTEM_ID"
)

// Load reads the yaml file at path. Unknown keys are rejected so a typo
// fails at startup instead of silently running on defaults. A .env file
// in the working directory is merged into the environment first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyEnv(&cfg)
	return &cfg, nil
}

// applyEnv lets environment variables override file-borne secrets.
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(envMQTTUsername); ok {
		cfg.MQTT.Username = v
	}
	if v, ok := os.LookupEnv(envMQTTPassword); ok {
		cfg.MQTT.Password = v
	}
	if v, ok := os.LookupEnv(envPVOutputAPIKey); ok {
		cfg.PVOutput.APIKey = v
	}
	if v, ok := os.LookupEnv(envPVOutputSystem); ok {
		cfg.PVOutput.SystemID = v
	}
}
