// internal/telemetry/discovery.go
package telemetry

import "fmt"

// deviceInfo identifies the inverter in discovery metadata. It is filled
// from the first snapshot that carries a serial number.
type deviceInfo struct {
	Serial   string
	Model    string
	Firmware string
}

// sensorDef describes one Home Assistant sensor entity.
type sensorDef struct {
	ID          string
	Name        string
	Unit        string
	DeviceClass string
	StateClass  string
	Icon        string
	Category    string
}

// sensors lists one entity per published field. IDs match the snapshot
// field names; state topics are derived from them.
var sensors = []sensorDef{
	{ID: "pv_power", Name: "PV Power", Unit: "W", DeviceClass: "power", StateClass: "measurement", Icon: "mdi:solar-power-variant"},
	{ID: "pv_volts1", Name: "PV1 Voltage", Unit: "V", DeviceClass: "voltage", StateClass: "measurement", Icon: "mdi:solar-panel"},
	{ID: "pv_amps1", Name: "PV1 Current", Unit: "A", DeviceClass: "current", StateClass: "measurement", Icon: "mdi:current-dc"},
	{ID: "pv_power1", Name: "PV1 Power", Unit: "W", DeviceClass: "power", StateClass: "measurement", Icon: "mdi:solar-panel"},
	{ID: "pv_volts2", Name: "PV2 Voltage", Unit: "V", DeviceClass: "voltage", StateClass: "measurement", Icon: "mdi:solar-panel"},
	{ID: "pv_amps2", Name: "PV2 Current", Unit: "A", DeviceClass: "current", StateClass: "measurement", Icon: "mdi:current-dc"},
	{ID: "pv_power2", Name: "PV2 Power", Unit: "W", DeviceClass: "power", StateClass: "measurement", Icon: "mdi:solar-panel"},
	{ID: "ac_power", Name: "AC Power", Unit: "W", DeviceClass: "power", StateClass: "measurement", Icon: "mdi:home-lightning-bolt"},
	{ID: "ac_volts", Name: "AC Voltage", Unit: "V", DeviceClass: "voltage", StateClass: "measurement", Icon: "mdi:transmission-tower"},
	{ID: "ac_amps", Name: "AC Current", Unit: "A", DeviceClass: "current", StateClass: "measurement", Icon: "mdi:current-ac"},
	{ID: "ac_frequency", Name: "AC Frequency", Unit: "Hz", DeviceClass: "frequency", StateClass: "measurement", Icon: "mdi:sine-wave"},
	{ID: "wh_today", Name: "Energy Today", Unit: "Wh", DeviceClass: "energy", StateClass: "total_increasing", Icon: "mdi:white-balance-sunny"},
	{ID: "wh_total", Name: "Energy Total", Unit: "Wh", DeviceClass: "energy", StateClass: "total_increasing", Icon: "mdi:lightning-bolt"},
	{ID: "temp", Name: "Temperature", Unit: "°C", DeviceClass: "temperature", StateClass: "measurement", Icon: "mdi:thermometer"},
	{ID: "ipm_temp", Name: "IPM Temperature", Unit: "°C", DeviceClass: "temperature", StateClass: "measurement", Icon: "mdi:thermometer-high"},
	{ID: "operation_hours", Name: "Operation Hours", Unit: "h", DeviceClass: "duration", StateClass: "total_increasing", Icon: "mdi:clock-outline"},
	{ID: "status", Name: "Status Code", Icon: "mdi:numeric", Category: "diagnostic"},
	{ID: "status_str", Name: "Status", Icon: "mdi:solar-power", Category: "diagnostic"},
	{ID: "serial_no", Name: "Serial Number", Icon: "mdi:identifier", Category: "diagnostic"},
	{ID: "model_no", Name: "Model", Icon: "mdi:information-outline", Category: "diagnostic"},
}

// discoveryPayload is the retained JSON config Home Assistant reads to
// register one sensor entity.
type discoveryPayload struct {
	Name              string        `json:"name"`
	StateTopic        string        `json:"state_topic"`
	UniqueID          string        `json:"unique_id"`
	AvailabilityTopic string        `json:"availability_topic"`
	Icon              string        `json:"icon,omitempty"`
	Unit              string        `json:"unit_of_measurement,omitempty"`
	DeviceClass       string        `json:"device_class,omitempty"`
	StateClass        string        `json:"state_class,omitempty"`
	EntityCategory    string        `json:"entity_category,omitempty"`
	Device            devicePayload `json:"device"`
}

// devicePayload groups every sensor under a single device entry.
type devicePayload struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	SWVersion    string   `json:"sw_version,omitempty"`
}

// discoveryConfig renders the config payload for one sensor. Caller
// holds p.mu and guarantees p.dev is set.
func (p *Publisher) discoveryConfig(def sensorDef) discoveryPayload {
	return discoveryPayload{
		Name:              def.Name,
		StateTopic:        p.cfg.TopicPrefix + "/" + def.ID,
		UniqueID:          fmt.Sprintf("growatt_%s_%s", p.dev.Serial, def.ID),
		AvailabilityTopic: availabilityTopic(p.cfg.TopicPrefix),
		Icon:              def.Icon,
		Unit:              def.Unit,
		DeviceClass:       def.DeviceClass,
		StateClass:        def.StateClass,
		EntityCategory:    def.Category,
		Device: devicePayload{
			Identifiers:  []string{"growatt_" + p.dev.Serial},
			Name:         "Growatt Solar Inverter",
			Manufacturer: "Growatt",
			Model:        p.dev.Model,
			SWVersion:    p.dev.Firmware,
		},
	}
}
