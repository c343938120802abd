// internal/poller/builder.go
package poller

import (
	"time"

	"github.com/sirupsen/logrus"

	cfg "github.com/BruceRobertson/growatt-mqtt/internal/config"
	"github.com/BruceRobertson/growatt-mqtt/internal/growatt"
	pmodbus "github.com/BruceRobertson/growatt-mqtt/internal/poller/modbus"
)

// Build constructs a Poller over a serial RTU client and wires the
// transport lifecycle. The port is opened once and fails fast at startup;
// read errors afterwards are per-cycle and non-fatal.
func Build(sc cfg.SerialConfig, variant growatt.Variant, log *logrus.Entry) (*Poller, func() error, error) {
	client, err := pmodbus.New(pmodbus.Config{
		Device:   sc.Device,
		BaudRate: sc.BaudRate,
		SlaveID:  sc.SlaveID,
		Timeout:  time.Duration(sc.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	p, err := New(client, growatt.LayoutFor(variant), log)
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	return p, client.Close, nil
}
