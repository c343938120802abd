// internal/poller/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"time"

	goburrow "github.com/goburrow/modbus"
)

// Client implements poller.Client over Modbus RTU.
// The wire payload is two big-endian bytes per register; this adapter
// unpacks it and nothing more.
type Client struct {
	handler *goburrow.RTUClientHandler
	mb      goburrow.Client
}

// Config is minimal transport config.
type Config struct {
	Device   string
	BaudRate int
	SlaveID  uint8
	Timeout  time.Duration
}

// New opens the serial port and returns a connected RTU client.
// Framing is 8N1 per the vendor protocol.
func New(cfg Config) (*Client, error) {
	if cfg.Device == "" {
		return nil, errors.New("modbus client: device required")
	}

	h := goburrow.NewRTUClientHandler(cfg.Device)
	h.BaudRate = cfg.BaudRate
	h.DataBits = 8
	h.Parity = "N"
	h.StopBits = 1
	h.SlaveId = cfg.SlaveID
	h.Timeout = cfg.Timeout

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("modbus client: open %s: %w", cfg.Device, err)
	}

	return &Client{handler: h, mb: goburrow.NewClient(h)}, nil
}

// Close closes the serial port.
func (c *Client) Close() error {
	if c == nil || c.handler == nil {
		return nil
	}
	return c.handler.Close()
}

// ---- poller.Client interface ----

func (c *Client) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	data, err := c.mb.ReadInputRegisters(addr, qty)
	if err != nil {
		return nil, err
	}
	return unpackRegisters(data, qty)
}

func (c *Client) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	data, err := c.mb.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, err
	}
	return unpackRegisters(data, qty)
}

// ---- helpers (pure geometry) ----

func unpackRegisters(data []byte, qty uint16) ([]uint16, error) {
	if len(data) < int(qty)*2 {
		return nil, fmt.Errorf("modbus: short payload: got %d bytes, want %d", len(data), int(qty)*2)
	}
	out := make([]uint16, qty)
	for i := range out {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out, nil
}
