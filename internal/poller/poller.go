// internal/poller/poller.go
package poller

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BruceRobertson/growatt-mqtt/internal/growatt"
)

// Client abstracts the register transport the poller drives.
// The client owns one request/response; the poller owns the
// retry-by-next-cycle policy.
type Client interface {
	ReadInputRegisters(addr, qty uint16) ([]uint16, error)
	ReadHoldingRegisters(addr, qty uint16) ([]uint16, error)
	Close() error
}

// Poller reads one snapshot per call from a single serial device.
// Not safe for concurrent use: serial access is single-flight by design.
type Poller struct {
	client Client
	layout growatt.Layout
	log    *logrus.Entry

	identity *growatt.Identity
}

// New creates a poller with immutable layout and transport.
func New(client Client, layout growatt.Layout, log *logrus.Entry) (*Poller, error) {
	if client == nil {
		return nil, errors.New("poller: client required")
	}
	if layout.MinWords == 0 {
		return nil, errors.New("poller: layout required")
	}
	if log == nil {
		return nil, errors.New("poller: logger required")
	}
	return &Poller{client: client, layout: layout, log: log}, nil
}

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any transport or decode failure aborts the cycle and no
// snapshot is produced. The identity block is read on the first successful
// cycle and cached for the life of the process; until that read succeeds
// every cycle retries it.
func (p *Poller) PollOnce() (growatt.Snapshot, error) {
	if p.identity == nil {
		regs, err := p.client.ReadHoldingRegisters(growatt.HoldingRegBase, growatt.HoldingRegCount)
		if err != nil {
			return growatt.Snapshot{}, fmt.Errorf("identity read: %w", err)
		}
		id, err := growatt.DecodeIdentity(regs)
		if err != nil {
			return growatt.Snapshot{}, fmt.Errorf("identity decode: %w", err)
		}
		p.identity = &id
		p.log.WithFields(logrus.Fields{
			"serial":   id.Serial,
			"model":    id.Model,
			"firmware": id.Firmware,
			"dtc":      id.DTC,
		}).Info("device identity read")
	}

	regs, err := p.client.ReadInputRegisters(growatt.InputRegBase, growatt.InputRegCount)
	if err != nil {
		return growatt.Snapshot{}, fmt.Errorf("input read: %w", err)
	}

	snap, err := growatt.Decode(p.layout, regs)
	if err != nil {
		return growatt.Snapshot{}, err
	}

	snap.At = time.Now()
	snap.Serial = p.identity.Serial
	snap.Model = p.identity.Model
	snap.Firmware = p.identity.Firmware
	return snap, nil
}

// Identity returns the cached identity block, if it has been read yet.
func (p *Poller) Identity() (growatt.Identity, bool) {
	if p.identity == nil {
		return growatt.Identity{}, false
	}
	return *p.identity, true
}
