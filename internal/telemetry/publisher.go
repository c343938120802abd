// internal/telemetry/publisher.go
package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/BruceRobertson/growatt-mqtt/internal/growatt"
)

// Availability topic payloads.
const (
	payloadOnline  = "online"
	payloadOffline = "offline"
)

// Config is the broker sink configuration.
type Config struct {
	Broker          string
	Username        string
	Password        string
	ClientID        string
	TopicPrefix     string
	DiscoveryPrefix string
	PublishTimeout  time.Duration
	DryRun          bool
}

// Publisher owns the broker session and the announce-on-reconnect state.
// Snapshot publishing and paho's connection callbacks run on different
// goroutines; the mutex covers the shared announce state.
type Publisher struct {
	cfg Config
	log *logrus.Entry

	client mqtt.Client // nil in dry-run

	mu        sync.Mutex
	announced bool
	dev       *deviceInfo
}

// New builds a publisher. In dry-run mode no broker session exists and
// the transmission step is replaced by debug logs; everything up to that
// step runs identically to live mode.
func New(cfg Config, log *logrus.Entry) (*Publisher, error) {
	if cfg.TopicPrefix == "" {
		return nil, errors.New("telemetry: topic prefix required")
	}
	if log == nil {
		return nil, errors.New("telemetry: logger required")
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}

	p := &Publisher{cfg: cfg, log: log}
	if cfg.DryRun {
		return p, nil
	}

	if cfg.Broker == "" {
		return nil, errors.New("telemetry: broker required")
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "growatt-mqtt-" + uuid.NewString()[:8]
	}

	p.client = mqtt.NewClient(buildOptions(cfg, clientID, p.onConnect, p.onConnectionLost))
	return p, nil
}

// buildOptions assembles the paho session options. The will is declared
// here, at connect time, so the broker flips availability to offline even
// when the process dies without running any teardown code.
func buildOptions(cfg Config, clientID string, onConnect mqtt.OnConnectHandler, onLost mqtt.ConnectionLostHandler) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Minute)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetWill(availabilityTopic(cfg.TopicPrefix), payloadOffline, 0, true)
	if onConnect != nil {
		opts.SetOnConnectHandler(onConnect)
	}
	if onLost != nil {
		opts.SetConnectionLostHandler(onLost)
	}
	return opts
}

func availabilityTopic(prefix string) string {
	return prefix + "/availability"
}

// Connect starts the broker session. The initial attempt keeps retrying
// in the background; an unreachable broker delays publishing, it never
// stops the poll loop.
func (p *Publisher) Connect() {
	if p.client == nil {
		return
	}
	t := p.client.Connect()
	if !t.WaitTimeout(p.cfg.PublishTimeout) {
		p.log.Warn("broker not reachable yet, retrying in background")
		return
	}
	if err := t.Error(); err != nil {
		p.log.WithError(err).Warn("broker connect failed, retrying in background")
	}
}

// Close announces offline and ends the session. Best effort: the will
// covers the case where none of this runs.
func (p *Publisher) Close() {
	if p.client == nil {
		return
	}
	if err := p.transmit(availabilityTopic(p.cfg.TopicPrefix), payloadOffline, true); err != nil {
		p.log.WithError(err).Warn("offline publish failed")
	}
	p.client.Disconnect(250)
	p.log.Info("disconnected from broker")
}

// PublishSnapshot pushes one message per measurement field. Individual
// publish failures are logged and counted; the cycle always continues
// and the next one retries with fresh values.
func (p *Publisher) PublishSnapshot(snap growatt.Snapshot) error {
	p.maybeAnnounce(snap)

	fields := snap.Fields()
	failed := 0
	for _, f := range fields {
		topic := p.cfg.TopicPrefix + "/" + f.Name
		if err := p.transmit(topic, f.Value, false); err != nil {
			failed++
			p.log.WithError(err).WithField("topic", topic).Error("publish failed")
		}
	}
	if failed > 0 {
		return fmt.Errorf("telemetry: %d of %d field publishes failed", failed, len(fields))
	}

	p.log.Debug("snapshot published")
	return nil
}

// onConnect runs on every transition into the connected state. Discovery
// consumers may have restarted while we were away, so the registration
// metadata goes out again on each connect.
func (p *Publisher) onConnect(_ mqtt.Client) {
	p.log.Info("connected to broker")

	p.mu.Lock()
	defer p.mu.Unlock()

	p.announced = false
	if p.dev != nil {
		p.announceLocked()
	}

	if err := p.transmit(availabilityTopic(p.cfg.TopicPrefix), payloadOnline, true); err != nil {
		p.log.WithError(err).Error("availability publish failed")
	}
}

func (p *Publisher) onConnectionLost(_ mqtt.Client, err error) {
	p.log.WithError(err).Warn("broker connection lost, reconnecting")
}

// maybeAnnounce publishes discovery metadata once identity is known and
// the session is up, at most once per connection. Identity may arrive
// after the first connect when the inverter is slower than the broker.
func (p *Publisher) maybeAnnounce(snap growatt.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dev == nil && snap.Serial != "" {
		p.dev = &deviceInfo{Serial: snap.Serial, Model: snap.Model, Firmware: snap.Firmware}
	}
	if p.announced || p.dev == nil || !p.connected() {
		return
	}
	p.announceLocked()
}

// announceLocked publishes one retained config per sensor. Any partial
// failure leaves the announce pending so the next cycle re-asserts the
// full set. Caller holds p.mu.
func (p *Publisher) announceLocked() {
	n := 0
	for _, def := range sensors {
		topic := fmt.Sprintf("%s/sensor/%s/%s/config", p.cfg.DiscoveryPrefix, p.dev.Serial, def.ID)
		payload, err := json.Marshal(p.discoveryConfig(def))
		if err != nil {
			p.log.WithError(err).WithField("sensor", def.ID).Error("discovery marshal failed")
			continue
		}
		if err := p.transmit(topic, string(payload), true); err != nil {
			p.log.WithError(err).WithField("topic", topic).Error("discovery publish failed")
			continue
		}
		n++
	}

	p.announced = n == len(sensors)
	p.log.WithField("sensors", n).Info("discovery configs published")
}

func (p *Publisher) connected() bool {
	if p.cfg.DryRun {
		return true
	}
	return p.client != nil && p.client.IsConnected()
}

// transmit is the single point where a message leaves the process.
// Dry-run replaces only this step.
func (p *Publisher) transmit(topic, payload string, retained bool) error {
	if p.cfg.DryRun {
		p.log.WithFields(logrus.Fields{"topic": topic, "payload": payload}).Debug("dry run: not sent")
		return nil
	}
	if p.client == nil {
		return errors.New("telemetry: no broker session")
	}

	t := p.client.Publish(topic, 0, retained, payload)
	if !t.WaitTimeout(p.cfg.PublishTimeout) {
		return fmt.Errorf("telemetry: publish timeout on %s", topic)
	}
	return t.Error()
}
