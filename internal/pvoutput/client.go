// internal/pvoutput/client.go
package pvoutput

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is the production service endpoint.
const DefaultBaseURL = "https://pvoutput.org/service/r2/"

// The service enforces a daily request quota per API key. Below this
// many remaining requests we start warning.
const rateLimitWarn = 10

// Config is the remote service configuration.
type Config struct {
	APIKey   string
	SystemID string
	BaseURL  string
	Timeout  time.Duration
}

// Client posts live status updates to the PVOutput service.
type Client struct {
	cfg  Config
	http *http.Client
	log  *logrus.Entry
}

// New builds a client. Zero-value Timeout and BaseURL fall back to
// service defaults.
func New(cfg Config, log *logrus.Entry) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

// Status is one addstatus submission. Optional fields are pointers;
// nil omits the parameter entirely rather than sending a zero.
type Status struct {
	At           time.Time
	EnergyToday  *int    // v1, Wh
	ACPower      float64 // v2, W
	ACVolts      float64 // v6
	PV1Volts     float64 // v8, DC voltage of string 1
	InverterTemp float64 // v9, degrees C
	EnergyTotal  int     // v10, lifetime Wh
	Efficiency   *float64
}

// AddStatus submits one status report. A single attempt only: the
// caller owns the upload schedule, and a failed slot is accepted loss.
func (c *Client) AddStatus(ctx context.Context, st Status) error {
	form := url.Values{}
	form.Set("d", st.At.Format("20060102"))
	form.Set("t", st.At.Format("15:04"))
	if st.EnergyToday != nil {
		form.Set("v1", strconv.Itoa(*st.EnergyToday))
	}
	form.Set("v2", formatParam(st.ACPower))
	form.Set("v6", formatParam(st.ACVolts))
	form.Set("v8", formatParam(st.PV1Volts))
	form.Set("v9", formatParam(st.InverterTemp))
	form.Set("v10", strconv.Itoa(st.EnergyTotal))
	if st.Efficiency != nil {
		form.Set("v12", formatParam(*st.Efficiency))
	}
	form.Set("c1", "0")

	endpoint := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/addstatus.jsp"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("pvoutput: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Pvoutput-Apikey", c.cfg.APIKey)
	req.Header.Set("X-Pvoutput-SystemId", c.cfg.SystemID)
	req.Header.Set("X-Rate-Limit", "1")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pvoutput: post status: %w", err)
	}
	defer resp.Body.Close()

	c.warnRateLimit(resp.Header)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("pvoutput: addstatus: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}

// warnRateLimit surfaces a shrinking request quota before the service
// starts rejecting uploads.
func (c *Client) warnRateLimit(h http.Header) {
	remaining, err := strconv.Atoi(h.Get("X-Rate-Limit-Remaining"))
	if err != nil || remaining >= rateLimitWarn {
		return
	}
	fields := logrus.Fields{"remaining": remaining}
	if reset, err := strconv.ParseInt(h.Get("X-Rate-Limit-Reset"), 10, 64); err == nil {
		fields["reset_in"] = time.Until(time.Unix(reset, 0)).Round(time.Second).String()
	}
	c.log.WithFields(fields).Warn("request quota nearly exhausted")
}

func formatParam(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
