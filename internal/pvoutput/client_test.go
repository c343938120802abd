// internal/pvoutput/client_test.go
package pvoutput

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestAddStatus_Success(t *testing.T) {
	var form url.Values
	var hdr http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/addstatus.jsp" {
			t.Errorf("path = %s, want /addstatus.jsp", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = r.PostForm
		hdr = r.Header.Clone()
		w.Header().Set("X-Rate-Limit-Remaining", "250")
	}))
	defer srv.Close()

	cli := New(Config{APIKey: "key123", SystemID: "9999", BaseURL: srv.URL}, testLog())

	wh := 12300
	eff := 80.0
	st := Status{
		At:           time.Date(2024, 6, 1, 12, 5, 0, 0, time.UTC),
		EnergyToday:  &wh,
		ACPower:      240.4,
		ACVolts:      230.1,
		PV1Volts:     30.5,
		InverterTemp: 35.2,
		EnergyTotal:  9876500,
		Efficiency:   &eff,
	}
	if err := cli.AddStatus(context.Background(), st); err != nil {
		t.Fatalf("AddStatus: %v", err)
	}

	for k, want := range map[string]string{
		"d":   "20240601",
		"t":   "12:05",
		"v1":  "12300",
		"v2":  "240.4",
		"v6":  "230.1",
		"v8":  "30.5",
		"v9":  "35.2",
		"v10": "9876500",
		"v12": "80",
		"c1":  "0",
	} {
		if got := form.Get(k); got != want {
			t.Fatalf("form[%s] = %q, want %q", k, got, want)
		}
	}

	if got := hdr.Get("X-Pvoutput-Apikey"); got != "key123" {
		t.Fatalf("api key header = %q", got)
	}
	if got := hdr.Get("X-Pvoutput-SystemId"); got != "9999" {
		t.Fatalf("system id header = %q", got)
	}
	if got := hdr.Get("X-Rate-Limit"); got != "1" {
		t.Fatalf("rate limit header = %q", got)
	}
}

func TestAddStatus_OmitsOptionalFields(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = r.PostForm
	}))
	defer srv.Close()

	cli := New(Config{APIKey: "k", SystemID: "1", BaseURL: srv.URL}, testLog())
	st := Status{At: time.Date(2024, 6, 1, 12, 5, 0, 0, time.UTC)}
	if err := cli.AddStatus(context.Background(), st); err != nil {
		t.Fatalf("AddStatus: %v", err)
	}

	if _, ok := form["v1"]; ok {
		t.Fatalf("v1 sent, want omitted")
	}
	if _, ok := form["v12"]; ok {
		t.Fatalf("v12 sent, want omitted")
	}
	if got := form.Get("c1"); got != "0" {
		t.Fatalf("c1 = %q, want 0", got)
	}
}

func TestAddStatus_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, "Forbidden 403: Exceeded number requests per hour")
	}))
	defer srv.Close()

	cli := New(Config{APIKey: "k", SystemID: "1", BaseURL: srv.URL}, testLog())
	err := cli.AddStatus(context.Background(), Status{At: time.Now()})
	if err == nil {
		t.Fatalf("expected error on HTTP 403")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("error %q does not mention status", err)
	}
}
