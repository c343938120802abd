// cmd/growatt-mqtt/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/BruceRobertson/growatt-mqtt/internal/config"
	"github.com/BruceRobertson/growatt-mqtt/internal/growatt"
	"github.com/BruceRobertson/growatt-mqtt/internal/metrics"
	"github.com/BruceRobertson/growatt-mqtt/internal/monitor"
	"github.com/BruceRobertson/growatt-mqtt/internal/poller"
	"github.com/BruceRobertson/growatt-mqtt/internal/pvoutput"
	"github.com/BruceRobertson/growatt-mqtt/internal/telemetry"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: growatt-mqtt <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	logger := setupLogger(cfg.Log)
	entry := logrus.NewEntry(logger)

	logger.WithFields(logrus.Fields{
		"device":  cfg.Serial.Device,
		"variant": cfg.Inverter.Variant,
		"broker":  cfg.MQTT.Broker,
	}).Info("growatt-mqtt starting")
	if cfg.DryRun {
		logger.Warn("dry run: nothing will be transmitted")
	}

	// --------------------
	// Poll pipeline
	// --------------------

	variant, err := growatt.ParseVariant(cfg.Inverter.Variant)
	if err != nil {
		logger.Fatalf("inverter variant: %v", err)
	}

	p, closePoller, err := poller.Build(cfg.Serial, variant, entry.WithField("component", "poller"))
	if err != nil {
		logger.Fatalf("poller build failed: %v", err)
	}

	// --------------------
	// Sinks
	// --------------------

	pub, err := telemetry.New(telemetry.Config{
		Broker:          cfg.MQTT.Broker,
		Username:        cfg.MQTT.Username,
		Password:        cfg.MQTT.Password,
		ClientID:        cfg.MQTT.ClientID,
		TopicPrefix:     cfg.MQTT.Topic,
		DiscoveryPrefix: cfg.MQTT.DiscoveryPrefix,
		PublishTimeout:  time.Duration(cfg.MQTT.PublishTimeoutMs) * time.Millisecond,
		DryRun:          cfg.DryRun,
	}, entry.WithField("component", "mqtt"))
	if err != nil {
		logger.Fatalf("telemetry build failed: %v", err)
	}
	pub.Connect()

	var rep monitor.Reporter
	if cfg.PVOutput.Enabled {
		cli := pvoutput.New(pvoutput.Config{
			APIKey:   cfg.PVOutput.APIKey,
			SystemID: cfg.PVOutput.SystemID,
			BaseURL:  cfg.PVOutput.BaseURL,
			Timeout:  time.Duration(cfg.PVOutput.TimeoutMs) * time.Millisecond,
		}, entry.WithField("component", "pvoutput"))

		r, err := pvoutput.NewReporter(
			cli,
			time.Duration(cfg.Schedule.UploadIntervalS)*time.Second,
			cfg.DryRun,
			entry.WithField("component", "pvoutput"),
		)
		if err != nil {
			logger.Fatalf("reporter build failed: %v", err)
		}
		rep = r
	}

	// --------------------
	// Metrics endpoint (optional)
	// --------------------

	var met *metrics.Metrics
	var metricsSrv *http.Server
	if cfg.Metrics.Listen != "" {
		met = metrics.New()
		mux := http.NewServeMux()
		mux.Handle("/metrics", met.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Listen, Handler: mux}
	}

	// --------------------
	// Run until signalled
	// --------------------

	mon, err := monitor.New(monitor.Config{
		PollInterval: time.Duration(cfg.Schedule.PollIntervalS) * time.Second,
		Window: monitor.Window{
			StartHour: cfg.Schedule.StartHour,
			StopHour:  cfg.Schedule.StopHour,
		},
	}, monitor.Deps{
		Poller:    p,
		Telemetry: pub,
		Reporter:  rep,
		Metrics:   met,
		Log:       entry.WithField("component", "monitor"),
	})
	if err != nil {
		logger.Fatalf("monitor build failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return mon.Run(gctx)
	})

	if metricsSrv != nil {
		g.Go(func() error {
			logger.WithField("listen", cfg.Metrics.Listen).Info("metrics endpoint up")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsSrv.Shutdown(shCtx)
		})
	}

	waitErr := g.Wait()

	// --------------------
	// Teardown
	// --------------------

	pub.Close()
	if err := closePoller(); err != nil {
		logger.WithError(err).Warn("serial close failed")
	}

	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		logger.WithError(waitErr).Fatal("exited with error")
	}
	logger.Info("shutdown complete")
}

func setupLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
