package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vekotinverstas/sensorpull/internal/influx"
	"github.com/vekotinverstas/sensorpull/internal/mqttbridge"
)

type mqttOptions struct {
	commonOptions
	broker        string
	clientID      string
	topic         string
	measurement   string
	flushSize     int
	flushInterval time.Duration
}

// runMQTT subscribes to sensor topics and forwards decoded measurements into
// InfluxDB until interrupted.
func runMQTT(args []string) error {
	var opts mqttOptions
	fs := newFlagSet("mqtt")
	addBaseFlags(fs, &opts.commonOptions)
	fs.StringVar(&opts.broker, "broker", "tcp://127.0.0.1:1883", "MQTT broker address")
	fs.StringVar(&opts.clientID, "client-id", "sensorpull", "MQTT client ID")
	fs.StringVar(&opts.topic, "topic", "", "topic filter to subscribe to (e.g. sensors/#)")
	fs.StringVar(&opts.measurement, "measurement", "", "measurement name for stored points")
	fs.IntVar(&opts.flushSize, "flush-size", 1000, "write a batch after this many points")
	fs.DurationVar(&opts.flushInterval, "flush-interval", 10*time.Second, "write a batch at least this often")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logger := opts.setupLogging()

	cfg, err := settings(fs, &opts.commonOptions)
	if err != nil {
		return err
	}
	if opts.topic == "" {
		return fmt.Errorf("--topic is required")
	}
	if opts.measurement == "" {
		return fmt.Errorf("--measurement is required")
	}

	client, err := influxConnect(cfg)
	if err != nil {
		return err
	}
	if _, _, err := client.Ping(); err != nil {
		return fmt.Errorf("ping influxdb: %w", err)
	}
	buffer := influx.NewBuffer(client, opts.flushSize, opts.flushInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bridge := mqttbridge.New(mqttbridge.Options{
		Broker:      opts.broker,
		ClientID:    opts.clientID,
		Topic:       opts.topic,
		Measurement: opts.measurement,
		Logger:      logger,
	}, buffer)
	return bridge.Run(ctx)
}
