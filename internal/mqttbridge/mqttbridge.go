// Package mqttbridge subscribes to sensor topics on an MQTT broker and
// feeds the decoded measurements into a buffered InfluxDB sink.
package mqttbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/vekotinverstas/sensorpull/internal/influx"
)

type Options struct {
	Broker      string
	ClientID    string
	Topic       string
	Measurement string
	Logger      *slog.Logger
}

type Bridge struct {
	opts   Options
	buffer *influx.Buffer
	client mqtt.Client
}

func New(opts Options, buffer *influx.Buffer) *Bridge {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Bridge{opts: opts, buffer: buffer}
}

// Run connects, subscribes and buffers points until ctx is cancelled, then
// disconnects and flushes whatever is left.
func (b *Bridge) Run(ctx context.Context) error {
	options := mqtt.NewClientOptions().
		AddBroker(b.opts.Broker).
		SetClientID(b.opts.ClientID).
		SetKeepAlive(30 * time.Second).
		SetAutoReconnect(true)

	b.client = mqtt.NewClient(options)
	token := b.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("connect to %s timed out", b.opts.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to %s: %w", b.opts.Broker, err)
	}

	token = b.client.Subscribe(b.opts.Topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		b.handle(msg)
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.opts.Topic, err)
	}
	b.opts.Logger.Info("subscribed", "broker", b.opts.Broker, "topic", b.opts.Topic)

	<-ctx.Done()
	b.client.Disconnect(250)
	return b.buffer.Flush()
}

func (b *Bridge) handle(msg mqtt.Message) {
	point, err := PointFromMessage(b.opts.Measurement, msg.Topic(), msg.Payload())
	if err != nil {
		b.opts.Logger.Warn("discarding message", "topic", msg.Topic(), "error", err)
		return
	}
	if err := b.buffer.Add(point); err != nil {
		b.opts.Logger.Error("influxdb write failed", "error", err)
	}
}

// PointFromMessage decodes a JSON sensor payload into an InfluxDB point. The
// device ID is the last topic segment; only numeric fields are kept, the
// rest of the payload is ignored.
func PointFromMessage(measurement, topic string, payload []byte) (influx.Point, error) {
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return influx.Point{}, fmt.Errorf("parse payload: %w", err)
	}
	fields := map[string]any{}
	for key, value := range decoded {
		if number, ok := value.(float64); ok {
			fields[key] = number
		}
	}
	if len(fields) == 0 {
		return influx.Point{}, fmt.Errorf("no numeric fields in payload")
	}
	segments := strings.Split(topic, "/")
	devID := segments[len(segments)-1]
	return influx.Point{
		Measurement: measurement,
		Tags:        map[string]string{"dev-id": devID},
		Fields:      fields,
		Time:        time.Now().UTC(),
	}, nil
}
