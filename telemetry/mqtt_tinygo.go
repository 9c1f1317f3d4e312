//go:build tinygo

package telemetry

import (
	"context"
	"log/slog"

	mqtt "github.com/soypat/natiu-mqtt"
)

// MQTTPublisher publishes Snapshots to a broker over natiu-mqtt, the
// embedded-friendly MQTT client the teacher's go.mod carries for exactly
// this on-device role.
type MQTTPublisher struct {
	client *mqtt.Client
	log    *slog.Logger
}

// NewMQTTPublisher wires a Publisher around an already-connected
// natiu-mqtt client. Connection setup (transport, keepalive, client ID) is
// board-specific and left to the caller, the same boundary spicomm.go
// draws around SPI bus ownership.
func NewMQTTPublisher(client *mqtt.Client, log *slog.Logger) *MQTTPublisher {
	if log == nil {
		log = slog.Default()
	}
	return &MQTTPublisher{client: client, log: log}
}

// Publish sends payload on topic at QoS 0: telemetry is a best-effort
// stream, not a command channel, so no retry/ack bookkeeping is worth the
// code on a microcontroller.
func (p *MQTTPublisher) Publish(topic string, payload []byte) error {
	pubFlags, err := mqtt.NewPublishFlags(mqtt.QoS0, false, false)
	if err != nil {
		return err
	}
	header := mqtt.Header{Flags: pubFlags}
	if err := p.client.PublishPayload(context.Background(), header, topic, payload); err != nil {
		p.log.Warn("telemetry mqtt publish failed", "topic", topic, "err", err)
		return err
	}
	return nil
}
