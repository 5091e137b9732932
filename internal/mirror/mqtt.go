package mirror

import (
	"context"

	"terrarium_control/internal/mqtt"
)

// MQTTSink publishes the snapshot retained on the status topic.
type MQTTSink struct {
	client mqtt.Client
	topic  string
	qos    byte
}

// NewMQTTSink builds a sink for topic.
func NewMQTTSink(client mqtt.Client, topic string, qos byte) *MQTTSink {
	return &MQTTSink{client: client, topic: topic, qos: qos}
}

func (s *MQTTSink) Name() string { return "mqtt" }

func (s *MQTTSink) Publish(ctx context.Context, payload []byte) error {
	return s.client.Publish(ctx, s.topic, s.qos, true, payload)
}
