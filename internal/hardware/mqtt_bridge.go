package hardware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"terrarium_control/internal/control"
	"terrarium_control/internal/logger"
	"terrarium_control/internal/models"
	"terrarium_control/internal/mqtt"
)

var (
	// ErrNoReading is returned before the first sensor message arrives.
	ErrNoReading = errors.New("no sensor reading received yet")
	// ErrStaleReading is returned when the newest sensor message is older than the bridge's max age.
	ErrStaleReading = errors.New("sensor reading too old")
)

// MQTTBridge talks to a sensor/relay gateway over MQTT. Readings arrive on the sensors topic;
// relay and LED commands are published retained so the gateway picks them up after a reconnect.
type MQTTBridge struct {
	client mqtt.Client
	topics mqtt.Topics
	qos    byte
	maxAge time.Duration
	log    *logger.Logger
	now    func() time.Time

	mu     sync.Mutex
	last   models.SensorReading
	lastAt time.Time
	has    bool
}

// NewMQTTBridge builds a bridge. Call Start to subscribe.
func NewMQTTBridge(client mqtt.Client, topics mqtt.Topics, qos byte, maxAge time.Duration, log *logger.Logger) *MQTTBridge {
	return &MQTTBridge{
		client: client,
		topics: topics,
		qos:    qos,
		maxAge: maxAge,
		log:    log,
		now:    time.Now,
	}
}

// Start subscribes to the sensors topic.
func (b *MQTTBridge) Start() error {
	return b.client.Subscribe(b.topics.Sensors(), b.qos, b.handle)
}

func (b *MQTTBridge) handle(msg mqtt.Message) {
	var r models.SensorReading
	if err := json.Unmarshal(msg.Payload(), &r); err != nil {
		if b.log != nil {
			b.log.Warnw("mqtt_sensor_payload_invalid", "topic", msg.Topic(), "err", err)
		}
		return
	}
	now := b.now()
	if r.TakenAt.IsZero() {
		r.TakenAt = now.UTC()
	}

	b.mu.Lock()
	b.last, b.lastAt, b.has = r, now, true
	b.mu.Unlock()
	msg.Ack()
}

// Read implements control.SensorFeed with the newest received reading.
func (b *MQTTBridge) Read(ctx context.Context) (models.SensorReading, error) {
	if err := ctx.Err(); err != nil {
		return models.SensorReading{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.has {
		return models.SensorReading{}, ErrNoReading
	}
	if age := b.now().Sub(b.lastAt); b.maxAge > 0 && age > b.maxAge {
		return models.SensorReading{}, fmt.Errorf("%w: %s old", ErrStaleReading, age.Round(time.Second))
	}
	return b.last, nil
}

// SetRelay implements control.ActuatorDriver.
func (b *MQTTBridge) SetRelay(ctx context.Context, id control.RelayID, on bool) error {
	payload := "off"
	if on {
		payload = "on"
	}
	return b.client.Publish(ctx, b.topics.Relay(id.String()), b.qos, true, []byte(payload))
}

// SetLED implements control.ActuatorDriver.
func (b *MQTTBridge) SetLED(ctx context.Context, c models.RGBWW) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.topics.LED(), b.qos, true, payload)
}
