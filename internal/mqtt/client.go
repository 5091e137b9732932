// Package mqtt wraps the Paho client used by the hardware bridge and the status mirror.
package mqtt

import (
	"context"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"terrarium_control/internal/logger"
)

// Config selects the broker and topic namespace.
type Config struct {
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         byte   `mapstructure:"qos"`
}

// Validate checks the settings needed to connect.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	if c.TopicPrefix == "" {
		return fmt.Errorf("mqtt topic_prefix is required")
	}
	if c.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", c.QoS)
	}
	return nil
}

// pahoClient implements Client on top of Paho.
type pahoClient struct {
	client pahomqtt.Client
	cfg    Config
	log    *logger.Logger
}

// NewClient creates a client with automatic reconnects. Call Connect before use.
func NewClient(cfg Config, log *logger.Logger) Client {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)

	if cfg.ClientID != "" {
		opts.SetClientID(cfg.ClientID)
	} else {
		opts.SetClientID(fmt.Sprintf("terrarium-%d", time.Now().Unix()))
	}
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c pahomqtt.Client) {
		log.Infow("mqtt_connected", "broker", cfg.Broker)
	}
	opts.OnConnectionLost = func(c pahomqtt.Client, err error) {
		log.Warnw("mqtt_connection_lost", "err", err)
	}
	opts.OnReconnecting = func(c pahomqtt.Client, opts *pahomqtt.ClientOptions) {
		log.Infow("mqtt_reconnecting", "broker", cfg.Broker)
	}

	return &pahoClient{
		client: pahomqtt.NewClient(opts),
		cfg:    cfg,
		log:    log,
	}
}

func (m *pahoClient) Connect(ctx context.Context) error {
	m.log.Infow("mqtt_connecting", "broker", m.cfg.Broker)

	token := m.client.Connect()
	select {
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("connect to mqtt broker: %w", token.Error())
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("connect to mqtt broker: %w", ctx.Err())
	}
}

func (m *pahoClient) Disconnect() {
	m.log.Infow("mqtt_disconnecting")
	m.client.Disconnect(250)
}

func (m *pahoClient) Subscribe(topic string, qos byte, handler MessageHandler) error {
	token := m.client.Subscribe(topic, qos, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		handler(msg)
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	m.log.Infow("mqtt_subscribed", "topic", topic, "qos", qos)
	return nil
}

func (m *pahoClient) Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error {
	token := m.client.Publish(topic, qos, retained, payload)
	select {
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("publish %s: %w", topic, token.Error())
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", topic, ctx.Err())
	}
}

func (m *pahoClient) IsConnected() bool {
	return m.client.IsConnected()
}
