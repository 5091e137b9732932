package mqtt

import "context"

// Client is the subset of an MQTT client the controller uses.
type Client interface {
	// Connect establishes a connection to the broker.
	Connect(ctx context.Context) error

	// Disconnect closes the connection to the broker.
	Disconnect()

	// Subscribe subscribes to a topic with the given QoS and handler.
	Subscribe(topic string, qos byte, handler MessageHandler) error

	// Publish sends payload and waits for the broker to acknowledge it or ctx to end.
	Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error

	// IsConnected returns whether the client is currently connected.
	IsConnected() bool
}

// MessageHandler is a callback for incoming messages.
type MessageHandler func(Message)

// Message is an incoming MQTT message.
type Message interface {
	Topic() string
	Payload() []byte
	Ack()
}
