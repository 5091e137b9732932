package mqtt

import "strings"

// Topic layout under the configured prefix:
//
//	{prefix}/sensors           sensor gateway publishes SensorReading JSON (retained)
//	{prefix}/cmd/relay/{id}    controller publishes "on" / "off"
//	{prefix}/cmd/led           controller publishes RGBWW JSON
//	{prefix}/status            controller publishes its status snapshot (retained)
const (
	sensorsSuffix  = "sensors"
	relaySuffix    = "cmd/relay"
	ledSuffix      = "cmd/led"
	statusSuffix   = "status"
	topicSeparator = "/"
)

// Topics builds topic names for one prefix.
type Topics struct {
	Prefix string
}

func (t Topics) join(parts ...string) string {
	return strings.TrimSuffix(t.Prefix, topicSeparator) + topicSeparator + strings.Join(parts, topicSeparator)
}

// Sensors is where the sensor gateway publishes readings.
func (t Topics) Sensors() string { return t.join(sensorsSuffix) }

// Relay is the command topic for one relay.
func (t Topics) Relay(name string) string { return t.join(relaySuffix, name) }

// LED is the command topic for the strip.
func (t Topics) LED() string { return t.join(ledSuffix) }

// Status is where the controller mirrors its snapshot.
func (t Topics) Status() string { return t.join(statusSuffix) }
