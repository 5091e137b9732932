package control

import (
	"context"
	"time"

	"terrarium_control/internal/models"
)

// RelayID names a switched output.
type RelayID int

const (
	UV1 RelayID = iota
	UV2
	Heat
)

// Relays lists every relay in command order.
var Relays = [...]RelayID{UV1, UV2, Heat}

func (r RelayID) String() string {
	switch r {
	case UV1:
		return "uv1"
	case UV2:
		return "uv2"
	case Heat:
		return "heat"
	}
	return "relay?"
}

// SensorFeed returns the latest reading from the habitat sensors.
type SensorFeed interface {
	Read(ctx context.Context) (models.SensorReading, error)
}

// ActuatorDriver switches the relays and drives the LED strip.
type ActuatorDriver interface {
	SetRelay(ctx context.Context, id RelayID, on bool) error
	SetLED(ctx context.Context, c models.RGBWW) error
}

// EventRecorder receives transition events.
type EventRecorder interface {
	Record(ctx context.Context, ev models.Event) error
}

// ScheduleSource is the read side of the schedule store.
type ScheduleSource interface {
	Get(week int) (models.WeekSchedule, error)
	Version() uint64
}

// PresetSource is the read side of the preset store.
type PresetSource interface {
	Get() models.Presets
}

// LEDStateSaver persists operator LED settings so they survive restarts.
type LEDStateSaver interface {
	SaveLEDState(ctx context.Context, st models.LEDState) error
}

// Metrics receives per-tick measurements. Implementations must not block.
type Metrics interface {
	TickCompleted(d time.Duration)
	RelayCommanded(id RelayID, on bool)
	LEDCommanded(c models.RGBWW)
	ActuatorWrite(name string, err error)
	SensorRead(r models.SensorReading, err error)
	SensorFaulted(faulted bool)
	OverheatTripped(tripped bool)
}

type nopMetrics struct{}

func (nopMetrics) TickCompleted(time.Duration)            {}
func (nopMetrics) RelayCommanded(RelayID, bool)           {}
func (nopMetrics) LEDCommanded(models.RGBWW)              {}
func (nopMetrics) ActuatorWrite(string, error)            {}
func (nopMetrics) SensorRead(models.SensorReading, error) {}
func (nopMetrics) SensorFaulted(bool)                     {}
func (nopMetrics) OverheatTripped(bool)                   {}
