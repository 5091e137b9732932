package control

import (
	"time"

	"terrarium_control/internal/models"
)

// RelayStates are the relay values last applied to the hardware.
type RelayStates struct {
	UV1  bool `json:"uv1"`
	UV2  bool `json:"uv2"`
	Heat bool `json:"heat"`
}

// Status is a point-in-time copy of the loop state.
type Status struct {
	UpdatedAt   time.Time             `json:"updated_at"`
	Tick        uint64                `json:"tick"`
	Week        int                   `json:"week"`
	LED         models.LEDState       `json:"led"`
	Reading     *models.SensorReading `json:"reading,omitempty"`
	SensorFault bool                  `json:"sensor_fault"`
	SensorError string                `json:"sensor_error,omitempty"`
	Overheat    models.OverheatState  `json:"overheat"`
	Relays      RelayStates           `json:"relays"`
	Unavailable []string              `json:"unavailable,omitempty"`
}

// Status returns the snapshot published by the last tick.
func (l *Loop) Status() Status {
	l.smu.RLock()
	defer l.smu.RUnlock()

	st := l.status
	if st.Reading != nil {
		r := *st.Reading
		st.Reading = &r
	}
	st.Unavailable = append([]string(nil), st.Unavailable...)
	return st
}

func (l *Loop) publish(now time.Time) {
	st := Status{
		UpdatedAt:   now.UTC(),
		Tick:        l.ticks,
		Week:        l.week,
		LED:         l.led,
		SensorFault: l.sensor.faulted,
		Overheat:    l.guard.State(),
		Relays: RelayStates{
			UV1:  l.relays[UV1].value,
			UV2:  l.relays[UV2].value,
			Heat: l.relays[Heat].value,
		},
	}
	if l.sensor.hasGood {
		r := l.sensor.last
		st.Reading = &r
	}
	if l.sensor.lastErr != nil {
		st.SensorError = l.sensor.lastErr.Error()
	}
	for _, id := range Relays {
		if l.relays[id].unavailable {
			st.Unavailable = append(st.Unavailable, id.String())
		}
	}
	if l.ledOut.unavailable {
		st.Unavailable = append(st.Unavailable, "led")
	}

	l.smu.Lock()
	l.status = st
	l.smu.Unlock()
}
