// Package hardware adapts real and simulated habitat hardware to the control loop interfaces.
package hardware

import (
	"context"
	"errors"
	"sync"
	"time"

	"terrarium_control/internal/control"
	"terrarium_control/internal/models"
)

// ----------- Simulation constants -----------
const (
	AmbientC            = 22.0 // room temperature °C
	RampUpCPerMin       = 0.5  // basking zone °C per minute while heat is on
	CoolDownCPerMin     = 0.3  // basking zone °C per minute toward ambient while heat is off
	CoolZoneFollow      = 0.35 // fraction of the basking rise seen in the cool zone
	Basking2Offset      = -1.5 // secondary basking probe reads a little lower
	BaseHumidityPct     = 60.0
	HumidityPerDegree   = 1.2  // % RH lost per °C above ambient
	UV1Index            = 4.5  // UV index under UV1 when on
	UV2Index            = 3.0  // UV index under UV2 when on
	maxSimulatedElapsed = 30.0 // minutes; longer gaps are treated as this long
)

// ErrInjected is returned by the simulator while a fault is injected.
var ErrInjected = errors.New("simulated hardware fault")

// Simulator is an in-memory habitat: a SensorFeed and an ActuatorDriver in one.
type Simulator struct {
	mu sync.Mutex

	now      func() time.Time
	updated  time.Time
	baskingC float64
	relays   [len(control.Relays)]bool
	led      models.RGBWW

	sensorFault bool
	relayFault  map[control.RelayID]bool
}

// NewSimulator starts at ambient with everything off.
func NewSimulator(now func() time.Time) *Simulator {
	if now == nil {
		now = time.Now
	}
	return &Simulator{
		now:        now,
		updated:    now(),
		baskingC:   AmbientC,
		relayFault: map[control.RelayID]bool{},
	}
}

// Read implements control.SensorFeed.
func (s *Simulator) Read(ctx context.Context) (models.SensorReading, error) {
	if err := ctx.Err(); err != nil {
		return models.SensorReading{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.advance(now)
	if s.sensorFault {
		return models.SensorReading{}, ErrInjected
	}

	rise := s.baskingC - AmbientC
	r := models.SensorReading{
		BaskingTempC:  round1(s.baskingC),
		Basking2TempC: round1(s.baskingC + Basking2Offset),
		CoolZoneTempC: round1(AmbientC + rise*CoolZoneFollow),
		HumidityPct:   round1(maxFloat(BaseHumidityPct-rise*HumidityPerDegree, 10)),
		UV1On:         s.relays[control.UV1],
		UV2On:         s.relays[control.UV2],
		TakenAt:       now.UTC(),
	}
	if r.UV1On {
		r.UV1 = UV1Index
	}
	if r.UV2On {
		r.UV2 = UV2Index
	}
	return r, nil
}

// SetRelay implements control.ActuatorDriver.
func (s *Simulator) SetRelay(ctx context.Context, id control.RelayID, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.relayFault[id] {
		return ErrInjected
	}
	s.advance(s.now())
	s.relays[id] = on
	return nil
}

// SetLED implements control.ActuatorDriver.
func (s *Simulator) SetLED(ctx context.Context, c models.RGBWW) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.led = c
	return nil
}

// Relay reports the simulated relay position.
func (s *Simulator) Relay(id control.RelayID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.relays[id]
}

// LED reports the simulated strip colour.
func (s *Simulator) LED() models.RGBWW {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.led
}

// SetBaskingTemp overrides the simulated basking temperature.
func (s *Simulator) SetBaskingTemp(c float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baskingC = c
	s.updated = s.now()
}

// InjectSensorFault makes Read fail until cleared.
func (s *Simulator) InjectSensorFault(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sensorFault = on
}

// InjectRelayFault makes SetRelay(id) fail until cleared.
func (s *Simulator) InjectRelayFault(id control.RelayID, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relayFault[id] = on
}

// advance moves the basking temperature by the time elapsed since the last update.
func (s *Simulator) advance(now time.Time) {
	elapsed := now.Sub(s.updated).Minutes()
	if elapsed <= 0 {
		return
	}
	s.updated = now
	if elapsed > maxSimulatedElapsed {
		elapsed = maxSimulatedElapsed
	}
	if s.relays[control.Heat] {
		s.baskingC += RampUpCPerMin * elapsed
		return
	}
	s.driftToAmbient(elapsed)
}

// driftToAmbient cools toward ambient. Returns true if the temperature changed.
func (s *Simulator) driftToAmbient(elapsedMin float64) bool {
	if s.baskingC > AmbientC {
		s.baskingC = maxFloat(s.baskingC-CoolDownCPerMin*elapsedMin, AmbientC)
		return true
	}
	return false
}

// helpers
func maxFloat(a, b float64) float64 {
	if a >= b {
		return a
	}
	return b
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5*sign(v))) / 10
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
