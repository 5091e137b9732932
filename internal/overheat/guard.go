// Package overheat implements the basking-zone overheat interlock.
//
// A Guard is owned by a single goroutine (the control loop) and is not safe for concurrent use.
package overheat

import (
	"fmt"
	"math"
	"time"

	"terrarium_control/internal/models"
)

// Config bounds the interlock.
type Config struct {
	// MaxC trips the guard as soon as the basking temperature exceeds it.
	MaxC float64 `mapstructure:"max_c"`
	// HysteresisC is subtracted from MaxC to get the temperature the zone must cool to.
	HysteresisC float64 `mapstructure:"hysteresis_c"`
	// SafeTicks is the number of consecutive safe ticks needed to clear a trip.
	SafeTicks int `mapstructure:"safe_ticks"`
}

// Validate checks the thresholds are usable.
func (c Config) Validate() error {
	if math.IsNaN(c.MaxC) || math.IsInf(c.MaxC, 0) {
		return fmt.Errorf("overheat max_c must be a finite temperature")
	}
	if c.HysteresisC < 0 || math.IsNaN(c.HysteresisC) {
		return fmt.Errorf("overheat hysteresis_c must be >= 0, got %v", c.HysteresisC)
	}
	if c.SafeTicks < 1 {
		return fmt.Errorf("overheat safe_ticks must be >= 1, got %d", c.SafeTicks)
	}
	return nil
}

// SafeC is the temperature at or below which a tick counts as safe.
func (c Config) SafeC() float64 { return c.MaxC - c.HysteresisC }

// Transition is the outcome of one observation.
type Transition int

const (
	// Unchanged means the guard stayed in its state.
	Unchanged Transition = iota
	// Tripped means the guard went Normal -> Tripped on this observation.
	Tripped
	// Cleared means the guard went Tripped -> Normal on this observation.
	Cleared
)

func (t Transition) String() string {
	switch t {
	case Tripped:
		return "tripped"
	case Cleared:
		return "cleared"
	default:
		return "unchanged"
	}
}

// Guard latches the tripped state and counts safe ticks.
type Guard struct {
	cfg   Config
	state models.OverheatState
}

// New returns an untripped guard.
func New(cfg Config) *Guard {
	return &Guard{cfg: cfg}
}

// Config returns the thresholds the guard was built with.
func (g *Guard) Config() Config { return g.cfg }

// Tripped reports whether heat must be held off.
func (g *Guard) Tripped() bool { return g.state.Tripped }

// State returns a copy of the current state.
func (g *Guard) State() models.OverheatState {
	st := g.state
	if st.Tripped {
		st.TicksToReset = g.cfg.SafeTicks - st.ConsecutiveSafeTicks
	}
	return st
}

// Observe feeds one fresh basking-zone reading, taken on the tick at now.
func (g *Guard) Observe(tempC float64, now time.Time) Transition {
	if !g.state.Tripped {
		if tempC > g.cfg.MaxC || math.IsNaN(tempC) {
			g.state = models.OverheatState{Tripped: true, TripTimestamp: now.UTC()}
			return Tripped
		}
		return Unchanged
	}

	if !g.safe(tempC) {
		g.state.ConsecutiveSafeTicks = 0
		return Unchanged
	}
	g.state.ConsecutiveSafeTicks++
	if g.state.ConsecutiveSafeTicks >= g.cfg.SafeTicks {
		g.state = models.OverheatState{}
		return Cleared
	}
	return Unchanged
}

// Reset clears a trip on operator request. The live temperature must already satisfy the
// un-trip condition, otherwise models.ErrStillUnsafe is returned and nothing changes.
// Resetting an untripped guard is a no-op.
func (g *Guard) Reset(tempC float64) (Transition, error) {
	if !g.state.Tripped {
		return Unchanged, nil
	}
	if !g.safe(tempC) {
		return Unchanged, fmt.Errorf("%w: basking %.1f°C, need <= %.1f°C", models.ErrStillUnsafe, tempC, g.cfg.SafeC())
	}
	g.state = models.OverheatState{}
	return Cleared, nil
}

func (g *Guard) safe(tempC float64) bool {
	return !math.IsNaN(tempC) && tempC <= g.cfg.SafeC()
}
