package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"terrarium_control/internal/models"
	"terrarium_control/internal/overheat"
)

// ErrStopped is returned to requests that can no longer be applied because the loop is shutting
// down or has stopped.
var ErrStopped = errors.New("control loop stopped")

// intent is a queued request, applied by the loop at the start of a tick.
type intent struct {
	name string
	// apply mutates loop state and reports whether the persisted LED settings changed.
	apply func(ctx context.Context, l *Loop, now time.Time) (ledChanged bool, err error)
	reply chan error
}

func (l *Loop) enqueue(in intent) error {
	l.qmu.Lock()
	defer l.qmu.Unlock()
	if l.stopped {
		return ErrStopped
	}
	if len(l.queue) >= l.cfg.QueueSize {
		return models.ErrQueueFull
	}
	l.queue = append(l.queue, in)
	return nil
}

// closeIntake rejects every later request with ErrStopped. Requests queued before it are still
// applied by the final drain.
func (l *Loop) closeIntake() {
	l.qmu.Lock()
	l.stopped = true
	l.qmu.Unlock()
}

// Pending is the number of queued intents.
func (l *Loop) Pending() int {
	l.qmu.Lock()
	defer l.qmu.Unlock()
	return len(l.queue)
}

// SetManualOverride switches the LED to a fixed colour from the next tick on.
func (l *Loop) SetManualOverride(color models.RGBWW) error {
	if err := color.Validate("color"); err != nil {
		return err
	}
	return l.enqueue(intent{name: "manual_override", apply: func(ctx context.Context, l *Loop, _ time.Time) (bool, error) {
		l.led.ManualColor = color
		l.toManual(ctx)
		return true, nil
	}})
}

// SetManualMode switches the LED to manual and holds whatever manual colour is stored when the
// request is applied, including one set by an override queued just before it.
func (l *Loop) SetManualMode() error {
	return l.enqueue(intent{name: "manual_mode", apply: func(ctx context.Context, l *Loop, _ time.Time) (bool, error) {
		if l.led.Mode == models.ModeManual {
			return false, nil
		}
		l.toManual(ctx)
		return true, nil
	}})
}

func (l *Loop) toManual(ctx context.Context) {
	prev := l.led.Mode
	l.led.Mode = models.ModeManual
	if prev != models.ModeManual {
		l.record(ctx, models.EventModeChange, models.SeverityInfo, "LED switched to manual colour",
			map[string]any{"from": prev.String(), "to": models.ModeManual.String(), "color": l.led.ManualColor.String()})
	}
}

// SetNaturalMode switches the LED to the natural cycle blended by seasonWeight.
func (l *Loop) SetNaturalMode(seasonWeight float64) error {
	if err := models.ValidateSeasonWeight(seasonWeight); err != nil {
		return err
	}
	return l.enqueue(intent{name: "natural_mode", apply: func(ctx context.Context, l *Loop, _ time.Time) (bool, error) {
		prev := l.led.Mode
		l.led.Mode = models.ModeNatural
		l.led.SeasonWeight = seasonWeight
		if prev != models.ModeNatural {
			l.record(ctx, models.EventModeChange, models.SeverityInfo, "LED switched to natural cycle",
				map[string]any{"from": prev.String(), "to": models.ModeNatural.String(), "season_weight": seasonWeight})
		}
		return true, nil
	}})
}

// SetPower turns the LED strip on or off. Off overrides both modes.
func (l *Loop) SetPower(on bool) error {
	return l.enqueue(intent{name: "power", apply: func(ctx context.Context, l *Loop, _ time.Time) (bool, error) {
		if l.led.Power == on {
			return false, nil
		}
		l.led.Power = on
		state := "off"
		if on {
			state = "on"
		}
		l.record(ctx, models.EventLED, models.SeverityInfo, "LED power "+state, map[string]any{"power": on})
		return true, nil
	}})
}

// ResetOverheat asks the loop to clear a trip and waits for the outcome. It fails with
// models.ErrStillUnsafe unless the latest basking reading is already at or below the safe margin.
func (l *Loop) ResetOverheat(ctx context.Context) error {
	reply := make(chan error, 1)
	err := l.enqueue(intent{name: "overheat_reset", reply: reply, apply: func(ctx context.Context, l *Loop, _ time.Time) (bool, error) {
		if !l.guard.Tripped() {
			return false, nil
		}
		if !l.sensor.hasGood || l.sensor.faulted {
			return false, fmt.Errorf("%w: no current basking reading", models.ErrStillUnsafe)
		}
		temp := l.sensor.last.BaskingTempC
		tr, err := l.guard.Reset(temp)
		if err != nil {
			l.logw("warn", "overheat_reset_rejected", "basking_c", temp, "err", err)
			return false, err
		}
		if tr == overheat.Cleared {
			l.logw("info", "overheat_reset_manual", "basking_c", temp)
			l.record(ctx, models.EventOverheatReset, models.SeverityWarn,
				fmt.Sprintf("Overheat manually reset at %.1f°C", temp),
				map[string]any{"basking_c": temp, "manual": true})
			l.deps.Metrics.OverheatTripped(false)
		}
		return false, nil
	}})
	if err != nil {
		return err
	}

	select {
	case err := <-reply:
		return err
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) applyIntents(ctx context.Context, now time.Time) {
	l.qmu.Lock()
	pending := l.queue
	l.queue = nil
	l.qmu.Unlock()

	ledChanged := false
	for _, in := range pending {
		changed, err := in.apply(ctx, l, now)
		if in.reply != nil {
			in.reply <- err
		}
		if err != nil {
			continue
		}
		ledChanged = ledChanged || changed
		l.logw("debug", "intent_applied", "intent", in.name)
	}

	if ledChanged && l.deps.LEDSaver != nil {
		st := l.led
		st.Output = models.RGBWW{}
		if err := l.deps.LEDSaver.SaveLEDState(ctx, st); err != nil {
			l.logw("warn", "led_state_save_failed", "err", err)
		}
	}
}
