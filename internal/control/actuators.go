package control

import (
	"context"
	"fmt"
	"time"

	"terrarium_control/internal/models"
)

// output tracks what was last applied to one actuator.
type output[T comparable] struct {
	value       T
	applied     bool // value has been written at least once
	dirty       bool // last write failed, hardware state unknown
	unavailable bool
	// inflight is closed when a write abandoned after its timeout finally returns.
	inflight <-chan struct{}
}

// needs reports whether want must be written.
func (o *output[T]) needs(want T) bool {
	return !o.applied || o.dirty || o.value != want
}

func (o *output[T]) set(v T) {
	o.value, o.applied, o.dirty = v, true, false
}

// busy reports whether an abandoned write is still running against the driver. Once it returns
// the hardware holds whatever it wrote, so the output stays dirty and the target is sent again.
func (o *output[T]) busy() bool {
	if o.inflight == nil {
		return false
	}
	select {
	case <-o.inflight:
		o.inflight = nil
		o.dirty = true
		return false
	default:
		return true
	}
}

func (l *Loop) applyRelay(ctx context.Context, id RelayID, want bool, now time.Time) {
	o := &l.relays[id]
	if o.busy() {
		l.logw("debug", "actuator_write_pending", "actuator", id.String(), "want", want)
		return
	}
	if !o.needs(want) {
		return
	}
	changed := !o.applied || o.value != want

	inflight, err := l.write(ctx, func(ctx context.Context) error { return l.deps.Driver.SetRelay(ctx, id, want) })
	l.deps.Metrics.ActuatorWrite(id.String(), err)
	if err != nil {
		o.inflight = inflight
		l.markUnavailable(ctx, id.String(), &o.dirty, &o.unavailable, err)
		return
	}
	l.markAvailable(ctx, id.String(), &o.unavailable)
	o.set(want)
	l.deps.Metrics.RelayCommanded(id, want)

	if changed {
		state := "off"
		if want {
			state = "on"
		}
		l.logw("info", "relay_switched", "relay", id.String(), "on", want)
		l.record(ctx, models.EventRelay, models.SeverityInfo,
			fmt.Sprintf("%s switched %s", id, state),
			map[string]any{"relay": id.String(), "on": want, "at": now.Format("15:04")})
	}
}

func (l *Loop) applyLED(ctx context.Context, want models.RGBWW, _ time.Time) {
	o := &l.ledOut
	if o.busy() {
		l.logw("debug", "actuator_write_pending", "actuator", "led", "want", want.String())
		return
	}
	if !o.needs(want) {
		return
	}
	inflight, err := l.write(ctx, func(ctx context.Context) error { return l.deps.Driver.SetLED(ctx, want) })
	l.deps.Metrics.ActuatorWrite("led", err)
	if err != nil {
		o.inflight = inflight
		l.markUnavailable(ctx, "led", &o.dirty, &o.unavailable, err)
		return
	}
	l.markAvailable(ctx, "led", &o.unavailable)
	o.set(want)
	l.deps.Metrics.LEDCommanded(want)
}

func (l *Loop) markUnavailable(ctx context.Context, name string, dirty, unavailable *bool, err error) {
	*dirty = true
	if *unavailable {
		l.logw("debug", "actuator_still_unavailable", "actuator", name, "err", err)
		return
	}
	*unavailable = true
	l.logw("error", "actuator_unavailable", "actuator", name, "retries", l.cfg.WriteRetries, "err", err)
	l.record(ctx, models.EventActuatorFault, models.SeverityError,
		fmt.Sprintf("%s unavailable: %v", name, err),
		map[string]any{"actuator": name, "error": err.Error()})
}

func (l *Loop) markAvailable(ctx context.Context, name string, unavailable *bool) {
	if !*unavailable {
		return
	}
	*unavailable = false
	l.logw("info", "actuator_recovered", "actuator", name)
	l.record(ctx, models.EventActuatorRecover, models.SeverityInfo, name+" responding again",
		map[string]any{"actuator": name})
}

// write runs fn with a per-attempt timeout, retrying failed attempts up to WriteRetries times.
// An attempt that outlives its timeout is not retried while it may still reach the hardware; the
// returned channel is closed once that call comes back.
func (l *Loop) write(ctx context.Context, fn func(context.Context) error) (<-chan struct{}, error) {
	var err error
	for attempt := 0; attempt <= l.cfg.WriteRetries; attempt++ {
		if attempt > 0 && l.cfg.RetryBackoff > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w (after %d attempts)", models.ErrActuatorFault, err, attempt)
			case <-time.After(l.cfg.RetryBackoff):
			}
		}

		actx, cancel := context.WithTimeout(ctx, l.cfg.WriteTimeout)
		done := make(chan struct{})
		res := make(chan error, 1)
		go func() {
			defer close(done)
			res <- fn(actx)
		}()

		select {
		case err = <-res:
			cancel()
			if err == nil {
				return nil, nil
			}
		case <-actx.Done():
			cancel()
			err = fmt.Errorf("timed out after %s: %w", l.cfg.WriteTimeout, actx.Err())
			return done, fmt.Errorf("%w: %w", models.ErrActuatorFault, err)
		}
	}
	return nil, fmt.Errorf("%w: %w", models.ErrActuatorFault, err)
}

// settle waits for an abandoned write to return so a later write cannot be overtaken by it.
func (l *Loop) settle(ctx context.Context, name string, inflight <-chan struct{}) {
	if inflight == nil {
		return
	}
	select {
	case <-inflight:
	case <-ctx.Done():
		l.logw("error", "actuator_write_still_pending", "actuator", name)
	}
}
