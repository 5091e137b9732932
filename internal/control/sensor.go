package control

import (
	"context"
	"fmt"
	"time"

	"terrarium_control/internal/models"
)

type sensorState struct {
	last    models.SensorReading
	lastAt  time.Time
	hasGood bool
	faulted bool
	lastErr error
}

// readSensor returns the reading to use this tick and whether it was read just now.
// Failed reads fall back to the last good reading until it is older than StaleAfter; after that,
// or if there never was a good reading, the sensor is faulted.
func (l *Loop) readSensor(ctx context.Context, now time.Time) (models.SensorReading, bool) {
	r, err := callWithTimeout(ctx, l.cfg.SensorTimeout, l.deps.Sensors.Read)
	l.deps.Metrics.SensorRead(r, err)

	st := &l.sensor
	if err == nil {
		if r.TakenAt.IsZero() {
			r.TakenAt = now.UTC()
		}
		st.last, st.lastAt, st.hasGood, st.lastErr = r, now, true, nil
		if st.faulted {
			st.faulted = false
			l.deps.Metrics.SensorFaulted(false)
			l.logw("info", "sensor_recovered")
			l.record(ctx, models.EventSensorRecover, models.SeverityInfo, "Sensor readings recovered", nil)
		}
		return r, true
	}

	st.lastErr = err
	l.logw("warn", "sensor_read_failed", "err", err)

	if st.hasGood && now.Sub(st.lastAt) <= l.cfg.StaleAfter {
		return st.last, false
	}
	if !st.faulted {
		st.faulted = true
		l.deps.Metrics.SensorFaulted(true)
		age := "never read"
		if st.hasGood {
			age = now.Sub(st.lastAt).Round(time.Second).String()
		}
		l.logw("error", "sensor_faulted", "last_good_age", age, "err", err)
		l.record(ctx, models.EventSensorStale, models.SeverityError,
			"Sensor readings stale; UV and heat forced off",
			map[string]any{"last_good_age": age, "error": err.Error()})
	}
	return st.last, false
}

// callWithTimeout runs fn with a deadline and gives up waiting once the deadline passes, even if
// fn ignores its context. A late result is discarded.
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v, err}
	}()

	select {
	case res := <-ch:
		return res.v, res.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("timed out after %s: %w", d, ctx.Err())
	}
}
