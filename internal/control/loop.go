// Package control runs the periodic loop that turns the schedule, the natural light cycle, the
// sensor readings and operator requests into relay and LED commands.
//
// The Loop is the only writer of the LED state, the overheat state and the cached week schedule.
// Callers read snapshots through Status and change things by queueing intents, which the loop
// applies at the start of its next tick.
package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"terrarium_control/internal/light"
	"terrarium_control/internal/logger"
	"terrarium_control/internal/models"
	"terrarium_control/internal/overheat"
)

const defaultShutdownTimeout = 5 * time.Second

// Config tunes the loop.
type Config struct {
	Tick          time.Duration
	SensorTimeout time.Duration
	// StaleAfter is how long the last good reading stands in for failed reads.
	StaleAfter   time.Duration
	WriteTimeout time.Duration
	WriteRetries int
	RetryBackoff time.Duration
	QueueSize    int
	// ShutdownTimeout bounds the safe-state writes after Run is cancelled.
	ShutdownTimeout time.Duration
	Location        *time.Location
	Overheat        overheat.Config
}

// Validate rejects settings the loop cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Tick <= 0:
		return fmt.Errorf("control tick must be > 0")
	case c.SensorTimeout <= 0 || c.SensorTimeout >= c.Tick:
		return fmt.Errorf("control sensor_timeout must be > 0 and shorter than the tick")
	case c.StaleAfter < 0:
		return fmt.Errorf("control stale_after must be >= 0")
	case c.WriteTimeout <= 0:
		return fmt.Errorf("control write_timeout must be > 0")
	case c.WriteRetries < 0:
		return fmt.Errorf("control write_retries must be >= 0")
	case c.QueueSize < 1:
		return fmt.Errorf("control queue_size must be >= 1")
	}
	return c.Overheat.Validate()
}

// Deps are the collaborators of the loop. Schedule, Presets, Sensors and Driver are required.
type Deps struct {
	Schedule ScheduleSource
	Presets  PresetSource
	Anchors  light.AnchorSource
	Sensors  SensorFeed
	Driver   ActuatorDriver
	Events   EventRecorder
	LEDSaver LEDStateSaver
	Metrics  Metrics
	Log      *logger.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Loop is the control loop.
type Loop struct {
	cfg   Config
	deps  Deps
	guard *overheat.Guard

	qmu     sync.Mutex
	queue   []intent
	stopped bool // set once shutdown has taken the last batch of intents

	// tick-owned state
	led         models.LEDState
	week        int
	weekVersion uint64
	schedule    models.WeekSchedule
	sensor      sensorState
	relays      [len(Relays)]output[bool]
	ledOut      output[models.RGBWW]
	ticks       uint64

	smu    sync.RWMutex
	status Status

	done chan struct{}
}

// New builds a loop. initial is the restored LED state; its Output is recomputed on the first tick.
func New(cfg Config, deps Deps, initial models.LEDState) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Schedule == nil || deps.Presets == nil || deps.Sensors == nil || deps.Driver == nil {
		return nil, errors.New("control loop needs a schedule, presets, a sensor feed and an actuator driver")
	}
	if err := initial.ManualColor.Validate("manual_color"); err != nil {
		return nil, err
	}
	if err := models.ValidateSeasonWeight(initial.SeasonWeight); err != nil {
		return nil, err
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if deps.Anchors == nil {
		deps.Anchors = light.Fixed(light.DefaultAnchors)
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	l := &Loop{
		cfg:   cfg,
		deps:  deps,
		guard: overheat.New(cfg.Overheat),
		led:   initial,
		done:  make(chan struct{}),
	}
	l.led.Output = models.Off
	l.publish(deps.Now())
	return l, nil
}

// Run ticks until ctx is cancelled, then drives every actuator to its safe state and releases
// the driver. The first tick runs immediately.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)

	l.record(ctx, models.EventStartup, models.SeverityInfo, "control loop started", map[string]any{
		"tick": l.cfg.Tick.String(),
	})

	t := time.NewTicker(l.cfg.Tick)
	defer t.Stop()

	l.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			l.shutdown()
			return
		case <-t.C:
			l.Tick(ctx)
		}
	}
}

// Done is closed once Run has driven the actuators safe and returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Tick runs one control cycle. It is exported for tests and must not be called while Run is active.
func (l *Loop) Tick(ctx context.Context) {
	started := l.deps.Now()
	now := started.In(l.cfg.Location)
	l.ticks++

	l.applyIntents(ctx, now)

	// 1. calendar position
	week := WeekOf(now)
	minute := models.TimeOfDay(now.Hour()*60 + now.Minute())
	hour := light.HourOfDay(now.Hour(), now.Minute(), now.Second())

	// 2. schedule
	ws, schedErr := l.weekSchedule(week)
	if schedErr != nil {
		l.logw("error", "schedule_lookup_failed", "week", week, "err", schedErr)
	}

	// 3. windows
	want := [len(Relays)]bool{
		UV1:  ws.UV1.Contains(minute),
		UV2:  ws.UV2.Contains(minute),
		Heat: ws.Heat.Contains(minute),
	}

	// 4. sensors, then the guard on fresh data only
	reading, fresh := l.readSensor(ctx, now)
	if fresh {
		l.observeTemperature(ctx, reading.BaskingTempC, now)
	}
	if l.sensor.faulted || schedErr != nil {
		want[UV1], want[UV2], want[Heat] = false, false, false
	}

	// 5. overheat veto
	if l.guard.Tripped() {
		want[Heat] = false
	}

	// 6 + 7. LED
	var led models.RGBWW
	switch {
	case !l.led.Power:
		led = models.Off
	case l.led.Mode == models.ModeManual:
		led = l.led.ManualColor
	default:
		led = light.Compute(hour, l.deps.Presets.Get(), l.led.SeasonWeight, ws.LEDTarget, l.deps.Anchors.Anchors(now))
	}
	l.led.Output = led

	// 8 + 9. commands
	for _, id := range Relays {
		l.applyRelay(ctx, id, want[id], now)
	}
	l.applyLED(ctx, led, now)

	l.publish(now)
	l.deps.Metrics.TickCompleted(l.deps.Now().Sub(started))
}

// WeekOf returns the ISO week of t, with week 53 folded into 52.
func WeekOf(t time.Time) int {
	_, w := t.ISOWeek()
	if w > models.LastWeek {
		return models.LastWeek
	}
	return w
}

func (l *Loop) weekSchedule(week int) (models.WeekSchedule, error) {
	v := l.deps.Schedule.Version()
	if week == l.week && v == l.weekVersion {
		return l.schedule, nil
	}
	ws, err := l.deps.Schedule.Get(week)
	if err != nil {
		return models.WeekSchedule{}, err
	}
	l.week, l.weekVersion, l.schedule = week, v, ws
	return ws, nil
}

func (l *Loop) observeTemperature(ctx context.Context, tempC float64, now time.Time) {
	switch l.guard.Observe(tempC, now) {
	case overheat.Tripped:
		cfg := l.guard.Config()
		l.logw("error", "overheat_tripped", "basking_c", tempC, "max_c", cfg.MaxC)
		l.record(ctx, models.EventOverheatTrip, models.SeverityError,
			fmt.Sprintf("Basking zone at %.1f°C exceeds %.1f°C; heat forced off", tempC, cfg.MaxC),
			map[string]any{"basking_c": tempC, "max_c": cfg.MaxC, "safe_c": cfg.SafeC()})
		l.deps.Metrics.OverheatTripped(true)
	case overheat.Cleared:
		l.logw("info", "overheat_cleared", "basking_c", tempC)
		l.record(ctx, models.EventOverheatReset, models.SeverityInfo,
			fmt.Sprintf("Basking zone cooled to %.1f°C for %d ticks; heat released", tempC, l.guard.Config().SafeTicks),
			map[string]any{"basking_c": tempC, "manual": false})
		l.deps.Metrics.OverheatTripped(false)
	}
}

func (l *Loop) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), l.cfg.ShutdownTimeout)
	defer cancel()

	l.closeIntake()
	l.applyIntents(ctx, l.deps.Now())

	for _, id := range Relays {
		st := &l.relays[id]
		l.settle(ctx, id.String(), st.inflight)
		inflight, err := l.write(ctx, func(ctx context.Context) error { return l.deps.Driver.SetRelay(ctx, id, false) })
		st.inflight = inflight
		if err != nil {
			l.logw("error", "shutdown_relay_failed", "relay", id.String(), "err", err)
			continue
		}
		st.set(false)
	}
	l.settle(ctx, "led", l.ledOut.inflight)
	inflight, err := l.write(ctx, func(ctx context.Context) error { return l.deps.Driver.SetLED(ctx, models.Off) })
	l.ledOut.inflight = inflight
	if err != nil {
		l.logw("error", "shutdown_led_failed", "err", err)
	} else {
		l.ledOut.set(models.Off)
	}
	l.led.Output = models.Off
	l.publish(l.deps.Now())

	l.record(ctx, models.EventShutdown, models.SeverityInfo, "control loop stopped; heat, UV and LED off", nil)

	if c, ok := l.deps.Driver.(io.Closer); ok {
		if err := c.Close(); err != nil {
			l.logw("warn", "driver_close_failed", "err", err)
		}
	}
	l.logw("info", "control_loop_stopped")
}

// record sends an event to the recorder. Recorder failures are logged and otherwise ignored.
func (l *Loop) record(ctx context.Context, typ, severity, desc string, meta map[string]any) {
	if l.deps.Events == nil {
		return
	}
	ev := models.Event{
		EventID:     uuid.NewString(),
		OccurredAt:  l.deps.Now().UTC(),
		Type:        typ,
		Severity:    severity,
		Description: desc,
	}
	if meta != nil {
		ev.Metadata = meta
	}
	if err := l.deps.Events.Record(ctx, ev); err != nil {
		l.logw("warn", "event_record_failed", "type", typ, "err", err)
	}
}

func (l *Loop) logw(level, msg string, kv ...any) {
	if l.deps.Log == nil {
		return
	}
	switch level {
	case "error":
		l.deps.Log.Errorw(msg, kv...)
	case "warn":
		l.deps.Log.Warnw(msg, kv...)
	case "debug":
		l.deps.Log.Debugw(msg, kv...)
	default:
		l.deps.Log.Infow(msg, kv...)
	}
}
