package control

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrarium_control/internal/light"
	"terrarium_control/internal/models"
	"terrarium_control/internal/overheat"
)

var testPresets = models.Presets{
	Morning: models.RGBWW{R: 255, G: 180, B: 100, WW: 200, CW: 50},
	Noon:    models.RGBWW{R: 255, G: 240, B: 220, WW: 50, CW: 255},
	Evening: models.RGBWW{R: 255, G: 140, B: 50, WW: 255, CW: 0},
}

var testWeek = models.WeekSchedule{
	UV1:       models.Window{Start: models.MustTime("08:00"), End: models.MustTime("18:00")},
	UV2:       models.Window{Start: models.MustTime("09:00"), End: models.MustTime("17:00")},
	Heat:      models.Window{Start: models.MustTime("07:00"), End: models.MustTime("20:00")},
	LEDTarget: models.RGBWW{R: 10, G: 20, B: 30, WW: 40, CW: 50},
}

// Wednesday of ISO week 23.
var noon = time.Date(2025, time.June, 4, 12, 0, 0, 0, time.UTC)

var testConfig = Config{
	Tick:          time.Second,
	SensorTimeout: 50 * time.Millisecond,
	StaleAfter:    10 * time.Second,
	WriteTimeout:  50 * time.Millisecond,
	WriteRetries:  2,
	QueueSize:     4,
	Location:      time.UTC,
	Overheat:      overheat.Config{MaxC: 40, HysteresisC: 3, SafeTicks: 3},
}

type harness struct {
	loop   *Loop
	sched  *fakeSchedule
	sensor *fakeSensor
	driver *fakeDriver
	events *fakeEvents
	saver  *fakeSaver
	clock  *clock
}

func newHarness(t *testing.T, initial models.LEDState) *harness {
	t.Helper()
	h := &harness{
		sched:  &fakeSchedule{ws: testWeek, version: 1},
		sensor: &fakeSensor{r: models.SensorReading{BaskingTempC: 32, CoolZoneTempC: 24, HumidityPct: 40}},
		driver: newFakeDriver(),
		events: &fakeEvents{},
		saver:  &fakeSaver{},
		clock:  &clock{now: noon},
	}
	l, err := New(testConfig, Deps{
		Schedule: h.sched,
		Presets:  fakePresets{p: testPresets},
		Anchors:  light.Fixed(light.DefaultAnchors),
		Sensors:  h.sensor,
		Driver:   h.driver,
		Events:   h.events,
		LEDSaver: h.saver,
		Now:      h.clock.Now,
	}, initial)
	require.NoError(t, err)
	h.loop = l
	return h
}

var natural = models.LEDState{Power: true, Mode: models.ModeNatural}

func TestTick_RelaysFollowWindows(t *testing.T) {
	tests := []struct {
		at             string
		uv1, uv2, heat bool
	}{
		{at: "06:59", uv1: false, uv2: false, heat: false},
		{at: "07:00", uv1: false, uv2: false, heat: true},
		{at: "08:00", uv1: true, uv2: false, heat: true},
		{at: "12:00", uv1: true, uv2: true, heat: true},
		{at: "17:00", uv1: true, uv2: true, heat: true},
		{at: "17:01", uv1: true, uv2: false, heat: true},
		{at: "18:00", uv1: true, uv2: false, heat: true},
		{at: "20:00", uv1: false, uv2: false, heat: true},
		{at: "23:30", uv1: false, uv2: false, heat: false},
	}

	for _, tt := range tests {
		t.Run(tt.at, func(t *testing.T) {
			h := newHarness(t, natural)
			m := models.MustTime(tt.at)
			h.clock.set(time.Date(2025, time.June, 4, int(m)/60, int(m)%60, 30, 0, time.UTC))

			h.loop.Tick(context.Background())

			st := h.loop.Status()
			assert.Equal(t, RelayStates{UV1: tt.uv1, UV2: tt.uv2, Heat: tt.heat}, st.Relays)
			assert.Equal(t, 23, st.Week)
			for id, want := range map[RelayID]bool{UV1: tt.uv1, UV2: tt.uv2, Heat: tt.heat} {
				got, ok := h.driver.lastRelay(id)
				require.True(t, ok, "%s not written", id)
				assert.Equal(t, want, got, "%s", id)
			}
		})
	}
}

func TestTick_IdempotentWrites(t *testing.T) {
	h := newHarness(t, models.LEDState{Power: true, Mode: models.ModeManual, ManualColor: models.RGBWW{R: 5}})

	h.loop.Tick(context.Background())
	require.Len(t, h.driver.relayCalls(), 3)
	require.Len(t, h.driver.ledCalls(), 1)

	h.clock.advance(time.Second)
	h.loop.Tick(context.Background())
	h.clock.advance(time.Second)
	h.loop.Tick(context.Background())

	assert.Len(t, h.driver.relayCalls(), 3, "unchanged relays must not be re-sent")
	assert.Len(t, h.driver.ledCalls(), 1, "unchanged LED must not be re-sent")
	assert.Equal(t, 3, h.events.count(models.EventRelay))
}

func TestTick_NaturalLight(t *testing.T) {
	h := newHarness(t, natural)
	h.clock.set(time.Date(2025, time.June, 4, 9, 30, 0, 0, time.UTC))

	h.loop.Tick(context.Background())

	want := models.RGBWW{R: 255, G: 210, B: 160, WW: 125, CW: 153}
	assert.Equal(t, []models.RGBWW{want}, h.driver.ledCalls())
	assert.Equal(t, want, h.loop.Status().LED.Output)
}

func TestTick_SeasonWeightUsesWeekTarget(t *testing.T) {
	h := newHarness(t, models.LEDState{Power: true, Mode: models.ModeNatural, SeasonWeight: 1})

	h.loop.Tick(context.Background())

	assert.Equal(t, []models.RGBWW{testWeek.LEDTarget}, h.driver.ledCalls())
}

func TestTick_PowerOffForcesZero(t *testing.T) {
	h := newHarness(t, models.LEDState{Power: false, Mode: models.ModeNatural, SeasonWeight: 0.5})

	h.loop.Tick(context.Background())

	assert.Equal(t, []models.RGBWW{models.Off}, h.driver.ledCalls())
	assert.Equal(t, models.Off, h.loop.Status().LED.Output)
}

func TestIntents_AppliedAtNextTick(t *testing.T) {
	h := newHarness(t, natural)
	h.loop.Tick(context.Background())

	color := models.RGBWW{R: 1, G: 2, B: 3, WW: 4, CW: 5}
	require.NoError(t, h.loop.SetManualOverride(color))
	assert.Equal(t, models.ModeNatural, h.loop.Status().LED.Mode, "not applied before the tick")
	assert.Equal(t, 1, h.loop.Pending())

	h.loop.Tick(context.Background())

	st := h.loop.Status()
	assert.Equal(t, models.ModeManual, st.LED.Mode)
	assert.Equal(t, color, st.LED.Output)
	assert.Equal(t, 0, h.loop.Pending())
	leds := h.driver.ledCalls()
	assert.Equal(t, color, leds[len(leds)-1])
	assert.Equal(t, 1, h.events.count(models.EventModeChange))
	require.Len(t, h.saver.saved, 1)
	assert.Equal(t, models.ModeManual, h.saver.saved[0].Mode)

	require.NoError(t, h.loop.SetNaturalMode(1))
	require.NoError(t, h.loop.SetPower(false))
	h.loop.Tick(context.Background())

	st = h.loop.Status()
	assert.Equal(t, models.ModeNatural, st.LED.Mode)
	assert.Equal(t, 1.0, st.LED.SeasonWeight)
	assert.False(t, st.LED.Power)
	assert.Equal(t, models.Off, st.LED.Output)
	assert.Equal(t, color, st.LED.ManualColor, "manual colour is kept for later")
	assert.Len(t, h.saver.saved, 2, "one save per tick")
}

func TestIntents_ManualModeUsesColourAtApply(t *testing.T) {
	h := newHarness(t, natural)
	h.loop.Tick(context.Background())

	color := models.RGBWW{R: 200, G: 100, B: 50}
	require.NoError(t, h.loop.SetManualOverride(color))
	require.NoError(t, h.loop.SetNaturalMode(0.5))
	require.NoError(t, h.loop.SetManualMode())
	h.loop.Tick(context.Background())

	st := h.loop.Status()
	assert.Equal(t, models.ModeManual, st.LED.Mode)
	assert.Equal(t, color, st.LED.ManualColor)
	assert.Equal(t, color, st.LED.Output)
	require.Len(t, h.saver.saved, 1)
	assert.Equal(t, color, h.saver.saved[0].ManualColor)

	require.NoError(t, h.loop.SetManualMode())
	h.loop.Tick(context.Background())
	assert.Len(t, h.saver.saved, 1, "already manual")
}

func TestIntents_RejectedOnceShutdownStarts(t *testing.T) {
	h := newHarness(t, natural)
	h.loop.Tick(context.Background())
	require.NoError(t, h.loop.SetPower(false))

	h.loop.shutdown()

	select {
	case <-h.loop.Done():
		t.Fatal("done is closed by Run, not shutdown")
	default:
	}
	assert.ErrorIs(t, h.loop.SetPower(true), ErrStopped)
	assert.ErrorIs(t, h.loop.SetManualMode(), ErrStopped)
	assert.ErrorIs(t, h.loop.ResetOverheat(context.Background()), ErrStopped)
	assert.Equal(t, 0, h.loop.Pending())
	assert.False(t, h.loop.Status().LED.Power, "queued before shutdown, still applied")
}

func TestIntents_Validation(t *testing.T) {
	h := newHarness(t, natural)

	err := h.loop.SetManualOverride(models.RGBWW{R: 256})
	assert.True(t, models.IsValidation(err))
	assert.True(t, models.IsValidation(h.loop.SetNaturalMode(1.5)))
	assert.True(t, models.IsValidation(h.loop.SetNaturalMode(-0.1)))
	assert.Equal(t, 0, h.loop.Pending())
}

func TestIntents_QueueFull(t *testing.T) {
	h := newHarness(t, natural)

	for i := 0; i < testConfig.QueueSize; i++ {
		require.NoError(t, h.loop.SetPower(i%2 == 0))
	}
	assert.ErrorIs(t, h.loop.SetPower(true), models.ErrQueueFull)
}

func TestOverheat_ForcesHeatOffUntilCooled(t *testing.T) {
	h := newHarness(t, natural)
	h.loop.Tick(context.Background())
	on, _ := h.driver.lastRelay(Heat)
	require.True(t, on)

	h.sensor.setTemp(41)
	h.clock.advance(time.Second)
	h.loop.Tick(context.Background())

	on, _ = h.driver.lastRelay(Heat)
	assert.False(t, on)
	assert.True(t, h.loop.Status().Overheat.Tripped)
	assert.Equal(t, 1, h.events.count(models.EventOverheatTrip))

	h.sensor.setTemp(36) // max - hysteresis - 1
	for i := 0; i < testConfig.Overheat.SafeTicks-1; i++ {
		h.clock.advance(time.Second)
		h.loop.Tick(context.Background())
		on, _ = h.driver.lastRelay(Heat)
		assert.False(t, on, "tick %d", i)
	}
	assert.Equal(t, 1, h.loop.Status().Overheat.TicksToReset)

	h.clock.advance(time.Second)
	h.loop.Tick(context.Background())
	on, _ = h.driver.lastRelay(Heat)
	assert.True(t, on)
	assert.False(t, h.loop.Status().Overheat.Tripped)
	assert.Equal(t, 1, h.events.count(models.EventOverheatReset))
}

func resetAsync(l *Loop) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- l.ResetOverheat(context.Background()) }()
	return ch
}

func waitPending(t *testing.T, l *Loop) {
	t.Helper()
	require.Eventually(t, func() bool { return l.Pending() > 0 }, time.Second, time.Millisecond)
}

func TestResetOverheat(t *testing.T) {
	h := newHarness(t, natural)
	h.sensor.setTemp(45)
	h.loop.Tick(context.Background())
	require.True(t, h.loop.Status().Overheat.Tripped)

	// still hot: rejected
	res := resetAsync(h.loop)
	waitPending(t, h.loop)
	h.loop.Tick(context.Background())
	assert.ErrorIs(t, <-res, models.ErrStillUnsafe)
	assert.True(t, h.loop.Status().Overheat.Tripped)

	// cooled, but only one safe tick so far: manual reset clears it
	h.sensor.setTemp(30)
	h.loop.Tick(context.Background())
	require.True(t, h.loop.Status().Overheat.Tripped)

	res = resetAsync(h.loop)
	waitPending(t, h.loop)
	h.loop.Tick(context.Background())
	require.NoError(t, <-res)
	assert.False(t, h.loop.Status().Overheat.Tripped)
	on, _ := h.driver.lastRelay(Heat)
	assert.True(t, on, "heat released on the same tick")
}

func TestResetOverheat_ContextCancelled(t *testing.T) {
	h := newHarness(t, natural)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, h.loop.ResetOverheat(ctx), context.DeadlineExceeded)
}

func TestSensor_StaleReadingFailsClosed(t *testing.T) {
	h := newHarness(t, natural)
	h.loop.Tick(context.Background())

	h.sensor.fail(errors.New("i2c timeout"))
	h.clock.advance(5 * time.Second)
	h.loop.Tick(context.Background())

	st := h.loop.Status()
	assert.False(t, st.SensorFault, "within the staleness window")
	assert.True(t, st.Relays.Heat)
	assert.NotEmpty(t, st.SensorError)

	h.clock.advance(6 * time.Second)
	h.loop.Tick(context.Background())
	h.clock.advance(time.Second)
	h.loop.Tick(context.Background())

	st = h.loop.Status()
	assert.True(t, st.SensorFault)
	assert.Equal(t, RelayStates{}, st.Relays)
	assert.Equal(t, 1, h.events.count(models.EventSensorStale))
	assert.NotEqual(t, models.Off, st.LED.Output, "LED keeps following the clock")

	h.sensor.setTemp(30)
	h.clock.advance(time.Second)
	h.loop.Tick(context.Background())

	st = h.loop.Status()
	assert.False(t, st.SensorFault)
	assert.True(t, st.Relays.Heat)
	assert.Equal(t, 1, h.events.count(models.EventSensorRecover))
}

func TestSensor_NoReadingEverIsFault(t *testing.T) {
	h := newHarness(t, natural)
	h.sensor.fail(errors.New("bus error"))

	h.loop.Tick(context.Background())

	st := h.loop.Status()
	assert.True(t, st.SensorFault)
	assert.Nil(t, st.Reading)
	assert.Equal(t, RelayStates{}, st.Relays)
}

func TestSensor_HungReadTimesOut(t *testing.T) {
	h := newHarness(t, natural)
	h.sensor.hang = true

	done := make(chan struct{})
	go func() {
		h.loop.Tick(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tick blocked on a hung sensor")
	}
	assert.True(t, h.loop.Status().SensorFault)
}

func TestActuator_FaultIsolatedAndRetried(t *testing.T) {
	h := newHarness(t, natural)
	h.driver.failRelay[UV2] = true

	h.loop.Tick(context.Background())

	st := h.loop.Status()
	assert.Equal(t, []string{"uv2"}, st.Unavailable)
	assert.True(t, st.Relays.UV1)
	assert.True(t, st.Relays.Heat)
	assert.Equal(t, testConfig.WriteRetries+1, h.driver.attempts["uv2"])
	assert.Len(t, h.driver.ledCalls(), 1)
	assert.Equal(t, 1, h.events.count(models.EventActuatorFault))

	h.clock.advance(time.Second)
	h.loop.Tick(context.Background())
	assert.Equal(t, 2*(testConfig.WriteRetries+1), h.driver.attempts["uv2"], "retried next tick")
	assert.Equal(t, 1, h.events.count(models.EventActuatorFault), "fault reported once")

	h.driver.mu.Lock()
	h.driver.failRelay[UV2] = false
	h.driver.mu.Unlock()
	h.clock.advance(time.Second)
	h.loop.Tick(context.Background())

	st = h.loop.Status()
	assert.Empty(t, st.Unavailable)
	assert.True(t, st.Relays.UV2)
	assert.Equal(t, 1, h.events.count(models.EventActuatorRecover))
}

func TestActuator_HungWriteTimesOut(t *testing.T) {
	h := newHarness(t, natural)
	h.driver.hangRelay[Heat] = true

	start := time.Now()
	h.loop.Tick(context.Background())

	assert.Less(t, time.Since(start), time.Second)
	assert.Contains(t, h.loop.Status().Unavailable, "heat")
	assert.Len(t, h.driver.ledCalls(), 1)
}

func inflightReturned(l *Loop, id RelayID) func() bool {
	return func() bool {
		select {
		case <-l.relays[id].inflight:
			return true
		default:
			return false
		}
	}
}

func TestActuator_LateWriteCannotUndoGuard(t *testing.T) {
	h := newHarness(t, natural)
	h.driver.slowRelay[relayCall{Heat, true}] = 300 * time.Millisecond
	h.sensor.setTemp(30)

	h.loop.Tick(context.Background())
	assert.Contains(t, h.loop.Status().Unavailable, "heat")
	assert.Equal(t, 1, h.driver.attemptCount("heat"), "a timed-out write is not retried while it may still land")

	h.sensor.setTemp(45)
	h.clock.advance(time.Second)
	h.loop.Tick(context.Background())
	require.True(t, h.loop.Status().Overheat.Tripped)
	assert.Equal(t, 1, h.driver.attemptCount("heat"), "no new write while the first is outstanding")

	require.Eventually(t, inflightReturned(h.loop, Heat), time.Second, 5*time.Millisecond)
	on, ok := h.driver.lastRelay(Heat)
	require.True(t, ok)
	require.True(t, on, "the late write reached the hardware")

	h.clock.advance(time.Second)
	h.loop.Tick(context.Background())

	on, _ = h.driver.lastRelay(Heat)
	assert.False(t, on, "heat re-sent off after the late write")
	st := h.loop.Status()
	assert.False(t, st.Relays.Heat)
	assert.True(t, st.Overheat.Tripped)
	assert.NotContains(t, st.Unavailable, "heat")
}

func TestShutdown_WaitsForOutstandingWrite(t *testing.T) {
	h := newHarness(t, natural)
	h.driver.slowRelay[relayCall{Heat, true}] = 150 * time.Millisecond

	h.loop.Tick(context.Background())
	require.Contains(t, h.loop.Status().Unavailable, "heat")

	h.loop.shutdown()

	var heat []bool
	for _, c := range h.driver.relayCalls() {
		if c.id == Heat {
			heat = append(heat, c.on)
		}
	}
	assert.Equal(t, []bool{true, false}, heat, "safe state written after the late write landed")
}

func TestSchedule_CacheInvalidatedOnUpdate(t *testing.T) {
	h := newHarness(t, natural)
	h.loop.Tick(context.Background())
	h.loop.Tick(context.Background())
	assert.Equal(t, 1, h.sched.gets, "cached while the version is unchanged")

	next := testWeek
	next.UV1 = models.Window{Start: models.MustTime("13:00"), End: models.MustTime("14:00")}
	h.sched.set(next)
	h.loop.Tick(context.Background())

	assert.Equal(t, 2, h.sched.gets)
	assert.False(t, h.loop.Status().Relays.UV1)
}

func TestRun_ShutdownDrivesSafeState(t *testing.T) {
	h := newHarness(t, natural)
	ctx, cancel := context.WithCancel(context.Background())

	go h.loop.Run(ctx)
	require.Eventually(t, func() bool { return h.loop.Status().Tick > 0 }, time.Second, time.Millisecond)
	require.True(t, h.loop.Status().Relays.Heat)

	h.driver.reset()
	cancel()
	select {
	case <-h.loop.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}

	for _, id := range Relays {
		on, ok := h.driver.lastRelay(id)
		assert.True(t, ok, "%s not commanded at shutdown", id)
		assert.False(t, on, "%s", id)
	}
	assert.Equal(t, []models.RGBWW{models.Off}, h.driver.ledCalls())
	assert.True(t, h.driver.closed)
	assert.Equal(t, 1, h.events.count(models.EventStartup))
	assert.Equal(t, 1, h.events.count(models.EventShutdown))
	assert.ErrorIs(t, h.loop.SetPower(true), ErrStopped)
}

func TestStatus_IsACopy(t *testing.T) {
	h := newHarness(t, natural)
	h.driver.failLED = true
	h.loop.Tick(context.Background())

	st := h.loop.Status()
	require.NotNil(t, st.Reading)
	st.Reading.BaskingTempC = 99
	st.Unavailable[0] = "x"

	again := h.loop.Status()
	assert.Equal(t, 32.0, again.Reading.BaskingTempC)
	assert.Equal(t, []string{"led"}, again.Unavailable)
}

func TestStatus_ConcurrentReads(t *testing.T) {
	h := newHarness(t, natural)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = h.loop.Status()
			}
		}()
	}
	for i := 0; i < 20; i++ {
		h.clock.advance(time.Minute)
		h.loop.Tick(context.Background())
	}
	wg.Wait()
}

func TestWeekOf(t *testing.T) {
	assert.Equal(t, 1, WeekOf(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 52, WeekOf(time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC)), "ISO week 53 folds into 52")
	assert.Equal(t, 1, WeekOf(time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC)), "ISO year rollover")
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cfg := testConfig
	cfg.SensorTimeout = 2 * time.Second
	_, err := New(cfg, Deps{}, natural)
	assert.Error(t, err)

	_, err = New(testConfig, Deps{}, natural)
	assert.Error(t, err, "missing dependencies")
}
