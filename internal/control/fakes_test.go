package control

import (
	"context"
	"errors"
	"sync"
	"time"

	"terrarium_control/internal/models"
)

// ---- Test doubles ----

type fakeSchedule struct {
	mu      sync.Mutex
	ws      models.WeekSchedule
	version uint64
	gets    int
}

func (f *fakeSchedule) Get(week int) (models.WeekSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if !models.ValidWeek(week) {
		return models.WeekSchedule{}, models.ErrNotFound
	}
	ws := f.ws
	ws.Week = week
	return ws, nil
}

func (f *fakeSchedule) Version() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version
}

func (f *fakeSchedule) set(ws models.WeekSchedule) {
	f.mu.Lock()
	f.ws = ws
	f.version++
	f.mu.Unlock()
}

type fakePresets struct{ p models.Presets }

func (f fakePresets) Get() models.Presets { return f.p }

type fakeSensor struct {
	mu    sync.Mutex
	r     models.SensorReading
	err   error
	hang  bool
	calls int
}

func (f *fakeSensor) Read(ctx context.Context) (models.SensorReading, error) {
	f.mu.Lock()
	f.calls++
	r, err, hang := f.r, f.err, f.hang
	f.mu.Unlock()
	if hang {
		select {} // ignores ctx on purpose
	}
	return r, err
}

func (f *fakeSensor) setTemp(c float64) {
	f.mu.Lock()
	f.r.BaskingTempC = c
	f.err = nil
	f.mu.Unlock()
}

func (f *fakeSensor) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type relayCall struct {
	id RelayID
	on bool
}

type fakeDriver struct {
	mu        sync.Mutex
	relays    []relayCall
	leds      []models.RGBWW
	failRelay map[RelayID]bool
	failLED   bool
	hangRelay map[RelayID]bool
	slowRelay map[relayCall]time.Duration
	attempts  map[string]int
	closed    bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		failRelay: map[RelayID]bool{},
		hangRelay: map[RelayID]bool{},
		slowRelay: map[relayCall]time.Duration{},
		attempts:  map[string]int{},
	}
}

func (f *fakeDriver) SetRelay(ctx context.Context, id RelayID, on bool) error {
	f.mu.Lock()
	f.attempts[id.String()]++
	fail, hang, slow := f.failRelay[id], f.hangRelay[id], f.slowRelay[relayCall{id, on}]
	f.mu.Unlock()
	if hang {
		select {}
	}
	if slow > 0 {
		time.Sleep(slow) // lands after the caller gave up
	}
	if fail {
		return errors.New("relay board not responding")
	}
	f.mu.Lock()
	f.relays = append(f.relays, relayCall{id, on})
	f.mu.Unlock()
	return nil
}

func (f *fakeDriver) SetLED(ctx context.Context, c models.RGBWW) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts["led"]++
	if f.failLED {
		return errors.New("led controller not responding")
	}
	f.leds = append(f.leds, c)
	return nil
}

func (f *fakeDriver) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeDriver) relayCalls() []relayCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]relayCall(nil), f.relays...)
}

func (f *fakeDriver) ledCalls() []models.RGBWW {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.RGBWW(nil), f.leds...)
}

func (f *fakeDriver) lastRelay(id RelayID) (on, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.relays) - 1; i >= 0; i-- {
		if f.relays[i].id == id {
			return f.relays[i].on, true
		}
	}
	return false, false
}

func (f *fakeDriver) attemptCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[name]
}

func (f *fakeDriver) reset() {
	f.mu.Lock()
	f.relays, f.leds = nil, nil
	f.attempts = map[string]int{}
	f.mu.Unlock()
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.Event
}

func (f *fakeEvents) Record(ctx context.Context, ev models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEvents) count(typ string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, ev := range f.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

type fakeSaver struct {
	mu    sync.Mutex
	saved []models.LEDState
}

func (f *fakeSaver) SaveLEDState(ctx context.Context, st models.LEDState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, st)
	return nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
