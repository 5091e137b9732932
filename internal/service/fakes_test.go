package service

import (
	"context"
	"iter"

	"terrarium_control/internal/control"
	"terrarium_control/internal/models"
)

type fakeLoop struct {
	status control.Status

	powerCalls   []bool
	colorCalls   []models.RGBWW
	manualCalls  int
	naturalCalls []float64
	resetCalls   int

	err      error
	resetErr error
}

func (f *fakeLoop) Status() control.Status { return f.status }

func (f *fakeLoop) SetManualOverride(c models.RGBWW) error {
	if err := c.Validate("color"); err != nil {
		return err
	}
	f.colorCalls = append(f.colorCalls, c)
	return f.err
}

func (f *fakeLoop) SetManualMode() error {
	f.manualCalls++
	return f.err
}

func (f *fakeLoop) SetNaturalMode(w float64) error {
	f.naturalCalls = append(f.naturalCalls, w)
	return f.err
}

func (f *fakeLoop) SetPower(on bool) error {
	f.powerCalls = append(f.powerCalls, on)
	return f.err
}

func (f *fakeLoop) ResetOverheat(ctx context.Context) error {
	f.resetCalls++
	return f.resetErr
}

// fakeScheduleStore keeps weeks in a map and validates like the real store.
type fakeScheduleStore struct {
	weeks     map[int]models.WeekSchedule
	updateErr error
	updates   int
}

func newFakeScheduleStore(seed models.WeekSchedule) *fakeScheduleStore {
	f := &fakeScheduleStore{weeks: map[int]models.WeekSchedule{}}
	for w := models.FirstWeek; w <= models.LastWeek; w++ {
		s := seed
		s.Week = w
		f.weeks[w] = s
	}
	return f
}

func (f *fakeScheduleStore) Get(week int) (models.WeekSchedule, error) {
	s, ok := f.weeks[week]
	if !ok {
		return models.WeekSchedule{}, models.ErrNotFound
	}
	return s, nil
}

func (f *fakeScheduleStore) Update(ctx context.Context, week int, s models.WeekSchedule) (models.WeekSchedule, error) {
	s.Week = week
	if err := s.Validate(); err != nil {
		return models.WeekSchedule{}, err
	}
	if f.updateErr != nil {
		return models.WeekSchedule{}, f.updateErr
	}
	f.updates++
	f.weeks[week] = s
	return s, nil
}

func (f *fakeScheduleStore) All() iter.Seq[models.WeekSchedule] {
	return func(yield func(models.WeekSchedule) bool) {
		for w := models.FirstWeek; w <= models.LastWeek; w++ {
			if !yield(f.weeks[w]) {
				return
			}
		}
	}
}

type fakePresetStore struct {
	p   models.Presets
	err error
}

func (f *fakePresetStore) Get() models.Presets { return f.p }

func (f *fakePresetStore) Set(ctx context.Context, p models.Presets) (models.Presets, error) {
	if err := p.Validate(); err != nil {
		return models.Presets{}, err
	}
	if f.err != nil {
		return models.Presets{}, f.err
	}
	f.p = p
	return p, nil
}

type fakeRecorder struct {
	events []models.Event
}

func (f *fakeRecorder) Record(ctx context.Context, ev models.Event) error {
	f.events = append(f.events, ev)
	return nil
}

func sampleSchedule() models.WeekSchedule {
	return models.WeekSchedule{
		UV1:       models.Window{Start: models.MustTime("08:00"), End: models.MustTime("18:00")},
		UV2:       models.Window{Start: models.MustTime("09:00"), End: models.MustTime("17:00")},
		Heat:      models.Window{Start: models.MustTime("07:30"), End: models.MustTime("19:30")},
		LEDTarget: models.RGBWW{R: 255, G: 200, B: 150, WW: 100, CW: 80},
	}
}
