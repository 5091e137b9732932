// Package schedule holds the per-week schedule table and the natural light presets.
package schedule

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"

	"terrarium_control/internal/models"
)

// Backing persists the schedule table.
type Backing interface {
	LoadWeeks(ctx context.Context) ([]models.WeekSchedule, error)
	SaveWeek(ctx context.Context, s models.WeekSchedule) error
	// SeedWeeks writes a complete table in one transaction.
	SeedWeeks(ctx context.Context, weeks []models.WeekSchedule) error
}

// Store keeps all 52 weeks in memory and writes through to the backing store.
type Store struct {
	backing Backing

	writeMu sync.Mutex // serializes Update
	mu      sync.RWMutex
	weeks   [models.LastWeek]models.WeekSchedule
	version atomic.Uint64
}

// Open loads the table. An empty table is seeded with seed for every week; a partial or invalid
// table is an error.
func Open(ctx context.Context, b Backing, seed models.WeekSchedule) (*Store, error) {
	rows, err := b.LoadWeeks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	s := &Store{backing: b}
	if len(rows) == 0 {
		seeded := make([]models.WeekSchedule, 0, models.LastWeek)
		for w := models.FirstWeek; w <= models.LastWeek; w++ {
			ws := seed
			ws.Week = w
			if err := ws.Validate(); err != nil {
				return nil, fmt.Errorf("default schedule: %w", err)
			}
			seeded = append(seeded, ws)
		}
		if err := b.SeedWeeks(ctx, seeded); err != nil {
			return nil, fmt.Errorf("seed schedule: %w", err)
		}
		rows = seeded
	}

	var seen [models.LastWeek]bool
	for _, ws := range rows {
		if err := ws.Validate(); err != nil {
			return nil, fmt.Errorf("schedule week %d: %w", ws.Week, err)
		}
		if seen[ws.Week-1] {
			return nil, fmt.Errorf("schedule week %d: duplicate record", ws.Week)
		}
		seen[ws.Week-1] = true
		s.weeks[ws.Week-1] = ws
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("schedule week %d: missing record", i+1)
		}
	}
	s.version.Store(1)
	return s, nil
}

// Get returns the record for week, or models.ErrNotFound outside 1..52.
func (s *Store) Get(week int) (models.WeekSchedule, error) {
	if !models.ValidWeek(week) {
		return models.WeekSchedule{}, fmt.Errorf("week %d: %w", week, models.ErrNotFound)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weeks[week-1], nil
}

// Update validates and persists settings for week, then makes them visible to readers.
// On any error the previous record is untouched.
func (s *Store) Update(ctx context.Context, week int, settings models.WeekSchedule) (models.WeekSchedule, error) {
	settings.Week = week
	if err := settings.Validate(); err != nil {
		return models.WeekSchedule{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.backing.SaveWeek(ctx, settings); err != nil {
		return models.WeekSchedule{}, fmt.Errorf("save week %d: %w", week, err)
	}

	s.mu.Lock()
	s.weeks[week-1] = settings
	s.mu.Unlock()
	s.version.Add(1)
	return settings, nil
}

// All yields the 52 records in week order. Each iteration reads the current table.
func (s *Store) All() iter.Seq[models.WeekSchedule] {
	return func(yield func(models.WeekSchedule) bool) {
		for w := models.FirstWeek; w <= models.LastWeek; w++ {
			ws, _ := s.Get(w)
			if !yield(ws) {
				return
			}
		}
	}
}

// Version changes every time a week is updated.
func (s *Store) Version() uint64 { return s.version.Load() }
