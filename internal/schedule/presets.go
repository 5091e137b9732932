package schedule

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"terrarium_control/internal/models"
)

// DefaultPresets are used when nothing has been stored yet.
var DefaultPresets = models.Presets{
	Morning: models.RGBWW{R: 255, G: 180, B: 100, WW: 200, CW: 50},
	Noon:    models.RGBWW{R: 255, G: 240, B: 220, WW: 50, CW: 255},
	Evening: models.RGBWW{R: 255, G: 140, B: 50, WW: 255, CW: 0},
}

// PresetBacking persists the natural light presets.
type PresetBacking interface {
	// LoadPresets reports found=false when nothing is stored.
	LoadPresets(ctx context.Context) (p models.Presets, found bool, err error)
	SavePresets(ctx context.Context, p models.Presets) error
}

// PresetStore is the write-through cache of the presets.
type PresetStore struct {
	backing PresetBacking

	writeMu sync.Mutex
	mu      sync.RWMutex
	presets models.Presets
	version atomic.Uint64
}

// OpenPresets loads the presets, storing seed when none exist.
func OpenPresets(ctx context.Context, b PresetBacking, seed models.Presets) (*PresetStore, error) {
	p, found, err := b.LoadPresets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}
	if !found {
		if err := seed.Validate(); err != nil {
			return nil, fmt.Errorf("default presets: %w", err)
		}
		if err := b.SavePresets(ctx, seed); err != nil {
			return nil, fmt.Errorf("seed presets: %w", err)
		}
		p = seed
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("stored presets: %w", err)
	}

	ps := &PresetStore{backing: b, presets: p}
	ps.version.Store(1)
	return ps, nil
}

// Get returns the current presets.
func (ps *PresetStore) Get() models.Presets {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.presets
}

// Set validates and persists p.
func (ps *PresetStore) Set(ctx context.Context, p models.Presets) (models.Presets, error) {
	if err := p.Validate(); err != nil {
		return models.Presets{}, err
	}

	ps.writeMu.Lock()
	defer ps.writeMu.Unlock()
	if err := ps.backing.SavePresets(ctx, p); err != nil {
		return models.Presets{}, fmt.Errorf("save presets: %w", err)
	}

	ps.mu.Lock()
	ps.presets = p
	ps.mu.Unlock()
	ps.version.Add(1)
	return p, nil
}

// Version changes every time the presets are replaced.
func (ps *PresetStore) Version() uint64 { return ps.version.Load() }
