package service

import (
	"context"

	"terrarium_control/internal/models"
)

// PresetStore holds the natural light presets.
type PresetStore interface {
	Get() models.Presets
	Set(ctx context.Context, p models.Presets) (models.Presets, error)
}

type PresetsService struct {
	store  PresetStore
	events Recorder
}

func NewPresetsService(store PresetStore, events Recorder) *PresetsService {
	return &PresetsService{store: store, events: events}
}

func (s *PresetsService) GetPresets() models.Presets {
	return s.store.Get()
}

// SetPresets replaces all three presets and records a PRESETS_UPDATE event.
func (s *PresetsService) SetPresets(ctx context.Context, p models.Presets) (models.Presets, error) {
	saved, err := s.store.Set(ctx, p)
	if err != nil {
		return models.Presets{}, err
	}
	if s.events != nil {
		_ = s.events.Record(ctx, models.Event{
			Type:        models.EventPresetsUpdate,
			Severity:    models.SeverityInfo,
			Description: "Natural light presets updated",
			Metadata: map[string]any{
				"morning": saved.Morning.String(),
				"noon":    saved.Noon.String(),
				"evening": saved.Evening.String(),
			},
		})
	}
	return saved, nil
}
