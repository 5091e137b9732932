package service

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	tc "terrarium_control"
	"terrarium_control/internal/models"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ScheduleStore is the week table the service reads and updates.
type ScheduleStore interface {
	Get(week int) (models.WeekSchedule, error)
	Update(ctx context.Context, week int, s models.WeekSchedule) (models.WeekSchedule, error)
	All() iter.Seq[models.WeekSchedule]
}

// Recorder receives audit events.
type Recorder interface {
	Record(ctx context.Context, ev models.Event) error
}

type ScheduleService struct {
	store  ScheduleStore
	events Recorder
	now    func() time.Time
}

func NewScheduleService(store ScheduleStore, events Recorder) *ScheduleService {
	return &ScheduleService{store: store, events: events, now: time.Now}
}

func (s *ScheduleService) Week(week int) (models.WeekSchedule, error) {
	return s.store.Get(week)
}

func (s *ScheduleService) Weeks() []models.WeekSchedule {
	return slices.Collect(s.store.All())
}

// UpdateWeek replaces one week and records a SCHEDULE_UPDATE event.
func (s *ScheduleService) UpdateWeek(ctx context.Context, week int, ws models.WeekSchedule) (models.WeekSchedule, error) {
	saved, err := s.store.Update(ctx, week, ws)
	if err != nil {
		return models.WeekSchedule{}, err
	}
	s.record(ctx, fmt.Sprintf("Week %d schedule updated", week), map[string]any{
		"week": week,
		"uv1":  windowString(saved.UV1),
		"uv2":  windowString(saved.UV2),
		"heat": windowString(saved.Heat),
		"led":  saved.LEDTarget.String(),
	})
	return saved, nil
}

// UpdateWeeks validates every record before writing any of them.
func (s *ScheduleService) UpdateWeeks(ctx context.Context, weeks []models.WeekSchedule) error {
	if len(weeks) == 0 {
		return models.Invalid("weeks", "no weeks given")
	}
	for _, ws := range weeks {
		if err := ws.Validate(); err != nil {
			return err
		}
	}
	for _, ws := range weeks {
		if _, err := s.store.Update(ctx, ws.Week, ws); err != nil {
			return err
		}
	}
	nums := make([]int, 0, len(weeks))
	for _, ws := range weeks {
		nums = append(nums, ws.Week)
	}
	s.record(ctx, fmt.Sprintf("%d week schedules updated", len(weeks)), map[string]any{"weeks": nums})
	return nil
}

// Export renders all 52 weeks. It returns the document and its content type.
func (s *ScheduleService) Export(format string) ([]byte, string, error) {
	doc := tc.ScheduleExport{ExportedAt: s.now().UTC()}
	for ws := range s.store.All() {
		doc.Weeks = append(doc.Weeks, tc.NewWeekScheduleDTO(ws))
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, "", err
		}
		return b, "application/json", nil
	case FormatYAML, "yml":
		b, err := yaml.Marshal(doc)
		if err != nil {
			return nil, "", err
		}
		return b, "application/yaml", nil
	default:
		return nil, "", models.Invalid("format", "unsupported export format %q; use json or yaml", format)
	}
}

func (s *ScheduleService) record(ctx context.Context, desc string, meta map[string]any) {
	if s.events == nil {
		return
	}
	_ = s.events.Record(ctx, models.Event{
		Type:        models.EventScheduleUpdate,
		Severity:    models.SeverityInfo,
		Description: desc,
		Metadata:    meta,
	})
}

func windowString(w models.Window) string {
	return w.Start.String() + "-" + w.End.String()
}
