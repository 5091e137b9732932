package service

import (
	"context"
	"fmt"
	"time"

	"terrarium_control/internal/control"
	"terrarium_control/internal/logger"
	"terrarium_control/internal/models"
	"terrarium_control/internal/repository"
)

// HistoryConfig controls sampling, retention and the warning thresholds. A zero threshold
// disables that warning; a zero retention keeps everything.
type HistoryConfig struct {
	Interval       time.Duration
	Retention      time.Duration
	BaskingHighC   float64
	Basking2HighC  float64
	HumidityLowPct float64
}

// StatusSource provides the snapshot the sampler reads.
type StatusSource interface {
	Status() control.Status
}

// Warning keys.
const (
	warnBaskingHigh  = "basking_high"
	warnBasking2High = "basking2_high"
	warnHumidityLow  = "humidity_low"
)

// HistoryService samples the loop status into sensor_history and raises WARNING events
// when a reading crosses a threshold. Each warning fires once per excursion.
type HistoryService struct {
	repo   repository.HistoryRepo
	src    StatusSource
	events Recorder
	cfg    HistoryConfig
	log    *logger.Logger
	now    func() time.Time

	lastTaken time.Time
	active    map[string]bool
}

func NewHistoryService(repo repository.HistoryRepo, src StatusSource, events Recorder, cfg HistoryConfig, log *logger.Logger) *HistoryService {
	return &HistoryService{
		repo:   repo,
		src:    src,
		events: events,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
		active: map[string]bool{},
	}
}

// Run samples every cfg.Interval until ctx is canceled.
func (s *HistoryService) Run(ctx context.Context) {
	t := time.NewTicker(s.cfg.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.SampleOnce(ctx); err != nil && s.log != nil {
				s.log.Warnw("history_sample_failed", "err", err)
			}
		}
	}
}

// SampleOnce stores the current reading if it is new and not faulted, checks thresholds
// and prunes expired rows.
func (s *HistoryService) SampleOnce(ctx context.Context) error {
	st := s.src.Status()
	if st.Reading == nil || st.SensorFault {
		return nil
	}
	r := *st.Reading
	if !r.TakenAt.IsZero() && !r.TakenAt.After(s.lastTaken) {
		return nil
	}

	if err := s.repo.Insert(ctx, r); err != nil {
		return err
	}
	s.lastTaken = r.TakenAt

	s.check(ctx, warnBaskingHigh, s.cfg.BaskingHighC > 0 && r.BaskingTempC > s.cfg.BaskingHighC,
		fmt.Sprintf("Basking temperature high: %.1f°C (limit %.1f°C)", r.BaskingTempC, s.cfg.BaskingHighC),
		map[string]any{"basking_c": r.BaskingTempC, "limit_c": s.cfg.BaskingHighC})
	s.check(ctx, warnBasking2High, s.cfg.Basking2HighC > 0 && r.Basking2TempC > s.cfg.Basking2HighC,
		fmt.Sprintf("Secondary basking temperature high: %.1f°C (limit %.1f°C)", r.Basking2TempC, s.cfg.Basking2HighC),
		map[string]any{"basking2_c": r.Basking2TempC, "limit_c": s.cfg.Basking2HighC})
	s.check(ctx, warnHumidityLow, s.cfg.HumidityLowPct > 0 && r.HumidityPct < s.cfg.HumidityLowPct,
		fmt.Sprintf("Humidity low: %.0f%% (limit %.0f%%)", r.HumidityPct, s.cfg.HumidityLowPct),
		map[string]any{"humidity_pct": r.HumidityPct, "limit_pct": s.cfg.HumidityLowPct})

	if s.cfg.Retention > 0 {
		n, err := s.repo.Prune(ctx, s.now().Add(-s.cfg.Retention))
		if err != nil {
			return err
		}
		if n > 0 && s.log != nil {
			s.log.Debugw("history_pruned", "rows", n)
		}
	}
	return nil
}

func (s *HistoryService) check(ctx context.Context, key string, breached bool, desc string, meta map[string]any) {
	was := s.active[key]
	s.active[key] = breached
	if !breached || was || s.events == nil {
		return
	}
	meta["warning"] = key
	_ = s.events.Record(ctx, models.Event{
		Type:        models.EventWarning,
		Severity:    models.SeverityWarn,
		Description: desc,
		Metadata:    meta,
	})
}

// Samples lists stored readings.
func (s *HistoryService) Samples(ctx context.Context, f HistoryFilter) ([]models.HistoryPoint, error) {
	from, to := normalizeToUTC(f.From), normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, errInvalidTimeRange
	}
	return s.repo.List(ctx, from, to, f.Limit)
}
