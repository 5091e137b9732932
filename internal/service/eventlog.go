package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"terrarium_control/internal/logger"
	"terrarium_control/internal/models"
	"terrarium_control/internal/repository"
)

// EventLogService persists events and mirrors each one to the process log.
type EventLogService struct {
	eventRepo repository.EventRepo
	log       *logger.Logger
}

func NewEventLogService(eventRepo repository.EventRepo, log *logger.Logger) *EventLogService {
	return &EventLogService{eventRepo: eventRepo, log: log}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	eventType := normalizeEventType(f.Type)
	return from, to, eventType, nil
}

// Record logs ev at a level matching its severity and appends it to the event table.
func (s *EventLogService) Record(ctx context.Context, ev models.Event) error {
	if s.log != nil {
		kv := []any{"type", ev.Type, "description", ev.Description}
		if ev.Metadata != nil {
			kv = append(kv, "meta", ev.Metadata)
		}
		switch ev.Severity {
		case models.SeverityError:
			s.log.Errorw("event", kv...)
		case models.SeverityWarn:
			s.log.Warnw("event", kv...)
		default:
			s.log.Infow("event", kv...)
		}
	}
	return s.eventRepo.Append(ctx, ev)
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.Event, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, typ)
}
