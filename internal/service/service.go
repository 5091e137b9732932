package service

import (
	"context"

	"terrarium_control/internal/control"
	"terrarium_control/internal/logger"
	"terrarium_control/internal/models"
	"terrarium_control/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Control exposes the operator requests accepted by the control loop and its status snapshot.
type Control interface {
	Status() control.Status
	SetPower(on bool) error
	SetColor(c models.RGBWW) error
	SetNatural(useNatural bool, seasonWeight float64) error
	ResetOverheat(ctx context.Context) error
}

// Schedule exposes the 52 week records.
type Schedule interface {
	Week(week int) (models.WeekSchedule, error)
	Weeks() []models.WeekSchedule
	UpdateWeek(ctx context.Context, week int, s models.WeekSchedule) (models.WeekSchedule, error)
	UpdateWeeks(ctx context.Context, weeks []models.WeekSchedule) error
	Export(format string) ([]byte, string, error)
}

// Presets exposes the natural light presets.
type Presets interface {
	GetPresets() models.Presets
	SetPresets(ctx context.Context, p models.Presets) (models.Presets, error)
}

// EventLog records events and lists them with filtering.
type EventLog interface {
	Record(ctx context.Context, ev models.Event) error
	List(ctx context.Context, f LogFilter) ([]models.Event, error)
}

// History lists sampled sensor readings.
type History interface {
	Samples(ctx context.Context, f HistoryFilter) ([]models.HistoryPoint, error)
}

// Service aggregates all sub-services.
type Service struct {
	Control
	Schedule
	Presets
	EventLog
	History
	Authorization
}

// Deps are the pieces built before the service layer: the stores and the loop come up
// first because the loop records through the event log.
type Deps struct {
	Loop     Loop
	Schedule ScheduleStore
	Presets  PresetStore
	Events   *EventLogService
	Sampler  *HistoryService
	Auth     AuthConfig
	Log      *logger.Logger
}

// NewService wires the repository layer and the control core into concrete services.
func NewService(repos *repository.Repository, d Deps) *Service {
	events := d.Events
	if events == nil {
		events = NewEventLogService(repos.Events, d.Log)
	}
	return &Service{
		Control:       NewControlService(d.Loop, d.Log),
		Schedule:      NewScheduleService(d.Schedule, events),
		Presets:       NewPresetsService(d.Presets, events),
		EventLog:      events,
		History:       d.Sampler,
		Authorization: NewAuthService(repos.Auth, d.Auth),
	}
}
