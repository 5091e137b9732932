package repository

import (
	"context"
	"database/sql"
	"time"

	"terrarium_control/internal/models"
)

// Authorization stores operator accounts.
type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
	Count() (int, error)
}

// ScheduleRepo stores the 52 week records.
type ScheduleRepo interface {
	LoadWeeks(ctx context.Context) ([]models.WeekSchedule, error)
	SaveWeek(ctx context.Context, s models.WeekSchedule) error
	SeedWeeks(ctx context.Context, weeks []models.WeekSchedule) error
}

// PresetRepo stores the natural light presets.
type PresetRepo interface {
	LoadPresets(ctx context.Context) (models.Presets, bool, error)
	SavePresets(ctx context.Context, p models.Presets) error
}

// LEDStateRepo stores the operator LED settings in a single row.
type LEDStateRepo interface {
	SaveLEDState(ctx context.Context, st models.LEDState) error
	LoadLEDState(ctx context.Context) (models.LEDState, bool, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.Event) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.Event, error)
}

// HistoryRepo stores sampled sensor readings.
type HistoryRepo interface {
	Insert(ctx context.Context, r models.SensorReading) error
	List(ctx context.Context, from, to time.Time, limit int) ([]models.HistoryPoint, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type Repository struct {
	Schedule ScheduleRepo
	Presets  PresetRepo
	LEDState LEDStateRepo
	Events   EventRepo
	History  HistoryRepo
	Auth     Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Schedule: NewScheduleSQLite(db),
		Presets:  NewPresetSQLite(db),
		LEDState: NewLEDStateSQLite(db),
		Events:   NewEventSQLite(db),
		History:  NewHistorySQLite(db),
		Auth:     NewOperatorSQLite(db),
	}
}

// sqliteTimeLayout is the TIMESTAMP text format used for every time column.
const sqliteTimeLayout = "2006-01-02 15:04:05"
