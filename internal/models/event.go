package models

import "time"

// Event types written to the event log.
const (
	EventRelay           = "RELAY"
	EventLED             = "LED"
	EventOverheatTrip    = "OVERHEAT_TRIP"
	EventOverheatReset   = "OVERHEAT_RESET"
	EventSensorStale     = "SENSOR_STALE"
	EventSensorRecover   = "SENSOR_RECOVERED"
	EventActuatorFault   = "ACTUATOR_FAULT"
	EventActuatorRecover = "ACTUATOR_RECOVERED"
	EventScheduleUpdate  = "SCHEDULE_UPDATE"
	EventPresetsUpdate   = "PRESETS_UPDATE"
	EventModeChange      = "MODE_CHANGE"
	EventWarning         = "WARNING"
	EventStartup         = "STARTUP"
	EventShutdown        = "SHUTDOWN"
)

// Severity of an event, used to pick the log level.
const (
	SeverityInfo  = "info"
	SeverityWarn  = "warn"
	SeverityError = "error"
)

// Event is a single log entry.
type Event struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
