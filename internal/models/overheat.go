package models

import "time"

// OverheatState is the overheat interlock as seen from outside the loop.
type OverheatState struct {
	Tripped              bool      `json:"tripped"`
	TripTimestamp        time.Time `json:"trip_timestamp,omitempty"`
	ConsecutiveSafeTicks int       `json:"consecutive_safe_ticks"`
	// TicksToReset is how many more safe ticks un-trip the guard; zero when not tripped.
	TicksToReset int `json:"ticks_to_reset"`
}
