package service

import "time"

// LogFilter supports event filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "RELAY", "OVERHEAT_TRIP", ...
}

// HistoryFilter selects sampled readings.
type HistoryFilter struct {
	From  time.Time
	To    time.Time
	Limit int // <= 0 means no limit
}
