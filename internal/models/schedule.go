package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Weeks in the schedule table. ISO week 53 is folded into week 52.
const (
	FirstWeek = 1
	LastWeek  = 52
)

// MinutesPerDay is the largest valid TimeOfDay (24:00).
const MinutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time with minute granularity, 0 (00:00) to 1440 (24:00).
type TimeOfDay int

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS" (seconds must be zero).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("time %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) > 2 {
		return 0, fmt.Errorf("time %q: bad hour", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 {
		return 0, fmt.Errorf("time %q: bad minute", s)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec != 0 {
			return 0, fmt.Errorf("time %q: seconds are not supported", s)
		}
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("time %q: outside 00:00-24:00", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// MustTime is ParseTimeOfDay for literals.
func MustTime(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Valid reports whether t is inside 00:00-24:00.
func (t TimeOfDay) Valid() bool { return t >= 0 && t <= MinutesPerDay }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Window is a same-day on-window. Both ends are inclusive.
type Window struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Contains reports whether minute (minutes since midnight) falls inside the window.
func (w Window) Contains(minute TimeOfDay) bool {
	return minute >= w.Start && minute <= w.End
}

// Validate rejects out-of-range times and windows that would wrap past midnight.
func (w Window) Validate(field string) error {
	if !w.Start.Valid() {
		return Invalid(field+"Start", "time %d outside 00:00-24:00", int(w.Start))
	}
	if !w.End.Valid() {
		return Invalid(field+"End", "time %d outside 00:00-24:00", int(w.End))
	}
	if w.Start > w.End {
		return Invalid(field+"End", "end %s is before start %s; overnight windows are not supported", w.End, w.Start)
	}
	return nil
}

// WeekSchedule is the configuration record for one calendar week.
type WeekSchedule struct {
	Week      int    `json:"week"`
	UV1       Window `json:"uv1"`
	UV2       Window `json:"uv2"`
	Heat      Window `json:"heat"`
	LEDTarget RGBWW  `json:"led_target"`
}

// ValidWeek reports whether week is a schedule key.
func ValidWeek(week int) bool { return week >= FirstWeek && week <= LastWeek }

// Validate checks every field of the record.
func (s WeekSchedule) Validate() error {
	if !ValidWeek(s.Week) {
		return Invalid("week", "week %d outside %d..%d", s.Week, FirstWeek, LastWeek)
	}
	if err := s.UV1.Validate("uv1"); err != nil {
		return err
	}
	if err := s.UV2.Validate("uv2"); err != nil {
		return err
	}
	if err := s.Heat.Validate("heat"); err != nil {
		return err
	}
	return s.LEDTarget.Validate("led")
}
