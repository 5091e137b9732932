package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Mode selects where the LED colour comes from.
type Mode uint8

const (
	// ModeNatural follows the simulated day/season cycle.
	ModeNatural Mode = iota
	// ModeManual holds the operator's manual colour.
	ModeManual
)

func (m Mode) String() string {
	switch m {
	case ModeManual:
		return "manual"
	default:
		return "natural"
	}
}

// ParseMode is the inverse of String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "natural":
		return ModeNatural, nil
	case "manual":
		return ModeManual, nil
	}
	return 0, fmt.Errorf("unknown LED mode %q", s)
}

func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Mode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// LEDState is the operator-controlled LED configuration plus the last effective output.
type LEDState struct {
	Power        bool    `json:"power"`
	Mode         Mode    `json:"mode"`
	ManualColor  RGBWW   `json:"manual_color"`
	SeasonWeight float64 `json:"season_weight"`
	// Output is what the loop last computed for the strip.
	Output RGBWW `json:"output"`
}

// ValidateSeasonWeight checks w is inside [0,1].
func ValidateSeasonWeight(w float64) error {
	if w < 0 || w > 1 || w != w {
		return Invalid("season_weight", "%v outside [0,1]", w)
	}
	return nil
}
