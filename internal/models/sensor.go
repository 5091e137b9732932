package models

import "time"

// SensorReading is one sample of every habitat sensor.
type SensorReading struct {
	BaskingTempC  float64   `json:"basking_temp_c"`
	Basking2TempC float64   `json:"basking2_temp_c"`
	CoolZoneTempC float64   `json:"cool_zone_temp_c"`
	HumidityPct   float64   `json:"humidity_pct"`
	UV1           float64   `json:"uv1"`
	UV1On         bool      `json:"uv1_on"`
	UV2           float64   `json:"uv2"`
	UV2On         bool      `json:"uv2_on"`
	TakenAt       time.Time `json:"taken_at"`
}

// HistoryPoint is a persisted reading.
type HistoryPoint struct {
	ID int64 `json:"id"`
	SensorReading
}
