package terrarium_control

import (
	"time"

	"terrarium_control/internal/control"
	"terrarium_control/internal/light"
	"terrarium_control/internal/models"
)

// WeekScheduleDTO is a week schedule as exchanged with dashboard clients.
type WeekScheduleDTO struct {
	Week      int    `json:"week" yaml:"week" example:"23"`
	UV1Start  string `json:"uv1Start" yaml:"uv1Start" example:"08:00"`
	UV1End    string `json:"uv1End" yaml:"uv1End" example:"18:00"`
	UV2Start  string `json:"uv2Start" yaml:"uv2Start" example:"09:00"`
	UV2End    string `json:"uv2End" yaml:"uv2End" example:"17:00"`
	HeatStart string `json:"heatStart" yaml:"heatStart" example:"07:30"`
	HeatEnd   string `json:"heatEnd" yaml:"heatEnd" example:"19:30"`
	Red       int    `json:"red" yaml:"red"`
	Green     int    `json:"green" yaml:"green"`
	Blue      int    `json:"blue" yaml:"blue"`
	CW        int    `json:"cw" yaml:"cw"`
	WW        int    `json:"ww" yaml:"ww"`
}

func NewWeekScheduleDTO(s models.WeekSchedule) WeekScheduleDTO {
	return WeekScheduleDTO{
		Week:      s.Week,
		UV1Start:  s.UV1.Start.String(),
		UV1End:    s.UV1.End.String(),
		UV2Start:  s.UV2.Start.String(),
		UV2End:    s.UV2.End.String(),
		HeatStart: s.Heat.Start.String(),
		HeatEnd:   s.Heat.End.String(),
		Red:       s.LEDTarget.R,
		Green:     s.LEDTarget.G,
		Blue:      s.LEDTarget.B,
		CW:        s.LEDTarget.CW,
		WW:        s.LEDTarget.WW,
	}
}

// Model parses the times. It does not validate windows or channels; the schedule store does.
func (d WeekScheduleDTO) Model() (models.WeekSchedule, error) {
	s := models.WeekSchedule{
		Week:      d.Week,
		LEDTarget: models.RGBWW{R: d.Red, G: d.Green, B: d.Blue, WW: d.WW, CW: d.CW},
	}
	for _, f := range []struct {
		field string
		raw   string
		dst   *models.TimeOfDay
	}{
		{"uv1Start", d.UV1Start, &s.UV1.Start},
		{"uv1End", d.UV1End, &s.UV1.End},
		{"uv2Start", d.UV2Start, &s.UV2.Start},
		{"uv2End", d.UV2End, &s.UV2.End},
		{"heatStart", d.HeatStart, &s.Heat.Start},
		{"heatEnd", d.HeatEnd, &s.Heat.End},
	} {
		t, err := models.ParseTimeOfDay(f.raw)
		if err != nil {
			return models.WeekSchedule{}, models.Invalid(f.field, "%v", err)
		}
		*f.dst = t
	}
	return s, nil
}

// ScheduleExport is the document written by the schedule export.
type ScheduleExport struct {
	ExportedAt time.Time         `json:"exported_at" yaml:"exported_at"`
	Weeks      []WeekScheduleDTO `json:"weeks" yaml:"weeks"`
}

// ColorDTO is an RGBWW colour with the LED field names.
type ColorDTO struct {
	R  int `json:"r" example:"255"`
	G  int `json:"g" example:"200"`
	B  int `json:"b" example:"150"`
	WW int `json:"ww" example:"100"`
	CW int `json:"cw" example:"80"`
}

func NewColorDTO(c models.RGBWW) ColorDTO {
	return ColorDTO{R: c.R, G: c.G, B: c.B, WW: c.WW, CW: c.CW}
}

func (c ColorDTO) Model() models.RGBWW {
	return models.RGBWW{R: c.R, G: c.G, B: c.B, WW: c.WW, CW: c.CW}
}

// LEDStatus reports the strip. r..cw are the channels currently driven; use_natural is the
// inverse of the manual override.
type LEDStatus struct {
	Power        bool         `json:"power"`
	R            int          `json:"r"`
	G            int          `json:"g"`
	B            int          `json:"b"`
	WW           int          `json:"ww"`
	CW           int          `json:"cw"`
	UseNatural   bool         `json:"use_natural"`
	Override     bool         `json:"override"`
	SeasonWeight float64      `json:"season_weight"`
	ManualColor  ColorDTO     `json:"manual_color"`
	Preview      light.Swatch `json:"preview"`
}

func NewLEDStatus(st models.LEDState) LEDStatus {
	natural := st.Mode == models.ModeNatural
	return LEDStatus{
		Power:        st.Power,
		R:            st.Output.R,
		G:            st.Output.G,
		B:            st.Output.B,
		WW:           st.Output.WW,
		CW:           st.Output.CW,
		UseNatural:   natural,
		Override:     !natural,
		SeasonWeight: st.SeasonWeight,
		ManualColor:  NewColorDTO(st.ManualColor),
		Preview:      light.Composite(st.Output),
	}
}

// PresetsDTO is the flat preset form used by dashboard clients.
type PresetsDTO struct {
	MorningR  int `json:"morning_r"`
	MorningG  int `json:"morning_g"`
	MorningB  int `json:"morning_b"`
	MorningWW int `json:"morning_ww"`
	MorningCW int `json:"morning_cw"`
	NoonR     int `json:"noon_r"`
	NoonG     int `json:"noon_g"`
	NoonB     int `json:"noon_b"`
	NoonWW    int `json:"noon_ww"`
	NoonCW    int `json:"noon_cw"`
	EveningR  int `json:"evening_r"`
	EveningG  int `json:"evening_g"`
	EveningB  int `json:"evening_b"`
	EveningWW int `json:"evening_ww"`
	EveningCW int `json:"evening_cw"`
}

func NewPresetsDTO(p models.Presets) PresetsDTO {
	return PresetsDTO{
		MorningR: p.Morning.R, MorningG: p.Morning.G, MorningB: p.Morning.B, MorningWW: p.Morning.WW, MorningCW: p.Morning.CW,
		NoonR: p.Noon.R, NoonG: p.Noon.G, NoonB: p.Noon.B, NoonWW: p.Noon.WW, NoonCW: p.Noon.CW,
		EveningR: p.Evening.R, EveningG: p.Evening.G, EveningB: p.Evening.B, EveningWW: p.Evening.WW, EveningCW: p.Evening.CW,
	}
}

func (d PresetsDTO) Model() models.Presets {
	return models.Presets{
		Morning: models.RGBWW{R: d.MorningR, G: d.MorningG, B: d.MorningB, WW: d.MorningWW, CW: d.MorningCW},
		Noon:    models.RGBWW{R: d.NoonR, G: d.NoonG, B: d.NoonB, WW: d.NoonWW, CW: d.NoonCW},
		Evening: models.RGBWW{R: d.EveningR, G: d.EveningG, B: d.EveningB, WW: d.EveningWW, CW: d.EveningCW},
	}
}

// CurrentValues is the flat dashboard view of the latest reading and actuator states.
type CurrentValues struct {
	Timestamp    time.Time `json:"timestamp"`
	BaskingTemp  float64   `json:"baskingTemp"`
	ControlTemp  float64   `json:"controlTemp"`
	CoolZoneTemp float64   `json:"coolZoneTemp"`
	Humidity     float64   `json:"humidity"`
	UV1          float64   `json:"uv1"`
	UV2          float64   `json:"uv2"`
	UV1On        bool      `json:"uv1_on"`
	UV2On        bool      `json:"uv2_on"`
	HeatOn       bool      `json:"heat_on"`
	LEDOn        bool      `json:"led_on"`
	Overheat     bool      `json:"overheat"`
	SensorFault  bool      `json:"sensor_fault"`
}

func NewCurrentValues(st control.Status) CurrentValues {
	v := CurrentValues{
		Timestamp:   st.UpdatedAt.UTC(),
		UV1On:       st.Relays.UV1,
		UV2On:       st.Relays.UV2,
		HeatOn:      st.Relays.Heat,
		LEDOn:       st.LED.Power,
		Overheat:    st.Overheat.Tripped,
		SensorFault: st.SensorFault,
	}
	if r := st.Reading; r != nil {
		v.BaskingTemp = r.BaskingTempC
		v.ControlTemp = r.Basking2TempC
		v.CoolZoneTemp = r.CoolZoneTempC
		v.Humidity = r.HumidityPct
		v.UV1 = r.UV1
		v.UV2 = r.UV2
	}
	return v
}
