// Package light computes the LED colour for the simulated natural day and season cycle.
package light

import (
	"fmt"
	"math"

	"terrarium_control/internal/models"
)

// Anchors are the hours of day (fractional, 0..24) that partition the daily light curve.
type Anchors struct {
	Morning float64 `json:"morning" mapstructure:"morning"`
	Noon    float64 `json:"noon" mapstructure:"noon"`
	Evening float64 `json:"evening" mapstructure:"evening"`
}

// DefaultAnchors are 07:00, 12:00 and 19:00.
var DefaultAnchors = Anchors{Morning: 7, Noon: 12, Evening: 19}

// Validate requires 0 <= morning < noon < evening <= 24.
func (a Anchors) Validate() error {
	if a.Morning < 0 || a.Evening > 24 || !(a.Morning < a.Noon && a.Noon < a.Evening) {
		return fmt.Errorf("anchors must satisfy 0 <= morning < noon < evening <= 24, got %.2f/%.2f/%.2f",
			a.Morning, a.Noon, a.Evening)
	}
	return nil
}

// Daily returns the unrounded daily-cycle colour for hour.
//
// Between morning and noon the colour moves from the morning to the noon preset, between noon and
// evening from noon to evening. Every other hour, including the early morning before the morning
// anchor, holds the evening preset.
func Daily(hour float64, p models.Presets, a Anchors) [5]float64 {
	switch {
	case hour >= a.Morning && hour < a.Noon:
		return lerp(p.Morning, p.Noon, (hour-a.Morning)/(a.Noon-a.Morning))
	case hour >= a.Noon && hour < a.Evening:
		return lerp(p.Noon, p.Evening, (hour-a.Noon)/(a.Evening-a.Noon))
	default:
		return toFloats(p.Evening)
	}
}

// Compute returns the RGBWW output for hour: the daily cycle blended with the weekly target by
// seasonWeight, each channel clamped to [0,255] and rounded to the nearest integer.
func Compute(hour float64, p models.Presets, seasonWeight float64, target models.RGBWW, a Anchors) models.RGBWW {
	w := clamp(seasonWeight, 0, 1)
	daily := Daily(hour, p, a)
	tc := target.Channels()

	var out [5]int
	for i := range out {
		// Rounded half away from zero, once, after blending and clamping.
		v := (1-w)*daily[i] + w*float64(tc[i])
		out[i] = int(math.Round(clamp(v, models.ChannelMin, models.ChannelMax)))
	}
	return models.FromChannels(out)
}

// HourOfDay converts a wall-clock time to a fractional hour.
func HourOfDay(h, m, s int) float64 {
	return float64(h) + float64(m)/60 + float64(s)/3600
}

func lerp(from, to models.RGBWW, factor float64) [5]float64 {
	f := clamp(factor, 0, 1)
	a, b := from.Channels(), to.Channels()
	var out [5]float64
	for i := range out {
		out[i] = float64(a[i])*(1-f) + float64(b[i])*f
	}
	return out
}

func toFloats(c models.RGBWW) [5]float64 {
	ch := c.Channels()
	return [5]float64{float64(ch[0]), float64(ch[1]), float64(ch[2]), float64(ch[3]), float64(ch[4])}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo || v != v {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
