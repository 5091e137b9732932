package light

import (
	"math"

	"terrarium_control/internal/models"
)

// Swatch is an RGB approximation of an RGBWW colour, for previews only.
type Swatch struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Composite folds the white channels into RGB so a single swatch can show the colour.
// It is never sent to the strip.
func Composite(c models.RGBWW) Swatch {
	return Swatch{
		R: capChannel(float64(c.R) + float64(c.WW)*0.8),
		G: capChannel(float64(c.G) + float64(c.WW)*0.6 + float64(c.CW)*0.5),
		B: capChannel(float64(c.B) + float64(c.CW)*0.9),
	}
}

func capChannel(v float64) int {
	return int(math.Min(models.ChannelMax, math.Round(v)))
}
