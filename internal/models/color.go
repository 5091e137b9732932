package models

import "fmt"

// Channel bounds for every RGBWW channel.
const (
	ChannelMin = 0
	ChannelMax = 255
)

// RGBWW is a five channel LED colour: red, green, blue, warm white, cool white.
type RGBWW struct {
	R  int `json:"r"`
	G  int `json:"g"`
	B  int `json:"b"`
	WW int `json:"ww"`
	CW int `json:"cw"`
}

// Off is the all-zero colour.
var Off = RGBWW{}

// Channels returns the five channels in R, G, B, WW, CW order.
func (c RGBWW) Channels() [5]int {
	return [5]int{c.R, c.G, c.B, c.WW, c.CW}
}

// FromChannels is the inverse of Channels.
func FromChannels(ch [5]int) RGBWW {
	return RGBWW{R: ch[0], G: ch[1], B: ch[2], WW: ch[3], CW: ch[4]}
}

// Validate checks every channel is within [0,255]. prefix names the field in the error.
func (c RGBWW) Validate(prefix string) error {
	names := [5]string{"r", "g", "b", "ww", "cw"}
	for i, v := range c.Channels() {
		if v < ChannelMin || v > ChannelMax {
			return Invalid(prefix+"."+names[i], "channel value %d outside [%d,%d]", v, ChannelMin, ChannelMax)
		}
	}
	return nil
}

func (c RGBWW) String() string {
	return fmt.Sprintf("%d,%d,%d,%d,%d", c.R, c.G, c.B, c.WW, c.CW)
}

// Presets are the extreme points of the daily light curve.
type Presets struct {
	Morning RGBWW `json:"morning"`
	Noon    RGBWW `json:"noon"`
	Evening RGBWW `json:"evening"`
}

// Validate checks all three presets.
func (p Presets) Validate() error {
	if err := p.Morning.Validate("morning"); err != nil {
		return err
	}
	if err := p.Noon.Validate("noon"); err != nil {
		return err
	}
	return p.Evening.Validate("evening")
}
