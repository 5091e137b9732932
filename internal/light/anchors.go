package light

import (
	"sync"
	"time"

	"github.com/sixdouglas/suncalc"
)

// AnchorSource yields the anchor hours for a given moment.
type AnchorSource interface {
	Anchors(t time.Time) Anchors
}

// Fixed always returns the same anchors.
type Fixed Anchors

// Anchors implements AnchorSource.
func (f Fixed) Anchors(time.Time) Anchors { return Anchors(f) }

// Solar derives anchors from sunrise, solar noon and sunset at a location. Days where the sun
// does not rise or set (polar regions) fall back to the configured anchors.
type Solar struct {
	Latitude  float64
	Longitude float64
	Fallback  Anchors

	mu     sync.Mutex
	day    string
	cached Anchors
}

// NewSolar builds a Solar source.
func NewSolar(lat, lon float64, fallback Anchors) *Solar {
	return &Solar{Latitude: lat, Longitude: lon, Fallback: fallback}
}

// Anchors implements AnchorSource. Results are cached per calendar day.
func (s *Solar) Anchors(t time.Time) Anchors {
	key := t.Format("2006-01-02")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.day == key {
		return s.cached
	}
	s.day = key
	s.cached = SolarAnchors(t, s.Latitude, s.Longitude, s.Fallback)
	return s.cached
}

// SolarAnchors computes anchors for the day containing t, expressed in t's location.
func SolarAnchors(t time.Time, lat, lon float64, fallback Anchors) Anchors {
	midday := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, t.Location())
	times := suncalc.GetTimes(midday, lat, lon)

	rise, okRise := times[suncalc.Sunrise]
	noon, okNoon := times[suncalc.SolarNoon]
	set, okSet := times[suncalc.Sunset]
	if !okRise || !okNoon || !okSet || rise.Value.IsZero() || set.Value.IsZero() {
		return fallback
	}
	if !rise.Value.Before(noon.Value) || !noon.Value.Before(set.Value) || set.Value.Sub(rise.Value) >= 24*time.Hour {
		return fallback
	}

	a := Anchors{
		Morning: hourIn(rise.Value, t.Location()),
		Noon:    hourIn(noon.Value, t.Location()),
		Evening: hourIn(set.Value, t.Location()),
	}
	if a.Validate() != nil {
		return fallback
	}
	return a
}

func hourIn(v time.Time, loc *time.Location) float64 {
	l := v.In(loc)
	return HourOfDay(l.Hour(), l.Minute(), l.Second())
}
