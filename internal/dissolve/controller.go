// Package dissolve smooths the transition between sound and silence.
//
// Visibility ramps up quickly when sound arrives and fades slowly when it
// stops, so the pattern dissolves instead of being cut.
package dissolve

import "math"

// snap absorbs float accumulation error at the ends of the ramp.
const snap = 1e-9

// Params holds the ramp constants.
type Params struct {
	Threshold float64 // Minimum loudness counted as sound
	Attack    float64 // Alpha gained per update with sound
	Release   float64 // Alpha lost per update in silence
	Gain      float64 // Intensity = min(amplitude*Gain, 1)
}

// DefaultParams returns the standard fast-attack, slow-release ramp.
func DefaultParams() Params {
	return Params{
		Threshold: 0.02,
		Attack:    0.08,
		Release:   0.004,
		Gain:      4,
	}
}

// Controller holds the dissolve state. The zero value is not usable; use New.
type Controller struct {
	params        Params
	alpha         float64
	lastAmplitude float64
}

// New creates a controller starting fully dissolved.
func New(p Params) *Controller {
	return &Controller{params: p}
}

// Alpha returns the current visibility multiplier in [0, 1].
func (c *Controller) Alpha() float64 { return c.alpha }

// LastAmplitude returns the loudness remembered from the last tick with sound.
func (c *Controller) LastAmplitude() float64 { return c.lastAmplitude }

// Update advances the ramp by one tick and returns the effective intensity
// and whether the loudness counted as sound.
func (c *Controller) Update(rawLoudness float64) (intensity float64, hasSound bool) {
	loudness := clamp01(rawLoudness)
	hasSound = loudness >= c.params.Threshold

	var amplitude float64
	if hasSound {
		c.alpha = math.Min(c.alpha+c.params.Attack, 1)
		if c.alpha > 1-snap {
			c.alpha = 1
		}
		c.lastAmplitude = loudness
		amplitude = loudness
	} else {
		c.alpha = math.Max(c.alpha-c.params.Release, 0)
		if c.alpha < snap {
			c.alpha = 0
		}
		amplitude = c.lastAmplitude * c.alpha
	}

	return clamp01(amplitude * c.params.Gain), hasSound
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		// Negative and NaN
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
