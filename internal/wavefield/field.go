// Package wavefield evaluates the analytic standing-wave interference
// pattern that drives particle motion.
//
// The field is a superposition of radial and angular sinusoidal modes whose
// node counts grow with the input frequency, modulated by time phases and
// attenuated by decreasing-weight overtones. It is pure and allocation free:
// the particle pass calls it five times per particle per tick.
package wavefield

import "math"

const (
	MinFrequency = 20.0
	MaxFrequency = 2000.0

	// Epsilon is the default central-difference step in world units.
	Epsilon = 2.0
)

// Phase speeds of each term.
const (
	radialSpeed    = 2.0
	angularSpeed   = 1.5
	overtone2Speed = 1.3
	overtone3Speed = 2.2
	overtone4Speed = 0.9
	overtone5Speed = 1.7
	spiralSpeed    = 0.8
)

// Relative weights of the overtone and spiral terms.
const (
	overtone2Weight = 0.25
	overtone3Weight = 0.2
	overtone4Weight = 0.15
	overtone5Weight = 0.1
	spiralWeight    = 0.1
)

// Field is the geometry the pattern is evaluated against.
type Field struct {
	CenterX, CenterY float64
	MaxRadius        float64 // Working radius; no influence beyond it
	Epsilon          float64 // Gradient step
}

// New returns a field centred on a width x height surface with
// MaxRadius = min(width, height).
func New(width, height int) Field {
	w, h := float64(width), float64(height)
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Field{
		CenterX:   w / 2,
		CenterY:   h / 2,
		MaxRadius: math.Min(w, h),
		Epsilon:   Epsilon,
	}
}

// NodeCounts maps a frequency to the radial and angular node counts.
// Frequencies are clamped to [MinFrequency, MaxFrequency].
func NodeCounts(frequency float64) (radial, angular float64) {
	if math.IsNaN(frequency) {
		frequency = MinFrequency
	}
	f := math.Max(MinFrequency, math.Min(frequency, MaxFrequency))
	norm := (f - MinFrequency) / (MaxFrequency - MinFrequency)
	return 2 + 15*norm, 3 + 12*norm
}

// Displacement returns the absolute field value at (x, y) scaled by
// amplitude, in [0, 1]. Points beyond MaxRadius have zero displacement.
func (f Field) Displacement(x, y, frequency, amplitude, time float64) float64 {
	if !(amplitude > 0) || f.MaxRadius <= 0 {
		return 0
	}
	if amplitude > 1 {
		amplitude = 1
	}

	dx := x - f.CenterX
	dy := y - f.CenterY
	distance := math.Sqrt(dx*dx + dy*dy)
	if !(distance <= f.MaxRadius) {
		// Also catches NaN coordinates
		return 0
	}
	angle := math.Atan2(dy, dx)
	if math.IsInf(time, 0) || math.IsNaN(time) {
		time = 0
	}

	radialNodes, angularNodes := NodeCounts(frequency)
	r := radialNodes * (distance / f.MaxRadius) * math.Pi

	radialWave := math.Sin(r + time*radialSpeed)
	angularWave := math.Sin(angularNodes*angle + time*angularSpeed)

	sum := (radialWave + angularWave) / 2
	sum += math.Sin(r*1.5+time*overtone2Speed) * overtone2Weight
	sum += math.Sin(r*0.7+time*overtone3Speed) * overtone3Weight
	sum += math.Sin(angularNodes*2*angle+time*overtone4Speed) * overtone4Weight
	sum += math.Sin(r*2.3+time*overtone5Speed) * overtone5Weight
	sum += math.Sin(angularNodes*angle+r+time*spiralSpeed) * spiralWeight

	d := math.Abs(sum) * amplitude
	if d > 1 {
		return 1
	}
	return d
}

// Gradient returns the central-difference gradient of Displacement at (x, y).
func (f Field) Gradient(x, y, frequency, amplitude, time float64) (gx, gy float64) {
	eps := f.Epsilon
	if !(eps > 0) {
		eps = Epsilon
	}
	xp := f.Displacement(x+eps, y, frequency, amplitude, time)
	xm := f.Displacement(x-eps, y, frequency, amplitude, time)
	yp := f.Displacement(x, y+eps, frequency, amplitude, time)
	ym := f.Displacement(x, y-eps, frequency, amplitude, time)
	return (xp - xm) / (2 * eps), (yp - ym) / (2 * eps)
}
