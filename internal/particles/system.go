// Package particles moves a field of sand grains toward the nodal lines of
// the wave field.
//
// Every particle is updated independently: the displacement gradient is a
// steering force, velocity is damped and capped, position is reflected back
// inside a working radius that grows with loudness, and size and opacity
// follow how close the grain sits to a node.
package particles

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/iburimskiy/cymatics/internal/draw"
	"github.com/iburimskiy/cymatics/internal/wavefield"
)

const (
	MinBaseSize = 0.5
	MaxBaseSize = 3.0

	// Reference tone shaping the faint pattern kept during silence.
	IdleFrequency = 440.0
	idleAmplitude = 0.3
	idleScale     = 0.3

	nodeThreshold  = 0.15
	opacityGamma   = 0.6
	fadeInRate     = 0.25
	fadeOutRate    = 0.15
	fadeInBelow    = 0.1
	reflectInset   = 0.98
	reflectBounce  = -0.3
	satelliteAlpha = 0.3

	// Below this many particles a single goroutine is faster.
	parallelThreshold = 2048
	// Particles per goroutine in the parallel pass.
	parallelChunk = 1024
)

var (
	ErrInvalidCount = errors.New("particles: count must be positive")
	ErrInvalidSize  = errors.New("particles: surface size must be positive")
)

// Params holds the integrator and appearance constants.
type Params struct {
	Count           int
	Workers         int
	Epsilon         float64 // Gradient step
	ForceScale      float64
	DampingSound    float64
	DampingSilence  float64
	SilenceForce    float64 // Force multiplier in silence
	ClusterFraction float64
	SatelliteChance float64
	VisibilityFloor float64
}

// DefaultParams returns the standard constants for a 12000 grain field.
func DefaultParams() Params {
	return Params{
		Count:           12000,
		Workers:         1,
		Epsilon:         wavefield.Epsilon,
		ForceScale:      0.3,
		DampingSound:    0.90,
		DampingSilence:  0.97,
		SilenceForce:    0.3,
		ClusterFraction: 0.3,
		SatelliteChance: 0.1,
		VisibilityFloor: 0.05,
	}
}

// Frame is the per-tick input of Step.
type Frame struct {
	Frequency     float64 // Hz
	Intensity     float64 // [0, 1]
	DissolveAlpha float64 // [0, 1]
	HasSound      bool
	Time          float64
}

// System owns the particle slice. It is not safe for concurrent use; Step
// parallelises internally.
type System struct {
	params    Params
	rng       *rand.Rand
	width     int
	height    int
	field     wavefield.Field
	particles []Particle
	frame     Frame
	boundary  float64
}

// New creates an empty system. Particles are created by the first Resize.
func New(p Params, rng *rand.Rand) *System {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if p.Count <= 0 {
		p.Count = DefaultParams().Count
	}
	return &System{params: p, rng: rng}
}

// Particles returns the current particles. The slice is owned by the system
// and valid until the next Step or reset.
func (s *System) Particles() []Particle { return s.particles }

// Count returns the configured particle count.
func (s *System) Count() int { return s.params.Count }

// Size returns the current surface dimensions.
func (s *System) Size() (width, height int) { return s.width, s.height }

// Field returns the wave field geometry for the current surface.
func (s *System) Field() wavefield.Field { return s.field }

// Boundary returns the working radius applied by the last Step.
func (s *System) Boundary() float64 { return s.boundary }

// Resize adopts new surface dimensions, recreating every particle when they
// differ from the current ones. Invalid dimensions leave the set untouched.
func (s *System) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidSize, width, height)
	}
	if width == s.width && height == s.height && len(s.particles) == s.params.Count {
		return nil
	}
	s.width, s.height = width, height
	s.field = wavefield.New(width, height)
	if s.params.Epsilon > 0 {
		s.field.Epsilon = s.params.Epsilon
	}
	s.Reset()
	return nil
}

// SetCount changes the particle count and recreates the set if a surface is
// known. A non-positive count is rejected without touching the set.
func (s *System) SetCount(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCount, n)
	}
	s.params.Count = n
	if s.width > 0 && s.height > 0 {
		s.Reset()
	}
	return nil
}

// Reset discards every particle and scatters a fresh set around the field
// center: uniform angle, radius uniform in [0, min(width, height)/2].
func (s *System) Reset() {
	spread := 0.5 * math.Min(float64(s.width), float64(s.height))
	cx, cy := s.field.CenterX, s.field.CenterY

	next := make([]Particle, s.params.Count)
	for i := range next {
		angle := s.rng.Float64() * 2 * math.Pi
		dist := s.rng.Float64() * spread
		base := MinBaseSize + s.rng.Float64()*(MaxBaseSize-MinBaseSize)
		next[i] = Particle{
			X:        cx + math.Cos(angle)*dist,
			Y:        cy + math.Sin(angle)*dist,
			BaseSize: base,
			Size:     base,
			Shape:    Shape(s.rng.Intn(int(shapeCount))),
			Clusters: s.rng.Float64() < s.params.ClusterFraction,
			Phase:    s.rng.Float64() * 2 * math.Pi,
		}
	}
	s.particles = next
	s.boundary = 0.4 * math.Min(float64(s.width), float64(s.height))
}

// Step advances every particle by one tick.
func (s *System) Step(f Frame) {
	f.Intensity = clamp01(f.Intensity)
	f.DissolveAlpha = clamp01(f.DissolveAlpha)
	if math.IsNaN(f.Frequency) || f.Frequency <= 0 {
		f.Frequency = IdleFrequency
	}
	s.frame = f
	s.boundary = math.Min(float64(s.width), float64(s.height)) * (0.4 + f.Intensity*0.6*f.DissolveAlpha)

	n := len(s.particles)
	workers := s.params.Workers
	if workers <= 1 || n < parallelThreshold {
		s.updateRange(0, n)
		return
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += parallelChunk {
		start, end := start, min(start+parallelChunk, n)
		g.Go(func() error {
			s.updateRange(start, end)
			return nil
		})
	}
	// Chunks cannot fail; Wait only joins them
	_ = g.Wait()
}

// updateRange only reads shared state and writes particles[start:end].
func (s *System) updateRange(start, end int) {
	for i := start; i < end; i++ {
		s.update(&s.particles[i])
	}
}

func (s *System) update(p *Particle) {
	f := s.frame
	field := s.field

	d := field.Displacement(p.X, p.Y, f.Frequency, f.Intensity, f.Time)
	nodeStrength := 1 - d
	gx, gy := field.Gradient(p.X, p.Y, f.Frequency, f.Intensity, f.Time)

	// Down the gradient: toward nodes, away from antinodes
	fx := -gx * s.params.ForceScale
	fy := -gy * s.params.ForceScale

	damping, soundFactor, maxVel := s.params.DampingSilence, s.params.SilenceForce, 1.0
	if f.HasSound {
		damping, soundFactor, maxVel = s.params.DampingSound, 1.0, 2+f.Intensity*1.5
	}
	p.VX = p.VX*damping + fx*soundFactor
	p.VY = p.VY*damping + fy*soundFactor

	if speed := math.Hypot(p.VX, p.VY); speed > maxVel {
		p.VX = p.VX / speed * maxVel
		p.VY = p.VY / speed * maxVel
	}

	p.X += p.VX
	p.Y += p.VY

	dx := p.X - field.CenterX
	dy := p.Y - field.CenterY
	dist := math.Hypot(dx, dy)
	switch {
	case math.IsNaN(dist) || math.IsInf(dist, 0):
		p.X, p.Y, p.VX, p.VY = field.CenterX, field.CenterY, 0, 0
	case dist > s.boundary:
		angle := math.Atan2(dy, dx)
		p.X = field.CenterX + math.Cos(angle)*s.boundary*reflectInset
		p.Y = field.CenterY + math.Sin(angle)*s.boundary*reflectInset
		p.VX *= reflectBounce
		p.VY *= reflectBounce
	}

	p.Size = math.Max(0, p.BaseSize*(0.7+nodeStrength*0.6+f.Intensity*0.3))

	if f.HasSound {
		p.TargetOpacity = nodeOpacity(nodeStrength, f.Intensity)
	} else {
		idle := 1 - field.Displacement(p.X, p.Y, IdleFrequency, idleAmplitude, f.Time)
		p.TargetOpacity = nodeOpacity(idle, idleAmplitude) * idleScale
	}

	k := fadeOutRate
	if p.Opacity < fadeInBelow {
		k = fadeInRate
	}
	p.Opacity = clamp01(p.Opacity*(1-k) + p.TargetOpacity*k)
}

// nodeOpacity maps node strength to a target opacity: invisible at
// antinodes, rising steeply near nodes.
func nodeOpacity(nodeStrength, intensity float64) float64 {
	if !(nodeStrength > nodeThreshold) {
		return 0
	}
	v := (nodeStrength - nodeThreshold) / (1 - nodeThreshold)
	return clamp01(math.Pow(v, opacityGamma) * intensity)
}

// Emit appends the draw commands of the last Step. Particles whose final
// opacity does not exceed the visibility floor are skipped. It returns the
// number of particles drawn.
func (s *System) Emit(list *draw.List) int {
	alpha := s.frame.DissolveAlpha
	rotation := s.frame.Time * 0.1
	drawn := 0

	for i := range s.particles {
		p := &s.particles[i]
		a := p.Opacity * alpha
		if a <= s.params.VisibilityFloor {
			continue
		}
		drawn++

		switch p.Shape {
		case ShapeSquare:
			list.Square(p.X, p.Y, p.Size, rotation+p.Phase, a)
		case ShapeDiamond:
			list.Diamond(p.X, p.Y, p.Size, a)
		default:
			list.Circle(p.X, p.Y, p.Size, a)
		}

		if p.Clusters && a > satelliteAlpha && s.rng.Float64() < s.params.SatelliteChance {
			ox := (s.rng.Float64() - 0.5) * p.Size * 4
			oy := (s.rng.Float64() - 0.5) * p.Size * 4
			list.Circle(p.X+ox, p.Y+oy, p.Size*0.4, a*0.6)
		}
	}
	return drawn
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
