// Package frame runs one simulation tick at a time: sample the attached
// audio source, update the dissolve ramp, step the particles and collect
// the draw commands for the sink.
//
// A Driver has a single writer, the tick loop. AttachSource and
// DetachSource are the exception: they swap the sampler atomically and may
// be called from any goroutine, taking effect at the next tick.
package frame

import (
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/iburimskiy/cymatics/internal/dissolve"
	"github.com/iburimskiy/cymatics/internal/draw"
	"github.com/iburimskiy/cymatics/internal/particles"
	"github.com/iburimskiy/cymatics/internal/spectrum"
	"github.com/iburimskiy/cymatics/internal/telemetry"
)

// TimeStep is the default clock increment per tick.
const TimeStep = 0.02

// Mode is the external state of the driver.
type Mode int

const (
	ModeIdle   Mode = iota // No source attached: pulsing glow only
	ModeActive             // Source attached: particle pass
)

func (m Mode) String() string {
	if m == ModeActive {
		return "active"
	}
	return "idle"
}

// Options configures a Driver.
type Options struct {
	Width, Height int
	TimeStep      float64
	Bins          int // Spectrum bins read per tick
	Particles     particles.Params
	Dissolve      dissolve.Params
	GlowRadius    float64 // Fraction of min(width, height)
	GlowAlpha     float64
	Rand          *rand.Rand
}

// DefaultOptions returns options for an 800x600 surface.
func DefaultOptions() Options {
	return Options{
		Width:      800,
		Height:     600,
		TimeStep:   TimeStep,
		Bins:       1024,
		Particles:  particles.DefaultParams(),
		Dissolve:   dissolve.DefaultParams(),
		GlowRadius: 0.06,
		GlowAlpha:  0.35,
	}
}

// Driver owns the clock and everything mutated per tick.
type Driver struct {
	opts     Options
	sampler  atomic.Pointer[spectrum.Sampler]
	dissolve *dissolve.Controller
	system   *particles.System
	list     *draw.List

	time    float64
	tick    int64
	mode    Mode
	stats   telemetry.FrameStats
	opacity []float64
}

// New creates an idle driver with a particle set sized to the surface.
func New(opts Options) (*Driver, error) {
	if opts.TimeStep <= 0 {
		opts.TimeStep = TimeStep
	}
	if opts.Bins <= 0 {
		opts.Bins = 1024
	}
	if opts.Particles == (particles.Params{}) {
		opts.Particles = particles.DefaultParams()
	}
	if opts.Dissolve == (dissolve.Params{}) {
		opts.Dissolve = dissolve.DefaultParams()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	d := &Driver{
		opts:     opts,
		dissolve: dissolve.New(opts.Dissolve),
		system:   particles.New(opts.Particles, rng),
		list:     draw.NewList(opts.Particles.Count + 16),
	}
	if err := d.system.Resize(opts.Width, opts.Height); err != nil {
		return nil, fmt.Errorf("creating particle set: %w", err)
	}
	return d, nil
}

// AttachSource starts reading src on the next tick. A nil src detaches.
func (d *Driver) AttachSource(src spectrum.Source) {
	if src == nil {
		d.DetachSource()
		return
	}
	d.sampler.Store(spectrum.NewSampler(src, d.opts.Bins))
}

// DetachSource drops back to idle on the next tick. Safe to call at any
// time; particle and dissolve state are left intact.
func (d *Driver) DetachSource() {
	d.sampler.Store(nil)
}

// Resize adopts new surface dimensions, resetting the particle set when
// they change. Call between ticks.
func (d *Driver) Resize(width, height int) error {
	return d.system.Resize(width, height)
}

// ConfigureParticleCount changes the particle count and resets the set.
func (d *Driver) ConfigureParticleCount(n int) error {
	return d.system.SetCount(n)
}

// SetTime sets the simulation clock.
func (d *Driver) SetTime(t float64) { d.time = t }

// AdvanceTime moves the simulation clock by dt.
func (d *Driver) AdvanceTime(dt float64) { d.time += dt }

// Time returns the simulation clock.
func (d *Driver) Time() float64 { return d.time }

// Mode returns the mode of the last tick.
func (d *Driver) Mode() Mode { return d.mode }

// Dissolve returns the dissolve controller.
func (d *Driver) Dissolve() *dissolve.Controller { return d.dissolve }

// System returns the particle system.
func (d *Driver) System() *particles.System { return d.system }

// Stats returns the summary of the last tick.
func (d *Driver) Stats() telemetry.FrameStats { return d.stats }

// Tick advances the clock and produces this tick's draw commands, starting
// with a clear. The returned slice is valid until the next Tick.
func (d *Driver) Tick() []draw.Command {
	d.list.Reset()
	d.list.Clear()
	d.time += d.opts.TimeStep
	d.tick++

	sampler := d.sampler.Load()
	if sampler == nil {
		d.mode = ModeIdle
		d.idleGlow()
		d.stats = telemetry.FrameStats{
			Tick:          d.tick,
			Time:          d.time,
			Mode:          d.mode.String(),
			DissolveAlpha: d.dissolve.Alpha(),
			Particles:     len(d.system.Particles()),
			Commands:      d.list.Len(),
		}
		return d.list.Commands()
	}

	d.mode = ModeActive
	reading := sampler.Sample()
	intensity, hasSound := d.dissolve.Update(reading.Loudness)

	freq := reading.DominantFrequency
	if !(freq > 0) {
		freq = particles.IdleFrequency
	}

	d.system.Step(particles.Frame{
		Frequency:     freq,
		Intensity:     intensity,
		DissolveAlpha: d.dissolve.Alpha(),
		HasSound:      hasSound,
		Time:          d.time,
	})
	drawn := d.system.Emit(d.list)

	d.stats = telemetry.FrameStats{
		Tick:          d.tick,
		Time:          d.time,
		Mode:          d.mode.String(),
		Frequency:     freq,
		Loudness:      reading.Loudness,
		Intensity:     intensity,
		HasSound:      hasSound,
		DissolveAlpha: d.dissolve.Alpha(),
		Boundary:      d.system.Boundary(),
		Particles:     len(d.system.Particles()),
		Drawn:         drawn,
		Commands:      d.list.Len(),
	}
	return d.list.Commands()
}

// CollectOpacity fills the opacity fields of the last tick's stats. It
// walks every particle, so callers sample it rather than run it per tick.
func (d *Driver) CollectOpacity() telemetry.FrameStats {
	ps := d.system.Particles()
	d.opacity = d.opacity[:0]
	for i := range ps {
		d.opacity = append(d.opacity, ps[i].Opacity)
	}
	d.stats.OpacityMean, d.stats.OpacityStd = telemetry.OpacityStats(d.opacity)
	return d.stats
}

// idleGlow draws the pulsing glow at the field center.
func (d *Driver) idleGlow() {
	f := d.system.Field()
	base := f.MaxRadius * d.opts.GlowRadius
	radius := base * (1 + 0.25*math.Sin(d.time*3))
	alpha := d.opts.GlowAlpha * (0.7 + 0.3*math.Sin(d.time*2))
	d.list.Glow(f.CenterX, f.CenterY, math.Max(0, radius), math.Max(0, math.Min(alpha, 1)))
}
