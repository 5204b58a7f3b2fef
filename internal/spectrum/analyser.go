package spectrum

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Recorder supplies the most recent stereo samples in chronological order.
type Recorder interface {
	Snapshot(dst [][2]float64) [][2]float64
}

// AnalyserOptions configures an Analyser.
type AnalyserOptions struct {
	FFTSize     int     // Power of two; BinCount = FFTSize/2
	Smoothing   float64 // Blend of the previous magnitude into the new one
	MinDecibels float64 // Maps to byte 0
	MaxDecibels float64 // Maps to byte 255
}

// DefaultAnalyserOptions matches a browser analyser node: 2048-point FFT,
// 0.8 smoothing, -100..-30 dB.
func DefaultAnalyserOptions() AnalyserOptions {
	return AnalyserOptions{
		FFTSize:     2048,
		Smoothing:   0.8,
		MinDecibels: -100,
		MaxDecibels: -30,
	}
}

// Analyser turns recorded samples into byte spectrum and waveform data.
// It implements Source.
type Analyser struct {
	rec        Recorder
	sampleRate float64
	opts       AnalyserOptions

	mu       sync.Mutex
	window   []float64
	stereo   [][2]float64
	mono     []float64
	smoothed []float64
}

// NewAnalyser creates an analyser over rec sampled at sampleRate Hz.
func NewAnalyser(rec Recorder, sampleRate float64, opts AnalyserOptions) *Analyser {
	if opts.FFTSize < 2 || opts.FFTSize&(opts.FFTSize-1) != 0 {
		opts.FFTSize = DefaultAnalyserOptions().FFTSize
	}
	if opts.MaxDecibels <= opts.MinDecibels {
		opts.MinDecibels, opts.MaxDecibels = DefaultAnalyserOptions().MinDecibels, DefaultAnalyserOptions().MaxDecibels
	}
	opts.Smoothing = math.Max(0, math.Min(opts.Smoothing, 0.999))

	n := opts.FFTSize
	return &Analyser{
		rec:        rec,
		sampleRate: sampleRate,
		opts:       opts,
		window:     periodicBlackman(n),
		stereo:     make([][2]float64, n),
		mono:       make([]float64, n),
		smoothed:   make([]float64, n/2),
	}
}

// SampleRate implements Source.
func (a *Analyser) SampleRate() float64 { return a.sampleRate }

// BinCount returns the number of frequency bins.
func (a *Analyser) BinCount() int { return a.opts.FFTSize / 2 }

// ByteFrequencyData implements Source. Each call advances the temporal
// smoothing by one block.
func (a *Analyser) ByteFrequencyData(dst []uint8) int {
	if a == nil || a.rec == nil || len(dst) == 0 {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.loadMono()
	windowed := a.mono
	for i := range windowed {
		windowed[i] *= a.window[i]
	}
	spectrum := fft.FFTReal(windowed)

	n := float64(a.opts.FFTSize)
	tau := a.opts.Smoothing
	scale := 255 / (a.opts.MaxDecibels - a.opts.MinDecibels)

	count := min(len(dst), len(a.smoothed))
	for k := range a.smoothed {
		mag := cmplx.Abs(spectrum[k]) / n
		a.smoothed[k] = tau*a.smoothed[k] + (1-tau)*mag
		if k >= count {
			continue
		}
		db := a.opts.MinDecibels
		if a.smoothed[k] > 0 {
			db = 20 * math.Log10(a.smoothed[k])
		}
		dst[k] = toByte((db - a.opts.MinDecibels) * scale)
	}
	return count
}

// ByteTimeDomainData implements Source with the most recent samples mapped
// to 0..255 around 128.
func (a *Analyser) ByteTimeDomainData(dst []uint8) int {
	if a == nil || a.rec == nil || len(dst) == 0 {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.loadMono()
	count := min(len(dst), len(a.mono))
	offset := len(a.mono) - count
	for i := 0; i < count; i++ {
		dst[i] = toByte(128 * (1 + a.mono[offset+i]))
	}
	return count
}

func (a *Analyser) loadMono() {
	samples := a.rec.Snapshot(a.stereo)
	clear(a.mono)
	// Right-align so the newest sample is last
	offset := len(a.mono) - len(samples)
	for i, s := range samples {
		a.mono[offset+i] = (s[0] + s[1]) * 0.5
	}
}

func toByte(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// periodicBlackman is the n-point window a browser analyser applies: the
// symmetric n+1 point window without its last sample.
func periodicBlackman(n int) []float64 {
	return window.Blackman(n + 1)[:n]
}
