package spectrum

import (
	"math"
	"testing"

	"github.com/faiface/beep"
)

func TestAnalyzeSingleSpike(t *testing.T) {
	freq := make([]uint8, 1024)
	freq[100] = 255

	r := Analyze(freq, nil, 44100)
	want := 100 * 22050.0 / 1024
	if math.Abs(r.DominantFrequency-want) > 1e-9 {
		t.Errorf("expected dominant frequency %f, got %f", want, r.DominantFrequency)
	}
	if math.Abs(r.DominantFrequency-2153.3) > 0.05 {
		t.Errorf("expected ~2153.3 Hz, got %f", r.DominantFrequency)
	}
	wantLoud := 255.0 / 1024 / 255
	if math.Abs(r.Loudness-wantLoud) > 1e-12 {
		t.Errorf("expected loudness %f, got %f", wantLoud, r.Loudness)
	}
}

func TestAnalyzeDegenerate(t *testing.T) {
	testCases := []struct {
		name       string
		freq       []uint8
		sampleRate float64
	}{
		{"nil bins", nil, 44100},
		{"empty bins", []uint8{}, 44100},
		{"zero rate", []uint8{1, 2, 3}, 0},
		{"negative rate", []uint8{1, 2, 3}, -48000},
		{"nan rate", []uint8{1, 2, 3}, math.NaN()},
		{"inf rate", []uint8{1, 2, 3}, math.Inf(1)},
	}
	for _, tc := range testCases {
		if r := Analyze(tc.freq, []uint8{255, 0}, tc.sampleRate); r != (Reading{}) {
			t.Errorf("%s: expected zero reading, got %+v", tc.name, r)
		}
	}
}

func TestAnalyzeFirstMaximumWins(t *testing.T) {
	freq := []uint8{0, 10, 200, 200, 5}
	r := Analyze(freq, nil, 1000)
	// index 2 of 5 bins at nyquist 500
	if r.DominantFrequency != 200 {
		t.Errorf("expected 200 Hz, got %f", r.DominantFrequency)
	}
}

func TestAnalyzeSilence(t *testing.T) {
	freq := make([]uint8, 256)
	td := make([]uint8, 512)
	for i := range td {
		td[i] = 128
	}
	r := Analyze(freq, td, 48000)
	if r.DominantFrequency != 0 || r.Loudness != 0 {
		t.Errorf("expected zero reading for silence, got %+v", r)
	}
}

func TestAnalyzeTimeDomainBoost(t *testing.T) {
	freq := make([]uint8, 64)
	for i := range freq {
		freq[i] = 51 // mean 0.2
	}
	// Square wave at +-32 around the midpoint: deviation 0.25, boosted 0.375
	td := make([]uint8, 128)
	for i := range td {
		if i%2 == 0 {
			td[i] = 160
		} else {
			td[i] = 96
		}
	}

	r := Analyze(freq, td, 44100)
	if math.Abs(r.Loudness-0.375) > 1e-12 {
		t.Errorf("expected boosted loudness 0.375, got %f", r.Loudness)
	}

	// Frequency loudness wins when larger
	for i := range td {
		td[i] = 130
	}
	r = Analyze(freq, td, 44100)
	if math.Abs(r.Loudness-0.2) > 1e-12 {
		t.Errorf("expected loudness 0.2, got %f", r.Loudness)
	}
}

func TestAnalyzeLoudnessClamped(t *testing.T) {
	td := []uint8{255, 0, 255, 0}
	r := Analyze([]uint8{255}, td, 44100)
	if r.Loudness != 1 {
		t.Errorf("expected loudness clamped to 1, got %f", r.Loudness)
	}
}

type fakeSource struct {
	rate  float64
	freq  []uint8
	td    []uint8
	ready bool
}

func (f *fakeSource) SampleRate() float64 { return f.rate }

func (f *fakeSource) ByteFrequencyData(dst []uint8) int {
	if !f.ready {
		return 0
	}
	return copy(dst, f.freq)
}

func (f *fakeSource) ByteTimeDomainData(dst []uint8) int {
	if !f.ready {
		return 0
	}
	return copy(dst, f.td)
}

func TestSamplerReadsSource(t *testing.T) {
	src := &fakeSource{rate: 44100, freq: make([]uint8, 1024), ready: true}
	src.freq[100] = 255

	s := NewSampler(src, 1024)
	r := s.Sample()
	if math.Abs(r.DominantFrequency-2153.3203125) > 1e-9 {
		t.Errorf("expected 2153.32 Hz, got %f", r.DominantFrequency)
	}
}

func TestSamplerNotReady(t *testing.T) {
	src := &fakeSource{rate: 44100, freq: []uint8{255, 255}, ready: false}
	if r := NewSampler(src, 64).Sample(); r != (Reading{}) {
		t.Errorf("expected zero reading from unready source, got %+v", r)
	}

	var nilSampler *Sampler
	if r := nilSampler.Sample(); r != (Reading{}) {
		t.Errorf("expected zero reading from nil sampler, got %+v", r)
	}
	if r := NewSampler(nil, 64).Sample(); r != (Reading{}) {
		t.Errorf("expected zero reading from nil source, got %+v", r)
	}
}

func counterStreamer(next *float64) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{*next, -*next}
			*next++
		}
		return len(samples), true
	})
}

func TestTapRecordsMostRecent(t *testing.T) {
	var next float64
	tap := NewTap(counterStreamer(&next), 8)

	buf := make([][2]float64, 5)
	if n, ok := tap.Stream(buf); n != 5 || !ok {
		t.Fatalf("expected 5 samples streamed, got %d %v", n, ok)
	}
	buf = make([][2]float64, 6)
	tap.Stream(buf) // 11 written, ring of 8 holds 3..10

	if tap.Written() != 11 {
		t.Errorf("expected 11 written, got %d", tap.Written())
	}

	snap := tap.Snapshot(make([][2]float64, 4))
	want := []float64{7, 8, 9, 10}
	for i, s := range snap {
		if s[0] != want[i] || s[1] != -want[i] {
			t.Errorf("snapshot[%d] = %v, want %v", i, s, want[i])
		}
	}

	// Asking for more than the ring holds returns the whole ring
	snap = tap.Snapshot(make([][2]float64, 20))
	if len(snap) != 8 {
		t.Fatalf("expected 8 samples, got %d", len(snap))
	}
	if snap[0][0] != 3 || snap[7][0] != 10 {
		t.Errorf("expected ring 3..10, got %v..%v", snap[0][0], snap[7][0])
	}
	if tap.Err() != nil {
		t.Errorf("unexpected error: %v", tap.Err())
	}
}

func sineTap(freq, amp, rate float64, n int) *Tap {
	tap := NewTap(nil, n)
	samples := make([][2]float64, n)
	for i := range samples {
		v := amp * math.Sin(2*math.Pi*freq*float64(i)/rate)
		samples[i] = [2]float64{v, v}
	}
	tap.Record(samples)
	return tap
}

func TestAnalyserFindsTone(t *testing.T) {
	tap := sineTap(1000, 0.01, 44100, 4096)
	a := NewAnalyser(tap, 44100, DefaultAnalyserOptions())
	if a.BinCount() != 1024 {
		t.Fatalf("expected 1024 bins, got %d", a.BinCount())
	}

	s := NewSampler(a, a.BinCount())
	var r Reading
	for i := 0; i < 5; i++ {
		r = s.Sample()
	}
	if math.Abs(r.DominantFrequency-1000) > 25 {
		t.Errorf("expected dominant frequency near 1000 Hz, got %f", r.DominantFrequency)
	}
	if r.Loudness <= 0 {
		t.Errorf("expected positive loudness, got %f", r.Loudness)
	}
}

func TestAnalyserTimeDomain(t *testing.T) {
	tap := NewTap(nil, 16)
	tap.Record([][2]float64{{1, 1}, {-1, -1}, {0, 0}, {0.5, -0.5}, {2, 2}})

	a := NewAnalyser(tap, 44100, AnalyserOptions{FFTSize: 16, Smoothing: 0.8, MinDecibels: -100, MaxDecibels: -30})
	dst := make([]uint8, 5)
	if n := a.ByteTimeDomainData(dst); n != 5 {
		t.Fatalf("expected 5 values, got %d", n)
	}
	want := []uint8{255, 0, 128, 128, 255}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("time domain[%d] = %d, want %d", i, dst[i], want[i])
		}
	}
}

func TestAnalyserSilenceIsQuiet(t *testing.T) {
	tap := NewTap(nil, 2048)
	a := NewAnalyser(tap, 44100, DefaultAnalyserOptions())
	r := NewSampler(a, a.BinCount()).Sample()
	if r.Loudness != 0 {
		t.Errorf("expected silent loudness 0, got %f", r.Loudness)
	}
}

func TestAnalyserInvalidOptionsFallBack(t *testing.T) {
	a := NewAnalyser(NewTap(nil, 8), 44100, AnalyserOptions{FFTSize: 1000, MinDecibels: 0, MaxDecibels: -10})
	if a.BinCount() != 1024 {
		t.Errorf("expected default 1024 bins for invalid fft size, got %d", a.BinCount())
	}
}

func TestPeriodicBlackman(t *testing.T) {
	w := periodicBlackman(2048)
	if len(w) != 2048 {
		t.Fatalf("expected 2048 coefficients, got %d", len(w))
	}
	if math.Abs(w[0]) > 1e-12 {
		t.Errorf("expected 0 at the start, got %g", w[0])
	}
	if math.Abs(w[1024]-1) > 1e-12 {
		t.Errorf("expected peak 1 at n/2, got %g", w[1024])
	}
	// Periodic: w[k] == w[n-k], so the last sample is not zero
	for k := 1; k < 1024; k++ {
		if math.Abs(w[k]-w[2048-k]) > 1e-12 {
			t.Fatalf("coefficient %d not mirrored: %g vs %g", k, w[k], w[2048-k])
		}
	}
	if w[2047] <= 0 {
		t.Errorf("expected positive last coefficient, got %g", w[2047])
	}
}
