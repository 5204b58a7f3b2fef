package player

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"

	"github.com/iburimskiy/cymatics/internal/spectrum"
)

func TestSupported(t *testing.T) {
	testCases := map[string]bool{
		"song.wav":       true,
		"song.MP3":       true,
		"dir/track.flac": true,
		"clip.ogg":       false,
		"noext":          false,
	}
	for path, want := range testCases {
		if got := Supported(path); got != want {
			t.Errorf("Supported(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestOpenUnsupported(t *testing.T) {
	_, _, _, err := openFile("clip.ogg")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestOpenMissing(t *testing.T) {
	_, _, _, err := openFile(filepath.Join(t.TempDir(), "missing.wav"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped not-exist error, got %v", err)
	}
}

func writeTone(t *testing.T, path string, rate beep.SampleRate, freq float64, seconds float64) beep.Format {
	t.Helper()
	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	var i int
	tone := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for k := range samples {
			v := 0.05 * math.Sin(2*math.Pi*freq*float64(i)/float64(format.SampleRate))
			samples[k] = [2]float64{v, v}
			i++
		}
		return len(samples), true
	})

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := wav.Encode(f, beep.Take(format.SampleRate.N(time.Duration(seconds*float64(time.Second))), tone), format); err != nil {
		t.Fatalf("encoding wav: %v", err)
	}
	return format
}

func TestOpenWavFeedsAnalyser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeTone(t, path, 44100, 880, 0.5)

	f, streamer, format, err := openFile(path)
	if err != nil {
		t.Fatalf("openFile: %v", err)
	}
	defer f.Close()
	defer streamer.Close()

	if format.SampleRate != 44100 {
		t.Errorf("expected 44100 Hz, got %d", format.SampleRate)
	}

	// Pull audio through the tap as the speaker would
	tap := spectrum.NewTap(streamer, 4096)
	buf := make([][2]float64, 512)
	for i := 0; i < 8; i++ {
		tap.Stream(buf)
	}

	a := spectrum.NewAnalyser(tap, float64(format.SampleRate), spectrum.DefaultAnalyserOptions())
	r := spectrum.NewSampler(a, a.BinCount()).Sample()
	if math.Abs(r.DominantFrequency-880) > 25 {
		t.Errorf("expected dominant frequency near 880 Hz, got %f", r.DominantFrequency)
	}
	if r.Loudness < 0.02 {
		t.Errorf("expected audible loudness, got %f", r.Loudness)
	}
}

func TestSourceGatedByState(t *testing.T) {
	p := New(spectrum.DefaultAnalyserOptions(), 0, nil)
	if p.Source() != nil {
		t.Fatal("expected nil source before load")
	}

	tap := spectrum.NewTap(nil, 2048)
	tap.Record([][2]float64{{0.5, 0.5}, {-0.5, -0.5}})
	src := &source{player: p, analyser: spectrum.NewAnalyser(tap, 44100, spectrum.DefaultAnalyserOptions())}

	dst := make([]uint8, 1024)
	if n := src.ByteFrequencyData(dst); n != 1024 {
		t.Errorf("expected 1024 bins while playing, got %d", n)
	}

	p.paused.Store(true)
	if n := src.ByteFrequencyData(dst); n != 0 {
		t.Errorf("expected no data while paused, got %d", n)
	}
	if n := src.ByteTimeDomainData(dst); n != 0 {
		t.Errorf("expected no waveform while paused, got %d", n)
	}

	p.paused.Store(false)
	p.ended.Store(true)
	if n := src.ByteFrequencyData(dst); n != 0 {
		t.Errorf("expected no data after end, got %d", n)
	}
	if src.SampleRate() != 44100 {
		t.Errorf("expected 44100, got %f", src.SampleRate())
	}
}

func TestIdlePlayerOperations(t *testing.T) {
	p := New(spectrum.DefaultAnalyserOptions(), 0, nil)
	if p.Loaded() {
		t.Error("fresh player should not be loaded")
	}
	if p.TogglePause() {
		t.Error("toggling without a stream should stay unpaused")
	}
	if err := p.Seek(0.5); err != nil {
		t.Errorf("seek without stream: %v", err)
	}
	if pos, dur := p.Progress(); pos != 0 || dur != 0 {
		t.Errorf("expected zero progress, got %v/%v", pos, dur)
	}
	if err := p.Close(); err != nil {
		t.Errorf("close without stream: %v", err)
	}
}

// fakeSpeaker replaces the speaker entry points for the duration of a test.
type fakeSpeaker struct {
	inits    []beep.SampleRate
	failRate beep.SampleRate
	played   int
}

func installFakeSpeaker(t *testing.T, failRate beep.SampleRate) *fakeSpeaker {
	t.Helper()
	fs := &fakeSpeaker{failRate: failRate}
	origInit, origClear, origPlay := speakerInit, speakerClear, speakerPlay
	speakerInit = func(rate beep.SampleRate, bufferSize int) error {
		fs.inits = append(fs.inits, rate)
		if rate == fs.failRate {
			return fmt.Errorf("no device for %d Hz", rate)
		}
		return nil
	}
	speakerClear = func() {}
	speakerPlay = func(s ...beep.Streamer) { fs.played++ }
	t.Cleanup(func() {
		speakerInit, speakerClear, speakerPlay = origInit, origClear, origPlay
	})
	return fs
}

func TestLoadCountsPlayedSamples(t *testing.T) {
	installFakeSpeaker(t, 0)
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeTone(t, path, 44100, 440, 0.2)

	p := New(spectrum.DefaultAnalyserOptions(), 0, nil)
	if err := p.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Close()

	if p.Samples() != 0 {
		t.Errorf("expected 0 samples before playback, got %d", p.Samples())
	}
	buf := make([][2]float64, 512)
	p.ctrl.Stream(buf)
	if p.Samples() != 512 {
		t.Errorf("expected 512 samples after one buffer, got %d", p.Samples())
	}
}

func TestFailedReinitDropsStream(t *testing.T) {
	fs := installFakeSpeaker(t, 22050)
	dir := t.TempDir()
	first := filepath.Join(dir, "first.wav")
	second := filepath.Join(dir, "second.wav")
	writeTone(t, first, 44100, 440, 0.2)
	writeTone(t, second, 22050, 440, 0.2)

	p := New(spectrum.DefaultAnalyserOptions(), 0, nil)
	if err := p.Load(first); err != nil {
		t.Fatalf("Load: %v", err)
	}
	p.TogglePause()
	if !p.Loaded() || p.Source() == nil {
		t.Fatal("expected a loaded stream")
	}

	if err := p.Load(second); err == nil {
		t.Fatal("expected reinit failure")
	}
	if p.Loaded() {
		t.Error("stream should be dropped after failed reinit")
	}
	if p.Source() != nil {
		t.Error("source should be nil after failed reinit")
	}
	if p.Paused() {
		t.Error("pause state should be cleared with the stream")
	}
	if p.Samples() != 0 {
		t.Errorf("expected 0 samples without a stream, got %d", p.Samples())
	}

	// The next load initializes the speaker again
	if err := p.Load(first); err != nil {
		t.Fatalf("Load after failure: %v", err)
	}
	defer p.Close()
	want := []beep.SampleRate{44100, 22050, 44100}
	if len(fs.inits) != len(want) {
		t.Fatalf("expected inits %v, got %v", want, fs.inits)
	}
	for i := range want {
		if fs.inits[i] != want[i] {
			t.Errorf("init %d: expected %d Hz, got %d Hz", i, want[i], fs.inits[i])
		}
	}
	if fs.played != 2 {
		t.Errorf("expected 2 streams played, got %d", fs.played)
	}
}
