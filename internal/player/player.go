// Package player plays local audio files through the speaker and exposes
// what is being played as a spectrum source.
package player

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"

	"github.com/iburimskiy/cymatics/internal/spectrum"
)

// ErrUnsupportedFormat is returned for files beep cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported file type")

// Extensions lists the decodable file extensions.
var Extensions = []string{".wav", ".mp3", ".flac"}

// Speaker entry points, swapped out in tests.
var (
	speakerInit  = speaker.Init
	speakerClear = speaker.Clear
	speakerPlay  = speaker.Play
)

// Player owns the current stream. Load, TogglePause, Seek and Close are
// called from the UI goroutine; the spectrum source is read from the tick
// loop and the end callback fires on the speaker goroutine.
type Player struct {
	opts      spectrum.AnalyserOptions
	ringSize  int
	onEnd     func()
	mu        sync.Mutex
	file      *os.File
	streamer  beep.StreamSeekCloser
	format    beep.Format
	ctrl      *beep.Ctrl
	tap       *spectrum.Tap
	source    *source
	initDone  bool
	paused    atomic.Bool
	ended     atomic.Bool
	lastSeek  time.Time
	seekDelay time.Duration
}

// New creates a player. onEnd, if set, runs on the speaker goroutine when a
// stream finishes; it must not lock the speaker.
func New(opts spectrum.AnalyserOptions, ringSize int, onEnd func()) *Player {
	if ringSize < opts.FFTSize {
		ringSize = opts.FFTSize
	}
	return &Player{
		opts:      opts,
		ringSize:  ringSize,
		onEnd:     onEnd,
		seekDelay: 50 * time.Millisecond,
	}
}

// Load stops the current stream, decodes path and starts playing it.
func (p *Player) Load(path string) error {
	f, streamer, format, err := openFile(path)
	if err != nil {
		return err
	}

	tap := spectrum.NewTap(streamer, p.ringSize)
	ctrl := &beep.Ctrl{Streamer: tap, Paused: false}

	p.mu.Lock()
	defer p.mu.Unlock()

	bufferSize := format.SampleRate.N(time.Second / 20)
	switch {
	case !p.initDone:
		if err := speakerInit(format.SampleRate, bufferSize); err != nil {
			_ = streamer.Close()
			_ = f.Close()
			return fmt.Errorf("initializing speaker: %w", err)
		}
		p.initDone = true
	case p.format.SampleRate != format.SampleRate:
		// Re-init when sample rate changes. Init closes the running
		// speaker first, so a failure leaves nothing playing.
		speakerClear()
		if err := speakerInit(format.SampleRate, bufferSize); err != nil {
			_ = streamer.Close()
			_ = f.Close()
			p.initDone = false
			return errors.Join(fmt.Errorf("reinitializing speaker: %w", err), p.closeLocked())
		}
	default:
		speakerClear()
	}
	_ = p.closeLocked()

	p.file = f
	p.streamer = streamer
	p.format = format
	p.ctrl = ctrl
	p.tap = tap
	p.source = &source{
		player:   p,
		analyser: spectrum.NewAnalyser(tap, float64(format.SampleRate), p.opts),
	}
	p.paused.Store(false)
	p.ended.Store(false)

	speakerPlay(beep.Seq(ctrl, beep.Callback(func() {
		p.ended.Store(true)
		if p.onEnd != nil {
			p.onEnd()
		}
	})))
	return nil
}

// Loaded reports whether a stream is open and has not ended.
func (p *Player) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.streamer != nil && !p.ended.Load()
}

// Paused reports whether playback is paused.
func (p *Player) Paused() bool { return p.paused.Load() }

// TogglePause flips the pause state and returns the new one.
func (p *Player) TogglePause() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl == nil {
		return false
	}
	speaker.Lock()
	paused := !p.ctrl.Paused
	p.ctrl.Paused = paused
	speaker.Unlock()
	p.paused.Store(paused)
	return paused
}

// Seek moves playback to fraction (0..1) of the stream. Calls closer than
// the seek cooldown apart are ignored.
func (p *Player) Seek(fraction float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return nil
	}
	if time.Since(p.lastSeek) < p.seekDelay {
		return nil
	}

	fraction = max(0, min(fraction, 1))
	speaker.Lock()
	length := p.streamer.Len()
	pos := int(fraction * float64(length))
	if pos >= length {
		pos = length - 1
	}
	err := p.streamer.Seek(max(pos, 0))
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("seeking: %w", err)
	}
	p.lastSeek = time.Now()
	return nil
}

// Progress returns the playback position and total duration.
func (p *Player) Progress() (position, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0, 0
	}
	speaker.Lock()
	pos, length := p.streamer.Position(), p.streamer.Len()
	speaker.Unlock()
	return p.format.SampleRate.D(pos), p.format.SampleRate.D(length)
}

// Source returns the spectrum source of the current stream, or nil.
func (p *Player) Source() spectrum.Source {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.source == nil {
		return nil
	}
	return p.source
}

// Samples returns how many samples of the current stream reached the
// speaker, or 0 without a stream.
func (p *Player) Samples() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tap == nil {
		return 0
	}
	return p.tap.Written()
}

// Close stops playback and releases the current stream.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initDone {
		speakerClear()
	}
	return p.closeLocked()
}

func (p *Player) closeLocked() error {
	var errs []error
	if p.streamer != nil {
		errs = append(errs, p.streamer.Close())
		p.streamer = nil
	}
	if p.file != nil {
		// The decoder may already have closed it
		if err := p.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
		p.file = nil
	}
	p.ctrl = nil
	p.tap = nil
	p.source = nil
	p.paused.Store(false)
	return errors.Join(errs...)
}

// source gates the analyser on the player state: paused or finished
// streams read as not ready.
type source struct {
	player   *Player
	analyser *spectrum.Analyser
}

func (s *source) active() bool {
	return !s.player.paused.Load() && !s.player.ended.Load()
}

func (s *source) SampleRate() float64 { return s.analyser.SampleRate() }

func (s *source) ByteFrequencyData(dst []uint8) int {
	if !s.active() {
		return 0
	}
	return s.analyser.ByteFrequencyData(dst)
}

func (s *source) ByteTimeDomainData(dst []uint8) int {
	if !s.active() {
		return 0
	}
	return s.analyser.ByteTimeDomainData(dst)
}

// Supported reports whether path has a decodable extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func openFile(path string) (*os.File, beep.StreamSeekCloser, beep.Format, error) {
	if !Supported(path) {
		return nil, nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, beep.Format{}, fmt.Errorf("opening audio file: %w", err)
	}
	streamer, format, err := decode(f, path)
	if err != nil {
		_ = f.Close()
		return nil, nil, beep.Format{}, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return f, streamer, format, nil
}

func decode(f *os.File, path string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return wav.Decode(f)
	case ".mp3":
		return mp3.Decode(f)
	case ".flac":
		return flac.Decode(f)
	}
	return nil, beep.Format{}, ErrUnsupportedFormat
}
