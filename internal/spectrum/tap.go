package spectrum

import (
	"sync"

	"github.com/faiface/beep"
)

// Tap wraps a beep.Streamer and records the last N samples into a ring
// buffer so the analyser can look at recently played audio. Stream runs on
// the speaker goroutine; Snapshot may be called from any other.
type Tap struct {
	Source beep.Streamer

	mu        sync.RWMutex
	buffer    [][2]float64
	nextIndex int
	written   int64
}

// NewTap records the last ringSize samples streamed from src.
func NewTap(src beep.Streamer, ringSize int) *Tap {
	if ringSize <= 0 {
		ringSize = 1
	}
	return &Tap{
		Source: src,
		buffer: make([][2]float64, ringSize),
	}
}

// Stream implements beep.Streamer.
func (t *Tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.Source.Stream(samples)
	if n > 0 {
		t.Record(samples[:n])
	}
	return n, ok
}

// Err implements beep.Streamer.
func (t *Tap) Err() error { return t.Source.Err() }

// Record appends samples to the ring, overwriting the oldest.
func (t *Tap) Record(samples [][2]float64) {
	t.mu.Lock()
	for _, s := range samples {
		t.buffer[t.nextIndex] = s
		t.nextIndex++
		if t.nextIndex >= len(t.buffer) {
			t.nextIndex = 0
		}
	}
	t.written += int64(len(samples))
	t.mu.Unlock()
}

// Written returns the total number of samples recorded.
func (t *Tap) Written() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.written
}

// Snapshot fills dst with the most recent len(dst) samples in chronological
// order (most recent last) and returns the filled prefix. Slots never
// written hold silence.
func (t *Tap) Snapshot(dst [][2]float64) [][2]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := len(dst)
	if n > len(t.buffer) {
		n = len(t.buffer)
	}
	// Oldest wanted sample sits n slots behind the write head
	idx := t.nextIndex - n
	if idx < 0 {
		idx += len(t.buffer)
	}
	for i := 0; i < n; i++ {
		dst[i] = t.buffer[idx]
		idx++
		if idx >= len(t.buffer) {
			idx = 0
		}
	}
	return dst[:n]
}
