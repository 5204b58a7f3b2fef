// Package spectrum reduces live audio to the dominant frequency and loudness
// that shape the wave field.
package spectrum

import "math"

// Byte midpoint of time-domain data (zero amplitude).
const timeDomainMidpoint = 128

// timeDomainBoost compensates for FFT smoothing under-reporting transients.
const timeDomainBoost = 1.5

// Reading is one reduction of a spectrum block.
type Reading struct {
	DominantFrequency float64 // Hz
	Loudness          float64 // [0, 1]
}

// Source provides byte-scaled spectrum and waveform data. Each method writes
// at most len(dst) values and returns how many are valid; 0 means the
// source is not ready, suspended or ended.
type Source interface {
	SampleRate() float64
	ByteFrequencyData(dst []uint8) int
	ByteTimeDomainData(dst []uint8) int
}

// Analyze reduces frequency-bin magnitudes (0..255) and optional
// time-domain bytes (centred on 128) to a Reading. Missing or unusable
// input yields the zero Reading.
func Analyze(freq, timeDomain []uint8, sampleRate float64) Reading {
	if len(freq) == 0 || !(sampleRate > 0) || math.IsInf(sampleRate, 1) {
		return Reading{}
	}

	var sum int
	maxIndex, maxValue := 0, uint8(0)
	for i, v := range freq {
		sum += int(v)
		if v > maxValue {
			maxValue = v
			maxIndex = i
		}
	}

	binCount := float64(len(freq))
	loudness := float64(sum) / binCount / 255

	if len(timeDomain) > 0 {
		var dev int
		for _, v := range timeDomain {
			d := int(v) - timeDomainMidpoint
			if d < 0 {
				d = -d
			}
			dev += d
		}
		td := float64(dev) / float64(len(timeDomain)) / timeDomainMidpoint
		loudness = math.Max(loudness, td*timeDomainBoost)
	}

	return Reading{
		DominantFrequency: float64(maxIndex) * (sampleRate / 2) / binCount,
		Loudness:          math.Min(loudness, 1),
	}
}

// Sampler reads a Source into reusable buffers once per tick.
type Sampler struct {
	src        Source
	freq       []uint8
	timeDomain []uint8
}

// NewSampler creates a sampler reading up to bins values per call.
func NewSampler(src Source, bins int) *Sampler {
	if bins <= 0 {
		bins = 1024
	}
	return &Sampler{
		src:        src,
		freq:       make([]uint8, bins),
		timeDomain: make([]uint8, bins*2),
	}
}

// Sample returns the current reading. It never fails: a nil or unready
// source gives the zero Reading.
func (s *Sampler) Sample() Reading {
	if s == nil || s.src == nil {
		return Reading{}
	}
	n := s.src.ByteFrequencyData(s.freq)
	if n <= 0 {
		return Reading{}
	}
	n = min(n, len(s.freq))
	m := max(0, min(s.src.ByteTimeDomainData(s.timeDomain), len(s.timeDomain)))
	return Analyze(s.freq[:n], s.timeDomain[:m], s.src.SampleRate())
}
