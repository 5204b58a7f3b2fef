// Package telemetry summarises ticks for logging and CSV output.
package telemetry

import (
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// FrameStats summarises one tick.
type FrameStats struct {
	Tick          int64   `csv:"tick"`
	Time          float64 `csv:"time"`
	Mode          string  `csv:"mode"`
	Frequency     float64 `csv:"frequency"`
	Loudness      float64 `csv:"loudness"`
	Intensity     float64 `csv:"intensity"`
	HasSound      bool    `csv:"has_sound"`
	DissolveAlpha float64 `csv:"dissolve_alpha"`
	Boundary      float64 `csv:"boundary"`
	Particles     int     `csv:"particles"`
	Drawn         int     `csv:"drawn"`
	Commands      int     `csv:"commands"`
	OpacityMean   float64 `csv:"opacity_mean"`
	OpacityStd    float64 `csv:"opacity_std"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("tick", s.Tick),
		slog.Float64("time", s.Time),
		slog.String("mode", s.Mode),
		slog.Float64("frequency", s.Frequency),
		slog.Float64("loudness", s.Loudness),
		slog.Float64("intensity", s.Intensity),
		slog.Bool("has_sound", s.HasSound),
		slog.Float64("dissolve_alpha", s.DissolveAlpha),
		slog.Float64("boundary", s.Boundary),
		slog.Int("particles", s.Particles),
		slog.Int("drawn", s.Drawn),
		slog.Int("commands", s.Commands),
		slog.Float64("opacity_mean", s.OpacityMean),
		slog.Float64("opacity_std", s.OpacityStd),
	)
}

// OpacityStats returns the mean and standard deviation of values. Fewer than
// two values give a zero deviation.
func OpacityStats(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}
