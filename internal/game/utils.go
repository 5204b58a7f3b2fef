package game

import (
	"fmt"
	"image"
	"time"

	"github.com/iburimskiy/cymatics/internal/config"
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// formatDuration formats a duration as MM:SS
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

func buttonRect() image.Rectangle {
	return image.Rect(config.ButtonX, config.ButtonY, config.ButtonX+config.ButtonWidth, config.ButtonY+config.ButtonHeight)
}

// progressBarRect places the seek bar along the bottom of a width x height surface.
func progressBarRect(width, height int) image.Rectangle {
	x0 := config.ProgressBarMargin
	x1 := width - config.ProgressBarMargin
	y0 := height - config.ProgressBarBottom
	if x1 <= x0 {
		x1 = x0 + 1
	}
	return image.Rect(x0, y0, x1, y0+config.ProgressBarHeight)
}

// hit reports whether (x, y) lies within r, edges included.
func hit(r image.Rectangle, x, y int) bool {
	return x >= r.Min.X && x <= r.Max.X && y >= r.Min.Y && y <= r.Max.Y
}

// seekFraction maps a cursor x inside bar to a playback fraction.
func seekFraction(bar image.Rectangle, x int) float64 {
	return clamp01(float64(x-bar.Min.X) / float64(bar.Dx()))
}
