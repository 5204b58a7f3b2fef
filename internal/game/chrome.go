package game

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/iburimskiy/cymatics/internal/frame"
)

// Glyph cell of basicfont.Face7x13
const (
	glyphWidth  = 7
	glyphAscent = 11
)

var (
	barBackground = color.RGBA{R: 25, G: 30, B: 40, A: 160}
	barBorder     = color.RGBA{R: 70, G: 80, B: 100, A: 255}
	barFill       = color.RGBA{R: 200, G: 200, B: 210, A: 140}
)

func (g *Game) drawButton(screen *ebiten.Image) {
	var bgColor color.Color
	if g.buttonPressed {
		bgColor = color.RGBA{R: 60, G: 80, B: 120, A: 255} // Pressed
	} else if g.buttonHovered {
		bgColor = color.RGBA{R: 80, G: 100, B: 140, A: 255} // Hovered
	} else {
		bgColor = color.RGBA{R: 100, G: 120, B: 160, A: 255} // Normal
	}

	r := buttonRect()
	x, y, w, h := float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy())
	vector.DrawFilledRect(screen, x, y, w, h, bgColor, false)
	vector.StrokeRect(screen, x, y, w, h, 2, color.RGBA{R: 150, G: 170, B: 200, A: 255}, false)

	label := "Open File"
	x0 := r.Min.X + (r.Dx()-len(label)*glyphWidth)/2
	y0 := r.Min.Y + (r.Dy()+glyphAscent)/2
	text.Draw(screen, label, basicfont.Face7x13, x0, y0, color.White)
}

func (g *Game) drawProgressBar(screen *ebiten.Image) {
	if !g.player.Loaded() {
		return
	}
	position, duration := g.player.Progress()
	if duration <= 0 {
		return
	}

	bar := progressBarRect(g.driver.System().Size())
	x, y, w, h := float32(bar.Min.X), float32(bar.Min.Y), float32(bar.Dx()), float32(bar.Dy())
	progress := clamp01(float64(position) / float64(duration))

	vector.DrawFilledRect(screen, x, y, w, h, barBackground, false)
	if progress > 0 {
		vector.DrawFilledRect(screen, x, y, w*float32(progress), h, barFill, false)
	}
	vector.StrokeRect(screen, x, y, w, h, 1, barBorder, false)

	indicatorX := x + w*float32(progress)
	vector.DrawFilledCircle(screen, indicatorX, y+h/2, h/2, color.White, true)

	labelY := bar.Max.Y + 4 + glyphAscent
	text.Draw(screen, formatDuration(position), basicfont.Face7x13, bar.Min.X, labelY, color.White)
	total := formatDuration(duration)
	text.Draw(screen, total, basicfont.Face7x13, bar.Max.X-len(total)*glyphWidth, labelY, color.White)

	// Hover tooltip with the time under the cursor
	if g.barHovered {
		mouseX, _ := ebiten.CursorPosition()
		at := formatDuration(time.Duration(seekFraction(bar, mouseX) * float64(duration)))
		text.Draw(screen, at, basicfont.Face7x13, mouseX-len(at)*glyphWidth/2, bar.Min.Y-6, color.White)
	}
}

func (g *Game) drawStatus(screen *ebiten.Image) {
	var status string
	switch {
	case !g.player.Loaded():
		status = "Click the button below to open an audio file"
	case g.player.Paused():
		status = "Paused - Space to play, click button to open another"
	default:
		status = "Playing - Space to pause, +/- particles, Esc/Q to quit"
	}
	if g.lastErr != nil {
		status += " | Error: " + g.lastErr.Error()
	}
	ebitenutil.DebugPrintAt(screen, status, 12, 12)

	stats := g.driver.Stats()
	info := fmt.Sprintf("%d particles  %.0f FPS", stats.Particles, ebiten.ActualFPS())
	if g.driver.Mode() == frame.ModeActive {
		info += fmt.Sprintf("  %.0f Hz  level %.2f  dissolve %.2f", stats.Frequency, stats.Loudness, stats.DissolveAlpha)
	}
	ebitenutil.DebugPrintAt(screen, info, 12, 28)
}
