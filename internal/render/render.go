// Package render draws tick commands onto an ebiten image.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/iburimskiy/cymatics/internal/draw"
	"github.com/iburimskiy/cymatics/internal/wavefield"
)

// Quads per triangle batch; 4 vertices each must fit uint16 indices.
const maxBatchQuads = 16000

// glowRings approximates a radial gradient with stacked circles.
const glowRings = 12

// Renderer draws particle commands in a frequency-dependent tint.
type Renderer struct {
	saturation float64
	tint       colorful.Color
	white      *ebiten.Image // 1x1 source for triangle batches

	vertices []ebiten.Vertex
	indices  []uint16
	quads    int
	opts     ebiten.DrawTrianglesOptions
}

// New creates a renderer. saturation 0 draws pure white sand.
func New(saturation float64) *Renderer {
	r := &Renderer{
		saturation: math.Max(0, math.Min(saturation, 1)),
		tint:       colorful.Color{R: 1, G: 1, B: 1},
	}
	img := ebiten.NewImage(3, 3)
	img.Fill(color.White)
	r.white = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	r.opts.AntiAlias = true
	return r
}

// SetFrequency tints subsequent draws by the dominant frequency.
func (r *Renderer) SetFrequency(freq float64) {
	r.tint = Tint(freq, r.saturation)
}

// Tint maps a frequency to a pale colour: low tones warm, high tones cool.
func Tint(freq, saturation float64) colorful.Color {
	if saturation <= 0 || !(freq > 0) {
		return colorful.Color{R: 1, G: 1, B: 1}
	}
	f := math.Max(wavefield.MinFrequency, math.Min(freq, wavefield.MaxFrequency))
	norm := math.Log(f/wavefield.MinFrequency) / math.Log(wavefield.MaxFrequency/wavefield.MinFrequency)
	hue := 30 + norm*210 // orange .. blue
	return colorful.Hsv(hue, saturation, 1).Clamped()
}

// Draw executes cmds on screen in order.
func (r *Renderer) Draw(screen *ebiten.Image, cmds []draw.Command) {
	r.reset()
	for _, c := range cmds {
		switch c.Kind {
		case draw.KindClear:
			r.flush(screen)
			screen.Fill(color.Black)
		case draw.KindCircle:
			vector.DrawFilledCircle(screen, float32(c.X), float32(c.Y), float32(c.Size), r.color(c.Alpha), true)
		case draw.KindSquare:
			r.appendQuad(SquareCorners(c.X, c.Y, c.Size, c.Rotation), c.Alpha)
		case draw.KindDiamond:
			r.appendQuad(DiamondCorners(c.X, c.Y, c.Size), c.Alpha)
		case draw.KindGlow:
			r.drawGlow(screen, c)
		}
		if r.quads >= maxBatchQuads {
			r.flush(screen)
		}
	}
	r.flush(screen)
}

func (r *Renderer) color(alpha float64) color.NRGBA {
	a := math.Max(0, math.Min(alpha, 1))
	cr, cg, cb := r.tint.RGB255()
	return color.NRGBA{R: cr, G: cg, B: cb, A: uint8(a * 255)}
}

func (r *Renderer) drawGlow(screen *ebiten.Image, c draw.Command) {
	// Outer rings are wide and faint, inner ones small and bright
	for i := 0; i < glowRings; i++ {
		t := float64(i) / glowRings
		radius := c.Size * (2.5 - 2*t)
		alpha := c.Alpha * (0.15 + 0.85*t*t) / glowRings * 2
		vector.DrawFilledCircle(screen, float32(c.X), float32(c.Y), float32(radius), r.color(alpha), true)
	}
}

// SquareCorners returns the corners of a square of the given half-size
// centred on (x, y) and rotated by rotation radians.
func SquareCorners(x, y, half, rotation float64) [4][2]float64 {
	sin, cos := math.Sincos(rotation)
	var out [4][2]float64
	offsets := [4][2]float64{{-half, -half}, {half, -half}, {half, half}, {-half, half}}
	for i, o := range offsets {
		out[i] = [2]float64{x + o[0]*cos - o[1]*sin, y + o[0]*sin + o[1]*cos}
	}
	return out
}

// DiamondCorners returns the top, right, bottom and left points of a diamond.
func DiamondCorners(x, y, half float64) [4][2]float64 {
	return [4][2]float64{{x, y - half}, {x + half, y}, {x, y + half}, {x - half, y}}
}

func (r *Renderer) appendQuad(corners [4][2]float64, alpha float64) {
	a := float32(math.Max(0, math.Min(alpha, 1)))
	base := uint16(len(r.vertices))
	for _, p := range corners {
		r.vertices = append(r.vertices, ebiten.Vertex{
			DstX:   float32(p[0]),
			DstY:   float32(p[1]),
			SrcX:   1,
			SrcY:   1,
			ColorR: float32(r.tint.R),
			ColorG: float32(r.tint.G),
			ColorB: float32(r.tint.B),
			ColorA: a,
		})
	}
	r.indices = append(r.indices, base, base+1, base+2, base, base+2, base+3)
	r.quads++
}

func (r *Renderer) flush(screen *ebiten.Image) {
	if r.quads > 0 {
		screen.DrawTriangles(r.vertices, r.indices, r.white, &r.opts)
	}
	r.reset()
}

func (r *Renderer) reset() {
	r.vertices = r.vertices[:0]
	r.indices = r.indices[:0]
	r.quads = 0
}
