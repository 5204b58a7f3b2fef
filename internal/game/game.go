// Package game hosts the simulation in an ebiten window: file picking,
// playback controls and the per-frame tick.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/iburimskiy/cymatics/internal/config"
	"github.com/iburimskiy/cymatics/internal/dissolve"
	"github.com/iburimskiy/cymatics/internal/draw"
	"github.com/iburimskiy/cymatics/internal/frame"
	"github.com/iburimskiy/cymatics/internal/particles"
	"github.com/iburimskiy/cymatics/internal/player"
	"github.com/iburimskiy/cymatics/internal/render"
	"github.com/iburimskiy/cymatics/internal/spectrum"
	"github.com/iburimskiy/cymatics/internal/telemetry"
)

// Particle count limits for the +/- keys.
const (
	minParticles = 500
	maxParticles = 200000
)

// Options configures a Game.
type Options struct {
	Config    *config.Config
	Rand      *rand.Rand
	Telemetry *telemetry.CSVWriter // nil disables CSV output
	Logger    *slog.Logger
}

// Game implements ebiten.Game.
type Game struct {
	cfg      *config.Config
	log      *slog.Logger
	driver   *frame.Driver
	player   *player.Player
	renderer *render.Renderer
	csv      *telemetry.CSVWriter

	cmds     []draw.Command
	lastMode frame.Mode

	// set by Layout, applied to the driver in Update
	pendingWidth, pendingHeight int

	buttonHovered bool
	buttonPressed bool
	barHovered    bool

	lastErr error
}

// New builds the driver, player and renderer from opts.Config.
func New(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	driver, err := frame.New(DriverOptions(cfg, opts.Rand))
	if err != nil {
		return nil, fmt.Errorf("creating driver: %w", err)
	}

	g := &Game{
		cfg:           cfg,
		log:           logger,
		driver:        driver,
		renderer:      render.New(cfg.Render.TintSaturation),
		csv:           opts.Telemetry,
		pendingWidth:  cfg.Screen.Width,
		pendingHeight: cfg.Screen.Height,
	}
	// Runs on the speaker goroutine; DetachSource is atomic.
	g.player = player.New(AnalyserOptions(cfg), config.VisualRingSize, driver.DetachSource)
	return g, nil
}

// DriverOptions maps the configuration onto frame driver options.
func DriverOptions(cfg *config.Config, rng *rand.Rand) frame.Options {
	opts := frame.DefaultOptions()
	opts.Width = cfg.Screen.Width
	opts.Height = cfg.Screen.Height
	opts.Bins = cfg.Audio.FFTSize / 2
	opts.Particles = particles.Params{
		Count:           cfg.Particles.Count,
		Workers:         cfg.Particles.Workers,
		Epsilon:         cfg.Field.Epsilon,
		ForceScale:      cfg.Particles.ForceScale,
		DampingSound:    cfg.Particles.DampingSound,
		DampingSilence:  cfg.Particles.DampingSilence,
		SilenceForce:    cfg.Particles.SilenceForce,
		ClusterFraction: cfg.Particles.ClusterFraction,
		SatelliteChance: cfg.Particles.SatelliteChance,
		VisibilityFloor: cfg.Particles.VisibilityFloor,
	}
	opts.Dissolve = dissolve.Params{
		Threshold: cfg.Dissolve.Threshold,
		Attack:    cfg.Dissolve.Attack,
		Release:   cfg.Dissolve.Release,
		Gain:      cfg.Dissolve.Gain,
	}
	opts.GlowRadius = cfg.Idle.GlowRadius
	opts.GlowAlpha = cfg.Idle.GlowAlpha
	opts.Rand = rng
	return opts
}

// AnalyserOptions maps the audio configuration onto analyser options.
func AnalyserOptions(cfg *config.Config) spectrum.AnalyserOptions {
	return spectrum.AnalyserOptions{
		FFTSize:     cfg.Audio.FFTSize,
		Smoothing:   cfg.Audio.Smoothing,
		MinDecibels: cfg.Audio.MinDecibels,
		MaxDecibels: cfg.Audio.MaxDecibels,
	}
}

// Open starts playing path and attaches it to the simulation. On failure
// the driver follows whatever the player still plays, if anything.
func (g *Game) Open(path string) error {
	err := g.player.Load(path)
	g.driver.AttachSource(g.player.Source())
	if err != nil {
		return err
	}
	g.log.Info("playing", "file", filepath.Base(path))
	return nil
}

// Close stops playback and flushes telemetry.
func (g *Game) Close() error {
	g.driver.DetachSource()
	return errors.Join(g.player.Close(), g.csv.Close())
}

func (g *Game) Update() error {
	mouseX, mouseY := ebiten.CursorPosition()

	g.buttonHovered = hit(buttonRect(), mouseX, mouseY)
	if g.buttonHovered && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.buttonPressed = true
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		if g.buttonPressed && g.buttonHovered {
			g.openFileDialog()
		}
		g.buttonPressed = false
	}

	width, height := g.driver.System().Size()
	bar := progressBarRect(width, height)
	g.barHovered = hit(bar, mouseX, mouseY)
	if g.barHovered && g.player.Loaded() && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if err := g.player.Seek(seekFraction(bar, mouseX)); err != nil {
			g.setErr(err)
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyO) {
		g.openFileDialog()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.player.TogglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) {
		g.scaleParticles(2)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) {
		g.scaleParticles(0.5)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}

	if g.pendingWidth != width || g.pendingHeight != height {
		if err := g.driver.Resize(g.pendingWidth, g.pendingHeight); err != nil {
			g.setErr(err)
		}
	}

	g.cmds = g.driver.Tick()
	g.observe()
	return nil
}

// observe logs mode changes and periodic stats and appends telemetry.
func (g *Game) observe() {
	stats := g.driver.Stats()
	if mode := g.driver.Mode(); mode != g.lastMode {
		g.log.Info("mode changed", "from", g.lastMode, "to", mode)
		g.lastMode = mode
	}
	if n := int64(g.cfg.Telemetry.LogInterval); n > 0 && stats.Tick%n == 0 {
		stats = g.driver.CollectOpacity()
		g.log.Info("frame", "stats", stats, "samples", g.player.Samples())
	}
	if err := g.csv.Write(stats); err != nil {
		g.log.Error("telemetry disabled", "err", err)
		g.csv = nil
	}
}

func (g *Game) scaleParticles(factor float64) {
	n := int(float64(g.driver.System().Count()) * factor)
	n = max(minParticles, min(n, maxParticles))
	if err := g.driver.ConfigureParticleCount(n); err != nil {
		g.setErr(err)
		return
	}
	g.log.Info("particle count changed", "particles", n)
}

func (g *Game) openFileDialog() {
	path, err := player.PickFile()
	if err != nil {
		g.setErr(err)
		return
	}
	if path == "" {
		return
	}
	if err := g.Open(path); err != nil {
		g.setErr(err)
		return
	}
	g.lastErr = nil
}

func (g *Game) setErr(err error) {
	g.lastErr = err
	g.log.Error("error", "err", err)
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.driver.Mode() == frame.ModeActive {
		g.renderer.SetFrequency(g.driver.Stats().Frequency)
	} else {
		g.renderer.SetFrequency(0)
	}
	g.renderer.Draw(screen, g.cmds)

	g.drawButton(screen)
	g.drawProgressBar(screen)
	g.drawStatus(screen)
}

// Layout adopts the window size as the simulation surface.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 {
		g.pendingWidth, g.pendingHeight = outsideWidth, outsideHeight
	}
	return g.pendingWidth, g.pendingHeight
}
