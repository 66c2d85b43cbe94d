package loupe

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunConfig configures the window created by Run.
type RunConfig struct {
	Title         string
	Width, Height int
	// DPR overrides the monitor's device scale factor when positive.
	DPR float64
	// Script, when set, is replayed through the viewer's recognizer.
	Script *ScriptRunner
	// ExitWhenScriptDone ends the game loop once Script finishes.
	ExitWhenScriptDone bool
}

// errScriptDone ends the loop after a finished script.
var errScriptDone = errors.New("script done")

// Run opens a window of cfg.Width x cfg.Height logical pixels, shows src in
// a viewer filling it and blocks until the window closes.
func Run(cfg RunConfig, src string, opts Options) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return &ConfigError{Field: "window", Reason: fmt.Sprintf("no renderable area: %dx%d", cfg.Width, cfg.Height), Err: ErrInvalidSurface}
	}
	dpr := cfg.DPR
	if !(dpr > 0) {
		dpr = ebiten.Monitor().DeviceScaleFactor()
	}
	v, err := New(Surface{Width: float64(cfg.Width), Height: float64(cfg.Height), DPR: dpr}, src, opts)
	if err != nil {
		return err
	}
	defer v.Close()
	if cfg.Script != nil {
		v.SetScript(cfg.Script)
	}
	if err := v.Show(); err != nil {
		return err
	}

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	err = ebiten.RunGame(&game{v: v, cfg: cfg})
	if errors.Is(err, errScriptDone) {
		return nil
	}
	return err
}

// game adapts a Viewer to ebiten.Game.
type game struct {
	v   *Viewer
	cfg RunConfig
}

func (g *game) Update() error {
	if err := g.v.Update(); err != nil {
		return err
	}
	if g.cfg.ExitWhenScriptDone && g.cfg.Script != nil && g.cfg.Script.Done() {
		return errScriptDone
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) { g.v.Draw(screen) }

// Layout reports the canvas in device pixels so one screen pixel is one
// canvas pixel.
func (g *game) Layout(_, _ int) (int, int) {
	c := g.v.surface.Canvas()
	return int(c.W), int(c.H)
}
