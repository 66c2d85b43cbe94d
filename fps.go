package loupe

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// fpsRefresh is how often the meter text is redrawn.
const fpsRefresh = 500 * time.Millisecond

// fpsMeter renders the current FPS and TPS into a small image, refreshed
// every fpsRefresh.
type fpsMeter struct {
	img  *ebiten.Image
	last time.Time
	op   ebiten.DrawImageOptions
}

func newFPSMeter() *fpsMeter {
	// 100x32 is enough for "FPS: 60.0\nTPS: 60.0"
	return &fpsMeter{img: ebiten.NewImage(100, 32)}
}

func (m *fpsMeter) update(now time.Time) {
	if !m.last.IsZero() && now.Sub(m.last) < fpsRefresh {
		return
	}
	m.last = now
	m.img.Clear()
	// Semi-transparent background for readability
	m.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(m.img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
}

func (m *fpsMeter) draw(screen *ebiten.Image, x, y float64) {
	m.op.GeoM.Reset()
	m.op.GeoM.Translate(x, y)
	screen.DrawImage(m.img, &m.op)
}
