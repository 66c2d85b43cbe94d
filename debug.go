package loupe

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// debugStatsInterval is how often accumulated stats are logged.
const debugStatsInterval = time.Second

// debugStats holds per-tick timing and render counts. Only populated when
// Options.Debug is set.
type debugStats struct {
	updateTime  time.Duration
	renderTime  time.Duration
	renders     int
	transitions int
	ticks       int
	since       time.Time
}

// debugLog accumulates one tick and logs a summary every debugStatsInterval.
func (v *Viewer) debugLog() {
	d := &v.debug
	d.ticks++
	now := v.clock.Now()
	if d.since.IsZero() {
		d.since = now
		return
	}
	if now.Sub(d.since) < debugStatsInterval {
		return
	}
	v.log.Debug("frame stats",
		slog.Int("ticks", d.ticks),
		slog.Int("renders", d.renders),
		slog.Duration("render", d.renderTime),
		slog.Duration("update", d.updateTime),
		slog.Int("transitions", d.transitions),
		slog.Float64("scale", v.state.Scale))
	*d = debugStats{since: now}
}

// debugText describes the current placement for the overlay.
func (v *Viewer) debugText() string {
	s := v.state
	in := s.RealInner()
	return fmt.Sprintf("scale %.3f angle %d\norigin %.1f,%.1f\noffset %.1f,%.1f\ninner %.1f,%.1f\npinching %v transitions %d",
		s.Scale, s.Angle,
		s.Origin.X, s.Origin.Y,
		s.Offset.X, s.Offset.Y,
		in.X, in.Y,
		v.ctrl.Pinching(), v.ctrl.anim.Len())
}

// drawDebug prints the state overlay in the top-left corner and the FPS
// meter below it.
func (v *Viewer) drawDebug(screen *ebiten.Image) {
	if !v.loaded {
		ebitenutil.DebugPrint(screen, "loading "+v.src)
		return
	}
	ebitenutil.DebugPrint(screen, v.debugText())
	if v.fps == nil {
		v.fps = newFPSMeter()
	}
	v.fps.update(v.clock.Now())
	v.fps.draw(screen, 0, 80)
}
