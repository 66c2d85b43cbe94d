package loupe

import (
	"log/slog"
	"math"
	"time"
)

// controllerConfig is the subset of Options the gesture controller reads.
type controllerConfig struct {
	minZoom, maxZoom, doubleZoom float64
	softX, softY                 bool
	longPress                    bool
	tapDelay                     time.Duration
	transition                   time.Duration
	dpr                          float64
}

func controllerConfigFrom(o Options, dpr float64) controllerConfig {
	return controllerConfig{
		minZoom:    o.MinZoom,
		maxZoom:    o.MaxZoom,
		doubleZoom: o.DoubleZoom,
		softX:      o.SoftX,
		softY:      o.SoftY,
		longPress:  o.LongPressDownload,
		tapDelay:   o.TapDelay,
		transition: o.Transition,
		dpr:        dpr,
	}
}

// soft reports whether axis a allows elastic overscroll.
func (c controllerConfig) soft(a Axis) bool {
	if a == AxisX {
		return c.softX
	}
	return c.softY
}

// controller turns gesture events into State mutations. It owns the Animator
// that eases State back into range and runs on the host's update goroutine.
type controller struct {
	st     *State
	cfg    controllerConfig
	anim   *Animator
	clock  Clock
	render func()
	log    *slog.Logger

	// gesture session
	lastDelta Vec2
	lastScale float64
	pinching  bool

	tapPending  bool
	tapDeadline time.Time
	tapCenter   Vec2

	onTap       func(center Vec2)
	onLongPress func()
	onEvent     func(t EventType)
}

// newController binds an Animator to st's Scale and Origin and returns a
// controller driving them.
func newController(st *State, cfg controllerConfig, clock Clock, render func(), log *slog.Logger) *controller {
	if clock == nil {
		clock = systemClock{}
	}
	if render == nil {
		render = func() {}
	}
	if log == nil {
		log = logger()
	}
	if !(cfg.dpr > 0) {
		cfg.dpr = 1
	}
	c := &controller{st: st, cfg: cfg, clock: clock, render: render, log: log, lastScale: 1}
	c.anim = newAnimator(clock, render, log)
	c.anim.bind(PropScale, func() float64 { return st.Scale }, func(v float64) { st.Scale = v })
	c.anim.bind(PropOriginX, func() float64 { return st.Origin.X }, func(v float64) { st.Origin.X = v })
	c.anim.bind(PropOriginY, func() float64 { return st.Origin.Y }, func(v float64) { st.Origin.Y = v })
	return c
}

// Pinching reports whether a pinch is in progress or snapping back.
func (c *controller) Pinching() bool { return c.pinching }

// tick advances transitions and fires a debounced tap whose window expired.
func (c *controller) tick() {
	c.anim.Tick()
	if c.tapPending && !c.clock.Now().Before(c.tapDeadline) {
		c.tapPending = false
		if c.onTap != nil {
			c.onTap(c.tapCenter)
		}
		c.emit(EventTap)
	}
}

// stop cancels everything. Nothing fires afterwards.
func (c *controller) stop() {
	c.tapPending = false
	c.pinching = false
	c.anim.Stop()
}

func (c *controller) emit(t EventType) {
	if c.onEvent != nil {
		c.onEvent(t)
	}
}

// handle dispatches one gesture event.
func (c *controller) handle(e *GestureEvent) {
	switch e.Type {
	case GestureTap:
		c.tap(e)
	case GestureDoubleTap:
		c.tapPending = false
		c.doubleTap(e.Center)
	case GesturePress:
		c.press()
	case GesturePanStart:
		c.panStart(e)
	case GesturePanMove:
		c.panMove(e)
	case GesturePanEnd:
		c.panEnd()
	case GesturePinchStart:
		c.pinchStart(e)
	case GesturePinchMove:
		c.pinchMove(e)
	case GesturePinchEnd:
		c.pinchEnd(e)
	}
}

// --- Tap ---

// tap starts or restarts the debounce window.
func (c *controller) tap(e *GestureEvent) {
	c.tapPending = true
	c.tapDeadline = c.clock.Now().Add(c.cfg.tapDelay)
	c.tapCenter = e.Center
}

// doubleTap toggles between DoubleZoom and MinZoom around the midpoint of
// the two.
func (c *controller) doubleTap(center Vec2) {
	c.anim.CancelAll()
	c.pinching = false
	middle := Average(c.cfg.minZoom, c.cfg.doubleZoom)
	if c.st.Scale <= middle {
		c.zoomIn(center.Mul(c.cfg.dpr), c.cfg.doubleZoom)
		return
	}
	c.zoomOut(c.cfg.minZoom, EventZoomed)
}

// zoomIn animates Scale to target about pivot (canvas pixels). The pivot is
// moved per axis so the image edge lands inside its movable range at target:
// scaling realIn about p by k gives realIn*k + p*(1-k), solved for p.
func (c *controller) zoomIn(pivot Vec2, target float64) {
	st := c.st
	k := target / st.Scale
	if k == 1 {
		c.settle()
		return
	}
	realIn := st.RealInner()
	p := [2]float64{pivot.X, pivot.Y}
	for a := AxisX; a <= AxisY; a++ {
		in := a.of(realIn)
		after := in*k + p[a]*(1-k)
		r := st.RangeAt(a, target)
		if r.Contains(after) {
			continue
		}
		p[a] = (r.Clamp(after) - in*k) / (1 - k)
	}
	c.anchorAt(Vec2{p[0], p[1]})
	c.anim.Start(PropScale, target, c.cfg.transition, func() {
		c.emit(EventZoomed)
	})
}

// anchorAt moves the origin to p, compensating the offset so nothing moves.
func (c *controller) anchorAt(p Vec2) {
	st := c.st
	real := st.RealOffset()
	st.Offset = real.Sub(p).Mul(1 / st.Scale)
	st.Origin = p
}

// zoomOut animates back to the initial placement at target scale and then
// restores the exact initial origin and offset.
func (c *controller) zoomOut(target float64, done EventType) {
	st := c.st
	if st.Scale == target && st.Origin == st.InitialOrigin && st.Offset == st.InitialOffset {
		c.render()
		c.emit(done)
		return
	}
	restore := func() {
		st.Origin = st.InitialOrigin
		st.Offset = st.InitialOffset
		c.render()
		c.emit(done)
	}
	if st.Scale == target {
		shift := st.Initial.Sub(st.RealOffset())
		to := st.Origin.Add(shift)
		c.anim.Start(PropOriginX, to.X, c.cfg.transition, nil)
		c.anim.Start(PropOriginY, to.Y, c.cfg.transition, restore)
		return
	}
	*st = st.anchorFor(st.Initial, target)
	c.anim.Start(PropScale, target, c.cfg.transition, restore)
}

// reset animates to MinZoom at the initial placement.
func (c *controller) reset() {
	c.anim.CancelAll()
	c.pinching = false
	c.tapPending = false
	c.zoomOut(c.cfg.minZoom, EventReset)
}

// press fires the long-press download affordance.
func (c *controller) press() {
	if c.cfg.longPress && c.onLongPress != nil {
		c.onLongPress()
	}
}

// --- Pan ---

func (c *controller) panStart(e *GestureEvent) {
	c.lastDelta = e.Delta()
	c.anim.Cancel(PropOriginX)
	c.anim.Cancel(PropOriginY)
}

// panMove applies the incremental delta. Hard axes keep the image edge inside
// its movable range. While pinching only the delta is tracked.
func (c *controller) panMove(e *GestureEvent) {
	d := e.Delta().Sub(c.lastDelta).Mul(c.cfg.dpr)
	c.lastDelta = e.Delta()
	if c.pinching {
		return
	}

	st := c.st
	realIn := st.RealInner()
	move := [2]float64{d.X, d.Y}
	for a := AxisX; a <= AxisY; a++ {
		if c.cfg.soft(a) {
			continue
		}
		in := a.of(realIn)
		move[a] = st.Range(a).Clamp(in+move[a]) - in
	}
	st.Origin = st.Origin.Add(Vec2{move[0], move[1]})
	e.PreventDefault()
	c.render()
}

func (c *controller) panEnd() {
	if c.pinching {
		return
	}
	c.settle()
}

// settle animates every axis whose image edge left its movable range back to
// the nearest bound. Axes already in range are untouched.
func (c *controller) settle() {
	st := c.st
	realIn := st.RealInner()
	props := [2]Property{PropOriginX, PropOriginY}
	origin := [2]float64{st.Origin.X, st.Origin.Y}
	for a := AxisX; a <= AxisY; a++ {
		in := a.of(realIn)
		r := st.Range(a)
		if r.Contains(in) {
			continue
		}
		c.anim.Start(props[a], origin[a]+r.Clamp(in)-in, c.cfg.transition, func() {
			c.emit(EventSettled)
		})
	}
}

// --- Pinch ---

func (c *controller) pinchStart(e *GestureEvent) {
	c.lastDelta = e.Delta()
	c.anim.CancelAll()
	c.lastScale = positiveOr(e.Scale, 1)
}

// pinchMove re-anchors on the focal point and applies the scale ratio since
// the previous pinch event.
func (c *controller) pinchMove(e *GestureEvent) {
	c.pinching = true
	c.anchorAt(e.Center.Mul(c.cfg.dpr))
	scale := positiveOr(e.Scale, c.lastScale)
	c.st.Scale *= scale / c.lastScale
	c.lastScale = scale
	c.render()
}

// pinchEnd snaps an out-of-bounds scale back into [MinZoom, MaxZoom] or
// settles the pan when the scale is already valid. The pan resumes from the
// delta at the end of the pinch.
func (c *controller) pinchEnd(e *GestureEvent) {
	c.lastDelta = e.Delta()
	c.lastScale = 1
	st := c.st
	target := math.Min(math.Max(st.Scale, c.cfg.minZoom), c.cfg.maxZoom)
	if target == st.Scale {
		c.pinching = false
		c.settle()
		return
	}
	c.pinching = true
	c.snapScale(target)
}

// snapScale solves the placement that lands on a valid position at target
// and animates Scale alone toward it.
func (c *controller) snapScale(target float64) {
	st := c.st
	var dest Vec2
	if target <= 1 {
		dest = st.centeredRealOffsetAt(target)
	} else {
		dest = st.clampedRealOffsetAt(target)
	}
	*st = st.anchorFor(dest, target)
	c.log.Debug("scale snap", slog.Float64("from", st.Scale), slog.Float64("to", target))
	c.anim.Start(PropScale, target, c.cfg.transition, func() {
		c.pinching = false
		c.emit(EventZoomed)
	})
}

func positiveOr(v, def float64) float64 {
	if v > 0 && !math.IsInf(v, 0) {
		return v
	}
	return def
}
