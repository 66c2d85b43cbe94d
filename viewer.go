package loupe

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Surface describes the container a viewer renders into: its logical size and
// device pixel ratio. The canvas is Width*DPR by Height*DPR device pixels.
type Surface struct {
	Width, Height float64
	DPR           float64
}

// Canvas returns the device-pixel canvas size.
func (s Surface) Canvas() Size {
	return Size{W: math.Round(s.Width * s.DPR), H: math.Round(s.Height * s.DPR)}
}

func (s Surface) validate() error {
	switch {
	case !(s.DPR > 0) || math.IsInf(s.DPR, 0):
		return &ConfigError{Field: "dpr", Reason: fmt.Sprintf("must be positive, got %v", s.DPR), Err: ErrInvalidSurface}
	case s.Canvas().IsEmpty():
		return &ConfigError{Field: "size", Reason: fmt.Sprintf("no renderable area: %vx%v", s.Width, s.Height), Err: ErrInvalidSurface}
	}
	return nil
}

// Viewer is an interactive image viewport: it loads one image, fits it to the
// surface and lets the user pan, pinch and double-tap zoom it. All methods
// must be called from the goroutine that calls Update.
type Viewer struct {
	src     string
	surface Surface
	opts    Options
	log     *slog.Logger
	clock   Clock

	fetcher    Fetcher
	gestures   GestureSource
	recognizer *Recognizer // set when the viewer owns its recognizer
	renderer   Renderer
	sink       EventSink

	state State
	ctrl  *controller
	image image.Image

	loading bool
	loaded  bool
	closed  bool
	pending <-chan loadResult
	cancel  context.CancelFunc

	handles []Handle

	script          *ScriptRunner
	screenshotQueue []string
	lastScreenshots []string

	debug debugStats
	fps   *fpsMeter
}

// New validates surface and opts and returns an idle viewer. Call Show to
// start loading src. Zero numeric options take their defaults; start from
// DefaultOptions to keep the boolean defaults.
func New(surface Surface, src string, opts Options) (*Viewer, error) {
	log := opts.Logger
	if log == nil {
		if !opts.Log.isZero() {
			log = NewLogger(opts.Log)
		} else {
			log = logger()
		}
	}
	if err := surface.validate(); err != nil {
		log.Warn("invalid surface", slog.Any("err", err))
		return nil, err
	}
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		log.Warn("invalid options", slog.Any("err", err))
		return nil, err
	}

	v := &Viewer{
		src:      src,
		surface:  surface,
		opts:     opts,
		log:      log.With(slog.String("src", src)),
		clock:    opts.Clock,
		fetcher:  opts.Fetcher,
		gestures: opts.Gestures,
		renderer: opts.Renderer,
		sink:     opts.Sink,
	}
	if v.clock == nil {
		v.clock = systemClock{}
	}
	if v.fetcher == nil {
		v.fetcher = SourceFetcher{}
	}
	if v.gestures == nil {
		v.recognizer = NewRecognizer(surface.DPR, v.clock)
		v.gestures = v.recognizer
	}
	if v.renderer == nil {
		v.renderer = NewEbitenRenderer()
	}

	v.state = newState(surface.Canvas(), opts.MinZoom, opts.Angled)
	v.ctrl = newController(&v.state, controllerConfigFrom(opts, surface.DPR), v.clock, v.render, v.log)
	v.ctrl.onTap = func(center Vec2) {
		if v.opts.OnTap != nil {
			v.opts.OnTap(center)
		}
	}
	v.ctrl.onLongPress = v.longPress
	v.ctrl.onEvent = func(t EventType) {
		e := ViewEvent{Type: t}
		if t == EventTap {
			e.Center = v.ctrl.tapCenter
		}
		v.emitEvent(e)
	}
	return v, nil
}

// Show starts loading the image. While a load is in flight it does nothing;
// once loaded it re-binds gestures. A failed load may be retried with Show.
func (v *Viewer) Show() error {
	if v.closed {
		return ErrClosed
	}
	if v.loaded {
		v.Bind()
		return nil
	}
	if v.loading {
		return nil
	}
	v.releaseLoad()
	ctx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel
	v.loading = true
	v.pending = startFetch(ctx, v.fetcher, v.src)
	v.log.Debug("load start")
	return nil
}

// Bind registers the viewer's gesture handlers. Binding twice is a no-op.
func (v *Viewer) Bind() {
	if v.closed || len(v.handles) > 0 {
		return
	}
	for t := GestureType(0); t < gestureTypeCount; t++ {
		v.handles = append(v.handles, v.gestures.On(t, v.ctrl.handle))
	}
	v.log.Debug("gestures bound")
}

// Unbind removes the gesture handlers. Unbinding when unbound is a no-op.
func (v *Viewer) Unbind() {
	if len(v.handles) == 0 {
		return
	}
	for _, h := range v.handles {
		h.Remove()
	}
	v.handles = v.handles[:0]
	v.log.Debug("gestures unbound")
}

// Bound reports whether gesture handlers are registered.
func (v *Viewer) Bound() bool { return len(v.handles) > 0 }

// Reset animates back to MinZoom at the initial placement.
func (v *Viewer) Reset() error {
	if v.closed {
		return ErrClosed
	}
	if !v.loaded {
		return ErrNotLoaded
	}
	v.ctrl.reset()
	return nil
}

// Update advances the viewer by one tick: it consumes a finished load, reads
// input, advances transitions and the tap debounce, and writes queued
// screenshots. Call it from ebiten.Game.Update.
func (v *Viewer) Update() error {
	if v.closed {
		return nil
	}
	var t0 time.Time
	if v.opts.Debug {
		t0 = time.Now()
	}

	v.pollLoad()
	if v.script != nil {
		v.script.step(v)
	}
	if v.recognizer != nil {
		v.recognizer.Update()
	}
	if v.loaded {
		v.ctrl.tick()
	}
	v.flushScreenshots()

	if v.opts.Debug {
		v.debug.updateTime = time.Since(t0)
		v.debug.transitions = v.ctrl.anim.Len()
		v.debugLog()
	}
	return nil
}

// Draw copies the canvas onto screen and, in debug mode, draws the state
// overlay. Renderers without a GPU canvas draw nothing here.
func (v *Viewer) Draw(screen *ebiten.Image) {
	if v.closed {
		return
	}
	if d, ok := v.renderer.(interface{ DrawTo(*ebiten.Image) }); ok {
		d.DrawTo(screen)
	}
	if v.opts.Debug {
		v.drawDebug(screen)
	}
}

// Close cancels a pending load, stops every transition and unbinds gestures.
// It is safe to call more than once.
func (v *Viewer) Close() error {
	if v.closed {
		return nil
	}
	v.Unbind()
	v.closed = true
	v.releaseLoad()
	v.ctrl.stop()
	if d, ok := v.renderer.(interface{ Dispose() }); ok {
		d.Dispose()
	}
	v.log.Debug("closed")
	return nil
}

// State returns a snapshot of the current placement. It is the zero State
// until the image has loaded.
func (v *Viewer) State() State {
	if !v.loaded {
		return State{}
	}
	return v.state
}

// Loaded reports whether the image has been fetched and rendered.
func (v *Viewer) Loaded() bool { return v.loaded }

// Image returns the decoded source image, or nil before load.
func (v *Viewer) Image() image.Image { return v.image }

// Recognizer returns the viewer's own recognizer, or nil when gestures come
// from Options.Gestures.
func (v *Viewer) Recognizer() *Recognizer { return v.recognizer }

// Renderer returns the renderer in use.
func (v *Viewer) Renderer() Renderer { return v.renderer }

// Screenshots returns the paths written by the most recent flush.
func (v *Viewer) Screenshots() []string { return v.lastScreenshots }

// SaveImage writes the loaded source image to path as PNG.
func (v *Viewer) SaveImage(path string) error {
	if !v.loaded {
		return ErrNotLoaded
	}
	if err := writePNG(path, v.image); err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}

// --- Loading ---

// pollLoad consumes the fetch result once it is ready.
func (v *Viewer) pollLoad() {
	if !v.loading {
		return
	}
	select {
	case res := <-v.pending:
		v.loading = false
		v.pending = nil
		v.releaseLoad()
		v.finishLoad(res)
	default:
	}
}

// releaseLoad cancels the current load context, if any.
func (v *Viewer) releaseLoad() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

func (v *Viewer) finishLoad(res loadResult) {
	if res.err != nil {
		err := &LoadError{Src: v.src, Err: res.err}
		if errors.Is(res.err, context.Canceled) {
			v.log.Debug("load cancelled")
			return
		}
		v.log.Warn("load failed", slog.Any("err", err), slog.Duration("elapsed", res.elapsed))
		if v.opts.OnErr != nil {
			v.opts.OnErr(err)
		}
		v.emitEvent(ViewEvent{Type: EventLoadFailed, Err: err})
		return
	}

	b := res.img.Bounds()
	v.image = res.img
	v.state = newState(v.surface.Canvas(), v.opts.MinZoom, v.opts.Angled).layout(float64(b.Dx()), float64(b.Dy()))
	v.renderer.SetSource(buildBuffer(res.img, v.state), v.state.Canvas)
	v.loaded = true
	v.render()
	v.Bind()

	v.log.Debug("loaded",
		slog.Int("width", b.Dx()),
		slog.Int("height", b.Dy()),
		slog.Float64("fitW", v.state.Source.W),
		slog.Float64("fitH", v.state.Source.H),
		slog.Duration("elapsed", res.elapsed))
	if v.opts.OnLoad != nil {
		v.opts.OnLoad()
	}
	v.emitEvent(ViewEvent{Type: EventLoaded})
}

// render paints the current state.
func (v *Viewer) render() {
	if !v.loaded || v.closed {
		return
	}
	var t0 time.Time
	if v.opts.Debug {
		t0 = time.Now()
	}
	v.renderer.Render(frameOf(v.state))
	if v.opts.Debug {
		v.debug.renderTime += time.Since(t0)
		v.debug.renders++
	}
}

// longPress hands the loaded image to OnLongPress.
func (v *Viewer) longPress() {
	if !v.loaded || v.opts.OnLongPress == nil {
		return
	}
	v.opts.OnLongPress(v.image)
	v.emitEvent(ViewEvent{Type: EventLongPress})
}

func (v *Viewer) emitEvent(e ViewEvent) {
	if v.sink == nil {
		return
	}
	e.Src = v.src
	e.Scale = v.state.Scale
	e.Origin = v.state.Origin
	e.Offset = v.state.Offset
	v.sink.EmitEvent(e)
}
