package loupe

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type viewerHarness struct {
	v      *Viewer
	render *ImageRenderer
	clock  *fakeClock
	events []ViewEvent
	taps   []Vec2
	loads  int
	errs   []error
}

func (h *viewerHarness) hasEvent(t EventType) bool {
	for _, e := range h.events {
		if e.Type == t {
			return true
		}
	}
	return false
}

func imageFetcher(img image.Image) Fetcher {
	return FetcherFunc(func(context.Context, string) (image.Image, error) { return img, nil })
}

// newTestViewer builds a viewer over a 750x375 image in a 375x375 surface
// with a CPU renderer, a fake clock and injected input only.
func newTestViewer(t *testing.T, configure func(*Options)) *viewerHarness {
	t.Helper()
	h := &viewerHarness{render: NewImageRenderer(), clock: newFakeClock()}
	opts := DefaultOptions()
	opts.Fetcher = imageFetcher(halves(750, 375))
	opts.Renderer = h.render
	opts.Clock = h.clock
	opts.Sink = EventSinkFunc(func(e ViewEvent) { h.events = append(h.events, e) })
	opts.OnTap = func(c Vec2) { h.taps = append(h.taps, c) }
	opts.OnLoad = func() { h.loads++ }
	opts.OnErr = func(err error) { h.errs = append(h.errs, err) }
	opts.ScreenshotDir = t.TempDir()
	if configure != nil {
		configure(&opts)
	}
	surface := Surface{Width: 375, Height: 375, DPR: 1}
	v, err := New(surface, "test://wide", opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r := v.Recognizer(); r != nil {
		r.DisableRealInput()
	}
	h.v = v
	t.Cleanup(func() { v.Close() })
	return h
}

// waitFor runs Update until cond holds.
func (h *viewerHarness) waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		h.v.Update()
		time.Sleep(time.Millisecond)
	}
}

func (h *viewerHarness) load(t *testing.T) {
	t.Helper()
	if err := h.v.Show(); err != nil {
		t.Fatalf("Show: %v", err)
	}
	h.waitFor(t, "load", h.v.Loaded)
}

// frames runs n updates, advancing the clock by step before each.
func (h *viewerHarness) frames(n int, step time.Duration) {
	for i := 0; i < n; i++ {
		h.clock.Advance(step)
		h.v.Update()
	}
}

func TestNewRejectsInvalidSurface(t *testing.T) {
	tests := []struct {
		name    string
		surface Surface
	}{
		{"zero dpr", Surface{Width: 100, Height: 100}},
		{"negative dpr", Surface{Width: 100, Height: 100, DPR: -1}},
		{"zero size", Surface{Width: 0, Height: 100, DPR: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.surface, "x", DefaultOptions())
			if !errors.Is(err, ErrInvalidSurface) || !IsConfigError(err) {
				t.Errorf("err = %v, want ErrInvalidSurface config error", err)
			}
		})
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.MinZoom, opts.MaxZoom = 3, 2
	_, err := New(Surface{Width: 100, Height: 100, DPR: 1}, "x", opts)
	if !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("err = %v, want ErrInvalidOptions", err)
	}
}

func TestViewerLoadLaysOut(t *testing.T) {
	h := newTestViewer(t, nil)
	if h.v.State() != (State{}) {
		t.Error("State before load should be zero")
	}
	if err := h.v.Reset(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Reset before load = %v, want ErrNotLoaded", err)
	}

	h.load(t)
	st := h.v.State()
	if st.Source != (Size{750, 375}) || st.Scale != 1 {
		t.Errorf("state = %+v", st)
	}
	if st.Origin != st.InitialOrigin || st.Offset != st.InitialOffset {
		t.Error("fresh load should sit at the initial placement")
	}
	if h.render.Frames() == 0 {
		t.Error("load should render a frame")
	}
	if h.loads != 1 || !h.hasEvent(EventLoaded) {
		t.Errorf("loads=%d events=%v", h.loads, h.events)
	}
	if !h.v.Bound() {
		t.Error("load should bind gestures")
	}
	if h.events[0].Src != "test://wide" || h.events[0].Scale != 1 {
		t.Errorf("loaded event = %+v", h.events[0])
	}
	if h.v.Image() == nil {
		t.Error("Image should be set after load")
	}
}

func TestViewerLoadFailure(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	ctxs := make(chan context.Context, 2)
	h := newTestViewer(t, func(o *Options) {
		o.Fetcher = FetcherFunc(func(ctx context.Context, _ string) (image.Image, error) {
			calls.Add(1)
			ctxs <- ctx
			return nil, boom
		})
	})
	h.v.Show()
	h.waitFor(t, "error", func() bool { return len(h.errs) == 1 })

	var le *LoadError
	if !errors.As(h.errs[0], &le) || le.Src != "test://wide" || !errors.Is(le, boom) {
		t.Errorf("err = %v, want LoadError wrapping boom", h.errs[0])
	}
	if h.v.Loaded() || h.v.Bound() {
		t.Error("failed viewer should stay inert")
	}
	if !h.hasEvent(EventLoadFailed) {
		t.Error("expected loadfailed event")
	}
	if first := <-ctxs; first.Err() == nil {
		t.Error("consumed load should release its context")
	}

	h.v.Show()
	h.waitFor(t, "retry", func() bool { return len(h.errs) == 2 })
	if calls.Load() != 2 {
		t.Errorf("fetch calls = %d, want 2", calls.Load())
	}
}

func TestViewerShowWhileLoading(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	h := newTestViewer(t, func(o *Options) {
		o.Fetcher = FetcherFunc(func(context.Context, string) (image.Image, error) {
			calls.Add(1)
			<-release
			return halves(10, 10), nil
		})
	})
	h.v.Show()
	h.v.Show()
	h.v.Update()
	close(release)
	h.waitFor(t, "load", h.v.Loaded)
	if calls.Load() != 1 {
		t.Errorf("fetch calls = %d, want 1", calls.Load())
	}
	if err := h.v.Show(); err != nil || !h.v.Bound() {
		t.Errorf("Show after load: err=%v bound=%v", err, h.v.Bound())
	}
}

func TestViewerCloseCancelsLoad(t *testing.T) {
	cancelled := make(chan struct{})
	h := newTestViewer(t, func(o *Options) {
		o.Fetcher = FetcherFunc(func(ctx context.Context, _ string) (image.Image, error) {
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		})
	})
	h.v.Show()
	if err := h.v.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("fetch context was not cancelled")
	}
	if err := h.v.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if err := h.v.Show(); !errors.Is(err, ErrClosed) {
		t.Errorf("Show after Close = %v, want ErrClosed", err)
	}
	if err := h.v.Reset(); !errors.Is(err, ErrClosed) {
		t.Errorf("Reset after Close = %v, want ErrClosed", err)
	}
	if len(h.errs) != 0 {
		t.Error("cancellation should not reach OnErr")
	}
}

func TestViewerDoubleTapZooms(t *testing.T) {
	h := newTestViewer(t, nil)
	h.load(t)
	rec := h.v.Recognizer()
	rec.InjectTap(100, 100)
	rec.InjectTap(100, 100)
	h.frames(4, 10*time.Millisecond)
	h.frames(1, 300*time.Millisecond)

	if s := h.v.State().Scale; s != 2 {
		t.Fatalf("Scale = %v, want 2", s)
	}
	h.frames(1, time.Second)
	if len(h.taps) != 0 {
		t.Errorf("taps = %v, double tap should cancel the single tap", h.taps)
	}
	if !h.hasEvent(EventZoomed) {
		t.Error("expected zoomed event")
	}

	if err := h.v.Reset(); err != nil {
		t.Fatal(err)
	}
	h.frames(1, 300*time.Millisecond)
	st := h.v.State()
	if st.Scale != 1 || st.Origin != st.InitialOrigin || st.Offset != st.InitialOffset {
		t.Errorf("state after reset = %+v", st)
	}
	if !h.hasEvent(EventReset) {
		t.Error("expected reset event")
	}
}

func TestViewerDoubleTapHonorsPixelRatio(t *testing.T) {
	h := &viewerHarness{render: NewImageRenderer(), clock: newFakeClock()}
	opts := DefaultOptions()
	opts.Fetcher = imageFetcher(halves(750, 750))
	opts.Renderer = h.render
	opts.Clock = h.clock
	v, err := New(Surface{Width: 375, Height: 375, DPR: 2}, "hi-dpi", opts)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Close()
	v.Recognizer().DisableRealInput()
	h.v = v
	h.load(t)

	if c := v.State().Canvas; c != (Size{750, 750}) {
		t.Fatalf("Canvas = %+v, want 750x750", c)
	}
	u := v.State().CanvasToBuffer(Vec2{200, 300})
	v.Recognizer().InjectTap(100, 150)
	v.Recognizer().InjectTap(100, 150)
	h.frames(4, 10*time.Millisecond)
	h.frames(1, 300*time.Millisecond)
	assertVec(t, "tap point", v.State().BufferToCanvas(u), Vec2{200, 300}, 1e-6)
}

func TestViewerTapAfterDelay(t *testing.T) {
	h := newTestViewer(t, nil)
	h.load(t)
	h.v.Recognizer().InjectTap(30, 40)
	h.frames(2, 10*time.Millisecond)
	if len(h.taps) != 0 {
		t.Fatal("tap fired before the delay")
	}
	h.frames(1, 250*time.Millisecond)
	if len(h.taps) != 1 || h.taps[0] != (Vec2{30, 40}) {
		t.Fatalf("taps = %v, want one at (30,40)", h.taps)
	}
	last := h.events[len(h.events)-1]
	if last.Type != EventTap || last.Center != (Vec2{30, 40}) {
		t.Errorf("last event = %+v, want tap at (30,40)", last)
	}
}

func TestViewerUnbindStopsGestures(t *testing.T) {
	h := newTestViewer(t, nil)
	h.load(t)
	rec := h.v.Recognizer()
	h.v.Bind()
	if rec.Count(GestureDoubleTap) != 1 {
		t.Errorf("Count = %d after double Bind, want 1", rec.Count(GestureDoubleTap))
	}

	h.v.Unbind()
	h.v.Unbind()
	if h.v.Bound() || rec.Count(GestureDoubleTap) != 0 {
		t.Fatal("Unbind should remove every handler")
	}
	rec.InjectTap(100, 100)
	rec.InjectTap(100, 100)
	h.frames(5, 100*time.Millisecond)
	if s := h.v.State().Scale; s != 1 {
		t.Errorf("Scale = %v after unbound double tap, want 1", s)
	}

	h.v.Show()
	if !h.v.Bound() {
		t.Error("Show on a loaded viewer should re-bind")
	}
}

func TestViewerExternalGestureSource(t *testing.T) {
	var g GestureHandlers
	h := newTestViewer(t, func(o *Options) { o.Gestures = &g })
	if h.v.Recognizer() != nil {
		t.Fatal("viewer should not own a recognizer")
	}
	h.load(t)
	g.Emit(&GestureEvent{Type: GestureDoubleTap, Center: Vec2{187.5, 187.5}})
	h.frames(1, 300*time.Millisecond)
	if s := h.v.State().Scale; s != 2 {
		t.Errorf("Scale = %v, want 2", s)
	}
	h.v.Close()
	if g.Count(GestureDoubleTap) != 0 {
		t.Error("Close should unbind")
	}
}

func TestViewerLongPress(t *testing.T) {
	var got image.Image
	h := newTestViewer(t, func(o *Options) {
		o.OnLongPress = func(img image.Image) { got = img }
	})
	h.load(t)
	rec := h.v.Recognizer()
	rec.InjectPress(50, 50)
	h.frames(1, 10*time.Millisecond)
	h.frames(1, 600*time.Millisecond)
	rec.InjectRelease(50, 50)
	h.frames(1, 10*time.Millisecond)

	if got == nil || got.Bounds().Dx() != 750 {
		t.Fatalf("OnLongPress image = %v", got)
	}
	if !h.hasEvent(EventLongPress) {
		t.Error("expected longpress event")
	}
	h.frames(1, time.Second)
	if len(h.taps) != 0 {
		t.Error("long press should not tap")
	}
}

func TestViewerSaveImage(t *testing.T) {
	h := newTestViewer(t, nil)
	path := filepath.Join(t.TempDir(), "saved.png")
	if err := h.v.SaveImage(path); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("SaveImage before load = %v, want ErrNotLoaded", err)
	}
	h.load(t)
	if err := h.v.SaveImage(path); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 750 || img.Bounds().Dy() != 375 {
		t.Errorf("saved bounds = %v", img.Bounds())
	}
}

func TestViewerScreenshot(t *testing.T) {
	dir := t.TempDir()
	h := newTestViewer(t, func(o *Options) { o.ScreenshotDir = dir })
	h.v.Screenshot("too early")
	h.v.Update()
	if len(h.v.Screenshots()) != 0 {
		t.Error("screenshot before load should be skipped")
	}

	h.load(t)
	h.v.Screenshot("after zoom/1")
	h.v.Update()
	paths := h.v.Screenshots()
	if len(paths) != 1 {
		t.Fatalf("Screenshots = %v, want one path", paths)
	}
	if !strings.HasSuffix(paths[0], "_after_zoom_1.png") || filepath.Dir(paths[0]) != dir {
		t.Errorf("path = %q", paths[0])
	}
	f, err := os.Open(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 375 || img.Bounds().Dy() != 375 {
		t.Errorf("screenshot bounds = %v, want the canvas", img.Bounds())
	}
}

func TestViewerBackground(t *testing.T) {
	h := newTestViewer(t, func(o *Options) {
		o.Fetcher = imageFetcher(solid(100, 100, color.White))
	})
	h.render.Background = color.Black
	h.load(t)
	if c := h.render.Canvas().RGBAAt(187, 187); c.R < 250 {
		t.Errorf("center = %v, want image pixels", c)
	}
}

func TestViewerPanContinuesAfterSecondFingerLifts(t *testing.T) {
	h := newTestViewer(t, nil)
	h.load(t)
	r := h.v.Recognizer()
	step := func(ps ...syntheticPointer) {
		r.injectFrame(ps...)
		h.frames(1, 16*time.Millisecond)
	}
	first := func(x float64) syntheticPointer {
		return syntheticPointer{id: injectPrimary, x: x, y: 187.5, pressed: true}
	}
	second := func(x float64, pressed bool) syntheticPointer {
		return syntheticPointer{id: injectSecondary, x: x, y: 187.5, pressed: pressed}
	}

	step(first(100))
	step(first(130))
	step(first(140))
	if !h.v.Loaded() || h.v.State().Scale != 1 {
		t.Fatalf("state after pan: %+v", h.v.State())
	}

	// The second finger lands mid-pan, then both drift 100px while spreading.
	step(first(140), second(240, true))
	step(first(215), second(365, true))
	if s := h.v.State().Scale; !approxEqual(s, 1.5, 1e-9) {
		t.Fatalf("Scale = %v, want 1.5", s)
	}

	step(second(365, false))
	before := h.v.State().RealInner()
	step(first(216))
	after := h.v.State().RealInner()
	assertVec(t, "pan after pinch", after.Sub(before), Vec2{1, 0}, 1e-9)

	step(syntheticPointer{id: injectPrimary, x: 216, y: 187.5})
}
