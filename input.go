package loupe

import (
	"math"
	"slices"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// --- Constants ---

const (
	mousePointerID = -1

	// DefaultPanThreshold is the distance a pointer must travel before a
	// pan starts.
	DefaultPanThreshold = 10.0
	// DefaultTapThreshold is the largest movement still counted as a tap or
	// press.
	DefaultTapThreshold = 9.0
	// DefaultTapTime is the longest a pointer may stay down for a tap.
	DefaultTapTime = 250 * time.Millisecond
	// DefaultPressTime is how long a still pointer must stay down to press.
	DefaultPressTime = 500 * time.Millisecond
	// DefaultDoubleTapInterval is the largest gap between two taps of a
	// double tap.
	DefaultDoubleTapInterval = 300 * time.Millisecond
	// DefaultDoubleTapDistance is the largest distance between two taps of a
	// double tap.
	DefaultDoubleTapDistance = 60.0
)

// RecognizerConfig holds the classification thresholds. Zero fields take the
// defaults above.
type RecognizerConfig struct {
	PanThreshold      float64
	TapThreshold      float64
	TapTime           time.Duration
	PressTime         time.Duration
	DoubleTapInterval time.Duration
	DoubleTapDistance float64
}

func (c RecognizerConfig) withDefaults() RecognizerConfig {
	if c.PanThreshold <= 0 {
		c.PanThreshold = DefaultPanThreshold
	}
	if c.TapThreshold <= 0 {
		c.TapThreshold = DefaultTapThreshold
	}
	if c.TapTime <= 0 {
		c.TapTime = DefaultTapTime
	}
	if c.PressTime <= 0 {
		c.PressTime = DefaultPressTime
	}
	if c.DoubleTapInterval <= 0 {
		c.DoubleTapInterval = DefaultDoubleTapInterval
	}
	if c.DoubleTapDistance <= 0 {
		c.DoubleTapDistance = DefaultDoubleTapDistance
	}
	return c
}

// --- Per-pointer state ---

// pointerSample is one pointer that is down this frame, in logical pixels.
type pointerSample struct {
	id  int
	pos Vec2
}

// session tracks one gesture from the first pointer down to the last one up.
type session struct {
	start     time.Time
	anchor    Vec2 // centroid the current delta is measured from
	base      Vec2 // delta accumulated before the last pointer-count change
	delta     Vec2
	center    Vec2
	maxMove   float64
	maxCount  int
	panning   bool
	pinched   bool
	pressed   bool
	pinching  bool
	pinchDist float64
	pinchMid  Vec2
	lastDist  float64
	scale     float64
}

// Recognizer turns Ebitengine mouse and touch input into classified gesture
// events: tap, doubletap, press, pan and pinch. Call Update once per tick.
// Positions are reported in logical pixels (device pixels divided by the
// pixel ratio).
type Recognizer struct {
	GestureHandlers

	cfg   RecognizerConfig
	dpr   float64
	clock Clock

	tracked []pointerSample
	sess    session

	lastTapAt  time.Time
	lastTapPos Vec2
	haveTap    bool

	// poll reads the real pointers in device pixels. Nil disables real
	// input so only injected frames drive the recognizer.
	poll     func(buf []pointerSample) []pointerSample
	pollBuf  []pointerSample
	touchIDs []ebiten.TouchID
	order    []ebiten.TouchID

	injectQueue [][]syntheticPointer
	synthetic   []pointerSample
}

// NewRecognizer creates a recognizer polling Ebitengine input. dpr is the
// device pixel ratio used to convert cursor positions to logical pixels.
func NewRecognizer(dpr float64, clock Clock) *Recognizer {
	return NewRecognizerWithConfig(dpr, clock, RecognizerConfig{})
}

// NewRecognizerWithConfig is NewRecognizer with custom thresholds.
func NewRecognizerWithConfig(dpr float64, clock Clock, cfg RecognizerConfig) *Recognizer {
	if !(dpr > 0) {
		dpr = 1
	}
	if clock == nil {
		clock = systemClock{}
	}
	r := &Recognizer{cfg: cfg.withDefaults(), dpr: dpr, clock: clock}
	r.poll = r.pollEbiten
	return r
}

// SetDPR changes the device pixel ratio used for real input.
func (r *Recognizer) SetDPR(dpr float64) {
	if dpr > 0 {
		r.dpr = dpr
	}
}

// DisableRealInput stops polling Ebitengine so only injected input is seen.
func (r *Recognizer) DisableRealInput() { r.poll = nil }

// Active returns the number of pointers currently down.
func (r *Recognizer) Active() int { return len(r.tracked) }

// --- Input processing ---

// Update reads one frame of input and emits the gestures it completes. An
// injected frame, when queued, replaces real input for the frame.
func (r *Recognizer) Update() {
	if down, ok := r.processInjectedInput(); ok {
		r.step(down)
		return
	}
	if len(r.synthetic) > 0 {
		r.step(r.synthetic)
		return
	}
	if r.poll == nil {
		r.step(nil)
		return
	}
	r.pollBuf = r.poll(r.pollBuf[:0])
	r.step(r.pollBuf)
}

// pollEbiten reads the mouse (left button) and all touches, converting to
// logical pixels. Touches keep the order they went down in so the first two
// fingers stay the pinch pair.
func (r *Recognizer) pollEbiten(buf []pointerSample) []pointerSample {
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		buf = append(buf, pointerSample{id: mousePointerID, pos: Vec2{float64(mx) / r.dpr, float64(my) / r.dpr}})
	}

	r.touchIDs = ebiten.AppendTouchIDs(r.touchIDs[:0])
	r.order = slices.DeleteFunc(r.order, func(id ebiten.TouchID) bool {
		return !slices.Contains(r.touchIDs, id)
	})
	for _, id := range inpututil.AppendJustPressedTouchIDs(nil) {
		if !slices.Contains(r.order, id) {
			r.order = append(r.order, id)
		}
	}
	for _, id := range r.touchIDs {
		if !slices.Contains(r.order, id) {
			r.order = append(r.order, id)
		}
	}
	for _, id := range r.order {
		tx, ty := ebiten.TouchPosition(id)
		buf = append(buf, pointerSample{id: int(id), pos: Vec2{float64(tx) / r.dpr, float64(ty) / r.dpr}})
	}
	return buf
}

// step diffs the pointers down this frame against the previous frame and runs
// the classifier.
func (r *Recognizer) step(down []pointerSample) {
	now := r.clock.Now()
	prev := len(r.tracked)

	next := make([]pointerSample, 0, len(down))
	for _, p := range r.tracked {
		if i := indexOfPointer(down, p.id); i >= 0 {
			next = append(next, down[i])
		}
	}
	for _, p := range down {
		if indexOfPointer(next, p.id) < 0 {
			next = append(next, p)
		}
	}
	changed := prev != len(next) || !samePointerSet(r.tracked, next)
	released := r.tracked
	r.tracked = next

	count := len(next)
	switch {
	case prev == 0 && count == 0:
		return
	case prev == 0:
		r.begin(now, next)
	case count == 0:
		r.end(now, released)
		return
	case changed:
		// Keep the pan delta continuous across finger changes.
		r.sess.base = r.sess.delta
		r.sess.anchor = centroid(next)
	}

	s := &r.sess
	if count > s.maxCount {
		s.maxCount = count
	}
	s.center = centroid(next)
	delta := s.base.Add(s.center.Sub(s.anchor))
	moved := delta != s.delta
	s.delta = delta
	if d := math.Hypot(delta.X, delta.Y); d > s.maxMove {
		s.maxMove = d
	}

	r.detectPinch(next)

	switch {
	case !s.panning && s.maxMove > r.cfg.PanThreshold:
		s.panning = true
		r.emit(GesturePanStart, s.center, count)
	case s.panning && moved:
		r.emit(GesturePanMove, s.center, count)
	}

	if count == 1 && !s.panning && !s.pinched && !s.pressed &&
		s.maxMove < r.cfg.TapThreshold && now.Sub(s.start) >= r.cfg.PressTime {
		s.pressed = true
		r.emit(GesturePress, s.center, count)
	}
}

// begin opens a new gesture session.
func (r *Recognizer) begin(now time.Time, down []pointerSample) {
	c := centroid(down)
	r.sess = session{start: now, anchor: c, center: c, scale: 1}
}

// end closes the session when the last pointer lifts.
func (r *Recognizer) end(now time.Time, released []pointerSample) {
	s := &r.sess
	if len(released) > 0 {
		s.center = centroid(released)
	}
	if s.pinching {
		s.pinching = false
		r.emit(GesturePinchEnd, s.pinchMid, 0)
	}
	if s.panning {
		r.emit(GesturePanEnd, s.center, 0)
		return
	}
	if s.pinched || s.pressed || s.maxCount > 1 ||
		s.maxMove >= r.cfg.TapThreshold || now.Sub(s.start) > r.cfg.TapTime {
		return
	}

	r.emit(GestureTap, s.center, 0)
	if r.haveTap && now.Sub(r.lastTapAt) <= r.cfg.DoubleTapInterval &&
		math.Hypot(s.center.X-r.lastTapPos.X, s.center.Y-r.lastTapPos.Y) <= r.cfg.DoubleTapDistance {
		r.haveTap = false
		r.emit(GestureDoubleTap, s.center, 0)
		return
	}
	r.haveTap = true
	r.lastTapAt = now
	r.lastTapPos = s.center
}

// --- Pinch detection ---

// detectPinch tracks the first two pointers as the pinch pair.
func (r *Recognizer) detectPinch(down []pointerSample) {
	s := &r.sess
	if len(down) < 2 {
		if s.pinching {
			s.pinching = false
			r.emit(GesturePinchEnd, s.pinchMid, len(down))
		}
		return
	}
	a, b := down[0].pos, down[1].pos
	dist := math.Hypot(b.X-a.X, b.Y-a.Y)
	mid := Vec2{Average(a.X, b.X), Average(a.Y, b.Y)}

	if !s.pinching {
		s.pinching = true
		s.pinched = true
		s.pinchDist = dist
		s.lastDist = dist
		s.pinchMid = mid
		s.scale = 1
		r.emit(GesturePinchStart, mid, len(down))
		return
	}
	if dist == s.lastDist && mid == s.pinchMid {
		return
	}
	s.lastDist = dist
	s.pinchMid = mid
	if s.pinchDist > 0 {
		s.scale = dist / s.pinchDist
	}
	r.emit(GesturePinchMove, mid, len(down))
}

// --- Event dispatch ---

func (r *Recognizer) emit(t GestureType, center Vec2, pointers int) {
	scale := 1.0
	if t >= GesturePinchStart {
		scale = r.sess.scale
	}
	r.Emit(&GestureEvent{
		Type:     t,
		Center:   center,
		DeltaX:   r.sess.delta.X,
		DeltaY:   r.sess.delta.Y,
		Scale:    scale,
		Pointers: pointers,
	})
}

func centroid(ps []pointerSample) Vec2 {
	if len(ps) == 0 {
		return Vec2{}
	}
	var c Vec2
	for _, p := range ps {
		c = c.Add(p.pos)
	}
	return c.Mul(1 / float64(len(ps)))
}

func indexOfPointer(ps []pointerSample, id int) int {
	for i := range ps {
		if ps[i].id == id {
			return i
		}
	}
	return -1
}

func samePointerSet(a, b []pointerSample) bool {
	if len(a) != len(b) {
		return false
	}
	for _, p := range a {
		if indexOfPointer(b, p.id) < 0 {
			return false
		}
	}
	return true
}
