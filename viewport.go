package loupe

// State is a snapshot of a viewer's placement: where the local coordinate
// system sits on the canvas, how far it is scaled, and where the square draw
// buffer sits inside it.
//
// All derived quantities are computed on demand from the base fields by
// value-receiver methods, so a State can be copied, compared and inspected
// freely without going stale.
type State struct {
	// Scale is the current zoom factor. It is always positive and lies in
	// [MinZoom, MaxZoom] at rest; an active pinch may overshoot it.
	Scale float64
	// Angle is the buffer rotation in degrees: 0, 90, 180 or 270.
	Angle int
	// Origin is the canvas-space point the local origin maps to.
	Origin Vec2
	// Offset is the top-left of the draw buffer in local, unscaled
	// coordinates relative to Origin.
	Offset Vec2

	// Canvas is the device-pixel canvas size.
	Canvas Size
	// Source is the fitted image size inside the canvas.
	Source Size
	// Draw is the square buffer size that holds Source at any rotation.
	Draw Size

	// InitialOrigin and InitialOffset are the placement captured when the
	// image was first rendered.
	InitialOrigin Vec2
	InitialOffset Vec2
	// Initial is the real position of the buffer's top-left at that
	// placement. Reset animates back to it.
	Initial Vec2
}

// newState returns a State centered on the canvas with nothing loaded yet.
func newState(canvas Size, scale float64, angle int) State {
	return State{
		Scale:  scale,
		Angle:  NormalizeAngle(angle),
		Origin: Vec2{canvas.W / 2, canvas.H / 2},
		Canvas: canvas,
	}
}

// layout sizes the state for a loaded image of the given pixel dimensions
// and places the buffer centered on the origin.
func (s State) layout(imgW, imgH float64) State {
	if s.Angle == 90 || s.Angle == 270 {
		imgW, imgH = imgH, imgW
	}
	s.Source = FitSize(imgW, imgH, s.Canvas.W, s.Canvas.H)
	s.Draw = DiagonalSize(s.Source)
	s.Origin = Vec2{s.Canvas.W / 2, s.Canvas.H / 2}
	s.Offset = Vec2{-s.Draw.W / 2, -s.Draw.H / 2}
	s.InitialOrigin = s.Origin
	s.InitialOffset = s.Offset
	s.Initial = s.RealOffset()
	return s
}

// margin is the distance from the buffer's top-left to the image's top-left
// in local coordinates.
func (s State) margin() Vec2 {
	return Vec2{(s.Draw.W - s.Source.W) / 2, (s.Draw.H - s.Source.H) / 2}
}

// Inner returns the image's top-left in local coordinates.
func (s State) Inner() Vec2 {
	return s.Offset.Add(s.margin())
}

// RealOffset returns the buffer's top-left in canvas space.
func (s State) RealOffset() Vec2 {
	return Vec2{
		RelativeToReal(s.Offset.X, s.Origin.X, s.Scale),
		RelativeToReal(s.Offset.Y, s.Origin.Y, s.Scale),
	}
}

// RealInner returns the image's top-left in canvas space.
func (s State) RealInner() Vec2 {
	in := s.Inner()
	return Vec2{
		RelativeToReal(in.X, s.Origin.X, s.Scale),
		RelativeToReal(in.Y, s.Origin.Y, s.Scale),
	}
}

// Range returns the movable range of the image's real top-left on axis a at
// the current scale.
func (s State) Range(a Axis) Range {
	return s.RangeAt(a, s.Scale)
}

// RangeAt returns the movable range on axis a at an arbitrary scale.
func (s State) RangeAt(a Axis, scale float64) Range {
	return MovableRange(a.ofSize(s.Source), a.ofSize(s.Canvas), scale)
}

// InBounds reports whether the image edge lies inside its movable range on
// both axes.
func (s State) InBounds() bool {
	in := s.RealInner()
	return s.Range(AxisX).Contains(in.X) && s.Range(AxisY).Contains(in.Y)
}

// Overshoot returns how far the image edge lies outside its movable range on
// axis a. It is zero when in range, negative below Min and positive above Max.
func (s State) Overshoot(a Axis) float64 {
	v := a.of(s.RealInner())
	r := s.Range(a)
	return v - r.Clamp(v)
}

// ViewMatrix maps draw-buffer pixels to canvas pixels:
// Translate(Origin) * Scale(Scale) * Translate(Offset).
func (s State) ViewMatrix() [6]float64 {
	return frameOf(s).Matrix()
}

// CanvasToBuffer converts a canvas-space point to draw-buffer pixels.
func (s State) CanvasToBuffer(p Vec2) Vec2 {
	x, y := transformPoint(invertAffine(s.ViewMatrix()), p.X, p.Y)
	return Vec2{x, y}
}

// BufferToCanvas converts a draw-buffer pixel to canvas space.
func (s State) BufferToCanvas(p Vec2) Vec2 {
	x, y := transformPoint(s.ViewMatrix(), p.X, p.Y)
	return Vec2{x, y}
}

// clampedRealOffsetAt returns the buffer's real top-left after scaling about
// the current origin to scale, with the image edge pulled back inside its
// movable range per axis.
func (s State) clampedRealOffsetAt(scale float64) Vec2 {
	in := s.Inner()
	m := s.margin()
	realIn := Vec2{
		s.RangeAt(AxisX, scale).Clamp(RelativeToReal(in.X, s.Origin.X, scale)),
		s.RangeAt(AxisY, scale).Clamp(RelativeToReal(in.Y, s.Origin.Y, scale)),
	}
	return Vec2{realIn.X - m.X*scale, realIn.Y - m.Y*scale}
}

// centeredRealOffsetAt returns the buffer's real top-left when the image is
// centered on the canvas at scale.
func (s State) centeredRealOffsetAt(scale float64) Vec2 {
	return Vec2{
		RelativeToReal(-s.Draw.W/2, s.Canvas.W/2, scale),
		RelativeToReal(-s.Draw.H/2, s.Canvas.H/2, scale),
	}
}

// anchorFor solves the placement that keeps the current real position at the
// current scale and lands on target at scale: x*Scale + o = real and
// x*scale + o = target per axis. Animating Scale alone from the returned
// state then moves the buffer linearly from where it is to target.
func (s State) anchorFor(target Vec2, scale float64) State {
	if scale == s.Scale {
		s.Origin = s.Origin.Add(target.Sub(s.RealOffset()))
		return s
	}
	real := s.RealOffset()
	d := scale - s.Scale
	x := (target.X - real.X) / d
	y := (target.Y - real.Y) / d
	s.Offset = Vec2{x, y}
	s.Origin = Vec2{target.X - x*scale, target.Y - y*scale}
	return s
}
