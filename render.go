package loupe

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	xdraw "golang.org/x/image/draw"
)

// Frame is what a Renderer needs to paint one canvas: the draw buffer sits at
// Offset in local space, scaled by Scale about Origin.
type Frame struct {
	Origin Vec2
	Offset Vec2
	Scale  float64
	Draw   Size
	Canvas Size
}

// frameOf extracts the paint parameters from s.
func frameOf(s State) Frame {
	return Frame{Origin: s.Origin, Offset: s.Offset, Scale: s.Scale, Draw: s.Draw, Canvas: s.Canvas}
}

// Matrix maps draw-buffer pixels to canvas pixels:
// Translate(Origin) * Scale(Scale) * Translate(Offset).
func (f Frame) Matrix() [6]float64 {
	m := translateAffine(f.Origin.X, f.Origin.Y)
	m = multiplyAffine(m, scaleAffine(f.Scale, f.Scale))
	return multiplyAffine(m, translateAffine(f.Offset.X, f.Offset.Y))
}

// Renderer paints the draw buffer onto a canvas.
type Renderer interface {
	// SetSource installs the square, pre-rotated draw buffer and sizes the
	// canvas in device pixels. Called once per load.
	SetSource(buf image.Image, canvas Size)
	// Render clears the canvas and paints buf with f's transform.
	Render(f Frame)
}

// Snapshotter is implemented by renderers that can return the last rendered
// canvas as a straight-alpha image.
type Snapshotter interface {
	Snapshot() image.Image
}

// --- Draw buffer ---

// buildBuffer rotates img by st.Angle and scales it to st.Source, centered in
// a st.Draw square so any 90 degree rotation fits.
func buildBuffer(img image.Image, st State) *image.RGBA {
	dw := int(math.Ceil(st.Draw.W))
	dh := int(math.Ceil(st.Draw.H))
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))

	b := img.Bounds()
	if b.Empty() || dw == 0 || dh == 0 {
		return dst
	}
	// Pre-rotation fitted size: Source already carries the rotated axes.
	fw, fh := st.Source.W, st.Source.H
	if st.Angle == 90 || st.Angle == 270 {
		fw, fh = fh, fw
	}
	m := translateAffine(st.Draw.W/2, st.Draw.H/2)
	m = multiplyAffine(m, rotateAffine(st.Angle))
	m = multiplyAffine(m, translateAffine(-fw/2, -fh/2))
	m = multiplyAffine(m, scaleAffine(fw/float64(b.Dx()), fh/float64(b.Dy())))
	m = multiplyAffine(m, translateAffine(-float64(b.Min.X), -float64(b.Min.Y)))

	xdraw.ApproxBiLinear.Transform(dst, toAff3(m), img, b, xdraw.Over, nil)
	return dst
}

// --- Ebitengine renderer ---

// EbitenRenderer paints into an offscreen ebiten.Image canvas that DrawTo
// copies onto the screen.
type EbitenRenderer struct {
	// Background fills the canvas before each frame. Nil leaves it
	// transparent.
	Background color.Color

	canvas *ebiten.Image
	buffer *ebiten.Image
	op     ebiten.DrawImageOptions
}

// NewEbitenRenderer returns a renderer with a transparent background.
func NewEbitenRenderer() *EbitenRenderer {
	return &EbitenRenderer{}
}

// SetSource uploads buf and allocates the canvas.
func (r *EbitenRenderer) SetSource(buf image.Image, canvas Size) {
	r.Dispose()
	r.buffer = ebiten.NewImageFromImage(buf)
	r.canvas = ebiten.NewImage(max(1, int(canvas.W)), max(1, int(canvas.H)))
}

// Render repaints the canvas.
func (r *EbitenRenderer) Render(f Frame) {
	if r.canvas == nil || r.buffer == nil {
		return
	}
	r.canvas.Clear()
	if r.Background != nil {
		r.canvas.Fill(r.Background)
	}
	r.op.GeoM.Reset()
	r.op.GeoM.Translate(f.Offset.X, f.Offset.Y)
	r.op.GeoM.Scale(f.Scale, f.Scale)
	r.op.GeoM.Translate(f.Origin.X, f.Origin.Y)
	r.op.Filter = ebiten.FilterLinear
	r.canvas.DrawImage(r.buffer, &r.op)
}

// DrawTo copies the canvas onto screen at its top-left.
func (r *EbitenRenderer) DrawTo(screen *ebiten.Image) {
	if r.canvas != nil {
		screen.DrawImage(r.canvas, nil)
	}
}

// Canvas returns the offscreen canvas, or nil before SetSource.
func (r *EbitenRenderer) Canvas() *ebiten.Image { return r.canvas }

// Snapshot reads the canvas back from the GPU. It must be called while the
// game loop is running.
func (r *EbitenRenderer) Snapshot() image.Image {
	if r.canvas == nil {
		return nil
	}
	return readPixels(r.canvas)
}

// Dispose releases the GPU images.
func (r *EbitenRenderer) Dispose() {
	if r.buffer != nil {
		r.buffer.Deallocate()
		r.buffer = nil
	}
	if r.canvas != nil {
		r.canvas.Deallocate()
		r.canvas = nil
	}
}

// --- CPU renderer ---

// ImageRenderer paints into an in-memory RGBA canvas with x/image/draw. It
// needs no GPU, so tests and headless tools use it.
type ImageRenderer struct {
	// Background fills the canvas before each frame. Defaults to
	// transparent.
	Background color.Color
	// Interpolator resamples the buffer. Defaults to ApproxBiLinear.
	Interpolator xdraw.Interpolator

	canvas *image.RGBA
	source image.Image
	frames int
	last   Frame
}

// NewImageRenderer returns a CPU renderer.
func NewImageRenderer() *ImageRenderer {
	return &ImageRenderer{}
}

// SetSource stores buf and allocates the canvas.
func (r *ImageRenderer) SetSource(buf image.Image, canvas Size) {
	r.source = buf
	r.canvas = image.NewRGBA(image.Rect(0, 0, max(1, int(canvas.W)), max(1, int(canvas.H))))
	r.frames = 0
}

// Render repaints the canvas.
func (r *ImageRenderer) Render(f Frame) {
	if r.canvas == nil || r.source == nil {
		return
	}
	bg := r.Background
	if bg == nil {
		bg = color.Transparent
	}
	draw.Draw(r.canvas, r.canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	interp := r.Interpolator
	if interp == nil {
		interp = xdraw.ApproxBiLinear
	}
	interp.Transform(r.canvas, toAff3(f.Matrix()), r.source, r.source.Bounds(), xdraw.Over, nil)
	r.frames++
	r.last = f
}

// Frames returns how many frames were rendered since SetSource.
func (r *ImageRenderer) Frames() int { return r.frames }

// LastFrame returns the most recent frame.
func (r *ImageRenderer) LastFrame() Frame { return r.last }

// Canvas returns the live canvas, or nil before SetSource.
func (r *ImageRenderer) Canvas() *image.RGBA { return r.canvas }

// Snapshot returns a copy of the canvas.
func (r *ImageRenderer) Snapshot() image.Image {
	if r.canvas == nil {
		return nil
	}
	out := image.NewRGBA(r.canvas.Bounds())
	copy(out.Pix, r.canvas.Pix)
	return out
}
