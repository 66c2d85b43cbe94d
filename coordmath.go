package loupe

import "math"

// fitEpsilon absorbs division error before floor rounding in FitSize so an
// exact match does not lose a pixel.
const fitEpsilon = 1e-9

// RelativeToReal maps a local, unscaled coordinate to canvas space.
func RelativeToReal(relative, origin, scale float64) float64 {
	return relative*scale + origin
}

// RealToRelative maps a canvas-space coordinate back to local, unscaled space.
// It is the inverse of RelativeToReal for any non-zero scale.
func RealToRelative(real, origin, scale float64) float64 {
	return (real - origin) / scale
}

// MovableRange returns the interval a content edge of size inner may occupy
// inside a viewport of size outer at the given scale without exposing empty
// canvas. Content that fits is centered and the range collapses to a point.
func MovableRange(inner, outer, scale float64) Range {
	after := inner * scale
	if after <= outer {
		c := (outer - after) / 2
		return Range{Min: c, Max: c}
	}
	return Range{Min: outer - after, Max: 0}
}

// FitSize scales a source of sw x sh so it covers a cw x ch container. One
// axis matches the container exactly and the other overflows it; the
// overflowing axis is floor-rounded. Width is matched when the source is
// narrower than the container, which keeps the other axis covering it.
func FitSize(sw, sh, cw, ch float64) Size {
	if sw/sh < cw/ch {
		return Size{W: cw, H: math.Floor(cw*sh/sw + fitEpsilon)}
	}
	return Size{W: math.Floor(ch*sw/sh + fitEpsilon), H: ch}
}

// Ease is a quarter-circle ease-out curve: sqrt(1 - (x-1)^2). It is only
// defined on [0, 1]; callers clamp x first.
func Ease(x float64) float64 {
	return math.Sqrt(1 - (x-1)*(x-1))
}

// Average returns the midpoint of a and b.
func Average(a, b float64) float64 {
	return (a + b) / 2
}

// DiagonalSize returns the square that holds s at any 90 degree rotation,
// with both sides equal to the ceiled diagonal of s.
func DiagonalSize(s Size) Size {
	d := math.Ceil(math.Hypot(s.W, s.H))
	return Size{W: d, H: d}
}

// NormalizeAngle reduces deg modulo 360. Angles that are not multiples of 90
// become 0.
func NormalizeAngle(deg int) int {
	if deg%90 != 0 {
		return 0
	}
	return ((deg % 360) + 360) % 360
}

// clamp01 restricts x to [0, 1].
func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
