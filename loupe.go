package loupe

import "math"

// Vec2 is a 2D vector used for positions, offsets and deltas throughout the
// API.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Mul returns v scaled by k on both axes.
func (v Vec2) Mul(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }

// Size is a width/height pair in pixels.
type Size struct {
	W, H float64
}

// IsEmpty reports whether either dimension is not a positive finite number.
func (s Size) IsEmpty() bool {
	return !(s.W > 0) || !(s.H > 0) || math.IsInf(s.W, 0) || math.IsInf(s.H, 0)
}

// Range is a closed [Min, Max] interval of real coordinates. A collapsed
// range (Min == Max) means the content cannot move on that axis.
type Range struct {
	Min, Max float64
}

// Collapsed reports whether the range is a single point.
func (r Range) Collapsed() bool {
	return r.Min == r.Max
}

// Clamp restricts v to the range.
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Contains reports whether v lies inside the range. Edges are inside.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Axis selects a horizontal or vertical component.
type Axis uint8

const (
	AxisX Axis = iota // horizontal
	AxisY             // vertical
)

// of returns the component of v on axis a.
func (a Axis) of(v Vec2) float64 {
	if a == AxisX {
		return v.X
	}
	return v.Y
}

// ofSize returns the dimension of s on axis a.
func (a Axis) ofSize(s Size) float64 {
	if a == AxisX {
		return s.W
	}
	return s.H
}

// GestureType identifies a kind of recognized gesture event.
type GestureType uint8

const (
	GestureTap        GestureType = iota // single tap, not yet debounced
	GestureDoubleTap                     // second tap close in time and space
	GesturePress                         // long press without movement
	GesturePanStart                      // movement exceeded the pan threshold
	GesturePanMove                       // pan continues
	GesturePanEnd                        // all pointers released after a pan
	GesturePinchStart                    // a second pointer went down
	GesturePinchMove                     // pinch distance or center changed
	GesturePinchEnd                      // fewer than two pointers remain
	gestureTypeCount
)

var gestureNames = [gestureTypeCount]string{
	"tap", "doubletap", "press",
	"panstart", "panmove", "panend",
	"pinchstart", "pinchmove", "pinchend",
}

// String returns the lower-case event name ("panmove", "pinchend", ...).
func (t GestureType) String() string {
	if t < gestureTypeCount {
		return gestureNames[t]
	}
	return "unknown"
}

// ParseGestureType maps an event name back to its GestureType.
func ParseGestureType(name string) (GestureType, bool) {
	for i, n := range gestureNames {
		if n == name {
			return GestureType(i), true
		}
	}
	return 0, false
}

// EventType identifies a viewer-level event forwarded to an EventSink.
type EventType uint8

const (
	EventLoaded     EventType = iota // image fetched, sized and first frame drawn
	EventLoadFailed                  // fetch or decode failed
	EventTap                         // debounced single tap
	EventZoomed                      // a scale transition finished
	EventSettled                     // an origin transition finished
	EventReset                       // the view returned to its initial placement
	EventLongPress                   // long press with download enabled
)
