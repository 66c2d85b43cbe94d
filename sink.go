package loupe

var eventNames = [...]string{"loaded", "loadfailed", "tap", "zoomed", "settled", "reset", "longpress"}

// String returns the lower-case event name.
func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// ViewEvent is a viewer-level event forwarded to an EventSink.
type ViewEvent struct {
	Type EventType
	// Src is the image source the viewer shows.
	Src string
	// Scale, Origin and Offset are the placement when the event fired.
	Scale  float64
	Origin Vec2
	Offset Vec2
	// Center is the tap position in logical pixels (EventTap only).
	Center Vec2
	// Err is the load failure (EventLoadFailed only).
	Err error
}

// EventSink receives viewer events. The ecs module ships a donburi-backed
// sink.
type EventSink interface {
	EmitEvent(event ViewEvent)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(event ViewEvent)

// EmitEvent calls f.
func (f EventSinkFunc) EmitEvent(event ViewEvent) { f(event) }
