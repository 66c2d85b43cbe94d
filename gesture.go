package loupe

// GestureEvent is one classified gesture. Positions and deltas are in logical
// (CSS) pixels; the controller multiplies by the surface pixel ratio.
type GestureEvent struct {
	Type GestureType
	// Center is the pointer position, or the centroid of all pointers.
	Center Vec2
	// DeltaX and DeltaY are the accumulated pan displacement since the
	// gesture session began. They stay continuous when fingers are added or
	// lifted mid-gesture.
	DeltaX, DeltaY float64
	// Scale is the pinch distance ratio relative to pinchstart (1 otherwise).
	Scale float64
	// Pointers is the number of pointers down when the event fired.
	Pointers int

	prevented bool
}

// PreventDefault marks the event as consumed by the viewer.
func (e *GestureEvent) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether a handler called PreventDefault.
func (e *GestureEvent) DefaultPrevented() bool { return e.prevented }

// Delta returns (DeltaX, DeltaY) as a vector.
func (e *GestureEvent) Delta() Vec2 { return Vec2{e.DeltaX, e.DeltaY} }

// Handle removes a registered gesture callback.
type Handle interface {
	Remove()
}

// GestureSource delivers classified gesture events to registered callbacks.
type GestureSource interface {
	On(t GestureType, fn func(*GestureEvent)) Handle
}

// --- Handler registry ---

type gestureHandler struct {
	id uint32
	fn func(*GestureEvent)
}

// GestureHandlers is a GestureSource backed by per-type callback lists. Embed
// it in a recognizer and call Emit for each classified event. The zero value
// is ready to use.
type GestureHandlers struct {
	lists  [gestureTypeCount][]gestureHandler
	nextID uint32
}

// callbackHandle removes one entry from a GestureHandlers list.
type callbackHandle struct {
	id  uint32
	reg *GestureHandlers
	typ GestureType
}

// Remove unregisters the callback so it no longer fires. Removing twice is
// harmless.
func (h callbackHandle) Remove() {
	if h.reg == nil || h.typ >= gestureTypeCount {
		return
	}
	h.reg.lists[h.typ] = removeGestureHandler(h.reg.lists[h.typ], h.id)
}

func removeGestureHandler(s []gestureHandler, id uint32) []gestureHandler {
	for i := range s {
		if s[i].id == id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = gestureHandler{}
			return s[:len(s)-1]
		}
	}
	return s
}

// On registers fn for events of type t.
func (g *GestureHandlers) On(t GestureType, fn func(*GestureEvent)) Handle {
	if t >= gestureTypeCount || fn == nil {
		return callbackHandle{}
	}
	g.nextID++
	id := g.nextID
	g.lists[t] = append(g.lists[t], gestureHandler{id: id, fn: fn})
	return callbackHandle{id: id, reg: g, typ: t}
}

// Emit delivers e to every callback registered for e.Type, in registration
// order.
func (g *GestureHandlers) Emit(e *GestureEvent) {
	if e.Type >= gestureTypeCount {
		return
	}
	for _, h := range g.lists[e.Type] {
		h.fn(e)
	}
}

// Count returns the number of callbacks registered for t.
func (g *GestureHandlers) Count(t GestureType) int {
	if t >= gestureTypeCount {
		return 0
	}
	return len(g.lists[t])
}
