package loupe

// syntheticPointer is one pointer in an injected frame. Coordinates are
// logical pixels, the same space gesture events report.
type syntheticPointer struct {
	id      int
	x, y    float64
	pressed bool
}

// Pointer ids used by the inject helpers.
const (
	injectPrimary   = 0
	injectSecondary = 1
)

// injectFrame queues one frame of synthetic pointers. Pointers left out of a
// frame keep their previous state; pressed=false releases a pointer at the
// given position.
func (r *Recognizer) injectFrame(ps ...syntheticPointer) {
	r.injectQueue = append(r.injectQueue, ps)
}

// InjectPress queues a primary pointer press at (x, y). The event is consumed
// on the next Update.
func (r *Recognizer) InjectPress(x, y float64) {
	r.injectFrame(syntheticPointer{id: injectPrimary, x: x, y: y, pressed: true})
}

// InjectMove queues a move of the held primary pointer to (x, y).
func (r *Recognizer) InjectMove(x, y float64) {
	r.injectFrame(syntheticPointer{id: injectPrimary, x: x, y: y, pressed: true})
}

// InjectRelease queues the primary pointer's release at (x, y).
func (r *Recognizer) InjectRelease(x, y float64) {
	r.injectFrame(syntheticPointer{id: injectPrimary, x: x, y: y})
}

// InjectTap queues a press followed by a release at the same point. Consumes
// two frames.
func (r *Recognizer) InjectTap(x, y float64) {
	r.InjectPress(x, y)
	r.InjectRelease(x, y)
}

// InjectDrag queues a full drag sequence: press at (fromX, fromY), linearly
// interpolated moves over frames-2 intermediate frames, and release at
// (toX, toY). Minimum frames is 2 (press + release).
func (r *Recognizer) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	r.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		r.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	r.InjectRelease(toX, toY)
}

// InjectPinch queues a two-finger pinch about (cx, cy): both fingers go down
// fromDist apart on a horizontal line, spread to toDist over the given
// frames, then lift together.
func (r *Recognizer) InjectPinch(cx, cy, fromDist, toDist float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	at := func(d float64, pressed bool) {
		r.injectFrame(
			syntheticPointer{id: injectPrimary, x: cx - d/2, y: cy, pressed: pressed},
			syntheticPointer{id: injectSecondary, x: cx + d/2, y: cy, pressed: pressed},
		)
	}
	at(fromDist, true)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		at(fromDist+(toDist-fromDist)*t, true)
	}
	at(toDist, true)
	at(toDist, false)
}

// Pending returns the number of injected frames not yet consumed.
func (r *Recognizer) Pending() int { return len(r.injectQueue) }

// processInjectedInput pops one injected frame and returns the synthetic
// pointers held down after it. Returns false if nothing was queued.
func (r *Recognizer) processInjectedInput() ([]pointerSample, bool) {
	if len(r.injectQueue) == 0 {
		return nil, false
	}
	frame := r.injectQueue[0]
	copy(r.injectQueue, r.injectQueue[1:])
	r.injectQueue = r.injectQueue[:len(r.injectQueue)-1]

	for _, p := range frame {
		pos := Vec2{p.x, p.y}
		i := indexOfPointer(r.synthetic, p.id)
		switch {
		case p.pressed && i >= 0:
			r.synthetic[i].pos = pos
		case p.pressed:
			r.synthetic = append(r.synthetic, pointerSample{id: p.id, pos: pos})
		case i >= 0:
			r.synthetic = append(r.synthetic[:i], r.synthetic[i+1:]...)
			// The release position becomes the pointer's last known position.
			if j := indexOfPointer(r.tracked, p.id); j >= 0 {
				r.tracked[j].pos = pos
			}
		}
	}
	return r.synthetic, true
}
