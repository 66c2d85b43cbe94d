package loupe

import (
	"log/slog"
	"time"

	"github.com/tanema/gween"
)

// DefaultTransitionDuration is how long settle-back and zoom animations run.
const DefaultTransitionDuration = 200 * time.Millisecond

// Property identifies a numeric State field the Animator can drive.
type Property uint8

const (
	PropScale   Property = iota // State.Scale
	PropOriginX                 // State.Origin.X
	PropOriginY                 // State.Origin.Y
	propertyCount
)

var propertyNames = [propertyCount]string{"scale", "originX", "originY"}

// String returns the property name.
func (p Property) String() string {
	if p < propertyCount {
		return propertyNames[p]
	}
	return "unknown"
}

// Clock supplies the current time for transitions and tap debouncing.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// accessor reads and writes one Property on the animated state.
type accessor struct {
	get func() float64
	set func(float64)
}

// Transition is one running animation of a Property toward a target value.
// It is driven by Animator.Tick and never runs concurrently with another
// Transition on the same Property.
type Transition struct {
	prop       Property
	from, to   float64
	start      time.Time
	last       time.Time
	duration   time.Duration
	tween      *gween.Tween
	onComplete func()
	done       bool
}

// Property returns the animated property.
func (t *Transition) Property() Property { return t.prop }

// Target returns the value the transition ends on.
func (t *Transition) Target() float64 { return t.to }

// Done reports whether the transition finished or was superseded.
func (t *Transition) Done() bool { return t.done }

// quarterCircle adapts Ease to gween's easing signature.
func quarterCircle(t, b, c, d float32) float32 {
	if d <= 0 {
		return b + c
	}
	return b + c*float32(Ease(clamp01(float64(t/d))))
}

// Animator eases Properties toward targets, one frame per Tick. It is
// cooperative: it never sleeps or spawns goroutines, it only advances when
// the host calls Tick.
type Animator struct {
	clock   Clock
	props   [propertyCount]accessor
	active  map[Property]*Transition
	render  func()
	log     *slog.Logger
	stopped bool
}

// newAnimator creates an Animator that calls render after every frame it
// applies.
func newAnimator(clock Clock, render func(), log *slog.Logger) *Animator {
	if clock == nil {
		clock = systemClock{}
	}
	if render == nil {
		render = func() {}
	}
	if log == nil {
		log = logger()
	}
	return &Animator{
		clock:  clock,
		active: make(map[Property]*Transition, propertyCount),
		render: render,
		log:    log,
	}
}

// bind attaches the accessor pair for p.
func (a *Animator) bind(p Property, get func() float64, set func(float64)) {
	a.props[p] = accessor{get: get, set: set}
}

// Start animates p from its current value to target over d and calls
// onComplete once the target is reached. A transition already running on p
// is stopped first and its callback never fires. The first frame is applied
// and rendered immediately. After Stop, Start is a no-op and returns nil.
func (a *Animator) Start(p Property, target float64, d time.Duration, onComplete func()) *Transition {
	if a.stopped || p >= propertyCount || a.props[p].get == nil {
		return nil
	}
	a.Cancel(p)

	now := a.clock.Now()
	t := &Transition{
		prop:       p,
		from:       a.props[p].get(),
		to:         target,
		start:      now,
		last:       now,
		duration:   d,
		onComplete: onComplete,
	}

	if d <= 0 {
		a.props[p].set(target)
		t.done = true
		a.render()
		if onComplete != nil {
			onComplete()
		}
		return t
	}

	t.tween = gween.New(0, 1, float32(d.Seconds()), quarterCircle)
	a.active[p] = t
	a.props[p].set(t.from)
	a.render()
	a.log.Debug("transition start",
		slog.String("prop", p.String()),
		slog.Float64("from", t.from),
		slog.Float64("to", target),
		slog.Duration("duration", d))
	return t
}

// Tick advances every running transition to the current clock time, renders
// once if anything moved, and then runs completion callbacks in property
// order. Finished transitions land exactly on their target.
func (a *Animator) Tick() {
	if a.stopped || len(a.active) == 0 {
		return
	}
	now := a.clock.Now()

	var finished []*Transition
	for p := Property(0); p < propertyCount; p++ {
		t := a.active[p]
		if t == nil {
			continue
		}
		if now.Sub(t.start) >= t.duration {
			a.props[p].set(t.to)
			t.done = true
			delete(a.active, p)
			finished = append(finished, t)
			continue
		}
		progress, _ := t.tween.Update(float32(now.Sub(t.last).Seconds()))
		t.last = now
		a.props[p].set(t.from + (t.to-t.from)*float64(progress))
	}
	a.render()

	for _, t := range finished {
		a.log.Debug("transition done", slog.String("prop", t.prop.String()), slog.Float64("value", t.to))
		if t.onComplete != nil && !a.stopped {
			t.onComplete()
		}
	}
}

// Cancel stops the transition on p, if any, leaving the property at its
// current value. The cancelled transition's callback never fires.
func (a *Animator) Cancel(p Property) {
	if t := a.active[p]; t != nil {
		t.done = true
		delete(a.active, p)
	}
}

// CancelAll stops every running transition.
func (a *Animator) CancelAll() {
	for p := Property(0); p < propertyCount; p++ {
		a.Cancel(p)
	}
}

// Stop cancels everything and makes the Animator inert. No callback fires
// after Stop returns.
func (a *Animator) Stop() {
	a.CancelAll()
	a.stopped = true
}

// Active reports whether p currently has a running transition.
func (a *Animator) Active(p Property) bool {
	return a.active[p] != nil
}

// Len returns the number of running transitions.
func (a *Animator) Len() int {
	return len(a.active)
}
