package ecs

import (
	"github.com/phanxgames/loupe"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// ViewEventType is the Donburi event type for loupe view events.
// Subscribe to this in your ECS systems to receive load, tap and zoom events.
var ViewEventType = events.NewEventType[loupe.ViewEvent]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world.
// View events are published to ViewEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) loupe.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(event loupe.ViewEvent) {
	ViewEventType.Publish(s.world, event)
}
