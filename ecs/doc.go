// Package ecs provides ECS adapters for loupe viewer events.
//
// The primary adapter is [NewDonburiSink], which bridges loupe view events
// (loaded, tap, zoomed, settled, reset, long press) into a [Donburi] world as
// typed events. Subscribe to [ViewEventType] in your ECS systems to receive
// them.
//
// Usage:
//
//	opts := loupe.DefaultOptions()
//	opts.Sink = ecs.NewDonburiSink(world)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
