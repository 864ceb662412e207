// Package ecs provides ECS adapters for tileui's hook bus.
//
// The primary adapter is [NewDonburiHooks], which publishes every tileui hook
// (node created, geometry changed, enabled, apply, touched) into a [Donburi]
// world as a typed event. Subscribe to [HookEventType] in your ECS systems to
// receive them.
//
// Usage:
//
//	hooks := ecs.NewDonburiHooks(world)
//	ui.SetHookSink(hooks)
//	// each frame:
//	hooks.ProcessEvents()
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
