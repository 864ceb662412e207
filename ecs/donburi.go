package ecs

import (
	"sync"

	"github.com/phanxgames/tileui"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// HookEventType is the Donburi event type for tileui hooks.
var HookEventType = events.NewEventType[tileui.HookEvent]()

// DonburiHooks is a HookSink backed by a Donburi world. Hooks may fire from
// any goroutine that touches or syncs the UI; they are buffered and only
// published into the world by ProcessEvents, which must run on the goroutine
// that owns the world.
type DonburiHooks struct {
	world donburi.World
	only  map[tileui.HookType]bool

	mu      sync.Mutex
	pending []tileui.HookEvent
}

// NewDonburiHooks creates a HookSink publishing to HookEventType. When types
// are given, only hooks of those types are published.
func NewDonburiHooks(world donburi.World, types ...tileui.HookType) *DonburiHooks {
	h := &DonburiHooks{world: world}
	if len(types) > 0 {
		h.only = make(map[tileui.HookType]bool, len(types))
		for _, t := range types {
			h.only[t] = true
		}
	}
	return h
}

// EmitHook buffers event until the next ProcessEvents.
func (h *DonburiHooks) EmitHook(event tileui.HookEvent) {
	if h.only != nil && !h.only[event.Type] {
		return
	}
	h.mu.Lock()
	h.pending = append(h.pending, event)
	h.mu.Unlock()
}

// Pending returns the number of buffered hooks.
func (h *DonburiHooks) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// ProcessEvents publishes the buffered hooks and delivers them to
// subscribers. Hooks fired by subscribers are delivered on the next call.
func (h *DonburiHooks) ProcessEvents() {
	h.mu.Lock()
	pending := h.pending
	h.pending = nil
	h.mu.Unlock()

	for _, e := range pending {
		HookEventType.Publish(h.world, e)
	}
	HookEventType.ProcessEvents(h.world)
}
