package tileui

// HookType identifies an observation point fired by the core.
type HookType uint8

const (
	HookNodeCreated    HookType = iota // a node was attached to a created root, or a root was created
	HookSetXYWH                        // a root changed position or size
	HookEnabled                        // a root was enabled or disabled
	HookLoadRoot                       // a root finished loading its provider
	HookRemoveProvider                 // a destroyed root released an isolated provider
	HookPreApply                       // a root is about to materialize its tiles
	HookPostApply                      // a root finished materializing its tiles
	HookTouched                        // a node consumed a touch
)

func (h HookType) String() string {
	switch h {
	case HookNodeCreated:
		return "node-created"
	case HookSetXYWH:
		return "set-xywh"
	case HookEnabled:
		return "enabled"
	case HookLoadRoot:
		return "load-root"
	case HookRemoveProvider:
		return "remove-provider"
	case HookPreApply:
		return "pre-apply"
	case HookPostApply:
		return "post-apply"
	case HookTouched:
		return "touched"
	}
	return "unknown"
}

// HookEvent carries the data of one hook. Fields not relevant to Type are
// zero.
type HookEvent struct {
	Type     HookType
	Root     *Root
	Node     *Node
	Region   Rect
	Enabled  bool
	Provider Provider
	Touch    *Touch
}

// HookSink is the interface for an optional event bus. When set on a UI,
// every hook is forwarded to it.
type HookSink interface {
	EmitHook(event HookEvent)
}

// HookFunc adapts a function to HookSink.
type HookFunc func(HookEvent)

// EmitHook calls f(event).
func (f HookFunc) EmitHook(event HookEvent) { f(event) }

func (u *UI) emit(event HookEvent) {
	u.hookMu.RLock()
	sink := u.hooks
	u.hookMu.RUnlock()
	if sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			u.handleError(&CallbackError{Node: "hooks", Op: event.Type.String() + " hook", Value: r})
		}
	}()
	sink.EmitHook(event)
}
