package tileui

// TouchContext carries the data of a consumed touch to scene-level handlers.
type TouchContext struct {
	Node      *Node
	Root      *Root
	User      int
	State     TouchState
	Session   int64
	AbsoluteX int
	AbsoluteY int
	LocalX    int
	LocalY    int
}

// --- Handler registry ---

type touchHandler struct {
	id uint32
	fn func(TouchContext)
}

type handlerRegistry struct {
	touched []touchHandler
	nextID  uint32
}

// CallbackHandle allows removing a registered scene-level callback.
type CallbackHandle struct {
	id uint32
	ui *UI
}

// Remove unregisters this callback so it no longer fires.
func (h CallbackHandle) Remove() {
	if h.ui == nil {
		return
	}
	h.ui.handlerMu.Lock()
	defer h.ui.handlerMu.Unlock()
	s := h.ui.handlers.touched
	for i := range s {
		if s[i].id == h.id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = touchHandler{}
			h.ui.handlers.touched = s[:len(s)-1]
			return
		}
	}
}

// OnTouch registers a callback fired after any node consumes a touch, once
// the node's own callback has run.
func (u *UI) OnTouch(fn func(TouchContext)) CallbackHandle {
	u.handlerMu.Lock()
	defer u.handlerMu.Unlock()
	u.handlers.nextID++
	id := u.handlers.nextID
	u.handlers.touched = append(u.handlers.touched, touchHandler{id: id, fn: fn})
	return CallbackHandle{id: id, ui: u}
}

func (u *UI) fireTouched(n *Node, t *Touch) {
	u.handlerMu.Lock()
	handlers := make([]touchHandler, len(u.handlers.touched))
	copy(handlers, u.handlers.touched)
	u.handlerMu.Unlock()

	ctx := TouchContext{
		Node: n, Root: n.Root(), User: t.User(), State: t.State, Session: t.SessionIndex,
		AbsoluteX: t.AbsoluteX, AbsoluteY: t.AbsoluteY, LocalX: t.X, LocalY: t.Y,
	}
	for _, h := range handlers {
		u.safeCall(n, "touch handler", func() { h.fn(ctx) })
	}
	u.emit(HookEvent{Type: HookTouched, Root: ctx.Root, Node: n, Touch: t})
}

// --- Routing ---

// touched routes t through the subtree rooted at n. t.X and t.Y are relative
// to n. It reports whether the touch was consumed: either by a node in the
// subtree or by a lock that disabled the session.
func (u *UI) touched(n *Node, t *Touch) bool {
	if !u.canTouch(n, t) {
		return !t.Session.Enabled()
	}
	return u.touchedChild(n, t) || (canTouchThis(n, t) && u.touchedThis(n, t))
}

// canTouch reports whether t may reach n or anything below it.
func (u *UI) canTouch(n *Node, t *Touch) (ok bool) {
	if !n.IsActive() || n.isLocked(t, u.now()) {
		return false
	}
	if n.Config.CanTouch == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			u.handleError(&CallbackError{Node: n.Name, Op: "can touch", Value: r})
			ok = false
		}
	}()
	return n.Config.CanTouch(n, t)
}

// touchedChild offers t to n's children front-to-back. The touch is moved
// into each candidate's frame and always moved back before returning.
func (u *UI) touchedChild(n *Node, t *Touch) bool {
	for _, child := range n.ChildrenFromTop() {
		if !t.Session.Enabled() {
			return true
		}
		cx, cy := child.XY()
		if !child.IsActiveThis() || !child.Contains(t.X, t.Y) {
			continue
		}
		t.Move(-cx, -cy)
		consumed := u.touched(child, t)
		t.Move(cx, cy)
		if consumed {
			return true
		}
	}
	return false
}

// canTouchThis checks whether n itself listens to t's state and, for moving
// and end touches, whether the press-session began on n.
func canTouchThis(n *Node, t *Touch) bool {
	if !n.Config.listens(t.State) {
		return false
	}
	if t.State == TouchBegin || !n.Config.BeginRequire {
		return true
	}
	begin := t.Session.BeginTouch()
	return begin != nil && begin.Node == n
}

// touchedThis makes n the consumer of t.
func (u *UI) touchedThis(n *Node, t *Touch) bool {
	t.Node = n
	n.trySetLock(t, u.now())

	if n.asRoot != nil {
		u.SetTop(n.asRoot)
	} else if p := n.Parent(); p != nil && p.Config.Ordered && n.Orderable() {
		p.SetTop(n)
	}

	if cb := n.Callback; cb != nil {
		u.safeCall(n, "callback", func() { cb(n, t) })
	}

	if n.Config.SessionAcquire {
		t.Session.setAcquired(n)
	}
	u.fireTouched(n, t)
	return true
}

// safeCall runs fn, turning a panic into a CallbackError reported to the
// error handler.
func (u *UI) safeCall(n *Node, op string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			u.handleError(&CallbackError{Node: n.Name, Op: op, Value: r})
		}
	}()
	fn()
}
