package tileui

// injectedTouch is a single queued synthetic touch in world coordinates.
type injectedTouch struct {
	user  int
	x, y  int
	state TouchState
}

// InjectTouch queues a touch of user at world (x, y). Queued touches are
// routed one per sync pass, before roots are applied.
func (u *UI) InjectTouch(user, x, y int, state TouchState) {
	u.injectMu.Lock()
	u.injectQueue = append(u.injectQueue, injectedTouch{user: user, x: x, y: y, state: state})
	u.injectMu.Unlock()
}

// InjectPress queues a begin touch followed by an end touch at the same
// position. Consumes two passes.
func (u *UI) InjectPress(user, x, y int) {
	u.InjectTouch(user, x, y, TouchBegin)
	u.InjectTouch(user, x, y, TouchEnd)
}

// InjectDrag queues a full drag: begin at (fromX, fromY), moving touches
// interpolated over steps-2 intermediate passes, and end at (toX, toY).
// Minimum steps is 2 (begin + end).
func (u *UI) InjectDrag(user, fromX, fromY, toX, toY, steps int) {
	if steps < 2 {
		steps = 2
	}
	u.InjectTouch(user, fromX, fromY, TouchBegin)
	moves := steps - 2
	for i := 1; i <= moves; i++ {
		x := fromX + (toX-fromX)*i/(moves+1)
		y := fromY + (toY-fromY)*i/(moves+1)
		u.InjectTouch(user, x, y, TouchMoving)
	}
	u.InjectTouch(user, toX, toY, TouchEnd)
}

// Pending returns the number of queued synthetic touches.
func (u *UI) Pending() int {
	u.injectMu.Lock()
	defer u.injectMu.Unlock()
	return len(u.injectQueue)
}

// processInjected pops one queued touch and routes it. Reports whether a
// touch was routed.
func (u *UI) processInjected() bool {
	u.injectMu.Lock()
	if len(u.injectQueue) == 0 {
		u.injectMu.Unlock()
		return false
	}
	evt := u.injectQueue[0]
	copy(u.injectQueue, u.injectQueue[1:])
	u.injectQueue = u.injectQueue[:len(u.injectQueue)-1]
	u.injectMu.Unlock()

	u.Touched(evt.user, evt.x, evt.y, evt.state)
	return true
}
