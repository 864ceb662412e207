package tileui

import (
	"math"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Tween moves a node to a target position over time. Positions are snapped
// to whole tiles and written through SetXY, so moving a root repositions its
// provider and redraws observers. If the target node is disposed, the tween
// stops immediately.
//
// Run a tween by hand with Update or hand it to UI.AddTween to have the sync
// pass advance it.
type Tween struct {
	x, y   *gween.Tween
	target *Node
	Done   bool
}

// TweenPosition creates a Tween moving node to (toX, toY) over duration
// using the easing function.
func TweenPosition(node *Node, toX, toY int, duration time.Duration, fn ease.TweenFunc) *Tween {
	x, y := node.XY()
	d := float32(duration.Seconds())
	return &Tween{
		x:      gween.New(float32(x), float32(toX), d, fn),
		y:      gween.New(float32(y), float32(toY), d, fn),
		target: node,
	}
}

// Update advances the tween by dt and moves the node.
func (tw *Tween) Update(dt time.Duration) {
	if tw.Done {
		return
	}
	if tw.target.IsDisposed() {
		tw.Done = true
		return
	}
	s := float32(dt.Seconds())
	x, xDone := tw.x.Update(s)
	y, yDone := tw.y.Update(s)
	tw.Done = xDone && yDone
	tw.target.SetXY(int(math.Round(float64(x))), int(math.Round(float64(y))))
}

// AddTween schedules tw to be advanced by every Update until it is done.
func (u *UI) AddTween(tw *Tween) {
	u.tweenMu.Lock()
	u.tweens = append(u.tweens, tw)
	u.tweenMu.Unlock()
}

func (u *UI) updateTweens(dt time.Duration) {
	u.tweenMu.Lock()
	tweens := u.tweens
	u.tweens = nil
	u.tweenMu.Unlock()

	live := tweens[:0]
	for _, tw := range tweens {
		tw.Update(dt)
		if !tw.Done {
			live = append(live, tw)
		}
	}

	u.tweenMu.Lock()
	u.tweens = append(live, u.tweens...)
	u.tweenMu.Unlock()
}
