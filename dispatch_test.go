package tileui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenario builds root R (100x100) holding child A (0,0,50,50) in front of
// sibling B (0,0,100,100), both listening to begin touches.
func scenario(t *testing.T, lock *LockConfig) (*testUI, *Root, *counter, *counter) {
	t.Helper()
	u := newTestUI(t, 100, 100)
	r := mustRoot(t, "R", 0, 0, 100, 100, RootConfig{Node: RootNodeConfig()})

	var a, b counter
	cfgA := DefaultNodeConfig()
	cfgA.Lock = lock
	r.AddChild(NewLeaf("B", 0, 0, 100, 100, DefaultNodeConfig(), b.fn))
	r.AddChild(NewLeaf("A", 0, 0, 50, 50, cfgA, a.fn))
	require.NoError(t, u.Create(r))
	return u, r, &a, &b
}

func TestFrontToBackPrecedence(t *testing.T) {
	u, _, a, b := scenario(t, nil)

	assert.True(t, u.Touched(1, 10, 10, TouchBegin))
	assert.Equal(t, 1, a.n())
	assert.Equal(t, 0, b.n())

	assert.True(t, u.Touched(1, 70, 70, TouchBegin))
	assert.Equal(t, 1, b.n(), "outside A the touch reaches B")
}

func TestOrderedParentReordersForLaterTouches(t *testing.T) {
	u := newTestUI(t, 100, 100)
	cfg := RootNodeConfig()
	cfg.Ordered = true
	r := mustRoot(t, "R", 0, 0, 100, 100, RootConfig{Node: cfg})

	var a, b counter
	var sawBFront bool
	bNode := NewLeaf("B", 0, 0, 100, 100, DefaultNodeConfig(), func(n *Node, t *Touch) {
		b.fn(n, t)
		// the reorder happens before the callback but after hit-testing
		sawBFront = r.ChildrenFromTop()[0] == n
	})
	r.AddChild(bNode)
	aNode := r.AddChild(NewLeaf("A", 0, 0, 50, 50, DefaultNodeConfig(), a.fn))
	require.NoError(t, u.Create(r))

	require.True(t, u.Touched(1, 70, 70, TouchBegin))
	assert.Equal(t, 1, b.n())
	assert.True(t, sawBFront)
	assert.Equal(t, []*Node{bNode, aNode}, r.ChildrenFromTop())

	require.True(t, u.Touched(1, 10, 10, TouchBegin))
	assert.Equal(t, 2, b.n(), "B is now in front of A")
	assert.Equal(t, 0, a.n())
}

func TestNotOrderableStaysBehind(t *testing.T) {
	u := newTestUI(t, 100, 100)
	cfg := RootNodeConfig()
	cfg.Ordered = true
	r := mustRoot(t, "R", 0, 0, 100, 100, RootConfig{Node: cfg})
	var b counter
	bNode := r.AddChild(NewLeaf("B", 0, 0, 100, 100, DefaultNodeConfig(), b.fn))
	bNode.SetOrderable(false)
	aNode := r.AddChild(NewLeaf("A", 0, 0, 50, 50, DefaultNodeConfig(), nil))
	require.NoError(t, u.Create(r))

	require.True(t, u.Touched(1, 70, 70, TouchBegin))
	assert.Equal(t, []*Node{aNode, bNode}, r.ChildrenFromTop())
}

func TestBeginContinuity(t *testing.T) {
	u := newTestUI(t, 100, 100)
	r := mustRoot(t, "R", 0, 0, 100, 100, RootConfig{Node: RootNodeConfig()})

	cfg := DefaultNodeConfig()
	cfg.UseMoving = true
	cfg.UseEnd = true
	cfg.SessionAcquire = false
	var a, c counter
	r.AddChild(NewLeaf("A", 0, 0, 10, 10, cfg, a.fn))
	r.AddChild(NewLeaf("C", 20, 0, 10, 10, cfg, c.fn))
	require.NoError(t, u.Create(r))

	require.True(t, u.Touched(1, 25, 5, TouchBegin))
	assert.Equal(t, 1, c.n())

	assert.False(t, u.Touched(1, 5, 5, TouchMoving), "A never saw the begin")
	assert.False(t, u.Touched(1, 5, 5, TouchEnd))
	assert.Equal(t, 0, a.n())

	require.True(t, u.Touched(1, 5, 5, TouchBegin))
	assert.True(t, u.Touched(1, 6, 6, TouchMoving))
	assert.True(t, u.Touched(1, 6, 6, TouchEnd))
	assert.Equal(t, 3, a.n())
}

func TestWithoutBeginRequire(t *testing.T) {
	u := newTestUI(t, 100, 100)
	r := mustRoot(t, "R", 0, 0, 100, 100, RootConfig{Node: NodeConfig{}})

	cfg := NodeConfig{UseBegin: true, UseMoving: true}
	var a counter
	r.AddChild(NewLeaf("A", 0, 0, 10, 10, cfg, a.fn))
	r.AddChild(NewLeaf("C", 20, 0, 10, 10, cfg, nil))
	require.NoError(t, u.Create(r))

	require.True(t, u.Touched(1, 25, 5, TouchBegin))
	assert.True(t, u.Touched(1, 5, 5, TouchMoving), "A takes moving touches from any press-session")
	assert.Equal(t, 1, a.n())
}

func TestMovingWithoutBeginIsIgnored(t *testing.T) {
	u, _, a, b := scenario(t, nil)
	assert.False(t, u.Touched(1, 10, 10, TouchMoving))
	assert.False(t, u.Touched(1, 10, 10, TouchEnd))
	assert.Zero(t, a.n()+b.n())
}

func TestSessionIndexAdvances(t *testing.T) {
	u, _, _, _ := scenario(t, nil)
	s := u.Sessions().Get(1)
	assert.Equal(t, int64(0), s.Index())

	u.Touched(1, 10, 10, TouchBegin)
	assert.True(t, s.Pressed())
	assert.Equal(t, int64(0), s.Index())
	u.Touched(1, 10, 10, TouchEnd)
	assert.False(t, s.Pressed())
	assert.Equal(t, int64(1), s.Index())

	u.Touched(1, 10, 10, TouchBegin)
	u.Touched(1, 10, 10, TouchBegin) // unfinished session replaced
	assert.Equal(t, int64(2), s.Index())
	assert.NotNil(t, s.PreviousTouch())
}

func TestAcquiredSessionRouting(t *testing.T) {
	tests := []struct {
		name     string
		outside  bool
		consumed bool
	}{
		{name: "outside ignored", outside: false, consumed: false},
		{name: "outside delivered", outside: true, consumed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newTestUI(t, 100, 100)
			r := mustRoot(t, "R", 10, 10, 80, 80, RootConfig{Node: RootNodeConfig()})
			track := r.AddChild(NewContainer("track", 5, 5, 40, 5, NodeConfig{}))

			cfg := DefaultNodeConfig()
			cfg.UseMoving = true
			cfg.UseOutsideTouches = tt.outside
			var knob counter
			track.AddChild(NewLeaf("knob", 2, 0, 2, 5, cfg, knob.fn))
			require.NoError(t, u.Create(r))

			// world (18, 16) is knob-local (1, 1)
			require.True(t, u.Touched(1, 18, 16, TouchBegin))
			require.Equal(t, 1, knob.n())
			assert.Equal(t, [2]int{1, 1}, knob.local[0])

			// far outside the knob, the track and even the root
			assert.Equal(t, tt.consumed, u.Touched(1, 95, 95, TouchMoving))
			if tt.consumed {
				assert.Equal(t, [2]int{95 - 17, 95 - 15}, knob.local[1])
			}
		})
	}
}

func TestAcquiredNodeRoutesToChildren(t *testing.T) {
	u := newTestUI(t, 100, 100)
	r := mustRoot(t, "R", 0, 0, 100, 100, RootConfig{Node: RootNodeConfig()})

	panelCfg := DefaultNodeConfig()
	panelCfg.UseMoving = true
	var panel, btn, gate counter
	p := r.AddChild(NewContainer("panel", 0, 0, 40, 40, panelCfg))
	p.Callback = panel.fn
	p.AddChild(NewLeaf("btn", 20, 20, 10, 10, NodeConfig{UseMoving: true}, btn.fn))
	gateCfg := DefaultNodeConfig()
	gateCfg.Lock = NewLockConfig(LockRoot, false, time.Second)
	r.AddChild(NewLeaf("gate", 60, 60, 10, 10, gateCfg, gate.fn))
	require.NoError(t, u.Create(r))

	require.True(t, u.Touched(1, 5, 5, TouchBegin))
	require.Same(t, p, u.Sessions().Get(1).Acquired())

	assert.True(t, u.Touched(1, 25, 25, TouchMoving))
	assert.Equal(t, 1, btn.n(), "the acquired node offers touches to its children")
	assert.Equal(t, [2]int{5, 5}, btn.local[0])
	assert.Equal(t, 1, panel.n())

	// another user locks the whole root
	require.True(t, u.Touched(2, 65, 65, TouchBegin))
	require.Equal(t, 1, gate.n())

	assert.True(t, u.Touched(1, 26, 26, TouchMoving), "a hard block counts as consumed")
	assert.Equal(t, 1, btn.n())
	assert.Equal(t, 1, panel.n())
	assert.False(t, u.Sessions().Get(1).Enabled())
}

func TestCoordinateRoundTrip(t *testing.T) {
	u := newTestUI(t, 100, 100)
	r := mustRoot(t, "R", 0, 0, 100, 100, RootConfig{Node: NodeConfig{}})
	c1 := r.AddChild(NewContainer("c1", 5, 5, 80, 80, NodeConfig{}))
	c2 := c1.AddChild(NewContainer("c2", 3, 3, 60, 60, NodeConfig{}))
	c3 := c2.AddChild(NewContainer("c3", 2, 2, 40, 40, NodeConfig{}))
	var leaf counter
	c3.AddChild(NewLeaf("leaf", 20, 20, 5, 5, DefaultNodeConfig(), leaf.fn))
	require.NoError(t, u.Create(r))

	newTouch := func(x, y int) *Touch {
		s := newTouchSession(7)
		tc := &Touch{X: x, Y: y, AbsoluteX: x, AbsoluteY: y, State: TouchBegin, Session: s}
		s.start(tc)
		return tc
	}

	miss := newTouch(20, 20)
	assert.False(t, u.touched(r.Node, miss))
	assert.Equal(t, 20, miss.X)
	assert.Equal(t, 20, miss.Y)

	hit := newTouch(31, 32) // c3-local (21, 22), leaf-local (1, 2)
	assert.True(t, u.touched(r.Node, hit))
	assert.Equal(t, 31, hit.X)
	assert.Equal(t, 32, hit.Y)
	require.Equal(t, 1, leaf.n())
	assert.Equal(t, [2]int{1, 2}, leaf.local[0])
}

func TestCallbackPanicIsRecovered(t *testing.T) {
	u, r, _, _ := scenario(t, nil)
	boom := errors.New("boom")
	r.AddChild(NewLeaf("bad", 0, 0, 10, 10, DefaultNodeConfig(), func(*Node, *Touch) { panic(boom) }))

	assert.True(t, u.Touched(1, 5, 5, TouchBegin))
	require.Len(t, u.errs, 1)
	var ce *CallbackError
	require.ErrorAs(t, u.errs[0], &ce)
	assert.Equal(t, "bad", ce.Node)
	assert.Equal(t, "callback", ce.Op)
	assert.ErrorIs(t, u.errs[0], boom)

	// dispatch keeps working
	assert.True(t, u.Touched(1, 30, 30, TouchBegin))
}

func TestCanTouchPredicate(t *testing.T) {
	tests := []struct {
		name    string
		pred    func(*Node, *Touch) bool
		wantA   int
		wantB   int
		wantErr bool
	}{
		{name: "allow", pred: func(*Node, *Touch) bool { return true }, wantA: 1},
		{name: "deny", pred: func(*Node, *Touch) bool { return false }, wantB: 1},
		{name: "panic denies", pred: func(*Node, *Touch) bool { panic("nope") }, wantB: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newTestUI(t, 100, 100)
			r := mustRoot(t, "R", 0, 0, 100, 100, RootConfig{Node: RootNodeConfig()})
			var a, b counter
			r.AddChild(NewLeaf("B", 0, 0, 100, 100, DefaultNodeConfig(), b.fn))
			cfg := DefaultNodeConfig()
			cfg.CanTouch = tt.pred
			r.AddChild(NewLeaf("A", 0, 0, 50, 50, cfg, a.fn))
			require.NoError(t, u.Create(r))

			assert.True(t, u.Touched(1, 10, 10, TouchBegin))
			assert.Equal(t, tt.wantA, a.n())
			assert.Equal(t, tt.wantB, b.n())
			assert.Equal(t, tt.wantErr, len(u.errs) > 0)
		})
	}
}

func TestInactiveNodesAreSkipped(t *testing.T) {
	u, r, a, b := scenario(t, nil)
	aNode := r.ChildrenFromTop()[0]
	aNode.Disable()
	assert.False(t, aNode.IsActive())

	assert.True(t, u.Touched(1, 10, 10, TouchBegin))
	assert.Equal(t, 0, a.n())
	assert.Equal(t, 1, b.n())

	r.Disable()
	assert.False(t, u.Touched(1, 10, 10, TouchBegin), "disabled roots are not touched")
}

func TestOnTouchHandlers(t *testing.T) {
	u, _, _, _ := scenario(t, nil)
	var got []TouchContext
	h := u.OnTouch(func(ctx TouchContext) { got = append(got, ctx) })

	u.Touched(3, 12, 14, TouchBegin)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Node.Name)
	assert.Equal(t, 3, got[0].User)
	assert.Equal(t, TouchBegin, got[0].State)
	assert.Equal(t, 12, got[0].AbsoluteX)
	assert.Equal(t, 14, got[0].LocalY)

	h.Remove()
	u.Touched(3, 12, 14, TouchBegin)
	assert.Len(t, got, 1)
}

func TestTouchTimeUsesClock(t *testing.T) {
	u, _, a, _ := scenario(t, nil)
	u.clock.Advance(time.Minute)
	u.Touched(1, 1, 1, TouchBegin)
	require.Equal(t, 1, a.n())
	assert.Equal(t, u.clock.Now(), a.calls[0].Time)
}
