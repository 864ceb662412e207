package tileui

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// frameLog records every frame drawn by a UI.
type frameLog struct {
	mu     sync.Mutex
	frames map[int][]Frame
}

func (l *frameLog) DrawFrame(user int, f Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frames == nil {
		l.frames = make(map[int][]Frame)
	}
	l.frames[user] = append(l.frames[user], f)
}

func (l *frameLog) count(user int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.frames[user])
}

func (l *frameLog) last(user int) Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	fs := l.frames[user]
	if len(fs) == 0 {
		return Frame{}
	}
	return fs[len(fs)-1]
}

type testUI struct {
	*UI
	clock  *fakeClock
	frames *frameLog
	errs   []error
}

func newTestUI(t *testing.T, w, h int) *testUI {
	t.Helper()
	tu := &testUI{UI: NewUI(NewWorld(w, h)), clock: newFakeClock(), frames: &frameLog{}}
	tu.SetClock(tu.clock.Now)
	tu.SetDrawer(tu.frames)
	tu.ErrorHandler = func(err error) { tu.errs = append(tu.errs, err) }
	return tu
}

// counter returns a callback counting invocations per touch state.
type counter struct {
	mu    sync.Mutex
	calls []*Touch
	local [][2]int
}

func (c *counter) fn(n *Node, t *Touch) {
	c.mu.Lock()
	c.calls = append(c.calls, t)
	c.local = append(c.local, [2]int{t.X, t.Y})
	c.mu.Unlock()
}

func (c *counter) n() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func mustRoot(t *testing.T, name string, x, y, w, h int, cfg RootConfig) *Root {
	t.Helper()
	r, err := NewRoot(name, x, y, w, h, cfg)
	require.NoError(t, err)
	return r
}

func tilePtr(t Tile) *Tile { return &t }
