package tileui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockBlocksOtherUser(t *testing.T) {
	u, r, a, b := scenario(t, NewLockConfig(LockSelf, false, 500*time.Millisecond))

	require.True(t, u.Touched(1, 10, 10, TouchBegin))
	require.Equal(t, 1, a.n())
	aNode := r.ChildrenFromTop()[0]
	l, ok := aNode.LockOf(1, false)
	require.True(t, ok)
	assert.Same(t, aNode, l.Holder)

	u.clock.Advance(100 * time.Millisecond)
	assert.True(t, u.Touched(2, 10, 10, TouchBegin), "a hard block counts as consumed")
	assert.Equal(t, 1, a.n())
	assert.Equal(t, 0, b.n(), "B must never be reached")
	assert.False(t, u.Sessions().Get(2).Enabled())

	// the blocked press-session stays dead until released
	assert.False(t, u.Touched(2, 70, 70, TouchEnd))
	assert.Equal(t, 0, b.n())
}

func TestLockBlocksNewSessionOfOwner(t *testing.T) {
	u, _, a, b := scenario(t, NewLockConfig(LockSelf, false, 500*time.Millisecond))

	require.True(t, u.Touched(1, 10, 10, TouchBegin))
	u.clock.Advance(100 * time.Millisecond)
	assert.True(t, u.Touched(1, 10, 10, TouchBegin))
	assert.Equal(t, 1, a.n())
	assert.Equal(t, 0, b.n())
}

func TestLockAllowsCreatingSession(t *testing.T) {
	lock := NewLockConfig(LockSelf, false, time.Second)
	u := newTestUI(t, 100, 100)
	r := mustRoot(t, "R", 0, 0, 100, 100, RootConfig{Node: RootNodeConfig()})
	cfg := DefaultNodeConfig()
	cfg.UseMoving = true
	cfg.Lock = lock
	var a counter
	r.AddChild(NewLeaf("A", 0, 0, 50, 50, cfg, a.fn))
	require.NoError(t, u.Create(r))

	require.True(t, u.Touched(1, 10, 10, TouchBegin))
	u.clock.Advance(100 * time.Millisecond)
	assert.True(t, u.Touched(1, 11, 11, TouchMoving))
	assert.Equal(t, 2, a.n())
}

func TestLockDisallowingCreatingSession(t *testing.T) {
	lock := NewLockConfig(LockSelf, false, time.Second)
	lock.AllowThisTouchSession = false
	u := newTestUI(t, 100, 100)
	r := mustRoot(t, "R", 0, 0, 100, 100, RootConfig{Node: RootNodeConfig()})
	cfg := DefaultNodeConfig()
	cfg.UseMoving = true
	cfg.Lock = lock
	var a counter
	r.AddChild(NewLeaf("A", 0, 0, 50, 50, cfg, a.fn))
	require.NoError(t, u.Create(r))

	require.True(t, u.Touched(1, 10, 10, TouchBegin))
	assert.True(t, u.Touched(1, 11, 11, TouchMoving))
	assert.Equal(t, 1, a.n())
	assert.False(t, u.Sessions().Get(1).Enabled())
}

func TestLockExpires(t *testing.T) {
	u, _, a, b := scenario(t, NewLockConfig(LockSelf, false, 500*time.Millisecond))

	require.True(t, u.Touched(1, 10, 10, TouchBegin))
	u.clock.Advance(501 * time.Millisecond)
	assert.True(t, u.Touched(2, 10, 10, TouchBegin))
	assert.Equal(t, 2, a.n())
	assert.Equal(t, 0, b.n())
}

func TestPersonalLockOnlyBlocksOwner(t *testing.T) {
	u, _, a, b := scenario(t, NewLockConfig(LockSelf, true, 500*time.Millisecond))

	require.True(t, u.Touched(1, 10, 10, TouchBegin))
	u.clock.Advance(100 * time.Millisecond)
	assert.True(t, u.Touched(2, 10, 10, TouchBegin))
	assert.Equal(t, 2, a.n(), "other users pass a personal lock")

	assert.True(t, u.Touched(1, 10, 10, TouchBegin))
	assert.Equal(t, 2, a.n(), "owner's new press-session is blocked")
	assert.Equal(t, 0, b.n())
}

func TestRootLevelLock(t *testing.T) {
	u, r, _, b := scenario(t, NewLockConfig(LockRoot, false, 500*time.Millisecond))

	require.True(t, u.Touched(1, 10, 10, TouchBegin))
	_, ok := r.LockOf(0, false)
	require.True(t, ok, "lock is placed on the root node")

	u.clock.Advance(100 * time.Millisecond)
	assert.True(t, u.Touched(2, 70, 70, TouchBegin))
	assert.Equal(t, 0, b.n(), "the whole interface is locked")
}

func TestLockDuringTouchSession(t *testing.T) {
	lock := NewLockConfig(LockSelf, false, 100*time.Millisecond)
	lock.DuringTouchSession = true
	u, _, a, _ := scenario(t, lock)

	require.True(t, u.Touched(1, 10, 10, TouchBegin))
	u.clock.Advance(time.Second)
	assert.True(t, u.Touched(2, 10, 10, TouchBegin))
	assert.Equal(t, 1, a.n(), "held while user 1 is still pressing")

	require.False(t, u.Touched(1, 10, 10, TouchEnd))
	assert.True(t, u.Touched(2, 10, 10, TouchBegin))
	assert.Equal(t, 2, a.n())
}

func TestLockOfRemovedPlayerExpires(t *testing.T) {
	lock := NewLockConfig(LockSelf, false, 100*time.Millisecond)
	lock.DuringTouchSession = true
	u, r, a, b := scenario(t, lock)

	require.True(t, u.Touched(1, 10, 10, TouchBegin))
	u.RemovePlayer(1) // left mid-press

	u.clock.Advance(time.Hour)
	require.True(t, u.Touched(2, 10, 10, TouchBegin))
	assert.Equal(t, 2, a.n())
	l, ok := r.ChildrenFromTop()[0].LockOf(2, false)
	require.True(t, ok)
	assert.Equal(t, 2, l.Touch.User(), "user 2 now holds the lock")
	u.Touched(2, 10, 10, TouchEnd)

	u.clock.Advance(time.Hour)
	assert.True(t, u.Touched(3, 10, 10, TouchBegin))
	assert.Equal(t, 3, a.n())
	assert.Equal(t, 0, b.n())
}

func TestClearReleasesSessionLocks(t *testing.T) {
	lock := NewLockConfig(LockSelf, false, 100*time.Millisecond)
	lock.DuringTouchSession = true
	u, _, _, _ := scenario(t, lock)

	require.True(t, u.Touched(1, 10, 10, TouchBegin))
	s := u.Sessions().Get(1)
	u.Sessions().Clear()
	assert.True(t, s.Released())
	assert.Equal(t, 0, u.Sessions().Len())
}

func TestLockPlacedOncePerSession(t *testing.T) {
	lock := NewLockConfig(LockSelf, false, time.Second)
	u := newTestUI(t, 100, 100)
	r := mustRoot(t, "R", 0, 0, 100, 100, RootConfig{Node: RootNodeConfig()})
	cfg := DefaultNodeConfig()
	cfg.UseMoving = true
	cfg.Lock = lock
	aNode := r.AddChild(NewLeaf("A", 0, 0, 50, 50, cfg, nil))
	require.NoError(t, u.Create(r))

	require.True(t, u.Touched(1, 10, 10, TouchBegin))
	first, _ := aNode.LockOf(1, false)
	u.clock.Advance(200 * time.Millisecond)
	require.True(t, u.Touched(1, 12, 12, TouchMoving))
	second, _ := aNode.LockOf(1, false)
	assert.Same(t, first, second)
}

func TestUnlock(t *testing.T) {
	u, r, a, _ := scenario(t, NewLockConfig(LockSelf, false, time.Hour))
	require.True(t, u.Touched(1, 10, 10, TouchBegin))
	aNode := r.ChildrenFromTop()[0]
	aNode.Unlock()
	_, ok := aNode.LockOf(1, false)
	assert.False(t, ok)

	assert.True(t, u.Touched(2, 10, 10, TouchBegin))
	assert.Equal(t, 2, a.n())
}
