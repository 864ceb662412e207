package tileui

import (
	"sync"
	"time"
)

// Lock is one active mutual-exclusion claim placed on a node.
type Lock struct {
	// Holder is the node whose configuration created the lock. It may differ
	// from the locked node when the lock is root-level.
	Holder *Node
	Time   time.Time
	Delay  time.Duration
	Config LockConfig
	// Touch is the touch that created the lock.
	Touch *Touch
}

// expired reports whether the lock no longer applies at now: its delay has
// elapsed and, for session-long locks, the owner has released the press-session
// that created it or left altogether.
func (l *Lock) expired(now time.Time) bool {
	if now.Sub(l.Time) <= l.Delay {
		return false
	}
	s := l.Touch.Session
	return !l.Config.DuringTouchSession || s.Released() || l.Touch.SessionIndex != s.Index()
}

// lockSlots is the per-node lock registry: one global slot and one slot per
// user. Its mutex is scoped to the node so unrelated subtrees never contend.
type lockSlots struct {
	mu       sync.Mutex
	global   *Lock
	personal map[int]*Lock
}

func (ls *lockSlots) clear() {
	ls.mu.Lock()
	ls.global = nil
	ls.personal = nil
	ls.mu.Unlock()
}

// blocks decides whether l stops t. A lock created by another user or by an
// earlier press-session always blocks and disables t's session; the creating
// press-session passes only when the lock allows it.
func (l *Lock) blocks(t *Touch) bool {
	sameUser := l.Touch.Session.User() == t.Session.User()
	sameSession := l.Touch.SessionIndex == t.SessionIndex
	if sameUser && sameSession && l.Config.AllowThisTouchSession {
		return false
	}
	t.Session.Disable()
	return true
}

// isLocked checks the node's global slot, then the slot of t's user. Expired
// locks are removed on the way.
func (n *Node) isLocked(t *Touch, now time.Time) bool {
	n.locks.mu.Lock()
	defer n.locks.mu.Unlock()

	if l := n.locks.global; l != nil {
		if l.expired(now) {
			n.locks.global = nil
		} else if l.blocks(t) {
			return true
		}
	}
	user := t.Session.User()
	if l, ok := n.locks.personal[user]; ok {
		if l.expired(now) {
			delete(n.locks.personal, user)
		} else if l.blocks(t) {
			return true
		}
	}
	return false
}

// trySetLock places the lock described by n.Config.Lock, at most once per
// press-session, if the target slot is free.
func (n *Node) trySetLock(t *Touch, now time.Time) {
	cfg := n.Config.Lock
	if cfg == nil || t.Session.hasLocked(n.ID) {
		return
	}
	target := n
	if cfg.Level == LockRoot {
		target = n.top()
	}
	user := t.Session.User()

	target.locks.mu.Lock()
	defer target.locks.mu.Unlock()
	l := &Lock{Holder: n, Time: now, Delay: cfg.Delay, Config: *cfg, Touch: t}
	if cfg.Personal {
		if _, ok := target.locks.personal[user]; ok {
			return
		}
		if target.locks.personal == nil {
			target.locks.personal = make(map[int]*Lock)
		}
		target.locks.personal[user] = l
	} else {
		if target.locks.global != nil {
			return
		}
		target.locks.global = l
	}
	t.Session.addLocked(n.ID)
}

// LockOf returns the lock currently occupying the node's global slot, or the
// personal slot of user when personal is true. Expired locks are still
// reported until the next touch checks them.
func (n *Node) LockOf(user int, personal bool) (*Lock, bool) {
	n.locks.mu.Lock()
	defer n.locks.mu.Unlock()
	if personal {
		l, ok := n.locks.personal[user]
		return l, ok
	}
	return n.locks.global, n.locks.global != nil
}

// Unlock drops every lock held on the node.
func (n *Node) Unlock() {
	n.locks.clear()
}
