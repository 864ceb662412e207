package tileui

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Touch is one positional event from one user. Its position is immutable in
// world terms (AbsoluteX/AbsoluteY); X and Y are rewritten while the event is
// routed so that they are always relative to the node being visited.
type Touch struct {
	X, Y                 int
	AbsoluteX, AbsoluteY int
	State                TouchState
	// SessionIndex is the press-session the touch belongs to.
	SessionIndex int64
	Session      *TouchSession
	// Node is the node that consumed the touch, nil until then.
	Node *Node
	Time time.Time
}

// Move shifts the touch's relative position by (dx, dy).
func (t *Touch) Move(dx, dy int) {
	t.X += dx
	t.Y += dy
}

// User returns the index of the user that produced the touch.
func (t *Touch) User() int {
	return t.Session.User()
}

// --- Session ---

// TouchSession is the per-user state carried across the touches of a
// press-session. Sessions are owned by a SessionTable, never by nodes.
type TouchSession struct {
	user     int
	index    atomic.Int64
	enabled  atomic.Bool
	released atomic.Bool

	// dispatch serializes this user's touches; it is held for the duration
	// of one Touched call.
	dispatch sync.Mutex

	mu       sync.Mutex
	pressed  bool
	begin    *Touch
	previous *Touch
	acquired *Node
	locked   map[uint32]struct{}
}

func newTouchSession(user int) *TouchSession {
	s := &TouchSession{user: user, locked: make(map[uint32]struct{})}
	s.enabled.Store(true)
	return s
}

// User returns the user index the session belongs to.
func (s *TouchSession) User() int { return s.user }

// Index returns the current press-session sequence number.
func (s *TouchSession) Index() int64 { return s.index.Load() }

// Enabled reports whether touches of the current press-session are still
// being routed.
func (s *TouchSession) Enabled() bool { return s.enabled.Load() }

// Disable stops routing for the rest of the current press-session. Any
// dispatch in progress unwinds as already consumed.
func (s *TouchSession) Disable() { s.enabled.Store(false) }

// BeginTouch returns the touch that opened the current press-session.
func (s *TouchSession) BeginTouch() *Touch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begin
}

// PreviousTouch returns the last touch routed for this user.
func (s *TouchSession) PreviousTouch() *Touch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previous
}

// Acquired returns the node that acquired the press-session, or nil.
func (s *TouchSession) Acquired() *Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquired
}

// Pressed reports whether a press-session is open (begin seen, no end yet).
func (s *TouchSession) Pressed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pressed
}

func (s *TouchSession) setAcquired(n *Node) {
	s.mu.Lock()
	s.acquired = n
	s.mu.Unlock()
}

func (s *TouchSession) setPrevious(t *Touch) {
	s.mu.Lock()
	s.previous = t
	s.mu.Unlock()
}

func (s *TouchSession) hasLocked(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.locked[id]
	return ok
}

func (s *TouchSession) addLocked(id uint32) {
	s.mu.Lock()
	s.locked[id] = struct{}{}
	s.mu.Unlock()
}

// start opens a press-session with t as its begin touch.
func (s *TouchSession) start(t *Touch) {
	s.mu.Lock()
	s.pressed = true
	s.begin = t
	s.acquired = nil
	clear(s.locked)
	s.mu.Unlock()
	s.enabled.Store(true)
}

// finish closes the current press-session and advances the sequence number,
// which releases every DuringTouchSession lock the session holds.
func (s *TouchSession) finish() {
	s.mu.Lock()
	s.pressed = false
	s.begin = nil
	s.acquired = nil
	clear(s.locked)
	s.mu.Unlock()
	s.index.Add(1)
	s.enabled.Store(true)
}

// release marks the session as gone. Locks it created stop waiting for its
// press-session to end.
func (s *TouchSession) release() {
	s.released.Store(true)
}

// Released reports whether the session was dropped from its table.
func (s *TouchSession) Released() bool { return s.released.Load() }

// detach stops the session from routing into root for the rest of the
// current press-session. Reports whether the session was tied to root.
func (s *TouchSession) detach(root *Root) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pressed {
		return false
	}
	tied := s.acquired != nil && s.acquired.Root() == root
	if s.begin != nil && s.begin.Node != nil && s.begin.Node.Root() == root {
		tied = true
	}
	if tied {
		s.acquired = nil
		s.enabled.Store(false)
	}
	return tied
}

// --- Session table ---

// SessionTable holds one TouchSession per user. It starts empty and must be
// cleared explicitly on shutdown or world change.
type SessionTable struct {
	mu       sync.Mutex
	sessions map[int]*TouchSession
}

// NewSessionTable returns an empty table.
func NewSessionTable() *SessionTable {
	return &SessionTable{sessions: make(map[int]*TouchSession)}
}

// Get returns the session of user, creating it on first use.
func (st *SessionTable) Get(user int) *TouchSession {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[user]
	if !ok {
		s = newTouchSession(user)
		st.sessions[user] = s
	}
	return s
}

// Lookup returns the session of user if it exists.
func (st *SessionTable) Lookup(user int) (*TouchSession, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[user]
	return s, ok
}

// Remove forgets user's session. Session-long locks it holds expire once
// their delay has passed.
func (st *SessionTable) Remove(user int) {
	st.mu.Lock()
	if s, ok := st.sessions[user]; ok {
		s.release()
		delete(st.sessions, user)
	}
	st.mu.Unlock()
}

// Snapshot returns every session ordered by user index.
func (st *SessionTable) Snapshot() []*TouchSession {
	st.mu.Lock()
	out := make([]*TouchSession, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	st.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].user < out[j].user })
	return out
}

// Len returns the number of sessions.
func (st *SessionTable) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Clear forgets every session.
func (st *SessionTable) Clear() {
	st.mu.Lock()
	for _, s := range st.sessions {
		s.release()
	}
	clear(st.sessions)
	st.mu.Unlock()
}
