package tileui

import "time"

// LockConfig describes the mutual-exclusion claim a node places when it
// consumes a touch. A nil *LockConfig on NodeConfig means the node never locks.
type LockConfig struct {
	// Level is LockSelf to lock the node itself or LockRoot to lock its
	// whole interface.
	Level LockLevel
	// Personal locks are held per user: they never block other users.
	Personal bool
	// Delay is how long the lock outlives the touch that created it.
	Delay time.Duration
	// AllowThisTouchSession lets the press-session that created the lock
	// keep touching through it.
	AllowThisTouchSession bool
	// DuringTouchSession keeps the lock alive past Delay until the owner's
	// press-session is released.
	DuringTouchSession bool
}

// NewLockConfig returns a lock of the given level and delay with the usual
// flags: the creating press-session may continue, expiry is purely timed.
func NewLockConfig(level LockLevel, personal bool, delay time.Duration) *LockConfig {
	return &LockConfig{
		Level:                 level,
		Personal:              personal,
		Delay:                 delay,
		AllowThisTouchSession: true,
	}
}

// NodeConfig controls how a node reacts to touches and how it is drawn.
type NodeConfig struct {
	UseBegin  bool // react to TouchBegin
	UseMoving bool // react to TouchMoving
	UseEnd    bool // react to TouchEnd

	// BeginRequire restricts moving/end touches to the node that consumed
	// the press-session's begin touch.
	BeginRequire bool
	// SessionAcquire routes the rest of the press-session straight to this
	// node once it consumes a touch.
	SessionAcquire bool
	// UseOutsideTouches delivers acquired-session touches that fall outside
	// the node's rectangle.
	UseOutsideTouches bool
	// Ordered brings a touched orderable child to the front of this node's
	// children.
	Ordered bool

	Lock *LockConfig

	// CanTouch is an optional extra predicate checked after activity and
	// locks. A panic counts as a refusal.
	CanTouch func(n *Node, t *Touch) bool
	// CustomUpdate runs during the update phase of the sync pass.
	CustomUpdate func(n *Node)
	// CustomApply runs after the node's background is painted during apply.
	CustomApply func(n *Node, p Painter)
}

// DefaultNodeConfig is the configuration of a plain widget: it reacts to
// begin touches only, requires begin continuity and acquires the session.
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		UseBegin:       true,
		BeginRequire:   true,
		SessionAcquire: true,
	}
}

// RootNodeConfig is DefaultNodeConfig listening to every touch state.
func RootNodeConfig() NodeConfig {
	c := DefaultNodeConfig()
	c.UseMoving = true
	c.UseEnd = true
	return c
}

// listens reports whether the configuration reacts to state.
func (c *NodeConfig) listens(state TouchState) bool {
	switch state {
	case TouchBegin:
		return c.UseBegin
	case TouchMoving:
		return c.UseMoving
	case TouchEnd:
		return c.UseEnd
	}
	return false
}
