package tileui

import (
	"sync"
	"sync/atomic"
)

// --- ID counter ---

// nodeIDCounter is shared by every UI in the process. IDs are never reused.
var nodeIDCounter atomic.Uint32

func nextNodeID() uint32 {
	return nodeIDCounter.Add(1)
}

// Style is the visual content a node materializes during apply.
type Style struct {
	// Background is painted over the node's whole rectangle. Nil leaves the
	// area underneath untouched.
	Background *Tile
}

// --- Node ---

// Node is the fundamental interface element: a rectangle on the tile grid,
// positioned relative to its parent. A single flat struct is used for every
// kind of node; roots additionally carry a *Root.
//
// Geometry, children and activity are safe for concurrent use. Config, Style
// and Callback are meant to be set before the node is attached to a live
// interface.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Kind NodeKind

	Config   NodeConfig
	Style    Style
	Callback func(n *Node, t *Touch)
	UserData any

	mu        sync.RWMutex
	parent    *Node
	children  []*Node // back-to-front
	x, y      int
	width     int
	height    int
	minWidth  int
	minHeight int
	orderable bool

	enabled  atomic.Bool
	disposed atomic.Bool

	asRoot *Root // non-nil only for the node owned by a Root
	locks  lockSlots
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.orderable = true
	n.enabled.Store(true)
}

// NewContainer creates a node that can hold children.
func NewContainer(name string, x, y, width, height int, cfg NodeConfig) *Node {
	n := &Node{Name: name, Kind: KindContainer, Config: cfg}
	nodeDefaults(n)
	n.x, n.y = x, y
	n.width, n.height = n.clampSize(width, height)
	return n
}

// NewLeaf creates a node that reacts to touches and cannot hold children.
func NewLeaf(name string, x, y, width, height int, cfg NodeConfig, callback func(n *Node, t *Touch)) *Node {
	n := &Node{Name: name, Kind: KindLeaf, Config: cfg, Callback: callback}
	nodeDefaults(n)
	n.x, n.y = x, y
	n.width, n.height = n.clampSize(width, height)
	return n
}

// --- Tree manipulation ---

// AddChild appends child in front of this node's other children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil, this node is a leaf, or child is an ancestor of
// this node (cycle).
func (n *Node) AddChild(child *Node) *Node {
	n.insertChild(child, -1)
	return child
}

// AddChildAt inserts child at the given back-to-front index.
// Same reparenting and cycle-check behavior as AddChild.
func (n *Node) AddChildAt(child *Node, index int) *Node {
	n.insertChild(child, index)
	return child
}

func (n *Node) insertChild(child *Node, index int) {
	if child == nil {
		panic("tileui: cannot add nil child")
	}
	if globalDebug.Load() {
		debugCheckDisposed(n, "AddChild (parent)")
		debugCheckDisposed(child, "AddChild (child)")
	}
	if n.Kind == KindLeaf {
		panic("tileui: leaf node " + n.Name + " cannot have children")
	}
	if child.Kind == KindRoot {
		panic("tileui: root " + child.Name + " cannot be a child")
	}
	if isAncestor(child, n) {
		panic("tileui: adding child would create a cycle")
	}
	if p := child.Parent(); p != nil {
		p.removeChildByPtr(child)
		p.MarkDirty()
	}

	n.mu.Lock()
	if index < 0 {
		index = len(n.children)
	}
	if index > len(n.children) {
		n.mu.Unlock()
		panic("tileui: child index out of range")
	}
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	count := len(n.children)
	n.mu.Unlock()

	child.mu.Lock()
	child.parent = n
	child.mu.Unlock()

	n.MarkDirty()
	if globalDebug.Load() {
		debugCheckTreeDepth(child)
		debugCheckChildCount(n, count)
	}
	if r := n.Root(); r != nil && r.ui != nil {
		r.ui.emit(HookEvent{Type: HookNodeCreated, Root: r, Node: child})
	}
}

// RemoveChild detaches child from this node.
// Panics if child's parent is not n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent() != n {
		panic("tileui: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.mu.Lock()
	child.parent = nil
	child.mu.Unlock()
	n.MarkDirty()
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if p := n.Parent(); p != nil {
		p.RemoveChild(n)
	}
}

// Parent returns the node's parent, or nil.
func (n *Node) Parent() *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parent
}

// Children returns a back-to-front snapshot of the child list.
func (n *Node) Children() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// ChildrenFromTop returns a front-to-back snapshot of the child list, the
// order hit-testing walks it in.
func (n *Node) ChildrenFromTop() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*Node, len(n.children))
	for i, c := range n.children {
		out[len(n.children)-1-i] = c
	}
	return out
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.children)
}

// SetTop moves child in front of its siblings, keeping the relative order of
// the rest. Reports whether the order changed.
func (n *Node) SetTop(child *Node) bool {
	n.mu.Lock()
	last := len(n.children) - 1
	index := -1
	for i, c := range n.children {
		if c == child {
			index = i
			break
		}
	}
	if index < 0 || index == last {
		n.mu.Unlock()
		return false
	}
	copy(n.children[index:], n.children[index+1:])
	n.children[last] = child
	n.mu.Unlock()
	n.MarkDirty()
	return true
}

// Orderable reports whether an Ordered parent may bring this node to front.
func (n *Node) Orderable() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.orderable
}

// SetOrderable sets whether an Ordered parent may bring this node to front.
func (n *Node) SetOrderable(v bool) {
	n.mu.Lock()
	n.orderable = v
	n.mu.Unlock()
}

// top returns the topmost ancestor of n (n itself when detached).
func (n *Node) top() *Node {
	t := n
	for p := t.Parent(); p != nil; p = t.Parent() {
		t = p
	}
	return t
}

// Root returns the Root at the top of this node's tree, or nil when the tree
// is not rooted.
func (n *Node) Root() *Root {
	return n.top().asRoot
}

// --- Geometry ---

// XYWH returns the node's rectangle relative to its parent.
func (n *Node) XYWH() (x, y, width, height int) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.x, n.y, n.width, n.height
}

// XY returns the node's position relative to its parent.
func (n *Node) XY() (x, y int) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.x, n.y
}

// Bounds returns the node's rectangle in parent coordinates.
func (n *Node) Bounds() Rect {
	x, y, w, h := n.XYWH()
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// SetMinSize sets the size below which SetXYWH clamps.
func (n *Node) SetMinSize(width, height int) {
	n.mu.Lock()
	n.minWidth, n.minHeight = max(width, 0), max(height, 0)
	n.width, n.height = max(n.width, n.minWidth), max(n.height, n.minHeight)
	n.mu.Unlock()
}

func (n *Node) clampSize(width, height int) (int, int) {
	return max(width, n.minWidth, 0), max(height, n.minHeight, 0)
}

// SetXYWH moves and resizes the node. Width and height are clamped to the
// node's minimum size. On a root this also repositions its provider and
// redraws observers.
func (n *Node) SetXYWH(x, y, width, height int) {
	if n.asRoot != nil {
		n.asRoot.SetXYWH(x, y, width, height)
		return
	}
	if n.setXYWH(x, y, width, height) {
		n.MarkDirty()
	}
}

// SetXY moves the node, keeping its size.
func (n *Node) SetXY(x, y int) {
	_, _, w, h := n.XYWH()
	n.SetXYWH(x, y, w, h)
}

// SetWH resizes the node, keeping its position.
func (n *Node) SetWH(width, height int) {
	x, y, _, _ := n.XYWH()
	n.SetXYWH(x, y, width, height)
}

// setXYWH stores the clamped geometry and reports whether it changed.
func (n *Node) setXYWH(x, y, width, height int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	width, height = n.clampSize(width, height)
	if n.x == x && n.y == y && n.width == width && n.height == height {
		return false
	}
	n.x, n.y, n.width, n.height = x, y, width, height
	return true
}

// newXYWH reports whether setXYWH with these values would change the node.
func (n *Node) newXYWH(x, y, width, height int) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	width, height = n.clampSize(width, height)
	return n.x != x || n.y != y || n.width != width || n.height != height
}

// Contains reports whether (x, y), given in the parent's frame, lies inside
// the node.
func (n *Node) Contains(x, y int) bool {
	return n.Bounds().Contains(x, y)
}

// ContainsRelative reports whether (x, y), given in the node's own frame,
// lies inside the node.
func (n *Node) ContainsRelative(x, y int) bool {
	_, _, w, h := n.XYWH()
	return x >= 0 && y >= 0 && x < w && y < h
}

// AbsoluteXY returns the node's world position: the sum of its own and every
// ancestor's offset.
func (n *Node) AbsoluteXY() (int, int) {
	var ax, ay int
	for p := n; p != nil; p = p.Parent() {
		x, y := p.XY()
		ax += x
		ay += y
	}
	return ax, ay
}

// RootXY returns the node's position relative to the top of its tree.
func (n *Node) RootXY() (int, int) {
	var rx, ry int
	for p := n; p.Parent() != nil; p = p.Parent() {
		x, y := p.XY()
		rx += x
		ry += y
	}
	return rx, ry
}

// --- Activity ---

// IsActiveThis reports the node's own enabled flag.
func (n *Node) IsActiveThis() bool {
	return n.enabled.Load() && !n.disposed.Load()
}

// IsActive reports whether the node and all of its ancestors are enabled.
func (n *Node) IsActive() bool {
	for p := n; p != nil; p = p.Parent() {
		if !p.IsActiveThis() {
			return false
		}
	}
	return true
}

// Enable turns the node on. On a root this forces a full redraw.
func (n *Node) Enable() {
	if n.asRoot != nil {
		n.asRoot.Enable()
		return
	}
	if !n.enabled.Swap(true) {
		n.MarkDirty()
	}
}

// Disable turns the node off. The node keeps its geometry and any lock it
// holds, but can no longer be touched. On a root this clears it from view.
func (n *Node) Disable() {
	if n.asRoot != nil {
		n.asRoot.Disable()
		return
	}
	if n.enabled.Swap(false) {
		n.MarkDirty()
	}
}

// MarkDirty flags the node's interface for update and apply on the next sync
// pass.
func (n *Node) MarkDirty() {
	if r := n.Root(); r != nil {
		r.dirty.Store(true)
	}
}

// --- Disposal ---

// Dispose removes this node from its parent, marks it as disposed, and
// recursively disposes all descendants.
func (n *Node) Dispose() {
	if n.disposed.Load() {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed.Store(true)
	n.mu.Lock()
	children := n.children
	n.children = nil
	n.parent = nil
	n.mu.Unlock()
	for _, child := range children {
		child.mu.Lock()
		child.parent = nil
		child.mu.Unlock()
		child.dispose()
	}
	n.locks.clear()
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed.Load()
}

// Walk calls fn for n and every descendant, parents before children and
// children back-to-front. Returning false from fn skips the node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		c.Walk(fn)
	}
}

func (n *Node) String() string {
	return n.Kind.String() + " " + n.Name
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent() {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing its parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}
