package tileui

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// RootConfig describes a new interface tree.
type RootConfig struct {
	// Node configures how the root itself reacts to touches. RootNodeConfig
	// is the usual choice.
	Node NodeConfig
	// Layer orders isolated roots: higher layers are drawn and touched above
	// lower ones.
	Layer int
	// Observers restricts the root to the listed users. Nil makes it public.
	Observers []int
	// Provider is the tile storage to use. Nil lets the UI choose one on
	// Create.
	Provider Provider
}

// Frame is one draw transmission: the composed tiles of Region as seen by a
// single user, tagged with the root revision they reflect.
type Frame struct {
	Root     *Root
	Region   Rect
	Revision uint64
	Tiles    []Tile
}

// Drawer transmits frames to users.
type Drawer interface {
	DrawFrame(user int, f Frame)
}

// DrawerFunc adapts a function to Drawer.
type DrawerFunc func(user int, f Frame)

// DrawFrame calls f(user, frame).
func (f DrawerFunc) DrawFrame(user int, frame Frame) { f(user, frame) }

// Root is the top node of one complete interface. Besides the tree it owns
// the set of users in range, the optional observer restriction, and the
// revision counter driving incremental redraw.
type Root struct {
	*Node

	ui        *UI
	provider  Provider
	layer     int
	observers map[int]struct{} // nil: public

	mu       sync.Mutex
	players  map[int]struct{}
	drawn    map[int]uint64 // last revision sent to each user
	revision uint64

	dirty   atomic.Bool
	created atomic.Bool
	app     *Application
}

// NewRoot builds a root at world position (x, y). A personal root with a
// provider that cannot isolate its tiles fails with ErrPersonalMainProvider.
func NewRoot(name string, x, y, width, height int, cfg RootConfig) (*Root, error) {
	if cfg.Observers != nil && cfg.Provider != nil && !cfg.Provider.Isolated() {
		return nil, ErrPersonalMainProvider
	}
	n := NewContainer(name, x, y, width, height, cfg.Node)
	n.Kind = KindRoot
	n.SetMinSize(1, 1)
	r := &Root{
		Node:     n,
		provider: cfg.Provider,
		layer:    cfg.Layer,
		players:  make(map[int]struct{}),
		drawn:    make(map[int]uint64),
	}
	if cfg.Observers != nil {
		r.observers = make(map[int]struct{}, len(cfg.Observers))
		for _, o := range cfg.Observers {
			r.observers[o] = struct{}{}
		}
	}
	n.asRoot = r
	r.dirty.Store(true)
	return r, nil
}

// Layer returns the root's draw and touch layer.
func (r *Root) Layer() int { return r.layer }

// Provider returns the root's tile storage, nil before Create.
func (r *Root) Provider() Provider { return r.provider }

// Personal reports whether the root is restricted to a set of observers.
func (r *Root) Personal() bool { return r.observers != nil }

// Observers returns the sorted observer set, or nil for a public root.
func (r *Root) Observers() []int {
	if r.observers == nil {
		return nil
	}
	out := make([]int, 0, len(r.observers))
	for o := range r.observers {
		out = append(out, o)
	}
	slices.Sort(out)
	return out
}

// VisibleTo reports whether user may see and touch the root.
func (r *Root) VisibleTo(user int) bool {
	if r.observers == nil {
		return true
	}
	_, ok := r.observers[user]
	return ok
}

// Application returns the application instance the root belongs to, if any.
func (r *Root) Application() *Application { return r.app }

// Created reports whether the root is registered with a UI.
func (r *Root) Created() bool { return r.created.Load() }

// Revision returns the root's current revision.
func (r *Root) Revision() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revision
}

// Players returns the sorted set of users in range.
func (r *Root) Players() []int {
	r.mu.Lock()
	out := make([]int, 0, len(r.players))
	for p := range r.players {
		out = append(out, p)
	}
	r.mu.Unlock()
	slices.Sort(out)
	return out
}

func (r *Root) setPlayer(user int, inRange bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inRange {
		r.players[user] = struct{}{}
		return
	}
	delete(r.players, user)
	delete(r.drawn, user)
}

// Tile returns the materialized tile at root-relative (x, y).
// Panics if (x, y) is outside the root.
func (r *Root) Tile(x, y int) Tile {
	if !r.ContainsRelative(x, y) {
		panic("tileui: tile query outside root " + r.Name)
	}
	if r.provider == nil {
		return Tile{}
	}
	return r.provider.Tile(x, y)
}

// --- Update / Apply / Draw ---

// Update refreshes the provider and runs every active node's CustomUpdate.
func (r *Root) Update() {
	if r.ui == nil {
		return
	}
	if r.provider != nil {
		r.provider.Update()
	}
	r.Walk(func(n *Node) bool {
		if !n.IsActiveThis() {
			return false
		}
		if fn := n.Config.CustomUpdate; fn != nil {
			r.ui.safeCall(n, "custom update", func() { fn(n) })
		}
		return true
	})
}

// Apply materializes the tree into the provider if anything changed since
// the last apply. Reports whether it did.
func (r *Root) Apply() bool {
	return r.apply(false)
}

func (r *Root) apply(force bool) bool {
	if r.ui == nil || r.provider == nil || !r.IsActive() {
		return false
	}
	if !r.dirty.Swap(false) && !force {
		return false
	}
	start := time.Now()
	r.ui.emit(HookEvent{Type: HookPreApply, Root: r})
	if o, ok := r.provider.(*OverlayProvider); ok {
		o.reset()
	}
	_, _, w, h := r.XYWH()
	r.paint(r.Node, 0, 0, Rect{Width: w, Height: h})

	r.mu.Lock()
	r.revision++
	rev := r.revision
	r.mu.Unlock()

	r.ui.emit(HookEvent{Type: HookPostApply, Root: r})
	if globalDebug.Load() {
		r.ui.logger.Debug("tileui: apply", "root", r.Name, "revision", rev, "took", time.Since(start))
	}
	return true
}

// paint draws n, whose origin is (ox, oy) in root coordinates, and then its
// active children back-to-front. Everything is clipped to clip.
func (r *Root) paint(n *Node, ox, oy int, clip Rect) {
	_, _, w, h := n.XYWH()
	area := Rect{X: ox, Y: oy, Width: w, Height: h}.Intersect(clip)
	if area.Empty() {
		return
	}
	if bg := n.Style.Background; bg != nil {
		for y := area.Y; y < area.Y+area.Height; y++ {
			for x := area.X; x < area.X+area.Width; x++ {
				r.provider.SetTile(x, y, *bg)
			}
		}
	}
	if fn := n.Config.CustomApply; fn != nil {
		p := &nodePainter{provider: r.provider, ox: ox, oy: oy, clip: area, w: w, h: h}
		r.ui.safeCall(n, "custom apply", func() { fn(n, p) })
	}
	for _, c := range n.Children() {
		if !c.IsActiveThis() {
			continue
		}
		cx, cy := c.XY()
		r.paint(c, ox+cx, oy+cy, area)
	}
}

// Draw sends the root's area to every player whose last seen revision is
// behind. Returns the number of users drawn to.
func (r *Root) Draw() int {
	_, _, w, h := r.XYWH()
	return r.DrawRegion(0, 0, w, h, nil, false)
}

// DrawRegion sends the root-relative rectangle (dx, dy, width, height) to
// targets. A nil targets means every outdated player, or every player when
// toEveryone is set. Each receiver is stamped with the current revision.
func (r *Root) DrawRegion(dx, dy, width, height int, targets []int, toEveryone bool) int {
	if r.ui == nil {
		return 0
	}
	drawer := r.ui.Drawer()
	if targets == nil {
		targets = r.OutdatedPlayers(toEveryone)
	}
	if len(targets) == 0 {
		return 0
	}
	x, y := r.XY()
	region := Rect{X: x + dx, Y: y + dy, Width: width, Height: height}
	rev := r.Revision()
	for _, user := range targets {
		if drawer != nil {
			drawer.DrawFrame(user, Frame{Root: r, Region: region, Revision: rev, Tiles: r.ui.View(user, region)})
		}
	}
	r.mu.Lock()
	for _, user := range targets {
		r.drawn[user] = rev
	}
	r.mu.Unlock()
	return len(targets)
}

// OutdatedPlayers returns the players allowed to see the root whose stored
// revision is behind the current one. With toEveryone it returns all of
// them.
func (r *Root) OutdatedPlayers(toEveryone bool) []int {
	r.mu.Lock()
	out := make([]int, 0, len(r.players))
	for user := range r.players {
		if !r.VisibleTo(user) {
			continue
		}
		if seen, ok := r.drawn[user]; toEveryone || !ok || seen < r.revision {
			out = append(out, user)
		}
	}
	r.mu.Unlock()
	slices.Sort(out)
	return out
}

// RequestDrawChanges makes every player stale so the next Draw reaches all
// of them.
func (r *Root) RequestDrawChanges() {
	r.mu.Lock()
	r.revision++
	r.mu.Unlock()
}

// Clear wipes the root's tiles from its provider. On the main provider this
// erases the world area the root occupies.
func (r *Root) Clear() {
	if r.provider == nil {
		return
	}
	if o, ok := r.provider.(*OverlayProvider); ok {
		o.reset()
	} else {
		_, _, w, h := r.XYWH()
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r.provider.SetTile(x, y, Tile{})
			}
		}
	}
	r.dirty.Store(true)
}

// --- Geometry and activity ---

// SetXYWH moves and resizes the root. On shared storage the old area is
// cleared first; observers receive the vacated area and the new one. The set
// of players follows the new bounds.
func (r *Root) SetXYWH(x, y, width, height int) {
	old := r.Bounds()
	live := r.provider != nil && r.created.Load() && r.IsActive()
	if live && !r.provider.Isolated() && r.Node.newXYWH(x, y, width, height) {
		r.Clear()
	}
	if !r.setXYWH(x, y, width, height) {
		return
	}
	r.dirty.Store(true)
	nb := r.Bounds()
	if r.provider != nil {
		r.provider.SetRegion(nb.X, nb.Y, nb.Width, nb.Height)
	}
	if r.ui != nil {
		r.ui.emit(HookEvent{Type: HookSetXYWH, Root: r, Region: nb})
	}
	switch {
	case live:
		r.drawReposition(old)
	case r.ui != nil && r.created.Load():
		r.ui.refreshPlayers(r)
	}
}

// drawReposition sends the vacated area to the players that saw it, then the
// new area to the players in range of the new position.
func (r *Root) drawReposition(old Rect) {
	nb := r.Bounds()
	r.RequestDrawChanges()
	r.DrawRegion(old.X-nb.X, old.Y-nb.Y, old.Width, old.Height, nil, true)
	r.ui.refreshPlayers(r)
	r.Update()
	resized := old.Width != nb.Width || old.Height != nb.Height
	if !r.provider.Isolated() || resized {
		r.apply(true)
	} else {
		r.RequestDrawChanges()
	}
	r.DrawRegion(0, 0, nb.Width, nb.Height, nil, true)
}

// Enable turns the root on and forces a full update, apply and draw.
func (r *Root) Enable() {
	if r.Node.enabled.Swap(true) {
		return
	}
	r.dirty.Store(true)
	if r.provider != nil {
		r.provider.Enable()
	}
	if r.ui == nil || !r.created.Load() {
		return
	}
	r.ui.emit(HookEvent{Type: HookEnabled, Root: r, Enabled: true})
	r.Update()
	r.apply(true)
	r.Draw()
}

// Disable turns the root off and sends its cleared area to every observer.
func (r *Root) Disable() {
	if !r.Node.enabled.Swap(false) {
		return
	}
	if r.ui == nil || !r.created.Load() {
		if r.provider != nil {
			r.provider.Disable()
		}
		return
	}
	if !r.provider.Isolated() {
		r.Clear()
	}
	r.provider.Disable()
	r.ui.emit(HookEvent{Type: HookEnabled, Root: r, Enabled: false})
	r.RequestDrawChanges()
	r.Draw()
}

func (r *Root) logAttrs() []any {
	x, y, w, h := r.XYWH()
	return []any{"root", r.Name, slog.Group("rect", "x", x, "y", y, "w", w, "h", h)}
}
