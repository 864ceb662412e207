package tileui

import (
	"fmt"
	"image"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// ProviderFactory picks the provider of a root created without one. It may
// return nil to fall back to the main provider.
type ProviderFactory func(r *Root) Provider

// UI is the process-wide interface state: the created roots in dispatch
// order, the session table, and the collaborators the sync pass talks to.
// It starts empty; call Clear on shutdown or when the world changes.
type UI struct {
	// ErrorHandler receives every recovered callback panic after it is
	// logged. Optional.
	ErrorHandler func(error)
	// DrawRange is how far, in tiles, a user may stand outside a root and
	// still receive its frames.
	DrawRange int
	// SnapshotDir is where Snapshot writes PNG files.
	SnapshotDir string
	// WorldID scopes persisted application indices.
	WorldID string

	world    *World
	sessions *SessionTable
	logger   *slog.Logger
	clock    func() time.Time

	mu        sync.RWMutex
	roots     []*Root // back-to-front: by layer, then top-most last
	names     map[string]*Root
	positions map[int]image.Point
	drawer    Drawer
	factory   ProviderFactory

	hookMu sync.RWMutex
	hooks  HookSink

	handlerMu sync.Mutex
	handlers  handlerRegistry

	tweenMu sync.Mutex
	tweens  []*Tween

	injectMu    sync.Mutex
	injectQueue []injectedTouch
	runner      *TestRunner

	appMu sync.Mutex
	apps  map[string]*ApplicationType
	saver Saver
}

// NewUI returns an empty interface state drawing over world.
func NewUI(world *World) *UI {
	return &UI{
		DrawRange:   16,
		SnapshotDir: "snapshots",
		world:       world,
		sessions:    NewSessionTable(),
		logger:      slog.Default(),
		clock:       time.Now,
		names:       make(map[string]*Root),
		positions:   make(map[int]image.Point),
		apps:        make(map[string]*ApplicationType),
	}
}

// World returns the shared tile grid.
func (u *UI) World() *World { return u.world }

// Sessions returns the per-user session table.
func (u *UI) Sessions() *SessionTable { return u.sessions }

// Logger returns the UI's logger.
func (u *UI) Logger() *slog.Logger { return u.logger }

// SetLogger replaces the logger. Nil restores slog.Default.
func (u *UI) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	u.logger = l
}

// SetClock replaces the time source used for locks and touch timestamps.
func (u *UI) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	u.clock = now
}

func (u *UI) now() time.Time { return u.clock() }

// SetDrawer sets the frame transport.
func (u *UI) SetDrawer(d Drawer) {
	u.mu.Lock()
	u.drawer = d
	u.mu.Unlock()
}

// Drawer returns the frame transport, or nil.
func (u *UI) Drawer() Drawer {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.drawer
}

// SetProviderFactory sets how roots created without a provider get one.
func (u *UI) SetProviderFactory(f ProviderFactory) {
	u.mu.Lock()
	u.factory = f
	u.mu.Unlock()
}

// SetHookSink sets the event bus receiving every hook. Nil disables hooks.
func (u *UI) SetHookSink(sink HookSink) {
	u.hookMu.Lock()
	u.hooks = sink
	u.hookMu.Unlock()
}

// SetDebugMode enables or disables debug checks and logging for every UI
// in the process.
func (u *UI) SetDebugMode(enabled bool) {
	globalDebug.Store(enabled)
}

// --- Roots ---

// Roots returns a back-to-front snapshot of the created roots.
func (u *UI) Roots() []*Root {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return slices.Clone(u.roots)
}

// Root returns the created root called name.
func (u *UI) Root(name string) (*Root, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	r, ok := u.names[name]
	return r, ok
}

// Create registers r, resolves its provider and runs its first update,
// apply and draw.
func (u *UI) Create(r *Root) error {
	u.mu.RLock()
	_, exists := u.names[r.Name]
	factory := u.factory
	u.mu.RUnlock()
	if exists {
		return fmt.Errorf("%w: %s", ErrRootExists, r.Name)
	}

	provider := r.provider
	if provider == nil && factory != nil {
		provider = factory(r)
	}
	if provider == nil {
		provider = NewMainProvider(u.world)
	}
	if r.Personal() && !provider.Isolated() {
		return fmt.Errorf("create %s: %w", r.Name, ErrPersonalMainProvider)
	}

	u.mu.Lock()
	if _, ok := u.names[r.Name]; ok {
		u.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRootExists, r.Name)
	}
	r.provider = provider
	r.ui = u
	u.names[r.Name] = r
	u.roots = sortedLayers(append(u.roots, r))
	positions := make(map[int]image.Point, len(u.positions))
	for user, p := range u.positions {
		positions[user] = p
	}
	u.mu.Unlock()

	b := r.Bounds()
	provider.SetRegion(b.X, b.Y, b.Width, b.Height)
	if !r.IsActiveThis() {
		provider.Disable()
	}
	r.created.Store(true)
	for user, p := range positions {
		r.setPlayer(user, u.inRange(r, p))
	}

	u.emit(HookEvent{Type: HookNodeCreated, Root: r, Node: r.Node})
	u.emit(HookEvent{Type: HookLoadRoot, Root: r, Provider: provider})
	u.logger.Info("tileui: root created", r.logAttrs()...)

	r.Update()
	r.apply(true)
	r.Draw()
	return nil
}

// Destroy ends every press-session tied to r, clears it from view, and
// disposes it.
func (u *UI) Destroy(r *Root) error {
	u.mu.Lock()
	if u.names[r.Name] != r {
		u.mu.Unlock()
		return fmt.Errorf("destroy %s: %w", r.Name, ErrNotCreated)
	}
	delete(u.names, r.Name)
	u.roots = slices.DeleteFunc(u.roots, func(o *Root) bool { return o == r })
	u.mu.Unlock()

	for _, s := range u.sessions.Snapshot() {
		if s.detach(r) {
			u.logger.Debug("tileui: session detached", "root", r.Name, "user", s.User())
		}
	}
	r.Disable()
	r.created.Store(false)
	if r.provider.Isolated() {
		u.emit(HookEvent{Type: HookRemoveProvider, Root: r, Provider: r.provider})
	}
	r.Dispose()
	if r.app != nil {
		r.app.Type.forget(r.app)
	}
	u.logger.Info("tileui: root destroyed", "root", r.Name)
	return nil
}

// SetTop makes r the top-most root of its layer for future dispatch and
// composition. Reports whether the order changed.
func (u *UI) SetTop(r *Root) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	i := slices.Index(u.roots, r)
	if i < 0 {
		return false
	}
	j := i
	for j+1 < len(u.roots) && u.roots[j+1].layer <= r.layer {
		j++
	}
	if j == i {
		return false
	}
	copy(u.roots[i:j], u.roots[i+1:j+1])
	u.roots[j] = r
	return true
}

// --- Touch ingestion ---

// Touched routes one touch of user at world position (x, y). It reports
// whether a node consumed the touch, or a lock hard-blocked it. Touches of
// one user are serialized; different users may call concurrently.
func (u *UI) Touched(user, x, y int, state TouchState) bool {
	s := u.sessions.Get(user)
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	switch {
	case state == TouchBegin:
		if s.Pressed() {
			s.finish()
		}
	case !s.Pressed():
		return false
	}

	t := &Touch{
		X: x, Y: y, AbsoluteX: x, AbsoluteY: y,
		State: state, SessionIndex: s.Index(), Session: s, Time: u.now(),
	}
	if state == TouchBegin {
		s.start(t)
	}

	var consumed bool
	if s.Enabled() {
		if acquired := s.Acquired(); acquired != nil {
			consumed = u.touchedAcquired(acquired, t)
		} else {
			consumed = u.touchedRoots(t)
		}
	}
	s.setPrevious(t)
	if state == TouchEnd {
		s.finish()
	}
	return consumed
}

// touchedRoots offers t to the roots front-to-back.
func (u *UI) touchedRoots(t *Touch) bool {
	roots := u.Roots()
	user := t.User()
	for i := len(roots) - 1; i >= 0; i-- {
		r := roots[i]
		if !r.VisibleTo(user) || !r.IsActiveThis() || !r.Contains(t.X, t.Y) {
			continue
		}
		rx, ry := r.XY()
		t.Move(-rx, -ry)
		consumed := u.touched(r.Node, t)
		t.Move(rx, ry)
		if consumed {
			return true
		}
	}
	return false
}

// touchedAcquired delivers t straight to the node that acquired the
// press-session.
func (u *UI) touchedAcquired(n *Node, t *Touch) bool {
	if n.IsDisposed() || n.Root() == nil {
		return false
	}
	ax, ay := n.AbsoluteXY()
	t.Move(-ax, -ay)
	defer t.Move(ax, ay)
	if !n.ContainsRelative(t.X, t.Y) && !n.Config.UseOutsideTouches {
		return false
	}
	// root-level locks live on the top node, which the direct route skips
	if top := n.top(); top != n && top.isLocked(t, u.now()) {
		return !t.Session.Enabled()
	}
	return u.touched(n, t)
}

// --- Players ---

// SetPlayerPosition records where user stands and updates which roots
// consider the user in range.
func (u *UI) SetPlayerPosition(user, x, y int) {
	p := image.Pt(x, y)
	u.mu.Lock()
	u.positions[user] = p
	roots := slices.Clone(u.roots)
	u.mu.Unlock()
	for _, r := range roots {
		r.setPlayer(user, u.inRange(r, p))
	}
}

// RemovePlayer forgets user: position, root membership and session.
func (u *UI) RemovePlayer(user int) {
	u.mu.Lock()
	delete(u.positions, user)
	roots := slices.Clone(u.roots)
	u.mu.Unlock()
	for _, r := range roots {
		r.setPlayer(user, false)
	}
	u.sessions.Remove(user)
}

// refreshPlayers recomputes which known users are in range of r.
func (u *UI) refreshPlayers(r *Root) {
	u.mu.RLock()
	positions := make(map[int]image.Point, len(u.positions))
	for user, p := range u.positions {
		positions[user] = p
	}
	u.mu.RUnlock()
	for user, p := range positions {
		r.setPlayer(user, u.inRange(r, p))
	}
}

func (u *UI) inRange(r *Root, p image.Point) bool {
	return r.Bounds().Grow(u.DrawRange).Contains(p.X, p.Y)
}

// View composes the world tiles of rect with every enabled overlay user may
// see, lower layers first.
func (u *UI) View(user int, rect Rect) []Tile {
	out := make([]Tile, max(rect.Width, 0)*max(rect.Height, 0))
	if rect.Empty() {
		return out
	}
	u.world.copyRegion(rect, out)
	for _, r := range u.Roots() {
		o, ok := r.provider.(*OverlayProvider)
		if !ok || !o.Enabled() || !r.IsActiveThis() || !r.VisibleTo(user) {
			continue
		}
		o.composeInto(rect, out)
	}
	return out
}

// --- Sync pass ---

// Update runs one sync pass: tweens and scripted input advance, then every
// active root that changed is updated and applied, and stale observers are
// drawn.
func (u *UI) Update(dt time.Duration) {
	u.updateTweens(dt)
	if r := u.testRunner(); r != nil {
		r.step(u)
	}
	u.processInjected()

	for _, r := range u.Roots() {
		if !r.IsActive() {
			continue
		}
		if r.dirty.Load() {
			r.Update()
			r.Apply()
		}
		r.Draw()
	}
}

// Clear destroys every root and empties the session table, players, tweens
// and input queue.
func (u *UI) Clear() {
	for _, r := range u.Roots() {
		if err := u.Destroy(r); err != nil {
			u.logger.Warn("tileui: clear", "root", r.Name, "err", err)
		}
	}
	u.sessions.Clear()

	u.mu.Lock()
	clear(u.positions)
	u.mu.Unlock()

	u.tweenMu.Lock()
	u.tweens = nil
	u.tweenMu.Unlock()

	u.injectMu.Lock()
	u.injectQueue = nil
	u.runner = nil
	u.injectMu.Unlock()
}
