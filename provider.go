package tileui

import (
	"fmt"
	"slices"
	"sync"
)

// Provider is the tile storage a root materializes into. Coordinates passed
// to Tile and SetTile are relative to the root.
type Provider interface {
	Tile(x, y int) Tile
	SetTile(x, y int, t Tile)
	// SetRegion moves and resizes the provider to the root's world rectangle.
	SetRegion(x, y, width, height int)
	Bounds() Rect
	Enable()
	Disable()
	Enabled() bool
	// Update refreshes the provider before the root recomputes its tree.
	Update()
	// Isolated reports whether the provider keeps its tiles apart from the
	// shared world. Isolated providers are composed over the world per user.
	Isolated() bool
}

// Observed is implemented by providers that only some users may see.
type Observed interface {
	VisibleTo(user int) bool
}

// --- Main provider ---

// MainProvider draws straight into the shared World. Whatever it writes
// replaces the world's tiles and is not restored when the root goes away.
type MainProvider struct {
	world *World

	mu      sync.RWMutex
	region  Rect
	enabled bool
}

// NewMainProvider returns a provider writing into world.
func NewMainProvider(world *World) *MainProvider {
	return &MainProvider{world: world, enabled: true}
}

// Tile returns the world tile under root-relative (x, y), or the zero tile
// outside the world.
func (p *MainProvider) Tile(x, y int) Tile {
	r := p.Bounds()
	if !p.world.InBounds(r.X+x, r.Y+y) {
		return Tile{}
	}
	return p.world.Tile(r.X+x, r.Y+y)
}

// SetTile writes the world tile under root-relative (x, y). Writes outside
// the world are dropped.
func (p *MainProvider) SetTile(x, y int, t Tile) {
	r := p.Bounds()
	if p.world.InBounds(r.X+x, r.Y+y) {
		p.world.SetTile(r.X+x, r.Y+y, t)
	}
}

func (p *MainProvider) SetRegion(x, y, width, height int) {
	p.mu.Lock()
	p.region = Rect{X: x, Y: y, Width: width, Height: height}
	p.mu.Unlock()
}

func (p *MainProvider) Bounds() Rect {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.region
}

func (p *MainProvider) Enable() {
	p.mu.Lock()
	p.enabled = true
	p.mu.Unlock()
}

func (p *MainProvider) Disable() {
	p.mu.Lock()
	p.enabled = false
	p.mu.Unlock()
}

func (p *MainProvider) Enabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}

func (p *MainProvider) Update() {}

func (p *MainProvider) Isolated() bool { return false }

// --- Overlay provider ---

// OverlayProvider keeps a root's tiles in its own buffer, drawn above the
// world. When created with observers it is personal: only those users see it.
type OverlayProvider struct {
	Name  string
	Layer int

	observers map[int]struct{}

	mu      sync.RWMutex
	region  Rect
	tiles   []Tile
	enabled bool
}

// NewOverlayProvider returns an isolated provider. A nil observers slice makes
// it visible to everyone.
func NewOverlayProvider(name string, layer int, observers []int) *OverlayProvider {
	p := &OverlayProvider{Name: name, Layer: layer, enabled: true}
	if observers != nil {
		p.observers = make(map[int]struct{}, len(observers))
		for _, o := range observers {
			p.observers[o] = struct{}{}
		}
	}
	return p
}

// VisibleTo reports whether user may see the overlay.
func (p *OverlayProvider) VisibleTo(user int) bool {
	if p.observers == nil {
		return true
	}
	_, ok := p.observers[user]
	return ok
}

// Personal reports whether the overlay is restricted to its observers.
func (p *OverlayProvider) Personal() bool {
	return p.observers != nil
}

// Tile returns the overlay tile at root-relative (x, y). Panics outside the
// overlay.
func (p *OverlayProvider) Tile(x, y int) Tile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tiles[p.index(x, y)]
}

// SetTile replaces the overlay tile at root-relative (x, y). Panics outside
// the overlay.
func (p *OverlayProvider) SetTile(x, y int, t Tile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tiles[p.index(x, y)] = t
}

func (p *OverlayProvider) index(x, y int) int {
	if x < 0 || y < 0 || x >= p.region.Width || y >= p.region.Height {
		panic(fmt.Sprintf("tileui: overlay %s: tile (%d,%d) out of range", p.Name, x, y))
	}
	return y*p.region.Width + x
}

// SetRegion moves the overlay. A size change reallocates the buffer,
// keeping the tiles of the overlapping top-left area.
func (p *OverlayProvider) SetRegion(x, y, width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	old := p.region
	p.region = Rect{X: x, Y: y, Width: width, Height: height}
	if old.Width == width && old.Height == height && p.tiles != nil {
		return
	}
	tiles := make([]Tile, width*height)
	for row := 0; row < min(old.Height, height); row++ {
		copy(tiles[row*width:row*width+min(old.Width, width)], p.tiles[row*old.Width:])
	}
	p.tiles = tiles
}

func (p *OverlayProvider) Bounds() Rect {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.region
}

func (p *OverlayProvider) Enable() {
	p.mu.Lock()
	p.enabled = true
	p.mu.Unlock()
}

func (p *OverlayProvider) Disable() {
	p.mu.Lock()
	p.enabled = false
	p.mu.Unlock()
}

func (p *OverlayProvider) Enabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}

func (p *OverlayProvider) Update() {}

// reset empties the whole buffer.
func (p *OverlayProvider) reset() {
	p.mu.Lock()
	clear(p.tiles)
	p.mu.Unlock()
}

func (p *OverlayProvider) Isolated() bool { return true }

// composeInto draws the overlay's non-empty tiles that fall inside r over
// dst, a row-major buffer of r's size.
func (p *OverlayProvider) composeInto(r Rect, dst []Tile) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	in := r.Intersect(p.region)
	for y := in.Y; y < in.Y+in.Height; y++ {
		srcRow := (y - p.region.Y) * p.region.Width
		src := p.tiles[srcRow+in.X-p.region.X : srcRow+in.X-p.region.X+in.Width]
		row := dst[(y-r.Y)*r.Width+(in.X-r.X):]
		for i, t := range src {
			if !t.IsEmpty() {
				row[i] = t
			}
		}
	}
}

// OverlayFactory is a ProviderFactory that gives every root its own overlay,
// personal when the root has observers.
func OverlayFactory(r *Root) Provider {
	return NewOverlayProvider(r.Name, r.Layer(), r.Observers())
}

// --- Painter ---

// Painter writes tiles in a node's own frame, clipped to the node and to its
// root.
type Painter interface {
	Tile(x, y int) Tile
	SetTile(x, y int, t Tile)
	Size() (width, height int)
}

type nodePainter struct {
	provider Provider
	ox, oy   int  // node origin relative to the root
	clip     Rect // root-relative
	w, h     int
}

func (p *nodePainter) Size() (int, int) { return p.w, p.h }

func (p *nodePainter) Tile(x, y int) Tile {
	if !p.clip.Contains(p.ox+x, p.oy+y) {
		return Tile{}
	}
	return p.provider.Tile(p.ox+x, p.oy+y)
}

func (p *nodePainter) SetTile(x, y int, t Tile) {
	if x < 0 || y < 0 || x >= p.w || y >= p.h || !p.clip.Contains(p.ox+x, p.oy+y) {
		return
	}
	p.provider.SetTile(p.ox+x, p.oy+y, t)
}

// sortedLayers orders overlays for composition: lower layers first, ties in
// root order.
func sortedLayers(roots []*Root) []*Root {
	out := slices.Clone(roots)
	slices.SortStableFunc(out, func(a, b *Root) int { return a.Layer() - b.Layer() })
	return out
}
