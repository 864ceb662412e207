package tileui

import (
	"fmt"
	"sync"
)

// World is the shared tile grid every user sees. Roots drawn with a
// MainProvider write into it irrevocably.
type World struct {
	mu     sync.RWMutex
	tiles  []Tile // row-major, len = width * height
	width  int
	height int
}

// NewWorld allocates an empty world of the given size in tiles.
func NewWorld(width, height int) *World {
	if width < 0 || height < 0 {
		panic("tileui: negative world size")
	}
	return &World{
		tiles:  make([]Tile, width*height),
		width:  width,
		height: height,
	}
}

// Size returns the world's dimensions in tiles.
func (w *World) Size() (width, height int) {
	return w.width, w.height
}

// Bounds returns the world as a rectangle at the origin.
func (w *World) Bounds() Rect {
	return Rect{Width: w.width, Height: w.height}
}

// InBounds reports whether (x, y) is a tile of the world.
func (w *World) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < w.width && y < w.height
}

// Tile returns the tile at (x, y). Panics if (x, y) is outside the world.
func (w *World) Tile(x, y int) Tile {
	if !w.InBounds(x, y) {
		panic(fmt.Sprintf("tileui: world tile (%d,%d) out of range", x, y))
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tiles[y*w.width+x]
}

// SetTile replaces the tile at (x, y). Panics if (x, y) is outside the world.
func (w *World) SetTile(x, y int, t Tile) {
	if !w.InBounds(x, y) {
		panic(fmt.Sprintf("tileui: world tile (%d,%d) out of range", x, y))
	}
	w.mu.Lock()
	w.tiles[y*w.width+x] = t
	w.mu.Unlock()
}

// Fill sets every in-bounds tile of r to t.
func (w *World) Fill(r Rect, t Tile) {
	r = r.Intersect(w.Bounds())
	w.mu.Lock()
	defer w.mu.Unlock()
	for y := r.Y; y < r.Y+r.Height; y++ {
		row := w.tiles[y*w.width : (y+1)*w.width]
		for x := r.X; x < r.X+r.Width; x++ {
			row[x] = t
		}
	}
}

// copyRegion writes the world tiles of r into dst, a row-major buffer of
// r's size. Tiles of r outside the world are left untouched.
func (w *World) copyRegion(r Rect, dst []Tile) {
	in := r.Intersect(w.Bounds())
	w.mu.RLock()
	defer w.mu.RUnlock()
	for y := in.Y; y < in.Y+in.Height; y++ {
		src := w.tiles[y*w.width+in.X : y*w.width+in.X+in.Width]
		copy(dst[(y-r.Y)*r.Width+(in.X-r.X):], src)
	}
}
