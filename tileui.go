package tileui

import (
	"fmt"
	"image/color"
)

// Rect is an axis-aligned rectangle on the tile grid. The coordinate system
// has its origin at the top-left, with Y increasing downward. Unlike pixel
// rectangles, the right and bottom edges are exclusive.
type Rect struct {
	X, Y, Width, Height int
}

// Contains reports whether the tile (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width &&
		y >= r.Y && y < r.Y+r.Height
}

// Intersects reports whether r and other share at least one tile.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.X+other.Width &&
		r.X+r.Width > other.X &&
		r.Y < other.Y+other.Height &&
		r.Y+r.Height > other.Y
}

// Intersect returns the overlap of r and other. The result is empty when they
// do not intersect.
func (r Rect) Intersect(other Rect) Rect {
	x0 := max(r.X, other.X)
	y0 := max(r.Y, other.Y)
	x1 := min(r.X+r.Width, other.X+other.Width)
	y1 := min(r.Y+r.Height, other.Y+other.Height)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Empty reports whether the rectangle covers no tiles.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Grow returns r expanded by n tiles on every side.
func (r Rect) Grow(n int) Rect {
	return Rect{X: r.X - n, Y: r.Y - n, Width: r.Width + 2*n, Height: r.Height + 2*n}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// Tile is one cell of the world grid.
type Tile struct {
	Type      uint16 `json:"type"`
	Wall      uint16 `json:"wall,omitempty"`
	Color     uint8  `json:"color,omitempty"`
	WallColor uint8  `json:"wallColor,omitempty"`
	Active    bool   `json:"active,omitempty"`
}

// IsEmpty reports whether t is the zero tile. Empty overlay tiles are
// transparent: the world shows through them.
func (t Tile) IsEmpty() bool {
	return t == Tile{}
}

// TileColor maps a tile to a display color. Active tiles are colored by type
// and paint, walls are drawn darker, empty cells are transparent.
func TileColor(t Tile) color.NRGBA {
	if t.Active {
		h := uint32(t.Type)*2654435761 + uint32(t.Color)*40503
		return color.NRGBA{R: uint8(h >> 24), G: uint8(h >> 16), B: uint8(h >> 8), A: 255}
	}
	if t.Wall != 0 {
		h := uint32(t.Wall)*2246822519 + uint32(t.WallColor)*3266489917
		return color.NRGBA{R: uint8(h>>24) / 3, G: uint8(h>>16) / 3, B: uint8(h>>8) / 3, A: 255}
	}
	return color.NRGBA{}
}

// NodeKind distinguishes the structural role of a Node.
type NodeKind uint8

const (
	KindContainer NodeKind = iota // holds children, may also react to touches
	KindLeaf                      // cannot hold children
	KindRoot                      // top of an interface tree, owned by a Root
)

func (k NodeKind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindLeaf:
		return "leaf"
	case KindRoot:
		return "root"
	}
	return fmt.Sprintf("NodeKind(%d)", uint8(k))
}

// TouchState tags a touch as the start, middle or end of a press-session.
type TouchState uint8

const (
	TouchBegin  TouchState = iota // pointer pressed
	TouchMoving                   // pointer held and moved
	TouchEnd                      // pointer released
)

func (s TouchState) String() string {
	switch s {
	case TouchBegin:
		return "begin"
	case TouchMoving:
		return "moving"
	case TouchEnd:
		return "end"
	}
	return fmt.Sprintf("TouchState(%d)", uint8(s))
}

// ParseTouchState is the inverse of TouchState.String.
func ParseTouchState(s string) (TouchState, error) {
	switch s {
	case "begin":
		return TouchBegin, nil
	case "moving":
		return TouchMoving, nil
	case "end":
		return TouchEnd, nil
	}
	return 0, fmt.Errorf("tileui: unknown touch state %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s TouchState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *TouchState) UnmarshalText(b []byte) error {
	v, err := ParseTouchState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// LockLevel selects which node a lock is placed on.
type LockLevel uint8

const (
	LockSelf LockLevel = iota // lock only the touched node
	LockRoot                  // lock the whole interface the node belongs to
)

func (l LockLevel) String() string {
	if l == LockRoot {
		return "root"
	}
	return "self"
}
