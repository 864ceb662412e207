package tileui

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// snapshotScale is the pixel size of one tile in snapshots.
const snapshotScale = 4

// Snapshot writes a PNG of the whole world as user sees it to SnapshotDir,
// with a timestamped filename. Returns the written path.
func (u *UI) Snapshot(user int, label string) (string, error) {
	if err := os.MkdirAll(u.SnapshotDir, 0o755); err != nil {
		return "", fmt.Errorf("snapshot: mkdir %s: %w", u.SnapshotDir, err)
	}
	bounds := u.world.Bounds()
	img := RenderTiles(u.View(user, bounds), bounds.Width, bounds.Height, snapshotScale)

	stamp := u.now().Format("20060102_150405")
	path := filepath.Join(u.SnapshotDir, fmt.Sprintf("%s_%s.png", stamp, sanitizeLabel(label)))
	if err := writePNG(path, img); err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	u.logger.Info("tileui: snapshot written", "path", path, "user", user)
	return path, nil
}

// RenderTiles draws a row-major tile buffer into an image, scale pixels per
// tile, using TileColor.
func RenderTiles(tiles []Tile, width, height, scale int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width*scale, height*scale))
	for ty := 0; ty < height; ty++ {
		for tx := 0; tx < width; tx++ {
			c := TileColor(tiles[ty*width+tx])
			if c.A == 0 {
				continue
			}
			for py := ty * scale; py < (ty+1)*scale; py++ {
				for px := tx * scale; px < (tx+1)*scale; px++ {
					img.SetNRGBA(px, py, c)
				}
			}
		}
	}
	return img
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img *image.NRGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

