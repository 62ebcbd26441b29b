package sprite

import (
	"fmt"
	"image/color"
)

// Primitive is one opaque cell of a decoded sprite: a Size x Size square at
// (X, Y) relative to the sprite's top-left corner.
type Primitive struct {
	X, Y  int
	Size  int
	Color color.RGBA
}

// Decode converts one frame into draw primitives, one per non-transparent cell,
// positioned at (col*cellSize, row*cellSize) and colored by palette lookup.
//
// Precondition: a must not be nil; cellSize >= 1.
// Postcondition: Returns ErrFrameMissing when frame is out of range and
// ErrPaletteIndex when a cell is not a palette index; no partial result is
// returned on error.
func Decode(a *Asset, frame, cellSize int) ([]Primitive, error) {
	if cellSize < 1 {
		return nil, fmt.Errorf("sprite %q: cell size must be >= 1, got %d", a.ID, cellSize)
	}
	if frame < 0 || frame >= len(a.Frames) {
		return nil, fmt.Errorf("sprite %q: %w: frame %d of %d", a.ID, ErrFrameMissing, frame, len(a.Frames))
	}
	if err := a.validateFrame(frame); err != nil {
		return nil, err
	}
	var prims []Primitive
	for row, cells := range a.Frames[frame].Pixels {
		for col, idx := range cells {
			if idx == nil {
				continue
			}
			c := a.Palette[*idx]
			prims = append(prims, Primitive{
				X:     col * cellSize,
				Y:     row * cellSize,
				Size:  cellSize,
				Color: color.RGBA{R: c[0], G: c[1], B: c[2], A: 0xff},
			})
		}
	}
	return prims, nil
}

// Mirror flips primitives horizontally about the midline of a sprite that is
// widthPx pixels wide. The input is not modified.
//
// Postcondition: Mirror(Mirror(p, w), w) equals p.
func Mirror(prims []Primitive, widthPx int) []Primitive {
	out := make([]Primitive, len(prims))
	for i, p := range prims {
		p.X = widthPx - p.X - p.Size
		out[i] = p
	}
	return out
}

// PixelSize returns the decoded footprint of a in pixels.
func PixelSize(a *Asset, cellSize int) (int, int) {
	return a.Width * cellSize, a.Height * cellSize
}
