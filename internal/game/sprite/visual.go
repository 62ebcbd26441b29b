package sprite

import (
	"fmt"
	"image/color"
)

// VisualKind tags the variant held by a Visual.
type VisualKind int

const (
	VisualSolid VisualKind = iota
	VisualSprite
)

// Solid is a plain colored box.
type Solid struct {
	Color         color.RGBA
	Width, Height int
}

// Visual is how a combatant is drawn: either a decoded Sprite or a Solid box.
// It is resolved once when an encounter is set up.
type Visual struct {
	Kind   VisualKind
	Sprite *Asset
	Solid  Solid
}

// SpriteVisual wraps a validated asset.
func SpriteVisual(a *Asset) Visual {
	return Visual{Kind: VisualSprite, Sprite: a}
}

// SolidVisual wraps a colored box.
func SolidVisual(c color.RGBA, width, height int) Visual {
	return Visual{Kind: VisualSolid, Solid: Solid{Color: c, Width: width, Height: height}}
}

// Resolve picks the sprite when one is given and falls back to the solid box.
// A non-nil asset is validated so a battle never starts with a partially
// decodable combatant.
func Resolve(a *Asset, fallback Solid) (Visual, error) {
	if a == nil {
		if fallback.Width < 1 || fallback.Height < 1 {
			return Visual{}, fmt.Errorf("solid visual: width and height must be >= 1, got %dx%d", fallback.Width, fallback.Height)
		}
		return Visual{Kind: VisualSolid, Solid: fallback}, nil
	}
	if err := a.Validate(); err != nil {
		return Visual{}, err
	}
	return SpriteVisual(a), nil
}

// Size returns the pixel footprint of the visual. cellSize applies to sprites
// only; a solid box is already measured in pixels.
func (v Visual) Size(cellSize int) (int, int) {
	if v.Kind == VisualSprite {
		return PixelSize(v.Sprite, cellSize)
	}
	return v.Solid.Width, v.Solid.Height
}
