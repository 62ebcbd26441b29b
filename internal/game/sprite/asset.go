// Package sprite decodes palette-indexed pixel sprites into draw primitives
// and resolves a combatant's visual representation.
package sprite

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrFrameMissing is returned when a requested frame does not exist.
	ErrFrameMissing = errors.New("sprite frame missing")
	// ErrPaletteIndex is returned when a cell references a color outside the palette.
	ErrPaletteIndex = errors.New("sprite palette index out of range")
	// ErrGridShape is returned when a frame grid does not match width and height.
	ErrGridShape = errors.New("sprite grid shape mismatch")
)

// RGB is one palette entry.
type RGB [3]uint8

// Frame is one animation frame: Pixels[row][col] is a palette index, or nil
// for a transparent cell.
type Frame struct {
	Pixels [][]*int `yaml:"pixels"`
}

// Asset is a palette-indexed sprite as stored on disk.
//
// Single-frame files written by the pixel editor carry a top-level pixels
// grid instead of a frames list; Parse normalizes both into Frames.
type Asset struct {
	ID      string   `yaml:"id"`
	Width   int      `yaml:"width"`
	Height  int      `yaml:"height"`
	Palette []RGB    `yaml:"palette"`
	Frames  []Frame  `yaml:"frames"`
	Pixels  [][]*int `yaml:"pixels"`
}

// Validate checks every frame against the declared dimensions and palette.
//
// Precondition: a must not be nil.
// Postcondition: Returns nil iff Width and Height are >= 1, at least one frame
// exists, every frame is Height rows of Width cells, and every non-nil cell
// indexes into Palette. Returns an error on the first violation otherwise.
func (a *Asset) Validate() error {
	if a.Width < 1 || a.Height < 1 {
		return fmt.Errorf("sprite %q: width and height must be >= 1, got %dx%d", a.ID, a.Width, a.Height)
	}
	if len(a.Frames) == 0 {
		return fmt.Errorf("sprite %q: %w: no frames", a.ID, ErrFrameMissing)
	}
	for i := range a.Frames {
		if err := a.validateFrame(i); err != nil {
			return err
		}
	}
	return nil
}

func (a *Asset) validateFrame(i int) error {
	f := a.Frames[i]
	if len(f.Pixels) != a.Height {
		return fmt.Errorf("sprite %q frame %d: %w: %d rows, want %d", a.ID, i, ErrGridShape, len(f.Pixels), a.Height)
	}
	for row, cells := range f.Pixels {
		if len(cells) != a.Width {
			return fmt.Errorf("sprite %q frame %d row %d: %w: %d cells, want %d", a.ID, i, row, ErrGridShape, len(cells), a.Width)
		}
		for col, idx := range cells {
			if idx == nil {
				continue
			}
			if *idx < 0 || *idx >= len(a.Palette) {
				return fmt.Errorf("sprite %q frame %d cell (%d,%d): %w: %d not in [0,%d)", a.ID, i, col, row, ErrPaletteIndex, *idx, len(a.Palette))
			}
		}
	}
	return nil
}

// Parse decodes a sprite from JSON or YAML bytes and validates it.
//
// Postcondition: Returns a validated *Asset with at least one frame, or an error.
func Parse(data []byte) (*Asset, error) {
	var a Asset
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("parsing sprite: %w", err)
	}
	if len(a.Frames) == 0 && a.Pixels != nil {
		a.Frames = []Frame{{Pixels: a.Pixels}}
	}
	a.Pixels = nil
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Load reads and parses a single sprite file. The asset ID defaults to the
// file name without extension.
func Load(path string) (*Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	a, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	if a.ID == "" {
		a.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return a, nil
}

// LoadDirectory reads every *.json, *.yaml and *.yml file in dir, keyed by asset ID.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all sprites or an error on the first failure.
func LoadDirectory(dir string) (map[string]*Asset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading sprite dir %q: %w", dir, err)
	}
	out := make(map[string]*Asset)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		a, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if _, dup := out[a.ID]; dup {
			return nil, fmt.Errorf("sprite dir %q: duplicate sprite id %q", dir, a.ID)
		}
		out[a.ID] = a
	}
	return out, nil
}
