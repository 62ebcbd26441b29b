package npc

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cory-johannsen/wasteland/internal/game/dice"
	"github.com/cory-johannsen/wasteland/internal/game/sprite"
)

// Catalog holds the loaded enemy templates and the sprites they reference.
// All methods are safe for concurrent use.
type Catalog struct {
	mu         sync.RWMutex
	enemiesDir string
	spritesDir string
	templates  map[string]*Template
	order      []string
	sprites    map[string]*sprite.Asset
}

// NewCatalog builds a catalog from already-loaded content.
//
// Precondition: every template's Sprite, when set, is a key of sprites.
// Postcondition: Returns a non-nil Catalog, or an error naming the first
// duplicate id or dangling sprite reference.
func NewCatalog(templates []*Template, sprites map[string]*sprite.Asset) (*Catalog, error) {
	c := &Catalog{}
	if err := c.replace(templates, sprites); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadCatalog loads templates from enemiesDir and sprites from spritesDir.
// An empty spritesDir loads no sprites.
//
// Postcondition: Reload re-reads the same directories.
func LoadCatalog(enemiesDir, spritesDir string) (*Catalog, error) {
	c := &Catalog{enemiesDir: enemiesDir, spritesDir: spritesDir}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the catalog's directories. On error the previous content is kept.
func (c *Catalog) Reload() error {
	templates, err := LoadTemplates(c.enemiesDir)
	if err != nil {
		return err
	}
	sprites := map[string]*sprite.Asset{}
	if c.spritesDir != "" {
		sprites, err = sprite.LoadDirectory(c.spritesDir)
		if err != nil {
			return err
		}
	}
	return c.replace(templates, sprites)
}

func (c *Catalog) replace(templates []*Template, sprites map[string]*sprite.Asset) error {
	byID := make(map[string]*Template, len(templates))
	order := make([]string, 0, len(templates))
	for _, t := range templates {
		if _, dup := byID[t.ID]; dup {
			return fmt.Errorf("enemy catalog: duplicate template id %q", t.ID)
		}
		if t.Sprite != "" {
			if _, ok := sprites[t.Sprite]; !ok {
				return fmt.Errorf("enemy template %q: unknown sprite %q", t.ID, t.Sprite)
			}
		}
		byID[t.ID] = t
		order = append(order, t.ID)
	}
	sort.Strings(order)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.templates = byID
	c.order = order
	c.sprites = sprites
	return nil
}

// Template returns the template with the given id.
func (c *Catalog) Template(id string) (*Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.templates[id]
	return t, ok
}

// Sprite returns the sprite asset with the given id.
func (c *Catalog) Sprite(id string) (*sprite.Asset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.sprites[id]
	return a, ok
}

// Templates returns every template sorted by id.
func (c *Catalog) Templates() []*Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Template, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.templates[id])
	}
	return out
}

// Pick returns a uniformly random template.
//
// Postcondition: Returns an error only when the catalog is empty.
func (c *Catalog) Pick(src dice.Source) (*Template, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.order) == 0 {
		return nil, fmt.Errorf("enemy catalog is empty")
	}
	return c.templates[c.order[src.Intn(len(c.order))]], nil
}

// Visual resolves how t is drawn: its sprite when it has one, else its box.
func (c *Catalog) Visual(t *Template) (sprite.Visual, error) {
	var asset *sprite.Asset
	if t.Sprite != "" {
		a, ok := c.Sprite(t.Sprite)
		if !ok {
			return sprite.Visual{}, fmt.Errorf("enemy template %q: unknown sprite %q", t.ID, t.Sprite)
		}
		asset = a
	}
	return sprite.Resolve(asset, sprite.Solid{Color: t.RGBA(), Width: t.Width, Height: t.Height})
}
