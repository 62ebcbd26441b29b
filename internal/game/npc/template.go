// Package npc provides enemy template definitions, the overworld spawns built
// from them, and hot reload of template content.
package npc

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template defines a reusable enemy archetype loaded from YAML.
type Template struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	MaxHP     int    `yaml:"max_hp"`
	DamageMin int    `yaml:"damage_min"`
	DamageMax int    `yaml:"damage_max"`
	// Speed feeds initiative. Zero means the template has no speed stat.
	Speed int `yaml:"speed"`
	// Sprite is a sprite asset ID; empty means the enemy is drawn as a solid box.
	Sprite string   `yaml:"sprite"`
	Color  [3]uint8 `yaml:"color"`
	Width  int      `yaml:"width"`
	Height int      `yaml:"height"`
	// OnDefeat names a Lua function run once when this enemy is defeated.
	OnDefeat string `yaml:"on_defeat"`
}

// RGBA returns the template's fallback box color.
func (t *Template) RGBA() color.RGBA {
	return color.RGBA{R: t.Color[0], G: t.Color[1], B: t.Color[2], A: 0xff}
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, MaxHP >= 1,
// 0 <= DamageMin <= DamageMax, Speed >= 0, and the box is at least 1x1;
// returns an error on the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("enemy template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("enemy template %q: name must not be empty", t.ID)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("enemy template %q: max_hp must be >= 1", t.ID)
	}
	if t.DamageMin < 0 {
		return fmt.Errorf("enemy template %q: damage_min must be >= 0", t.ID)
	}
	if t.DamageMin > t.DamageMax {
		return fmt.Errorf("enemy template %q: damage_min %d exceeds damage_max %d", t.ID, t.DamageMin, t.DamageMax)
	}
	if t.Speed < 0 {
		return fmt.Errorf("enemy template %q: speed must be >= 0", t.ID)
	}
	if t.Width < 1 || t.Height < 1 {
		return fmt.Errorf("enemy template %q: width and height must be >= 1", t.ID)
	}
	return nil
}

// LoadTemplateFromBytes parses a single enemy template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading enemy dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
