package inventory

import (
	"fmt"
	"sort"
)

// Registry holds all loaded weapon definitions indexed by ID.
type Registry struct {
	weapons map[string]*Weapon
}

// NewRegistry returns an empty Registry.
//
// Postcondition: all internal maps are initialised.
func NewRegistry() *Registry {
	return &Registry{weapons: make(map[string]*Weapon)}
}

// LoadRegistry loads every weapon in dir into a new Registry.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns a Registry holding every weapon, or an error on a
// load failure or duplicate ID.
func LoadRegistry(dir string) (*Registry, error) {
	weapons, err := LoadWeapons(dir)
	if err != nil {
		return nil, err
	}
	r := NewRegistry()
	for _, w := range weapons {
		if err := r.RegisterWeapon(w); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RegisterWeapon adds w to the registry.
//
// Precondition:  w must not be nil.
// Postcondition: Weapon(w.ID) returns w; returns error if w.ID already registered.
func (r *Registry) RegisterWeapon(w *Weapon) error {
	if _, exists := r.weapons[w.ID]; exists {
		return fmt.Errorf("inventory: Registry.RegisterWeapon: weapon ID %q already registered", w.ID)
	}
	r.weapons[w.ID] = w
	return nil
}

// Weapon returns the weapon with the given ID, or nil if not found.
func (r *Registry) Weapon(id string) *Weapon {
	return r.weapons[id]
}

// AllWeapons returns every registered weapon sorted by ID.
func (r *Registry) AllWeapons() []*Weapon {
	out := make([]*Weapon, 0, len(r.weapons))
	for _, w := range r.weapons {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
