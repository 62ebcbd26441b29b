package npc

import "sync"

// Instance is an enemy placed in the overworld. It is the actor that triggers
// an encounter and is hidden, restored, or destroyed by the battle lifecycle.
type Instance struct {
	// ID is the stable spawn identifier recorded when the enemy is defeated.
	ID       string
	Template *Template
	ZoneID   string
	X, Y     float64

	mu        sync.Mutex
	visible   bool
	destroyed bool
	onDestroy func(*Instance)
}

// NewInstance creates a visible overworld enemy from tmpl.
//
// Precondition: id must be non-empty; tmpl must be non-nil.
func NewInstance(id string, tmpl *Template, zoneID string) *Instance {
	return &Instance{ID: id, Template: tmpl, ZoneID: zoneID, visible: true}
}

// SpawnID returns the stable spawn identifier.
func (i *Instance) SpawnID() string { return i.ID }

// SetVisible shows or hides the enemy. A destroyed enemy stays hidden.
func (i *Instance) SetVisible(v bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.destroyed {
		return
	}
	i.visible = v
}

// Visible reports whether the enemy is drawn in the overworld.
func (i *Instance) Visible() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.visible
}

// Destroy removes the enemy from the overworld. Repeated calls are no-ops.
func (i *Instance) Destroy() {
	i.mu.Lock()
	if i.destroyed {
		i.mu.Unlock()
		return
	}
	i.destroyed = true
	i.visible = false
	hook := i.onDestroy
	i.mu.Unlock()
	if hook != nil {
		hook(i)
	}
}

// Exists reports whether the enemy has not been destroyed.
func (i *Instance) Exists() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return !i.destroyed
}
