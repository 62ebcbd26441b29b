package npc

import (
	"fmt"
	"sort"
	"sync"
)

// Manager tracks all live overworld enemies by spawn ID and by zone.
// All methods are safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	instances map[string]*Instance       // spawnID → Instance
	zoneSets  map[string]map[string]bool // zoneID → set of spawnIDs
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		instances: make(map[string]*Instance),
		zoneSets:  make(map[string]map[string]bool),
	}
}

// Spawn places a new enemy from tmpl in zoneID under the given spawn id.
// Destroying the instance removes it from the manager.
//
// Precondition: tmpl must be non-nil; id and zoneID must be non-empty.
// Postcondition: Returns an error if id is already live.
func (m *Manager) Spawn(id string, tmpl *Template, zoneID string) (*Instance, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("npc.Manager.Spawn: tmpl must not be nil")
	}
	if id == "" || zoneID == "" {
		return nil, fmt.Errorf("npc.Manager.Spawn: id and zoneID must not be empty")
	}

	inst := NewInstance(id, tmpl, zoneID)
	inst.onDestroy = func(i *Instance) { _ = m.Remove(i.ID) }

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.instances[id]; exists {
		return nil, fmt.Errorf("npc.Manager.Spawn: spawn %q already live", id)
	}
	m.instances[id] = inst
	if m.zoneSets[zoneID] == nil {
		m.zoneSets[zoneID] = make(map[string]bool)
	}
	m.zoneSets[zoneID][id] = true

	return inst, nil
}

// Remove deletes an instance by spawn id.
//
// Postcondition: Returns an error if the instance is not found.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.instances[id]
	if !ok {
		return fmt.Errorf("spawn %q not found", id)
	}
	delete(m.instances, id)
	if set := m.zoneSets[inst.ZoneID]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(m.zoneSets, inst.ZoneID)
		}
	}
	return nil
}

// Get returns the live instance with the given spawn id.
func (m *Manager) Get(id string) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instances[id]
	return inst, ok
}

// InstancesInZone returns the live instances in zoneID sorted by spawn id.
func (m *Manager) InstancesInZone(zoneID string) []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.zoneSets[zoneID]
	out := make([]*Instance, 0, len(set))
	for id := range set {
		out = append(out, m.instances[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
