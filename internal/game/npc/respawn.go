package npc

import (
	"context"
	"fmt"
)

// ZoneSpawn places one enemy template at a fixed position in a zone.
type ZoneSpawn struct {
	TemplateID string
	X, Y       float64
}

// ClearedChecker reports whether a spawn id has been permanently cleared.
type ClearedChecker interface {
	IsDefeated(ctx context.Context, spawnID string) (bool, error)
}

// SpawnID returns the stable identifier of the index-th spawn in zoneID.
// It depends only on the zone layout, so it survives restarts.
func SpawnID(zoneID string, index int, templateID string) string {
	return fmt.Sprintf("%s/%d/%s", zoneID, index, templateID)
}

// PopulateZone spawns every enemy in layout that has not been cleared.
// Defeated enemies never return.
//
// Precondition: mgr, catalog and cleared must be non-nil.
// Postcondition: Returns the spawned instances, or an error naming an unknown
// template or a registry failure.
func PopulateZone(ctx context.Context, zoneID string, layout []ZoneSpawn, catalog *Catalog, cleared ClearedChecker, mgr *Manager) ([]*Instance, error) {
	var out []*Instance
	for i, s := range layout {
		tmpl, ok := catalog.Template(s.TemplateID)
		if !ok {
			return nil, fmt.Errorf("zone %q spawn %d: unknown enemy template %q", zoneID, i, s.TemplateID)
		}
		id := SpawnID(zoneID, i, s.TemplateID)
		done, err := cleared.IsDefeated(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("zone %q spawn %d: checking registry: %w", zoneID, i, err)
		}
		if done {
			continue
		}
		if _, live := mgr.Get(id); live {
			continue
		}
		inst, err := mgr.Spawn(id, tmpl, zoneID)
		if err != nil {
			return nil, err
		}
		inst.X, inst.Y = s.X, s.Y
		out = append(out, inst)
	}
	return out, nil
}
