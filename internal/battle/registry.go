package battle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/wasteland/internal/config"
	"github.com/cory-johannsen/wasteland/internal/storage/postgres"
)

// MemoryRegistry is a Registry that lives for the process lifetime.
// Safe for concurrent use.
type MemoryRegistry struct {
	mu      sync.RWMutex
	cleared map[string]string // spawnID → enemyID
}

// NewMemoryRegistry creates an empty MemoryRegistry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{cleared: make(map[string]string)}
}

// MarkDefeated implements Registry.
func (r *MemoryRegistry) MarkDefeated(_ context.Context, spawnID, enemyID, _ string) error {
	if spawnID == "" {
		return postgres.ErrEmptySpawnID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cleared[spawnID]; !ok {
		r.cleared[spawnID] = enemyID
	}
	return nil
}

// IsDefeated implements Registry.
func (r *MemoryRegistry) IsDefeated(_ context.Context, spawnID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.cleared[spawnID]
	return ok, nil
}

// List returns the cleared spawn ids in sorted order.
func (r *MemoryRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.cleared))
	for id := range r.cleared {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// OpenRegistry builds the Registry selected by cfg.Registry.Backend.
// The returned close function releases any database pool.
//
// Postcondition: Returns an error if the postgres backend cannot connect or
// its schema has not been migrated.
func OpenRegistry(ctx context.Context, cfg config.Config, logger *zap.Logger) (Registry, func(), error) {
	switch cfg.Registry.Backend {
	case "", "memory":
		logger.Info("defeated-spawn registry", zap.String("backend", "memory"))
		return NewMemoryRegistry(), func() {}, nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("opening registry: %w", err)
		}
		if err := pool.Health(ctx, 5*time.Second); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("opening registry: %w", err)
		}
		logger.Info("defeated-spawn registry",
			zap.String("backend", "postgres"),
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Name),
		)
		return pool.Repository(), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("opening registry: unknown backend %q", cfg.Registry.Backend)
	}
}
