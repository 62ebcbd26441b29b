package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrEmptySpawnID is returned when a spawn id is blank.
var ErrEmptySpawnID = errors.New("spawn id must not be empty")

// DefeatedSpawn is one permanently cleared enemy placement.
type DefeatedSpawn struct {
	SpawnID     string
	EnemyID     string
	EncounterID string
	DefeatedAt  time.Time
}

// DefeatedRepository records which spawns the player has cleared.
type DefeatedRepository struct {
	db *pgxpool.Pool
}

// NewDefeatedRepository creates a DefeatedRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewDefeatedRepository(db *pgxpool.Pool) *DefeatedRepository {
	return &DefeatedRepository{db: db}
}

// MarkDefeated records spawnID as cleared. Marking an already cleared spawn
// keeps the first record.
//
// Precondition: spawnID must be non-empty.
// Postcondition: IsDefeated(spawnID) reports true.
func (r *DefeatedRepository) MarkDefeated(ctx context.Context, spawnID, enemyID, encounterID string) error {
	if spawnID == "" {
		return ErrEmptySpawnID
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO defeated_spawns (spawn_id, enemy_id, encounter_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (spawn_id) DO NOTHING`,
		spawnID, enemyID, encounterID,
	)
	if err != nil {
		return fmt.Errorf("marking spawn %q defeated: %w", spawnID, err)
	}
	return nil
}

// IsDefeated reports whether spawnID has been cleared.
func (r *DefeatedRepository) IsDefeated(ctx context.Context, spawnID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM defeated_spawns WHERE spawn_id = $1)`,
		spawnID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking spawn %q: %w", spawnID, err)
	}
	return exists, nil
}

// Get returns the record for spawnID.
//
// Postcondition: Returns pgx.ErrNoRows wrapped when spawnID was never cleared.
func (r *DefeatedRepository) Get(ctx context.Context, spawnID string) (DefeatedSpawn, error) {
	var d DefeatedSpawn
	err := r.db.QueryRow(ctx,
		`SELECT spawn_id, enemy_id, encounter_id, defeated_at
		 FROM defeated_spawns WHERE spawn_id = $1`,
		spawnID,
	).Scan(&d.SpawnID, &d.EnemyID, &d.EncounterID, &d.DefeatedAt)
	if err != nil {
		return DefeatedSpawn{}, fmt.Errorf("getting spawn %q: %w", spawnID, err)
	}
	return d, nil
}

// List returns every cleared spawn, oldest first.
func (r *DefeatedRepository) List(ctx context.Context) ([]DefeatedSpawn, error) {
	rows, err := r.db.Query(ctx,
		`SELECT spawn_id, enemy_id, encounter_id, defeated_at
		 FROM defeated_spawns ORDER BY defeated_at, spawn_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing defeated spawns: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (DefeatedSpawn, error) {
		var d DefeatedSpawn
		err := row.Scan(&d.SpawnID, &d.EnemyID, &d.EncounterID, &d.DefeatedAt)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning defeated spawns: %w", err)
	}
	return out, nil
}

// Forget removes spawnID from the registry so it respawns.
func (r *DefeatedRepository) Forget(ctx context.Context, spawnID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM defeated_spawns WHERE spawn_id = $1`, spawnID); err != nil {
		return fmt.Errorf("forgetting spawn %q: %w", spawnID, err)
	}
	return nil
}
