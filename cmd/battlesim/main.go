// Package main provides a headless battle runner that populates a zone from
// the enemy catalog and fights every live spawn with a scripted action cycle.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/wasteland/internal/battle"
	"github.com/cory-johannsen/wasteland/internal/config"
	"github.com/cory-johannsen/wasteland/internal/game/combat"
	"github.com/cory-johannsen/wasteland/internal/game/dice"
	"github.com/cory-johannsen/wasteland/internal/game/inventory"
	"github.com/cory-johannsen/wasteland/internal/game/npc"
	"github.com/cory-johannsen/wasteland/internal/observability"
	"github.com/cory-johannsen/wasteland/internal/scripting"
	"github.com/cory-johannsen/wasteland/internal/server"
)

// stallLimit bounds the simulated length of one encounter.
const stallLimit = 10 * time.Minute

type playerActor struct{ visible bool }

func (p *playerActor) SetVisible(v bool) { p.visible = v }

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	zoneID := flag.String("zone", "wastes", "zone whose spawns are fought")
	encounters := flag.Int("encounters", 0, "number of encounters to run; 0 fights every live spawn once")
	actionList := flag.String("actions", "attack", "comma-separated player actions, cycled")
	seed := flag.Uint64("seed", 0, "dice seed; 0 uses crypto randomness")
	preemptive := flag.Bool("preemptive", false, "the player ambushes every enemy")
	realtime := flag.Bool("realtime", false, "advance encounters on the wall clock")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	actions, err := battle.ParseActions(*actionList)
	if err != nil {
		logger.Fatal("parsing actions", zap.Error(err))
	}
	pilot, err := battle.NewAutopilot(actions)
	if err != nil {
		logger.Fatal("creating autopilot", zap.Error(err))
	}

	src := dice.NewCryptoSource()
	if *seed != 0 {
		src = dice.NewSeededSource(*seed)
	}
	roller := dice.NewLoggedRoller(src, logger)

	catalogStart := time.Now()
	catalog, err := npc.LoadCatalog(cfg.Content.EnemiesDir, cfg.Content.SpritesDir)
	if err != nil {
		logger.Fatal("loading enemy catalog", zap.Error(err))
	}
	logger.Info("enemy catalog loaded",
		zap.Int("templates", len(catalog.Templates())),
		zap.Duration("elapsed", time.Since(catalogStart)),
	)

	weapons, err := inventory.LoadRegistry(cfg.Content.WeaponsDir)
	if err != nil {
		logger.Fatal("loading weapons", zap.Error(err))
	}
	weapon := weapons.Weapon(cfg.Content.StartingWeapon)
	if weapon == nil {
		logger.Fatal("unknown starting weapon", zap.String("weapon", cfg.Content.StartingWeapon))
	}

	var hooks battle.HookRunner
	if cfg.Content.ScriptsDir != "" {
		scripts := scripting.NewManager(logger, 0)
		if err := scripts.LoadDir(cfg.Content.ScriptsDir); err != nil {
			logger.Fatal("loading scripts", zap.Error(err))
		}
		hooks = scripts
	}

	registry, closeRegistry, err := battle.OpenRegistry(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening defeat registry", zap.Error(err))
	}
	defer closeRegistry()

	npcMgr := npc.NewManager()
	var layout []npc.ZoneSpawn
	for i, t := range catalog.Templates() {
		layout = append(layout, npc.ZoneSpawn{TemplateID: t.ID, X: float64(48 + 64*i), Y: 96})
	}
	spawned, err := npc.PopulateZone(ctx, *zoneID, layout, catalog, registry, npcMgr)
	if err != nil {
		logger.Fatal("populating zone", zap.Error(err))
	}
	logger.Info("zone populated",
		zap.String("zone", *zoneID),
		zap.Int("layout", len(layout)),
		zap.Int("live", len(spawned)),
	)

	var (
		resultsMu sync.Mutex
		results   []battle.Result
	)
	mgr, err := battle.NewManager(battle.Deps{
		Rules:    cfg.Battle.Rules(),
		Timings:  cfg.Choreography.Timings(),
		Dice:     roller,
		Catalog:  catalog,
		Registry: registry,
		Hooks:    hooks,
		Router: battle.SceneFunc(func(s battle.Scene) {
			logger.Debug("scene", zap.Stringer("scene", s))
		}),
		Logger:   logger,
		OnFinish: func(r battle.Result) {
			resultsMu.Lock()
			results = append(results, r)
			resultsMu.Unlock()
		},
	}, combat.NewPlayerProgress(*weapon))
	if err != nil {
		logger.Fatal("creating battle manager", zap.Error(err))
	}

	total := *encounters
	if total <= 0 {
		total = len(spawned)
	}
	frame := cfg.Choreography.FrameDuration()
	player := &playerActor{visible: true}

	run := func() error {
		for i := 0; i < total; i++ {
			var enemy battle.EnemyActor
			var tmpl *npc.Template
			if i < len(spawned) {
				enemy, tmpl = spawned[i], spawned[i].Template
			}
			if _, err := mgr.Start(ctx, tmpl, enemy, player, *preemptive); err != nil {
				return err
			}
			var err error
			if *realtime {
				err = driveRealtime(ctx, pilot, mgr, frame)
			} else {
				err = pilot.Drive(ctx, mgr, frame, stallLimit)
			}
			if err != nil {
				return err
			}
			resultsMu.Lock()
			last := results[len(results)-1]
			resultsMu.Unlock()
			if last.Outcome == combat.Defeat {
				logger.Info("player defeated, restarting with fresh progress")
				if err := mgr.SetProgress(combat.NewPlayerProgress(*weapon)); err != nil {
					return err
				}
			}
		}
		return nil
	}

	lc := server.NewLifecycle(logger)
	lc.Add("battlesim", &server.FuncService{
		StartFn: run,
		StopFn:  cancel,
	})

	logger.Info("battlesim initialized", zap.Duration("startup", time.Since(start)))
	runErr := lc.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	resultsMu.Lock()
	printSummary(results, mgr.Progress())
	resultsMu.Unlock()
	if runErr != nil {
		logger.Error("battlesim failed", zap.Error(runErr))
		os.Exit(1)
	}
}

// driveRealtime ticks the live encounter from a FrameClock until it is torn down.
func driveRealtime(ctx context.Context, pilot *battle.Autopilot, mgr *battle.Manager, frame time.Duration) error {
	var tickErr error
	fc := combat.NewFrameClock(frame, func(dt time.Duration) bool {
		if tickErr = pilot.Tick(ctx, mgr, dt); tickErr != nil {
			return false
		}
		return mgr.InBattle()
	})
	select {
	case <-fc.Done():
	case <-ctx.Done():
		fc.Stop()
		<-fc.Done()
		return ctx.Err()
	}
	return tickErr
}

func printSummary(results []battle.Result, p combat.PlayerProgress) {
	counts := make(map[combat.Outcome]int)
	for _, r := range results {
		counts[r.Outcome]++
		fmt.Fprintf(os.Stdout, "== %s vs %s (%s) in %s\n", r.EncounterID, r.EnemyID, r.Outcome, r.Duration)
		for _, line := range r.Log {
			fmt.Fprintf(os.Stdout, "   %s\n", line)
		}
	}
	fmt.Fprintf(os.Stdout, "encounters=%d victory=%d defeat=%d fled=%d aborted=%d hp=%d/%d energy=%d/%d\n",
		len(results), counts[combat.Victory], counts[combat.Defeat], counts[combat.Fled], counts[combat.Aborted],
		p.HP, p.MaxHP, p.Energy, p.MaxEnergy)
}
