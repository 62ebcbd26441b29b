// Package main provides the interactive battle viewer: a small overworld of
// enemy spawns whose encounters open as an animated battle overlay.
package main

import (
	"context"
	"flag"
	"log"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/cory-johannsen/wasteland/internal/battle"
	"github.com/cory-johannsen/wasteland/internal/config"
	"github.com/cory-johannsen/wasteland/internal/game/choreography"
	"github.com/cory-johannsen/wasteland/internal/game/combat"
	"github.com/cory-johannsen/wasteland/internal/game/dice"
	"github.com/cory-johannsen/wasteland/internal/game/inventory"
	"github.com/cory-johannsen/wasteland/internal/game/npc"
	"github.com/cory-johannsen/wasteland/internal/game/sprite"
	"github.com/cory-johannsen/wasteland/internal/observability"
	"github.com/cory-johannsen/wasteland/internal/scripting"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	zoneID := flag.String("zone", "wastes", "zone to populate")
	seed := flag.Uint64("seed", 0, "dice seed; 0 uses crypto randomness")
	watch := flag.Bool("watch", true, "reload enemy templates and sprites when they change")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	src := dice.NewCryptoSource()
	if *seed != 0 {
		src = dice.NewSeededSource(*seed)
	}
	roller := dice.NewLoggedRoller(src, logger)

	catalog, err := npc.LoadCatalog(cfg.Content.EnemiesDir, cfg.Content.SpritesDir)
	if err != nil {
		logger.Fatal("loading enemy catalog", zap.Error(err))
	}
	weapons, err := inventory.LoadRegistry(cfg.Content.WeaponsDir)
	if err != nil {
		logger.Fatal("loading weapons", zap.Error(err))
	}
	weapon := weapons.Weapon(cfg.Content.StartingWeapon)
	if weapon == nil {
		logger.Fatal("unknown starting weapon", zap.String("weapon", cfg.Content.StartingWeapon))
	}

	playerVisual := sprite.SolidVisual(playerBoxColor, 24, 24)
	if cfg.Content.SpritesDir != "" {
		asset, err := sprite.Load(filepath.Join(cfg.Content.SpritesDir, "player.json"))
		if err != nil {
			logger.Warn("player sprite unavailable, drawing a box", zap.Error(err))
		} else if v, err := sprite.Resolve(asset, playerVisual.Solid); err != nil {
			logger.Warn("player sprite invalid, drawing a box", zap.Error(err))
		} else {
			playerVisual = v
		}
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

	g := &game{
		ctx:          ctx,
		logger:       logger,
		roller:       roller,
		catalog:      catalog,
		registry:     registry,
		npcs:         npc.NewManager(),
		zoneID:       *zoneID,
		effects:      choreography.NewEffects(),
		playerVisual: playerVisual,
		player:       &playerActor{visible: true, x: 24, y: screenHeight / 2},
		weapon:       *weapon,
		frame:        cfg.Choreography.FrameDuration(),
		prims:        make(map[*sprite.Asset][]sprite.Primitive),
	}
	g.mgr, err = battle.NewManager(battle.Deps{
		Rules:    cfg.Battle.Rules(),
		Timings:  cfg.Choreography.Timings(),
		Dice:     roller,
		Catalog:  catalog,
		Registry: registry,
		Hooks:    hooks,
		Router:   battle.SceneFunc(g.gotoScene),
		Stage:    g.effects,
		Logger:   logger,
		OnFinish: g.finished,
	}, combat.NewPlayerProgress(*weapon))
	if err != nil {
		logger.Fatal("creating battle manager", zap.Error(err))
	}
	if err := g.populate(); err != nil {
		logger.Fatal("populating zone", zap.Error(err))
	}

	if *watch {
		w, err := npc.NewWatcher(catalog, logger, cfg.Content.EnemiesDir, cfg.Content.SpritesDir)
		if err != nil {
			logger.Warn("content hot reload disabled", zap.Error(err))
		} else {
			defer w.Close()
			g.reloaded = w.Reloaded
		}
	}

	logger.Info("battleview initialized", zap.Duration("startup", time.Since(start)))

	ebiten.SetWindowTitle("Wasteland")
	ebiten.SetWindowSize(screenWidth*2, screenHeight*2)
	ebiten.SetTPS(cfg.Choreography.FrameRate)
	if err := ebiten.RunGame(g); err != nil && err != ebiten.Termination {
		logger.Fatal("running viewer", zap.Error(err))
	}
}
