package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"go.uber.org/zap"

	"github.com/cory-johannsen/wasteland/internal/battle"
	"github.com/cory-johannsen/wasteland/internal/game/choreography"
	"github.com/cory-johannsen/wasteland/internal/game/combat"
	"github.com/cory-johannsen/wasteland/internal/game/dice"
	"github.com/cory-johannsen/wasteland/internal/game/inventory"
	"github.com/cory-johannsen/wasteland/internal/game/npc"
	"github.com/cory-johannsen/wasteland/internal/game/sprite"
)

const (
	screenWidth  = 480
	screenHeight = 270
	cellSize     = 3
	walkSpeed    = 2.0
	touchRange   = 20.0
	lungeDist    = 40.0
)

var (
	playerBoxColor = color.RGBA{R: 70, G: 110, B: 200, A: 255}
	groundColor    = color.RGBA{R: 52, G: 44, B: 34, A: 255}
	battleBgColor  = color.RGBA{R: 24, G: 20, B: 18, A: 255}
	panelColor     = color.RGBA{R: 12, G: 12, B: 14, A: 230}
	hpColor        = color.RGBA{R: 200, G: 60, B: 50, A: 255}
	energyColor    = color.RGBA{R: 230, G: 190, B: 60, A: 255}
	barBackColor   = color.RGBA{R: 50, G: 50, B: 50, A: 255}
)

// actionKeys maps number keys to the player's battle menu.
var actionKeys = []struct {
	key    ebiten.Key
	action combat.ActionType
}{
	{ebiten.Key1, combat.ActionAttack},
	{ebiten.Key2, combat.ActionDefend},
	{ebiten.Key3, combat.ActionFly},
	{ebiten.Key4, combat.ActionHeal},
	{ebiten.Key5, combat.ActionDoubleAttack},
	{ebiten.Key6, combat.ActionFlee},
}

type playerActor struct {
	visible bool
	x, y    float64
}

func (p *playerActor) SetVisible(v bool) { p.visible = v }

type game struct {
	ctx      context.Context
	logger   *zap.Logger
	roller   *dice.Roller
	catalog  *npc.Catalog
	registry battle.Registry
	npcs     *npc.Manager
	zoneID   string
	mgr      *battle.Manager
	effects  *choreography.Effects
	reloaded <-chan string

	playerVisual sprite.Visual
	player       *playerActor
	weapon       inventory.Weapon
	frame        time.Duration

	scene  battle.Scene
	status string
	prims  map[*sprite.Asset][]sprite.Primitive
}

// gotoScene is the manager's router. It runs with the manager locked.
func (g *game) gotoScene(s battle.Scene) {
	g.scene = s
}

// finished runs with the manager locked.
func (g *game) finished(r battle.Result) {
	g.status = fmt.Sprintf("%s: %s", r.EnemyID, r.Outcome)
}

func (g *game) populate() error {
	var layout []npc.ZoneSpawn
	for i, t := range g.catalog.Templates() {
		layout = append(layout, npc.ZoneSpawn{
			TemplateID: t.ID,
			X:          float64(160 + 90*i),
			Y:          float64(80 + 50*(i%3)),
		})
	}
	spawned, err := npc.PopulateZone(g.ctx, g.zoneID, layout, g.catalog, g.registry, g.npcs)
	if err != nil {
		return err
	}
	g.logger.Info("zone populated", zap.String("zone", g.zoneID), zap.Int("live", len(spawned)))
	return nil
}

// Update implements ebiten.Game.
func (g *game) Update() error {
	if g.reloaded != nil {
		select {
		case path, ok := <-g.reloaded:
			if ok {
				g.prims = make(map[*sprite.Asset][]sprite.Primitive)
				g.status = "reloaded " + path
			}
		default:
		}
	}

	switch g.scene {
	case battle.SceneBattle:
		g.updateBattle()
	case battle.SceneDefeat:
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			if err := g.mgr.SetProgress(combat.NewPlayerProgress(g.weapon)); err != nil {
				return err
			}
			g.player.x, g.player.y = 24, screenHeight/2
			g.scene = battle.SceneOverworld
		}
	default:
		if inpututil.IsKeyJustPressed(ebiten.KeyQ) {
			return ebiten.Termination
		}
		g.updateOverworld()
	}
	if err := g.mgr.Update(g.ctx, g.frame); err != nil {
		g.logger.Error("battle teardown", zap.Error(err))
		g.status = err.Error()
	}
	g.effects.Advance(g.frame)
	return nil
}

func (g *game) updateOverworld() {
	p := g.player
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) || ebiten.IsKeyPressed(ebiten.KeyA) {
		p.x -= walkSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) || ebiten.IsKeyPressed(ebiten.KeyD) {
		p.x += walkSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) || ebiten.IsKeyPressed(ebiten.KeyW) {
		p.y -= walkSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) || ebiten.IsKeyPressed(ebiten.KeyS) {
		p.y += walkSpeed
	}
	p.x = math.Max(0, math.Min(screenWidth-24, p.x))
	p.y = math.Max(0, math.Min(screenHeight-24, p.y))

	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		g.startBattle(nil, false)
		return
	}
	ambush := inpututil.IsKeyJustPressed(ebiten.KeySpace)
	for _, inst := range g.npcs.InstancesInZone(g.zoneID) {
		if !inst.Visible() {
			continue
		}
		d := math.Hypot(inst.X-p.x, inst.Y-p.y)
		if d > touchRange && !(ambush && d <= touchRange*2) {
			continue
		}
		g.startBattle(inst, ambush)
		return
	}
}

func (g *game) startBattle(inst *npc.Instance, preemptive bool) {
	var (
		tmpl  *npc.Template
		enemy battle.EnemyActor
	)
	if inst != nil {
		tmpl, enemy = inst.Template, inst
	}
	g.effects.Reset()
	if _, err := g.mgr.Start(g.ctx, tmpl, enemy, g.player, preemptive); err != nil {
		g.logger.Warn("battle did not start", zap.Error(err))
		g.status = err.Error()
		if inst != nil && errors.Is(err, battle.ErrSpawnCleared) {
			inst.Destroy()
		}
		return
	}
	g.status = ""
}

func (g *game) updateBattle() {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		if err := g.mgr.CloseOverlay(g.ctx); err != nil {
			g.status = err.Error()
		}
		return
	}
	for _, k := range actionKeys {
		if !inpututil.IsKeyJustPressed(k.key) {
			continue
		}
		// Rejections surface through the encounter's own message line.
		if err := g.mgr.Act(k.action); err != nil {
			g.logger.Debug("action rejected", zap.Stringer("action", k.action), zap.Error(err))
		}
		return
	}
}

// Draw implements ebiten.Game.
func (g *game) Draw(screen *ebiten.Image) {
	switch g.scene {
	case battle.SceneBattle:
		g.drawBattle(screen)
	case battle.SceneDefeat:
		screen.Fill(color.Black)
		ebitenutil.DebugPrintAt(screen, "You collapse. The wasteland takes another soul.", 80, 120)
		ebitenutil.DebugPrintAt(screen, "Press Enter to rise again.", 150, 140)
	default:
		g.drawOverworld(screen)
	}
	if g.status != "" {
		ebitenutil.DebugPrintAt(screen, g.status, 4, screenHeight-16)
	}
}

func (g *game) drawOverworld(screen *ebiten.Image) {
	screen.Fill(groundColor)
	for _, inst := range g.npcs.InstancesInZone(g.zoneID) {
		if !inst.Visible() {
			continue
		}
		v, err := g.catalog.Visual(inst.Template)
		if err != nil {
			continue
		}
		g.drawVisual(screen, v, inst.X, inst.Y, 1, false)
	}
	if g.player.visible {
		g.drawVisual(screen, g.playerVisual, g.player.x, g.player.y, 1, false)
	}
	ebitenutil.DebugPrintAt(screen, "arrows: move  space: ambush  b: random battle  q: quit", 4, 4)
}

func (g *game) drawBattle(screen *ebiten.Image) {
	enc := g.mgr.Current()
	if enc == nil {
		return
	}
	screen.Fill(battleBgColor)

	shake := g.effects.CameraShake()
	ox := shake * (g.roller.Float64()*2 - 1)
	oy := shake * (g.roller.Float64()*2 - 1)

	px := 90 + ox + g.effects.Offset(choreography.TargetPlayer, lungeDist)
	py := 120 + oy
	g.drawVisual(screen, g.playerVisual, px, py, g.effects.Alpha(choreography.TargetPlayer), false)
	g.drawFlash(screen, choreography.TargetPlayer, g.playerVisual, px, py)

	if v, ok := g.mgr.EnemyVisual(); ok {
		ex := 330 + ox - g.effects.Offset(choreography.TargetEnemy, lungeDist)
		ey := 110 + oy
		g.drawVisual(screen, v, ex, ey, g.effects.Alpha(choreography.TargetEnemy), true)
		g.drawFlash(screen, choreography.TargetEnemy, v, ex, ey)
	}

	for _, b := range g.effects.Bursts() {
		cx, cy := anchor(b.Target)
		for i := 0; i < b.Count; i++ {
			angle := 2 * math.Pi * float64(i) / float64(b.Count)
			r := float32(4 + 30*b.Spread)
			x := float32(cx) + r*float32(math.Cos(angle))
			y := float32(cy) + r*float32(math.Sin(angle))
			vector.FillRect(screen, x, y, 2, 2, b.Color, false)
		}
	}
	for _, n := range g.effects.Numbers() {
		cx, cy := anchor(n.Target)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%d", n.Amount), int(cx), int(cy-10-30*n.Rise))
	}

	g.drawPanel(screen, enc)

	if text, ok := g.effects.Banner(); ok {
		vector.FillRect(screen, 0, 20, screenWidth, 20, panelColor, false)
		ebitenutil.DebugPrintAt(screen, text, screenWidth/2-len(text)*3, 22)
	}
	if c, ok := g.effects.ScreenFlash(); ok {
		vector.FillRect(screen, 0, 0, screenWidth, screenHeight, c, false)
	}
}

func (g *game) drawPanel(screen *ebiten.Image, enc *combat.Encounter) {
	bars := g.effects.Bars()
	if bars.PlayerMaxHP == 0 {
		p, e := enc.Progress(), enc.Enemy()
		bars = choreography.Bars{
			PlayerHP: p.HP, PlayerMaxHP: p.MaxHP,
			Energy: p.Energy, MaxEnergy: p.MaxEnergy,
			EnemyHP: e.CurrentHP, EnemyMaxHP: e.MaxHP,
		}
	}
	shakeP := float32(g.effects.PanelShake(choreography.TargetPlayer) * (g.roller.Float64()*2 - 1))
	shakeE := float32(g.effects.PanelShake(choreography.TargetEnemy) * (g.roller.Float64()*2 - 1))

	vector.FillRect(screen, 0, 190, screenWidth, 80, panelColor, false)
	drawBar(screen, 10+shakeP, 196, bars.PlayerHP, bars.PlayerMaxHP, hpColor)
	drawBar(screen, 10+shakeP, 206, bars.Energy, bars.MaxEnergy, energyColor)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("HP %d/%d  EN %d/%d", bars.PlayerHP, bars.PlayerMaxHP, bars.Energy, bars.MaxEnergy), 130, 194)
	drawBar(screen, 300+shakeE, 196, bars.EnemyHP, bars.EnemyMaxHP, hpColor)
	ebitenutil.DebugPrintAt(screen, enc.Enemy().Name, 300, 204)

	ebitenutil.DebugPrintAt(screen, enc.Message(), 10, 222)
	if enc.State() == combat.StatePlayerTurn && !enc.AwaitingResolution() {
		ebitenutil.DebugPrintAt(screen, "1 attack 2 defend 3 fly 4 heal 5 double 6 flee  esc: close", 10, 246)
	}
}

func (g *game) drawVisual(screen *ebiten.Image, v sprite.Visual, x, y, alpha float64, mirror bool) {
	if alpha <= 0 {
		return
	}
	if v.Kind == sprite.VisualSolid {
		vector.FillRect(screen, float32(x), float32(y), float32(v.Solid.Width), float32(v.Solid.Height), withAlpha(v.Solid.Color, alpha), false)
		return
	}
	prims, ok := g.prims[v.Sprite]
	if !ok {
		var err error
		prims, err = sprite.Decode(v.Sprite, 0, cellSize)
		if err != nil {
			g.logger.Error("decoding sprite", zap.String("sprite", v.Sprite.ID), zap.Error(err))
			g.prims[v.Sprite] = nil
			return
		}
		g.prims[v.Sprite] = prims
	}
	if mirror {
		w, _ := sprite.PixelSize(v.Sprite, cellSize)
		prims = sprite.Mirror(prims, w)
	}
	for _, p := range prims {
		vector.FillRect(screen, float32(x)+float32(p.X), float32(y)+float32(p.Y), float32(p.Size), float32(p.Size), withAlpha(p.Color, alpha), false)
	}
}

func (g *game) drawFlash(screen *ebiten.Image, t choreography.Target, v sprite.Visual, x, y float64) {
	c, ok := g.effects.Flash(t)
	if !ok {
		return
	}
	w, h := v.Size(cellSize)
	vector.FillRect(screen, float32(x), float32(y), float32(w), float32(h), withAlpha(c, 0.6), false)
}

// Layout implements ebiten.Game.
func (g *game) Layout(int, int) (int, int) {
	return screenWidth, screenHeight
}

func drawBar(screen *ebiten.Image, x, y float32, cur, limit int, c color.RGBA) {
	const width = 110
	vector.FillRect(screen, x, y, width, 6, barBackColor, false)
	if limit > 0 {
		vector.FillRect(screen, x, y, width*float32(cur)/float32(limit), 6, c, false)
	}
}

func anchor(t choreography.Target) (float64, float64) {
	if t == choreography.TargetEnemy {
		return 350, 130
	}
	return 110, 140
}

func withAlpha(c color.RGBA, alpha float64) color.RGBA {
	a := alpha * float64(c.A) / 255
	return color.RGBA{
		R: uint8(float64(c.R) * a),
		G: uint8(float64(c.G) * a),
		B: uint8(float64(c.B) * a),
		A: uint8(255 * a),
	}
}
