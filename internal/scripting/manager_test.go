package scripting_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/wasteland/internal/game/combat"
	"github.com/cory-johannsen/wasteland/internal/game/inventory"
	"github.com/cory-johannsen/wasteland/internal/scripting"
)

func newTestManager(t testing.TB) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return scripting.NewManager(zap.New(core), 0), logs
}

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0644))
	return dir
}

func newProgress() *combat.PlayerProgress {
	p := combat.NewPlayerProgress(inventory.Weapon{ID: "stick", Name: "Stick", DamageMin: 4, DamageMax: 8})
	return &p
}

var ghoulEvent = scripting.DefeatEvent{EncounterID: "e1", EnemyID: "ghoul", EnemyName: "Ghoul", SpawnID: "ruins/0/ghoul"}

func TestManager_RunDefeatHook_SetsFlag(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "hooks.lua", `
		function on_ghoul(ev)
			progress.set_flag("killed_" .. ev.enemy_id)
			progress.set_flag("spared", false)
		end
	`)
	require.NoError(t, mgr.LoadDir(dir))

	p := newProgress()
	require.NoError(t, mgr.RunDefeatHook(context.Background(), "on_ghoul", ghoulEvent, p))
	assert.True(t, p.Flag("killed_ghoul"))
	v, ok := p.Flags["spared"]
	assert.True(t, ok)
	assert.False(t, v)
}

func TestManager_RunDefeatHook_EmptyHookIsNoOp(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.NoError(t, mgr.RunDefeatHook(context.Background(), "", ghoulEvent, newProgress()))
}

func TestManager_RunDefeatHook_MissingHook(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("empty", `-- no functions`))
	err := mgr.RunDefeatHook(context.Background(), "nope", ghoulEvent, newProgress())
	assert.ErrorIs(t, err, scripting.ErrHookNotFound)
}

func TestManager_RunDefeatHook_RuntimeError(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("bad", `function bad() error("intentional") end`))
	assert.Error(t, mgr.RunDefeatHook(context.Background(), "bad", ghoulEvent, newProgress()))
}

func TestManager_RunDefeatHook_InfiniteLoopIsStopped(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(zap.New(core), 1000)
	require.NoError(t, mgr.LoadString("spin", `function spin() while true do end end`))
	assert.Error(t, mgr.RunDefeatHook(context.Background(), "spin", ghoulEvent, newProgress()))
}

func TestManager_RunDefeatHook_EnergyAndHealClamp(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("gift", `
		function gift()
			assert(progress.gain_energy(100) == 4)
			progress.heal(100)
		end
	`))
	p := newProgress()
	require.NoError(t, mgr.RunDefeatHook(context.Background(), "gift", ghoulEvent, p))
	assert.Equal(t, p.MaxEnergy, p.Energy)
	assert.Equal(t, p.MaxHP, p.HP)
}

func TestManager_RunDefeatHook_NoStateSharedBetweenCalls(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("count", `
		calls = 0
		function count()
			calls = calls + 1
			if calls > 1 then error("state leaked") end
		end
	`))
	for i := 0; i < 3; i++ {
		require.NoError(t, mgr.RunDefeatHook(context.Background(), "count", ghoulEvent, newProgress()))
	}
}

func TestManager_LoadDir_SyntaxErrorKeepsPrevious(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("ok", `function ok() end`))

	dir := writeTempLua(t, "broken.lua", `function (`)
	assert.Error(t, mgr.LoadDir(dir))
	assert.NoError(t, mgr.RunDefeatHook(context.Background(), "ok", ghoulEvent, newProgress()))
}

func TestManager_LoadDir_MissingDir(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.Error(t, mgr.LoadDir(filepath.Join(t.TempDir(), "missing")))
}

func TestManager_ShippedScripts(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.LoadDir("../../content/scripts"))

	p := newProgress()
	require.NoError(t, mgr.RunDefeatHook(context.Background(), "ghoul_defeated", ghoulEvent, p))
	assert.True(t, p.Flag("ghoul_slain"))
	assert.NotEmpty(t, logs.FilterMessage("script").All())

	energy := p.Energy
	require.NoError(t, mgr.RunDefeatHook(context.Background(), "golem_defeated", ghoulEvent, p))
	assert.Equal(t, energy+3, p.Energy)
	require.NoError(t, mgr.RunDefeatHook(context.Background(), "golem_defeated", ghoulEvent, p))
	assert.Equal(t, energy+3, p.Energy, "golem core is granted once")
}
