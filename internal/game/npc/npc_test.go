package npc_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/wasteland/internal/game/dice"
	"github.com/cory-johannsen/wasteland/internal/game/npc"
	"github.com/cory-johannsen/wasteland/internal/game/sprite"
)

const ghoulYAML = `id: ghoul
name: Ghoul
max_hp: 18
damage_min: 3
damage_max: 6
speed: 5
color: [160, 200, 160]
width: 24
height: 24
`

func contentDir(parts ...string) string {
	return filepath.Join(append([]string{"..", "..", "..", "content"}, parts...)...)
}

func TestLoadTemplateFromBytes(t *testing.T) {
	tmpl, err := npc.LoadTemplateFromBytes([]byte(ghoulYAML))
	require.NoError(t, err)
	assert.Equal(t, "Ghoul", tmpl.Name)
	assert.Equal(t, 18, tmpl.MaxHP)
	assert.Equal(t, [3]uint8{160, 200, 160}, tmpl.Color)
	assert.Equal(t, uint8(255), tmpl.RGBA().A)
}

func TestLoadTemplateFromBytes_UnknownField(t *testing.T) {
	_, err := npc.LoadTemplateFromBytes([]byte(ghoulYAML + "armor: 3\n"))
	assert.Error(t, err)
}

func TestTemplate_Validate(t *testing.T) {
	base := func() *npc.Template {
		return &npc.Template{ID: "x", Name: "X", MaxHP: 1, DamageMin: 1, DamageMax: 2, Width: 1, Height: 1}
	}
	require.NoError(t, base().Validate())

	cases := map[string]func(*npc.Template){
		"empty id":       func(t *npc.Template) { t.ID = "" },
		"empty name":     func(t *npc.Template) { t.Name = "" },
		"zero hp":        func(t *npc.Template) { t.MaxHP = 0 },
		"negative min":   func(t *npc.Template) { t.DamageMin = -1 },
		"inverted range": func(t *npc.Template) { t.DamageMin = 5 },
		"negative speed": func(t *npc.Template) { t.Speed = -1 },
		"empty box":      func(t *npc.Template) { t.Width = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			tmpl := base()
			mutate(tmpl)
			assert.Error(t, tmpl.Validate())
		})
	}
}

func TestLoadTemplates_ShippedContent(t *testing.T) {
	templates, err := npc.LoadTemplates(contentDir("enemies"))
	require.NoError(t, err)
	byID := map[string]*npc.Template{}
	for _, tmpl := range templates {
		byID[tmpl.ID] = tmpl
	}
	require.Contains(t, byID, "ghoul")
	require.Contains(t, byID, "orc")
	require.Contains(t, byID, "golem")
	assert.Equal(t, 14, byID["orc"].MaxHP)
	assert.Equal(t, 2, byID["golem"].DamageMin)
}

func TestLoadCatalog_ShippedContent(t *testing.T) {
	c, err := npc.LoadCatalog(contentDir("enemies"), contentDir("sprites"))
	require.NoError(t, err)

	ghoul, ok := c.Template("ghoul")
	require.True(t, ok)
	v, err := c.Visual(ghoul)
	require.NoError(t, err)
	assert.Equal(t, sprite.VisualSprite, v.Kind)

	orc, ok := c.Template("orc")
	require.True(t, ok)
	v, err = c.Visual(orc)
	require.NoError(t, err)
	assert.Equal(t, sprite.VisualSolid, v.Kind)
	assert.Equal(t, 28, v.Solid.Width)

	_, ok = c.Sprite("player")
	assert.True(t, ok)
}

func TestNewCatalog_RejectsDanglingSprite(t *testing.T) {
	tmpl, err := npc.LoadTemplateFromBytes([]byte(ghoulYAML + "sprite: missing\n"))
	require.NoError(t, err)
	_, err = npc.NewCatalog([]*npc.Template{tmpl}, nil)
	assert.Error(t, err)
}

func TestNewCatalog_RejectsDuplicate(t *testing.T) {
	tmpl, err := npc.LoadTemplateFromBytes([]byte(ghoulYAML))
	require.NoError(t, err)
	_, err = npc.NewCatalog([]*npc.Template{tmpl, tmpl}, nil)
	assert.Error(t, err)
}

func TestCatalog_PickCoversAll(t *testing.T) {
	c, err := npc.LoadCatalog(contentDir("enemies"), "")
	require.NoError(t, err)
	seen := map[string]bool{}
	src := dice.NewSeededSource(3)
	for i := 0; i < 200; i++ {
		tmpl, err := c.Pick(src)
		require.NoError(t, err)
		seen[tmpl.ID] = true
	}
	assert.Len(t, seen, 3)
}

func TestCatalog_PickEmpty(t *testing.T) {
	c, err := npc.NewCatalog(nil, nil)
	require.NoError(t, err)
	_, err = c.Pick(dice.NewCryptoSource())
	assert.Error(t, err)
}

func TestCatalog_ReloadKeepsOldContentOnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ghoul.yaml"), []byte(ghoulYAML), 0644))
	c, err := npc.LoadCatalog(dir, "")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("id: broken\n"), 0644))
	assert.Error(t, c.Reload())
	_, ok := c.Template("ghoul")
	assert.True(t, ok)
}

func TestManager_SpawnRemove(t *testing.T) {
	tmpl, err := npc.LoadTemplateFromBytes([]byte(ghoulYAML))
	require.NoError(t, err)
	m := npc.NewManager()

	inst, err := m.Spawn("wastes/0/ghoul", tmpl, "wastes")
	require.NoError(t, err)
	assert.True(t, inst.Visible())
	assert.True(t, inst.Exists())

	_, err = m.Spawn("wastes/0/ghoul", tmpl, "wastes")
	assert.Error(t, err, "spawn ids are unique while live")

	assert.Len(t, m.InstancesInZone("wastes"), 1)

	inst.Destroy()
	assert.False(t, inst.Exists())
	assert.False(t, inst.Visible())
	_, ok := m.Get("wastes/0/ghoul")
	assert.False(t, ok, "destroying removes the spawn")
	assert.Empty(t, m.InstancesInZone("wastes"))

	inst.Destroy()
	inst.SetVisible(true)
	assert.False(t, inst.Visible(), "destroyed enemies stay hidden")
}

func TestManager_SpawnPreconditions(t *testing.T) {
	m := npc.NewManager()
	_, err := m.Spawn("a", nil, "z")
	assert.Error(t, err)
	_, err = m.Spawn("", &npc.Template{}, "z")
	assert.Error(t, err)
	assert.Error(t, m.Remove("nope"))
}

type clearedSet map[string]bool

func (c clearedSet) IsDefeated(_ context.Context, id string) (bool, error) { return c[id], nil }

type failingChecker struct{}

func (failingChecker) IsDefeated(context.Context, string) (bool, error) {
	return false, errors.New("db down")
}

func TestPopulateZone_SkipsCleared(t *testing.T) {
	c, err := npc.LoadCatalog(contentDir("enemies"), "")
	require.NoError(t, err)
	layout := []npc.ZoneSpawn{{TemplateID: "ghoul", X: 10}, {TemplateID: "orc", X: 40}, {TemplateID: "golem", X: 80}}
	cleared := clearedSet{npc.SpawnID("wastes", 1, "orc"): true}
	m := npc.NewManager()

	spawned, err := npc.PopulateZone(context.Background(), "wastes", layout, c, cleared, m)
	require.NoError(t, err)
	require.Len(t, spawned, 2)
	assert.Equal(t, "wastes/0/ghoul", spawned[0].SpawnID())
	assert.Equal(t, 80.0, spawned[1].X)

	again, err := npc.PopulateZone(context.Background(), "wastes", layout, c, cleared, m)
	require.NoError(t, err)
	assert.Empty(t, again, "live spawns are not duplicated")
}

func TestPopulateZone_Errors(t *testing.T) {
	c, err := npc.LoadCatalog(contentDir("enemies"), "")
	require.NoError(t, err)
	_, err = npc.PopulateZone(context.Background(), "z", []npc.ZoneSpawn{{TemplateID: "dragon"}}, c, clearedSet{}, npc.NewManager())
	assert.Error(t, err)
	_, err = npc.PopulateZone(context.Background(), "z", []npc.ZoneSpawn{{TemplateID: "ghoul"}}, c, failingChecker{}, npc.NewManager())
	assert.Error(t, err)
}

func TestSpawnID_Stable(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		zone := rapid.StringMatching(`[a-z]{1,8}`).Draw(rt, "zone")
		idx := rapid.IntRange(0, 100).Draw(rt, "idx")
		assert.Equal(rt, npc.SpawnID(zone, idx, "ghoul"), npc.SpawnID(zone, idx, "ghoul"))
		assert.NotEqual(rt, npc.SpawnID(zone, idx, "ghoul"), npc.SpawnID(zone, idx+1, "ghoul"))
	})
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ghoul.yaml"), []byte(ghoulYAML), 0644))
	c, err := npc.LoadCatalog(dir, "")
	require.NoError(t, err)

	w, err := npc.NewWatcher(c, zap.NewNop(), dir)
	require.NoError(t, err)
	defer w.Close()

	orc := "id: orc\nname: Orc\nmax_hp: 14\ndamage_min: 4\ndamage_max: 7\nwidth: 28\nheight: 28\n"
	staged := filepath.Join(t.TempDir(), "orc.yaml")
	require.NoError(t, os.WriteFile(staged, []byte(orc), 0644))
	require.NoError(t, os.Rename(staged, filepath.Join(dir, "orc.yaml")))

	select {
	case <-w.Reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("catalog was not reloaded")
	}
	require.Eventually(t, func() bool {
		_, ok := c.Template("orc")
		return ok
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatcher_ReloadsAfterTruncateThenWrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ghoul.yaml"), []byte(ghoulYAML), 0644))
	c, err := npc.LoadCatalog(dir, "")
	require.NoError(t, err)

	w, err := npc.NewWatcher(c, zap.NewNop(), dir)
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(dir, "orc.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	time.Sleep(5 * time.Millisecond)
	orc := "id: orc\nname: Orc\nmax_hp: 14\ndamage_min: 4\ndamage_max: 7\nwidth: 28\nheight: 28\n"
	require.NoError(t, os.WriteFile(path, []byte(orc), 0644))

	select {
	case got := <-w.Reloaded:
		assert.Equal(t, "orc.yaml", filepath.Base(got))
	case <-time.After(5 * time.Second):
		t.Fatal("catalog was not reloaded after the final write")
	}
	tmpl, ok := c.Template("orc")
	require.True(t, ok)
	assert.Equal(t, 14, tmpl.MaxHP)
}
