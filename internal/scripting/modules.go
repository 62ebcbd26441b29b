package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// registerModules installs the progress and log tables into L.
//
//	progress.get_flag(name) -> bool
//	progress.set_flag(name [, value=true])
//	progress.gain_energy(n) -> gained
//	progress.heal(n) -> healed
//	log.info(msg)
func (m *Manager) registerModules(L *lua.LState, p Progress, ev DefeatEvent) {
	progress := L.NewTable()
	L.SetFuncs(progress, map[string]lua.LGFunction{
		"get_flag": func(L *lua.LState) int {
			L.Push(lua.LBool(p.Flag(L.CheckString(1))))
			return 1
		},
		"set_flag": func(L *lua.LState) int {
			name := L.CheckString(1)
			v := true
			if L.GetTop() >= 2 {
				v = L.ToBool(2)
			}
			p.SetFlag(name, v)
			return 0
		},
		"gain_energy": func(L *lua.LState) int {
			n := L.CheckInt(1)
			if n < 0 {
				L.ArgError(1, "must be >= 0")
			}
			L.Push(lua.LNumber(p.GainEnergy(n)))
			return 1
		},
		"heal": func(L *lua.LState) int {
			n := L.CheckInt(1)
			if n < 0 {
				L.ArgError(1, "must be >= 0")
			}
			L.Push(lua.LNumber(p.Heal(n)))
			return 1
		},
	})
	L.SetGlobal("progress", progress)

	log := L.NewTable()
	L.SetFuncs(log, map[string]lua.LGFunction{
		"info": func(L *lua.LState) int {
			m.logger.Info("script", zap.String("msg", L.CheckString(1)), zap.String("spawn_id", ev.SpawnID))
			return 0
		},
	})
	L.SetGlobal("log", log)
}
