package scripting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"
)

// ErrHookNotFound is returned when no loaded script defines the requested hook.
var ErrHookNotFound = errors.New("scripting: hook not defined")

// Progress is the player state a hook may read and change.
type Progress interface {
	Flag(name string) bool
	SetFlag(name string, v bool)
	GainEnergy(n int) int
	Heal(n int) int
}

// DefeatEvent describes the enemy whose defeat triggered a hook.
type DefeatEvent struct {
	EncounterID string
	EnemyID     string
	EnemyName   string
	SpawnID     string
}

// Manager holds the compiled scripts of a content directory and runs hooks
// against them. Every call gets a fresh sandboxed VM, so hooks share no Lua state.
//
// Safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	chunks    []*lua.FunctionProto
	instLimit int
	logger    *zap.Logger
}

// NewManager creates a Manager with no scripts.
//
// Precondition: logger must be non-nil; instLimit 0 uses DefaultInstructionLimit.
func NewManager(logger *zap.Logger, instLimit int) *Manager {
	return &Manager{instLimit: instLimit, logger: logger}
}

// LoadDir compiles every *.lua file in dir in lexicographic order, replacing
// any previously loaded scripts.
//
// Postcondition: On error the previously loaded scripts are kept.
func (m *Manager) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	chunks := make([]*lua.FunctionProto, 0, len(paths))
	for _, path := range paths {
		proto, err := compileFile(path)
		if err != nil {
			return err
		}
		chunks = append(chunks, proto)
	}

	m.mu.Lock()
	m.chunks = chunks
	m.mu.Unlock()
	m.logger.Info("scripts loaded", zap.String("dir", dir), zap.Int("count", len(chunks)))
	return nil
}

// LoadString compiles src under name and appends it to the loaded scripts.
func (m *Manager) LoadString(name, src string) error {
	proto, err := compile(strings.NewReader(src), name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.chunks = append(m.chunks, proto)
	m.mu.Unlock()
	return nil
}

func compileFile(path string) (*lua.FunctionProto, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: opening %q: %w", path, err)
	}
	defer f.Close()
	return compile(f, path)
}

func compile(r io.Reader, name string) (*lua.FunctionProto, error) {
	chunk, err := parse.Parse(r, name)
	if err != nil {
		return nil, fmt.Errorf("scripting: parsing %q: %w", name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("scripting: compiling %q: %w", name, err)
	}
	return proto, nil
}

// RunDefeatHook calls the global Lua function hook with a table describing ev.
// The hook may change p through the progress module.
//
// Precondition: p must be non-nil.
// Postcondition: Returns nil without running anything when hook is empty;
// returns ErrHookNotFound when no script defines it.
func (m *Manager) RunDefeatHook(ctx context.Context, hook string, ev DefeatEvent, p Progress) error {
	if hook == "" {
		return nil
	}

	m.mu.RLock()
	chunks := m.chunks
	m.mu.RUnlock()

	L, done := NewSandboxedState(ctx, m.instLimit)
	defer done()
	m.registerModules(L, p, ev)

	for _, proto := range chunks {
		L.Push(L.NewFunctionFromProto(proto))
		if err := L.PCall(0, lua.MultRet, nil); err != nil {
			return fmt.Errorf("scripting: loading %q: %w", proto.SourceName, err)
		}
	}

	fn := L.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return fmt.Errorf("%w: %q", ErrHookNotFound, hook)
	}

	event := L.NewTable()
	event.RawSetString("encounter_id", lua.LString(ev.EncounterID))
	event.RawSetString("enemy_id", lua.LString(ev.EnemyID))
	event.RawSetString("enemy_name", lua.LString(ev.EnemyName))
	event.RawSetString("spawn_id", lua.LString(ev.SpawnID))

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, event); err != nil {
		return fmt.Errorf("scripting: running hook %q: %w", hook, err)
	}
	m.logger.Debug("hook ran",
		zap.String("hook", hook),
		zap.String("enemy", ev.EnemyID),
		zap.String("spawn_id", ev.SpawnID),
	)
	return nil
}
