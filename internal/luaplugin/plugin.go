package luaplugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/goliatone/go-wmarkdown/internal/highlight"
	"github.com/goliatone/go-wmarkdown/internal/logging"
	"github.com/goliatone/go-wmarkdown/internal/plugins"
	"github.com/goliatone/go-wmarkdown/internal/rules"
	"github.com/goliatone/go-wmarkdown/pkg/interfaces"
)

// DefaultTimeout bounds a single rule call.
const DefaultTimeout = 2 * time.Second

// Option configures a Script.
type Option func(*Script)

// WithLogger sets the logger used for script diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Script) {
		s.logger = logger
	}
}

// WithTimeout bounds each rule call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Script) {
		s.timeout = d
	}
}

type opKind int

const (
	opAdd opKind = iota
	opRemove
)

type operation struct {
	kind opKind
	name string
	fn   *lua.LFunction
}

// Script is a loaded Lua plugin. Its rules stay bound to the script state,
// so Close must only be called once no engine uses them any more.
type Script struct {
	name    string
	state   *state
	ops     []operation
	timeout time.Duration
	logger  interfaces.Logger
}

// Load reads and runs the script at path. The plugin is named after the file
// without its extension.
func Load(path string, opts ...Option) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("luaplugin: read %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return LoadString(name, string(src), opts...)
}

// LoadString runs src and records the rule declarations it makes.
func LoadString(name, src string, opts ...Option) (*Script, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	s := &Script{
		name:    name,
		state:   newState(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = logging.WithFields(logging.Ensure(s.logger), map[string]any{"plugin": name})

	s.installAPI()
	if err := s.state.doString(src); err != nil {
		s.state.close()
		return nil, fmt.Errorf("luaplugin: load %s: %w", name, err)
	}

	s.logger.Debug("luaplugin.loaded", "rules", s.RuleNames())
	return s, nil
}

// Name returns the plugin name.
func (s *Script) Name() string {
	return s.name
}

// RuleNames lists the rules the script adds, in declaration order.
func (s *Script) RuleNames() []string {
	var names []string
	for _, op := range s.ops {
		if op.kind == opAdd {
			names = append(names, op.name)
		}
	}
	return names
}

// Plugin returns the engine plugin replaying the script's declarations.
func (s *Script) Plugin() plugins.Plugin {
	return plugins.New(s.name, func(host plugins.Host) {
		for _, op := range s.ops {
			switch op.kind {
			case opAdd:
				host.AddRule(op.name, &luaRule{script: s, name: op.name, fn: op.fn})
			case opRemove:
				host.RemoveRule(op.name)
			}
		}
	})
}

// Close releases the Lua state. Rules called afterwards fail and the engine
// keeps the buffer unchanged.
func (s *Script) Close() {
	s.state.close()
}

func (s *Script) installAPI() {
	L := s.state.L
	mod := L.NewTable()

	L.SetField(mod, "add_rule", L.NewFunction(func(L *lua.LState) int {
		name := strings.TrimSpace(L.CheckString(1))
		fn := L.CheckFunction(2)
		if name == "" {
			L.ArgError(1, ErrEmptyName.Error())
			return 0
		}
		s.ops = append(s.ops, operation{kind: opAdd, name: name, fn: fn})
		return 0
	}))

	L.SetField(mod, "remove_rule", L.NewFunction(func(L *lua.LState) int {
		name := strings.TrimSpace(L.CheckString(1))
		s.ops = append(s.ops, operation{kind: opRemove, name: name})
		return 0
	}))

	L.SetField(mod, "escape", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(highlight.EscapeHTML(L.CheckString(1))))
		return 1
	}))

	L.SetField(mod, "log", L.NewFunction(func(L *lua.LState) int {
		s.logger.Info("luaplugin.log", "message", L.CheckString(1))
		return 0
	}))

	L.SetGlobal("markdown", mod)
}

type luaRule struct {
	script *Script
	name   string
	fn     *lua.LFunction
}

func (r *luaRule) Apply(ctx context.Context, text string) rules.Result {
	if ctx == nil {
		ctx = context.Background()
	}
	if r.script.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.script.timeout)
		defer cancel()
	}

	out, err := r.script.state.call(ctx, r.fn, text)
	if err != nil {
		return rules.Failed(fmt.Errorf("luaplugin: %s.%s: %w", r.script.name, r.name, err))
	}
	return rules.Resolved(out)
}
