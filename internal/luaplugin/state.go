package luaplugin

import (
	"context"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// blockedGlobals are removed from the base library after it is opened.
var blockedGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"require",
	"module",
	"collectgarbage",
}

// state wraps a sandboxed LState. All access goes through mu.
type state struct {
	mu     sync.Mutex
	L      *lua.LState
	closed bool
}

func newState() *state {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return &state{L: L}
}

func (s *state) doString(src string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	return recoverLua(func() error {
		return s.L.DoString(src)
	})
}

// call invokes fn with text and expects a single string back.
func (s *state) call(ctx context.Context, fn *lua.LFunction, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrStateClosed
	}

	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	var out string
	err := recoverLua(func() error {
		if err := s.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LString(text)); err != nil {
			return err
		}
		ret := s.L.Get(-1)
		s.L.Pop(1)

		str, ok := ret.(lua.LString)
		if !ok {
			return fmt.Errorf("%w, got %s", ErrInvalidResult, ret.Type())
		}
		out = string(str)
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

func (s *state) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.L.Close()
}

func recoverLua(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("luaplugin: lua panic: %v", r)
		}
	}()
	return fn()
}
