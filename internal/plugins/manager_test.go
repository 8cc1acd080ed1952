package plugins

import (
	"testing"
)

func TestManagerRegisterIsIdempotent(t *testing.T) {
	manager := NewManager()

	if !manager.Register(New("toc", nil)) {
		t.Fatal("expected first registration to succeed")
	}
	if manager.Register(New("toc", nil)) {
		t.Fatal("expected duplicate registration to be ignored")
	}
	if got := len(manager.GetAll()); got != 1 {
		t.Fatalf("expected 1 plugin, got %d", got)
	}
}

func TestManagerGetAllKeepsOrder(t *testing.T) {
	manager := NewManager()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		manager.Register(New(name, nil))
	}

	all := manager.GetAll()
	want := []string{"zeta", "alpha", "mid"}
	for i, name := range want {
		if all[i].Name != name {
			t.Fatalf("position %d: got %s, want %s", i, all[i].Name, name)
		}
	}

	all[0].Name = "mutated"
	if manager.GetAll()[0].Name != "zeta" {
		t.Fatal("expected GetAll to return a copy")
	}
}

func TestManagerUnregisterAndClear(t *testing.T) {
	manager := NewManager()
	manager.Register(New("a", nil))
	manager.Register(New("b", nil))

	manager.Unregister("a")
	manager.Unregister("missing")

	if manager.Has("a") {
		t.Fatal("expected a to be unregistered")
	}
	if p, ok := manager.Get("b"); !ok || p.Name != "b" {
		t.Fatalf("expected b to remain, got %v %v", p, ok)
	}

	manager.Clear()
	if len(manager.GetAll()) != 0 || manager.Has("b") {
		t.Fatal("expected Clear to remove every plugin")
	}
}
