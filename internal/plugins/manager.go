package plugins

import (
	"sync"
)

// Manager tracks registered plugins by name, in registration order.
type Manager struct {
	mu      sync.RWMutex
	order   []string
	plugins map[string]Plugin
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{plugins: make(map[string]Plugin)}
}

// Register records p and reports whether it was new. Registering a name that
// is already tracked leaves the manager unchanged.
func (m *Manager) Register(p Plugin) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.plugins[p.Name]; exists {
		return false
	}
	m.plugins[p.Name] = p
	m.order = append(m.order, p.Name)
	return true
}

// Unregister forgets the plugin stored under name. Rules it installed stay.
func (m *Manager) Unregister(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.plugins[name]; !exists {
		return
	}
	delete(m.plugins, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Get returns the plugin stored under name.
func (m *Manager) Get(name string) (Plugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plugins[name]
	return p, ok
}

// Has reports whether name is registered.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.plugins[name]
	return ok
}

// GetAll returns the registered plugins in registration order.
func (m *Manager) GetAll() []Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Plugin, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.plugins[name])
	}
	return out
}

// Clear forgets every plugin.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = nil
	m.plugins = make(map[string]Plugin)
}
