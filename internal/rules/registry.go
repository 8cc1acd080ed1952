package rules

import (
	"sync"
)

// Entry is a named rule as stored in the registry.
type Entry struct {
	Name string
	Rule Rule
}

// Registry is an insertion-ordered, concurrency-safe map of rule names to
// rules. Overwriting a name keeps its position; new names append.
type Registry struct {
	mu      sync.RWMutex
	index   map[string]int
	entries []Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]int),
	}
}

// Add inserts rule under name or replaces the existing rule in place.
func (r *Registry) Add(name string, rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pos, ok := r.index[name]; ok {
		r.entries[pos].Rule = rule
		return
	}
	r.index[name] = len(r.entries)
	r.entries = append(r.entries, Entry{Name: name, Rule: rule})
}

// Remove deletes the rule stored under name. Unknown names are ignored.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, ok := r.index[name]
	if !ok {
		return
	}
	r.entries = append(r.entries[:pos], r.entries[pos+1:]...)
	delete(r.index, name)
	for i := pos; i < len(r.entries); i++ {
		r.index[r.entries[i].Name] = i
	}
}

// Get returns the rule stored under name.
func (r *Registry) Get(name string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.entries[pos].Rule, true
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[name]
	return ok
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Names returns rule names in application order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.entries))
	for i, entry := range r.entries {
		names[i] = entry.Name
	}
	return names
}

// Snapshot returns a copy of the entries in application order.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.entries...)
}

// Clear removes every rule.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	r.index = make(map[string]int)
}
