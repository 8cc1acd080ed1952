package plugins

import (
	"github.com/goliatone/go-wmarkdown/internal/rules"
)

// Host is the engine surface a plugin mutates during installation.
type Host interface {
	AddRule(name string, rule rules.Rule)
	RemoveRule(name string)
	Rules() []string
}

// Plugin is a named extension whose Install runs once, when it is first
// registered with an engine.
type Plugin struct {
	Name    string
	Install func(Host)
}

// New builds a Plugin from a name and an install callback.
func New(name string, install func(Host)) Plugin {
	return Plugin{Name: name, Install: install}
}
