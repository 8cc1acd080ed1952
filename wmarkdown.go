package wmarkdown

import (
	"context"

	"github.com/goliatone/go-wmarkdown/internal/di"
	"github.com/goliatone/go-wmarkdown/internal/highlight"
	"github.com/goliatone/go-wmarkdown/internal/luaplugin"
	"github.com/goliatone/go-wmarkdown/internal/markdown"
	"github.com/goliatone/go-wmarkdown/internal/plugins"
	"github.com/goliatone/go-wmarkdown/internal/rules"
	"github.com/goliatone/go-wmarkdown/internal/transform"
	"github.com/goliatone/go-wmarkdown/pkg/interfaces"
)

// Engine exports the rule-based render engine.
type Engine = markdown.Engine

// Options exports the engine construction options.
type Options = markdown.Options

// HighlightOptions exports the custom highlight hook options.
type HighlightOptions = markdown.HighlightOptions

// ThemeConfig exports the highlighter theme and language configuration.
type ThemeConfig = highlight.ThemeConfig

// Plugin exports the plugin descriptor.
type Plugin = plugins.Plugin

// Host exports the surface plugins install rules through.
type Host = plugins.Host

// Rule exports the rule contract.
type Rule = rules.Rule

// RuleFunc adapts a synchronous text transform to a Rule.
type RuleFunc = rules.Func

// AsyncRuleFunc adapts a context-aware transform to a deferred Rule.
type AsyncRuleFunc = rules.AsyncFunc

// Result exports the rule result type.
type Result = rules.Result

// RenderResult exports the async render outcome.
type RenderResult = interfaces.RenderResult

// Transformer exports the file transform layer.
type Transformer = transform.Transformer

// TransformModule exports a transformed file.
type TransformModule = transform.Module

// LuaScript exports a loaded Lua rule plugin.
type LuaScript = luaplugin.Script

// Bool returns a pointer to v for the tri-state engine options.
func Bool(v bool) *bool {
	return markdown.Bool(v)
}

// NewEngine builds a standalone render engine.
func NewEngine(opts Options) *Engine {
	return markdown.New(opts)
}

// NewPlugin builds a plugin from a name and an install function.
func NewPlugin(name string, install func(Host)) Plugin {
	return plugins.New(name, install)
}

// CommonMarkPlugin replaces the default rules with a CommonMark renderer.
func CommonMarkPlugin(opts interfaces.ParseOptions) Plugin {
	return markdown.CommonMarkPlugin(opts)
}

// LoadLuaPlugin loads a Lua rule plugin from disk.
func LoadLuaPlugin(path string) (*LuaScript, error) {
	return luaplugin.Load(path)
}

// Module represents the configured markdown runtime.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Engine returns the configured render engine.
func (m *Module) Engine() *Engine {
	return m.container.Engine()
}

// Transformer returns the configured file transformer.
func (m *Module) Transformer() *Transformer {
	return m.container.Transformer()
}

// Render renders markdown through the configured engine.
func (m *Module) Render(ctx context.Context, md string) (string, error) {
	return m.container.Engine().Render(ctx, md)
}

// Close releases plugin resources held by the module.
func (m *Module) Close() {
	m.container.Close()
}
