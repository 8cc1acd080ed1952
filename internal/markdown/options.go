package markdown

import (
	"github.com/goliatone/go-wmarkdown/internal/highlight"
	"github.com/goliatone/go-wmarkdown/internal/logging"
	"github.com/goliatone/go-wmarkdown/internal/plugins"
	"github.com/goliatone/go-wmarkdown/internal/rules"
	"github.com/goliatone/go-wmarkdown/pkg/interfaces"
)

// HighlightFunc is a custom highlight hook. It may resolve immediately or
// return a deferred result; deferred results are not awaited by the
// code_block rule, which falls back to a plain block instead.
type HighlightFunc func(code, lang string) rules.Result

// HighlightOptions groups the custom highlight override.
type HighlightOptions struct {
	Highlight HighlightFunc
}

// Options configures an Engine. Nil booleans resolve to their defaults:
// highlighting on, async off, plugins on.
type Options struct {
	EnableHighlight  *bool
	EnableAsync      *bool
	EnablePlugins    *bool
	Plugins          []plugins.Plugin
	HighlightOptions HighlightOptions
	ThemeConfig      highlight.ThemeConfig

	// HighlighterFactory builds the engine highlighter. Defaults to
	// highlight.NewChroma.
	HighlighterFactory highlight.Factory
	Logger             interfaces.Logger
}

// Bool returns a pointer to v, for use in Options.
func Bool(v bool) *bool {
	return &v
}

type resolvedOptions struct {
	enableHighlight bool
	enableAsync     bool
	enablePlugins   bool
	plugins         []plugins.Plugin
	highlight       HighlightFunc
	themes          highlight.ThemeConfig
	factory         highlight.Factory
	logger          interfaces.Logger
}

func resolveOptions(opts Options) resolvedOptions {
	cfg := resolvedOptions{
		enableHighlight: boolOr(opts.EnableHighlight, true),
		enableAsync:     boolOr(opts.EnableAsync, false),
		enablePlugins:   boolOr(opts.EnablePlugins, true),
		plugins:         append([]plugins.Plugin(nil), opts.Plugins...),
		highlight:       opts.HighlightOptions.Highlight,
		themes:          opts.ThemeConfig.WithDefaults(),
		factory:         opts.HighlighterFactory,
		logger:          logging.Ensure(opts.Logger),
	}
	if cfg.factory == nil {
		cfg.factory = highlight.NewChroma
	}
	return cfg
}

func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
