package markdown

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-wmarkdown/internal/highlight"
	"github.com/goliatone/go-wmarkdown/internal/logging"
	"github.com/goliatone/go-wmarkdown/internal/plugins"
	"github.com/goliatone/go-wmarkdown/internal/rules"
	"github.com/goliatone/go-wmarkdown/pkg/interfaces"
)

// Engine renders markdown by applying its registered rules in order.
// Engines are safe for concurrent use: every render pass works on a snapshot
// of the rule registry and the highlighter is built at most once.
type Engine struct {
	opts    resolvedOptions
	rules   *rules.Registry
	plugins *plugins.Manager
	logger  interfaces.Logger

	hlMu        sync.Mutex
	highlighter highlight.Highlighter
}

var (
	_ interfaces.AsyncMarkdownRenderer = (*Engine)(nil)
	_ plugins.Host                     = (*Engine)(nil)
)

// New builds an engine with the default rules installed, followed by
// opts.Plugins in order when plugins are enabled.
func New(opts Options) *Engine {
	cfg := resolveOptions(opts)
	e := &Engine{
		opts:    cfg,
		rules:   rules.NewRegistry(),
		plugins: plugins.NewManager(),
		logger:  cfg.logger,
	}

	e.installDefaultRules()

	if cfg.enablePlugins {
		for _, p := range cfg.plugins {
			e.Use(p)
		}
	}
	return e
}

// Render converts markdown into HTML. It builds the highlighter on first use
// when highlighting is enabled and awaits deferred rules in place. A rule
// that panics or fails is skipped and the buffer keeps its previous value;
// Render only returns an error when the highlighter cannot be built or ctx
// ends. CRLF line endings are rendered as LF.
func (e *Engine) Render(ctx context.Context, markdown string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if e.opts.enableHighlight {
		if _, err := e.ensureHighlighter(); err != nil {
			return "", err
		}
	}

	html := strings.ReplaceAll(markdown, "\r\n", "\n")
	for _, entry := range e.rules.Snapshot() {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		next, err := e.apply(ctx, entry, html)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			logging.WithRuleContext(e.logger, entry.Name, "").
				Warn("markdown.render.rule_failed", "error", err)
			continue
		}
		html = next
	}
	return html, nil
}

// RenderAsync renders on a separate goroutine when async rendering is
// enabled. Otherwise it renders before returning and the channel already
// holds the result. The channel receives exactly one value.
func (e *Engine) RenderAsync(ctx context.Context, markdown string) <-chan interfaces.RenderResult {
	out := make(chan interfaces.RenderResult, 1)

	if !e.opts.enableAsync {
		html, err := e.Render(ctx, markdown)
		out <- interfaces.RenderResult{HTML: html, Err: err}
		close(out)
		return out
	}

	go func() {
		defer close(out)
		html, err := e.Render(ctx, markdown)
		out <- interfaces.RenderResult{HTML: html, Err: err}
	}()
	return out
}

// Use registers p and runs its Install callback. Plugins whose name is
// already registered are ignored.
func (e *Engine) Use(p plugins.Plugin) {
	if !e.plugins.Register(p) {
		e.logger.Debug("markdown.plugin.duplicate", "plugin", p.Name)
		return
	}
	if p.Install == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logging.WithRuleContext(e.logger, "", p.Name).
				Error("markdown.plugin.install_failed", "error", fmt.Sprint(r))
		}
	}()
	p.Install(e)
	e.logger.Debug("markdown.plugin.installed", "plugin", p.Name)
}

// GetPlugins returns the installed plugins in registration order.
func (e *Engine) GetPlugins() []plugins.Plugin {
	return e.plugins.GetAll()
}

// HasPlugin reports whether a plugin with name is installed.
func (e *Engine) HasPlugin(name string) bool {
	return e.plugins.Has(name)
}

// AddRule inserts or replaces the rule stored under name.
func (e *Engine) AddRule(name string, rule rules.Rule) {
	e.rules.Add(name, rule)
}

// AddRuleFunc is AddRule for plain text transforms.
func (e *Engine) AddRuleFunc(name string, fn func(string) string) {
	e.rules.Add(name, rules.Func(fn))
}

// RemoveRule deletes the rule stored under name, if any.
func (e *Engine) RemoveRule(name string) {
	e.rules.Remove(name)
}

// Rules returns the rule names in application order.
func (e *Engine) Rules() []string {
	return e.rules.Names()
}

func (e *Engine) apply(ctx context.Context, entry rules.Entry, text string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("markdown: rule %s panic: %v", entry.Name, r)
		}
	}()
	if entry.Rule == nil {
		return text, nil
	}
	return entry.Rule.Apply(ctx, text).Await(ctx)
}

// ensureHighlighter builds the highlighter on first call. A failed build is
// not cached, so the next render tries again.
func (e *Engine) ensureHighlighter() (highlight.Highlighter, error) {
	e.hlMu.Lock()
	defer e.hlMu.Unlock()

	if e.highlighter != nil {
		return e.highlighter, nil
	}

	h, err := e.opts.factory(e.opts.themes)
	if err != nil {
		return nil, fmt.Errorf("markdown: build highlighter: %w", err)
	}
	e.highlighter = h
	e.logger.Debug("markdown.highlighter.ready", "theme", e.opts.themes.Theme, "langs", e.opts.themes.Langs)
	return h, nil
}

func (e *Engine) currentHighlighter() highlight.Highlighter {
	e.hlMu.Lock()
	defer e.hlMu.Unlock()
	return e.highlighter
}
