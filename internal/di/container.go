package di

import (
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-wmarkdown/internal/commands"
	rendercmd "github.com/goliatone/go-wmarkdown/internal/commands/render"
	"github.com/goliatone/go-wmarkdown/internal/highlight"
	"github.com/goliatone/go-wmarkdown/internal/logging"
	"github.com/goliatone/go-wmarkdown/internal/logging/gologger"
	"github.com/goliatone/go-wmarkdown/internal/luaplugin"
	"github.com/goliatone/go-wmarkdown/internal/markdown"
	"github.com/goliatone/go-wmarkdown/internal/plugins"
	"github.com/goliatone/go-wmarkdown/internal/runtimeconfig"
	"github.com/goliatone/go-wmarkdown/internal/transform"
	"github.com/goliatone/go-wmarkdown/pkg/interfaces"
)

// Container wires the render engine, its plugins, the transformer and the
// command handlers from a runtime configuration.
type Container struct {
	config runtimeconfig.Config

	loggerProvider     interfaces.LoggerProvider
	highlighterFactory highlight.Factory
	extraPlugins       []plugins.Plugin

	scripts     []*luaplugin.Script
	engine      *markdown.Engine
	transformer *transform.Transformer
}

// Option mutates the container during construction.
type Option func(*Container)

// WithLoggerProvider overrides the provider derived from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithPlugins installs additional plugins after the configured ones.
func WithPlugins(p ...plugins.Plugin) Option {
	return func(c *Container) {
		c.extraPlugins = append(c.extraPlugins, p...)
	}
}

// WithHighlighterFactory overrides the highlighter used by the engine.
func WithHighlighterFactory(factory highlight.Factory) Option {
	return func(c *Container) {
		c.highlighterFactory = factory
	}
}

// NewContainer validates cfg and builds every service it describes.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if err := c.configureEngine(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.configureTransformer(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(c.config.Logging.Provider)) {
	case "noop", "none":
		return nil
	default:
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.config.Logging.Level,
			Format:    c.config.Logging.Format,
			AddSource: c.config.Logging.AddSource,
		})
		if err != nil {
			return fmt.Errorf("di: configure logger: %w", err)
		}
		c.loggerProvider = provider
	}
	return nil
}

func (c *Container) configureEngine() error {
	var installed []plugins.Plugin

	if c.config.Plugins.CommonMark {
		parser := c.config.Plugins.Parser
		installed = append(installed, markdown.CommonMarkPlugin(interfaces.ParseOptions{
			Extensions: parser.Extensions,
			Sanitize:   parser.Sanitize,
			HardWraps:  parser.HardWraps,
			SafeMode:   parser.SafeMode,
		}))
	}

	pluginLogger := logging.PluginsLogger(c.loggerProvider)
	for _, path := range c.config.Plugins.Lua {
		script, err := luaplugin.Load(path,
			luaplugin.WithLogger(pluginLogger),
			luaplugin.WithTimeout(c.config.Plugins.LuaTimeout),
		)
		if err != nil {
			return err
		}
		c.scripts = append(c.scripts, script)
		installed = append(installed, script.Plugin())
	}
	installed = append(installed, c.extraPlugins...)

	engineCfg := c.config.Engine
	c.engine = markdown.New(markdown.Options{
		EnableHighlight: markdown.Bool(engineCfg.EnableHighlight),
		EnableAsync:     markdown.Bool(engineCfg.EnableAsync),
		EnablePlugins:   markdown.Bool(engineCfg.EnablePlugins),
		Plugins:         installed,
		ThemeConfig: highlight.ThemeConfig{
			Themes: c.config.Highlight.Themes,
			Langs:  c.config.Highlight.Langs,
			Theme:  c.config.Highlight.Theme,
		},
		HighlighterFactory: c.highlighterFactory,
		Logger:             logging.EngineLogger(c.loggerProvider),
	})

	logging.EngineLogger(c.loggerProvider).Debug("di.engine.configured",
		"rules", c.engine.Rules(),
		"plugins", len(c.engine.GetPlugins()),
	)
	return nil
}

func (c *Container) configureTransformer() error {
	tc := c.config.Transform
	transformer, err := transform.New(c.engine, transform.Options{
		Extensions: tc.Extensions,
		Include:    tc.Include,
		Exclude:    tc.Exclude,
		CacheSize:  tc.CacheSize,
		Async:      c.config.Engine.EnableAsync,
		HeadingIDs: tc.HeadingIDs,
		Logger:     logging.TransformLogger(c.loggerProvider),
	})
	if err != nil {
		return err
	}
	c.transformer = transformer
	return nil
}

// Config returns the configuration the container was built from.
func (c *Container) Config() runtimeconfig.Config {
	return c.config
}

// LoggerProvider returns the configured provider. It is nil when logging is
// disabled.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Engine returns the render engine.
func (c *Container) Engine() *markdown.Engine {
	return c.engine
}

// Transformer returns the file transformer.
func (c *Container) Transformer() *transform.Transformer {
	return c.transformer
}

// RenderFileHandler builds the single file command handler writing to out.
func (c *Container) RenderFileHandler(out io.Writer) *rendercmd.RenderFileHandler {
	return rendercmd.NewRenderFileHandler(c.transformer, out, commands.CommandLogger(c.loggerProvider, "render"))
}

// BuildDirectoryHandler builds the directory build command handler.
func (c *Container) BuildDirectoryHandler(opts ...rendercmd.BuildOption) *rendercmd.BuildDirectoryHandler {
	all := append([]rendercmd.BuildOption{rendercmd.WithRenderTimeout(c.config.Build.RenderTimeout)}, opts...)
	return rendercmd.NewBuildDirectoryHandler(c.transformer, commands.CommandLogger(c.loggerProvider, "build"), all...)
}

// RegisterCommands registers the render and build handlers with reg. A nil
// registry only builds them.
func (c *Container) RegisterCommands(reg rendercmd.CommandRegistry, opts ...rendercmd.Option) (*rendercmd.HandlerSet, error) {
	all := append([]rendercmd.Option{
		rendercmd.WithBuildOptions(rendercmd.WithRenderTimeout(c.config.Build.RenderTimeout)),
	}, opts...)
	return rendercmd.RegisterRenderCommands(reg, c.transformer, c.loggerProvider, all...)
}

// NewWatcher starts a file watcher feeding the container's transformer.
func (c *Container) NewWatcher() (*transform.Watcher, error) {
	return transform.NewWatcher(c.transformer, transform.WithWatchLogger(logging.WatchLogger(c.loggerProvider)))
}

// Close releases the Lua states of loaded script plugins.
func (c *Container) Close() {
	for _, script := range c.scripts {
		if script != nil {
			script.Close()
		}
	}
	c.scripts = nil
}
