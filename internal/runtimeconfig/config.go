package runtimeconfig

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var ErrBuildOutputDirRequired = errors.New("wmarkdown config: build output directory is required")
var ErrBuildSourceDirRequired = errors.New("wmarkdown config: build source directory is required")
var ErrBuildFormatInvalid = errors.New("wmarkdown config: build format is invalid")
var ErrBuildWorkersInvalid = errors.New("wmarkdown config: build workers must be zero or positive")

// ErrHighlightThemeNotLoaded indicates a selected theme missing from the loaded themes.
var ErrHighlightThemeNotLoaded = errors.New("wmarkdown config: highlight theme must be listed in themes")
var ErrLuaTimeoutInvalid = errors.New("wmarkdown config: lua timeout must be zero or positive")
var ErrTransformExtensionInvalid = errors.New("wmarkdown config: transform extensions must not be empty strings")
var ErrLoggingProviderUnknown = errors.New("wmarkdown config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("wmarkdown config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("wmarkdown config: logging format is invalid")

// Build output formats.
const (
	FormatHTML = "html"
	FormatJS   = "js"
)

// Config aggregates engine, plugin, transform, build and logging settings.
type Config struct {
	Engine    EngineConfig    `yaml:"engine" json:"engine"`
	Highlight HighlightConfig `yaml:"highlight" json:"highlight"`
	Plugins   PluginsConfig   `yaml:"plugins" json:"plugins"`
	Transform TransformConfig `yaml:"transform" json:"transform"`
	Build     BuildConfig     `yaml:"build" json:"build"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// EngineConfig mirrors the render engine feature switches.
type EngineConfig struct {
	EnableHighlight bool `yaml:"enable_highlight" json:"enable_highlight"`
	EnableAsync     bool `yaml:"enable_async" json:"enable_async"`
	EnablePlugins   bool `yaml:"enable_plugins" json:"enable_plugins"`
}

// HighlightConfig selects the highlighter themes and grammars.
type HighlightConfig struct {
	Themes []string `yaml:"themes" json:"themes,omitempty"`
	Langs  []string `yaml:"langs" json:"langs,omitempty"`
	Theme  string   `yaml:"theme" json:"theme,omitempty"`
}

// PluginsConfig lists the optional plugins installed at startup.
type PluginsConfig struct {
	CommonMark bool          `yaml:"commonmark" json:"commonmark"`
	Parser     ParserConfig  `yaml:"parser" json:"parser"`
	Lua        []string      `yaml:"lua" json:"lua,omitempty"`
	LuaTimeout time.Duration `yaml:"lua_timeout" json:"lua_timeout"`
}

// ParserConfig mirrors interfaces.ParseOptions for the CommonMark plugin.
type ParserConfig struct {
	Extensions []string `yaml:"extensions" json:"extensions,omitempty"`
	Sanitize   bool     `yaml:"sanitize" json:"sanitize"`
	HardWraps  bool     `yaml:"hard_wraps" json:"hard_wraps"`
	SafeMode   bool     `yaml:"safe_mode" json:"safe_mode"`
}

// TransformConfig captures file filters and render cache sizing.
type TransformConfig struct {
	Extensions []string `yaml:"extensions" json:"extensions,omitempty"`
	Include    []string `yaml:"include" json:"include,omitempty"`
	Exclude    []string `yaml:"exclude" json:"exclude,omitempty"`
	CacheSize  int      `yaml:"cache_size" json:"cache_size"`
	HeadingIDs bool     `yaml:"heading_ids" json:"heading_ids"`
}

// BuildConfig captures behaviour for directory builds.
type BuildConfig struct {
	SourceDir     string        `yaml:"source_dir" json:"source_dir"`
	OutputDir     string        `yaml:"output_dir" json:"output_dir"`
	Format        string        `yaml:"format" json:"format"`
	Workers       int           `yaml:"workers" json:"workers"`
	Clean         bool          `yaml:"clean" json:"clean"`
	RenderTimeout time.Duration `yaml:"render_timeout" json:"render_timeout"`
}

// LoggingConfig selects the logger backend.
type LoggingConfig struct {
	Provider  string `yaml:"provider" json:"provider"`
	Level     string `yaml:"level" json:"level"`
	Format    string `yaml:"format" json:"format"`
	AddSource bool   `yaml:"add_source" json:"add_source"`
}

// DefaultConfig returns defaults matching the engine defaults.
func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			EnableHighlight: true,
			EnableAsync:     false,
			EnablePlugins:   true,
		},
		Highlight: HighlightConfig{
			Themes: []string{"github-dark"},
			Langs:  []string{"javascript", "typescript", "css", "html", "json", "markdown", "bash"},
			Theme:  "github-dark",
		},
		Plugins: PluginsConfig{
			LuaTimeout: 2 * time.Second,
		},
		Transform: TransformConfig{
			Extensions: []string{".md", ".markdown"},
			Include:    []string{`\.md$`},
			Exclude:    []string{`node_modules`},
			CacheSize:  128,
		},
		Build: BuildConfig{
			SourceDir: "content",
			OutputDir: "dist",
			Format:    FormatHTML,
			Workers:   0,
			Clean:     false,
		},
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "console",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Build.SourceDir) == "" {
		return ErrBuildSourceDirRequired
	}
	if strings.TrimSpace(cfg.Build.OutputDir) == "" {
		return ErrBuildOutputDirRequired
	}
	if format := normalize(cfg.Build.Format); format != FormatHTML && format != FormatJS {
		return fmt.Errorf("%w: %s", ErrBuildFormatInvalid, cfg.Build.Format)
	}
	if cfg.Build.Workers < 0 {
		return ErrBuildWorkersInvalid
	}
	if theme := normalize(cfg.Highlight.Theme); theme != "" && len(cfg.Highlight.Themes) > 0 {
		themes := make([]string, 0, len(cfg.Highlight.Themes))
		for _, name := range cfg.Highlight.Themes {
			themes = append(themes, normalize(name))
		}
		if !slices.Contains(themes, theme) {
			return fmt.Errorf("%w: %s", ErrHighlightThemeNotLoaded, theme)
		}
	}
	if cfg.Plugins.LuaTimeout < 0 {
		return ErrLuaTimeoutInvalid
	}
	for _, ext := range cfg.Transform.Extensions {
		if strings.TrimSpace(ext) == "" {
			return ErrTransformExtensionInvalid
		}
	}

	provider := normalize(cfg.Logging.Provider)
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
		return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "gologger", "noop", "none":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch normalize(format) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
