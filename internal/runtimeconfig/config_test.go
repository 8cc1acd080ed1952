package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-wmarkdown/internal/runtimeconfig"
	"github.com/goliatone/go-wmarkdown/internal/validation"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := runtimeconfig.DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresOutputDir(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Build.OutputDir = " "

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrBuildOutputDirRequired) {
		t.Fatalf("expected ErrBuildOutputDirRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownBuildFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Build.Format = "pdf"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrBuildFormatInvalid) {
		t.Fatalf("expected ErrBuildFormatInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsNegativeWorkers(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Build.Workers = -2

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrBuildWorkersInvalid) {
		t.Fatalf("expected ErrBuildWorkersInvalid, got %v", err)
	}
}

func TestConfigValidate_RequiresSelectedThemeToBeLoaded(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Highlight.Theme = "monokai"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrHighlightThemeNotLoaded) {
		t.Fatalf("expected ErrHighlightThemeNotLoaded, got %v", err)
	}

	cfg.Highlight.Themes = append(cfg.Highlight.Themes, "Monokai")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RejectsUnknownLoggingProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = "syslog"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingLevelAndFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingLevelInvalid) {
		t.Fatalf("expected ErrLoggingLevelInvalid, got %v", err)
	}

	cfg = runtimeconfig.DefaultConfig()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestDecodeMergesOverDefaults(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	data := []byte(`
engine:
  enable_async: true
highlight:
  themes: [monokai, dracula]
  theme: dracula
plugins:
  commonmark: true
  lua_timeout: 500ms
  parser:
    extensions: [gfm]
build:
  output_dir: public
  format: js
  workers: 4
`)
	if err := runtimeconfig.Decode(data, &cfg); err != nil {
		t.Fatalf("Decode() returned unexpected error: %v", err)
	}

	if !cfg.Engine.EnableAsync || !cfg.Engine.EnableHighlight {
		t.Fatalf("unexpected engine config: %+v", cfg.Engine)
	}
	if cfg.Highlight.Theme != "dracula" || len(cfg.Highlight.Themes) != 2 {
		t.Fatalf("unexpected highlight config: %+v", cfg.Highlight)
	}
	if len(cfg.Highlight.Langs) != 7 {
		t.Fatalf("expected default langs to survive, got %v", cfg.Highlight.Langs)
	}
	if !cfg.Plugins.CommonMark || cfg.Plugins.LuaTimeout != 500*time.Millisecond {
		t.Fatalf("unexpected plugins config: %+v", cfg.Plugins)
	}
	if cfg.Build.OutputDir != "public" || cfg.Build.Format != "js" || cfg.Build.Workers != 4 {
		t.Fatalf("unexpected build config: %+v", cfg.Build)
	}
	if cfg.Build.SourceDir != "content" {
		t.Fatalf("expected default source dir, got %q", cfg.Build.SourceDir)
	}
}

func TestDecodeRejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "engine:\n  turbo: true\n",
		"wrong type":      "build:\n  workers: many\n",
		"bad format":      "build:\n  format: pdf\n",
		"bad duration":    "plugins:\n  lua_timeout: soon\n",
		"unknown section": "server:\n  port: 80\n",
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			err := runtimeconfig.Decode([]byte(data), &cfg)
			if !errors.Is(err, validation.ErrSchemaValidation) {
				t.Fatalf("expected schema validation error, got %v", err)
			}
			if len(validation.Issues(err)) == 0 {
				t.Fatalf("expected validation issues")
			}
		})
	}
}

func TestDecodeRejectsMalformedYAML(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	if err := runtimeconfig.Decode([]byte("engine: [unterminated"), &cfg); err == nil {
		t.Fatalf("expected yaml error")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		"WMARKDOWN_LOG_LEVEL":        "debug",
		"WMARKDOWN_OUTPUT_DIR":       "out",
		"WMARKDOWN_THEME":            "monokai",
		"WMARKDOWN_ENABLE_HIGHLIGHT": "false",
		"WMARKDOWN_COMMONMARK":       "1",
		"WMARKDOWN_BUILD_WORKERS":    "8",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := runtimeconfig.DefaultConfig()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv() returned unexpected error: %v", err)
	}

	if cfg.Logging.Level != "debug" || cfg.Build.OutputDir != "out" || cfg.Build.Workers != 8 {
		t.Fatalf("unexpected overrides: %+v %+v", cfg.Logging, cfg.Build)
	}
	if cfg.Engine.EnableHighlight || !cfg.Plugins.CommonMark {
		t.Fatalf("unexpected boolean overrides: %+v %+v", cfg.Engine, cfg.Plugins)
	}
	if cfg.Highlight.Theme != "monokai" {
		t.Fatalf("unexpected theme %q", cfg.Highlight.Theme)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("theme override should load the theme: %v", err)
	}

	env["WMARKDOWN_ENABLE_ASYNC"] = "maybe"
	if err := cfg.ApplyEnv(lookup); !errors.Is(err, runtimeconfig.ErrEnvInvalid) {
		t.Fatalf("expected ErrEnvInvalid, got %v", err)
	}
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wmarkdown.yaml")
	if err := os.WriteFile(path, []byte("build:\n  output_dir: site\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WMARKDOWN_BUILD_FORMAT", "js")

	cfg, err := runtimeconfig.Load(path)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Build.OutputDir != "site" || cfg.Build.Format != "js" {
		t.Fatalf("unexpected build config: %+v", cfg.Build)
	}

	if _, err := runtimeconfig.Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}

	cfg, err = runtimeconfig.Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned unexpected error: %v", err)
	}
	if cfg.Build.OutputDir != "dist" {
		t.Fatalf("expected defaults, got %+v", cfg.Build)
	}
}
