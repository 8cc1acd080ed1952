package runtimeconfig

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-wmarkdown/internal/validation"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WMARKDOWN_"

var ErrEnvInvalid = errors.New("wmarkdown config: invalid environment override")

//go:embed schema.json
var schemaDocument []byte

var configSchema = validation.MustCompile("wmarkdown-config.json", schemaDocument)

// Schema returns the JSON schema configuration files are checked against.
func Schema() []byte {
	return slices.Clone(schemaDocument)
}

// Load reads the YAML file at path over DefaultConfig, applies WMARKDOWN_*
// environment overrides and validates the result. An empty path skips the
// file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("wmarkdown config: read %s: %w", path, err)
		}
		if err := Decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("wmarkdown config: %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode checks data against the configuration schema and merges it into
// cfg. Keys absent from data keep their current values.
func Decode(data []byte, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("wmarkdown config: nil config")
	}

	var document any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	if err := configSchema.Validate(document); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg with WMARKDOWN_* variables found through lookup.
func (cfg *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}

	str := func(key string, target *string) {
		if value, ok := lookup(EnvPrefix + key); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
	}
	boolean := func(key string, target *bool) error {
		value, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(value) == "" {
			return nil
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q", ErrEnvInvalid, EnvPrefix, key, value)
		}
		*target = parsed
		return nil
	}
	integer := func(key string, target *int) error {
		value, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(value) == "" {
			return nil
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q", ErrEnvInvalid, EnvPrefix, key, value)
		}
		*target = parsed
		return nil
	}

	str("LOG_PROVIDER", &cfg.Logging.Provider)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)
	str("SOURCE_DIR", &cfg.Build.SourceDir)
	str("OUTPUT_DIR", &cfg.Build.OutputDir)
	str("BUILD_FORMAT", &cfg.Build.Format)

	var theme string
	str("THEME", &theme)
	if theme != "" {
		cfg.Highlight.Theme = theme
		if !slices.Contains(cfg.Highlight.Themes, theme) {
			cfg.Highlight.Themes = append(cfg.Highlight.Themes, theme)
		}
	}

	for key, target := range map[string]*bool{
		"ENABLE_HIGHLIGHT": &cfg.Engine.EnableHighlight,
		"ENABLE_ASYNC":     &cfg.Engine.EnableAsync,
		"ENABLE_PLUGINS":   &cfg.Engine.EnablePlugins,
		"COMMONMARK":       &cfg.Plugins.CommonMark,
	} {
		if err := boolean(key, target); err != nil {
			return err
		}
	}
	for key, target := range map[string]*int{
		"BUILD_WORKERS": &cfg.Build.Workers,
		"CACHE_SIZE":    &cfg.Transform.CacheSize,
	} {
		if err := integer(key, target); err != nil {
			return err
		}
	}
	return nil
}
