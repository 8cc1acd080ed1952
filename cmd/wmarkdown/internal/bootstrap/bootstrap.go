package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-wmarkdown"
	"github.com/goliatone/go-wmarkdown/internal/di"
	"github.com/goliatone/go-wmarkdown/internal/logging"
	"github.com/goliatone/go-wmarkdown/pkg/interfaces"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is loaded when no env file is named and it exists.
const DefaultEnvFile = ".env"

// Options captures configuration for CLI bootstraps.
type Options struct {
	ConfigPath     string
	EnvFile        string
	Configure      func(*wmarkdown.Config)
	LoggerProvider interfaces.LoggerProvider
}

// Module wraps the wmarkdown module and the CLI logger.
type Module struct {
	Module *wmarkdown.Module
	Config wmarkdown.Config
	Logger interfaces.Logger
}

// BuildModule loads the env file and configuration, then constructs the module.
func BuildModule(opts Options) (*Module, error) {
	if err := LoadEnv(opts.EnvFile); err != nil {
		return nil, err
	}

	cfg, err := wmarkdown.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.Configure != nil {
		opts.Configure(&cfg)
	}

	diOpts := []di.Option{}
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, di.WithLoggerProvider(opts.LoggerProvider))
	}

	module, err := wmarkdown.New(cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise wmarkdown module: %w", err)
	}

	logger := logging.ModuleLogger(module.Container().LoggerProvider(), "wmarkdown.cli")

	return &Module{
		Module: module,
		Config: cfg,
		Logger: logger,
	}, nil
}

// Close releases the wrapped module.
func (m *Module) Close() {
	if m != nil && m.Module != nil {
		m.Module.Close()
	}
}

// LoadEnv loads path into the process environment without overriding
// variables already set. An empty path loads DefaultEnvFile when present.
func LoadEnv(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ParseRunID converts the supplied string into a UUID, returning a fresh one
// when the input is empty.
func ParseRunID(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(trimmed)
}
