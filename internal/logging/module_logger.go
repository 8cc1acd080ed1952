package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-wmarkdown/pkg/interfaces"
)

const (
	rootModule      = "wmarkdown"
	engineModule    = "wmarkdown.engine"
	transformModule = "wmarkdown.transform"
	pluginsModule   = "wmarkdown.plugins"
	watchModule     = "wmarkdown.watch"
)

const (
	fieldRule   = "rule"
	fieldPlugin = "plugin"
	fieldFile   = "file"
)

// ModuleLogger returns a module-scoped logger, falling back to a no-op logger
// when provider is nil. The module name is attached as the "module" field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// EngineLogger returns the logger namespace used by the render engine.
func EngineLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, engineModule)
}

// TransformLogger returns the logger namespace used by the transform layer.
func TransformLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, transformModule)
}

// PluginsLogger returns the logger namespace used by plugin loaders.
func PluginsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, pluginsModule)
}

// WatchLogger returns the logger namespace used by the file watcher.
func WatchLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, watchModule)
}

// WithRuleContext tags entries with the rule and plugin names. Empty values
// are skipped.
func WithRuleContext(logger interfaces.Logger, rule, plugin string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(rule); trimmed != "" {
		fields[fieldRule] = trimmed
	}
	if trimmed := strings.TrimSpace(plugin); trimmed != "" {
		fields[fieldPlugin] = trimmed
	}
	return WithFields(logger, fields)
}

// WithFileContext tags entries with the file being transformed.
func WithFileContext(logger interfaces.Logger, file string) interfaces.Logger {
	if trimmed := strings.TrimSpace(file); trimmed != "" {
		return WithFields(logger, map[string]any{fieldFile: trimmed})
	}
	return logger
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
