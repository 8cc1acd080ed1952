package rendercmd

import (
	"context"
	"errors"
	"io"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-wmarkdown/internal/commands"
	"github.com/goliatone/go-wmarkdown/internal/transform"
	"github.com/goliatone/go-wmarkdown/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CronRegistrar matches the function signature used by go-command registries.
type CronRegistrar func(command.HandlerConfig, any) error

// HandlerSet groups the handlers produced by RegisterRenderCommands.
type HandlerSet struct {
	Render *RenderFileHandler
	Build  *BuildDirectoryHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	out          io.Writer
	renderOpts   []commands.HandlerOption[RenderFileCommand]
	buildOptions []BuildOption
}

// WithOutput sets the writer used by the render handler when a command has no Output.
func WithOutput(out io.Writer) Option {
	return func(cfg *options) {
		cfg.out = out
	}
}

// WithRenderHandlerOptions forwards options to the RenderFileHandler constructor.
func WithRenderHandlerOptions(opts ...commands.HandlerOption[RenderFileCommand]) Option {
	return func(cfg *options) {
		cfg.renderOpts = append(cfg.renderOpts, opts...)
	}
}

// WithBuildOptions forwards options to the BuildDirectoryHandler constructor.
func WithBuildOptions(opts ...BuildOption) Option {
	return func(cfg *options) {
		cfg.buildOptions = append(cfg.buildOptions, opts...)
	}
}

// RegisterRenderCommands builds the render and build handlers and registers them with the
// provided registry. The handlers are returned so callers can wire dispatchers or cron jobs.
func RegisterRenderCommands(reg CommandRegistry, transformer *transform.Transformer, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if transformer == nil {
		return nil, errors.New("render command registration: transformer is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	renderHandler := NewRenderFileHandler(transformer, cfg.out, commands.CommandLogger(provider, "render"), cfg.renderOpts...)
	buildHandler := NewBuildDirectoryHandler(transformer, commands.CommandLogger(provider, "build"), cfg.buildOptions...)

	if reg != nil {
		if err := reg.RegisterCommand(renderHandler); err != nil {
			return nil, err
		}
		if err := reg.RegisterCommand(buildHandler); err != nil {
			return nil, err
		}
	}

	return &HandlerSet{
		Render: renderHandler,
		Build:  buildHandler,
	}, nil
}

// RegisterBuildCron schedules handler with msg under cfg. The handler runs with a
// background context.
func RegisterBuildCron(reg CronRegistrar, handler *BuildDirectoryHandler, cfg command.HandlerConfig, msg BuildDirectoryCommand) error {
	if reg == nil || handler == nil {
		return nil
	}
	return reg(cfg, func() error {
		return handler.Execute(context.Background(), msg)
	})
}
