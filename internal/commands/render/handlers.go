package rendercmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-wmarkdown/internal/commands"
	"github.com/goliatone/go-wmarkdown/internal/logging"
	"github.com/goliatone/go-wmarkdown/internal/transform"
	"github.com/goliatone/go-wmarkdown/pkg/interfaces"
)

const (
	renderOperation = "render.file"
	buildOperation  = "render.build_directory"
)

var (
	// ErrFileSkipped is returned when the transform filters reject a file.
	ErrFileSkipped = errors.New("render command: file does not match the transform filters")
	// ErrBuildIncomplete is returned when at least one file failed to render.
	ErrBuildIncomplete = errors.New("render command: build finished with failures")
)

var (
	_ command.Commander[RenderFileCommand]     = (*RenderFileHandler)(nil)
	_ command.Commander[BuildDirectoryCommand] = (*BuildDirectoryHandler)(nil)
)

// RenderFileHandler renders one file through a transformer.
type RenderFileHandler struct {
	inner *commands.Handler[RenderFileCommand]
}

// NewRenderFileHandler writes results to out when a command has no Output.
func NewRenderFileHandler(transformer *transform.Transformer, out io.Writer, logger interfaces.Logger, opts ...commands.HandlerOption[RenderFileCommand]) *RenderFileHandler {
	baseLogger := commands.EnsureLogger(logger)
	if out == nil {
		out = io.Discard
	}

	exec := func(ctx context.Context, msg RenderFileCommand) error {
		src, id, err := readSource(msg)
		if err != nil {
			return err
		}

		mod, err := transformer.Transform(ctx, src, id)
		if err != nil {
			return err
		}
		if mod == nil {
			return fmt.Errorf("%w: %s", ErrFileSkipped, msg.Path)
		}

		payload := selectPayload(mod, msg.Format)
		if strings.TrimSpace(msg.Output) == "" {
			_, err := io.WriteString(out, payload)
			return err
		}
		return writeFile(msg.Output, payload)
	}

	handlerOpts := []commands.HandlerOption[RenderFileCommand]{
		commands.WithLogger[RenderFileCommand](baseLogger),
		commands.WithOperation[RenderFileCommand](renderOperation),
		commands.WithMessageFields(func(msg RenderFileCommand) map[string]any {
			fields := map[string]any{"path": msg.Path}
			if msg.Output != "" {
				fields["output"] = msg.Output
			}
			if msg.Format != "" {
				fields["format"] = msg.Format
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[RenderFileCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &RenderFileHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[RenderFileCommand].
func (h *RenderFileHandler) Execute(ctx context.Context, msg RenderFileCommand) error {
	return h.inner.Execute(ctx, msg)
}

// BuildResult summarises a directory build.
type BuildResult struct {
	RunID    uuid.UUID
	Written  []string
	Skipped  int
	Failed   map[string]error
	Duration time.Duration
}

// BuildReporter receives the result of every build run.
type BuildReporter func(BuildResult)

// BuildDirectoryHandler renders a directory tree with bounded concurrency.
type BuildDirectoryHandler struct {
	inner *commands.Handler[BuildDirectoryCommand]
}

// BuildOption customises a BuildDirectoryHandler.
type BuildOption func(*buildOptions)

type buildOptions struct {
	reporter      BuildReporter
	renderTimeout time.Duration
	handlerOpts   []commands.HandlerOption[BuildDirectoryCommand]
}

// WithReporter registers a callback receiving each BuildResult.
func WithReporter(fn BuildReporter) BuildOption {
	return func(o *buildOptions) {
		o.reporter = fn
	}
}

// WithRenderTimeout bounds the render of each file. Zero disables the bound.
func WithRenderTimeout(d time.Duration) BuildOption {
	return func(o *buildOptions) {
		o.renderTimeout = d
	}
}

// WithBuildHandlerOptions forwards options to the underlying command handler.
func WithBuildHandlerOptions(opts ...commands.HandlerOption[BuildDirectoryCommand]) BuildOption {
	return func(o *buildOptions) {
		o.handlerOpts = append(o.handlerOpts, opts...)
	}
}

// NewBuildDirectoryHandler creates a handler bound to transformer.
func NewBuildDirectoryHandler(transformer *transform.Transformer, logger interfaces.Logger, opts ...BuildOption) *BuildDirectoryHandler {
	baseLogger := commands.EnsureLogger(logger)
	cfg := buildOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	exec := func(ctx context.Context, msg BuildDirectoryCommand) error {
		b := &builder{
			transformer: transformer,
			msg:         msg,
			timeout:     cfg.renderTimeout,
			result: BuildResult{
				RunID:  msg.RunID,
				Failed: map[string]error{},
			},
		}
		if b.result.RunID == uuid.Nil {
			b.result.RunID = uuid.New()
		}
		b.logger = logging.WithFields(baseLogger, map[string]any{"run_id": b.result.RunID.String()})

		started := time.Now()
		err := b.run(ctx)
		b.result.Duration = time.Since(started)

		if cfg.reporter != nil {
			cfg.reporter(b.result)
		}
		if err != nil {
			return err
		}

		b.logger.Info("render.command.build_directory.completed",
			"written", len(b.result.Written),
			"skipped", b.result.Skipped,
			"failed", len(b.result.Failed),
			"duration_ms", b.result.Duration.Milliseconds(),
		)
		if len(b.result.Failed) > 0 {
			return fmt.Errorf("%w: %d of %d files failed", ErrBuildIncomplete, len(b.result.Failed), len(b.result.Failed)+len(b.result.Written))
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[BuildDirectoryCommand]{
		commands.WithLogger[BuildDirectoryCommand](baseLogger),
		commands.WithOperation[BuildDirectoryCommand](buildOperation),
		commands.WithMessageFields(func(msg BuildDirectoryCommand) map[string]any {
			fields := map[string]any{
				"source_dir": msg.SourceDir,
				"output_dir": msg.OutputDir,
			}
			if msg.Format != "" {
				fields["format"] = msg.Format
			}
			if msg.Workers > 0 {
				fields["workers"] = msg.Workers
			}
			if msg.Clean {
				fields["clean"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[BuildDirectoryCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, cfg.handlerOpts...)

	return &BuildDirectoryHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[BuildDirectoryCommand].
func (h *BuildDirectoryHandler) Execute(ctx context.Context, msg BuildDirectoryCommand) error {
	return h.inner.Execute(ctx, msg)
}

type builder struct {
	transformer *transform.Transformer
	msg         BuildDirectoryCommand
	timeout     time.Duration
	logger      interfaces.Logger

	mu     sync.Mutex
	result BuildResult
}

func (b *builder) run(ctx context.Context) error {
	if b.msg.Clean {
		if err := os.RemoveAll(b.msg.OutputDir); err != nil {
			return fmt.Errorf("render command: clean %s: %w", b.msg.OutputDir, err)
		}
	}

	files, err := b.collect()
	if err != nil {
		return err
	}

	workers := b.msg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for _, rel := range files {
		group.Go(func() error {
			return b.buildFile(groupCtx, rel)
		})
	}
	return group.Wait()
}

// collect lists source files relative to SourceDir. Files rejected by the
// transform filters are counted as skipped.
func (b *builder) collect() ([]string, error) {
	var files []string
	err := filepath.WalkDir(b.msg.SourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != b.msg.SourceDir && b.excludedDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !b.transformer.Matches(filepath.ToSlash(path)) {
			b.result.Skipped++
			return nil
		}
		rel, err := filepath.Rel(b.msg.SourceDir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("render command: walk %s: %w", b.msg.SourceDir, err)
	}
	return files, nil
}

func (b *builder) excludedDir(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	out, err := filepath.Abs(b.msg.OutputDir)
	return err == nil && abs == out
}

// buildFile renders one file. Render failures are recorded and do not stop
// the build; only context errors abort it.
func (b *builder) buildFile(ctx context.Context, rel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	source := filepath.Join(b.msg.SourceDir, rel)
	logger := logging.WithFileContext(b.logger, source)

	src, err := os.ReadFile(source)
	if err != nil {
		b.fail(source, err)
		return nil
	}

	renderCtx, cancel := commands.WithCommandTimeout(ctx, b.timeout)
	mod, err := b.transformer.Transform(renderCtx, string(src), filepath.ToSlash(source))
	cancel()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logger.Warn("render.command.build_directory.file_failed", "error", err)
		b.fail(source, err)
		return nil
	}
	if mod == nil {
		b.mu.Lock()
		b.result.Skipped++
		b.mu.Unlock()
		return nil
	}

	target := filepath.Join(b.msg.OutputDir, outputName(rel, b.msg.Format))
	if err := writeFile(target, selectPayload(mod, b.msg.Format)); err != nil {
		b.fail(source, err)
		return nil
	}

	logger.Debug("render.command.build_directory.file_written", "target", target, "cached", mod.Cached)
	b.mu.Lock()
	b.result.Written = append(b.result.Written, target)
	b.mu.Unlock()
	return nil
}

func (b *builder) fail(source string, err error) {
	b.mu.Lock()
	b.result.Failed[source] = err
	b.mu.Unlock()
}

func readSource(msg RenderFileCommand) (string, string, error) {
	if msg.Path == StdinPath {
		data, err := io.ReadAll(msg.Input)
		if err != nil {
			return "", "", fmt.Errorf("render command: read stdin: %w", err)
		}
		return string(data), stdinID, nil
	}
	data, err := os.ReadFile(msg.Path)
	if err != nil {
		return "", "", fmt.Errorf("render command: read %s: %w", msg.Path, err)
	}
	return string(data), msg.Path, nil
}

func selectPayload(mod *transform.Module, format string) string {
	if strings.EqualFold(strings.TrimSpace(format), FormatJS) {
		return mod.Code
	}
	return mod.HTML
}

func outputName(rel, format string) string {
	ext := ".html"
	if strings.EqualFold(strings.TrimSpace(format), FormatJS) {
		ext = ".js"
	}
	return strings.TrimSuffix(rel, filepath.Ext(rel)) + ext
}

func writeFile(path, payload string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("render command: create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		return fmt.Errorf("render command: write %s: %w", path, err)
	}
	return nil
}
