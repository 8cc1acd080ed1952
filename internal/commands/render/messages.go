package rendercmd

import (
	"io"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

const (
	renderFileMessageType     = "wmarkdown.render.file"
	buildDirectoryMessageType = "wmarkdown.render.build_directory"
)

// Output formats.
const (
	FormatHTML = "html"
	FormatJS   = "js"
)

// StdinPath as a RenderFileCommand path reads markdown from Input.
const StdinPath = "-"

// stdinID is the transform id used for markdown read from Input.
const stdinID = "stdin.md"

// RenderFileCommand renders a single markdown file.
type RenderFileCommand struct {
	// Path selects the markdown file to render, or StdinPath.
	Path string `json:"path"`
	// Input supplies the markdown when Path is StdinPath.
	Input io.Reader `json:"-"`
	// Output is the destination file. Empty writes to the handler's writer.
	Output string `json:"output,omitempty"`
	// Format selects the HTML fragment or the JavaScript module. Defaults to html.
	Format string `json:"format,omitempty"`
}

// Type implements command.Message.
func (RenderFileCommand) Type() string { return renderFileMessageType }

// Validate ensures a path and a known format are set before handlers execute.
func (cmd RenderFileCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Path, validation.Required, validation.By(notBlank("wmarkdown.render.file.path_required", "path is required"))),
		validation.Field(&cmd.Input, validation.By(func(value any) error {
			if cmd.Path == StdinPath && cmd.Input == nil {
				return validation.NewError("wmarkdown.render.file.input_required", "input is required when reading from stdin")
			}
			return nil
		})),
		validation.Field(&cmd.Format, validation.In(FormatHTML, FormatJS).Error("format must be html or js")),
	)
}

// BuildDirectoryCommand renders every matching file under SourceDir into
// OutputDir, mirroring the directory layout.
type BuildDirectoryCommand struct {
	SourceDir string `json:"source_dir"`
	OutputDir string `json:"output_dir"`
	Format    string `json:"format,omitempty"`
	// Workers bounds concurrent renders. Zero uses the number of CPUs.
	Workers int `json:"workers,omitempty"`
	// Clean removes OutputDir before building.
	Clean bool `json:"clean,omitempty"`
	// RunID tags log entries of the run. A random id is assigned when empty.
	RunID uuid.UUID `json:"run_id,omitempty"`
}

// Type implements command.Message.
func (BuildDirectoryCommand) Type() string { return buildDirectoryMessageType }

// Validate ensures directories are present and distinct.
func (cmd BuildDirectoryCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.SourceDir, validation.Required, validation.By(notBlank("wmarkdown.render.build_directory.source_required", "source directory is required"))),
		validation.Field(&cmd.OutputDir, validation.Required,
			validation.By(notBlank("wmarkdown.render.build_directory.output_required", "output directory is required")),
			validation.By(func(value any) error {
				if containsDir(value.(string), cmd.SourceDir) {
					return validation.NewError("wmarkdown.render.build_directory.output_contains_source", "output directory must not be or contain the source directory")
				}
				return nil
			}),
		),
		validation.Field(&cmd.Format, validation.In(FormatHTML, FormatJS).Error("format must be html or js")),
		validation.Field(&cmd.Workers, validation.Min(0)),
	)
}

func notBlank(code, message string) validation.RuleFunc {
	return func(value any) error {
		if strings.TrimSpace(value.(string)) == "" {
			return validation.NewError(code, message)
		}
		return nil
	}
}

// containsDir reports whether dir is child or one of its ancestors.
func containsDir(dir, child string) bool {
	if strings.TrimSpace(dir) == "" || strings.TrimSpace(child) == "" {
		return false
	}
	absDir, errDir := filepath.Abs(dir)
	absChild, errChild := filepath.Abs(child)
	if errDir != nil || errChild != nil {
		return true
	}
	rel, err := filepath.Rel(absDir, absChild)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
