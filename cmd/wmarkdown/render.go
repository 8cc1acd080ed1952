package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-wmarkdown"
	rendercmd "github.com/goliatone/go-wmarkdown/internal/commands/render"
)

type renderFlags struct {
	output      string
	format      string
	noHighlight bool
	commonmark  bool
}

func newRenderCommand(global *globalFlags) *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render <file|->",
		Short: "Render a markdown file to HTML or a JS module",
		Long: `Render transforms one markdown file. Frontmatter is stripped into the
module metadata. Use "-" to render markdown read from stdin; --format and
--output apply to it as well.

Examples:
  wmarkdown render README.md
  wmarkdown render docs/intro.md --format js --output dist/intro.js
  cat notes.md | wmarkdown render -
  cat notes.md | wmarkdown render - --format js --output dist/notes.js`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := buildModule(global, func(cfg *wmarkdown.Config) {
				if flags.noHighlight {
					cfg.Engine.EnableHighlight = false
				}
				if flags.commonmark {
					cfg.Plugins.CommonMark = true
				}
			})
			if err != nil {
				return err
			}
			defer module.Close()

			handler := module.Module.Container().RenderFileHandler(cmd.OutOrStdout())
			return handler.Execute(cmd.Context(), rendercmd.RenderFileCommand{
				Path:   args[0],
				Input:  cmd.InOrStdin(),
				Output: flags.output,
				Format: flags.format,
			})
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write the result to a file instead of stdout")
	cmd.Flags().StringVarP(&flags.format, "format", "f", rendercmd.FormatHTML, "Output format: html or js")
	cmd.Flags().BoolVar(&flags.noHighlight, "no-highlight", false, "Render fenced code without syntax highlighting")
	cmd.Flags().BoolVar(&flags.commonmark, "commonmark", false, "Render with the CommonMark plugin instead of the default rules")
	return cmd
}
