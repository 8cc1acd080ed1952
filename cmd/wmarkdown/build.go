package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-wmarkdown/cmd/wmarkdown/internal/bootstrap"
	rendercmd "github.com/goliatone/go-wmarkdown/internal/commands/render"
)

type buildFlags struct {
	sourceDir string
	outputDir string
	format    string
	workers   int
	clean     bool
	runID     string
	verbose   bool
}

func newBuildCommand(global *globalFlags) *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render every markdown file under a directory",
		Long: `Build walks the source directory and renders every file accepted by the
transform filters into the output directory, keeping the directory layout.
Files that fail to render are reported and do not stop the build.

Examples:
  wmarkdown build
  wmarkdown build --source docs --output public --format js
  wmarkdown build --workers 4 --clean`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := buildModule(global, nil)
			if err != nil {
				return err
			}
			defer module.Close()

			runID, err := bootstrap.ParseRunID(flags.runID)
			if err != nil {
				return fmt.Errorf("invalid --run-id: %w", err)
			}

			build := module.Config.Build
			msg := rendercmd.BuildDirectoryCommand{
				SourceDir: pick(flags.sourceDir, build.SourceDir),
				OutputDir: pick(flags.outputDir, build.OutputDir),
				Format:    pick(flags.format, build.Format),
				Workers:   build.Workers,
				Clean:     build.Clean || flags.clean,
				RunID:     runID,
			}
			if cmd.Flags().Changed("workers") {
				msg.Workers = flags.workers
			}

			out := cmd.OutOrStdout()
			handler := module.Module.Container().BuildDirectoryHandler(
				rendercmd.WithReporter(func(result rendercmd.BuildResult) {
					printBuildResult(out, result, flags.verbose)
				}),
			)
			return handler.Execute(cmd.Context(), msg)
		},
	}

	cmd.Flags().StringVarP(&flags.sourceDir, "source", "s", "", "Source directory (default: build.source_dir)")
	cmd.Flags().StringVarP(&flags.outputDir, "output", "o", "", "Output directory (default: build.output_dir)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "Output format: html or js (default: build.format)")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "Concurrent renders, 0 uses every CPU")
	cmd.Flags().BoolVar(&flags.clean, "clean", false, "Remove the output directory before building")
	cmd.Flags().StringVar(&flags.runID, "run-id", "", "UUID tagging the run in logs (default: random)")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "List every written file")
	return cmd
}

func printBuildResult(out io.Writer, result rendercmd.BuildResult, verbose bool) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	if verbose {
		written := append([]string(nil), result.Written...)
		sort.Strings(written)
		for _, path := range written {
			fmt.Fprintf(out, "  %s %s\n", green("✓"), path)
		}
	}

	failed := make([]string, 0, len(result.Failed))
	for path := range result.Failed {
		failed = append(failed, path)
	}
	sort.Strings(failed)
	for _, path := range failed {
		fmt.Fprintf(out, "  %s %s: %v\n", red("✗"), path, result.Failed[path])
	}

	fmt.Fprintf(out, "%s %d written, %d skipped, %d failed %s\n",
		green("Build finished:"),
		len(result.Written),
		result.Skipped,
		len(result.Failed),
		gray(fmt.Sprintf("(%s, run %s)", result.Duration.Round(time.Millisecond), result.RunID)),
	)
}

func pick(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
