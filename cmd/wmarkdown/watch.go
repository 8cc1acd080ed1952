package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	rendercmd "github.com/goliatone/go-wmarkdown/internal/commands/render"
	"github.com/goliatone/go-wmarkdown/internal/transform"
)

type watchFlags struct {
	outputDir string
	format    string
}

func newWatchCommand(global *globalFlags) *cobra.Command {
	flags := &watchFlags{}

	cmd := &cobra.Command{
		Use:   "watch [dir...]",
		Short: "Re-render markdown files as they change",
		Long: `Watch observes directories (default: build.source_dir) and re-renders a
markdown file whenever it is written. With --output, each result is written
next to its relative path under the output directory.

Examples:
  wmarkdown watch
  wmarkdown watch docs --output public`,
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := buildModule(global, nil)
			if err != nil {
				return err
			}
			defer module.Close()

			dirs := args
			if len(dirs) == 0 {
				dirs = []string{module.Config.Build.SourceDir}
			}
			format := pick(flags.format, module.Config.Build.Format)

			watcher, err := module.Module.Container().NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()

			for _, dir := range dirs {
				if err := watcher.Add(dir); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			cyan := color.New(color.FgCyan).SprintFunc()
			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			fmt.Fprintf(out, "%s %s\n", cyan("Watching"), strings.Join(watcher.Paths(), ", "))
			for {
				select {
				case <-ctx.Done():
					return nil
				case event, ok := <-watcher.Events():
					if !ok {
						return nil
					}
					switch {
					case event.Err != nil:
						fmt.Fprintf(out, "%s %s: %v\n", red("✗"), event.Path, event.Err)
					case event.Removed:
						fmt.Fprintf(out, "%s %s\n", yellow("-"), event.Path)
					case event.Module != nil:
						target, err := writeWatchResult(dirs, flags.outputDir, format, event)
						if err != nil {
							fmt.Fprintf(out, "%s %s: %v\n", red("✗"), event.Path, err)
							continue
						}
						if target != "" {
							fmt.Fprintf(out, "%s %s -> %s\n", green("✓"), event.Path, target)
						} else {
							fmt.Fprintf(out, "%s %s (%d bytes)\n", green("✓"), event.Path, len(event.Module.HTML))
						}
					}
				}
			}
		},
	}

	cmd.Flags().StringVarP(&flags.outputDir, "output", "o", "", "Write rendered files under this directory")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "Output format: html or js (default: build.format)")
	return cmd
}

// writeWatchResult mirrors event.Path relative to the watched root under
// outputDir. It writes nothing when outputDir is empty.
func writeWatchResult(roots []string, outputDir, format string, event transform.Event) (string, error) {
	if outputDir == "" {
		return "", nil
	}

	rel := filepath.Base(event.Path)
	for _, root := range roots {
		if r, err := filepath.Rel(root, event.Path); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
			break
		}
	}

	payload, ext := event.Module.HTML, ".html"
	if strings.EqualFold(format, rendercmd.FormatJS) {
		payload, ext = event.Module.Code, ".js"
	}
	target := filepath.Join(outputDir, strings.TrimSuffix(rel, filepath.Ext(rel))+ext)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	return target, os.WriteFile(target, []byte(payload), 0o644)
}
