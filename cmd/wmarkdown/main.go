package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-wmarkdown"
	"github.com/goliatone/go-wmarkdown/cmd/wmarkdown/internal/bootstrap"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	envFile    string
	noColor    bool
	logLevel   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "wmarkdown",
		Short: "wmarkdown renders markdown to HTML with a pluggable rule pipeline",
		Long: `wmarkdown renders markdown documents to HTML using an ordered set of
rewrite rules. Plugins (Go, Lua or the CommonMark renderer) can add, replace
or remove rules.

Usage:
  wmarkdown render <file> [flags]
  wmarkdown build [flags]
  wmarkdown watch [dir...] [flags]
  wmarkdown rules`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				color.NoColor = true
			}
		},
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to a YAML configuration file")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "Path to a .env file (default: ./.env when present)")
	root.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override the configured log level")

	root.AddCommand(
		newRenderCommand(flags),
		newBuildCommand(flags),
		newWatchCommand(flags),
		newRulesCommand(flags),
	)
	return root
}

// buildModule bootstraps the module with the global flags applied. configure
// runs after the config file and environment are loaded.
func buildModule(flags *globalFlags, configure func(*wmarkdown.Config)) (*bootstrap.Module, error) {
	return bootstrap.BuildModule(bootstrap.Options{
		ConfigPath: flags.configPath,
		EnvFile:    flags.envFile,
		Configure: func(cfg *wmarkdown.Config) {
			if flags.logLevel != "" {
				cfg.Logging.Level = flags.logLevel
			}
			if configure != nil {
				configure(cfg)
			}
		},
	})
}
