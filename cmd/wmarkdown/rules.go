package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newRulesCommand(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the render rules and plugins in execution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := buildModule(global, nil)
			if err != nil {
				return err
			}
			defer module.Close()

			engine := module.Module.Engine()
			out := cmd.OutOrStdout()
			bold := color.New(color.Bold).SprintFunc()
			gray := color.New(color.FgHiBlack).SprintFunc()

			fmt.Fprintln(out, bold("Rules"))
			for i, name := range engine.Rules() {
				fmt.Fprintf(out, "  %2d. %s\n", i+1, name)
			}

			fmt.Fprintln(out, bold("Plugins"))
			installed := engine.GetPlugins()
			if len(installed) == 0 {
				fmt.Fprintf(out, "  %s\n", gray("(none)"))
			}
			for _, p := range installed {
				fmt.Fprintf(out, "  - %s\n", p.Name)
			}
			return nil
		},
	}
}
