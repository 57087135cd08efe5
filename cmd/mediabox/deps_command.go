package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediabox/internal/preflight"
)

// deps runs locally so it works even when the daemon is down.
func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check availability of external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			rows := make([][]string, 0, 4)
			failures := 0
			for _, dep := range preflight.CheckSystemDeps(cfg) {
				state := "ok"
				if !dep.Available {
					if dep.Optional {
						state = "missing (optional)"
					} else {
						state = "missing"
						failures++
					}
				}
				if colorize {
					switch {
					case dep.Available:
						state = ansiGreen + state + ansiReset
					case !dep.Optional:
						state = ansiRed + state + ansiReset
					}
				}
				rows = append(rows, []string{dep.Name, dep.Command, orDash(dep.Version), dep.Description, state})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"Dependency", "Command", "Version", "Purpose", "State"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}))

			if failures > 0 {
				return fmt.Errorf("%d required dependency(ies) missing", failures)
			}
			return nil
		},
	}
}
