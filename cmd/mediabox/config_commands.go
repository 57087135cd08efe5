package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mediabox/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigPathCommand(ctx))

	return configCmd
}

func newConfigPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the resolved configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ctx.resolvedPath)
			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				target = config.DefaultConfigPath()
			}
			written, err := config.CreateSample(target, overwrite)
			if err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", written)
			fmt.Fprintln(out, "Edit the paths section before starting the daemon.")
			return nil
		},
	}

	cmd.Flags().StringVar(&targetPath, "path", "", "Destination for the sample config")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing config file")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			rows := [][]string{
				{"Work dir", cfg.Paths.WorkDir},
				{"Output dir", cfg.Paths.OutputDir},
				{"Cache dir", cfg.Paths.CacheDir},
				{"Download dir", cfg.Download.Dir},
				{"API bind", cfg.Paths.APIBind},
				{"FFmpeg", cfg.Tools.FFmpeg},
				{"FFprobe", cfg.Tools.FFprobe},
				{"yt-dlp", cfg.Tools.YtDlp},
				{"Hardware accel", cfg.Encoding.HardwareAccel},
				{"Work priority", cfg.Encoding.WorkPriority},
				{"Default preset", cfg.Encoding.DefaultPreset},
				{"Default CRF", fmt.Sprintf("%d", cfg.Encoding.DefaultCRF)},
				{"Queue limit", fmt.Sprintf("%d", cfg.Queue.MaxItems)},
				{"Overwrite outputs", yesNo(cfg.Output.OverwriteExisting)},
				{"Log level", cfg.Logging.Level},
				{"Log format", cfg.Logging.Format},
				{"Stale work hours", fmt.Sprintf("%d", cfg.Cleanup.StaleWorkHours)},
				{"ntfy topic", orDash(cfg.Notify.NtfyTopic)},
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"Setting", "Value"}, rows,
				[]columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
}
