package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mediabox/internal/ipc"
)

func newPresetCommand(ctx *commandContext) *cobra.Command {
	presetCmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage saved option presets",
	}
	presetCmd.AddCommand(newPresetListCommand(ctx))
	presetCmd.AddCommand(newPresetSaveCommand(ctx))
	presetCmd.AddCommand(newPresetDeleteCommand(ctx))
	return presetCmd
}

func newPresetListCommand(ctx *commandContext) *cobra.Command {
	var taskType string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PresetList(taskType)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Presets) == 0 {
					fmt.Fprintln(stdout, "No presets saved")
					return nil
				}
				rows := make([][]string, 0, len(resp.Presets))
				for _, preset := range resp.Presets {
					rows = append(rows, []string{
						preset.Name,
						taskLabel(preset.TaskType),
						truncate(string(preset.OptionsJSON), 60),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Name", "Task", "Options"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft}))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&taskType, "task", "t", "", "Filter by task type")
	return cmd
}

func newPresetSaveCommand(ctx *commandContext) *cobra.Command {
	var taskType string
	var optionsJSON string
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Create or replace a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(taskType) == "" {
				return errors.New("--task is required")
			}
			trimmed := strings.TrimSpace(optionsJSON)
			if trimmed == "" || !json.Valid([]byte(trimmed)) {
				return errors.New("--options must be a valid JSON object")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PresetSave(ipc.PresetSaveRequest{
					Name:     args[0],
					TaskType: taskType,
					Options:  json.RawMessage(trimmed),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved preset %q for %s tasks\n",
					resp.Preset.Name, resp.Preset.TaskType)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&taskType, "task", "t", "", "Task type the preset applies to")
	cmd.Flags().StringVar(&optionsJSON, "options", "", "Preset options as a JSON object")
	return cmd
}

func newPresetDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.PresetDelete(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted preset %q\n", args[0])
				return nil
			})
		},
	}
}
