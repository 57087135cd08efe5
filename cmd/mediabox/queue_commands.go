package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mediabox/internal/ipc"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the conversion queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueEditCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueCancelCommand(ctx))
	queueCmd.AddCommand(newQueuePauseCommand(ctx))
	queueCmd.AddCommand(newQueueResumeCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList(ipc.QueueListRequest{Statuses: listStatuses})
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Items) == 0 {
					fmt.Fprintln(stdout, "Queue is empty")
					return nil
				}
				colorize := shouldColorize(stdout)
				rows := make([][]string, 0, len(resp.Items))
				for _, item := range resp.Items {
					rows = append(rows, []string{
						strconv.FormatInt(item.ID, 10),
						taskLabel(item.TaskType),
						truncate(item.Title, 40),
						colorStatus(item.Status, colorize),
						formatProgress(item),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Task", "Title", "Status", "Progress"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (pending, running, completed, failed)")
	return cmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var taskType string
	var sourceURL string
	var optionsJSON string
	var presetName string

	cmd := &cobra.Command{
		Use:   "add [source-file]",
		Short: "Add a conversion task to the queue",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourcePath := ""
			if len(args) > 0 {
				sourcePath = args[0]
			}
			if sourcePath == "" && sourceURL == "" {
				return errors.New("provide a source file or --url")
			}
			if sourceURL != "" && taskType == "" {
				taskType = "download"
			}
			if taskType == "" {
				return errors.New("--task is required")
			}

			options, err := resolveOptions(ctx, taskType, optionsJSON, presetName)
			if err != nil {
				return err
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueAdd(ipc.QueueAddRequest{
					TaskType:   taskType,
					SourcePath: sourcePath,
					SourceURL:  sourceURL,
					Options:    options,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued #%d: %s (%s)\n",
					resp.Item.ID, resp.Item.Title, taskLabel(resp.Item.TaskType))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&taskType, "task", "t", "", "Task type (encode, trim, extract, gif, download)")
	cmd.Flags().StringVar(&sourceURL, "url", "", "Source URL for download tasks")
	cmd.Flags().StringVar(&optionsJSON, "options", "", "Task options as a JSON object")
	cmd.Flags().StringVar(&presetName, "preset", "", "Use a saved preset for the task options")
	return cmd
}

// resolveOptions merges a saved preset with explicit JSON; explicit keys win.
func resolveOptions(ctx *commandContext, taskType, optionsJSON, presetName string) (json.RawMessage, error) {
	explicit := strings.TrimSpace(optionsJSON)
	if explicit != "" && !json.Valid([]byte(explicit)) {
		return nil, errors.New("--options must be a valid JSON object")
	}
	if presetName == "" {
		if explicit == "" {
			return nil, nil
		}
		return json.RawMessage(explicit), nil
	}

	var base map[string]json.RawMessage
	err := ctx.withClient(func(client *ipc.Client) error {
		resp, err := client.PresetList(taskType)
		if err != nil {
			return err
		}
		for _, preset := range resp.Presets {
			if preset.Name == presetName {
				return json.Unmarshal(preset.OptionsJSON, &base)
			}
		}
		return fmt.Errorf("preset %q not found", presetName)
	})
	if err != nil {
		return nil, err
	}
	if base == nil {
		base = make(map[string]json.RawMessage)
	}

	if explicit != "" {
		var overrides map[string]json.RawMessage
		if err := json.Unmarshal([]byte(explicit), &overrides); err != nil {
			return nil, errors.New("--options must be a JSON object when combined with --preset")
		}
		for key, value := range overrides {
			base[key] = value
		}
	}
	merged, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	return merged, nil
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a queue item in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueDescribe(id)
				if err != nil {
					return err
				}
				item := resp.Item
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "ID:       %d\n", item.ID)
				fmt.Fprintf(stdout, "Title:    %s\n", item.Title)
				fmt.Fprintf(stdout, "Task:     %s\n", taskLabel(item.TaskType))
				fmt.Fprintf(stdout, "Status:   %s\n", statusLabel(item.Status))
				fmt.Fprintf(stdout, "Source:   %s\n", formatSource(item))
				if item.Status == "running" {
					fmt.Fprintf(stdout, "Progress: %s (%s)\n", formatProgress(item), item.Progress.Stage)
				}
				if item.OutputPath != "" {
					fmt.Fprintf(stdout, "Output:   %s\n", item.OutputPath)
				}
				if item.ErrorMessage != "" {
					fmt.Fprintf(stdout, "Error:    %s\n", item.ErrorMessage)
				}
				if len(item.Options) > 0 {
					var pretty map[string]any
					if err := json.Unmarshal(item.Options, &pretty); err == nil && len(pretty) > 0 {
						encoded, _ := json.MarshalIndent(pretty, "", "  ")
						fmt.Fprintf(stdout, "Options:  %s\n", encoded)
					}
				}
				if item.CreatedAt != "" {
					fmt.Fprintf(stdout, "Created:  %s\n", item.CreatedAt)
				}
				if item.StartedAt != "" {
					fmt.Fprintf(stdout, "Started:  %s\n", item.StartedAt)
				}
				if item.CompletedAt != "" {
					fmt.Fprintf(stdout, "Finished: %s\n", item.CompletedAt)
				}
				return nil
			})
		},
	}
}

func newQueueEditCommand(ctx *commandContext) *cobra.Command {
	var optionsJSON string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace the options of a pending queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			trimmed := strings.TrimSpace(optionsJSON)
			if trimmed == "" {
				return errors.New("--options is required")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueUpdateOptions(ipc.QueueUpdateOptionsRequest{
					ID:      id,
					Options: json.RawMessage(trimmed),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated #%d\n", resp.Item.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&optionsJSON, "options", "", "New task options as a JSON object")
	return cmd
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.QueueRemove(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed #%d\n", id)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var completedOnly, failedOnly bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear queue items (running item is never touched)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if completedOnly && failedOnly {
				return errors.New("choose one of --completed or --failed")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				var removed int64
				var err error
				switch {
				case completedOnly:
					var resp *ipc.QueueClearCompletedResponse
					resp, err = client.QueueClearCompleted()
					if resp != nil {
						removed = resp.Removed
					}
				case failedOnly:
					var resp *ipc.QueueClearFailedResponse
					resp, err = client.QueueClearFailed()
					if resp != nil {
						removed = resp.Removed
					}
				default:
					var resp *ipc.QueueClearResponse
					resp, err = client.QueueClear()
					if resp != nil {
						removed = resp.Removed
					}
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d item(s)\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&completedOnly, "completed", false, "Clear only completed items")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Clear only failed items")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Reset failed items to pending and resume processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueRetry()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retrying %d item(s)\n", resp.Updated)
				return nil
			})
		},
	}
}

func newQueueCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the running task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueCancel()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Cancelled {
					fmt.Fprintln(stdout, "Cancel requested; the item returns to pending")
				} else {
					fmt.Fprintln(stdout, "No task is running")
				}
				return nil
			})
		},
	}
}

func newQueuePauseCommand(ctx *commandContext) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause automatic queue processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.QueuePause(reason); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Queue paused")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Reason shown in status output")
	return cmd
}

func newQueueResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume automatic queue processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.QueueResume(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Queue resumed")
				return nil
			})
		},
	}
}

func parseItemID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid queue item id %q", raw)
	}
	return id, nil
}
