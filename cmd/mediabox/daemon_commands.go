package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"mediabox/internal/daemonctl"
	"mediabox/internal/ipc"
)

func newStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the mediabox daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonctl.LaunchOptions{ConfigPath: ctx.configPath()},
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.AlreadyRunning {
				fmt.Fprintln(stdout, "Daemon already running")
				return nil
			}
			if result.PID > 0 {
				fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
			} else {
				fmt.Fprintln(stdout, "Daemon started")
			}
			return nil
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the mediabox daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.Stop(ctx.socketPath(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
				return nil
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}

				fmt.Fprintf(stdout, "Daemon: running (pid %d)\n", status.PID)
				if status.Halted {
					fmt.Fprintf(stdout, "Queue: paused (%s)\n", status.HaltReason)
				} else {
					fmt.Fprintln(stdout, "Queue: processing")
				}
				if status.LastError != "" {
					fmt.Fprintf(stdout, "Last error: %s\n", status.LastError)
				}
				if !status.DBHealthy {
					detail := status.DBDetail
					if detail == "" {
						detail = "unreachable"
					}
					fmt.Fprintf(stdout, "Queue database: %s\n", detail)
				}
				if status.ActiveItem != nil {
					fmt.Fprintf(stdout, "Active: #%d %s (%s)\n",
						status.ActiveItem.ID, status.ActiveItem.Title, formatProgress(*status.ActiveItem))
				}
				fmt.Fprintln(stdout)

				rows := make([][]string, 0, len(status.QueueStats))
				for _, key := range []string{"pending", "running", "completed", "failed", "total"} {
					rows = append(rows, []string{statusLabel(key), fmt.Sprintf("%d", status.QueueStats[key])})
				}
				fmt.Fprintln(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

				if len(status.HandlerHealth) > 0 {
					fmt.Fprintln(stdout)
					healthRows := make([][]string, 0, len(status.HandlerHealth))
					for _, h := range status.HandlerHealth {
						state := "ready"
						if !h.Ready {
							state = h.Detail
							if state == "" {
								state = "not ready"
							}
						}
						healthRows = append(healthRows, []string{taskLabel(h.Name), state})
					}
					fmt.Fprintln(stdout, renderTable([]string{"Handler", "State"}, healthRows, []columnAlignment{alignLeft, alignLeft}))
				}

				if len(status.Dependencies) > 0 {
					fmt.Fprintln(stdout)
					depRows := make([][]string, 0, len(status.Dependencies))
					for _, dep := range status.Dependencies {
						avail := "missing"
						if dep.Available {
							avail = "ok"
						} else if dep.Optional {
							avail = "missing (optional)"
						}
						if colorize {
							if dep.Available {
								avail = ansiGreen + avail + ansiReset
							} else if !dep.Optional {
								avail = ansiRed + avail + ansiReset
							}
						}
						depRows = append(depRows, []string{dep.Name, dep.Command, avail})
					}
					fmt.Fprintln(stdout, renderTable([]string{"Dependency", "Command", "State"}, depRows, []columnAlignment{alignLeft, alignLeft, alignLeft}))
				}
				return nil
			})
		},
	}
}

// daemonExecutable locates mediaboxd next to the CLI binary, falling back to
// PATH lookup.
func daemonExecutable() (string, error) {
	self, err := os.Executable()
	if err == nil {
		candidate := filepath.Join(filepath.Dir(self), "mediaboxd")
		if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	path, err := exec.LookPath("mediaboxd")
	if err != nil {
		return "", errors.New("mediaboxd binary not found next to mediabox or on PATH")
	}
	return path, nil
}
