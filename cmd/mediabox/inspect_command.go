package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"mediabox/internal/ipc"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Probe a media file and show its properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Inspect(path)
				if err != nil {
					return err
				}
				meta := resp.Metadata
				rows := [][]string{
					{"File", filepath.Base(meta.Path)},
					{"Container", meta.Container},
					{"Duration", formatDuration(meta.Duration)},
					{"Resolution", fmt.Sprintf("%dx%d", meta.Width, meta.Height)},
					{"Frame rate", fmt.Sprintf("%.3f fps", meta.FrameRate)},
					{"Video codec", meta.VideoCodec},
					{"Audio codec", orDash(meta.AudioCodec)},
					{"Audio tracks", fmt.Sprintf("%d", meta.AudioTracks)},
					{"Size", formatBytes(meta.SizeBytes)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Property", "Value"}, rows,
					[]columnAlignment{alignLeft, alignLeft}))
				return nil
			})
		},
	}
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	d := time.Duration(seconds * float64(time.Second)).Round(time.Millisecond)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := d.Seconds() - float64(h*3600+m*60)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%05.2f", h, m, s)
	}
	return fmt.Sprintf("%d:%05.2f", m, s)
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
