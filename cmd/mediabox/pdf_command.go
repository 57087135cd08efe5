package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"mediabox/internal/ipc"
)

func newPDFCommand(ctx *commandContext) *cobra.Command {
	var (
		outputDir string
		format    string
	)
	cmd := &cobra.Command{
		Use:   "pdf <file>",
		Short: "Render a PDF's pages as images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			dir := outputDir
			if dir == "" {
				dir = filepath.Dir(path)
			}
			if dir, err = filepath.Abs(dir); err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PDFExport(path, dir, format)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pages written to %s\n", resp.Folder)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory to create the pages folder in (default: next to the PDF)")
	cmd.Flags().StringVar(&format, "format", "png", "Page image format (png or jpg)")
	return cmd
}
