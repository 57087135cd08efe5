package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"mediabox/internal/ipc"
	"mediabox/internal/media/ffmpeg"
)

func newTagCommand(ctx *commandContext) *cobra.Command {
	var tags ffmpeg.MetadataTags
	cmd := &cobra.Command{
		Use:   "tag <file>",
		Short: "Rewrite a media file's metadata tags in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tags.Empty() {
				return errors.New("set at least one tag flag")
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.MetadataSave(path, tags); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tags saved to %s\n", filepath.Base(path))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tags.Title, "title", "", "Title tag")
	cmd.Flags().StringVar(&tags.Artist, "artist", "", "Artist tag")
	cmd.Flags().StringVar(&tags.Album, "album", "", "Album tag")
	cmd.Flags().StringVar(&tags.Year, "year", "", "Release year (date tag)")
	cmd.Flags().StringVar(&tags.Genre, "genre", "", "Genre tag")
	cmd.Flags().StringVar(&tags.Track, "track", "", "Track number tag")
	cmd.Flags().StringVar(&tags.Comment, "comment", "", "Comment tag")
	return cmd
}
