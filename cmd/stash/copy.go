package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/stash/internal/history"
	"go.klb.dev/stash/internal/rpc"
)

func newCopyCmd() *cobra.Command {
	var mime string
	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy stdin to the clipboard (like pbcopy)",
		Long: `Reads stdin and hands it to the daemon, which writes it to the system
clipboard. It is recorded in the history like any other copy. To copy an
image:

  stash copy --mime image/png < screenshot.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			if len(data) == 0 {
				return nil
			}
			content, ok := history.FromMIME(mime, data)
			if !ok {
				return fmt.Errorf("unsupported --mime %q (want %s or %s)", mime, history.MIMEText, history.MIMEImage)
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *rpc.Client) error {
				return c.Copy(ctx, content)
			})
		},
	}
	cmd.Flags().StringVar(&mime, "mime", history.MIMEText, "MIME type of stdin: text/plain|image/png")
	return cmd
}

func newPasteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paste [id|#n]",
		Short: "Print an entry to stdout (like pbpaste)",
		Long: `Writes an entry's content to stdout: the most recent one by default.
Images are written as PNG bytes:

  stash paste '#3' > screenshot.png

The clipboard itself is not touched.

` + refHelp,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := "#1"
			if len(args) == 1 {
				ref = args[0]
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *rpc.Client) error {
				e, err := c.Get(ctx, ref)
				if err != nil {
					return fmt.Errorf("paste: %w", err)
				}
				_, err = os.Stdout.Write(e.Content().Bytes())
				return err
			})
		},
	}
}
