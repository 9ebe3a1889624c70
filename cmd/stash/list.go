package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/stash/internal/rpc"
)

func newListCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List clipboard history, most recent first",
		Long: `Lists the entries held by the daemon. The "#" column is the position
accepted by recall, delete and paste (#1 is the most recent).

--search filters case-insensitively on text content; images never match a
non-empty search.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *rpc.Client) error {
				entries, err := c.List(ctx, v.GetString("search"), v.GetInt("limit"), true)
				if err != nil {
					return fmt.Errorf("list: %w", err)
				}
				if v.GetBool("json") {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(entries)
				}
				printEntries(os.Stdout, entries)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringP("search", "s", "", "only entries whose text contains this (case-insensitive)")
	f.IntP("limit", "n", 0, "show at most this many entries (0 = all)")
	f.Bool("json", false, "output raw JSON")
	addConfigFlag(cmd)

	return cmd
}

func printEntries(w io.Writer, entries []rpc.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "History is empty.")
		return
	}
	tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "#\tID\tKIND\tSIZE\tCOPIED\tCONTENT\n")
	for i, e := range entries {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1, e.ID, e.Kind, humanize.IBytes(uint64(e.Size)),
			humanize.Time(e.Timestamp), oneLine(e.Display(), 60),
		)
	}
	_ = tw.Flush()
}
