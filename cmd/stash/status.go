package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"go.klb.dev/stash/internal/ipc"
	"go.klb.dev/stash/internal/rpc"
)

func newStatusCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *rpc.Client) error {
				st, err := c.Stats(ctx)
				if err != nil {
					return fmt.Errorf("status: %w", err)
				}
				healthy, err := c.Healthy(ctx)
				if err != nil {
					return fmt.Errorf("health: %w", err)
				}
				if jsonOut {
					enc, _ := json.MarshalIndent(st, "", "  ")
					fmt.Println(string(enc))
					return nil
				}
				printStatus(os.Stdout, st, healthy, time.Now())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output raw JSON")
	return cmd
}

func printStatus(out io.Writer, st *rpc.StatsResponse, healthy bool, now time.Time) {
	w := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)

	health := "serving"
	if !healthy {
		health = "not serving"
	}
	hotkey := st.Hotkey
	if hotkey == "" {
		hotkey = `unavailable (use "stash toggle")`
	}

	fmt.Fprintf(w, "Version:\t%s\n", st.Version)
	fmt.Fprintf(w, "Socket:\t%s (%s)\n", ipc.SocketPath(), health)
	fmt.Fprintf(w, "Started:\t%s (%s)\n", st.Started.Local().Format(time.RFC3339), humanize.RelTime(st.Started, now, "ago", "from now"))
	fmt.Fprintf(w, "Clipboard:\t%s\n", st.Clipboard)
	fmt.Fprintf(w, "Paste:\t%s\n", st.Paste)
	fmt.Fprintf(w, "Hotkey:\t%s\n", hotkey)
	fmt.Fprintf(w, "Prefer:\t%s\n", st.Prefer)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Entries:\t%d\n", st.Entries)
	fmt.Fprintf(w, "Size:\t%s\n", humanize.IBytes(uint64(st.TotalBytes)))
	fmt.Fprintf(w, "Item limit:\t%s\n", st.ItemLimit)
	fmt.Fprintf(w, "Total limit:\t%s\n", st.TotalLimit)
	if st.Suppressed {
		fmt.Fprintf(w, "Capture:\tpaused (recall in progress)\n")
	}
	fmt.Fprintf(w, "Watchers:\t%d\n", st.Watchers)
	if st.PickerVisible {
		fmt.Fprintf(w, "Picker:\topen\n")
	}
	_ = w.Flush()
}
