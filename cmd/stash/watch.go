package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/stash/internal/ipc"
	"go.klb.dev/stash/internal/rpc"
)

func newWatchCmd() *cobra.Command {
	var (
		kinds   []string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print history changes as they happen",
		Long: `Streams captures, removals and recalls from the daemon until
interrupted. The most recent entry is printed first.

With --json each event is one JSON object per line, suitable for piping
into other tools.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !ipc.IsRunning() {
				return errNotRunning
			}
			conn, err := rpc.Dial()
			if err != nil {
				return fmt.Errorf("dial %s: %w", ipc.SocketPath(), err)
			}
			defer conn.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			stream, err := rpc.NewClient(conn).Watch(ctx, &rpc.WatchRequest{Kinds: kinds, Name: "cli", Summary: true})
			if err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			enc := json.NewEncoder(os.Stdout)
			for {
				ev, err := stream.Recv()
				switch {
				case err == nil:
				case errors.Is(err, io.EOF), status.Code(err) == codes.Canceled:
					return nil
				default:
					return fmt.Errorf("watch: %w", err)
				}
				if jsonOut {
					if err := enc.Encode(ev); err != nil {
						return err
					}
					continue
				}
				printEvent(os.Stdout, ev)
			}
		},
	}
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "only these kinds: text,image")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "one JSON event per line")
	return cmd
}

func printEvent(w io.Writer, ev *rpc.WatchEvent) {
	what := ev.Type
	if ev.Reason != "" {
		what += " (" + ev.Reason + ")"
	}
	if ev.Replay {
		what = "latest"
	}
	fmt.Fprintf(w, "%s  %-18s %-5s %8s  %s\n",
		time.Now().Format("15:04:05"), what, ev.Entry.Kind,
		humanize.IBytes(uint64(ev.Entry.Size)), oneLine(ev.Entry.Display(), 60))
}
