package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"go.klb.dev/stash/internal/rpc"
)

const refHelp = `An entry is named by its id or by "#n", its position in "stash list"
(#1 is the most recent). Quote it in shells that treat # as a comment.`

func newRecallCmd() *cobra.Command {
	var noPaste bool
	cmd := &cobra.Command{
		Use:   "recall <id|#n>",
		Short: "Put an entry back on the clipboard and paste it",
		Long: `Copies the entry to the system clipboard and, unless --no-paste is
given or the daemon runs with no-paste, simulates the platform paste
keystroke into the focused application. The entry keeps its place in the
history.

` + refHelp,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *rpc.Client) error {
				e, err := c.Recall(ctx, args[0], noPaste)
				if err != nil {
					return fmt.Errorf("recall: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "recalled %s\n", oneLine(e.Display(), 60))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&noPaste, "no-paste", false, "only restore the clipboard")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id|#n>",
		Aliases: []string{"rm"},
		Short:   "Remove one entry from the history",
		Long:    refHelp,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *rpc.Client) error {
				if err := c.Delete(ctx, args[0]); err != nil {
					return fmt.Errorf("delete: %w", err)
				}
				return nil
			})
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry from the history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *rpc.Client) error {
				n, err := c.Clear(ctx)
				if err != nil {
					return fmt.Errorf("clear: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "removed %d entries\n", n)
				return nil
			})
		},
	}
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Show or hide the picker, as the hotkey does",
		Long: `Does what the global hotkey does. Bind this to a key in your desktop
environment where global hotkeys are unavailable (e.g. Wayland).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *rpc.Client) error {
				return c.Toggle(ctx)
			})
		},
	}
}
