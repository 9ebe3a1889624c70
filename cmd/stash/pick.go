package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/stash/internal/ipc"
	"go.klb.dev/stash/internal/logging"
	"go.klb.dev/stash/internal/rpc"
	"go.klb.dev/stash/internal/tui"
)

func newPickCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Open the history picker in this terminal",
		Long: `Shows the daemon's picker in the current terminal. Type to filter,
arrows to move, enter to recall and paste the highlighted entry, ctrl+d to
delete it, esc to close.

This is the command a "picker" setting usually launches inside a terminal
window, e.g.:

  picker = ["kitty", "--class", "stash", "stash", "pick"]

It can also be run directly; the daemon's hotkey then closes it.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runPick(v) },
	}

	f := cmd.Flags()
	f.Duration("refresh", 0, "how often to re-fetch the list while open (default 1s)")
	f.String("log-file", "", "write logs here; the terminal belongs to the picker")
	f.String("log-format", "json", "log format: auto|text|json")
	f.String("log-level", "info", "log level: debug|info|warn|error")
	addConfigFlag(cmd)

	return cmd
}

func runPick(v *viper.Viper) error {
	closer, err := logging.SetupFile(v.GetString("log-file"),
		logging.ParseFormat(v.GetString("log-format")), logging.ParseLevel(v.GetString("log-level")))
	if err != nil {
		return fmt.Errorf("log file: %w", err)
	}
	defer closer.Close()

	if !ipc.IsRunning() {
		return errNotRunning
	}
	conn, err := rpc.Dial()
	if err != nil {
		return fmt.Errorf("dial %s: %w", ipc.SocketPath(), err)
	}
	defer conn.Close()

	m := tui.New(rpc.NewClient(conn), tui.WithRefresh(v.GetDuration("refresh")))
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("picker: %w", err)
	}
	if fm, ok := final.(tui.Model); ok && fm.Err() != nil {
		return fm.Err()
	}
	return nil
}
