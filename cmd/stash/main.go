// stash: clipboard history daemon with a hotkey picker.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.design/x/hotkey/mainthread"

	"go.klb.dev/stash/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	code := 0
	// macOS delivers hotkey events only to the main thread, so cobra runs on
	// a second goroutine while mainthread services the first.
	mainthread.Init(func() { code = execute() })
	os.Exit(code)
}

func execute() int {
	root := &cobra.Command{
		Use:   "stash",
		Short: "Clipboard history with a hotkey picker",
		Long: `stash records everything copied to the system clipboard and lets you
bring any earlier entry back with a global hotkey.

Run "stash run" to start the daemon. The other commands talk to it over
a local socket ($STASH_SOCKET overrides the path).

Config file search order (first found wins):
  /etc/stash/stash.toml
  $HOME/.config/stash/stash.toml
  path supplied via --config

All flags can be set via config-file keys or STASH_<FLAG> env vars, with
dashes as underscores (STASH_ITEM_SIZE_LIMIT).
See "stash run --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newListCmd(),
		newPickCmd(),
		newRecallCmd(),
		newDeleteCmd(),
		newClearCmd(),
		newCopyCmd(),
		newPasteCmd(),
		newToggleCmd(),
		newWatchCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stash %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		if interactive {
			level = logging.ParseLevel("debug")
		} else {
			level = logging.ParseLevel("info")
		}
	}
	logging.Setup(format, level)
}
