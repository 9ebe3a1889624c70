package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/stash/internal/clip"
	"go.klb.dev/stash/internal/config"
	"go.klb.dev/stash/internal/engine"
	"go.klb.dev/stash/internal/ipc"
	"go.klb.dev/stash/internal/panel"
	"go.klb.dev/stash/internal/poller"
	"go.klb.dev/stash/internal/recall"
	"go.klb.dev/stash/internal/rpc"
	"go.klb.dev/stash/internal/trigger"
)

const shutdownTimeout = 5 * time.Second

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the clipboard history daemon in the foreground",
		Long: `Starts the stash daemon: watches the system clipboard, records every
change, registers the picker hotkey and serves the local control socket.

History lives in memory only and is gone when the daemon exits.

Config file search order:
  /etc/stash/stash.toml
  $HOME/.config/stash/stash.toml
  path supplied via --config

The config file is watched; limits, hotkey, delays and clipboard
preference are applied without a restart.

Precedence (lowest → highest): defaults → config file → STASH_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runDaemon(cmd.Context(), v) },
	}

	f := cmd.Flags()
	f.String(config.KeyItemSizeLimit, "unlimited", `largest entry kept, e.g. "256KiB" or "unlimited"`)
	f.String(config.KeyTotalSizeLimit, "unlimited", `total history size, e.g. "10MB" or "unlimited"`)
	f.String(config.KeyHotkey, trigger.DefaultCombo(), "picker hotkey, e.g. ctrl+shift+v")
	f.Duration(config.KeyPollInterval, poller.DefaultInterval, "clipboard poll interval")
	f.Duration(config.KeyPasteDelay, recall.DefaultPasteDelay, "delay between recall and the simulated paste")
	f.Duration(config.KeyResumeDelay, recall.DefaultResumeDelay, "delay before capture resumes after a recall")
	f.String(config.KeyPrefer, poller.PreferText.String(), "kind recorded when the clipboard holds both text and an image: text|image")
	f.Bool(config.KeyNoPaste, false, "recall only restores the clipboard; never simulate a paste")
	f.StringSlice(config.KeyPicker, nil, `command that shows the picker, e.g. "kitty,--class,stash,stash,pick"`)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runDaemon(parent context.Context, v *viper.Viper) error {
	setupLogging(v)
	config.SetDefaults(v)

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	ln, err := ipc.Listen()
	if errors.Is(err, ipc.ErrInUse) {
		return fmt.Errorf("stash is already running (%s)", ipc.SocketPath())
	}
	if err != nil {
		return fmt.Errorf("listen %s: %w", ipc.SocketPath(), err)
	}

	board := clip.New()
	defer board.Close()

	// The picker reports back through eng, which needs the panel first.
	var eng *engine.Engine
	var pnl panel.Panel = &panel.Nop{}
	if len(cfg.Picker) > 0 {
		pnl, err = panel.NewExec(cfg.Picker, func() { eng.PickerClosed() })
		if err != nil {
			_ = ln.Close()
			return err
		}
	}
	eng = engine.New(board, cfg,
		engine.WithPanel(pnl),
		engine.WithBinder(trigger.NewSystem()),
	)

	slog.Info("stash starting",
		"version", Version,
		"socket", ipc.SocketPath(),
		"hotkey", cfg.Hotkey,
		"picker", cfg.Picker,
	)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := rpc.NewServer(rpc.NewService(eng, Version), eng.Metrics().Handler())
	if err != nil {
		_ = ln.Close()
		return err
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	config.Watch(v, func(c config.Config) {
		if err := eng.Reconfigure(ctx, c); err != nil {
			slog.Warn("reconfigure failed", "err", err)
		}
	})

	engDone := make(chan error, 1)
	go func() { engDone <- eng.Run(ctx) }()

	var engErr error
	engExited := false
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err = <-serveErr:
		slog.Error("control socket failed", "err", err)
	case engErr = <-engDone:
		engExited = true
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	srv.Shutdown(sctx)
	eng.Stop()
	if !engExited {
		engErr = <-engDone
	}
	return errors.Join(err, engErr)
}
