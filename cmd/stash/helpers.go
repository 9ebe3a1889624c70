package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.klb.dev/stash/internal/ipc"
	"go.klb.dev/stash/internal/rpc"
)

const callTimeout = 10 * time.Second

var errNotRunning = errors.New(`stash is not running; start it with "stash run"`)

// withClient dials the local daemon and runs fn with a bounded context.
func withClient(parent context.Context, fn func(context.Context, *rpc.Client) error) error {
	if !ipc.IsRunning() {
		return errNotRunning
	}
	conn, err := rpc.Dial()
	if err != nil {
		return fmt.Errorf("dial %s: %w", ipc.SocketPath(), err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(parent, callTimeout)
	defer cancel()
	return fn(ctx, rpc.NewClient(conn))
}

// oneLine flattens s for tabular output and cuts it to n runes.
func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
