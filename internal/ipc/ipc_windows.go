//go:build windows

package ipc

import (
	"context"
	"errors"
	"net"

	"github.com/Microsoft/go-winio"
)

// ErrInUse means another daemon is already serving the pipe.
var ErrInUse = errors.New("ipc: pipe in use by a running daemon")

const pipeName = `\\.\pipe\stash`

func socketPath() string { return pipeName }

func listenIPC(path string) (net.Listener, error) {
	// Restrict the pipe to the current user (owner + SYSTEM).
	cfg := &winio.PipeConfig{SecurityDescriptor: "D:P(A;;GA;;;OW)(A;;GA;;;SY)"}
	ln, err := winio.ListenPipe(path, cfg)
	if err != nil {
		if c, derr := winio.DialPipe(path, nil); derr == nil {
			_ = c.Close()
			return nil, ErrInUse
		}
		return nil, err
	}
	return ln, nil
}

func dialIPC(ctx context.Context, path string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, path)
}
