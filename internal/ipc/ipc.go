// Package ipc locates and opens the local socket the stash daemon serves its
// RPC API on: a Unix domain socket, or a named pipe on Windows.
package ipc

import (
	"context"
	"net"
	"os"
	"time"
)

// EnvSocket overrides the socket path.
const EnvSocket = "STASH_SOCKET"

// SocketPath returns the platform-appropriate path for the IPC socket.
//
//   - $STASH_SOCKET when set
//   - Linux:   $XDG_RUNTIME_DIR/stash.sock, else $TMPDIR/stash.sock
//   - macOS:   $TMPDIR/stash.sock
//   - Windows: \\.\pipe\stash
func SocketPath() string {
	if s := os.Getenv(EnvSocket); s != "" {
		return s
	}
	return socketPath()
}

// Listen opens the IPC socket for serving.
func Listen() (net.Listener, error) {
	return listenIPC(SocketPath())
}

// Dial connects to the daemon's socket.
func Dial() (net.Conn, error) {
	return DialContext(context.Background())
}

// DialContext connects to the daemon's socket, giving up when ctx ends.
func DialContext(ctx context.Context) (net.Conn, error) {
	return dialIPC(ctx, SocketPath())
}

// IsRunning reports whether a daemon appears to be listening. It does a
// cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c, err := DialContext(ctx)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}
