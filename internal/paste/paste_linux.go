//go:build linux

package paste

import (
	"fmt"
	"os"
	"os/exec"
)

// command pastes by running an external key-injection tool.
type command struct {
	name string
	argv []string
}

// New picks wtype on Wayland sessions and xdotool otherwise, falling back to
// whichever of the two is installed.
func New() Simulator {
	candidates := []command{
		{name: "xdotool", argv: []string{"xdotool", "key", "--clearmodifiers", "ctrl+v"}},
		{name: "wtype", argv: []string{"wtype", "-M", "ctrl", "v", "-m", "ctrl"}},
	}
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		candidates[0], candidates[1] = candidates[1], candidates[0]
	}
	for _, c := range candidates {
		if path, err := exec.LookPath(c.argv[0]); err == nil {
			c.argv[0] = path
			return c
		}
	}
	return Unavailable{Reason: "neither xdotool nor wtype is installed"}
}

func (c command) Name() string { return c.name }

func (c command) Simulate() error {
	out, err := exec.Command(c.argv[0], c.argv[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", c.name, err, out)
	}
	return nil
}
