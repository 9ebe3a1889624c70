// Package panel presents the history picker. The daemon owns the selection
// state; a panel only has to put something on screen that drives it (a
// terminal running `stash pick`) and take it away again.
package panel

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
)

// Panel shows and hides the picker.
type Panel interface {
	Show() error
	Hide()
	Visible() bool
}

// Nop is used when no picker command is configured. It tracks visibility so
// that remote pickers polling the daemon still see a consistent state.
type Nop struct {
	mu      sync.Mutex
	visible bool
}

func (n *Nop) Show() error {
	n.mu.Lock()
	n.visible = true
	n.mu.Unlock()
	return nil
}

func (n *Nop) Hide() {
	n.mu.Lock()
	n.visible = false
	n.mu.Unlock()
}

func (n *Nop) Visible() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.visible
}

// Exec runs a picker command while the panel is visible.
type Exec struct {
	argv   []string
	onExit func()

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewExec returns a panel that starts argv on Show. onExit, if set, runs
// after the process ends on its own (the user closed the window), not after
// Hide.
func NewExec(argv []string, onExit func()) (*Exec, error) {
	if len(argv) == 0 {
		return nil, errors.New("panel: empty picker command")
	}
	return &Exec{argv: argv, onExit: onExit}, nil
}

// Show starts the picker unless it is already running.
func (p *Exec) Show() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil {
		return nil
	}

	cmd := exec.Command(p.argv[0], p.argv[1:]...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start picker %s: %w", p.argv[0], err)
	}
	p.cmd = cmd
	slog.Debug("picker started", "cmd", p.argv[0], "pid", cmd.Process.Pid)

	go p.wait(cmd)
	return nil
}

func (p *Exec) wait(cmd *exec.Cmd) {
	err := cmd.Wait()

	p.mu.Lock()
	own := p.cmd == cmd
	if own {
		p.cmd = nil
	}
	p.mu.Unlock()

	if !own {
		// Hide already took it down.
		return
	}
	if err != nil {
		slog.Debug("picker exited", "err", err)
	}
	if p.onExit != nil {
		p.onExit()
	}
}

// Hide terminates the picker if it is running.
func (p *Exec) Hide() {
	p.mu.Lock()
	cmd := p.cmd
	p.cmd = nil
	p.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		slog.Warn("stop picker failed", "pid", cmd.Process.Pid, "err", err)
	}
}

// Visible reports whether the picker process is running.
func (p *Exec) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd != nil
}
