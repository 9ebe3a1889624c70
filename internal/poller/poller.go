// Package poller implements the clipboard change detector: on a fixed
// interval it compares the source's change token with the last one seen and,
// when it has advanced, routes the new clipboard content into the history.
package poller

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"go.klb.dev/stash/internal/clip"
	"go.klb.dev/stash/internal/history"
	"go.klb.dev/stash/internal/loop"
)

// DefaultInterval is how often the clipboard is checked.
const DefaultInterval = 500 * time.Millisecond

// Source is the read side of a clip.Backend.
type Source interface {
	ChangeToken() clip.Token
	ReadText() (string, bool)
	ReadImage() ([]byte, bool)
}

// Capturer receives content read from the clipboard.
type Capturer interface {
	Capture(c history.Content) history.CaptureResult
}

// Preference decides which representation wins when the clipboard offers
// both text and an image.
type Preference uint8

const (
	PreferText Preference = iota
	PreferImage
)

func (p Preference) String() string {
	if p == PreferImage {
		return "image"
	}
	return "text"
}

// ParsePreference accepts "text" or "image".
func ParsePreference(s string) (Preference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return PreferText, nil
	case "image":
		return PreferImage, nil
	default:
		return PreferText, fmt.Errorf("unknown preference %q (want text or image)", s)
	}
}

// Poller is driven by a loop.Scheduler. All methods except Suppressed must be
// called from the scheduler's goroutine.
type Poller struct {
	src      Source
	dst      Capturer
	sched    loop.Scheduler
	interval time.Duration
	prefer   Preference

	lastToken  clip.Token
	suppressed atomic.Bool

	running bool
	cancel  func()
	gen     uint64
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithPreference sets the text/image policy.
func WithPreference(pref Preference) Option { return func(p *Poller) { p.prefer = pref } }

// New returns a stopped Poller. The source's current token is taken as
// already seen, so whatever is on the clipboard at startup is not captured.
func New(src Source, dst Capturer, sched loop.Scheduler, opts ...Option) *Poller {
	p := &Poller{
		src:       src,
		dst:       dst,
		sched:     sched,
		interval:  DefaultInterval,
		lastToken: src.ChangeToken(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// SetPreference changes the text/image policy for subsequent ticks.
func (p *Poller) SetPreference(pref Preference) { p.prefer = pref }

// SetInterval changes the tick period. It takes effect from the next
// scheduled tick; non-positive values are ignored.
func (p *Poller) SetInterval(d time.Duration) {
	if d > 0 {
		p.interval = d
	}
}

// SetSuppressed turns self-capture suppression on or off. While on, token
// changes are consumed without reading the clipboard. Turning it off marks
// the current token as seen, so a change made inside the window is dropped
// even when no tick landed in it.
func (p *Poller) SetSuppressed(on bool) {
	if !on {
		p.lastToken = p.src.ChangeToken()
	}
	p.suppressed.Store(on)
}

// Suppressed reports whether suppression is on.
func (p *Poller) Suppressed() bool { return p.suppressed.Load() }

// Running reports whether ticks are scheduled.
func (p *Poller) Running() bool { return p.running }

// Start schedules periodic ticks. Starting a running poller is a no-op.
func (p *Poller) Start() {
	if p.running {
		return
	}
	p.running = true
	p.gen++
	p.schedule(p.gen)
}

// Stop cancels the pending tick. Safe to call repeatedly or before Start.
func (p *Poller) Stop() {
	if !p.running {
		return
	}
	p.running = false
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Poller) schedule(gen uint64) {
	p.cancel = p.sched.After(p.interval, func() {
		// A tick queued before Stop (or before a Stop/Start pair) is stale.
		if !p.running || gen != p.gen {
			return
		}
		p.Tick()
		p.schedule(gen)
	})
}

// Tick performs one check and returns the capture result, if any content
// was routed to the history.
func (p *Poller) Tick() (history.CaptureResult, bool) {
	tok := p.src.ChangeToken()
	if tok == p.lastToken {
		return history.CaptureResult{}, false
	}
	p.lastToken = tok

	if p.suppressed.Load() {
		slog.Debug("clipboard change suppressed", "token", tok)
		return history.CaptureResult{}, false
	}

	c, ok := p.read()
	if !ok {
		return history.CaptureResult{}, false
	}
	return p.dst.Capture(c), true
}

func (p *Poller) read() (history.Content, bool) {
	if p.prefer == PreferImage {
		if c, ok := p.readImage(); ok {
			return c, true
		}
		return p.readText()
	}
	if c, ok := p.readText(); ok {
		return c, true
	}
	return p.readImage()
}

func (p *Poller) readText() (history.Content, bool) {
	if s, ok := p.src.ReadText(); ok && s != "" {
		return history.Text(s), true
	}
	return history.Content{}, false
}

func (p *Poller) readImage() (history.Content, bool) {
	if img, ok := p.src.ReadImage(); ok && len(img) > 0 {
		return history.Image(img), true
	}
	return history.Content{}, false
}
