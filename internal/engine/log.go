package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"

	"go.klb.dev/stash/internal/history"
)

const previewLen = 120

// logObserver logs history events at INFO (kind, size) and DEBUG (a text
// preview up to 120 characters).
type logObserver struct{}

func (logObserver) Captured(e history.Entry) {
	slog.Info("clipboard captured", "id", e.ID, "kind", e.Content.Kind(), "size", humanize.IBytes(uint64(e.Size())))

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	if text, ok := e.Content.Text(); ok {
		slog.Debug("clipboard item", "id", e.ID, "preview", preview(text))
	}
}

func (logObserver) Rejected(c history.Content, reason history.RejectReason) {
	slog.Debug("clipboard change ignored", "kind", c.Kind(), "size", c.Size(), "reason", reason)
}

func (logObserver) Removed(r history.Removal) {
	slog.Debug("entry removed", "id", r.Entry.ID, "reason", r.Reason)
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > previewLen {
		return string(r[:previewLen]) + "…"
	}
	return s
}

// observers fans history events out to several observers.
type observers []history.Observer

func (o observers) Captured(e history.Entry) {
	for _, x := range o {
		x.Captured(e)
	}
}

func (o observers) Rejected(c history.Content, reason history.RejectReason) {
	for _, x := range o {
		x.Rejected(c, reason)
	}
}

func (o observers) Removed(r history.Removal) {
	for _, x := range o {
		x.Removed(r)
	}
}
