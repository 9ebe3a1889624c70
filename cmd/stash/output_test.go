package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go.klb.dev/stash/internal/rpc"
)

func TestOneLine(t *testing.T) {
	assert.Equal(t, "a b c", oneLine(" a\n\tb  c ", 10))
	assert.Equal(t, "abcd…", oneLine("abcdefgh", 5))
	assert.Equal(t, "日本…", oneLine("日本語です", 3))
}

func TestPrintEntries(t *testing.T) {
	var buf bytes.Buffer
	printEntries(&buf, nil)
	assert.Equal(t, "History is empty.\n", buf.String())

	buf.Reset()
	printEntries(&buf, []rpc.Entry{
		{ID: "id-2", Kind: "text", Text: "multi\nline", Size: 10, Timestamp: time.Now()},
		{ID: "id-1", Kind: "image", Size: 2048, Timestamp: time.Now().Add(-time.Hour)},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if assert.Len(t, lines, 3) {
		assert.Contains(t, lines[0], "CONTENT")
		assert.Contains(t, lines[1], "id-2")
		assert.Contains(t, lines[1], "multi line")
		assert.Contains(t, lines[2], "[Image]")
		assert.Contains(t, lines[2], "2.0 KiB")
		assert.Contains(t, lines[2], "1 hour ago")
	}
}

func TestPrintStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printStatus(&buf, &rpc.StatsResponse{
		Entries:    3,
		TotalBytes: 1536,
		ItemLimit:  "unlimited",
		TotalLimit: "10 MB",
		Clipboard:  "memory",
		Paste:      "disabled",
		Prefer:     "text",
		Suppressed: true,
		Started:    now.Add(-2 * time.Minute),
		Version:    "1.2.3",
	}, true, now)

	out := buf.String()
	assert.Contains(t, out, "1.2.3")
	assert.Contains(t, out, "serving")
	assert.Contains(t, out, "2 minutes ago")
	assert.Contains(t, out, "1.5 KiB")
	assert.Contains(t, out, `unavailable (use "stash toggle")`)
	assert.Contains(t, out, "paused")
	assert.NotContains(t, out, "Picker:")
}

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	printEvent(&buf, &rpc.WatchEvent{Type: "removed", Reason: "deleted", Entry: rpc.Entry{Kind: "text", Text: "bye", Size: 3}})
	assert.Contains(t, buf.String(), "removed (deleted)")
	assert.Contains(t, buf.String(), "bye")

	buf.Reset()
	printEvent(&buf, &rpc.WatchEvent{Type: "captured", Replay: true, Entry: rpc.Entry{Kind: "text", Text: "hi", Size: 2}})
	assert.Contains(t, buf.String(), "latest")
}
