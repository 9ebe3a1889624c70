package rpc

import (
	"time"

	"go.klb.dev/stash/internal/engine"
	"go.klb.dev/stash/internal/history"
	"go.klb.dev/stash/internal/selection"
)

// Entry is the wire form of a history entry. Image bytes are base64 in JSON
// and omitted from summaries.
type Entry struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text,omitempty"`
	Image     []byte    `json:"image,omitempty"`
	Size      int64     `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

// Content rebuilds the history content carried by e.
func (e Entry) Content() history.Content {
	if e.Kind == history.KindImage.String() {
		return history.Image(e.Image)
	}
	return history.Text(e.Text)
}

// Display is the one-line label used by list views.
func (e Entry) Display() string {
	return history.Entry{Content: e.Content()}.Display()
}

func toEntry(e history.Entry, withImage bool) Entry {
	out := Entry{
		ID:        e.ID,
		Kind:      e.Content.Kind().String(),
		Size:      e.Size(),
		Timestamp: e.Timestamp,
	}
	if text, ok := e.Content.Text(); ok {
		out.Text = text
	} else if img, ok := e.Content.Image(); ok && withImage {
		out.Image = img
	}
	return out
}

func toEntries(in []history.Entry, withImage bool) []Entry {
	out := make([]Entry, len(in))
	for i, e := range in {
		out[i] = toEntry(e, withImage)
	}
	return out
}

type ListRequest struct {
	Search string `json:"search,omitempty"`
	// Limit caps the number of entries returned; 0 returns all.
	Limit int `json:"limit,omitempty"`
	// Summary omits image bytes.
	Summary bool `json:"summary,omitempty"`
}

type ListResponse struct {
	Entries []Entry `json:"entries"`
}

// RefRequest names an entry by id or by "#n" (1 = most recent).
type RefRequest struct {
	Ref string `json:"ref"`
}

type RecallRequest struct {
	Ref     string `json:"ref"`
	NoPaste bool   `json:"no_paste,omitempty"`
}

type ClearResponse struct {
	Removed int `json:"removed"`
}

type CopyRequest struct {
	MIME string `json:"mime"`
	Data []byte `json:"data"`
}

type SelectRequest struct {
	Op   string `json:"op"`
	Text string `json:"text,omitempty"`
}

// SelectResponse mirrors selection.View. Entries are summaries.
type SelectResponse struct {
	Entries  []Entry `json:"entries"`
	Selected int     `json:"selected"`
	Search   string  `json:"search"`
	Visible  bool    `json:"visible"`
}

func toSelectResponse(v selection.View) *SelectResponse {
	return &SelectResponse{
		Entries:  toEntries(v.Entries, false),
		Selected: v.Selected,
		Search:   v.Search,
		Visible:  v.Visible,
	}
}

type StatsResponse struct {
	Entries       int       `json:"entries"`
	TotalBytes    int64     `json:"total_bytes"`
	ItemLimit     string    `json:"item_limit"`
	TotalLimit    string    `json:"total_limit"`
	Hotkey        string    `json:"hotkey,omitempty"`
	Clipboard     string    `json:"clipboard"`
	Paste         string    `json:"paste"`
	Prefer        string    `json:"prefer"`
	Suppressed    bool      `json:"suppressed"`
	PickerVisible bool      `json:"picker_visible"`
	Watchers      int       `json:"watchers"`
	Started       time.Time `json:"started"`
	Version       string    `json:"version"`
}

func toStatsResponse(s engine.Stats, version string) *StatsResponse {
	return &StatsResponse{
		Entries:       s.Entries,
		TotalBytes:    s.TotalBytes,
		ItemLimit:     s.Limits.Item.String(),
		TotalLimit:    s.Limits.Total.String(),
		Hotkey:        s.Hotkey,
		Clipboard:     s.Clipboard,
		Paste:         s.Paste,
		Prefer:        s.Prefer,
		Suppressed:    s.Suppressed,
		PickerVisible: s.PickerVisible,
		Watchers:      s.Watchers,
		Started:       s.Started,
		Version:       version,
	}
}
