package hub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"go.klb.dev/stash/internal/history"
)

type fakeWatcher struct {
	id    string
	kinds []history.Kind

	mu     sync.Mutex
	events []Event
}

func (w *fakeWatcher) ID() string { return w.id }
func (w *fakeWatcher) Info() Info { return Info{ID: w.id, Name: "test", Kinds: w.kinds} }

func (w *fakeWatcher) Send(ev Event) {
	w.mu.Lock()
	w.events = append(w.events, ev)
	w.mu.Unlock()
}

func (w *fakeWatcher) got() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Event(nil), w.events...)
}

type countListener struct{ totals []int }

func (l *countListener) OnWatcherChange(total int) { l.totals = append(l.totals, total) }

func entry(id string, c history.Content) history.Entry {
	return history.Entry{ID: id, Content: c}
}

func TestHub_FanOutRespectsKinds(t *testing.T) {
	h := New()
	all := &fakeWatcher{id: "all"}
	images := &fakeWatcher{id: "img", kinds: []history.Kind{history.KindImage}}
	h.Register(all)
	h.Register(images)

	h.Captured(entry("1", history.Text("hello")))
	h.Captured(entry("2", history.Image([]byte{1, 2, 3})))

	assert.Len(t, all.got(), 2)
	got := images.got()
	if assert.Len(t, got, 1) {
		assert.Equal(t, "2", got[0].Entry.ID)
		assert.Equal(t, EventCaptured, got[0].Type)
	}
}

func TestHub_RegisterReplaysLatest(t *testing.T) {
	h := New()
	h.Captured(entry("1", history.Text("old")))
	h.Captured(entry("2", history.Text("new")))

	w := &fakeWatcher{id: "late"}
	h.Register(w)

	got := w.got()
	if assert.Len(t, got, 1) {
		assert.True(t, got[0].Replay)
		assert.Equal(t, "2", got[0].Entry.ID)
	}

	images := &fakeWatcher{id: "img", kinds: []history.Kind{history.KindImage}}
	h.Register(images)
	assert.Empty(t, images.got())
}

func TestHub_RemovingLatestStopsReplay(t *testing.T) {
	h := New()
	h.Captured(entry("1", history.Text("gone")))
	h.Removed(history.Removal{Entry: entry("1", history.Text("gone")), Reason: history.RemovedCleared})

	w := &fakeWatcher{id: "w"}
	h.Register(w)
	assert.Empty(t, w.got())
}

func TestHub_DeletingLatestReplaysNextNewest(t *testing.T) {
	h := New()
	h.Captured(entry("1", history.Text("older")))
	h.Captured(entry("2", history.Image([]byte{1})))
	h.Captured(entry("3", history.Text("newest")))
	h.Removed(history.Removal{Entry: entry("3", history.Text("newest")), Reason: history.RemovedDeleted})

	w := &fakeWatcher{id: "w"}
	h.Register(w)
	if got := w.got(); assert.Len(t, got, 1) {
		assert.Equal(t, "2", got[0].Entry.ID)
	}

	texts := &fakeWatcher{id: "texts", kinds: []history.Kind{history.KindText}}
	h.Register(texts)
	if got := texts.got(); assert.Len(t, got, 1) {
		assert.Equal(t, "1", got[0].Entry.ID, "newest entry of an accepted kind")
	}
}

func TestHub_RemovalReason(t *testing.T) {
	h := New()
	w := &fakeWatcher{id: "w"}
	h.Register(w)

	h.Removed(history.Removal{Entry: entry("1", history.Text("x")), Reason: history.RemovedDeleted})
	h.Rejected(history.Text(""), history.RejectEmpty)

	got := w.got()
	if assert.Len(t, got, 1) {
		assert.Equal(t, EventRemoved, got[0].Type)
		assert.Equal(t, "deleted", got[0].Reason)
	}
}

func TestHub_ListenerAndUnregister(t *testing.T) {
	h := New()
	l := &countListener{}
	h.SetChangeListener(l)

	a, b := &fakeWatcher{id: "a"}, &fakeWatcher{id: "b"}
	h.Register(a)
	h.Register(b)
	h.Unregister(a)

	assert.Equal(t, []int{1, 2, 1}, l.totals)
	infos := h.Watchers()
	if assert.Len(t, infos, 1) {
		assert.Equal(t, "b", infos[0].ID)
	}

	h.Captured(entry("1", history.Text("only b")))
	assert.Empty(t, a.got())
	assert.Len(t, b.got(), 1)
}
