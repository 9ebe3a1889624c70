package history

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// MaxEntries caps the number of retained entries regardless of size limits.
const MaxEntries = 100

// RejectReason explains why Capture stored nothing.
type RejectReason uint8

const (
	NotRejected RejectReason = iota
	RejectEmpty
	RejectTooLarge
)

func (r RejectReason) String() string {
	switch r {
	case RejectEmpty:
		return "empty"
	case RejectTooLarge:
		return "too_large"
	default:
		return "none"
	}
}

// RemovalReason explains why an entry left the store.
type RemovalReason uint8

const (
	RemovedDuplicate RemovalReason = iota + 1
	RemovedCount
	RemovedSize
	RemovedDeleted
	RemovedCleared
)

func (r RemovalReason) String() string {
	switch r {
	case RemovedDuplicate:
		return "duplicate"
	case RemovedCount:
		return "count"
	case RemovedSize:
		return "size"
	case RemovedDeleted:
		return "deleted"
	case RemovedCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Removal records an entry dropped as a side effect of an operation.
type Removal struct {
	Entry  Entry
	Reason RemovalReason
}

// CaptureResult describes the outcome of Store.Capture.
type CaptureResult struct {
	Stored  bool
	Reason  RejectReason // set when Stored is false
	Entry   Entry        // the new entry when Stored
	Removed []Removal
}

// Observer is told about every store mutation. Implementations must not call
// back into the Store.
type Observer interface {
	Captured(e Entry)
	Rejected(c Content, reason RejectReason)
	Removed(r Removal)
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now for entry timestamps.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithIDs overrides the entry ID generator.
func WithIDs(next func() string) Option { return func(s *Store) { s.newID = next } }

// WithObserver registers an Observer.
func WithObserver(o Observer) Option { return func(s *Store) { s.obs = o } }

// Store is the ordered clipboard history, most recent entry first.
type Store struct {
	entries []Entry
	total   int64
	limits  Limits

	now   func() time.Time
	newID func() string
	obs   Observer
}

// New returns an empty store enforcing limits.
func New(limits Limits, opts ...Option) *Store {
	s := &Store{
		limits: limits,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Capture inserts c at the front of the history.
//
// Empty content and content over the per-item cap are rejected without
// touching the store. Text replaces any existing entry with the identical
// string. After insertion the count cap and then the aggregate cap are
// enforced by dropping the oldest entries; the aggregate pass always leaves
// at least the new entry, even when it alone exceeds the cap.
func (s *Store) Capture(c Content) CaptureResult {
	if c.Empty() {
		return s.reject(c, RejectEmpty)
	}
	size := c.Size()
	if s.limits.Item.Exceeded(size) {
		return s.reject(c, RejectTooLarge)
	}

	var removed []Removal
	if text, ok := c.Text(); ok {
		s.entries = slices.DeleteFunc(s.entries, func(e Entry) bool {
			if existing, ok := e.Content.Text(); ok && existing == text {
				s.total -= e.Size()
				removed = append(removed, Removal{Entry: e, Reason: RemovedDuplicate})
				return true
			}
			return false
		})
	}

	e := Entry{ID: s.newID(), Content: c, Timestamp: s.now()}
	s.entries = slices.Insert(s.entries, 0, e)
	s.total += size

	for len(s.entries) > MaxEntries {
		removed = append(removed, s.dropOldest(RemovedCount))
	}
	removed = append(removed, s.enforceTotal()...)

	if s.obs != nil {
		// The replaced duplicate goes first, evictions caused by the new
		// entry after it.
		for _, r := range removed {
			if r.Reason == RemovedDuplicate {
				s.obs.Removed(r)
			}
		}
		s.obs.Captured(e)
		for _, r := range removed {
			if r.Reason != RemovedDuplicate {
				s.obs.Removed(r)
			}
		}
	}
	return CaptureResult{Stored: true, Entry: e, Removed: removed}
}

func (s *Store) reject(c Content, reason RejectReason) CaptureResult {
	if s.obs != nil {
		s.obs.Rejected(c, reason)
	}
	return CaptureResult{Reason: reason}
}

func (s *Store) dropOldest(reason RemovalReason) Removal {
	last := len(s.entries) - 1
	e := s.entries[last]
	s.entries[last] = Entry{}
	s.entries = s.entries[:last]
	s.total -= e.Size()
	return Removal{Entry: e, Reason: reason}
}

func (s *Store) enforceTotal() []Removal {
	var removed []Removal
	for len(s.entries) > 1 && s.limits.Total.Exceeded(s.total) {
		removed = append(removed, s.dropOldest(RemovedSize))
	}
	return removed
}

// Delete removes the entry with id. It reports false if there was none.
func (s *Store) Delete(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	e := s.entries[i]
	s.entries = slices.Delete(s.entries, i, i+1)
	s.total -= e.Size()
	if s.obs != nil {
		s.obs.Removed(Removal{Entry: e, Reason: RemovedDeleted})
	}
	return true
}

// Clear empties the store and returns how many entries were dropped.
func (s *Store) Clear() int {
	n := len(s.entries)
	if s.obs != nil {
		for _, e := range s.entries {
			s.obs.Removed(Removal{Entry: e, Reason: RemovedCleared})
		}
	}
	s.entries = nil
	s.total = 0
	return n
}

// Query returns the entries whose Label contains search, ignoring case, in
// history order. An empty search returns every entry. The returned slice is
// a copy.
func (s *Store) Query(search string) []Entry {
	if search == "" {
		return slices.Clone(s.entries)
	}
	fold := cases.Fold()
	needle := fold.String(search)
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if containsFolded(fold, e.Label(), needle) {
			out = append(out, e)
		}
	}
	return out
}

// Matches reports whether e would be included in Query(search).
func Matches(e Entry, search string) bool {
	if search == "" {
		return true
	}
	fold := cases.Fold()
	return containsFolded(fold, e.Label(), fold.String(search))
}

func containsFolded(fold cases.Caser, haystack, needle string) bool {
	return strings.Contains(fold.String(haystack), needle)
}

// Get returns the entry with id.
func (s *Store) Get(id string) (Entry, bool) {
	if i := s.index(id); i >= 0 {
		return s.entries[i], true
	}
	return Entry{}, false
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.entries, func(e Entry) bool { return e.ID == id })
}

// Len returns the number of retained entries.
func (s *Store) Len() int { return len(s.entries) }

// TotalSize returns the summed size of all retained entries.
func (s *Store) TotalSize() int64 { return s.total }

// Limits returns the caps currently in force.
func (s *Store) Limits() Limits { return s.limits }

// SetLimits replaces the caps. A lowered aggregate cap is enforced at once
// (oldest first, keeping at least one entry); a lowered per-item cap only
// affects future captures.
func (s *Store) SetLimits(l Limits) []Removal {
	s.limits = l
	removed := s.enforceTotal()
	if s.obs != nil {
		for _, r := range removed {
			s.obs.Removed(r)
		}
	}
	return removed
}
