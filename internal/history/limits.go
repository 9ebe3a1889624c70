package history

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// SizeLimit is a byte cap that is either finite or unlimited.
// The zero value is unlimited.
type SizeLimit struct {
	n       int64
	limited bool
}

// Unlimited returns a limit that never rejects.
func Unlimited() SizeLimit { return SizeLimit{} }

// Bytes returns a finite limit of n bytes. Non-positive n is unlimited.
func Bytes(n int64) SizeLimit {
	if n <= 0 {
		return SizeLimit{}
	}
	return SizeLimit{n: n, limited: true}
}

// Limited returns the cap and whether it is finite.
func (l SizeLimit) Limited() (int64, bool) { return l.n, l.limited }

// Exceeded reports whether size is over a finite cap.
func (l SizeLimit) Exceeded(size int64) bool { return l.limited && size > l.n }

func (l SizeLimit) String() string {
	if !l.limited {
		return "unlimited"
	}
	return humanize.IBytes(uint64(l.n))
}

// ParseSizeLimit accepts "unlimited" (or "none", "", "0") and any size
// understood by go-humanize: "256KiB", "1 MiB", "10MB", "4096".
func ParseSizeLimit(s string) (SizeLimit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unlimited", "none", "0":
		return Unlimited(), nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return SizeLimit{}, fmt.Errorf("size limit %q: %w", s, err)
	}
	if n > 1<<62 {
		return SizeLimit{}, fmt.Errorf("size limit %q: too large", s)
	}
	return Bytes(int64(n)), nil
}

// Limits are the two caps applied by a Store.
type Limits struct {
	// Item rejects any single capture larger than the cap.
	Item SizeLimit
	// Total bounds the summed size of all retained entries.
	Total SizeLimit
}
