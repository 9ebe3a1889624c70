// Package history holds the clipboard history: a bounded, most-recent-first
// list of captured entries with exact-match text deduplication and two size
// limits (per item and aggregate).
//
// A Store is owned by a single goroutine. It does no locking of its own; the
// engine serialises every call through its event loop.
package history

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies which variant a Content holds.
type Kind uint8

const (
	KindText Kind = iota + 1
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// ParseKind maps "text" or "image" back to its Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "text":
		return KindText, nil
	case "image":
		return KindImage, nil
	default:
		return 0, fmt.Errorf("unknown content kind %q", s)
	}
}

// MIME types used when content crosses the clipboard or RPC boundary.
const (
	MIMEText  = "text/plain"
	MIMEImage = "image/png"
)

// ImageLabel is what an image entry is displayed and searched as.
const ImageLabel = "[Image]"

// Content is a clipboard payload: plain text or a PNG-encoded image.
// The zero value is empty and is never stored.
type Content struct {
	kind  Kind
	text  string
	image []byte
}

// Text returns text content.
func Text(s string) Content { return Content{kind: KindText, text: s} }

// Image returns image content from encoded bitmap bytes.
func Image(png []byte) Content { return Content{kind: KindImage, image: png} }

// FromMIME builds content from a MIME-tagged payload, reporting false for
// types other than text/plain and image/png.
func FromMIME(mime string, data []byte) (Content, bool) {
	switch mime {
	case MIMEText:
		return Text(string(data)), true
	case MIMEImage:
		return Image(data), true
	default:
		return Content{}, false
	}
}

func (c Content) Kind() Kind { return c.kind }

// Text returns the string payload and whether c is text.
func (c Content) Text() (string, bool) { return c.text, c.kind == KindText }

// Image returns the encoded image payload and whether c is an image.
func (c Content) Image() ([]byte, bool) { return c.image, c.kind == KindImage }

// Size is the UTF-8 length of text or the encoded length of an image.
func (c Content) Size() int64 {
	switch c.kind {
	case KindText:
		return int64(len(c.text))
	case KindImage:
		return int64(len(c.image))
	default:
		return 0
	}
}

// Empty reports whether there is nothing worth capturing.
func (c Content) Empty() bool { return c.Size() == 0 }

// MIME returns the payload's MIME type.
func (c Content) MIME() string {
	if c.kind == KindImage {
		return MIMEImage
	}
	return MIMEText
}

// Bytes returns the raw payload.
func (c Content) Bytes() []byte {
	if c.kind == KindImage {
		return c.image
	}
	return []byte(c.text)
}

// Entry is one retained clipboard capture.
type Entry struct {
	ID        string
	Content   Content
	Timestamp time.Time
}

func (e Entry) Size() int64 { return e.Content.Size() }

// Label is the string the search filter matches against: the raw text, or
// ImageLabel for images.
func (e Entry) Label() string {
	if s, ok := e.Content.Text(); ok {
		return s
	}
	return ImageLabel
}

// Display is the single-line-friendly form shown in lists: text with
// surrounding whitespace trimmed, or ImageLabel.
func (e Entry) Display() string {
	if s, ok := e.Content.Text(); ok {
		return strings.TrimSpace(s)
	}
	return ImageLabel
}
