// Package display holds the renderable message model and the
// priority-ordered buffers the arbiter rotates through.
package display

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/quakeline/quakeline/internal/event"
)

// Identity fallback thresholds for sources that publish no event ID.
// Heuristic, tunable; not load-bearing.
const (
	identityWindow    = 30 * time.Second
	identityPrefixLen = 80
)

// Message is a renderable, stateful wrapper around an Event. It is
// owned by exactly one buffer at a time.
type Message struct {
	// ID is a stable opaque token used to re-locate this message
	// after sorts and replacements. Never derived from content.
	ID string

	Text     string
	Color    string
	Source   string
	EventID  string
	ShockTime string
	Type     event.Type
	ImageRef string

	CreatedAt time.Time

	// FirstDisplayedAt is set exactly once, the first time the
	// arbiter puts this message on screen. It anchors the
	// minimum-display-time guarantee.
	FirstDisplayedAt *time.Time

	// Event keeps the normalized payload for re-formatting.
	Event *event.Event
}

// NewMessage wraps a normalized event with its rendered form.
func NewMessage(ev *event.Event, text, color, imageRef string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Text:      text,
		Color:     color,
		Source:    ev.Source,
		EventID:   ev.EventID,
		ShockTime: ev.ShockTime,
		Type:      ev.Type,
		ImageRef:  imageRef,
		CreatedAt: time.Now(),
		Event:     ev,
	}
}

// MarkDisplayed records the first display time. Later calls are no-ops.
func (m *Message) MarkDisplayed(now time.Time) {
	if m.FirstDisplayedAt == nil {
		t := now
		m.FirstDisplayedAt = &t
	}
}

// SameEvent reports whether two messages describe the same physical
// occurrence. When both sides carry an event ID the IDs decide; when
// neither does, normalized text and timestamp proximity decide; a
// mismatch in ID presence is always a distinct event.
func SameEvent(a, b *Message) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Source != b.Source {
		return false
	}
	if a.EventID != "" && b.EventID != "" {
		return a.EventID == b.EventID
	}
	if a.EventID != "" || b.EventID != "" {
		return false
	}

	na, nb := NormalizeWarningText(a.Text), NormalizeWarningText(b.Text)
	if na != "" && na == nb {
		return true
	}
	if a.ShockTime != "" && a.ShockTime == b.ShockTime {
		return true
	}

	// Close in time and sharing a long normalized prefix: treat the
	// newer one as an update, not a new event.
	gap := a.CreatedAt.Sub(b.CreatedAt)
	if gap < 0 {
		gap = -gap
	}
	if gap < identityWindow {
		pa, pb := runePrefix(na, identityPrefixLen), runePrefix(nb, identityPrefixLen)
		if pa != "" && pa == pb {
			return true
		}
	}
	return false
}

var reportMarker = regexp.MustCompile(`第\s*\d+\s*报|最终报|\(?\s*Final Report\s*\)?`)

// NormalizeWarningText strips the per-update markers (report number,
// final-report tag), whitespace, and punctuation so successive updates
// of one event compare equal.
func NormalizeWarningText(s string) string {
	s = reportMarker.ReplaceAllString(s, "")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func runePrefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
