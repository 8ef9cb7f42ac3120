package display

import (
	"sort"
	"sync"

	"github.com/quakeline/quakeline/internal/event"
	"github.com/quakeline/quakeline/internal/logging"
)

// DefaultCapacity bounds a buffer when no capacity is configured.
const DefaultCapacity = 20

// Buffer is a bounded, priority-ordered collection of messages with at
// most one live entry per source. Entries sort by (source priority,
// insertion order), stable across replacements, and the buffer tracks
// the currently displayed entry by its ID so round-robin survives
// concurrent re-sorts.
type Buffer struct {
	mu        sync.Mutex
	capacity  int
	entries   []*Message
	order     map[string]uint64 // message ID -> insertion token
	nextOrder uint64
	currentID string // displayed message, "" when none
}

// NewBuffer creates a buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		order:    make(map[string]uint64),
	}
}

// Len returns the number of live entries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Messages returns a copy of the entries in display order.
func (b *Buffer) Messages() []*Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Message, len(b.entries))
	copy(out, b.entries)
	return out
}

// First returns the top-priority entry, or nil when empty.
func (b *Buffer) First() *Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) == 0 {
		return nil
	}
	return b.entries[0]
}

// Current returns the currently displayed entry, or nil when the
// pointer is unset or the entry has since been removed.
func (b *Buffer) Current() *Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.findByIDLocked(b.currentID)
}

// SetCurrent marks the entry with the given ID as displayed.
func (b *Buffer) SetCurrent(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.currentID = id
}

// ResetCursor clears the displayed pointer so the next GetNext call
// restarts from the top of the priority order.
func (b *Buffer) ResetCursor() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.currentID = ""
}

// GetNext returns the entry following the currently displayed one,
// wrapping to the top of the priority order at the end or whenever the
// displayed entry can no longer be located. Returns nil when empty.
// The displayed pointer is not moved; callers mark the entry current
// once the sink actually shows it.
func (b *Buffer) GetNext() *Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) == 0 {
		return nil
	}
	idx := b.indexOfLocked(b.currentID)
	if idx < 0 {
		return b.entries[0]
	}
	return b.entries[(idx+1)%len(b.entries)]
}

// ReplaceOrAdd inserts msg, replacing an existing entry describing the
// same event in place. The replacement inherits the old entry's
// insertion token, first-display time, and displayed status, so sort
// order and round-robin position are unchanged. Reports whether an
// existing entry was replaced.
func (b *Buffer) ReplaceOrAdd(msg *Message) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	replaced := b.replaceOrAddLocked(msg)
	b.sortLocked()
	return replaced
}

// BatchReplaceOrAdd inserts a batch with one re-sort at the end.
// Within the batch, later messages for the same (source, event) win.
func (b *Buffer) BatchReplaceOrAdd(msgs []*Message) {
	if len(msgs) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, msg := range dedupeByEvent(msgs) {
		b.replaceOrAddLocked(msg)
	}
	b.sortLocked()
}

// ReplaceBySource inserts msg, replacing whatever entry its source
// currently owns regardless of event identity. Reports whether an
// existing entry was replaced.
func (b *Buffer) ReplaceBySource(msg *Message) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	replaced := b.replaceBySourceLocked(msg)
	b.sortLocked()
	return replaced
}

// BatchReplaceBySource applies per-source replacement for a batch with
// one re-sort at the end. Within the batch only the newest message per
// source survives.
func (b *Buffer) BatchReplaceBySource(msgs []*Message) {
	if len(msgs) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, msg := range latestPerSource(msgs) {
		b.replaceBySourceLocked(msg)
	}
	b.sortLocked()
}

// FindBySource returns the live entry for a source, or nil.
func (b *Buffer) FindBySource(source string) *Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.entries {
		if m.Source == source {
			return m
		}
	}
	return nil
}

// FindByEventID returns the live entry matching (source, eventID), or nil.
func (b *Buffer) FindByEventID(source, eventID string) *Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.entries {
		if m.Source == source && m.EventID == eventID {
			return m
		}
	}
	return nil
}

// RemoveByEventID removes every entry matching (source, eventID).
// Returns the removal count and whether the displayed entry was among
// them; when it was, the displayed pointer is cleared so the next
// GetNext restarts from the top.
func (b *Buffer) RemoveByEventID(source, eventID string) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	removedDisplayed := false
	kept := b.entries[:0]
	for _, m := range b.entries {
		if m.Source == source && m.EventID == eventID {
			if m.ID == b.currentID {
				removedDisplayed = true
			}
			delete(b.order, m.ID)
			removed++
			continue
		}
		kept = append(kept, m)
	}
	b.entries = kept
	if removedDisplayed {
		b.currentID = ""
	}
	if removed > 0 {
		b.sortLocked()
	}
	return removed, removedDisplayed
}

// Sweep drops every entry the predicate rejects. Returns the removal
// count and whether the displayed entry was dropped; when it was, the
// displayed pointer is cleared.
func (b *Buffer) Sweep(isValid func(*Message) bool) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	removedDisplayed := false
	kept := b.entries[:0]
	for _, m := range b.entries {
		if isValid(m) {
			kept = append(kept, m)
			continue
		}
		if m.ID == b.currentID {
			removedDisplayed = true
		}
		delete(b.order, m.ID)
		removed++
		logging.Debug("expired entry swept", "source", m.Source, "event_id", m.EventID)
	}
	b.entries = kept
	if removedDisplayed {
		b.currentID = ""
	}
	return removed, removedDisplayed
}

// replaceOrAddLocked replaces the entry describing the same event, or
// appends. Callers hold the lock and sort afterwards.
func (b *Buffer) replaceOrAddLocked(msg *Message) bool {
	for i, m := range b.entries {
		if SameEvent(m, msg) {
			b.adoptLocked(msg, m, true)
			b.entries[i] = msg
			return true
		}
	}
	b.appendLocked(msg)
	return false
}

// replaceBySourceLocked replaces the entry owned by msg's source, or
// appends. Weather entries keep their image when the update has none.
func (b *Buffer) replaceBySourceLocked(msg *Message) bool {
	for i, m := range b.entries {
		if m.Source == msg.Source {
			if msg.ImageRef == "" && m.ImageRef != "" && msg.Type == event.Weather {
				msg.ImageRef = m.ImageRef
			}
			b.adoptLocked(msg, m, SameEvent(m, msg))
			b.entries[i] = msg
			return true
		}
	}
	b.appendLocked(msg)
	return false
}

// adoptLocked transfers the old entry's bookkeeping onto its
// replacement: insertion token, displayed pointer, and (only when the
// two describe the same event) the first-display time.
func (b *Buffer) adoptLocked(msg, old *Message, sameEvent bool) {
	b.order[msg.ID] = b.order[old.ID]
	delete(b.order, old.ID)
	if b.currentID == old.ID {
		b.currentID = msg.ID
	}
	if sameEvent && msg.FirstDisplayedAt == nil {
		msg.FirstDisplayedAt = old.FirstDisplayedAt
	}
}

// appendLocked adds a new entry, evicting the oldest arrival when full.
func (b *Buffer) appendLocked(msg *Message) {
	if len(b.entries) >= b.capacity {
		b.evictOldestLocked()
	}
	b.order[msg.ID] = b.nextOrder
	b.nextOrder++
	b.entries = append(b.entries, msg)
}

// evictOldestLocked drops the entry with the smallest insertion token.
func (b *Buffer) evictOldestLocked() {
	if len(b.entries) == 0 {
		return
	}
	oldest := 0
	for i := 1; i < len(b.entries); i++ {
		if b.order[b.entries[i].ID] < b.order[b.entries[oldest].ID] {
			oldest = i
		}
	}
	victim := b.entries[oldest]
	if victim.ID == b.currentID {
		b.currentID = ""
	}
	delete(b.order, victim.ID)
	b.entries = append(b.entries[:oldest], b.entries[oldest+1:]...)
	logging.Debug("buffer full, evicted oldest", "source", victim.Source, "event_id", victim.EventID)
}

func (b *Buffer) sortLocked() {
	sort.SliceStable(b.entries, func(i, j int) bool {
		pi := event.SourcePriority(b.entries[i].Source)
		pj := event.SourcePriority(b.entries[j].Source)
		if pi != pj {
			return pi < pj
		}
		return b.order[b.entries[i].ID] < b.order[b.entries[j].ID]
	})
}

func (b *Buffer) findByIDLocked(id string) *Message {
	if id == "" {
		return nil
	}
	for _, m := range b.entries {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (b *Buffer) indexOfLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, m := range b.entries {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// dedupeByEvent keeps the last message per (source, event ID) within a
// batch, preserving first-seen order. Messages without an event ID are
// never coalesced here; the buffer's identity matching handles them.
func dedupeByEvent(msgs []*Message) []*Message {
	type key struct{ source, eventID string }
	seen := make(map[key]int)
	out := make([]*Message, 0, len(msgs))
	for _, m := range msgs {
		if m.EventID == "" {
			out = append(out, m)
			continue
		}
		k := key{m.Source, m.EventID}
		if i, ok := seen[k]; ok {
			out[i] = m
			continue
		}
		seen[k] = len(out)
		out = append(out, m)
	}
	return out
}

// latestPerSource keeps the newest message per source within a batch,
// carrying an earlier message's image onto the survivor when the
// survivor has none.
func latestPerSource(msgs []*Message) []*Message {
	seen := make(map[string]int)
	out := make([]*Message, 0, len(msgs))
	for _, m := range msgs {
		i, ok := seen[m.Source]
		if !ok {
			seen[m.Source] = len(out)
			out = append(out, m)
			continue
		}
		if !m.CreatedAt.Before(out[i].CreatedAt) {
			if m.ImageRef == "" && out[i].ImageRef != "" {
				m.ImageRef = out[i].ImageRef
			}
			out[i] = m
		}
	}
	return out
}
