// Package ticker renders the single-slot scrolling display line and
// reports scroll completions back to the arbiter.
package ticker

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// SetMessage replaces the line being scrolled.
type SetMessage struct {
	Text     string
	Color    string
	ImageRef string
}

// imageLoaded delivers an asynchronously loaded image resource.
type imageLoaded struct {
	Ref string
	Err error
}

// scrollTick advances the marquee one step. The seq stamp ties a tick
// to the message that started its chain; ticks from a superseded
// message are dropped so only one chain is ever live.
type scrollTick struct {
	seq int
}

// Ticker is the display sink. UpdateText is safe to call from any
// goroutine: it rejects non-forced updates while a scroll is running
// and forwards accepted messages into the Bubble Tea program.
type Ticker struct {
	mu         sync.Mutex
	program    *tea.Program
	scrolling  bool
	onComplete func()
}

// New creates a sink that invokes onComplete after every finished
// scroll, exactly once per scroll.
func New(onComplete func()) *Ticker {
	return &Ticker{onComplete: onComplete}
}

// SetProgram attaches the running Bubble Tea program. Until attached,
// updates are accepted but not rendered.
func (t *Ticker) SetProgram(p *tea.Program) {
	t.mu.Lock()
	t.program = p
	t.mu.Unlock()
}

// OnComplete sets the completion callback. Used when the consumer is
// constructed after the sink.
func (t *Ticker) OnComplete(fn func()) {
	t.mu.Lock()
	t.onComplete = fn
	t.mu.Unlock()
}

// UpdateText shows a new message. Non-forced updates are rejected
// while a scroll is in progress; forced updates always interrupt.
func (t *Ticker) UpdateText(text, color, imageRef string, force bool) bool {
	t.mu.Lock()
	if t.scrolling && !force {
		t.mu.Unlock()
		return false
	}
	t.scrolling = true
	p := t.program
	t.mu.Unlock()

	if p != nil {
		p.Send(SetMessage{Text: text, Color: color, ImageRef: imageRef})
	}
	return true
}

// completed is called by the model when a full scroll pass ends.
func (t *Ticker) completed() {
	t.mu.Lock()
	t.scrolling = false
	cb := t.onComplete
	t.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// Scrolling reports whether a scroll is currently in progress.
func (t *Ticker) Scrolling() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scrolling
}
