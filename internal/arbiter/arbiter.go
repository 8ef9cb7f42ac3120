// Package arbiter decides which single message occupies the display at
// any instant: it drains the inbound event queue, routes events into
// the warning and report buffers, and drives the mode state machine
// between interrupt-driven warnings and round-robin reports.
package arbiter

import (
	"context"
	"time"

	"github.com/quakeline/quakeline/internal/config"
	"github.com/quakeline/quakeline/internal/display"
	"github.com/quakeline/quakeline/internal/event"
	"github.com/quakeline/quakeline/internal/format"
	"github.com/quakeline/quakeline/internal/logging"
	"github.com/quakeline/quakeline/internal/queue"
)

// Mode is the top-level display state.
type Mode int

const (
	// ModeIdle means nothing has been displayed yet.
	ModeIdle Mode = iota
	// ModeReport rotates through the report buffer on scroll completion.
	ModeReport
	// ModeWarning shows warnings, interrupting whatever was on screen.
	ModeWarning
)

// String returns the mode name for logging.
func (m Mode) String() string {
	switch m {
	case ModeReport:
		return "report"
	case ModeWarning:
		return "warning"
	default:
		return "idle"
	}
}

// CustomTextSource is the synthetic source token owning the fixed
// custom-text entry when that mode is enabled.
const CustomTextSource = "__custom_text__"

// Sink renders one message at a time. A non-forced update is rejected
// (returns false) while a scroll is in progress; the sink reports each
// finished scroll back through the arbiter's ScrollCompleted.
type Sink interface {
	UpdateText(text, color, imageRef string, force bool) bool
}

// Arbiter owns the two priority buffers and the display mode. All
// mutation happens on the Run goroutine: ingestion writes arrive only
// through the event queue, and scroll completions through a channel,
// so the state machine is single-writer by construction.
type Arbiter struct {
	cfg  *config.Config
	loc  *time.Location
	in   *queue.Queue
	sink Sink

	warnings *display.Buffer
	reports  *display.Buffer

	mode Mode

	// pendingSource stages a report-mode update that targets the
	// currently displayed source; it is applied at the next scroll
	// completion instead of interrupting mid-scroll.
	pendingSource string

	scrollDone chan struct{}

	// now is the clock, replaceable in tests. Always returns display
	// timezone time.
	now func() time.Time
}

// New constructs an arbiter over the given inbound queue and sink.
func New(cfg *config.Config, in *queue.Queue, sink Sink) *Arbiter {
	loc := cfg.Location()
	a := &Arbiter{
		cfg:        cfg,
		loc:        loc,
		in:         in,
		sink:       sink,
		warnings:   display.NewBuffer(cfg.Display.BufferCapacity),
		reports:    display.NewBuffer(cfg.Display.BufferCapacity),
		mode:       ModeIdle,
		scrollDone: make(chan struct{}, 1),
		now:        func() time.Time { return time.Now().In(loc) },
	}
	if cfg.Display.UseCustomText {
		a.reports.ReplaceOrAdd(a.customTextMessage())
	}
	return a
}

// Mode returns the current display mode. The mode is owned by the Run
// goroutine; call this only from there (or, in tests, before Run or
// after it has stopped).
func (a *Arbiter) Mode() Mode { return a.mode }

// OnEvent is the single hand-off point every ingestion task uses.
// It never blocks; a full queue drops its oldest entry.
func (a *Arbiter) OnEvent(source string, ev *event.Event) {
	if ev == nil {
		return
	}
	if ev.Source == "" {
		ev.Source = source
	}
	if ev.Received.IsZero() {
		ev.Received = a.now()
	}
	a.in.Submit(ev)
}

// ScrollCompleted signals that the sink finished scrolling the current
// message. Safe to call from any goroutine; completions coalesce.
func (a *Arbiter) ScrollCompleted() {
	select {
	case a.scrollDone <- struct{}{}:
	default:
	}
}

// Run drives the arbiter until the context is cancelled. It is the
// only goroutine that mutates the buffers or the mode.
func (a *Arbiter) Run(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.TickInterval())
	defer ticker.Stop()

	a.showPlaceholder()

	for {
		select {
		case <-ctx.Done():
			logging.Info("arbiter stopped")
			return
		case <-ticker.C:
			a.processTick()
		case <-a.scrollDone:
			a.onScrollComplete()
		}
	}
}

// processTick drains one batch from the queue and routes it.
func (a *Arbiter) processTick() {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("tick aborted", "panic", r)
		}
	}()

	events := a.in.Drain(a.cfg.Display.DrainBatch)
	if len(events) == 0 {
		return
	}

	var warnings, reports []*display.Message
	for _, ev := range events {
		switch ev.Type {
		case event.Warning:
			if ev.Cancel() {
				a.handleCancel(ev)
				continue
			}
			if !a.shockFresh(ev.ShockTime) {
				logging.Debug("stale warning dropped at admission",
					"source", ev.Source, "event_id", ev.EventID, "shock_time", ev.ShockTime)
				continue
			}
			if msg := a.render(ev); msg != nil {
				warnings = append(warnings, msg)
			}
		case event.Weather, event.Report:
			if msg := a.render(ev); msg != nil {
				reports = append(reports, msg)
			}
		default:
			logging.Warn("unclassifiable event skipped", "source", ev.Source)
		}
	}

	if len(warnings) > 0 {
		a.handleWarnings(warnings)
	}
	if len(reports) > 0 {
		a.handleReports(reports)
	}
}

// render formats an event into a display message. A formatting failure
// loses at most this one event.
func (a *Arbiter) render(ev *event.Event) *display.Message {
	text := format.Text(ev)
	if text == "" {
		logging.Warn("empty render, event skipped", "source", ev.Source, "type", ev.Type.String())
		return nil
	}
	color := format.Color(ev, a.cfg.Display.WarningColor)
	imageRef := ""
	if ref, ok := ev.Extra["image_ref"].(string); ok {
		imageRef = ref
	}
	return display.NewMessage(ev, text, color, imageRef)
}

// handleWarnings routes a warning batch. Outside warning mode the
// first (highest-priority) warning force-interrupts whatever is on
// screen; inside warning mode updates land silently and a different
// event only surfaces at the next scroll completion.
func (a *Arbiter) handleWarnings(batch []*display.Message) {
	if a.mode != ModeWarning {
		a.warnings.BatchReplaceBySource(batch)
		first := batch[0]
		for _, m := range batch[1:] {
			if event.SourcePriority(m.Source) < event.SourcePriority(first.Source) {
				first = m
			}
		}
		// The batch copy in the buffer may differ after per-source
		// coalescing; show whatever its source now owns.
		if live := a.warnings.FindBySource(first.Source); live != nil {
			first = live
		}
		logging.Info("warning interrupt", "source", first.Source, "event_id", first.EventID)
		a.showWarning(first, true)
		return
	}

	current := a.warnings.Current()
	needSwitch := false
	for _, m := range batch {
		if current == nil || !display.SameEvent(current, m) {
			needSwitch = true
		}
	}
	a.warnings.BatchReplaceBySource(batch)
	if needSwitch {
		// Non-forced: rejected while the current warning scrolls,
		// in which case the next scroll completion advances.
		if next := a.warnings.First(); next != nil {
			a.showWarning(next, false)
		}
	}
}

// handleReports routes a report/weather batch into the report buffer.
// An update for the source currently on screen is staged and applied
// only at that source's next scroll completion.
func (a *Arbiter) handleReports(batch []*display.Message) {
	if a.cfg.Display.UseCustomText {
		return
	}
	if a.mode == ModeReport {
		if cur := a.reports.Current(); cur != nil {
			for _, m := range batch {
				if m.Source == cur.Source {
					a.pendingSource = cur.Source
					break
				}
			}
		}
	}
	a.reports.BatchReplaceBySource(batch)
	if a.mode == ModeIdle {
		a.showNextReport()
	}
}

// handleCancel retracts a warning. The matching entries disappear from
// both buffers; if the displayed warning was among them a cancellation
// notice takes over the screen immediately.
func (a *Arbiter) handleCancel(ev *event.Event) {
	priorText := ""
	if m := a.warnings.FindByEventID(ev.Source, ev.EventID); m != nil {
		priorText = m.Text
	}

	removed, removedDisplayed := a.warnings.RemoveByEventID(ev.Source, ev.EventID)
	reportRemoved, _ := a.reports.RemoveByEventID(ev.Source, ev.EventID)
	if removed+reportRemoved == 0 {
		logging.Debug("cancel for unknown event ignored", "source", ev.Source, "event_id", ev.EventID)
		return
	}
	logging.Info("warning cancelled", "source", ev.Source, "event_id", ev.EventID,
		"removed", removed+reportRemoved, "was_displayed", removedDisplayed)

	if removedDisplayed {
		notice := format.CancellationNotice(priorText, ev.Source)
		a.sink.UpdateText(notice, a.warningColor(), "", true)
		// Normal arbitration resumes when the notice finishes
		// scrolling; an empty warning buffer then demotes.
	}
}

// onScrollComplete advances the rotation after the sink finishes a
// message. This and processTick run on the same goroutine, so a
// completion can never race an in-flight demotion.
func (a *Arbiter) onScrollComplete() {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("scroll-complete handling aborted", "panic", r)
		}
	}()

	if a.mode == ModeWarning {
		a.warnings.Sweep(a.warningValid)
		next := a.warnings.GetNext()
		if next != nil && !a.warningValid(next) {
			a.warnings.Sweep(a.warningValid)
			next = a.warnings.GetNext()
		}
		if next == nil {
			a.demote()
			return
		}
		a.showWarning(next, false)
		return
	}

	a.showNextReport()
}

// showWarning puts a warning on screen. Mode flips to warning even if
// a non-forced update is rejected; the entry then surfaces at the next
// scroll completion.
func (a *Arbiter) showWarning(msg *display.Message, force bool) {
	if msg == nil {
		return
	}
	a.mode = ModeWarning
	a.pendingSource = ""
	if a.sink.UpdateText(msg.Text, msg.Color, msg.ImageRef, force) {
		msg.MarkDisplayed(a.now())
		a.warnings.SetCurrent(msg.ID)
	}
}

// demote leaves warning mode for the report rotation, restarting it
// from the top priority entry.
func (a *Arbiter) demote() {
	logging.Info("warning buffer empty, demoting to report rotation")
	a.mode = ModeReport
	a.reports.ResetCursor()
	a.showNextReport()
}

// showNextReport advances the report rotation, honoring a staged
// replacement for the source that just finished scrolling.
func (a *Arbiter) showNextReport() {
	var msg *display.Message
	if a.pendingSource != "" {
		msg = a.reports.FindBySource(a.pendingSource)
		a.pendingSource = ""
	}
	if msg == nil {
		msg = a.reports.GetNext()
	}
	if msg == nil {
		a.showPlaceholder()
		return
	}
	a.mode = ModeReport
	if a.sink.UpdateText(msg.Text, msg.Color, msg.ImageRef, false) {
		msg.MarkDisplayed(a.now())
		a.reports.SetCurrent(msg.ID)
	}
}

// showPlaceholder displays the idle line used when both buffers are
// empty. The process sits here indefinitely when every source is
// silent; it is the only user-visible degradation mode.
func (a *Arbiter) showPlaceholder() {
	a.mode = ModeReport
	a.sink.UpdateText(a.cfg.Display.CustomText, a.cfg.Display.CustomTextColor, "", false)
}

// customTextMessage builds the permanent synthetic report entry that
// replaces the rotation when custom-text mode is on.
func (a *Arbiter) customTextMessage() *display.Message {
	ev := &event.Event{
		Type:     event.Report,
		Source:   CustomTextSource,
		Received: a.now(),
	}
	return display.NewMessage(ev, a.cfg.Display.CustomText, a.cfg.Display.CustomTextColor, "")
}

// warningValid is the display-time validity predicate. A warning shown
// at least once keeps the screen slot for the configured minimum
// display time and then expires unconditionally, regardless of how old
// its shock time is. A warning never shown re-checks admission-time
// freshness on every sweep.
func (a *Arbiter) warningValid(m *display.Message) bool {
	if m.FirstDisplayedAt != nil {
		return a.now().Sub(*m.FirstDisplayedAt) < a.cfg.MinDisplay()
	}
	return a.shockFresh(m.ShockTime)
}

// shockFresh checks a shock time against the admission validity
// window. Missing or unparseable times count as fresh rather than
// filtering good data on a formatting quirk.
func (a *Arbiter) shockFresh(shockTime string) bool {
	if shockTime == "" {
		return true
	}
	t, err := time.ParseInLocation(event.ShockTimeLayout, shockTime, a.loc)
	if err != nil {
		return true
	}
	return a.now().Sub(t) <= a.cfg.ShockValidity()
}

func (a *Arbiter) warningColor() string {
	if c := a.cfg.Display.WarningColor; c != "" {
		return c
	}
	return format.DefaultWarningColor
}
