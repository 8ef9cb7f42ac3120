package ticker

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// gap separates the tail of the text from its next pass.
const gap = "          "

// Model is the Bubble Tea model driving the marquee. One scroll pass
// moves the whole line across the viewport once; the completion is
// reported to the sink exactly once per pass.
type Model struct {
	ticker *Ticker

	text     string
	color    string
	imageRef string
	imageOK  bool

	runes   []rune
	offset  int
	width   int
	tickSeq int

	speed time.Duration
	spin  spinner.Model

	frame lipgloss.Style
	line  lipgloss.Style
}

// NewModel creates the marquee model. speed is the per-step delay.
func NewModel(t *Ticker, speed time.Duration) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	return Model{
		ticker: t,
		width:  80,
		speed:  speed,
		spin:   sp,
		frame:  lipgloss.NewStyle().Padding(1, 2),
		line:   lipgloss.NewStyle().Bold(true),
	}
}

// Init starts the spinner shown before any message arrives.
func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

// Update handles key input, new messages, scroll ticks, and late
// image loads.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width - 4
		if m.width < 10 {
			m.width = 10
		}

	case SetMessage:
		m.text = msg.Text
		m.color = msg.Color
		m.imageRef = msg.ImageRef
		m.imageOK = false
		m.runes = []rune(msg.Text + gap)
		m.offset = 0
		// Invalidate the previous message's tick chain before starting
		// a new one, or every rotation would add a concurrent chain and
		// the marquee would speed up without bound.
		m.tickSeq++
		cmds := []tea.Cmd{m.tick()}
		if msg.ImageRef != "" {
			cmds = append(cmds, loadImage(msg.ImageRef))
		}
		return m, tea.Batch(cmds...)

	case scrollTick:
		if msg.seq != m.tickSeq || m.text == "" {
			return m, nil
		}
		m.offset++
		if m.offset >= len(m.runes) {
			m.offset = 0
			m.ticker.completed()
			// Keep scrolling the same message; the arbiter sends a
			// replacement when it decides to advance.
			return m, m.tick()
		}
		return m, m.tick()

	case imageLoaded:
		// A late-arriving resource is applied only if the message it
		// belongs to is still the one on screen.
		if msg.Err == nil && msg.Ref == m.imageRef {
			m.imageOK = true
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the visible window of the marquee.
func (m Model) View() string {
	if m.text == "" {
		return m.frame.Render(m.spin.View() + " waiting for data")
	}

	var b strings.Builder
	for i := 0; i < m.width; i++ {
		b.WriteRune(m.runes[(m.offset+i)%len(m.runes)])
	}

	line := m.line.Foreground(lipgloss.Color(m.color)).Render(b.String())
	if m.imageOK {
		line = "■ " + line
	}
	return m.frame.Render(line)
}

func (m Model) tick() tea.Cmd {
	seq := m.tickSeq
	return tea.Tick(m.speed, func(time.Time) tea.Msg {
		return scrollTick{seq: seq}
	})
}

// loadImage resolves an image reference off the UI loop. The result
// message carries the ref so stale loads can be discarded.
func loadImage(ref string) tea.Cmd {
	return func() tea.Msg {
		_, err := os.Stat(ref)
		return imageLoaded{Ref: ref, Err: err}
	}
}
