// Package tui is an interactive terminal viewer that steps through replayed
// Blackjack episodes.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjackviz/internal/render"
	"github.com/lox/blackjackviz/internal/trace"
)

// DefaultInterval is the autoplay delay when none is configured
const DefaultInterval = time.Second

const logPaneHeight = 6

// Options configures a replay Model.
type Options struct {
	Interval time.Duration
	Autoplay bool
	Clock    quartz.Clock
	Logger   *log.Logger
}

// tickMsg advances autoplay. seq ties it to the autoplay run that scheduled
// it so ticks from a stopped run are dropped.
type tickMsg struct {
	seq int
}

// Model is the Bubble Tea model for the replay viewer
type Model struct {
	frames   []trace.Frame
	terminal *render.Terminal
	logger   *log.Logger
	clock    quartz.Clock

	index    int
	autoplay bool
	interval time.Duration
	seq      int

	stepLog viewport.Model
	help    help.Model
	keys    keyMap

	width    int
	height   int
	quitting bool
}

// NewModel creates a viewer over frames drawn with terminal.
func NewModel(frames []trace.Frame, terminal *render.Terminal, opts Options) *Model {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	vp := viewport.New(40, logPaneHeight)

	m := &Model{
		frames:   frames,
		terminal: terminal,
		logger:   opts.Logger.WithPrefix("tui"),
		clock:    opts.Clock,
		autoplay: opts.Autoplay && len(frames) > 1,
		interval: opts.Interval,
		stepLog:  vp,
		help:     help.New(),
		keys:     defaultKeyMap(),
	}
	m.refreshLog()
	return m
}

// Init starts autoplay when requested
func (m *Model) Init() tea.Cmd {
	if m.autoplay {
		return m.tick()
	}
	return nil
}

// tick waits one interval on the model's clock.
func (m *Model) tick() tea.Cmd {
	seq := m.seq
	clock := m.clock
	interval := m.interval
	return func() tea.Msg {
		timer := clock.NewTimer(interval, "tui", "autoplay")
		<-timer.C
		return tickMsg{seq: seq}
	}
}

// Update handles messages in the viewer
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.stepLog.Width = max(msg.Width-2, 1)
		m.logger.Debug("Resized", "width", m.width, "height", m.height)

	case tickMsg:
		if !m.autoplay || msg.seq != m.seq {
			return m, nil
		}
		m.goTo(m.index + 1)
		if m.index >= len(m.frames)-1 {
			m.stopAutoplay()
		} else {
			cmds = append(cmds, m.tick())
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			m.stopAutoplay()
			m.goTo(m.index + 1)
		case key.Matches(msg, m.keys.Prev):
			m.stopAutoplay()
			m.goTo(m.index - 1)
		case key.Matches(msg, m.keys.First):
			m.stopAutoplay()
			m.goTo(0)
		case key.Matches(msg, m.keys.Last):
			m.stopAutoplay()
			m.goTo(len(m.frames) - 1)
		case key.Matches(msg, m.keys.Autoplay):
			if m.autoplay {
				m.stopAutoplay()
			} else if len(m.frames) > 1 {
				if m.index >= len(m.frames)-1 {
					m.goTo(0)
				}
				m.autoplay = true
				m.seq++
				m.logger.Debug("Autoplay started", "interval", m.interval)
				cmds = append(cmds, m.tick())
			}
		}
	}

	var cmd tea.Cmd
	m.stepLog, cmd = m.stepLog.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) stopAutoplay() {
	if m.autoplay {
		m.autoplay = false
		m.seq++
	}
}

func (m *Model) goTo(i int) {
	if len(m.frames) == 0 {
		return
	}
	m.index = min(max(i, 0), len(m.frames)-1)
	m.refreshLog()
}

// refreshLog lists every step up to the current frame.
func (m *Model) refreshLog() {
	lines := make([]string, 0, m.index+1)
	for i := 0; i <= m.index && i < len(m.frames); i++ {
		line := describe(m.frames[i])
		if i == m.index {
			line = CurrentStepStyle.Render(line)
		} else {
			line = StepLogStyle.Render(line)
		}
		lines = append(lines, line)
	}
	m.stepLog.SetContent(strings.Join(lines, "\n"))
	m.stepLog.GotoBottom()
}

// describe summarises a frame in one line
func describe(f trace.Frame) string {
	t := f.Table
	if f.Step == nil {
		return fmt.Sprintf("E%d deal %s (%d) vs %s", f.Episode, t.PlayerHand(), t.PlayerSum, dealerUp(f))
	}

	line := fmt.Sprintf("E%d #%d %s", f.Episode, f.Index, f.Step.Action)
	if drawn, ok := t.Drawn(); ok {
		line += fmt.Sprintf(" drew %s", drawn)
	}
	line += fmt.Sprintf(" → %d", t.PlayerSum)
	if t.DealerRevealed {
		line += fmt.Sprintf(", dealer %d", t.DealerTotal)
	}
	return line
}

func dealerUp(f trace.Frame) string {
	if len(f.Table.Dealer) == 0 {
		return "?"
	}
	return string(f.Table.Dealer[0].Symbol)
}

// View renders the viewer
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if len(m.frames) == 0 {
		return InfoStyle.Render("No frames to replay") + "\n"
	}

	frame := m.frames[m.index]
	status := fmt.Sprintf("Episode %d • frame %d/%d", frame.Episode, m.index+1, len(m.frames))
	if m.autoplay {
		status += " " + AutoplayStyle.Render("▶ autoplay")
	}

	figure := m.terminal.Render(render.Layout(frame.Table))

	return lipgloss.JoinVertical(lipgloss.Left,
		HeaderStyle.Render(status),
		figure,
		logPaneStyle.Render(m.stepLog.View()),
		m.help.View(m.keys),
	)
}

// Index returns the current frame index
func (m *Model) Index() int { return m.index }

// Autoplaying reports whether autoplay is running
func (m *Model) Autoplaying() bool { return m.autoplay }

// Run starts the viewer in the alternate screen and blocks until it exits.
func Run(frames []trace.Frame, terminal *render.Terminal, opts Options) error {
	program := tea.NewProgram(NewModel(frames, terminal, opts), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running replay viewer: %w", err)
	}
	return nil
}
