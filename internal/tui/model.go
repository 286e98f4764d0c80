package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/framehello/internal/session"
	"github.com/muurk/framehello/internal/ui"
)

// Controller is the part of a session the screen drives.
type Controller interface {
	Do(a session.Action) error
	Snapshot() session.Snapshot
	LogSince(seq int) []session.LogEntry
	Subscribe() (<-chan session.Update, func())
}

var _ Controller = (*session.Session)(nil)

type button int

const (
	buttonConnect button = iota
	buttonHello
	buttonFinish
)

var buttons = []struct {
	label  string
	action session.Action
}{
	buttonConnect: {"Connect", session.ActionConnect},
	buttonHello:   {"Say hello", session.ActionSayHello},
	buttonFinish:  {"Finish", session.ActionFinish},
}

// Messages
type updateMsg session.Update
type closedMsg struct{}
type actionMsg struct {
	action session.Action
	err    error
}

// Model is the single session screen.
type Model struct {
	ctl     Controller
	updates <-chan session.Update
	release func()

	snap    session.Snapshot
	entries []session.LogEntry
	focus   button
	notice  string

	Width    int
	Height   int
	spinner  spinner.Model
	log      viewport.Model
	help     help.Model
	keys     keyMap
	quitting bool
}

// New subscribes to ctl and returns the screen model. The subscription is
// released when the user quits.
func New(ctl Controller) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	updates, release := ctl.Subscribe()
	m := Model{
		ctl:     ctl,
		updates: updates,
		release: release,
		spinner: s,
		log:     viewport.New(MinTerminalWidth-6, 6),
		help:    help.New(),
		keys:    newKeyMap(),
		Width:   MinTerminalWidth,
		Height:  24,
	}
	m.apply(session.Update{Snapshot: ctl.Snapshot()})
	m.resize()
	return m
}

// Init starts listening for session updates
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), m.spinner.Tick)
}

// waitForUpdate blocks on the subscription and delivers one update.
func waitForUpdate(updates <-chan session.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return updateMsg(u)
	}
}

func doAction(ctl Controller, a session.Action) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{action: a, err: ctl.Do(a)}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case updateMsg:
		m.apply(session.Update(msg))
		return m, waitForUpdate(m.updates)

	case closedMsg:
		m.quitting = true
		return m, tea.Quit

	case actionMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.release()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Connect):
		return m.press(buttonConnect)
	case key.Matches(msg, m.keys.Hello):
		return m.press(buttonHello)
	case key.Matches(msg, m.keys.Finish):
		return m.press(buttonFinish)

	case key.Matches(msg, m.keys.Left):
		m.focus = (m.focus + button(len(buttons)) - 1) % button(len(buttons))
	case key.Matches(msg, m.keys.Right):
		m.focus = (m.focus + 1) % button(len(buttons))
	case key.Matches(msg, m.keys.Press):
		return m.press(m.focus)

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		m.log, cmd = m.log.Update(msg)
	}
	return m, cmd
}

// press fires the button's action if the current snapshot allows it.
func (m Model) press(b button) (tea.Model, tea.Cmd) {
	m.focus = b
	if !m.allowed(b) {
		if m.snap.Busy {
			m.notice = "Busy, wait for the current step to finish"
		} else {
			m.notice = fmt.Sprintf("%s is not available while %s", buttons[b].label, m.snap.State)
		}
		return m, nil
	}
	m.notice = ""
	return m, doAction(m.ctl, buttons[b].action)
}

func (m Model) allowed(b button) bool {
	return m.snap.Actions.Allows(buttons[b].action)
}

// apply takes a new snapshot and pulls any log lines the update skipped.
func (m *Model) apply(u session.Update) {
	m.snap = u.Snapshot
	if m.snap.LogLen > len(m.entries) {
		m.entries = append(m.entries, m.ctl.LogSince(len(m.entries))...)
		m.refreshLog()
	}

	m.keys.updateEnabled(m.allowed)
	if !m.allowed(m.focus) {
		for b := range buttons {
			if m.allowed(button(b)) {
				m.focus = button(b)
				break
			}
		}
	}
}

func (m *Model) refreshLog() {
	lines := make([]string, len(m.entries))
	for i, e := range m.entries {
		lines[i] = ui.FormatLogEntry(e)
	}
	m.log.SetContent(strings.Join(lines, "\n"))
	m.log.GotoBottom()
}

func (m *Model) resize() {
	width := m.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	m.log.Width = width - 8
	m.help.Width = width - 6

	// Header, footer, status, buttons and borders take the rest.
	height := m.Height - 17
	if height < 3 {
		height = 3
	}
	m.log.Height = height
	m.refreshLog()
}

// View renders the screen
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		"",
		m.renderStatus(),
		"",
		m.renderButtons(),
		NoticeStyle.Render(m.notice),
		LogPanelStyle.Render(m.log.View()),
	)
	return RenderApplicationContainer(lipgloss.NewStyle().PaddingLeft(1).Render(content), m.help.View(m.keys), m.Width, m.Height)
}

func (m Model) renderStatus() string {
	state := m.snap.State
	label := strings.ToUpper(state.String()[:1]) + state.String()[1:]

	status := StatusLabelStyle.Render("State: ") + ui.StateStyle(state).Render(label)
	if inFlight(m.snap) {
		status += " " + m.spinner.View()
	}

	device := "none"
	if m.snap.Bound != nil {
		device = m.snap.Bound.String()
	}
	status += StatusLabelStyle.Render("   Device: ") + StatusValueStyle.Render(device)
	status += StatusLabelStyle.Render("   Hellos: ") + StatusValueStyle.Render(fmt.Sprintf("%d", m.snap.Counter))
	return status
}

func (m Model) renderButtons() string {
	rendered := make([]string, len(buttons))
	for i, b := range buttons {
		style := ButtonStyle
		switch {
		case !m.allowed(button(i)):
			style = DisabledButtonStyle
		case button(i) == m.focus:
			style = FocusedButtonStyle
		}
		rendered[i] = style.Render(b.label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func inFlight(snap session.Snapshot) bool {
	switch snap.State {
	case session.StateScanning, session.StateConnecting, session.StateRunning:
		return true
	}
	return snap.Busy
}

// Run shows the screen until the user quits.
func Run(ctl Controller) error {
	_, err := tea.NewProgram(New(ctl), tea.WithAltScreen()).Run()
	return err
}
