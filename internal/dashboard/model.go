// Package dashboard is the terminal view of a user's timer.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"focusboard/backend/internal/model"
	"focusboard/backend/internal/timer"
)

var (
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 4)

	overtimeStyle = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	breakStyle    = lipgloss.NewStyle().Foreground(successColor)
	pausedStyle   = lipgloss.NewStyle().Foreground(warningColor)
	mutedStyle    = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
)

// PollInterval is how often the dashboard refreshes the state.
const PollInterval = time.Second

type timerAPI interface {
	State(ctx context.Context) (timer.Snapshot, error)
	Action(ctx context.Context, action string) (timer.Snapshot, error)
}

type keyMap struct {
	Pause     key.Binding
	Resume    key.Binding
	Stop      key.Binding
	Next      key.Binding
	Complete  key.Binding
	SkipBreak key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Resume, k.Next, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Resume, k.Stop},
		{k.Next, k.Complete, k.SkipBreak},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Pause:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
	Resume:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resume")),
	Stop:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
	Next:      key.NewBinding(key.WithKeys("n", "enter"), key.WithHelp("n", "next session")),
	Complete:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "complete work")),
	SkipBreak: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "skip break")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type tickMsg time.Time

type stateMsg struct {
	snap timer.Snapshot
}

type errMsg struct {
	err error
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	api   timerAPI
	keys  keyMap
	help  help.Model
	title string

	snap    *timer.Snapshot
	err     error
	loading bool
}

// New builds a dashboard. title is shown above the clock, usually the task
// being worked on.
func New(api timerAPI, title string) Model {
	return Model{api: api, keys: keys, help: help.New(), title: title, loading: true}
}

// Run starts the dashboard on the terminal.
func Run(api timerAPI, title string) error {
	_, err := tea.NewProgram(New(api, title), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Pause):
			return m, m.act("pause")
		case key.Matches(msg, m.keys.Resume):
			return m, m.act("resume")
		case key.Matches(msg, m.keys.Stop):
			return m, m.act("stop")
		case key.Matches(msg, m.keys.Next):
			return m, m.act("next")
		case key.Matches(msg, m.keys.Complete):
			return m, m.act("complete-work")
		case key.Matches(msg, m.keys.SkipBreak):
			return m, m.act("skip-break")
		}

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tickMsg:
		return m, tea.Batch(m.fetch(), tick())

	case stateMsg:
		snap := msg.snap
		m.snap = &snap
		m.err = nil
		m.loading = false

	case errMsg:
		m.err = msg.err
		m.loading = false
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	header := "focusboard"
	if m.title != "" {
		header += " · " + m.title
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	switch {
	case m.snap == nil && m.loading:
		b.WriteString(mutedStyle.Render("loading..."))
	case m.snap == nil:
		b.WriteString(mutedStyle.Render("no timer state"))
	default:
		b.WriteString(renderSnapshot(*m.snap))
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(overtimeStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func renderSnapshot(snap timer.Snapshot) string {
	var b strings.Builder

	clock := clockStyle.Render(FormatRemaining(snap.RemainingSeconds))
	switch {
	case snap.Phase == timer.PhaseIdle:
		return mutedStyle.Render("idle · start a task to begin")
	case snap.Phase == timer.PhaseTaskComplete:
		return breakStyle.Render("Task complete!")
	case snap.Phase == timer.PhaseJustCompleted:
		b.WriteString(breakStyle.Render(sessionLabel(snap.SessionType) + " finished · press n to continue"))
		return b.String()
	}

	b.WriteString(clock)
	b.WriteString("\n")
	b.WriteString(sessionLabel(snap.SessionType))

	switch snap.Phase {
	case timer.PhasePaused:
		b.WriteString(" · " + pausedStyle.Render("paused"))
	case timer.PhaseOvertimeAutoPaused:
		b.WriteString(" · " + overtimeStyle.Render("auto-paused after overtime"))
	}
	if snap.OvertimeInfo != nil && snap.OvertimeInfo.Seconds > 0 {
		b.WriteString("\n")
		b.WriteString(overtimeStyle.Render(fmt.Sprintf("overtime %s", FormatRemaining(snap.OvertimeInfo.Seconds))))
	}
	return b.String()
}

func sessionLabel(t model.SessionType) string {
	switch t {
	case model.SessionShortBreak:
		return "Short break"
	case model.SessionLongBreak:
		return "Long break"
	default:
		return "Focus"
	}
}

// FormatRemaining renders seconds as MM:SS, with a leading minus in
// overtime.
func FormatRemaining(seconds int) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%02d:%02d", sign, seconds/60, seconds%60)
}

func tick() tea.Cmd {
	return tea.Tick(PollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetch() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultClientTimeout)
		defer cancel()
		snap, err := m.api.State(ctx)
		if err != nil {
			return errMsg{err}
		}
		return stateMsg{snap}
	}
}

func (m Model) act(action string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultClientTimeout)
		defer cancel()
		snap, err := m.api.Action(ctx, action)
		if err != nil {
			return errMsg{err}
		}
		return stateMsg{snap}
	}
}
