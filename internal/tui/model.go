package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/pathline/internal/app"
	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/pathline/internal/engine/pathline"
	"go.trai.ch/pathline/internal/ui/style"
)

const (
	statusPending   = "pending"
	statusRunning   = "running"
	statusCompleted = "completed"
	statusStopped   = "stopped"
	statusFailed    = "failed"
)

// SeedState is what the TUI shows for one seed.
type SeedState struct {
	Name   string
	Status string // one of the status constants
	Detail string
}

type styles struct {
	running   lipgloss.Style
	completed lipgloss.Style
	stopped   lipgloss.Style
	failed    lipgloss.Style
	pending   lipgloss.Style
	detail    lipgloss.Style
}

// Model is the Bubble Tea model listing every seed of a trace with its status.
type Model struct {
	events  <-chan app.TraceEvent
	seeds   []SeedState
	height  int
	spinner spinner.Model
	styles  styles
}

// NewModel creates a model for seeds that follows events until the channel closes.
func NewModel(events <-chan app.TraceEvent, seeds []domain.Point) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(style.Yellow)

	states := make([]SeedState, len(seeds))
	for i, p := range seeds {
		states[i] = SeedState{
			Name:   fmt.Sprintf("seed %d (%g, %g, %g)", i, p[0], p[1], p[2]),
			Status: statusPending,
		}
	}

	return &Model{
		events:  events,
		seeds:   states,
		spinner: s,
		styles: styles{
			running:   lipgloss.NewStyle().Foreground(style.Yellow),
			completed: lipgloss.NewStyle().Foreground(style.Green),
			stopped:   lipgloss.NewStyle().Foreground(style.Iris),
			failed:    lipgloss.NewStyle().Foreground(style.Red),
			pending:   lipgloss.NewStyle().Foreground(style.Slate),
			detail:    style.Label,
		},
	}
}

// Init starts reading events and animating the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		WaitForEvent(m.events),
		m.spinner.Tick,
	)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Interrupt
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case MsgSeedStarted:
		m.set(msg.Seed, statusRunning, "")
		return m, WaitForEvent(m.events)
	case MsgSeedFinished:
		m.finish(msg)
		return m, WaitForEvent(m.events)
	case MsgTraceEnded:
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) finish(msg MsgSeedFinished) {
	switch {
	case msg.Err != nil:
		m.set(msg.Seed, statusFailed, msg.Err.Error())
	case msg.Reason == pathline.Reached:
		m.set(msg.Seed, statusCompleted, msg.Reason.String())
	default:
		m.set(msg.Seed, statusStopped, msg.Reason.String())
	}
}

func (m *Model) set(seed int, status, detail string) {
	if seed < 0 || seed >= len(m.seeds) {
		return
	}
	m.seeds[seed].Status = status
	m.seeds[seed].Detail = detail
}

// View renders one line per seed, keeping the last lines when the terminal is short.
func (m *Model) View() string {
	var s strings.Builder

	start := 0
	if len(m.seeds) > m.height && m.height > 0 {
		start = len(m.seeds) - m.height
	}

	for _, v := range m.seeds[start:] {
		var icon string
		var st lipgloss.Style
		switch v.Status {
		case statusRunning:
			icon = m.spinner.View()
			st = m.styles.running
		case statusCompleted:
			icon = style.Check
			st = m.styles.completed
		case statusStopped:
			icon = style.Warning
			st = m.styles.stopped
		case statusFailed:
			icon = style.Cross
			st = m.styles.failed
		default:
			icon = "•"
			st = m.styles.pending
		}

		s.WriteString(st.Render(icon) + " " + v.Name)
		if v.Detail != "" {
			s.WriteString(" " + m.styles.detail.Render(v.Detail))
		}
		s.WriteByte('\n')
	}

	return s.String()
}
