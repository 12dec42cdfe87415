// Package tui provides a terminal user interface that follows pathline tracing.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/pathline/internal/app"
)

// WaitForEvent returns a Bubble Tea command that reads the next trace event.
// It returns MsgTraceEnded once events is closed.
func WaitForEvent(events <-chan app.TraceEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return MsgTraceEnded{}
		}
		if !ev.Done {
			return MsgSeedStarted{Seed: ev.Seed}
		}
		return MsgSeedFinished{Seed: ev.Seed, Reason: ev.Reason, Err: ev.Err}
	}
}
