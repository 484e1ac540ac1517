// Package tui is the bubbletea terminal client for the tutor.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/linanwx/tutorbot/api"
)

// Panel is a composable TUI region with its own state, update logic, and view.
// The root App model orchestrates panels without knowing their internals.
type Panel interface {
	Update(tea.Msg) (Panel, tea.Cmd)
	View() string
	SetSize(width, height int)
}

// LogLineMsg carries a single log line from the logger writer.
type LogLineMsg struct{ Line string }

// InputSubmitMsg is emitted when the user presses Enter in the input panel.
type InputSubmitMsg struct{ Text string }

// SubjectsMsg delivers the subject list fetched at startup.
type SubjectsMsg struct{ Subjects []string }

// replyMsg carries the outcome of an in-flight chat request.
type replyMsg struct {
	resp *api.ChatResponse
	err  error
}

// copyResetMsg reverts a copy control's label.
type copyResetMsg struct {
	id    string
	token int
}

// statusMsg shows a transient line under the input.
type statusMsg struct{ text string }
