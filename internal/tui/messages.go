package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oykum/carelink-go/internal/chat"
	"github.com/oykum/carelink-go/internal/speech"
)

type streamUpdateMsg struct {
	update chat.Update
}

type streamClosedMsg struct{}

type spinTickMsg struct{}

type speechStatusMsg struct {
	status speech.Status
}

// waitForUpdate delivers the next controller event as a tea.Msg. It re-arms
// itself from Update until the channel closes.
func waitForUpdate(ch <-chan chat.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return streamUpdateMsg{update: u}
	}
}

func waitForSpeech(ch <-chan speech.Status) tea.Cmd {
	return func() tea.Msg {
		return speechStatusMsg{status: <-ch}
	}
}

func spinTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return spinTickMsg{}
	})
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
