package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme groups the styles used by the chat view.
type Theme struct {
	TextMuted lipgloss.Style
	TextFaint lipgloss.Style

	TopBar      lipgloss.Style
	TopBarTitle lipgloss.Style
	TopBarMeta  lipgloss.Style
	Footer      lipgloss.Style
	Spinner     lipgloss.Style

	Sidebar        lipgloss.Style
	SessionItem    lipgloss.Style
	SessionCurrent lipgloss.Style

	InputBox lipgloss.Style

	RoleUser      lipgloss.Style
	RoleAssistant lipgloss.Style
	RoleError     lipgloss.Style
	Pending       lipgloss.Style
}

func NewTheme() Theme {
	var (
		accent = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}
		muted  = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
		faint  = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#4B5563"}
		errRed = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
		border = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#374151"}
	)

	return Theme{
		TextMuted: lipgloss.NewStyle().Foreground(muted),
		TextFaint: lipgloss.NewStyle().Foreground(faint),

		TopBar:      lipgloss.NewStyle().Bold(false),
		TopBarTitle: lipgloss.NewStyle().Bold(true).Foreground(accent),
		TopBarMeta:  lipgloss.NewStyle().Foreground(muted),
		Footer:      lipgloss.NewStyle().Foreground(faint),
		Spinner:     lipgloss.NewStyle().Foreground(accent),

		Sidebar: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(border).
			PaddingRight(1),
		SessionItem:    lipgloss.NewStyle().Foreground(muted),
		SessionCurrent: lipgloss.NewStyle().Bold(true).Foreground(accent),

		InputBox: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),

		RoleUser:      lipgloss.NewStyle().Bold(true),
		RoleAssistant: lipgloss.NewStyle().Bold(true).Foreground(accent),
		RoleError:     lipgloss.NewStyle().Foreground(errRed),
		Pending:       lipgloss.NewStyle().Foreground(muted),
	}
}
