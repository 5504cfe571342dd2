package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/oykum/carelink-go/internal/store"
)

func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	chatWidth := m.width - sidebarWidth - 3
	if chatWidth < 20 {
		chatWidth = 20
	}

	top := m.renderTopBar(chatWidth)
	sidebar := m.renderSidebar()
	transcript := m.vp.View()

	var input string
	if m.renaming {
		input = m.theme.InputBox.Width(chatWidth - 2).Render("rename: " + m.rename.View())
	} else {
		input = m.theme.InputBox.Width(chatWidth - 2).Render(m.input.View())
	}

	right := lipgloss.JoinVertical(lipgloss.Left, top, transcript, input, m.renderFooter(chatWidth))
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, right)
	return body
}

func (m *Model) renderTopBar(width int) string {
	title := "CareLink"
	if cur, ok := m.ctrl.Current(); ok {
		title = cur.Title
	}
	left := m.theme.TopBarTitle.Render(title)
	meta := m.email
	if m.speaking {
		meta = "🔊 " + meta
	}
	right := m.theme.TopBarMeta.Render(meta)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.theme.TopBar.Render(left + strings.Repeat(" ", gap) + right)
}

func (m *Model) renderSidebar() string {
	height := m.height - 2
	if height < 3 {
		height = 3
	}
	var b strings.Builder
	b.WriteString(m.theme.TextMuted.Render("Sessions"))
	b.WriteString("\n\n")
	for _, s := range m.sessions {
		title := s.Title
		if lipgloss.Width(title) > sidebarWidth-4 {
			title = title[:sidebarWidth-5] + "…"
		}
		if s.ID == m.currentID {
			b.WriteString(m.theme.SessionCurrent.Render("▸ " + title))
		} else {
			b.WriteString(m.theme.SessionItem.Render("  " + title))
		}
		b.WriteString("\n")
	}
	return m.theme.Sidebar.Width(sidebarWidth).Height(height).Render(b.String())
}

func (m *Model) renderTranscript() string {
	cur, ok := m.ctrl.Current()
	if !ok {
		return ""
	}
	width := m.vp.Width
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for _, msg := range cur.Messages {
		switch {
		case msg.Sender == store.SenderUser:
			b.WriteString(m.theme.RoleUser.Render("You"))
		case strings.HasPrefix(msg.Content, "Error: "):
			b.WriteString(m.theme.RoleError.Render("Assistant"))
		default:
			b.WriteString(m.theme.RoleAssistant.Render("Assistant"))
		}
		b.WriteString("\n")
		if strings.HasPrefix(msg.Content, "Error: ") && msg.Sender == store.SenderAssistant {
			b.WriteString(wrap.Inherit(m.theme.RoleError).Render(msg.Content))
		} else {
			b.WriteString(wrap.Render(msg.Content))
		}
		b.WriteString("\n\n")
	}

	if m.streaming && m.streamID == cur.ID {
		b.WriteString(m.theme.RoleAssistant.Render("Assistant"))
		b.WriteString("\n")
		frame := m.theme.Spinner.Render(spinnerFrames[m.spinnerPos])
		if m.streamBuf == "" {
			b.WriteString(m.theme.Pending.Render("thinking ") + frame)
		} else {
			b.WriteString(wrap.Render(m.streamBuf) + " " + frame)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderFooter(width int) string {
	if m.status != "" {
		return m.theme.RoleError.Width(width).Render(m.status)
	}
	hints := "enter send • tab switch • ^n new • ^r rename • ^k delete • ^s speak • esc quit"
	return m.theme.Footer.Width(width).Render(hints)
}
