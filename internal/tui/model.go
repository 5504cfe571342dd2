// Package tui renders sessions and messages and forwards user intent (send,
// delete, rename, switch) to the conversation controller.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/oykum/carelink-go/internal/chat"
	"github.com/oykum/carelink-go/internal/speech"
	"github.com/oykum/carelink-go/internal/store"
)

const sidebarWidth = 26

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ctrl  *chat.Controller
	voice speech.Synthesizer
	email string

	theme Theme

	width  int
	height int
	ready  bool

	sessions  []store.Session
	currentID string

	input  textarea.Model
	vp     viewport.Model
	rename textinput.Model

	renaming   bool
	streaming  bool
	streamID   string // session the pending reply belongs to
	streamBuf  string
	spinnerPos int
	status     string

	updates  <-chan chat.Update
	speechCh chan speech.Status
	speaking bool
}

// New creates the chat view bound to a controller and a speech capability.
func New(ctrl *chat.Controller, voice speech.Synthesizer, email string) *Model {
	ta := textarea.New()
	ta.Placeholder = "Ask a question about your health..."
	ta.Focus()
	ta.CharLimit = 4000
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.Prompt = "┃ "

	ti := textinput.New()
	ti.CharLimit = 120

	m := &Model{
		ctrl:     ctrl,
		voice:    voice,
		email:    email,
		theme:    NewTheme(),
		input:    ta,
		rename:   ti,
		speechCh: make(chan speech.Status, 4),
	}
	m.refresh()
	return m
}

// Run starts the chat view and blocks until the user quits.
func Run(ctrl *chat.Controller, voice speech.Synthesizer, email string) error {
	p := tea.NewProgram(New(ctrl, voice, email), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// refresh re-reads controller state into the view cache and rebuilds the
// transcript.
func (m *Model) refresh() {
	m.sessions = m.ctrl.Sessions()
	m.currentID = m.ctrl.CurrentID()
	if m.ready {
		m.vp.SetContent(m.renderTranscript())
		m.vp.GotoBottom()
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chatWidth := m.width - sidebarWidth - 3
		if chatWidth < 20 {
			chatWidth = 20
		}
		vpHeight := m.height - 7
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.vp = viewport.New(chatWidth, vpHeight)
			m.ready = true
		} else {
			m.vp.Width = chatWidth
			m.vp.Height = vpHeight
		}
		m.input.SetWidth(chatWidth - 4)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.renaming {
			return m.updateRename(msg)
		}
		switch msg.String() {
		case "ctrl+c", "esc":
			m.ctrl.Close()
			m.voice.Stop()
			return m, tea.Quit

		case "enter":
			return m.send()

		case "ctrl+n":
			m.ctrl.NewSession()
			m.refresh()
			return m, nil

		case "ctrl+k":
			if err := m.ctrl.DeleteSession(context.Background(), m.currentID); err != nil {
				m.status = err.Error()
			}
			m.refresh()
			return m, nil

		case "ctrl+r":
			if cur, ok := m.ctrl.Current(); ok {
				m.renaming = true
				m.rename.SetValue(cur.Title)
				m.rename.Focus()
				m.input.Blur()
			}
			return m, textinput.Blink

		case "ctrl+s":
			return m.toggleSpeech()

		case "tab", "shift+tab":
			m.cycleSession(msg.String() == "tab")
			return m, nil

		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}

	case streamUpdateMsg:
		return m.applyUpdate(msg.update)

	case streamClosedMsg:
		m.streaming = false
		m.streamID = ""
		m.streamBuf = ""
		m.updates = nil
		m.refresh()
		return m, nil

	case spinTickMsg:
		if m.streaming {
			m.spinnerPos = (m.spinnerPos + 1) % len(spinnerFrames)
			m.vp.SetContent(m.renderTranscript())
			return m, spinTick()
		}
		return m, nil

	case speechStatusMsg:
		m.speaking = msg.status == speech.StatusPlaying
		if msg.status == speech.StatusUnsupported {
			m.status = "text-to-speech is not available on this system"
		}
		if m.speaking {
			return m, waitForSpeech(m.speechCh)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// send forwards the input to the controller. A busy controller means a reply
// is still streaming; the attempt is dropped silently per the send
// discipline, and empty input is a no-op.
func (m *Model) send() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	ch, err := m.ctrl.SendMessage(context.Background(), text)
	switch {
	case errors.Is(err, chat.ErrBusy):
		return m, nil
	case errors.Is(err, chat.ErrAuthRequired):
		m.status = "please log in first: carelink login"
		return m, nil
	case err != nil:
		m.status = err.Error()
		return m, nil
	case ch == nil:
		return m, nil
	}

	m.input.Reset()
	m.status = ""
	m.streaming = true
	m.streamID = m.ctrl.CurrentID()
	m.streamBuf = ""
	m.updates = ch
	m.refresh()
	return m, tea.Batch(waitForUpdate(ch), spinTick())
}

func (m *Model) applyUpdate(u chat.Update) (tea.Model, tea.Cmd) {
	switch u.Kind {
	case chat.UpdateChunk:
		if u.SessionID == m.streamID {
			m.streamBuf += u.Chunk
			if u.SessionID == m.currentID {
				m.vp.SetContent(m.renderTranscript())
				m.vp.GotoBottom()
			}
		}

	case chat.UpdateSessionStarted:
		// Correlation id is recorded by the controller; nothing to show.

	case chat.UpdateComplete:
		m.streaming = false
		m.streamBuf = ""
		m.refresh()

	case chat.UpdateError:
		m.streaming = false
		m.streamBuf = ""
		if errors.Is(u.Err, chat.ErrAuthRequired) {
			m.status = "session expired; run: carelink login"
		}
		m.refresh()
	}
	if m.updates != nil {
		return m, waitForUpdate(m.updates)
	}
	return m, nil
}

func (m *Model) updateRename(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		title := strings.TrimSpace(m.rename.Value())
		if title != "" {
			if err := m.ctrl.RenameSession(m.currentID, title); err != nil {
				m.status = err.Error()
			}
		}
		m.renaming = false
		m.rename.Blur()
		m.input.Focus()
		m.refresh()
		return m, textarea.Blink
	case "esc", "ctrl+c":
		m.renaming = false
		m.rename.Blur()
		m.input.Focus()
		return m, textarea.Blink
	}
	var cmd tea.Cmd
	m.rename, cmd = m.rename.Update(msg)
	return m, cmd
}

// toggleSpeech reads the last audio-capable assistant message aloud, or stops
// the current playback.
func (m *Model) toggleSpeech() (tea.Model, tea.Cmd) {
	if m.speaking {
		m.voice.Stop()
		m.speaking = false
		return m, nil
	}
	cur, ok := m.ctrl.Current()
	if !ok {
		return m, nil
	}
	for i := len(cur.Messages) - 1; i >= 0; i-- {
		msg := cur.Messages[i]
		if msg.Sender == store.SenderAssistant && msg.SupportsAudio && strings.TrimSpace(msg.Content) != "" {
			ch := m.speechCh
			m.voice.Speak(msg.Content, func(s speech.Status) {
				select {
				case ch <- s:
				default:
				}
			})
			return m, waitForSpeech(ch)
		}
	}
	return m, nil
}

func (m *Model) cycleSession(forward bool) {
	if len(m.sessions) < 2 {
		return
	}
	idx := 0
	for i := range m.sessions {
		if m.sessions[i].ID == m.currentID {
			idx = i
			break
		}
	}
	if forward {
		idx = (idx + 1) % len(m.sessions)
	} else {
		idx = (idx - 1 + len(m.sessions)) % len(m.sessions)
	}
	m.ctrl.SwitchSession(m.sessions[idx].ID)
	m.refresh()
}
