package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reddar/internal/chat"
)

// model is the state of the chat screen: the conversation so far, the input
// line being typed, and whether a reply is in flight.
type model struct {
	session  *chat.Session
	messages []chat.Message
	input    string
	waiting  bool
	err      error
	width    int
	height   int
	quitting bool
}

// replyMsg carries the assistant's response back into the update loop.
type replyMsg struct {
	msg chat.Message
	err error
}

// InitialModel returns the chat screen over a session, preloading any stored
// history.
func InitialModel(session *chat.Session) model {
	history, _ := session.History()
	return model{session: session, messages: history}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.messages = append(m.messages, msg.msg)
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if m.waiting || strings.TrimSpace(m.input) == "" {
				return m, nil
			}
			text := m.input
			m.input = ""
			m.err = nil
			m.waiting = true
			m.messages = append(m.messages, chat.Message{Role: "user", Content: text})
			session := m.session
			return m, func() tea.Msg {
				reply, err := session.Send(context.Background(), text)
				return replyMsg{msg: reply, err: err}
			}
		case "backspace":
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		default:
			switch msg.Type {
			case tea.KeyRunes:
				m.input += string(msg.Runes)
			case tea.KeySpace:
				m.input += " "
			}
		}
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return "Bye!\n"
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	userStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	assistantStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("41")).Bold(true)
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Chat: %s", m.session.Report().FocusName)))
	sb.WriteString("\n\n")

	for _, msg := range m.messages {
		label := assistantStyle.Render("Assistant")
		if msg.Role == "user" {
			label = userStyle.Render("You")
		}
		sb.WriteString(label + ": " + msg.Content + "\n\n")
	}

	if m.waiting {
		sb.WriteString(assistantStyle.Render("Assistant") + ": thinking...\n\n")
	}
	if m.err != nil {
		sb.WriteString(errStyle.Render("Error: "+m.err.Error()) + "\n\n")
	}

	sb.WriteString("> " + m.input + "█\n")
	sb.WriteString("\n[enter] Send | [esc] Quit")

	return sb.String()
}

// StartChat runs the chat screen until the user quits.
func StartChat(session *chat.Session) {
	p := tea.NewProgram(InitialModel(session), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running chat: %v\n", err)
		os.Exit(1)
	}
}
