package shell

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	outputStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// maxScrollback bounds the retained output lines.
const maxScrollback = 500

type model struct {
	session *Session
	input   textinput.Model
	lines   []string
	width   int
	done    bool
}

// Run starts the interactive shell over stdin/stdout and blocks until the
// user exits.
func Run(session *Session) error {
	m := newModel(session)
	_, err := tea.NewProgram(m).Run()
	return err
}

func newModel(session *Session) *model {
	input := textinput.New()
	input.Prompt = session.Prompt()
	input.PromptStyle = promptStyle
	input.Focus()
	return &model{session: session, input: input, width: 80}
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - runewidth.StringWidth(m.input.Prompt) - 1
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			m.done = true
			return m, tea.Quit
		case tea.KeyEnter:
			line := m.input.Value()
			m.appendLine(m.session.Prompt() + line)
			for _, out := range m.session.Submit(line) {
				m.appendLine(out)
			}
			m.input.SetValue("")
			m.input.Prompt = m.session.Prompt()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxScrollback {
		m.lines = m.lines[len(m.lines)-maxScrollback:]
	}
}

func (m *model) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	for _, line := range m.lines {
		if strings.HasPrefix(line, "> ") || strings.HasPrefix(line, ">>> ") || strings.HasPrefix(line, "... ") {
			b.WriteString(outputStyle.Render(line))
		} else if line == "expression mode" || line == "statement mode" {
			b.WriteString(noticeStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	return b.String()
}
