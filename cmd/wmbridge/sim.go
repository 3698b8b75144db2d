package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/wmbridge/errors"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const historyLimit = 200

func newSimCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sim",
		Short: "Interactive compositor simulator with the rc script attached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
				return errors.Usage(errors.PhaseHost, "sim", "interactive mode needs a terminal; use check for scripted runs")
			}
			s, err := newSession(rootOpts.cfg, rootOpts.log)
			if err != nil {
				return err
			}
			p := tea.NewProgram(newSimModel(s), tea.WithAltScreen())
			_, err = p.Run()
			for _, e := range s.close() {
				fmt.Fprintf(cmd.ErrOrStderr(), "leak %s refs=%d valid=%t\n", e.ID, e.Refs, e.Valid)
			}
			return err
		},
	}
}

type historyLine struct {
	text  string
	style lipgloss.Style
}

type simModel struct {
	session *session
	input   textinput.Model
	history []historyLine
	height  int
	width   int
}

func newSimModel(s *session) *simModel {
	ti := textinput.New()
	ti.Prompt = "wm> "
	ti.Placeholder = "help"
	ti.Width = 60
	ti.Focus()
	return &simModel{session: s, input: ti}
}

func (m *simModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *simModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(20, msg.Width-10)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "quit" || line == "exit" {
				return m, tea.Quit
			}
			m.run(line)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *simModel) run(line string) {
	if line == "" {
		return
	}
	m.push("> "+line, helpStyle)
	out, err := m.session.exec(line)
	for _, l := range strings.Split(out, "\n") {
		if l == "" {
			continue
		}
		if strings.HasPrefix(l, "event ") {
			m.push(l, eventStyle)
		} else {
			m.push(l, resultStyle)
		}
	}
	if err != nil {
		m.push("error: "+err.Error(), errorStyle)
	}
}

func (m *simModel) push(text string, style lipgloss.Style) {
	m.history = append(m.history, historyLine{text: text, style: style})
	if len(m.history) > historyLimit {
		m.history = m.history[len(m.history)-historyLimit:]
	}
}

func (m *simModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("wmbridge"))
	b.WriteString(" ")
	b.WriteString(helpStyle.Render("session " + m.session.bridge.Session()))
	b.WriteString("\n\n")

	b.WriteString(panelStyle.Render(m.session.list() + "\n" + m.session.stats()))
	b.WriteString("\n\n")

	// Keep the newest lines that fit between the panel and the prompt.
	room := len(m.history)
	if m.height > 0 {
		room = max(3, m.height-lipgloss.Height(b.String())-4)
	}
	start := max(0, len(m.history)-room)
	for _, l := range m.history[start:] {
		b.WriteString(l.style.Render(l.text))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter run • help commands • esc quit"))
	return b.String()
}
