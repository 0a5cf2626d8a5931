// Package tui implements a terminal keypad for the calculator.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lemonberrylabs/rpncalc/pkg/calculator"
	"github.com/lemonberrylabs/rpncalc/pkg/expr"
)

// maxHistory is the number of outcomes shown under the display.
const maxHistory = 8

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	displayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1).
			Align(lipgloss.Right)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	postfixStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type keyMap struct {
	Evaluate key.Binding
	Delete   key.Binding
	Clear    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Evaluate, k.Delete, k.Clear, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Evaluate, k.Delete, k.Clear}, {k.Help, k.Quit}}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Evaluate: key.NewBinding(key.WithKeys("enter", "="), key.WithHelp("enter/=", "evaluate")),
		Delete:   key.NewBinding(key.WithKeys("backspace", "delete"), key.WithHelp("⌫", "delete")),
		Clear:    key.NewBinding(key.WithKeys("esc", "c"), key.WithHelp("esc/c", "clear")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

// Model is the Bubble Tea model of the keypad.
type Model struct {
	calc     *calculator.Calculator
	keys     keyMap
	help     help.Model
	history  []calculator.Outcome
	width    int
	quitting bool
}

// New returns a keypad model with an empty expression.
func New() Model {
	return Model{
		calc:  calculator.New(),
		keys:  defaultKeyMap(),
		help:  help.New(),
		width: 40,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Evaluate):
			m.evaluate()
		case key.Matches(msg, m.keys.Delete):
			m.calc.DeleteLast()
		case key.Matches(msg, m.keys.Clear):
			m.calc.Clear()
		case msg.Type == tea.KeyRunes:
			for _, r := range msg.Runes {
				if string(r) == calculator.KeyEquals {
					m.evaluate()
					continue
				}
				// Keys outside the keypad are ignored.
				_ = m.calc.Press(string(r))
			}
		}
	}
	return m, nil
}

func (m *Model) evaluate() {
	out := m.calc.Evaluate()
	m.history = append([]calculator.Outcome{out}, m.history...)
	if len(m.history) > maxHistory {
		m.history = m.history[:maxHistory]
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("RPN Calculator"))
	b.WriteString("\n")

	width := m.width - 4
	if width < 20 {
		width = 20
	}
	display := m.calc.Display()
	if m.calc.Failed() {
		display = errorStyle.Render(display)
	}
	b.WriteString(displayStyle.Width(width).Render(display))
	b.WriteString("\n")

	if len(m.history) > 0 && m.history[0].Postfix != "" {
		b.WriteString(postfixStyle.Render("postfix: " + m.history[0].Postfix))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, out := range m.history {
		b.WriteString(formatOutcome(out))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Expression returns the current expression buffer.
func (m Model) Expression() string {
	return m.calc.Expression()
}

// Display returns the text currently shown on the display.
func (m Model) Display() string {
	return m.calc.Display()
}

func formatOutcome(out calculator.Outcome) string {
	if out.OK() {
		return okStyle.Render("✓ ") + fmt.Sprintf("%s = %s", out.Expression, expr.FormatResult(out.Result))
	}
	return failStyle.Render("✗ ") + fmt.Sprintf("%s: %v", out.Expression, out.Err)
}

// Run starts the keypad program and blocks until the user quits.
func Run(opts ...tea.ProgramOption) error {
	_, err := tea.NewProgram(New(), opts...).Run()
	return err
}
