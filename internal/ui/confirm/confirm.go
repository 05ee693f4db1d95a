// Package confirm asks a yes/no question in a small bordered dialog.
package confirm

import (
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/buddy/internal/tool"
)

// Field identifies the focused button.
type Field int

const (
	FieldConfirm Field = iota
	FieldCancel
)

var (
	borderColor = lipgloss.Color("8")
	titleColor  = lipgloss.Color("13")

	buttonStyle        = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("7")).Background(lipgloss.Color("0"))
	confirmFocused     = lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	cancelFocusedStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
)

// Model is a confirmation dialog. It quits the program once the user decides.
type Model struct {
	title   string
	message string
	focused Field
	decided bool
	yes     bool
}

// New creates a dialog with Confirm focused.
func New(title, message string) Model {
	return Model{title: title, message: message}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "tab", "shift+tab":
		m.focused = 1 - m.focused
	case "left", "h":
		m.focused = FieldConfirm
	case "right", "l":
		m.focused = FieldCancel
	case "y", "Y":
		return m.decide(true)
	case "n", "N", "esc", "ctrl+c":
		return m.decide(false)
	case "enter":
		return m.decide(m.focused == FieldConfirm)
	}
	return m, nil
}

func (m Model) decide(yes bool) (tea.Model, tea.Cmd) {
	m.decided, m.yes = true, yes
	return m, tea.Quit
}

// Confirmed reports whether the user accepted.
func (m Model) Confirmed() bool { return m.decided && m.yes }

// Decided reports whether the user answered at all.
func (m Model) Decided() bool { return m.decided }

// Focused returns the focused button.
func (m Model) Focused() Field { return m.focused }

func (m Model) View() string {
	if m.decided {
		return ""
	}
	contentWidth := max(40, lipgloss.Width(m.title))
	boxWidth := contentWidth + 2

	title := lipgloss.NewStyle().Bold(true).Foreground(titleColor).PaddingLeft(1).Render(m.title)
	divider := lipgloss.NewStyle().Foreground(borderColor).Render(strings.Repeat("─", boxWidth))

	var content strings.Builder
	if m.message != "" {
		content.WriteString(lipgloss.NewStyle().Width(contentWidth).Render(m.message))
		content.WriteString("\n\n")
	}
	content.WriteString(m.renderButtons())

	body := title + "\n" + divider + "\n" + lipgloss.NewStyle().Padding(1, 1).Render(content.String())
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(boxWidth).
		Render(body) + "\n"
}

func (m Model) renderButtons() string {
	yes, no := buttonStyle, buttonStyle
	if m.focused == FieldConfirm {
		yes = confirmFocused
	} else {
		no = cancelFocusedStyle
	}
	return yes.Render("Confirm") + "  " + no.Render("Cancel")
}

// Asker puts questions to the user through the dialog.
type Asker struct {
	Title string
	In    io.Reader
	Out   io.Writer
}

var _ tool.Asker = (*Asker)(nil)

// Ask runs the dialog until the user answers. Quitting without an answer
// counts as no.
func (a *Asker) Ask(prompt string) (bool, error) {
	title := a.Title
	if title == "" {
		title = "Confirm"
	}
	opts := []tea.ProgramOption{}
	if a.In != nil {
		opts = append(opts, tea.WithInput(a.In))
	}
	if a.Out != nil {
		opts = append(opts, tea.WithOutput(a.Out))
	}
	final, err := tea.NewProgram(New(title, prompt), opts...).Run()
	if err != nil {
		return false, err
	}
	return final.(Model).Confirmed(), nil
}
