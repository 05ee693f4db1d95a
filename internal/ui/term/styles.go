package term

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// Styles used for summaries printed by the CLI.
var (
	HeadingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	CountStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	FailureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Heading renders a section heading followed by a count, e.g. "Records  12".
func (p *Printer) Heading(title string, count int) string {
	if !p.Color {
		return title + "  " + strconv.Itoa(count)
	}
	return HeadingStyle.Render(title) + "  " + CountStyle.Render(strconv.Itoa(count))
}

// Failure renders a failed query line.
func (p *Printer) Failure(text string) string {
	if !p.Color {
		return text
	}
	return FailureStyle.Render(text)
}

// Muted renders secondary text.
func (p *Printer) Muted(text string) string {
	if !p.Color {
		return text
	}
	return MutedStyle.Render(text)
}

