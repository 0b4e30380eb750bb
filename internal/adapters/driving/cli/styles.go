package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	defaultWidth = 80
	minWidth     = 40
)

// Colour palette for terminal output.
var (
	colourPrimary = lipgloss.Color("#7C3AED")
	colourAccent  = lipgloss.Color("#06B6D4")
	colourMuted   = lipgloss.Color("#6C7086")
	colourSuccess = lipgloss.Color("#A6E3A1")
	colourWarning = lipgloss.Color("#F9E2AF")
	colourError   = lipgloss.Color("#F38BA8")
)

// styles holds the lipgloss styles used by command output.
type styles struct {
	Title     lipgloss.Style
	Source    lipgloss.Style
	Relevance lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Body      lipgloss.Style
}

func newStyles(width int) styles {
	return styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(colourPrimary),
		Source:    lipgloss.NewStyle().Bold(true).Foreground(colourAccent),
		Relevance: lipgloss.NewStyle().Foreground(colourSuccess),
		Muted:     lipgloss.NewStyle().Foreground(colourMuted),
		Success:   lipgloss.NewStyle().Foreground(colourSuccess),
		Warning:   lipgloss.NewStyle().Foreground(colourWarning),
		Error:     lipgloss.NewStyle().Foreground(colourError),
		Body:      lipgloss.NewStyle().PaddingLeft(4).Width(width),
	}
}

// terminalWidth returns the width of stdout, or a default when it is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w < minWidth {
		return defaultWidth
	}
	return w
}
