package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - passed checks
	ErrorColor   = lipgloss.Color("#FF5555") // Red - failed checks
	WarningColor = lipgloss.Color("#FFA500") // Orange - running checks
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 100
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true).
			PaddingLeft(2)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(2)

	KeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(14)

	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	PassStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	RunningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	PendingStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	NoteStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	FailStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)
)

// Status markers
const (
	MarkerPass    = "✓"
	MarkerFail    = "✗"
	MarkerRunning = "●"
	MarkerPending = "·"
)

// GetTerminalWidth returns the stdout terminal width clamped to the layout
// limits, or MinTerminalWidth when stdout is not a terminal.
func GetTerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return MinTerminalWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}
