package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette for the watch UI
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor   = lipgloss.Color("#43BF6D") // Green - live services
	ErrorColor     = lipgloss.Color("#FF5555") // Red - departures, errors
	MutedColor     = lipgloss.Color("#626262") // Gray - secondary info
	TextColor      = lipgloss.Color("#FFFFFF") // White - main content
	HighlightColor = lipgloss.Color("#AD8EE6") // Light purple - selection
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
)

// Shared styles for the watch UI
var (
	// TitleStyle is for the screen title bar
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(PrimaryColor).
			Bold(true).
			Padding(0, 1)

	// IdentityStyle is for the group/node identity line under the title
	IdentityStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(2)

	// SpinnerStyle is for the scanning spinner
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	// EmptyStyle is for the "no services yet" placeholder
	EmptyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(2).
			PaddingTop(1)

	// EventStyle is for the most-recent-event footer line
	EventStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(2)

	// DepartedEventStyle highlights a departure in the footer
	DepartedEventStyle = lipgloss.NewStyle().
				Foreground(ErrorColor).
				PaddingLeft(2)

	// HelpStyle is for the key binding help line
	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(2).
			PaddingTop(1)
)

// GetTerminalWidth returns the current terminal width, clamped to the
// supported range. Falls back to the minimum when not a terminal.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}
