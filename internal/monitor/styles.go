package monitor

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette for the live monitor
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // available devices
	ErrorColor   = lipgloss.Color("#FF5555") // unavailable devices
	WarningColor = lipgloss.Color("#FFA500") // stale data
	MutedColor   = lipgloss.Color("#626262") // secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // main content
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(PrimaryColor).
			Bold(true).
			Padding(0, 1)

	headerRowStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Bold(true)

	availableStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	unavailableStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	cellStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingTop(1)
)

// terminalWidth returns the current terminal width, falling back to 80
// columns when stdout is not a terminal.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
