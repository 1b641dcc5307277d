// Package colors provides terminal color support for treestream output.
//
// Colors are disabled when NO_COLOR is set, when TERM is dumb or empty,
// or when stdout is not a terminal. FORCE_COLOR overrides detection.
package colors

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// ANSI color codes
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"
	ColorGray  = "\033[90m"

	BrightRed     = "\033[91m"
	BrightGreen   = "\033[92m"
	BrightYellow  = "\033[93m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
)

// colorEnabled determines if color output should be used
var colorEnabled = shouldUseColor()

// shouldUseColor determines if the terminal supports colors
func shouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	// On Windows, check if we're in a modern terminal
	if runtime.GOOS == "windows" {
		term := strings.ToLower(os.Getenv("TERM"))
		wt := os.Getenv("WT_SESSION")
		vscode := os.Getenv("VSCODE_PID")

		return wt != "" || vscode != "" || strings.Contains(term, "color") || strings.Contains(term, "xterm")
	}

	term := strings.ToLower(os.Getenv("TERM"))
	if term == "dumb" || term == "" {
		return false
	}

	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}

	return true
}

// SetColorEnabled allows manual control of color output
func SetColorEnabled(enabled bool) {
	colorEnabled = enabled
}

// IsColorEnabled returns whether colors are currently enabled
func IsColorEnabled() bool {
	return colorEnabled
}

// colorize applies color to text if colors are enabled
func colorize(text, color string) string {
	if !colorEnabled {
		return text
	}
	return color + text + ColorReset
}

func Red(text string) string { return colorize(text, BrightRed) }
func Green(text string) string { return colorize(text, BrightGreen) }
func Yellow(text string) string { return colorize(text, BrightYellow) }
func Cyan(text string) string { return colorize(text, BrightCyan) }
func Magenta(text string) string { return colorize(text, BrightMagenta) }
func Gray(text string) string { return colorize(text, ColorGray) }
func Bold(text string) string { return colorize(text, ColorBold) }
func Dim(text string) string { return colorize(text, ColorDim) }

// Record kind markers used by inspect --records
func AppendMarker() string { return Green("+") }
func ForkMarker() string { return Magenta("Y") }

// NodeID renders a node id the way artifact names do
func NodeID(id uint32) string {
	return Cyan(fmt.Sprintf("%04d", id))
}

// Section headers with colors
func SectionHeader(text string) string {
	return Bold(text)
}

func ErrorText(text string) string {
	return Red(text)
}

func SuccessText(text string) string {
	return Green(text)
}

func InfoText(text string) string {
	return Cyan(text)
}

func WarningText(text string) string {
	return Yellow(text)
}
