// Package display renders CLI output: colours, status styling and aligned tables.
//
// It respects the NO_COLOR environment variable (https://no-color.org/) and
// detects whether stdout is a terminal. Colors are automatically disabled when
// output is piped or redirected, or when NO_COLOR is set.
package display

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var renderer = lipgloss.NewRenderer(os.Stdout)

var (
	boldStyle   = renderer.NewStyle().Bold(true)
	dimStyle    = renderer.NewStyle().Faint(true)
	greenStyle  = renderer.NewStyle().Foreground(lipgloss.Color("2"))
	yellowStyle = renderer.NewStyle().Foreground(lipgloss.Color("3"))
	cyanStyle   = renderer.NewStyle().Foreground(lipgloss.Color("6"))
	grayStyle   = renderer.NewStyle().Foreground(lipgloss.Color("8"))
	accentStyle = renderer.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
)

// enabled reports whether color output is active.
// It is set once at init time.
var enabled bool

func init() {
	SetEnabled(shouldEnable())
}

// shouldEnable determines whether to use color output.
func shouldEnable() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return true
	}
	return isTerminal(os.Stdout)
}

// isTerminal reports whether f is connected to a terminal.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// SetEnabled overrides the auto-detected color state.
// Useful for testing or when --json forces plain output.
func SetEnabled(b bool) {
	enabled = b
	if b {
		renderer.SetColorProfile(termenv.ANSI)
	} else {
		renderer.SetColorProfile(termenv.Ascii)
	}
}

// Enabled reports whether color output is currently active.
func Enabled() bool {
	return enabled
}

func render(s lipgloss.Style, text string) string {
	if !enabled {
		return text
	}
	return s.Render(text)
}

// Bold returns text rendered in bold.
func Bold(text string) string { return render(boldStyle, text) }

// Dim returns text rendered in dim/faint.
func Dim(text string) string { return render(dimStyle, text) }

// Green returns text rendered in green.
func Green(text string) string { return render(greenStyle, text) }

// Yellow returns text rendered in yellow.
func Yellow(text string) string { return render(yellowStyle, text) }

// Cyan returns text rendered in cyan.
func Cyan(text string) string { return render(cyanStyle, text) }

// Gray returns text rendered in gray.
func Gray(text string) string { return render(grayStyle, text) }

// Accent returns text rendered in the accent color (cyan + bold).
// Used for the "next prayer" highlight.
func Accent(text string) string { return render(accentStyle, text) }

// Boldf formats and bolds a string.
func Boldf(format string, a ...any) string {
	return Bold(fmt.Sprintf(format, a...))
}
