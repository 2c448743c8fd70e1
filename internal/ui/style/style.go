// Package style provides shared UI styling primitives including the level
// palette and icons for consistent visual presentation across the CLI.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/devshell/internal/core/domain"
)

// Palette.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Grey   = lipgloss.Color("#98A2B3")
	Green  = lipgloss.Color("#22A06B")
	Teal   = lipgloss.Color("#0E9384")
	Red    = lipgloss.Color("#D93025")
	Maroon = lipgloss.Color("#912018")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Dot     = "●"
	Circle  = "○"
)

// LevelColor returns the color log lines of the given level are rendered in.
func LevelColor(level domain.LogLevel) lipgloss.Color {
	switch {
	case level >= domain.LogLevelCritical:
		return Maroon
	case level >= domain.LogLevelError:
		return Red
	case level >= domain.LogLevelSuccess:
		return Teal
	case level >= domain.LogLevelWarn:
		return Yellow
	case level >= domain.LogLevelNotice:
		return Iris
	case level >= domain.LogLevelInfo:
		return Green
	case level >= domain.LogLevelDebug:
		return Grey
	default:
		return Slate
	}
}

// LevelLabel returns the bracketed prefix of a level, or "" for levels printed bare.
func LevelLabel(level domain.LogLevel) string {
	switch {
	case level >= domain.LogLevelCritical:
		return "[CRITICAL]: "
	case level >= domain.LogLevelError:
		return "[ERROR]: "
	case level >= domain.LogLevelSuccess:
		return Check + " "
	case level >= domain.LogLevelWarn:
		return "[WARNING]: "
	default:
		return ""
	}
}

// StatusIcon returns the icon for a unit of work's outcome.
func StatusIcon(status domain.VertexStatus) string {
	switch status {
	case domain.VertexStatusCompleted:
		return Check
	case domain.VertexStatusFailed:
		return Cross
	case domain.VertexStatusCached:
		return Dot
	default:
		return Circle
	}
}
