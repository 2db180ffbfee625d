package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/alfredjeanlab/board/internal/model"
)

// ANSI256 colors matching the Ayu palette.
const (
	colorAccent = "74"  // blue
	colorCmd    = "250" // light gray
	colorMuted  = "245" // medium gray
	colorBorder = "238"
	colorUrgent = "196"
	colorHigh   = "214"
	colorMedium = "220"
	colorLow    = "109"
)

var noColor bool

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

// ColorEnabled reports whether output should carry ANSI colors.
func ColorEnabled() bool {
	return !noColor && ShouldUseColor()
}

func fg(s lipgloss.Style, color string, enabled bool) lipgloss.Style {
	if !enabled {
		return s
	}
	return s.Foreground(lipgloss.Color(color))
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	return fg(lipgloss.NewStyle(), colorAccent, !noColor).Render(s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	return fg(lipgloss.NewStyle(), colorMuted, !noColor).Render(s)
}

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string {
	return fg(lipgloss.NewStyle(), colorCmd, !noColor).Render(s)
}

// Styles is the style table used by the board renderer.
type Styles struct {
	Column   lipgloss.Style
	Header   lipgloss.Style
	Count    lipgloss.Style
	Card     lipgloss.Style
	ID       lipgloss.Style
	Avatar   lipgloss.Style
	Tag      lipgloss.Style
	priority map[model.IconKind]lipgloss.Style
}

// NewStyles builds the style table. With color false only layout (borders,
// padding, bold) is applied.
func NewStyles(color bool) Styles {
	border := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	if color {
		border = border.BorderForeground(lipgloss.Color(colorBorder))
	}
	return Styles{
		Column: border,
		Header: fg(lipgloss.NewStyle().Bold(true), colorAccent, color),
		Count:  fg(lipgloss.NewStyle(), colorMuted, color),
		Card:   lipgloss.NewStyle().MarginTop(1),
		ID:     fg(lipgloss.NewStyle(), colorMuted, color),
		Avatar: fg(lipgloss.NewStyle().Bold(true), colorCmd, color),
		Tag:    fg(lipgloss.NewStyle(), colorAccent, color),
		priority: map[model.IconKind]lipgloss.Style{
			model.IconCircleNone:   fg(lipgloss.NewStyle(), colorMuted, color),
			model.IconCircleLow:    fg(lipgloss.NewStyle(), colorLow, color),
			model.IconCircleMedium: fg(lipgloss.NewStyle(), colorMedium, color),
			model.IconCircleHigh:   fg(lipgloss.NewStyle(), colorHigh, color),
			model.IconAlert:        fg(lipgloss.NewStyle().Bold(true), colorUrgent, color),
		},
	}
}

// StyleForPriority returns the badge style for a priority icon.
func (s Styles) StyleForPriority(icon model.IconKind) lipgloss.Style {
	if st, ok := s.priority[icon]; ok {
		return st
	}
	return s.priority[model.IconCircleNone]
}

// Glyph returns the terminal glyph drawn for a priority icon.
func Glyph(icon model.IconKind) string {
	switch icon {
	case model.IconCircleLow:
		return "▂"
	case model.IconCircleMedium:
		return "▄"
	case model.IconCircleHigh:
		return "▆"
	case model.IconAlert:
		return "!"
	default:
		return "·"
	}
}
