package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the colors of the viewer, resolved against a renderer so tests
// can force a color profile.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Text      lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Link      lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor
}

// DefaultTheme returns the Dracula-inspired palette.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return Theme{
		Renderer:  r,
		Primary:   lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: string(ColorPrimary)},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: string(ColorSecondary)},
		Text:      lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: string(ColorText)},
		Subtext:   lipgloss.AdaptiveColor{Light: "#444444", Dark: string(ColorSubtext)},
		Muted:     lipgloss.AdaptiveColor{Light: "#888888", Dark: string(ColorMuted)},
		Border:    lipgloss.AdaptiveColor{Light: "#CCCCCC", Dark: string(ColorBgHighlight)},
		Highlight: lipgloss.AdaptiveColor{Light: "#D6336C", Dark: string(ColorAccent)},
		Link:      lipgloss.AdaptiveColor{Light: "#0969DA", Dark: string(ColorInfo)},
		Error:     lipgloss.AdaptiveColor{Light: "#CF222E", Dark: string(ColorDanger)},
	}
}
