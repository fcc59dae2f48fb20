package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Dracula-inspired
// ══════════════════════════════════════════════════════════════════════════════

var (
	// Base colors
	ColorBgHighlight = lipgloss.Color("#44475A")
	ColorText        = lipgloss.Color("#F8F8F2")
	ColorSubtext     = lipgloss.Color("#BFBFBF")
	ColorMuted       = lipgloss.Color("#6272A4")

	// Accent colors
	ColorPrimary   = lipgloss.Color("#BD93F9")
	ColorSecondary = lipgloss.Color("#6272A4")
	ColorAccent    = lipgloss.Color("#FF79C6")
	ColorInfo      = lipgloss.Color("#8BE9FD")
	ColorDanger    = lipgloss.Color("#FF5555")
)

// Navigation glyphs.
const (
	GlyphDotActive   = "●"
	GlyphDotInactive = "○"
	GlyphPrev        = "‹"
	GlyphNext        = "›"
	GlyphLink        = "↗"
)

// RenderNavDot renders one navigation button.
func RenderNavDot(active bool, t Theme) string {
	if active {
		return t.Renderer.NewStyle().Foreground(t.Highlight).Bold(true).Render(GlyphDotActive)
	}
	return t.Renderer.NewStyle().Foreground(t.Muted).Render(GlyphDotInactive)
}

// RenderSideButton renders a previous/next column of the given height with
// the glyph centered vertically.
func RenderSideButton(glyph string, height int, t Theme) string {
	if height <= 0 {
		return ""
	}
	lines := make([]string, height)
	blank := strings.Repeat(" ", SideNavWidth)
	for i := range lines {
		lines[i] = blank
	}
	lines[height/2] = t.Renderer.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		Width(SideNavWidth).
		Align(lipgloss.Center).
		Render(glyph)
	return strings.Join(lines, "\n")
}
