package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpOverlayModel shows keyboard and mouse help
type HelpOverlayModel struct {
	visible bool
	width   int
	height  int
	theme   Theme
	keys    KeyMap
}

// NewHelpOverlayModel creates a new help overlay
func NewHelpOverlayModel(theme Theme, keys KeyMap) HelpOverlayModel {
	return HelpOverlayModel{
		theme: theme,
		keys:  keys,
	}
}

// Show makes the help overlay visible
func (m *HelpOverlayModel) Show() {
	m.visible = true
}

// Hide makes the help overlay invisible
func (m *HelpOverlayModel) Hide() {
	m.visible = false
}

// Toggle toggles visibility
func (m *HelpOverlayModel) Toggle() {
	m.visible = !m.visible
}

// IsVisible returns true if overlay is showing
func (m HelpOverlayModel) IsVisible() bool {
	return m.visible
}

// SetSize sets dimensions
func (m *HelpOverlayModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles input
func (m HelpOverlayModel) Update(msg tea.Msg) (HelpOverlayModel, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	switch msg.(type) {
	case tea.KeyMsg:
		// Any key closes help
		m.visible = false
	}

	return m, nil
}

// View renders the help overlay
func (m HelpOverlayModel) View() string {
	if !m.visible {
		return ""
	}

	var b strings.Builder

	titleStyle := m.theme.Renderer.NewStyle().
		Bold(true).
		Foreground(m.theme.Primary).
		MarginBottom(1)
	b.WriteString(titleStyle.Render("Carousel Help"))
	b.WriteString("\n\n")

	sectionStyle := m.theme.Renderer.NewStyle().Bold(true).Foreground(m.theme.Secondary)
	keyStyle := m.theme.Renderer.NewStyle().Foreground(m.theme.Primary).Width(12)
	descStyle := m.theme.Renderer.NewStyle().Foreground(m.theme.Subtext)

	section := func(title string, bindings []key.Binding) {
		b.WriteString(sectionStyle.Render(title) + "\n")
		for _, k := range bindings {
			h := k.Help()
			b.WriteString("  " + keyStyle.Render(h.Key) + descStyle.Render(h.Desc) + "\n")
		}
		b.WriteString("\n")
	}
	section("NAVIGATION", []key.Binding{m.keys.Prev, m.keys.Next, m.keys.First, m.keys.Last})
	section("SLIDE", []key.Binding{m.keys.Open, m.keys.Copy, m.keys.Search})

	// Mouse section
	b.WriteString(sectionStyle.Render("MOUSE") + "\n")
	mouse := []struct{ key, desc string }{
		{"drag", "Swipe between slides"},
		{"flick", "Fast swipe skips ahead"},
		{"click", "Follow the slide link"},
		{GlyphPrev + " " + GlyphNext, "Previous / next"},
		{GlyphDotInactive, "Jump to slide"},
		{"wheel", "Previous / next"},
	}
	for _, s := range mouse {
		b.WriteString("  " + keyStyle.Render(s.key) + descStyle.Render(s.desc) + "\n")
	}
	b.WriteString("\n")

	section("VIEW", []key.Binding{m.keys.Reload, m.keys.Help, m.keys.Quit})

	hintStyle := m.theme.Renderer.NewStyle().Faint(true).Italic(true)
	b.WriteString(hintStyle.Render("[Press any key to close]"))

	// Wrap in box
	boxStyle := m.theme.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Border).
		Padding(1, 2)

	box := boxStyle.Render(b.String())
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}
