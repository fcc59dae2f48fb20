package ui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"

	"github.com/Dicklesworthstone/carousel/pkg/slide"
	"github.com/Dicklesworthstone/carousel/pkg/slider"
)

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.overlay.IsVisible() {
		return m.overlay.View()
	}

	var rows []string
	rows = append(rows, m.renderHeader())

	container := m.host.part(slider.RoleContainer)
	if m.inert || !container.display || m.contentCols() < MinContentWidth {
		msg := "No slides to show"
		if m.contentCols() < MinContentWidth && container.display {
			msg = "Terminal too narrow"
		}
		empty := m.theme.Renderer.NewStyle().Foreground(m.theme.Muted).Italic(true).Render(msg)
		rows = append(rows, lipgloss.Place(m.width, m.stripRows()+NavRows, lipgloss.Center, lipgloss.Center, empty))
	} else {
		rows = append(rows, m.renderStrip()...)
		rows = append(rows, m.renderDots())
		for used := HeaderRows + m.slideRows() + NavRows; used < HeaderRows+m.stripRows()+NavRows; used++ {
			rows = append(rows, "")
		}
	}

	rows = append(rows, m.renderFooter()...)
	return strings.Join(rows, "\n")
}

func (m *Model) renderHeader() string {
	title := m.deck.Title
	if title == "" && m.deck.Path != "" {
		title = filepath.Base(m.deck.Dir())
	}
	if title == "" {
		title = "carousel"
	}
	left := m.theme.Renderer.NewStyle().Bold(true).Foreground(m.theme.Primary).Render(title)

	right := ""
	if n := m.slider.Len(); n > 0 {
		right = m.theme.Renderer.NewStyle().Foreground(m.theme.Subtext).
			Render(fmt.Sprintf("%d/%d", m.slider.Index()+1, n))
	}
	gap := m.width - ansi.StringWidth(left) - ansi.StringWidth(right)
	if gap < 1 {
		return ansi.Truncate(left, m.width, "…")
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderStrip composes the visible slides into the strip rows, with the
// side buttons on either side.
func (m *Model) renderStrip() []string {
	cols, rows := m.contentCols(), m.slideRows()
	at := m.now()
	width := float64(cols * m.opts.CellWidth)

	type placed struct {
		x     int
		lines []string
	}
	var visible []placed
	for _, e := range m.slider.Active() {
		v, ok := e.Element.(*slideView)
		if !ok || !v.Visible() {
			continue
		}
		px, opacity := v.offset(width, at)
		x := int(px/float64(m.opts.CellWidth) + signHalf(px))
		if opacity < 0.5 || x <= -cols || x >= cols {
			continue
		}
		visible = append(visible, placed{x: x, lines: m.frame(v, cols, rows)})
	}
	sort.SliceStable(visible, func(i, j int) bool { return visible[i].x < visible[j].x })

	out := make([]string, rows)
	for r := 0; r < rows; r++ {
		var b strings.Builder
		cursor := 0
		for _, p := range visible {
			start := max(p.x, cursor)
			end := min(p.x+cols, cols)
			if end <= start {
				continue
			}
			if start > cursor {
				b.WriteString(strings.Repeat(" ", start-cursor))
			}
			b.WriteString(ansi.Cut(p.lines[r], start-p.x, end-p.x))
			cursor = end
		}
		if cursor < cols {
			b.WriteString(strings.Repeat(" ", cols-cursor))
		}
		out[r] = b.String()
	}

	if !m.sideNavShown() {
		return out
	}
	strip := lipgloss.JoinHorizontal(lipgloss.Top,
		RenderSideButton(GlyphPrev, rows, m.theme),
		strings.Join(out, "\n"),
		RenderSideButton(GlyphNext, rows, m.theme),
	)
	return strings.Split(strip, "\n")
}

func signHalf(v float64) float64 {
	if v < 0 {
		return -0.5
	}
	return 0.5
}

// frame returns the lines of a slide padded to exactly cols x rows. Expanded
// slides are centered vertically, others are top aligned.
func (m *Model) frame(v *slideView, cols, rows int) []string {
	lines := m.slideLines(v.Slide, cols)
	if len(lines) > rows {
		lines = lines[:rows]
	}
	top := 0
	if v.Expanded() {
		top = (rows - len(lines)) / 2
	}
	out := make([]string, rows)
	for i := range out {
		j := i - top
		line := ""
		if j >= 0 && j < len(lines) {
			line = lines[j]
		}
		out[i] = padRight(line, cols)
	}
	return out
}

func padRight(s string, width int) string {
	w := ansi.StringWidth(s)
	if w > width {
		return ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-w)
}

// slideLines returns the intrinsic content of a slide: the image, or a
// placeholder until it loads, then the title and the link.
func (m *Model) slideLines(s *slide.Slide, cols int) []string {
	if cols <= 0 {
		return nil
	}
	var title []string
	if s.Title() != "" {
		title = m.titleLines(s.Title(), cols)
	}
	reserved := len(title)
	if s.Link() != "" {
		reserved += LinkRows
	}
	artRows := max(m.stripRows()-reserved, MinArtRows)

	var lines []string
	src := s.Src()
	muted := m.theme.Renderer.NewStyle().Foreground(m.theme.Muted)
	switch {
	case src == "":
		lines = append(lines, "")
	case m.images[src] != nil:
		lines = append(lines, m.art(src, cols, artRows)...)
	case m.failed[src] != nil:
		name := runewidth.Truncate(filepath.Base(src), max(cols-2, 1), "…")
		lines = append(lines, lipgloss.PlaceHorizontal(cols, lipgloss.Center,
			m.theme.Renderer.NewStyle().Foreground(m.theme.Error).Render("⚠ "+name)))
	default:
		name := runewidth.Truncate(filepath.Base(src), max(cols-11, 1), "…")
		lines = append(lines, lipgloss.PlaceHorizontal(cols, lipgloss.Center, muted.Render("loading "+name)))
	}

	lines = append(lines, title...)
	if link := s.Link(); link != "" {
		text := truncate.StringWithTail(GlyphLink+" "+link, uint(cols), "…")
		lines = append(lines, lipgloss.PlaceHorizontal(cols, lipgloss.Center,
			m.theme.Renderer.NewStyle().Foreground(m.theme.Link).Underline(true).Render(text)))
	}
	return lines
}

// art returns the cached half-block rendering of a loaded image, centered
// in cols.
func (m *Model) art(src string, cols, maxRows int) []string {
	key := artKey{src: src, cols: cols, rows: maxRows}
	if lines, ok := m.arts[key]; ok {
		return lines
	}
	img := m.images[src]
	b := img.Bounds()
	w, h := artSize(b.Dx(), b.Dy(), cols, maxRows, m.opts.CellWidth, m.opts.CellHeight)
	lines := renderArt(img, w, h, m.theme)
	for i := range lines {
		lines[i] = lipgloss.PlaceHorizontal(cols, lipgloss.Center, lines[i])
	}
	m.arts[key] = lines
	return lines
}

// titleLines renders a title as markdown wrapped to cols.
func (m *Model) titleLines(title string, cols int) []string {
	key := titleKey{title: title, cols: cols}
	if lines, ok := m.titles[key]; ok {
		return lines
	}

	rendered := title
	if r := m.glamourFor(cols); r != nil {
		if out, err := r.Render(title); err == nil {
			rendered = out
		}
	}
	var lines []string
	for _, line := range strings.Split(rendered, "\n") {
		if strings.TrimSpace(ansi.Strip(line)) == "" {
			continue
		}
		lines = append(lines, ansi.Truncate(line, cols, "…"))
	}
	m.titles[key] = lines
	return lines
}

func (m *Model) glamourFor(cols int) *glamour.TermRenderer {
	if r, ok := m.glam[cols]; ok {
		return r
	}
	style := "dark"
	switch {
	case m.theme.Renderer.ColorProfile() == termenv.Ascii:
		style = "notty"
	case !m.theme.Renderer.HasDarkBackground():
		style = "light"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(cols),
	)
	if err != nil {
		r = nil
	}
	m.glam[cols] = r
	return r
}

// dotLayout positions the attached navigation dots centered under the strip.
func (m *Model) dotLayout() []dotHit {
	buttons := m.host.attached()
	if len(buttons) == 0 || !m.host.part(slider.RoleButtons).display {
		return nil
	}
	total := 2*len(buttons) - 1
	x := m.contentX() + max((m.contentCols()-total)/2, 0)
	y := HeaderRows + m.slideRows()
	hits := make([]dotHit, len(buttons))
	for i, b := range buttons {
		hits[i] = dotHit{x: x + 2*i, y: y, index: b.index}
	}
	return hits
}

func (m *Model) renderDots() string {
	buttons := m.host.attached()
	hits := m.dotLayout()
	if len(hits) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", hits[0].x))
	for i, btn := range buttons {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(RenderNavDot(btn.active, m.theme))
	}
	return b.String()
}

func (m *Model) renderFooter() []string {
	var status string
	switch {
	case m.searching:
		status = m.search.View()
		if len(m.matches) > 0 {
			var names []string
			for _, match := range m.matches {
				names = append(names, match.Str)
				if len(names) == 3 {
					break
				}
			}
			status += "  " + m.theme.Renderer.NewStyle().Foreground(m.theme.Muted).
				Render(strings.Join(names, " · "))
		}
	case m.status != "":
		color := m.theme.Secondary
		if m.statusErr {
			color = m.theme.Error
		}
		status = m.theme.Renderer.NewStyle().Foreground(color).Render(m.status)
	default:
		status = m.theme.Renderer.NewStyle().Foreground(m.theme.Muted).Render(m.summary())
	}
	lines := []string{ansi.Truncate(status, m.width, "…")}
	if m.footerRows() > 1 {
		lines = append(lines, ansi.Truncate(m.help.View(m.keys), m.width, "…"))
	}
	return lines
}

// summary describes the slider state for the status line.
func (m *Model) summary() string {
	layout := "desktop"
	if m.slider.Mobile() {
		layout = "mobile"
	}
	parts := []string{
		"lazy: " + m.slider.Mode().String(),
		layout,
		fmt.Sprintf("%d images loaded", m.slider.Loaded()),
	}
	if v := m.current(); v != nil && v.Link() != "" {
		parts = append(parts, "click to open link")
	}
	return strings.Join(parts, " · ")
}
