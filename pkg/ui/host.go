package ui

import (
	"sort"
	"time"

	"github.com/Dicklesworthstone/carousel/pkg/geometry"
	"github.com/Dicklesworthstone/carousel/pkg/slide"
	"github.com/Dicklesworthstone/carousel/pkg/slider"
)

// part is a structural region of the screen the slider can show, hide and
// size. Heights are in terminal rows.
type part struct {
	role      slider.Role
	display   bool
	minHeight int
	bounds    func() slider.Rect
}

func newPart(role slider.Role, bounds func() slider.Rect) *part {
	return &part{role: role, display: true, bounds: bounds}
}

func (p *part) SetDisplay(visible bool) { p.display = visible }
func (p *part) SetMinHeight(rows int)   { p.minHeight = rows }

func (p *part) Bounds() slider.Rect {
	if p.bounds == nil {
		return slider.Rect{}
	}
	return p.bounds()
}

// navButton is a navigation dot.
type navButton struct {
	index    int
	active   bool
	attached bool
}

func (b *navButton) SetActive(active bool) { b.active = active }
func (b *navButton) Attach()               { b.attached = true }
func (b *navButton) Detach()               { b.attached = false }

// slideView adapts a slide to the screen. It stamps style changes so they
// can be animated.
type slideView struct {
	*slide.Slide
	changed time.Time
	now     func() time.Time
	onStyle func()
}

// ApplyStyle implements slider.Element.
func (v *slideView) ApplyStyle(style geometry.Style, t geometry.Transition) {
	v.Slide.ApplyStyle(style, t)
	v.changed = v.now()
	if !t.None() && v.onStyle != nil {
		v.onStyle()
	}
}

// offset returns the slide's horizontal position in pixels for a slide of
// the given width, interpolated along its transition.
func (v *slideView) offset(width float64, at time.Time) (float64, float64) {
	to := v.Style()
	tr := v.Transition()
	if tr.None() {
		return to.X(width), to.Opacity
	}
	p := tr.Progress(at.Sub(v.changed))
	from := v.From()
	x := from.X(width) + (to.X(width)-from.X(width))*p
	op := from.Opacity + (to.Opacity-from.Opacity)*p
	return x, op
}

// animating reports whether the slide's transition is still running.
func (v *slideView) animating(at time.Time) bool {
	tr := v.Transition()
	return !tr.None() && at.Sub(v.changed) < tr.Duration
}

// host implements slider.Host over the model's screen regions.
type host struct {
	parts   map[slider.Role]*part
	views   []*slideView
	buttons []*navButton
}

// Find implements slider.Host.
func (h *host) Find(role slider.Role) (slider.Node, bool) {
	p, ok := h.parts[role]
	if !ok {
		return nil, false
	}
	return p, true
}

// Slides implements slider.Host.
func (h *host) Slides() []slider.Element {
	out := make([]slider.Element, len(h.views))
	for i, v := range h.views {
		out[i] = v
	}
	return out
}

// NewButton implements slider.Host.
func (h *host) NewButton(index int) slider.Button {
	b := &navButton{index: index}
	h.buttons = append(h.buttons, b)
	return b
}

// attached returns the attached buttons in index order.
func (h *host) attached() []*navButton {
	var out []*navButton
	for _, b := range h.buttons {
		if b.attached {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}

func (h *host) part(role slider.Role) *part {
	return h.parts[role]
}
