// Package slider arranges slides into a carousel.
//
// A Slider owns the current index and the active slide sequence. It turns
// pointer gestures into index transitions, tracks the pointer during drags,
// coordinates lazy image loading, sizes the slides and swaps between the
// desktop and mobile sequences when the viewport crosses the breakpoint.
//
// All methods must be called from the single goroutine that delivers host
// events.
package slider

import (
	"time"

	"github.com/Dicklesworthstone/carousel/pkg/geometry"
	"github.com/Dicklesworthstone/carousel/pkg/gesture"
	"github.com/Dicklesworthstone/carousel/pkg/lazy"
)

// Entry pairs a slide with its navigation button.
type Entry struct {
	Element Element
	Button  Button
}

// Result describes how a released gesture was handled.
type Result struct {
	Outcome gesture.Outcome
	// Click reports whether the release should keep its native click
	// behavior, such as following a link.
	Click bool
}

// Option configures a Slider.
type Option func(*Slider)

// WithViewport sets the viewport classifier. The default never reports mobile.
func WithViewport(v Viewport) Option {
	return func(s *Slider) { s.viewport = v }
}

// WithClock sets the time source used to time gestures.
func WithClock(now func() time.Time) Option {
	return func(s *Slider) { s.now = now }
}

// WithDeltaT overrides the transition time constant in seconds.
func WithDeltaT(deltaT float64) Option {
	return func(s *Slider) { s.deltaT = deltaT }
}

// Slider is the carousel controller.
type Slider struct {
	viewport Viewport
	now      func() time.Time
	deltaT   float64

	host      Host
	container Node
	content   Node
	sideNav   Node
	tracker   *gesture.Tracker

	mode     lazy.Mode
	elements []Element
	all      []Entry
	mobile   []Entry
	slides   []Entry
	index    int
	isMobile bool
	loaded   *lazy.LoadedSet
	ready    bool
}

// New creates a detached slider.
func New(opts ...Option) *Slider {
	s := &Slider{
		viewport: ViewportFunc(func() bool { return false }),
		now:      time.Now,
		deltaT:   geometry.DeltaT,
		loaded:   lazy.NewLoadedSet(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tracker = gesture.NewTracker(s.now)
	return s
}

// Initialize attaches the slider to host. It returns false, leaving the
// slider inert, when the host lacks its container or content part.
func (s *Slider) Initialize(host Host, mode lazy.Mode) bool {
	container, ok := host.Find(RoleContainer)
	if !ok {
		return false
	}
	content, ok := host.Find(RoleContent)
	if !ok {
		return false
	}

	s.host = host
	s.container = container
	s.content = content
	s.sideNav, _ = host.Find(RoleSideNav)
	s.mode = mode
	s.index = 0
	s.all, s.mobile = nil, nil

	s.elements = host.Slides()
	for _, el := range s.elements {
		pos := len(s.all)
		el.ApplyStyle(geometry.StyleFor(0, pos), geometry.Transition{})
		el.SetVisible(false)
		s.all = append(s.all, Entry{Element: el, Button: host.NewButton(pos)})

		if el.HasMobile() {
			mpos := len(s.mobile)
			el.ApplyStyle(geometry.StyleFor(0, mpos), geometry.Transition{})
			s.mobile = append(s.mobile, Entry{Element: el, Button: host.NewButton(mpos)})
		}
	}

	s.isMobile = s.viewport.IsMobile()
	for _, el := range s.elements {
		el.SwitchImage(s.isMobile)
	}
	s.slides = s.sequence(s.isMobile)
	s.show()

	for _, k := range lazy.InitialRange(mode, len(s.slides)) {
		s.slides[k].Element.Materialize()
	}
	s.SetIndex(s.index)

	if s.sideNav != nil && len(s.slides) < 2 {
		s.sideNav.SetDisplay(false)
	}

	s.ready = true
	s.Resize()
	s.setVisibility()
	return true
}

// Teardown detaches the slider from its host.
func (s *Slider) Teardown() {
	for _, e := range s.slides {
		e.Button.Detach()
		e.Element.SetVisible(false)
	}
	s.tracker.Clear()
	s.ready = false
	s.host = nil
	s.container, s.content, s.sideNav = nil, nil, nil
	s.elements = nil
	s.all, s.mobile, s.slides = nil, nil, nil
	s.index = 0
}

// Ready reports whether the slider is attached.
func (s *Slider) Ready() bool { return s.ready }

// Index returns the current index.
func (s *Slider) Index() int { return s.index }

// Len returns the length of the active sequence.
func (s *Slider) Len() int { return len(s.slides) }

// Mobile reports whether the mobile sequence is active.
func (s *Slider) Mobile() bool { return s.isMobile }

// Mode returns the lazy loading mode.
func (s *Slider) Mode() lazy.Mode { return s.mode }

// Dragging reports whether a gesture is in progress.
func (s *Slider) Dragging() bool { return s.tracker.Active() }

// Active returns the entries of the active sequence.
func (s *Slider) Active() []Entry { return s.slides }

// SetIndex moves the carousel to index, wrapping around the active sequence.
// Images of every slide passed on the way are materialized first.
func (s *Slider) SetIndex(index int) {
	next := geometry.NormalizeIndex(index, len(s.slides))

	for _, k := range lazy.TransitionRange(s.index, next) {
		if k < len(s.slides) {
			s.slides[k].Element.Materialize()
		}
	}

	tr := geometry.EaseTransition(s.deltaT)
	for i, e := range s.slides {
		e.Element.ApplyStyle(geometry.StyleFor(next, i), tr)
		e.Button.SetActive(i == next)
	}
	s.index = next
}

// ToLeft shows the previous slide, wrapping to the last one.
func (s *Slider) ToLeft() { s.SetIndex(s.index - 1) }

// ToRight shows the next slide, wrapping to the first one.
func (s *Slider) ToRight() { s.SetIndex(s.index + 1) }

// settle snaps every slide back to its resting position without animation.
func (s *Slider) settle() {
	for i, e := range s.slides {
		e.Element.ApplyStyle(geometry.StyleFor(s.index, i), geometry.Transition{})
	}
}

// PointerDown starts tracking a gesture.
func (s *Slider) PointerDown(p gesture.Pointer) {
	s.tracker.Start(p)
}

// PointerMove makes the slides follow the pointer and warms the images of
// every slide the drag would currently land on.
func (s *Slider) PointerMove(p gesture.Pointer) {
	if len(s.slides) < 2 || !s.tracker.Active() {
		return
	}
	delta, ok := s.tracker.Delta(p)
	if !ok || delta == 0 {
		return
	}

	width := s.content.Bounds().Width
	projected := gesture.Project(delta, width, s.index, len(s.slides))
	for _, k := range lazy.DragRange(s.index, projected, len(s.slides)) {
		s.slides[k].Element.Materialize()
	}

	offset := -delta
	for i, e := range s.slides {
		e.Element.ApplyStyle(geometry.MoveStyleFor(s.index, i, offset), geometry.Transition{})
	}
}

// PointerUp ends the gesture and commits the resulting index.
func (s *Slider) PointerUp(p gesture.Pointer) Result {
	click := s.tracker.IsClick(p)
	defer s.tracker.Clear()

	none := Result{Outcome: gesture.Outcome{Kind: gesture.KindClick, Target: s.index}, Click: click}
	if !s.tracker.Active() || len(s.slides) < 2 {
		return none
	}
	delta, ok := s.tracker.Delta(p)
	if !ok {
		return none
	}

	x, _ := p.ClientX()
	b := s.content.Bounds()
	out := gesture.Resolve(gesture.Release{
		Dx:      delta,
		Elapsed: s.tracker.Elapsed(),
		X:       x,
		Left:    b.X,
		Width:   b.Width,
	}, s.index, len(s.slides))

	if out.Kind == gesture.KindClick {
		s.settle()
	} else {
		s.SetIndex(out.Target)
	}
	return Result{Outcome: out, Click: click}
}

// PointerLeave ends the gesture when the pointer leaves the content.
func (s *Slider) PointerLeave(p gesture.Pointer) Result {
	return s.PointerUp(p)
}

// IsClick reports whether p should keep its native click behavior.
func (s *Slider) IsClick(p gesture.Pointer) bool {
	return s.tracker.IsClick(p)
}

// Click consumes a click on slide content and reports whether its native
// behavior should proceed. The gesture state is cleared either way.
func (s *Slider) Click(p gesture.Pointer) bool {
	follow := s.tracker.IsClick(p)
	s.tracker.Clear()
	return follow
}

// Resize re-evaluates the viewport class and the slide heights.
func (s *Slider) Resize() {
	if !s.ready {
		return
	}
	m := s.viewport.IsMobile()
	for _, el := range s.elements {
		el.SwitchImage(m)
	}
	if m != s.isMobile {
		s.switchLayout(m)
	}
	s.adjustHeight()
}

// ImageLoaded handles an image load notification. Sources seen before are
// ignored; new ones trigger a height adjustment whether or not the decode
// completed.
func (s *Slider) ImageLoaded(src string, complete bool) {
	if !s.loaded.Add(src) {
		return
	}
	s.adjustHeight()
}

// Loaded returns the number of distinct sources loaded so far.
func (s *Slider) Loaded() int { return s.loaded.Len() }

func (s *Slider) sequence(mobile bool) []Entry {
	if mobile {
		return s.mobile
	}
	return s.all
}

func (s *Slider) show() {
	for _, e := range s.slides {
		e.Element.SetVisible(true)
		if len(s.slides) > 1 {
			e.Button.Attach()
		}
	}
}

func (s *Slider) switchLayout(mobile bool) {
	for _, e := range s.slides {
		e.Element.SetVisible(false)
		e.Button.Detach()
	}

	s.slides = s.sequence(mobile)
	s.show()

	if s.index > len(s.slides)-1 {
		s.index = max(len(s.slides)-1, 0)
	}
	s.isMobile = mobile
	s.setVisibility()
	s.SetIndex(s.index)
}

func (s *Slider) setVisibility() {
	if s.container == nil {
		return
	}
	s.container.SetDisplay(len(s.slides) > 0)
}

func (s *Slider) adjustHeight() {
	if s.content == nil || len(s.slides) < 1 {
		return
	}
	h := s.height()
	s.content.SetMinHeight(h)

	for _, el := range s.elements {
		if el.ContentHeight() < h {
			el.Expand()
		}
	}
}

func (s *Slider) height() int {
	if s.mode == lazy.FirstSlide {
		return intrinsicHeight(s.slides[0].Element)
	}
	h := 0
	for _, e := range s.slides {
		h = max(h, intrinsicHeight(e.Element))
	}
	return h
}

func intrinsicHeight(el Element) int {
	el.ResetExpand()
	return el.ContentHeight()
}
