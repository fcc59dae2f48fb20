// Package slide implements a single carousel item: an image with desktop and
// mobile variants, an optional title and an optional link.
//
// A Slide owns its image source and layout state. Rendering is left to a
// host, which supplies a Measurer for the content height and a Requester
// that starts loading a source once it is assigned.
package slide

import (
	"strings"

	"github.com/Dicklesworthstone/carousel/pkg/geometry"
)

// Attributes are the authored attributes of a slide. Empty values are
// treated as absent.
type Attributes struct {
	ImageDesktop string `yaml:"image-desktop" json:"image-desktop"`
	ImageMobile  string `yaml:"image-mobile" json:"image-mobile"`
	Title        string `yaml:"title,omitempty" json:"title,omitempty"`
	Link         string `yaml:"link,omitempty" json:"link,omitempty"`
}

// HasImage reports whether at least one image variant is set.
func (a Attributes) HasImage() bool {
	return strings.TrimSpace(a.ImageDesktop) != "" || strings.TrimSpace(a.ImageMobile) != ""
}

// ImageEvent is emitted when a slide's image finishes loading.
type ImageEvent struct {
	Source   string
	Complete bool
}

// Measurer reports the intrinsic content height of a slide.
type Measurer interface {
	Measure(s *Slide) int
}

// MeasurerFunc adapts a function to Measurer.
type MeasurerFunc func(s *Slide) int

// Measure implements Measurer.
func (f MeasurerFunc) Measure(s *Slide) int { return f(s) }

// Requester is told when a slide assigns an image source.
type Requester func(s *Slide, src string)

// Slide is one carousel item.
type Slide struct {
	attrs Attributes

	mobile bool
	src    string
	loaded bool

	style      geometry.Style
	from       geometry.Style
	transition geometry.Transition
	visible    bool
	expanded   bool

	measurer  Measurer
	request   Requester
	listeners []func(ImageEvent)
}

// New creates a slide. It returns nil when the slide declares no image, in
// which case it is not shown.
func New(attrs Attributes, measurer Measurer, request Requester) *Slide {
	attrs.ImageDesktop = strings.TrimSpace(attrs.ImageDesktop)
	attrs.ImageMobile = strings.TrimSpace(attrs.ImageMobile)
	if !attrs.HasImage() {
		return nil
	}
	return &Slide{
		attrs:    attrs,
		measurer: measurer,
		request:  request,
	}
}

// Attributes returns the authored attributes.
func (s *Slide) Attributes() Attributes { return s.attrs }

// Title returns the title, or "" when none was authored.
func (s *Slide) Title() string { return s.attrs.Title }

// Link returns the link target, or "" when the slide is not linked.
func (s *Slide) Link() string { return s.attrs.Link }

// HasDesktop reports whether a desktop image is set.
func (s *Slide) HasDesktop() bool { return s.attrs.ImageDesktop != "" }

// HasMobile reports whether a mobile image is set.
func (s *Slide) HasMobile() bool { return s.attrs.ImageMobile != "" }

// Source returns the image the slide shows for the current viewport.
func (s *Slide) Source() string {
	if s.mobile {
		return s.attrs.ImageMobile
	}
	return s.attrs.ImageDesktop
}

// Src returns the assigned image source, "" while unset.
func (s *Slide) Src() string { return s.src }

// Loaded reports whether the assigned source finished loading.
func (s *Slide) Loaded() bool { return s.loaded }

// Materialize assigns the image source if it is still unset.
func (s *Slide) Materialize() {
	if s.src != "" {
		return
	}
	s.assign()
}

// SwitchImage records the viewport class and, when a source is already
// assigned, swaps it for the variant of that viewport.
func (s *Slide) SwitchImage(mobile bool) {
	s.mobile = mobile
	if !s.HasMobile() || s.src == "" {
		return
	}
	s.assign()
}

func (s *Slide) assign() {
	src := s.Source()
	if src == "" || src == s.src {
		return
	}
	s.src = src
	s.loaded = false
	if s.request != nil {
		s.request(s, src)
	}
}

// OnImage subscribes fn to image load notifications.
func (s *Slide) OnImage(fn func(ImageEvent)) {
	s.listeners = append(s.listeners, fn)
}

// ImageLoaded is called by the host when src finished loading. Stale
// notifications for a source the slide no longer shows are dropped.
func (s *Slide) ImageLoaded(src string, complete bool) {
	if src != s.src {
		return
	}
	s.loaded = complete
	ev := ImageEvent{Source: src, Complete: complete}
	for _, fn := range s.listeners {
		fn(ev)
	}
}

// ApplyStyle sets the position of the slide. The previous position is kept
// so hosts can animate the change.
func (s *Slide) ApplyStyle(style geometry.Style, t geometry.Transition) {
	s.from = s.style
	s.style = style
	s.transition = t
}

// Style returns the current position.
func (s *Slide) Style() geometry.Style { return s.style }

// From returns the position before the last ApplyStyle.
func (s *Slide) From() geometry.Style { return s.from }

// Transition returns the transition of the last ApplyStyle.
func (s *Slide) Transition() geometry.Transition { return s.transition }

// SetVisible shows or hides the slide.
func (s *Slide) SetVisible(v bool) { s.visible = v }

// Visible reports whether the slide is displayed.
func (s *Slide) Visible() bool { return s.visible }

// ResetExpand lets the slide take its intrinsic height.
func (s *Slide) ResetExpand() { s.expanded = false }

// Expand stretches the slide to the full slider height.
func (s *Slide) Expand() { s.expanded = true }

// Expanded reports whether the slide fills the slider height.
func (s *Slide) Expanded() bool { return s.expanded }

// ContentHeight returns the intrinsic content height.
func (s *Slide) ContentHeight() int {
	if s.measurer == nil {
		return 0
	}
	return s.measurer.Measure(s)
}
