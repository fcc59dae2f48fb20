package slider

import "github.com/Dicklesworthstone/carousel/pkg/geometry"

// Role names a structural part of the host that the slider looks up.
type Role string

const (
	// RoleContainer is the outer container, hidden when there are no slides.
	RoleContainer Role = "slider-outer-container"
	// RoleContent wraps the slides and receives the shared minimum height.
	RoleContent Role = "slider-content-wrapper"
	// RoleButtons holds the per-slide navigation buttons.
	RoleButtons Role = "slider-slide-button-container"
	// RoleSideNav holds the previous/next buttons.
	RoleSideNav Role = "slider-side-nav"
)

// Rect is a bounding box in pixels.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Right returns the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Node is a host part found by role.
type Node interface {
	SetDisplay(visible bool)
	SetMinHeight(px int)
	Bounds() Rect
}

// Element is a displayable slide.
type Element interface {
	ApplyStyle(style geometry.Style, t geometry.Transition)
	SetVisible(visible bool)
	ResetExpand()
	Expand()
	ContentHeight() int
	// Materialize assigns the image source unless one is already assigned.
	Materialize()
	// Source is the image the element shows for the current viewport.
	Source() string
	HasMobile() bool
	// SwitchImage tells the element which viewport class is active.
	SwitchImage(mobile bool)
}

// Button is the navigation button of one slide.
type Button interface {
	SetActive(active bool)
	Attach()
	Detach()
}

// Host is the element tree a slider is attached to.
type Host interface {
	// Find returns the part with the given role, or false when it is missing.
	Find(role Role) (Node, bool)
	// Slides returns the authored slides in order.
	Slides() []Element
	// NewButton creates the navigation button that selects index.
	NewButton(index int) Button
}

// Viewport classifies the current viewport.
type Viewport interface {
	IsMobile() bool
}

// ViewportFunc adapts a function to Viewport.
type ViewportFunc func() bool

// IsMobile implements Viewport.
func (f ViewportFunc) IsMobile() bool { return f() }

// DefaultBreakpoint is the widest viewport, in pixels, treated as mobile.
const DefaultBreakpoint = 736

// Breakpoint classifies a viewport as mobile when its width is at most Max.
type Breakpoint struct {
	Width func() float64
	Max   float64
}

// IsMobile implements Viewport.
func (b Breakpoint) IsMobile() bool {
	if b.Width == nil {
		return false
	}
	return b.Width() <= b.Max
}
