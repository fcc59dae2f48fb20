// Package geometry computes slide positions for the carousel.
//
// Every function here is pure: positions are derived from the current index
// and the slide's own index, optionally shifted by a live drag offset.
package geometry

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// DeltaT is the reference time constant, in seconds, shared by the flick
// velocity scaling and the transition duration.
const DeltaT = 0.5

// NormalizeIndex wraps index into [0, n-1]. With no slides the result is 0.
func NormalizeIndex(index, n int) int {
	if n < 1 {
		return 0
	}
	i := index % n
	if i < 0 {
		i += n
	}
	return i
}

// Style is the render state of a single slide.
type Style struct {
	// Slots is the translation in multiples of one slide width.
	Slots int
	// OffsetPx is an additional pixel translation applied while dragging.
	OffsetPx float64
	// Opacity is 1 for the current slide and 0 for every other one.
	Opacity float64
}

// StyleFor returns the resting style of the slide at element when current is shown.
func StyleFor(current, element int) Style {
	if current == element {
		return Style{Opacity: 1}
	}
	return Style{Slots: element - current}
}

// MoveStyleFor returns the resting style shifted by dx pixels.
func MoveStyleFor(current, element int, dx float64) Style {
	s := StyleFor(current, element)
	s.OffsetPx = dx
	return s
}

// X resolves the translation to pixels for a slide of the given width.
func (s Style) X(width float64) float64 {
	return float64(s.Slots)*width + s.OffsetPx
}

// Centered reports whether the slide rests at the origin.
func (s Style) Centered() bool {
	return s.Slots == 0 && s.OffsetPx == 0
}

// Transform renders the style as a CSS transform value.
func (s Style) Transform() string {
	px := strconv.FormatFloat(s.OffsetPx, 'f', -1, 64)
	switch {
	case s.Slots == 0 && s.OffsetPx == 0:
		return "translateX(0)"
	case s.Slots == 0:
		return "translateX(" + px + "px)"
	}

	pct := "100%"
	slots := s.Slots
	if slots < 0 {
		pct = "-100%"
		slots = -slots
	}
	if s.OffsetPx == 0 {
		return fmt.Sprintf("translateX(calc(%d * %s))", slots, pct)
	}
	return fmt.Sprintf("translateX(calc(%d * %s + %spx))", slots, pct, px)
}

// CubicBezier is a CSS cubic-bezier timing function with fixed end points
// (0,0) and (1,1).
type CubicBezier struct {
	X1, Y1, X2, Y2 float64
}

// EaseInOutQuad is the easing used for index transitions.
var EaseInOutQuad = CubicBezier{X1: 0.455, Y1: 0.03, X2: 0.515, Y2: 0.955}

func bezier(t, p1, p2 float64) float64 {
	u := 1 - t
	return 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t
}

// At returns the eased progress for linear progress t in [0, 1].
func (c CubicBezier) At(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	// x(s) is monotonic for control points inside [0,1], so bisection converges.
	lo, hi := 0.0, 1.0
	s := t
	for i := 0; i < 32; i++ {
		x := bezier(s, c.X1, c.X2)
		if math.Abs(x-t) < 1e-6 {
			break
		}
		if x < t {
			lo = s
		} else {
			hi = s
		}
		s = (lo + hi) / 2
	}
	return bezier(s, c.Y1, c.Y2)
}

func (c CubicBezier) String() string {
	return fmt.Sprintf("cubic-bezier(%s, %s, %s, %s)",
		strconv.FormatFloat(c.X1, 'f', -1, 64),
		strconv.FormatFloat(c.Y1, 'f', -1, 64),
		strconv.FormatFloat(c.X2, 'f', -1, 64),
		strconv.FormatFloat(c.Y2, 'f', -1, 64))
}

// Transition describes how a style change is animated. The zero value means
// the change applies immediately.
type Transition struct {
	Duration time.Duration
	Easing   CubicBezier
}

// EaseTransition returns the transition used when the index changes.
func EaseTransition(deltaT float64) Transition {
	return Transition{
		Duration: time.Duration(deltaT * float64(time.Second)),
		Easing:   EaseInOutQuad,
	}
}

// None reports whether the transition is immediate.
func (t Transition) None() bool {
	return t.Duration <= 0
}

// CSS renders the transition as a CSS transition value, or "" when immediate.
func (t Transition) CSS() string {
	if t.None() {
		return ""
	}
	secs := strconv.FormatFloat(t.Duration.Seconds(), 'f', -1, 64)
	return "all " + secs + "s " + t.Easing.String()
}

// Progress returns the eased progress after elapsed time.
func (t Transition) Progress(elapsed time.Duration) float64 {
	if t.None() {
		return 1
	}
	return t.Easing.At(float64(elapsed) / float64(t.Duration))
}
