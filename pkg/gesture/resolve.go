package gesture

import (
	"math"
	"time"

	"github.com/Dicklesworthstone/carousel/pkg/geometry"
)

// Kind classifies a released gesture.
type Kind int

const (
	// KindClick means the pointer barely moved; nothing is re-rendered.
	KindClick Kind = iota
	// KindSettle snaps back onto the current slide with a transition.
	KindSettle
	// KindFlick jumps by a velocity-scaled number of slides.
	KindFlick
	// KindDistance moves by the number of slide widths dragged.
	KindDistance
	// KindEdge steps one slide after a release near the container edge.
	KindEdge
)

func (k Kind) String() string {
	switch k {
	case KindClick:
		return "click"
	case KindSettle:
		return "settle"
	case KindFlick:
		return "flick"
	case KindDistance:
		return "distance"
	case KindEdge:
		return "edge"
	default:
		return "unknown"
	}
}

// Release is everything needed to classify a finished gesture.
type Release struct {
	// Dx is originX - releaseX.
	Dx float64
	// Elapsed is the gesture duration.
	Elapsed time.Duration
	// X is the release coordinate.
	X float64
	// Left and Width describe the content container.
	Left  float64
	Width float64
}

// Outcome is the index decision for a release.
type Outcome struct {
	Kind   Kind
	Target int
}

// Moves reports whether the outcome changes the index away from current.
func (o Outcome) Moves(current int) bool {
	return o.Kind != KindClick && o.Target != current
}

// Resolve classifies r for a carousel of length slides showing current.
func Resolve(r Release, current, length int) Outcome {
	dx := math.Abs(r.Dx)
	if dx < NoisePx {
		return Outcome{Kind: KindClick, Target: current}
	}

	elapsed := r.Elapsed
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}

	if elapsed <= FlickMaxElapsed && dx >= FlickMinPx {
		v := dx / (float64(elapsed) / float64(time.Millisecond))
		delta := int(math.Ceil(geometry.DeltaT * v))
		if delta < 1 {
			return Outcome{Kind: KindSettle, Target: current}
		}
		return Outcome{Kind: KindFlick, Target: step(current, delta, r.Dx, length)}
	}

	if dx < SettlePx {
		return Outcome{Kind: KindSettle, Target: current}
	}

	if target := Project(r.Dx, r.Width, current, length); target != current {
		return Outcome{Kind: KindDistance, Target: target}
	}

	return EdgeFallback(r.X, r.Left, r.Width, current, length)
}

// Project returns the index a drag of dx pixels lands on by distance alone:
// every started slide width counts as a full slide.
func Project(dx, width float64, current, length int) int {
	if dx == 0 {
		return current
	}
	abs := math.Abs(dx)
	steps := float64(length)
	if width > 0 {
		steps = math.Min(math.Ceil(abs/width), steps)
	}
	return step(current, int(steps), dx, length)
}

// EdgeFallback handles a release that crossed no slide boundary. A release
// near the left edge advances, one near the right edge goes back.
func EdgeFallback(x, left, width float64, current, length int) Outcome {
	zone := EdgeZone * width
	switch {
	case math.Abs(x-left) < zone && current < length-1:
		return Outcome{Kind: KindEdge, Target: current + 1}
	case math.Abs(x-(left+width)) < zone && current > 0:
		return Outcome{Kind: KindEdge, Target: current - 1}
	}
	return Outcome{Kind: KindSettle, Target: current}
}

// step moves delta slides in the direction of dx, clamped to the sequence.
func step(current, delta int, dx float64, length int) int {
	if dx < 0 {
		return max(current-delta, 0)
	}
	return min(current+delta, length-1)
}
